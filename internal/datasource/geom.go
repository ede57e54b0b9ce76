package datasource

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/twpayne/go-geom"
)

// toOrb converts a decoded go-geom geometry into the orb model used everywhere else.
func toOrb(g geom.T) (orb.Geometry, error) {
	switch g := g.(type) {
	case nil:
		return nil, nil
	case *geom.Point:
		if len(g.FlatCoords()) == 0 {
			return nil, nil
		}
		return orb.Point{g.X(), g.Y()}, nil
	case *geom.MultiPoint:
		return orb.MultiPoint(points(g.Coords())), nil
	case *geom.LineString:
		return orb.LineString(points(g.Coords())), nil
	case *geom.MultiLineString:
		mls := make(orb.MultiLineString, 0, g.NumLineStrings())
		for _, ls := range g.Coords() {
			mls = append(mls, orb.LineString(points(ls)))
		}
		return mls, nil
	case *geom.Polygon:
		return polygon(g.Coords()), nil
	case *geom.MultiPolygon:
		mp := make(orb.MultiPolygon, 0, g.NumPolygons())
		for _, p := range g.Coords() {
			mp = append(mp, polygon(p))
		}
		return mp, nil
	default:
		return nil, fmt.Errorf("unsupported geometry type %T", g)
	}
}

func points(coords []geom.Coord) []orb.Point {
	out := make([]orb.Point, len(coords))
	for i, c := range coords {
		out[i] = orb.Point{c.X(), c.Y()}
	}
	return out
}

func polygon(rings [][]geom.Coord) orb.Polygon {
	p := make(orb.Polygon, 0, len(rings))
	for _, r := range rings {
		p = append(p, orb.Ring(points(r)))
	}
	return p
}
