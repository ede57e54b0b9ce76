package datasource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/peatrisk/internal/projection"
	"github.com/MeKo-Tech/peatrisk/internal/types"
	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
)

// ShapefileLoader reads an ESRI Shapefile (.shp with its .dbf, optional .prj).
type ShapefileLoader struct{}

// Load reads every record. DBF attributes become properties: numeric fields
// are parsed to float64 where possible, blank values become nil, and
// unparseable numbers are kept as the raw string.
func (l *ShapefileLoader) Load(ctx context.Context, path string) (*types.FeatureSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	srid, err := shapefileSRID(path)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(sidecar(path, ".dbf")); err != nil {
		return nil, fmt.Errorf("failed to open attribute table: %w", err)
	}

	reader, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open shapefile: %w", err)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.TrimRight(f.String(), "\x00")
	}

	fs := &types.FeatureSet{SRID: srid}
	for reader.Next() {
		n, shape := reader.Shape()

		props := make(map[string]interface{}, len(fields))
		for i, f := range fields {
			val := strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
			props[names[i]] = dbfValue(f.Fieldtype, val)
		}

		fs.Features = append(fs.Features, types.Feature{
			ID:         strconv.Itoa(n),
			Geometry:   shapeToOrb(shape),
			Properties: props,
		})
	}
	if err := reader.Err(); err != nil {
		return nil, fmt.Errorf("failed to read shapefile: %w", err)
	}

	return fs, nil
}

// sidecar returns the path of a companion file (.dbf, .prj) of a shapefile,
// whatever the case of the .shp extension.
func sidecar(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

func dbfValue(fieldType byte, val string) interface{} {
	if val == "" {
		return nil
	}
	switch fieldType {
	case 'N', 'F':
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
		return val
	default:
		return val
	}
}

// shapefileSRID reads the .prj next to the shapefile. No .prj means WGS84.
func shapefileSRID(path string) (int, error) {
	data, err := os.ReadFile(sidecar(path, ".prj"))
	if os.IsNotExist(err) {
		return projection.SRIDWGS84, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read projection file: %w", err)
	}
	return sridFromWKT(string(data))
}

// sridFromWKT recognises the two CRSs the pipeline can handle from ESRI WKT.
func sridFromWKT(wkt string) (int, error) {
	upper := strings.ToUpper(wkt)
	if !strings.HasPrefix(strings.TrimSpace(upper), "PROJCS") {
		return projection.SRIDWGS84, nil
	}
	for _, marker := range []string{"WEB_MERCATOR", "PSEUDO-MERCATOR", "PSEUDO_MERCATOR", "MERCATOR_AUXILIARY_SPHERE"} {
		if strings.Contains(upper, marker) {
			return projection.SRIDWebMercator, nil
		}
	}
	return 0, fmt.Errorf("projected CRS in .prj: %w", projection.ErrUnsupportedCRS)
}

func shapeToOrb(shape shp.Shape) orb.Geometry {
	switch s := shape.(type) {
	case *shp.Point:
		return orb.Point{s.X, s.Y}
	case *shp.PolyLine:
		parts := shapeParts(s.Parts, s.Points)
		if len(parts) == 1 {
			return orb.LineString(parts[0])
		}
		mls := make(orb.MultiLineString, 0, len(parts))
		for _, p := range parts {
			mls = append(mls, orb.LineString(p))
		}
		return mls
	case *shp.Polygon:
		return ringsToPolygons(shapeParts(s.Parts, s.Points))
	default:
		return nil
	}
}

func shapeParts(parts []int32, pts []shp.Point) [][]orb.Point {
	out := make([][]orb.Point, 0, len(parts))
	for i, start := range parts {
		end := int32(len(pts))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || start >= end || int(end) > len(pts) {
			continue
		}
		part := make([]orb.Point, 0, end-start)
		for _, p := range pts[start:end] {
			part = append(part, orb.Point{p.X, p.Y})
		}
		out = append(out, part)
	}
	return out
}

// ringsToPolygons groups shapefile rings: clockwise rings start a new polygon,
// counter-clockwise rings are holes of the polygon before them.
func ringsToPolygons(rings [][]orb.Point) orb.Geometry {
	var mp orb.MultiPolygon
	for _, pts := range rings {
		r := orb.Ring(pts)
		if len(mp) == 0 || r.Orientation() == orb.CW {
			mp = append(mp, orb.Polygon{r})
			continue
		}
		last := len(mp) - 1
		mp[last] = append(mp[last], r)
	}

	switch len(mp) {
	case 0:
		return nil
	case 1:
		return mp[0]
	default:
		return mp
	}
}
