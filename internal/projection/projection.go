// Package projection reprojects loaded datasets into the canonical WGS84 CRS
// and maps WGS84 coordinates into Web Mercator pixel space.
package projection

import (
	"errors"
	"fmt"
	"math"

	"github.com/MeKo-Tech/peatrisk/internal/types"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// Supported EPSG codes.
const (
	SRIDWGS84       = types.SRIDWGS84
	SRIDWebMercator = 3857
	// SRIDGoogle is the legacy code some tools still write for Web Mercator.
	SRIDGoogle = 900913
)

// earthRadius is the Web Mercator sphere radius in meters.
const earthRadius = 6378137.0

// ErrUnsupportedCRS is returned for source CRSs that cannot be reprojected.
var ErrUnsupportedCRS = errors.New("unsupported coordinate reference system")

// ToWGS84 returns fs with every geometry expressed in EPSG:4326.
// Sets already in WGS84 are returned unchanged, so calling it twice is a no-op.
// A zero SRID is taken to mean WGS84. The input set is never modified.
func ToWGS84(fs *types.FeatureSet) (*types.FeatureSet, error) {
	if fs == nil {
		return nil, nil
	}

	var proj orb.Projection
	switch fs.SRID {
	case SRIDWGS84:
		return fs, nil
	case 0:
		out := *fs
		out.SRID = SRIDWGS84
		return &out, nil
	case SRIDWebMercator, SRIDGoogle:
		proj = project.Mercator.ToWGS84
	default:
		return nil, fmt.Errorf("%s: EPSG:%d: %w", fs.Name, fs.SRID, ErrUnsupportedCRS)
	}

	out := &types.FeatureSet{
		Name:     fs.Name,
		SRID:     SRIDWGS84,
		Features: make([]types.Feature, len(fs.Features)),
	}
	for i, f := range fs.Features {
		if f.Geometry != nil {
			f.Geometry = project.Geometry(orb.Clone(f.Geometry), proj)
		}
		out.Features[i] = f
	}
	return out, nil
}

// LonLatToMercator converts WGS84 coordinates to Web Mercator (EPSG:3857)
func LonLatToMercator(lon, lat float64) (float64, float64) {
	x := earthRadius * lon * math.Pi / 180.0

	latRad := lat * math.Pi / 180.0
	y := earthRadius * math.Log(math.Tan(math.Pi/4.0+latRad/2.0))

	return x, y
}

// GlobalPixel maps WGS84 lon/lat to the global Web Mercator pixel space of a
// slippy map at the given zoom, i.e. [0, 2^zoom*tileSize) on both axes.
func GlobalPixel(lon, lat float64, zoom int, tileSize int) (float64, float64) {
	n := math.Pow(2, float64(zoom)) * float64(tileSize)
	half := earthRadius * math.Pi

	mx, my := LonLatToMercator(lon, lat)
	return (mx/half + 1) / 2 * n, (1 - my/half) / 2 * n
}
