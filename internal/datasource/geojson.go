package datasource

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/MeKo-Tech/peatrisk/internal/projection"
	"github.com/MeKo-Tech/peatrisk/internal/types"
	"github.com/paulmach/orb/geojson"
)

// GeoJSONLoader reads a GeoJSON FeatureCollection.
type GeoJSONLoader struct{}

// Load reads the collection. RFC 7946 data is WGS84; the legacy "crs" member
// is honoured when it names Web Mercator.
func (l *GeoJSONLoader) Load(ctx context.Context, path string) (*types.FeatureSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read GeoJSON: %w", err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse GeoJSON: %w", err)
	}

	srid, err := geojsonSRID(fc)
	if err != nil {
		return nil, err
	}

	fs := &types.FeatureSet{
		SRID:     srid,
		Features: make([]types.Feature, 0, len(fc.Features)),
	}
	for i, f := range fc.Features {
		id := fmt.Sprint(i)
		if f.ID != nil {
			id = fmt.Sprint(f.ID)
		}
		props := map[string]interface{}(f.Properties)
		if props == nil {
			props = make(map[string]interface{})
		}
		fs.Features = append(fs.Features, types.Feature{
			ID:         id,
			Geometry:   f.Geometry,
			Properties: props,
		})
	}
	return fs, nil
}

func geojsonSRID(fc *geojson.FeatureCollection) (int, error) {
	crs, ok := fc.ExtraMembers["crs"].(map[string]interface{})
	if !ok {
		return projection.SRIDWGS84, nil
	}
	props, _ := crs["properties"].(map[string]interface{})
	name, _ := props["name"].(string)

	switch {
	case name == "":
		return projection.SRIDWGS84, nil
	case strings.HasSuffix(name, "CRS84"), strings.HasSuffix(name, ":4326"):
		return projection.SRIDWGS84, nil
	case strings.HasSuffix(name, ":3857"), strings.HasSuffix(name, ":900913"):
		return projection.SRIDWebMercator, nil
	default:
		return 0, fmt.Errorf("GeoJSON crs %q: %w", name, projection.ErrUnsupportedCRS)
	}
}
