// Package geojson encodes map views as documents for a browser map library:
// view settings and legend plus one GeoJSON FeatureCollection per layer.
package geojson

import (
	"github.com/MeKo-Tech/peatrisk/internal/layer"
	"github.com/MeKo-Tech/peatrisk/internal/style"
	"github.com/paulmach/orb/geojson"
)

// Simplestyle property keys written on every feature.
const (
	PropFill        = "fill"
	PropFillOpacity = "fill-opacity"
	PropStroke      = "stroke"
	PropStrokeWidth = "stroke-width"
	PropTooltip     = "tooltip"
)

// ShadowPrefix is prepended to a source attribute whose name collides with
// a style or tooltip key, so the attribute survives next to the style value.
const ShadowPrefix = "src_"

var reservedKeys = map[string]bool{
	PropFill:        true,
	PropFillOpacity: true,
	PropStroke:      true,
	PropStrokeWidth: true,
	PropTooltip:     true,
}

// LayerToGeoJSON converts the features of a layer to a FeatureCollection.
// Each feature keeps its attributes and gains its resolved style as
// simplestyle properties and, for layers with a tooltip, the ordered tooltip
// rows. Attributes named like one of those keys are kept under ShadowPrefix.
// Features without geometry are skipped.
func LayerToGeoJSON(l layer.LayerSpec) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	if l.Features == nil {
		return fc
	}

	for _, f := range l.Features.Features {
		if f.Geometry == nil {
			continue
		}

		geoFeature := geojson.NewFeature(f.Geometry)
		if f.ID != "" {
			geoFeature.ID = f.ID
		}

		for key, value := range f.Properties {
			if reservedKeys[key] {
				key = ShadowPrefix + key
			}
			geoFeature.Properties[key] = value
		}
		applyStyle(geoFeature.Properties, l.StyleFor(f))

		if tip := l.Tooltip.Values(f); len(tip) > 0 {
			geoFeature.Properties[PropTooltip] = tip
		}

		fc.Append(geoFeature)
	}

	return fc
}

func applyStyle(props geojson.Properties, s style.Style) {
	props[PropFill] = s.FillColor
	props[PropFillOpacity] = s.FillOpacity
	props[PropStroke] = s.Color
	props[PropStrokeWidth] = s.Weight
}
