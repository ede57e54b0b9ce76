// Package style maps risk categories and overlay layers to fixed rendering styles.
package style

import (
	"github.com/MeKo-Tech/peatrisk/internal/types"
)

// Style is the set of rendering attributes applied to one feature.
type Style struct {
	FillColor   string  `json:"fillColor" yaml:"fillColor"`
	FillOpacity float64 `json:"fillOpacity" yaml:"fillOpacity"`
	Color       string  `json:"color" yaml:"color"`   // stroke colour
	Weight      float64 `json:"weight" yaml:"weight"` // stroke width in pixels
}

// Palette colours (viridis endpoints and midpoint) and shared stroke attributes.
const (
	ColorLow     = "#440154"
	ColorMedium  = "#21908d"
	ColorHigh    = "#fde725"
	ColorUnknown = "#9e9e9e"
	ColorOverlay = "#FFD700"

	StrokeColor = "black"
	StrokeWidth = 0.5

	RiskOpacity    = 0.75
	OverlayOpacity = 0.5
)

var riskStyles = map[types.Category]Style{
	types.CategoryLow:    riskStyle(ColorLow),
	types.CategoryMedium: riskStyle(ColorMedium),
	types.CategoryHigh:   riskStyle(ColorHigh),
}

// Default is applied to features whose category is not recognised.
var Default = riskStyle(ColorUnknown)

var overlay = Style{
	FillColor:   ColorOverlay,
	FillOpacity: OverlayOpacity,
	Color:       StrokeColor,
	Weight:      StrokeWidth,
}

func riskStyle(fill string) Style {
	return Style{
		FillColor:   fill,
		FillOpacity: RiskOpacity,
		Color:       StrokeColor,
		Weight:      StrokeWidth,
	}
}

// Resolve returns the risk-layer style for a category.
// Unrecognised categories get Default.
func Resolve(c types.Category) Style {
	if s, ok := riskStyles[c]; ok {
		return s
	}
	return Default
}

// Overlay returns the uniform style shared by every overlay feature.
func Overlay() Style {
	return overlay
}
