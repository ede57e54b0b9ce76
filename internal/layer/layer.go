// Package layer assembles styled, tooltip-bound map layers from loaded datasets.
package layer

import (
	"fmt"
	"log/slog"

	"github.com/MeKo-Tech/peatrisk/internal/style"
	"github.com/MeKo-Tech/peatrisk/internal/types"
)

// Kind distinguishes the mandatory risk layer from optional overlays.
type Kind string

const (
	KindRisk    Kind = "risk"
	KindOverlay Kind = "overlay"
)

// RiskLayerName is the display name of the base layer.
const RiskLayerName = "Peat Risk"

// Tooltip binds feature attributes to human-readable labels.
type Tooltip struct {
	Fields  []string `json:"fields" yaml:"fields"`
	Aliases []string `json:"aliases" yaml:"aliases"`
}

// Values returns alias -> attribute value for one feature, in field order.
// Missing attributes are reported as nil.
func (t *Tooltip) Values(f types.Feature) []TooltipValue {
	if t == nil {
		return nil
	}
	out := make([]TooltipValue, 0, len(t.Fields))
	for i, field := range t.Fields {
		label := field
		if i < len(t.Aliases) {
			label = t.Aliases[i]
		}
		out = append(out, TooltipValue{Label: label, Value: f.Properties[field]})
	}
	return out
}

// TooltipValue is one resolved tooltip row.
type TooltipValue struct {
	Label string      `json:"label" yaml:"label"`
	Value interface{} `json:"value" yaml:"value"`
}

// LayerSpec is everything needed to render one map layer.
type LayerSpec struct {
	Name     string
	Kind     Kind
	Features *types.FeatureSet

	// StyleField names the attribute whose category selects the style per
	// feature. Empty means every feature gets Uniform.
	StyleField string
	Uniform    style.Style

	Tooltip *Tooltip
}

// StyleFor resolves the style of a single feature of this layer.
func (l LayerSpec) StyleFor(f types.Feature) style.Style {
	if l.StyleField == "" {
		return l.Uniform
	}
	return style.Resolve(f.Category(l.StyleField))
}

// LegendItem defines a legend entry.
type LegendItem struct {
	Label string `json:"label" yaml:"label"`
	Color string `json:"color" yaml:"color"`
}

// Composer builds LayerSpecs. It holds configuration only and never touches
// geometry, so one Composer can serve any number of map builds.
type Composer struct {
	AreaField string // tooltip attribute for the area (default "area")
	RiskField string // category attribute (default "risk")
	Logger    *slog.Logger
}

// ComposeBase wraps the risk dataset in the base layer: per-feature style by
// risk category and an (area, risk) tooltip. A dataset with no risk attribute
// at all cannot be rendered as a risk layer and yields an InputError.
func (c *Composer) ComposeBase(fs *types.FeatureSet) (LayerSpec, error) {
	areaField, riskField := c.fields()
	if err := fs.RequireAttributes(riskField); err != nil {
		return LayerSpec{}, fmt.Errorf("compose risk layer: %w", err)
	}

	c.log().Debug("composed risk layer", "dataset", fs.Name, "features", fs.Len())

	return LayerSpec{
		Name:       RiskLayerName,
		Kind:       KindRisk,
		Features:   fs,
		StyleField: riskField,
		Uniform:    style.Default,
		Tooltip: &Tooltip{
			Fields:  []string{areaField, riskField},
			Aliases: []string{"Total Area at Risk", "Risk Level"},
		},
	}, nil
}

// ComposeOverlay wraps an overlay dataset in a uniformly styled layer named
// after the dataset. Overlays carry no tooltip.
func (c *Composer) ComposeOverlay(name string, fs *types.FeatureSet) LayerSpec {
	c.log().Debug("composed overlay layer", "name", name, "features", fs.Len())

	return LayerSpec{
		Name:     name,
		Kind:     KindOverlay,
		Features: fs,
		Uniform:  style.Overlay(),
	}
}

// Compose returns the ordered layer stack: base first, then overlays in the
// given order.
func Compose(base LayerSpec, overlays ...LayerSpec) []LayerSpec {
	out := make([]LayerSpec, 0, 1+len(overlays))
	out = append(out, base)
	return append(out, overlays...)
}

// Legend returns one entry per risk category in low, medium, high order.
func Legend() []LegendItem {
	items := make([]LegendItem, 0, len(types.Categories))
	for _, cat := range types.Categories {
		items = append(items, LegendItem{
			Label: legendLabels[cat],
			Color: style.Resolve(cat).FillColor,
		})
	}
	return items
}

var legendLabels = map[types.Category]string{
	types.CategoryLow:    "Low Risk",
	types.CategoryMedium: "Medium Risk",
	types.CategoryHigh:   "High Risk",
}

func (c *Composer) fields() (string, string) {
	areaField, riskField := c.AreaField, c.RiskField
	if areaField == "" {
		areaField = types.FieldArea
	}
	if riskField == "" {
		riskField = types.FieldRisk
	}
	return areaField, riskField
}

func (c *Composer) log() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
