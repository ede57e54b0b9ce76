// Package risk computes area-weighted risk percentages for a peatland dataset.
package risk

import (
	"fmt"
	"log/slog"

	"github.com/MeKo-Tech/peatrisk/internal/style"
	"github.com/MeKo-Tech/peatrisk/internal/types"
)

// Summary holds the share of total area per risk category, in percent.
// Each value is within [0,100]; they sum to 100 whenever every feature with
// a positive area carries a recognised category.
type Summary struct {
	Low    float64 `json:"low" yaml:"low"`
	Medium float64 `json:"medium" yaml:"medium"`
	High   float64 `json:"high" yaml:"high"`
}

// Percent returns the percentage for one category; unknown categories yield 0.
func (s Summary) Percent(c types.Category) float64 {
	switch c {
	case types.CategoryLow:
		return s.Low
	case types.CategoryMedium:
		return s.Medium
	case types.CategoryHigh:
		return s.High
	default:
		return 0
	}
}

// Total returns Low+Medium+High.
func (s Summary) Total() float64 {
	return s.Low + s.Medium + s.High
}

// Aggregator sums feature areas per risk category.
type Aggregator struct {
	AreaField string // attribute holding the feature area (default "area")
	RiskField string // attribute holding the risk label (default "risk")
	Logger    *slog.Logger
}

// Summarize computes a Summary using the default attribute names.
func Summarize(fs *types.FeatureSet) (Summary, error) {
	return (&Aggregator{}).Summarize(fs)
}

// Summarize computes the area share of each category over fs.
//
// Total area runs over every feature, so features with an unrecognised label
// dilute the three percentages without being counted in any of them. A total
// of zero (empty set, all areas missing or non-positive) gives an all-zero
// Summary. The only error is an InputError when the dataset lacks the area or
// risk attribute altogether.
func (a *Aggregator) Summarize(fs *types.FeatureSet) (Summary, error) {
	areaField, riskField := a.fields()
	if err := fs.RequireAttributes(areaField, riskField); err != nil {
		return Summary{}, fmt.Errorf("summarize risk: %w", err)
	}

	var (
		total   float64
		byCat   = make(map[types.Category]float64, len(types.Categories))
		unknown int
	)
	for _, f := range fs.Features {
		area := f.Area(areaField)
		total += area

		c := f.Category(riskField)
		if !c.Known() {
			unknown++
			continue
		}
		byCat[c] += area
	}

	if unknown > 0 {
		a.log().Debug("features with unrecognised risk label",
			"dataset", fs.Name,
			"count", unknown,
		)
	}

	if total <= 0 {
		return Summary{}, nil
	}

	return Summary{
		Low:    100 * byCat[types.CategoryLow] / total,
		Medium: 100 * byCat[types.CategoryMedium] / total,
		High:   100 * byCat[types.CategoryHigh] / total,
	}, nil
}

func (a *Aggregator) fields() (string, string) {
	areaField, riskField := a.AreaField, a.RiskField
	if areaField == "" {
		areaField = types.FieldArea
	}
	if riskField == "" {
		riskField = types.FieldRisk
	}
	return areaField, riskField
}

func (a *Aggregator) log() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}

// Slice is one wedge of the risk pie chart.
type Slice struct {
	Label   string  `json:"label" yaml:"label"`
	Percent float64 `json:"percent" yaml:"percent"`
	Color   string  `json:"color" yaml:"color"`
}

var sliceLabels = map[types.Category]string{
	types.CategoryLow:    "Low Risk",
	types.CategoryMedium: "Medium Risk",
	types.CategoryHigh:   "High Risk",
}

// Slices returns the chart wedges in low, medium, high order, coloured with
// the risk-layer palette so chart and map agree.
func (s Summary) Slices() []Slice {
	out := make([]Slice, 0, len(types.Categories))
	for _, c := range types.Categories {
		out = append(out, Slice{
			Label:   sliceLabels[c],
			Percent: s.Percent(c),
			Color:   style.Resolve(c).FillColor,
		})
	}
	return out
}

// Format renders the summary for display with one decimal place.
// Rounding happens here only; the Summary values stay exact.
func (s Summary) Format() string {
	return fmt.Sprintf("Low Risk: %.1f%%, Medium Risk: %.1f%%, High Risk: %.1f%%", s.Low, s.Medium, s.High)
}
