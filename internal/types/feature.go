package types

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// SRIDWGS84 is the canonical geographic CRS every FeatureSet is reprojected to.
const SRIDWGS84 = 4326

// Default attribute names on risk-layer features.
const (
	FieldArea = "area"
	FieldRisk = "risk"
)

// Category is the proximity-derived risk classification of a peatland feature.
type Category string

const (
	CategoryLow     Category = "low"
	CategoryMedium  Category = "medium"
	CategoryHigh    Category = "high"
	CategoryUnknown Category = "unknown"
)

// Categories lists the recognised risk categories in ascending order.
var Categories = []Category{CategoryLow, CategoryMedium, CategoryHigh}

// ParseCategory maps a raw attribute value onto a Category.
// Only the exact labels "low", "medium" and "high" are recognised.
func ParseCategory(v interface{}) Category {
	s, ok := v.(string)
	if !ok {
		return CategoryUnknown
	}
	switch c := Category(s); c {
	case CategoryLow, CategoryMedium, CategoryHigh:
		return c
	default:
		return CategoryUnknown
	}
}

// Known reports whether c is one of the recognised risk categories.
func (c Category) Known() bool {
	return ParseCategory(string(c)) != CategoryUnknown
}

// Feature is one geometric record loaded from a dataset
type Feature struct {
	ID         string                 // Source row identifier (fid, record number or GeoJSON id)
	Geometry   orb.Geometry           // Polygon or MultiPolygon in the set's CRS
	Properties map[string]interface{} // Attribute columns
}

// Has reports whether the attribute key is present on the feature, whatever its value.
func (f Feature) Has(field string) bool {
	if f.Properties == nil {
		return false
	}
	_, ok := f.Properties[field]
	return ok
}

// Area returns the numeric value of the area attribute.
// Missing, unparseable, non-finite and negative values all count as zero.
func (f Feature) Area(field string) float64 {
	v, ok := Number(f.Properties[field])
	if !ok || v < 0 {
		return 0
	}
	return v
}

// Category returns the risk category carried by the feature.
func (f Feature) Category(field string) Category {
	return ParseCategory(f.Properties[field])
}

// Number coerces an attribute value to a finite float64.
func Number(v interface{}) (float64, bool) {
	var n float64
	switch x := v.(type) {
	case float64:
		n = x
	case float32:
		n = float64(x)
	case int:
		n = float64(x)
	case int32:
		n = float64(x)
	case int64:
		n = float64(x)
	case uint32:
		n = float64(x)
	case uint64:
		n = float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		n = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		n = f
	case []byte:
		return Number(string(x))
	default:
		return 0, false
	}

	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// FeatureSet is an ordered collection of features sharing one CRS.
// It is treated as read-only once a loader has produced it.
type FeatureSet struct {
	Name     string    // Dataset name (file base name or catalog name)
	SRID     int       // EPSG code of all geometries
	Features []Feature // Features in source order
}

// Len returns the number of features.
func (fs *FeatureSet) Len() int {
	if fs == nil {
		return 0
	}
	return len(fs.Features)
}

// HasAttribute reports whether at least one feature carries the attribute key.
func (fs *FeatureSet) HasAttribute(field string) bool {
	if fs == nil {
		return false
	}
	for _, f := range fs.Features {
		if f.Has(field) {
			return true
		}
	}
	return false
}

// RequireAttributes returns an InputError for the first attribute that no
// feature carries. Empty sets pass: there is nothing to be malformed.
func (fs *FeatureSet) RequireAttributes(fields ...string) error {
	if fs.Len() == 0 {
		return nil
	}
	for _, field := range fields {
		if !fs.HasAttribute(field) {
			return &InputError{Dataset: fs.Name, Attribute: field}
		}
	}
	return nil
}

// Bound returns the combined bound of all feature geometries.
// The second return value is false when no feature has a geometry.
func (fs *FeatureSet) Bound() (BoundingBox, bool) {
	if fs == nil {
		return BoundingBox{}, false
	}

	var (
		bound orb.Bound
		found bool
	)
	for _, f := range fs.Features {
		if f.Geometry == nil {
			continue
		}
		b := f.Geometry.Bound()
		if !found {
			bound = b
			found = true
			continue
		}
		bound = bound.Union(b)
	}
	if !found {
		return BoundingBox{}, false
	}
	return BoundsFromOrb(bound), true
}

// CategoryCounts returns the number of features per category, unknown included.
func (fs *FeatureSet) CategoryCounts(field string) map[Category]int {
	counts := map[Category]int{
		CategoryLow:     0,
		CategoryMedium:  0,
		CategoryHigh:    0,
		CategoryUnknown: 0,
	}
	if fs == nil {
		return counts
	}
	for _, f := range fs.Features {
		counts[f.Category(field)]++
	}
	return counts
}
