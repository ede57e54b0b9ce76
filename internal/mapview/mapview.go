// Package mapview assembles the risk layer and the selected overlays into one
// renderable map composition.
package mapview

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/MeKo-Tech/peatrisk/internal/layer"
	"github.com/MeKo-Tech/peatrisk/internal/types"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// DefaultZoom is the initial zoom level of every map view.
const DefaultZoom = 5

// MapView is the composition handed to the rendering collaborator.
type MapView struct {
	Center orb.Point // lon/lat; an approximate visual centre only
	Zoom   int
	Layers []layer.LayerSpec // risk layer first, overlays in selection order
	Legend []layer.LegendItem
}

// OverlaySource loads the dataset behind an overlay name.
type OverlaySource interface {
	LoadOverlay(ctx context.Context, name string) (*types.FeatureSet, error)
}

// Builder builds MapViews. It keeps no per-build state: the overlay
// selection is passed to every Build call.
type Builder struct {
	composer *layer.Composer
	overlays OverlaySource
	logger   *slog.Logger
}

// NewBuilder creates a builder. overlays may be nil when no overlay will ever
// be selected.
func NewBuilder(composer *layer.Composer, overlays OverlaySource, logger *slog.Logger) *Builder {
	if composer == nil {
		composer = &layer.Composer{Logger: logger}
	}
	return &Builder{
		composer: composer,
		overlays: overlays,
		logger:   logger,
	}
}

// Build composes the map for the risk dataset and the selected overlay names.
// Overlays are loaded and composed one after another in selection order; a
// name selected twice yields a single layer at its first position.
func (b *Builder) Build(ctx context.Context, riskSet *types.FeatureSet, selected []string) (*MapView, error) {
	base, err := b.composer.ComposeBase(riskSet)
	if err != nil {
		return nil, err
	}

	names := dedupe(selected)
	overlays := make([]layer.LayerSpec, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if b.overlays == nil {
			return nil, fmt.Errorf("overlay %q: no overlay source configured", name)
		}

		fs, err := b.overlays.LoadOverlay(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("overlay %q: %w", name, err)
		}
		overlays = append(overlays, b.composer.ComposeOverlay(name, fs))
	}

	center := Center(riskSet)
	b.log().Debug("built map view",
		"center_lat", center.Lat(),
		"center_lon", center.Lon(),
		"overlays", len(overlays),
	)

	return &MapView{
		Center: center,
		Zoom:   DefaultZoom,
		Layers: layer.Compose(base, overlays...),
		Legend: layer.Legend(),
	}, nil
}

// Center returns the mean of the per-feature planar centroids. It is not an
// area-weighted centroid. Features with a missing or empty geometry are skipped; a set with
// no geometry at all centres on (0,0).
func Center(fs *types.FeatureSet) orb.Point {
	if fs == nil {
		return orb.Point{}
	}

	var sumLon, sumLat float64
	var n int
	for _, f := range fs.Features {
		if !hasPoints(f.Geometry) {
			continue
		}
		c, _ := planar.CentroidArea(f.Geometry)
		sumLon += c.Lon()
		sumLat += c.Lat()
		n++
	}
	if n == 0 {
		return orb.Point{}
	}
	return orb.Point{sumLon / float64(n), sumLat / float64(n)}
}

// hasPoints reports whether g has at least one coordinate.
func hasPoints(g orb.Geometry) bool {
	switch g := g.(type) {
	case nil:
		return false
	case orb.Point, orb.Bound:
		return true
	case orb.MultiPoint:
		return len(g) > 0
	case orb.LineString:
		return len(g) > 0
	case orb.Ring:
		return len(g) > 0
	case orb.MultiLineString:
		for _, ls := range g {
			if len(ls) > 0 {
				return true
			}
		}
	case orb.Polygon:
		return len(g) > 0 && len(g[0]) > 0
	case orb.MultiPolygon:
		for _, p := range g {
			if hasPoints(p) {
				return true
			}
		}
	case orb.Collection:
		for _, sub := range g {
			if hasPoints(sub) {
				return true
			}
		}
	}
	return false
}

// OverlayNames returns the names of the overlay layers in order.
func (v *MapView) OverlayNames() []string {
	var names []string
	for _, l := range v.Layers {
		if l.Kind == layer.KindOverlay {
			names = append(names, l.Name)
		}
	}
	return names
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func (b *Builder) log() *slog.Logger {
	if b.logger != nil {
		return b.logger
	}
	return slog.Default()
}
