// Package datasource loads geometry datasets (GeoPackage, Shapefile, GeoJSON)
// into FeatureSets reprojected to WGS84, and resolves overlay names to files.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MeKo-Tech/peatrisk/internal/projection"
	"github.com/MeKo-Tech/peatrisk/internal/types"
)

// ErrUnsupportedFormat is returned for files whose extension has no loader.
var ErrUnsupportedFormat = errors.New("unsupported dataset format")

// Loader reads one dataset file into a FeatureSet in the file's native CRS.
type Loader interface {
	Load(ctx context.Context, path string) (*types.FeatureSet, error)
}

// Source dispatches dataset files to loaders by extension.
type Source struct {
	loaders map[string]Loader
	logger  *slog.Logger
}

// NewSource creates a source with the GeoPackage, Shapefile and GeoJSON loaders registered.
func NewSource(logger *slog.Logger) *Source {
	s := &Source{
		loaders: make(map[string]Loader),
		logger:  logger,
	}
	s.Register(".gpkg", &GeoPackageLoader{})
	s.Register(".shp", &ShapefileLoader{})
	s.Register(".geojson", &GeoJSONLoader{})
	s.Register(".json", &GeoJSONLoader{})
	return s
}

// Register installs a loader for a file extension (with leading dot).
func (s *Source) Register(ext string, l Loader) {
	s.loaders[strings.ToLower(ext)] = l
}

// Open loads the dataset at path and reprojects it to WGS84. This is the only
// place reprojection happens; FeatureSets returned here are final.
func (s *Source) Open(ctx context.Context, path string) (*types.FeatureSet, error) {
	ext := strings.ToLower(filepath.Ext(path))
	loader, ok := s.loaders[ext]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}

	start := time.Now()
	fs, err := loader.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	if fs.Name == "" {
		fs.Name = DatasetName(path)
	}

	sourceSRID := fs.SRID
	out, err := projection.ToWGS84(fs)
	if err != nil {
		return nil, err
	}

	attrs := []any{
		"path", path,
		"name", out.Name,
		"features", out.Len(),
		"source_srid", sourceSRID,
		"duration", time.Since(start),
	}
	if b, ok := out.Bound(); ok {
		attrs = append(attrs, "bounds", b.String())
	}
	s.log().Info("Loaded dataset", attrs...)
	return out, nil
}

// DatasetName derives a dataset name from its file name: base name without extension.
func DatasetName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (s *Source) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
