package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/peatrisk/internal/datasource"
	"github.com/MeKo-Tech/peatrisk/internal/layer"
	"github.com/MeKo-Tech/peatrisk/internal/mapview"
	"github.com/MeKo-Tech/peatrisk/internal/risk"
	"github.com/MeKo-Tech/peatrisk/internal/types"
	"github.com/spf13/viper"
)

// DefaultRiskFile is the risk dataset name inside the data directory.
const DefaultRiskFile = "risk_peatlands.gpkg"

// settings are the dataset options shared by all commands.
type settings struct {
	DataDir   string
	RiskFile  string
	AreaField string
	RiskField string
	Overlays  []datasource.OverlayEntry // nil means the default catalog
}

func loadSettings() (settings, error) {
	s := settings{
		DataDir:   viper.GetString("data-dir"),
		RiskFile:  viper.GetString("risk-file"),
		AreaField: viper.GetString("area-field"),
		RiskField: viper.GetString("risk-field"),
	}
	if s.RiskFile == "" {
		s.RiskFile = filepath.Join(s.DataDir, DefaultRiskFile)
	}

	if viper.IsSet("overlays") {
		if err := viper.UnmarshalKey("overlays", &s.Overlays); err != nil {
			return settings{}, fmt.Errorf("failed to parse overlays config: %w", err)
		}
	}
	return s, nil
}

// env wires the loaders and core components for one command run.
type env struct {
	settings   settings
	source     *datasource.Source
	catalog    *datasource.Catalog
	aggregator *risk.Aggregator
	builder    *mapview.Builder
}

func newEnv(s settings) (*env, error) {
	source := datasource.NewSource(logger)

	var catalog *datasource.Catalog
	if s.Overlays != nil {
		c, err := datasource.NewCatalog(source, s.Overlays)
		if err != nil {
			return nil, err
		}
		catalog = c
	} else {
		catalog = datasource.DefaultCatalog(source, s.DataDir)
	}

	composer := &layer.Composer{AreaField: s.AreaField, RiskField: s.RiskField, Logger: logger}
	return &env{
		settings:   s,
		source:     source,
		catalog:    catalog,
		aggregator: &risk.Aggregator{AreaField: s.AreaField, RiskField: s.RiskField, Logger: logger},
		builder:    mapview.NewBuilder(composer, catalog, logger),
	}, nil
}

func (e *env) loadRisk(ctx context.Context) (*types.FeatureSet, error) {
	fs, err := e.source.Open(ctx, e.settings.RiskFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load risk dataset: %w", err)
	}
	return fs, nil
}

// splitOverlays flattens repeated and comma-separated overlay selections,
// keeping their order.
func splitOverlays(values []string) []string {
	var out []string
	for _, v := range values {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}

// checkOverlays rejects names the catalog does not know before anything is loaded.
func (e *env) checkOverlays(names []string) error {
	for _, name := range names {
		if !e.catalog.Has(name) {
			return fmt.Errorf("%q: %w (available: %s)", name, datasource.ErrUnknownOverlay,
				strings.Join(e.catalog.Names(), ", "))
		}
	}
	return nil
}

func (e *env) log() *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}
