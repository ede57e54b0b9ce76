package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/MeKo-Tech/peatrisk/internal/geojson"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Write the map document (risk layer plus selected overlays)",
	Long: `Render composes the risk layer and the selected overlays into a map document
for a browser map library: centre, zoom, legend and one GeoJSON
FeatureCollection per layer with simplestyle properties and tooltips.`,
	Example: `  peatrisk render --overlay Pipelines --overlay Ports -o map.json
  peatrisk render --overlay Basins,Fields --format yaml`,
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringSlice("overlay", nil, "Overlay to add, in drawing order (repeatable or comma-separated)")
	renderCmd.Flags().String("format", "json", "Document format (json, yaml)")
	renderCmd.Flags().StringP("output", "o", "-", "Output file (- for stdout)")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"render.overlay", "overlay"},
		{"render.format", "format"},
		{"render.output", "output"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, renderCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runRender(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	format, err := geojson.ParseFormat(viper.GetString("render.format"))
	if err != nil {
		return err
	}
	s, err := loadSettings()
	if err != nil {
		return err
	}
	e, err := newEnv(s)
	if err != nil {
		return err
	}

	return withOutput(cmd.OutOrStdout(), viper.GetString("render.output"), func(w io.Writer) error {
		return e.renderMap(cmd.Context(), w, splitOverlays(viper.GetStringSlice("render.overlay")), format)
	})
}

func (e *env) renderMap(ctx context.Context, w io.Writer, overlays []string, format geojson.Format) error {
	if err := e.checkOverlays(overlays); err != nil {
		return err
	}

	fs, err := e.loadRisk(ctx)
	if err != nil {
		return err
	}
	mv, err := e.builder.Build(ctx, fs, overlays)
	if err != nil {
		return err
	}

	e.log().Info("Rendering map document",
		"dataset", fs.Name,
		"features", fs.Len(),
		"overlays", mv.OverlayNames(),
		"format", format,
	)
	return geojson.Encode(w, mv, format)
}

// withOutput runs write against stdout for "-" or an empty path, otherwise
// against a newly created file.
func withOutput(stdout io.Writer, path string, write func(io.Writer) error) error {
	if path == "" || path == "-" {
		return write(stdout)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	return nil
}
