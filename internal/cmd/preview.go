package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/MeKo-Tech/peatrisk/internal/preview"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Render a static PNG preview of the map",
	RunE:  runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)

	previewCmd.Flags().StringSlice("overlay", nil, "Overlay to add, in drawing order (repeatable or comma-separated)")
	previewCmd.Flags().StringP("output", "o", "preview.png", "Output PNG file (- for stdout)")
	previewCmd.Flags().Int("width", preview.DefaultWidth, "Image width in pixels")
	previewCmd.Flags().Int("height", preview.DefaultHeight, "Image height in pixels")
	previewCmd.Flags().String("background", preview.DefaultBackground, "Background colour (#rrggbb or CSS name)")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"preview.overlay", "overlay"},
		{"preview.output", "output"},
		{"preview.width", "width"},
		{"preview.height", "height"},
		{"preview.background", "background"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, previewCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runPreview(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	renderer, err := preview.NewRenderer(preview.Options{
		Width:      viper.GetInt("preview.width"),
		Height:     viper.GetInt("preview.height"),
		Background: viper.GetString("preview.background"),
	}, logger)
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

	output := viper.GetString("preview.output")
	err = withOutput(cmd.OutOrStdout(), output, func(w io.Writer) error {
		return e.renderPreview(cmd.Context(), w, renderer, splitOverlays(viper.GetStringSlice("preview.overlay")))
	})
	if err != nil {
		return err
	}

	logger.Info("Preview written", "output", output)
	return nil
}

func (e *env) renderPreview(ctx context.Context, w io.Writer, r *preview.Renderer, overlays []string) error {
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
	return r.RenderPNG(w, mv)
}
