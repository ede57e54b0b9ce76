package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/MeKo-Tech/peatrisk/internal/preview"
	"github.com/MeKo-Tech/peatrisk/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the risk summary, map documents and previews over HTTP",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Listen address (host:port)")
	serveCmd.Flags().StringSlice("cors-origin", []string{"*"}, "Allowed CORS origins")
	serveCmd.Flags().String("cache-control", "no-store", "Cache-Control header for map responses")
	serveCmd.Flags().Int("preview-width", preview.DefaultWidth, "Preview image width in pixels")
	serveCmd.Flags().Int("preview-height", preview.DefaultHeight, "Preview image height in pixels")
	serveCmd.Flags().String("preview-background", preview.DefaultBackground, "Preview background colour (#rrggbb or CSS name)")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"serve.addr", "addr"},
		{"serve.cors_origin", "cors-origin"},
		{"serve.cache_control", "cache-control"},
		{"serve.preview_width", "preview-width"},
		{"serve.preview_height", "preview-height"},
		{"serve.preview_background", "preview-background"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, serveCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := loadSettings()
	if err != nil {
		return err
	}
	e, err := newEnv(s)
	if err != nil {
		return err
	}

	// Loaded once; handlers only read it.
	fs, err := e.loadRisk(ctx)
	if err != nil {
		return err
	}
	if _, err := e.aggregator.Summarize(fs); err != nil {
		return err
	}

	renderer, err := preview.NewRenderer(servePreviewOptions(), logger)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Config{
		RiskSet:        fs,
		Overlays:       e.catalog,
		Aggregator:     e.aggregator,
		Builder:        e.builder,
		Renderer:       renderer,
		AllowedOrigins: viper.GetStringSlice("serve.cors_origin"),
		CacheControl:   viper.GetString("serve.cache_control"),
	}, logger)
	if err != nil {
		return err
	}

	return srv.ListenAndServe(ctx, viper.GetString("serve.addr"))
}

func servePreviewOptions() preview.Options {
	return preview.Options{
		Width:      viper.GetInt("serve.preview_width"),
		Height:     viper.GetInt("serve.preview_height"),
		Background: viper.GetString("serve.preview_background"),
	}
}
