// Package server exposes risk summaries, map documents and previews over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/MeKo-Tech/peatrisk/internal/mapview"
	"github.com/MeKo-Tech/peatrisk/internal/preview"
	"github.com/MeKo-Tech/peatrisk/internal/risk"
	"github.com/MeKo-Tech/peatrisk/internal/types"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Overlays is the overlay catalog as seen by the server.
type Overlays interface {
	mapview.OverlaySource
	Names() []string
	Has(name string) bool
}

// Config configures the HTTP shell.
type Config struct {
	// RiskSet is loaded once at start-up and only read afterwards.
	RiskSet    *types.FeatureSet
	Overlays   Overlays
	Aggregator *risk.Aggregator
	Builder    *mapview.Builder
	Renderer   *preview.Renderer

	AllowedOrigins []string
	CacheControl   string
}

// Server builds a fresh map view for every request; it holds no mutable state.
type Server struct {
	cfg    Config
	logger *slog.Logger
	router chi.Router
}

// New validates the configuration and sets up the routes.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	if cfg.RiskSet == nil {
		return nil, errors.New("risk dataset is required")
	}
	if cfg.Overlays == nil {
		return nil, errors.New("overlay catalog is required")
	}
	if cfg.Aggregator == nil {
		cfg.Aggregator = &risk.Aggregator{Logger: logger}
	}
	if cfg.Builder == nil {
		cfg.Builder = mapview.NewBuilder(nil, cfg.Overlays, logger)
	}
	if cfg.Renderer == nil {
		r, err := preview.NewRenderer(preview.Options{}, logger)
		if err != nil {
			return nil, err
		}
		cfg.Renderer = r
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	if cfg.CacheControl == "" {
		cfg.CacheControl = "no-store"
	}

	s := &Server{cfg: cfg, logger: logger}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/summary", s.handleSummary)
		r.Get("/overlays", s.handleOverlays)
		r.Get("/map", s.handleMap)
		r.Get("/preview.png", s.handlePreview)
	})
	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		s.log().Info("HTTP server listening",
			"addr", addr,
			"dataset", s.cfg.RiskSet.Name,
			"features", s.cfg.RiskSet.Len(),
			"overlays", len(s.cfg.Overlays.Names()),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		return nil
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log().Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"request_id", middleware.GetReqID(r.Context()),
			"duration", time.Since(start),
		)
	})
}

func (s *Server) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
