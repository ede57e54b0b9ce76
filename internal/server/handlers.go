package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/MeKo-Tech/peatrisk/internal/datasource"
	"github.com/MeKo-Tech/peatrisk/internal/geojson"
	"github.com/MeKo-Tech/peatrisk/internal/risk"
	"github.com/MeKo-Tech/peatrisk/internal/types"
)

type summaryResponse struct {
	Dataset  string       `json:"dataset"`
	Features int          `json:"features"`
	Percent  risk.Summary `json:"percent"`
	Slices   []risk.Slice `json:"slices"`
	Text     string       `json:"text"`
}

type overlaysResponse struct {
	Overlays []string `json:"overlays"`
}

type errorResponse struct {
	Error   string         `json:"error"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.cfg.Aggregator.Summarize(s.cfg.RiskSet)
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, summaryResponse{
		Dataset:  s.cfg.RiskSet.Name,
		Features: s.cfg.RiskSet.Len(),
		Percent:  sum,
		Slices:   sum.Slices(),
		Text:     sum.Format(),
	})
}

func (s *Server) handleOverlays(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, overlaysResponse{Overlays: s.cfg.Overlays.Names()})
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	format, err := geojson.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "validation_failed", err.Error(), nil)
		return
	}

	selected, ok := s.selectedOverlays(w, r)
	if !ok {
		return
	}

	mv, err := s.cfg.Builder.Build(r.Context(), s.cfg.RiskSet, selected)
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	var buf bytes.Buffer
	if err := geojson.Encode(&buf, mv, format); err != nil {
		s.writeFailure(w, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Cache-Control", s.cfg.CacheControl)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.log().Error("Failed to write response", "error", err)
	}
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	selected, ok := s.selectedOverlays(w, r)
	if !ok {
		return
	}

	mv, err := s.cfg.Builder.Build(r.Context(), s.cfg.RiskSet, selected)
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	var buf bytes.Buffer
	if err := s.cfg.Renderer.RenderPNG(&buf, mv); err != nil {
		s.writeFailure(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", s.cfg.CacheControl)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.log().Error("Failed to write response", "error", err)
	}
}

// selectedOverlays reads the overlay selection from repeated or
// comma-separated "overlay" parameters, in request order. Unknown names are
// rejected before anything is loaded.
func (s *Server) selectedOverlays(w http.ResponseWriter, r *http.Request) ([]string, bool) {
	var selected []string
	for _, v := range r.URL.Query()["overlay"] {
		for _, name := range strings.Split(v, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if !s.cfg.Overlays.Has(name) {
				s.writeError(w, http.StatusBadRequest, "unknown_overlay", "unknown overlay",
					map[string]any{"overlay": name, "available": s.cfg.Overlays.Names()})
				return nil, false
			}
			selected = append(selected, name)
		}
	}
	return selected, true
}

func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	var inputErr *types.InputError
	switch {
	case errors.As(err, &inputErr):
		s.writeError(w, http.StatusUnprocessableEntity, "invalid_dataset", err.Error(),
			map[string]any{"dataset": inputErr.Dataset, "attribute": inputErr.Attribute})
	case errors.Is(err, datasource.ErrUnknownOverlay):
		s.writeError(w, http.StatusBadRequest, "unknown_overlay", err.Error(), nil)
	default:
		s.log().Error("Request failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal_error", "failed to build map", nil)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log().Error("Failed to write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string, details map[string]any) {
	s.writeJSON(w, status, errorResponse{Error: code, Message: message, Details: details})
}
