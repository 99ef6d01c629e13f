// Package dataapi exposes the telemetry backend over HTTP: the data document
// the gateway proxies and a plain-text health probe.
package dataapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/spacedash/internal/adapters/http/middleware"
	"github.com/okian/spacedash/internal/domain/model"
)

// RecordSource returns the records served at /api/data. It never fails; a
// degraded store yields a stub record instead.
type RecordSource interface {
	Latest(ctx context.Context) []model.Record
}

// Handler serves the backend routes.
type Handler struct {
	source RecordSource
}

// NewHandler creates a Handler over source.
func NewHandler(source RecordSource) *Handler {
	return &Handler{source: source}
}

// HandleData handles GET /api/data.
func (h *Handler) HandleData(w http.ResponseWriter, r *http.Request) {
	records := h.source.Latest(r.Context())
	if records == nil {
		records = []model.Record{}
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(records)
}

// HandleHealth handles GET /health.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("OK"))
}

// Register attaches the backend routes to r.
func (h *Handler) Register(_ context.Context, r chi.Router) {
	if r == nil {
		panic("router is nil")
	}
	r.Get("/api/data", middleware.Metrics(h.HandleData, "data"))
	r.Get("/health", middleware.Metrics(h.HandleHealth, "health"))
}
