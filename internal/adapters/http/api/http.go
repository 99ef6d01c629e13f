// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/spacedash/internal/adapters/http/middleware"
)

// DataProvider returns the proxied data document. It must always produce
// valid JSON.
type DataProvider interface {
	GetProxiedData(ctx context.Context) json.RawMessage
}

// Server wires HTTP routes for the gateway API.
type Server struct {
	proxyHandler  *ProxyHandler
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(data DataProvider, statsProvider StatsProvider) *Server {
	return &Server{
		proxyHandler:  NewProxyHandler(data),
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
	}
}

// Register attaches all API routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	if r == nil {
		panic("router is nil")
	}
	r.Get("/api/proxy/data", middleware.Metrics(s.proxyHandler.HandleProxyData, "proxy_data"))
	r.Get("/healthz", middleware.Metrics(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/metrics", s.healthHandler.HandleMetrics)
	r.Get("/stats", middleware.Metrics(s.statsHandler.HandleStats, "stats"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeRawJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
