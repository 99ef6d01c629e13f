package api

import (
	"net/http"
)

// ProxyHandler serves the upstream data document.
type ProxyHandler struct {
	data DataProvider
}

// NewProxyHandler creates a new proxy handler.
func NewProxyHandler(data DataProvider) *ProxyHandler {
	return &ProxyHandler{data: data}
}

// HandleProxyData handles GET /api/proxy/data. The status is always 200:
// upstream failures arrive as a stub payload, not as an error status.
func (h *ProxyHandler) HandleProxyData(w http.ResponseWriter, r *http.Request) {
	writeRawJSON(w, http.StatusOK, h.data.GetProxiedData(r.Context()))
}
