package handler

import (
	"context"
	"net/http"
	"strconv"

	"cityos/internal/adapter"
)

// SourceMonitor reports the health of the upstream APIs
type SourceMonitor interface {
	ListAdapters() []adapter.AdapterInfo
	ProbeAll(ctx context.Context) []adapter.ProbeResult
}

// SystemHandler serves liveness and upstream status
type SystemHandler struct {
	sources SourceMonitor
}

// NewSystemHandler creates a system handler. sources may be nil.
func NewSystemHandler(sources SourceMonitor) *SystemHandler {
	return &SystemHandler{sources: sources}
}

// Healthz reports that the server is up
func (h *SystemHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SourcesStatus lists the upstream APIs and their last probe. With
// probe=true every API is checked first.
func (h *SystemHandler) SourcesStatus(w http.ResponseWriter, r *http.Request) {
	if h.sources == nil {
		writeJSON(w, http.StatusOK, []adapter.AdapterInfo{})
		return
	}
	if probe, _ := strconv.ParseBool(r.URL.Query().Get("probe")); probe {
		h.sources.ProbeAll(r.Context())
	}
	writeJSON(w, http.StatusOK, h.sources.ListAdapters())
}
