package handler

import (
	"net/http"

	"cityos/internal/service"
)

// UrbanHandler serves the landing page chart series
type UrbanHandler struct{}

// NewUrbanHandler creates an urban series handler
func NewUrbanHandler() *UrbanHandler {
	return &UrbanHandler{}
}

func parseUrbanQuery(w http.ResponseWriter, r *http.Request) (service.UrbanWindow, []string, bool) {
	window, err := service.ParseWindow(r.URL.Query().Get("window"))
	if err != nil {
		writeError(w, http.StatusBadRequest, message(err), "")
		return "", nil, false
	}
	layers, err := service.ParseUrbanLayers(queryList(r, "layers"))
	if err != nil {
		writeError(w, http.StatusBadRequest, message(err), "")
		return "", nil, false
	}
	return window, layers, true
}

// Timeline returns the flux series of each selected corridor
func (h *UrbanHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	window, layers, ok := parseUrbanQuery(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, service.Timeline(window, layers))
}

// Incidents returns incident counts by category
func (h *UrbanHandler) Incidents(w http.ResponseWriter, r *http.Request) {
	window, layers, ok := parseUrbanQuery(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, service.IncidentsByCategory(window, layers))
}

// Energy returns the energy demand series
func (h *UrbanHandler) Energy(w http.ResponseWriter, r *http.Request) {
	window, _, ok := parseUrbanQuery(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, service.EnergyDemand(window))
}
