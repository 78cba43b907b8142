package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"cityos/internal/domain"
	"cityos/internal/service"
)

// LeadHandler captures demo requests
type LeadHandler struct {
	svc    *service.LeadService
	logger *zap.Logger
}

// NewLeadHandler creates a lead handler
func NewLeadHandler(svc *service.LeadService, logger *zap.Logger) *LeadHandler {
	return &LeadHandler{svc: svc, logger: logger}
}

// fieldFailure reports per-field validation errors
type fieldFailure struct {
	Error  string             `json:"error"`
	Fields domain.FieldErrors `json:"fields"`
}

// Create validates and stores a lead
func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	var lead domain.Lead
	if err := decodeJSON(r, &lead); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	created, err := h.svc.Capture(r.Context(), lead)
	if err != nil {
		var fields domain.FieldErrors
		if errors.As(err, &fields) {
			writeJSON(w, http.StatusUnprocessableEntity, fieldFailure{Error: "Dados inválidos", Fields: fields})
			return
		}
		h.logger.Error("failed to capture lead", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to save lead", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// List returns the most recent leads
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	leads, err := h.svc.List(r.Context(), queryInt(r, "limit", 100))
	if err != nil {
		h.logger.Error("failed to list leads", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to list leads", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, leads)
}
