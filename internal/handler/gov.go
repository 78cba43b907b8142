package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"cityos/internal/domain"
	"cityos/internal/service"
)

// GovHandler proxies the government open-data APIs
type GovHandler struct {
	svc    *service.GovDataService
	logger *zap.Logger
}

// NewGovHandler creates a government data handler
func NewGovHandler(svc *service.GovDataService, logger *zap.Logger) *GovHandler {
	return &GovHandler{svc: svc, logger: logger}
}

// CamaraDespesas returns a deputy's expenses
func (h *GovHandler) CamaraDespesas(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data, err := h.svc.CamaraDespesas(r.Context(), q.Get("id"), q.Get("ano"))
	if err != nil {
		h.logger.Error("camara despesas failed", zap.Error(err))
		writeDomainError(w, err, "Failed to fetch government data")
		return
	}
	writeRaw(w, data)
}

// CamaraProjetos returns the latest bills
func (h *GovHandler) CamaraProjetos(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data, err := h.svc.CamaraProjetos(r.Context(), q.Get("ano"), q.Get("siglaTipo"))
	if err != nil {
		h.logger.Error("camara projetos failed", zap.Error(err))
		writeDomainError(w, err, "Failed to fetch government data")
		return
	}
	writeRaw(w, data)
}

// GovData passes source, endpoint and the remaining query parameters
// through to the upstream API
func (h *GovHandler) GovData(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := queryParams(r, "source", "endpoint")

	data, err := h.svc.Fetch(r.Context(), q.Get("source"), q.Get("endpoint"), params)
	if err != nil {
		if errors.Is(err, domain.ErrInvalid) {
			writeError(w, http.StatusBadRequest, message(err), "")
			return
		}
		h.logger.Error("gov-data fetch failed", zap.String("source", q.Get("source")), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch government data", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]json.RawMessage{"data": data})
}

// transparenciaFailure is the error body of the Transparência proxy
type transparenciaFailure struct {
	Success  bool          `json:"success"`
	Error    string        `json:"error"`
	Details  string        `json:"details"`
	Endpoint string        `json:"endpoint"`
	Params   domain.Params `json:"params"`
}

// Transparencia queries the Portal da Transparência. Without an endpoint
// it lists the named endpoints.
func (h *GovHandler) Transparencia(w http.ResponseWriter, r *http.Request) {
	endpoint := r.URL.Query().Get("endpoint")
	if endpoint == "" {
		writeJSON(w, http.StatusOK, h.svc.Catalogue())
		return
	}

	res, err := h.svc.Transparencia(r.Context(), endpoint, queryParams(r, "endpoint"))
	if err != nil {
		h.logger.Error("transparencia fetch failed", zap.String("endpoint", endpoint), zap.Error(err))
		body := transparenciaFailure{
			Error:    "Failed to fetch data from Portal da Transparência",
			Details:  err.Error(),
			Endpoint: endpoint,
			Params:   domain.Params{},
		}
		var terr *service.TransparenciaError
		if errors.As(err, &terr) {
			body.Endpoint = terr.Endpoint
			body.Params = terr.Params
		}
		writeJSON(w, http.StatusInternalServerError, body)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// queryParams collects single-valued query parameters except skip
func queryParams(r *http.Request, skip ...string) domain.Params {
	params := domain.Params{}
	for key, values := range r.URL.Query() {
		if len(values) == 0 || contains(skip, key) {
			continue
		}
		params[key] = values[0]
	}
	return params
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// writeRaw writes an already encoded JSON document
func writeRaw(w http.ResponseWriter, data json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
