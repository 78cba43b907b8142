package handler

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"cityos/internal/codec"
	"cityos/internal/core/simulator"
	"cityos/internal/domain"
	"cityos/internal/service"
)

const ridScheme = "cityos://"

// DemoHandler serves the demo console
type DemoHandler struct {
	svc    *service.DemoService
	now    func() time.Time
	logger *zap.Logger
}

// NewDemoHandler creates a demo console handler
func NewDemoHandler(svc *service.DemoService, logger *zap.Logger) *DemoHandler {
	return &DemoHandler{svc: svc, now: time.Now, logger: logger}
}

// Catalog returns the regions, layers, scenarios and playbooks
func (h *DemoHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Catalog())
}

// State returns the full simulation state
func (h *DemoHandler) State(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.State())
}

// KPIs returns the headline indicators
func (h *DemoHandler) KPIs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.KPIs())
}

// Events lists events filtered by rid, severity, layers and zone
func (h *DemoHandler) Events(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.EventFilter{
		SearchRID: q.Get("rid"),
		Severity:  domain.Severity(q.Get("severity")),
		Zone:      q.Get("zone"),
	}
	if layers := queryList(r, "layers"); layers != nil {
		filter.Layers = make([]domain.LayerID, 0, len(layers))
		for _, l := range layers {
			id := domain.LayerID(l)
			if !id.IsValid() {
				writeError(w, http.StatusBadRequest, "Invalid layer", l)
				return
			}
			filter.Layers = append(filter.Layers, id)
		}
	}
	if filter.Severity != "" && filter.Severity != domain.SeverityAll && !filter.Severity.IsValid() {
		writeError(w, http.StatusBadRequest, "Invalid severity", string(filter.Severity))
		return
	}

	events := h.svc.Events(filter)
	if limit := queryInt(r, "limit", 0); limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	writeJSON(w, http.StatusOK, events)
}

// Incidents lists the open incidents
func (h *DemoHandler) Incidents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.OpenIncidents())
}

// Entity returns the detail of the entity named by the rest of the path,
// e.g. /api/demo/entities/region/centro
func (h *DemoHandler) Entity(w http.ResponseWriter, r *http.Request) {
	rid := normalizeRID(r.PathValue("rid"))
	if rid == "" {
		writeError(w, http.StatusBadRequest, "Entity RID is required", "")
		return
	}

	detail, err := h.svc.Entity(rid)
	if err != nil {
		writeDomainError(w, err, "Failed to get entity")
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// normalizeRID accepts a bare "kind/id" path or a full RID, including one
// whose double slash was collapsed by path cleaning
func normalizeRID(raw string) string {
	raw = strings.Trim(raw, "/")
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, ridScheme) {
		return raw
	}
	if rest, ok := strings.CutPrefix(raw, "cityos:/"); ok {
		return ridScheme + rest
	}
	return ridScheme + raw
}

// SetControls updates the controls. Omitted fields keep their values.
func (h *DemoHandler) SetControls(w http.ResponseWriter, r *http.Request) {
	controls := h.svc.Controls()
	if err := decodeJSON(r, &controls); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	updated, err := h.svc.SetControls(controls)
	if err != nil {
		writeDomainError(w, err, "Failed to update controls")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Reset reseeds the simulation
func (h *DemoHandler) Reset(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Reset())
}

// Tick advances the simulation once
func (h *DemoHandler) Tick(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Tick())
}

// Inject opens an incident on a region or corridor
func (h *DemoHandler) Inject(w http.ResponseWriter, r *http.Request) {
	var in simulator.Injection
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	incident, err := h.svc.Inject(in)
	if err != nil {
		writeDomainError(w, err, "Failed to inject incident")
		return
	}
	writeJSON(w, http.StatusCreated, incident)
}

type playbookRequest struct {
	PlaybookID    string `json:"playbook_id"`
	Scope         string `json:"scope"`
	Justification string `json:"justification"`
}

// RunPlaybook executes a playbook and returns its audit entry
func (h *DemoHandler) RunPlaybook(w http.ResponseWriter, r *http.Request) {
	var req playbookRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if req.Scope == "" {
		req.Scope = domain.ScopeGlobal
	}

	entry, err := h.svc.RunPlaybook(r.Context(), req.PlaybookID, req.Scope, req.Justification)
	if err != nil {
		writeDomainError(w, err, "Failed to run playbook")
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// SetSourceHealth forces a data source into a health state
func (h *DemoHandler) SetSourceHealth(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Health domain.HealthState `json:"health"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	source, err := h.svc.SetSourceHealth(r.PathValue("id"), req.Health)
	if err != nil {
		writeDomainError(w, err, "Failed to update source")
		return
	}
	writeJSON(w, http.StatusOK, source)
}

// Audit exports the audit log as JSON or YAML
func (h *DemoHandler) Audit(w http.ResponseWriter, r *http.Request) {
	c, err := codec.ForFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, message(err), "")
		return
	}

	entries, err := h.svc.AuditLog(r.Context(), queryInt(r, "limit", 0))
	if err != nil {
		h.logger.Error("failed to load audit log", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load audit log", err.Error())
		return
	}

	w.Header().Set("Content-Type", c.ContentType())
	w.Header().Set("Content-Disposition", "attachment; filename=audit."+c.Format())
	if err := c.ExportAudit(&codec.AuditLog{ExportedAt: h.now().UTC(), Entries: entries}, w); err != nil {
		h.logger.Error("failed to export audit log", zap.Error(err))
	}
}
