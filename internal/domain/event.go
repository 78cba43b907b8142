package domain

import "time"

// IncidentStatus tracks an incident through its lifecycle
type IncidentStatus string

const (
	IncidentOpen      IncidentStatus = "aberto"    // Freshly opened
	IncidentMitigated IncidentStatus = "mitigado"  // Below the mitigation threshold
	IncidentResolved  IncidentStatus = "resolvido" // Remaining ticks exhausted
)

// InjectionKind distinguishes operator-injected incidents
type InjectionKind string

const (
	InjectionIncident    InjectionKind = "incident"
	InjectionEnergySpike InjectionKind = "energy_spike"
)

// EventRecord is a single synthetic urban event
type EventRecord struct {
	ID         string   `json:"id"`
	TS         int64    `json:"ts"` // Unix milliseconds
	TimeLabel  string   `json:"time_label"`
	Layer      LayerID  `json:"layer"`
	EntityRID  string   `json:"entity_rid"`
	RegionID   string   `json:"region_id,omitempty"`
	CorridorID string   `json:"corridor_id,omitempty"`
	Severity   Severity `json:"severity"`
	Summary    string   `json:"summary"`
	Source     string   `json:"source"`
}

// Ref returns where the event happened
func (e EventRecord) Ref() TargetRef {
	return TargetRef{RID: e.EntityRID, RegionID: e.RegionID, CorridorID: e.CorridorID}
}

// IncidentRecord is an incident whose remaining ticks decay each simulation tick
type IncidentRecord struct {
	ID             string         `json:"id"`
	Kind           InjectionKind  `json:"kind"`
	Layer          LayerID        `json:"layer"`
	Severity       Severity       `json:"severity"`
	Status         IncidentStatus `json:"status"`
	Summary        string         `json:"summary"`
	EntityRID      string         `json:"entity_rid"`
	RegionID       string         `json:"region_id,omitempty"`
	CorridorID     string         `json:"corridor_id,omitempty"`
	DurationTicks  int            `json:"duration_ticks"`
	RemainingTicks int            `json:"remaining_ticks"`
	OpenedAt       int64          `json:"opened_at"` // Unix milliseconds
}

// Ref returns where the incident happened
func (i IncidentRecord) Ref() TargetRef {
	return TargetRef{RID: i.EntityRID, RegionID: i.RegionID, CorridorID: i.CorridorID}
}

// IsActive reports whether the incident still needs attention
func (i IncidentRecord) IsActive() bool {
	return i.Status != IncidentResolved
}

// EventFilter narrows an event listing
type EventFilter struct {
	SearchRID string    // Case-insensitive substring of the entity RID
	Severity  Severity  // Empty or "Todas" means any
	Layers    []LayerID // Nil means every layer
	Zone      string    // "todas", "region:<id>" or "corridor:<id>"
}

// SeverityAll disables severity filtering
const SeverityAll Severity = "Todas"

// ZoneAll disables zone filtering
const ZoneAll = "todas"

// TimeLabel formats a millisecond timestamp as a 24h clock label
func TimeLabel(ts int64, loc *time.Location) string {
	t := time.UnixMilli(ts)
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format("15:04:05")
}
