package domain

// MetricsPoint is the telemetry sampled at the end of each simulation tick
type MetricsPoint struct {
	TS                   int64           `json:"ts"`
	EventsPerMin         int             `json:"events_per_min"`
	SelectedEventsPerMin int             `json:"selected_events_per_min"`
	LatencyEdgeOn        int             `json:"latency_edge_on"`
	LatencyEdgeOff       int             `json:"latency_edge_off"`
	IncidentsByLayer     map[LayerID]int `json:"incidents_by_layer"`
	Integrity            float64         `json:"integrity"`
}

// KPIs are the headline numbers of the demo console
type KPIs struct {
	EventsPerMin  int     `json:"events_per_min"`
	LatencyMs     int     `json:"latency_ms"`
	IncidentsOpen int     `json:"incidents_open"`
	Integrity     float64 `json:"integrity"`
}

// EntityState summarizes the incidents touching a selected entity
type EntityState string

const (
	EntityCritical   EntityState = "Critico"
	EntityMitigating EntityState = "Mitigando"
	EntityMonitored  EntityState = "Monitorado"
)

// EntityDetail is the drill-down view of one city entity
type EntityDetail struct {
	Entity             Entity        `json:"entity"`
	State              EntityState   `json:"state"`
	RecentEvents       []EventRecord `json:"recent_events"`
	SuggestedPlaybooks []Playbook    `json:"suggested_playbooks"`
}
