package domain

import "math"

// HealthState is the health of an ingestion source
type HealthState string

const (
	HealthHealthy  HealthState = "healthy"
	HealthDegraded HealthState = "degraded"
	HealthOffline  HealthState = "offline"
)

// IsValid reports whether the health state is known
func (h HealthState) IsValid() bool {
	return h == HealthHealthy || h == HealthDegraded || h == HealthOffline
}

// Label returns the pt-BR display label
func (h HealthState) Label() string {
	switch h {
	case HealthHealthy:
		return "Saudavel"
	case HealthDegraded:
		return "Degradado"
	default:
		return "Offline"
	}
}

// SourceState is the live telemetry of one ingestion source
type SourceState struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	IngestionRate int         `json:"ingestion_rate"`
	LatencyMs     int         `json:"latency_ms"`
	Health        HealthState `json:"health"`
}

// InitialSources is the baseline telemetry of every source
var InitialSources = []SourceState{
	{ID: "fonte-traffic", Name: "Mobilidade / Semaforos", IngestionRate: 1260, LatencyMs: 45, Health: HealthHealthy},
	{ID: "fonte-energy", Name: "Energia / Distribuicao", IngestionRate: 780, LatencyMs: 58, Health: HealthHealthy},
	{ID: "fonte-security", Name: "Seguranca / Cameras", IngestionRate: 940, LatencyMs: 64, Health: HealthHealthy},
	{ID: "fonte-sanitation", Name: "Saneamento / Residuos", IngestionRate: 520, LatencyMs: 72, Health: HealthHealthy},
	{ID: "fonte-air", Name: "Meio ambiente / Qualidade do ar", IngestionRate: 340, LatencyMs: 86, Health: HealthHealthy},
}

// FindInitialSource returns the baseline for a source ID
func FindInitialSource(id string) (SourceState, bool) {
	for _, s := range InitialSources {
		if s.ID == id {
			return s, true
		}
	}
	return SourceState{}, false
}

// Clamp limits value to [min, max]
func Clamp(value, min, max float64) float64 {
	return math.Min(max, math.Max(min, value))
}

// Integrity scores data integrity from source health and open incidents
func Integrity(sources []SourceState, openIncidents int) float64 {
	offline, degraded := countHealth(sources)
	return Clamp(99.4-float64(offline)*17-float64(degraded)*7-float64(openIncidents)*0.65, 52, 99.8)
}

// Reliability averages source health into a 0..1 score
func Reliability(sources []SourceState) float64 {
	if len(sources) == 0 {
		return 0
	}
	score := 0.0
	for _, s := range sources {
		switch s.Health {
		case HealthHealthy:
			score += 1
		case HealthDegraded:
			score += 0.72
		default:
			score += 0.32
		}
	}
	return score / float64(len(sources))
}

func countHealth(sources []SourceState) (offline, degraded int) {
	for _, s := range sources {
		switch s.Health {
		case HealthOffline:
			offline++
		case HealthDegraded:
			degraded++
		}
	}
	return offline, degraded
}

// CountHealth returns how many sources are offline and degraded
func CountHealth(sources []SourceState) (offline, degraded int) {
	return countHealth(sources)
}
