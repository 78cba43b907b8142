package domain

// ScenarioID identifies a simulation scenario
type ScenarioID string

const (
	ScenarioNormal    ScenarioID = "normal"
	ScenarioRain      ScenarioID = "rain"
	ScenarioPublic    ScenarioID = "public"
	ScenarioBlackout  ScenarioID = "blackout"
	ScenarioOperation ScenarioID = "operation"
)

// Scenario holds the tuning factors of a simulation scenario
type Scenario struct {
	ID             ScenarioID `json:"id"`
	Label          string     `json:"label"`
	VolumeFactor   float64    `json:"volume_factor"`
	IncidentFactor float64    `json:"incident_factor"`
	LatencyOffset  float64    `json:"latency_offset"`
}

// Scenarios lists every scenario in display order
var Scenarios = []Scenario{
	{ID: ScenarioNormal, Label: "Dia normal", VolumeFactor: 1, IncidentFactor: 0.08, LatencyOffset: 0},
	{ID: ScenarioRain, Label: "Chuva", VolumeFactor: 1.18, IncidentFactor: 0.12, LatencyOffset: 12},
	{ID: ScenarioPublic, Label: "Evento publico", VolumeFactor: 1.28, IncidentFactor: 0.14, LatencyOffset: 18},
	{ID: ScenarioBlackout, Label: "Apagao", VolumeFactor: 1.38, IncidentFactor: 0.19, LatencyOffset: 26},
	{ID: ScenarioOperation, Label: "Operacao", VolumeFactor: 1.1, IncidentFactor: 0.1, LatencyOffset: 10},
}

// LookupScenario returns the scenario for id and whether it exists
func LookupScenario(id ScenarioID) (Scenario, bool) {
	for _, s := range Scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return Scenario{}, false
}

// ScenarioIndex returns the 1-based position of id, or 0 if unknown
func ScenarioIndex(id ScenarioID) int {
	for i, s := range Scenarios {
		if s.ID == id {
			return i + 1
		}
	}
	return 0
}
