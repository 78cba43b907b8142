package domain

import "strings"

// Severity grades an event or incident
type Severity string

const (
	SeverityBaixa   Severity = "Baixa"
	SeverityMedia   Severity = "Media"
	SeverityAlta    Severity = "Alta"
	SeverityCritica Severity = "Critica"
)

// Severities lists severities from lowest to highest
var Severities = []Severity{SeverityBaixa, SeverityMedia, SeverityAlta, SeverityCritica}

var severityWeight = map[Severity]float64{
	SeverityBaixa:   0.5,
	SeverityMedia:   0.95,
	SeverityAlta:    1.35,
	SeverityCritica: 1.8,
}

// Weight returns the relative weight of the severity
func (s Severity) Weight() float64 {
	return severityWeight[s]
}

// IsValid reports whether the severity is known
func (s Severity) IsValid() bool {
	_, ok := severityWeight[s]
	return ok
}

// Lower returns the lowercase form used in event summaries
func (s Severity) Lower() string {
	return strings.ToLower(string(s))
}
