package domain

import "fmt"

// Playbook is an operator action that shortens matching incidents
type Playbook struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Layer       LayerID `json:"layer,omitempty"` // Empty applies to every layer
	Impact      float64 `json:"impact"`
}

// Playbooks available to operators
var Playbooks = []Playbook{
	{ID: "pb-traffic", Title: "Sincronizar semaforos adaptativos", Description: "Reduz variabilidade de fluxo e severidade de incidentes de trafego no escopo.", Layer: LayerTrafego, Impact: 0.42},
	{ID: "pb-energy", Title: "Despacho de manutencao eletrica", Description: "Estabiliza eventos energeticos e acelera mitigacao de picos.", Layer: LayerEnergia, Impact: 0.46},
	{ID: "pb-security", Title: "Operacao preventiva de seguranca", Description: "Amplia cobertura de vigilancia e reduz reincidencia local.", Layer: LayerSeguranca, Impact: 0.34},
	{ID: "pb-waste", Title: "Roteiro de residuos contingente", Description: "Prioriza corredores com backlog e reduz alertas de coleta.", Layer: LayerResiduos, Impact: 0.31},
}

// FindPlaybook returns the playbook with the given ID
func FindPlaybook(id string) (Playbook, bool) {
	for _, p := range Playbooks {
		if p.ID == id {
			return p, true
		}
	}
	return Playbook{}, false
}

// AppliesTo reports whether the playbook covers the layer
func (p Playbook) AppliesTo(layer LayerID) bool {
	return p.Layer == "" || p.Layer == layer
}

// ActivePlaybook is a playbook run that stays in effect until a tick
type ActivePlaybook struct {
	ID         string  `json:"id"`
	PlaybookID string  `json:"playbook_id"`
	Title      string  `json:"title"`
	Layer      LayerID `json:"layer,omitempty"`
	Scope      string  `json:"scope"`
	Impact     float64 `json:"impact"`
	UntilTick  int     `json:"until_tick"`
}

// AuditEntry records an operator decision
type AuditEntry struct {
	ID            string `json:"id" yaml:"-"`
	Timestamp     string `json:"timestamp" yaml:"timestamp"`
	Action        string `json:"action" yaml:"action"`
	Scope         string `json:"scope" yaml:"scope"`
	Justification string `json:"justification" yaml:"justification"`
	Hash          string `json:"hash" yaml:"hash"`
}

// HashAudit computes the multiplicative string hash stamped on audit entries
func HashAudit(input string) string {
	var hash uint32
	for _, unit := range utf16Units(input) {
		hash = hash*33 + uint32(unit)
	}
	return fmt.Sprintf("0x%08x", hash)
}

// utf16Units mirrors charCodeAt iteration so non-ASCII justifications hash consistently
func utf16Units(s string) []uint16 {
	units := make([]uint16, 0, len(s))
	for _, r := range s {
		if r >= 0x10000 {
			r -= 0x10000
			units = append(units, uint16(0xD800+(r>>10)), uint16(0xDC00+(r&0x3FF)))
			continue
		}
		units = append(units, uint16(r))
	}
	return units
}
