package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Source names an upstream open-data API
type Source string

const (
	SourceCamara        Source = "camara"
	SourceSenado        Source = "senado"
	SourceTransparencia Source = "transparencia"
)

// Sources lists every upstream in a stable order
var Sources = []Source{SourceCamara, SourceSenado, SourceTransparencia}

// IsValid reports whether the source is known
func (s Source) IsValid() bool {
	for _, item := range Sources {
		if item == s {
			return true
		}
	}
	return false
}

// Caption returns the attribution shown under generic charts
func (s Source) Caption() string {
	switch s {
	case SourceCamara:
		return "API da Câmara dos Deputados"
	case SourceSenado:
		return "API do Senado Federal"
	default:
		return "API do Portal da Transparência"
	}
}

// Params are upstream query parameters. Numbers and booleans decode to their
// string form so LLM-produced plans can be used as-is.
type Params map[string]string

// UnmarshalJSON accepts scalar values of any JSON type
func (p *Params) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Params, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			out[k] = val
		case float64:
			out[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			out[k] = strconv.FormatBool(val)
		default:
			return fmt.Errorf("param %q: unsupported value type %T", k, v)
		}
	}
	*p = out
	return nil
}

// Clone returns a shallow copy safe for mutation
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Visualization describes the chart a plan should produce
type Visualization struct {
	Type  string   `json:"type"`
	Title string   `json:"title"`
	XKey  string   `json:"xKey"`
	YKeys []string `json:"yKeys"`
}

// QueryPlan says where to fetch data for a question and how to chart it
type QueryPlan struct {
	Source             Source        `json:"source"`
	Endpoint           string        `json:"endpoint"`
	Params             Params        `json:"params"`
	Visualization      Visualization `json:"visualization"`
	DataTransformation string        `json:"dataTransformation"`
}

// Row is one chart datum keyed by field name
type Row map[string]any

// ChartData is the chart payload returned by the analysis pipeline
type ChartData struct {
	Type   string   `json:"type" yaml:"type"`
	Title  string   `json:"title" yaml:"title"`
	Data   []Row    `json:"data" yaml:"data"`
	XKey   string   `json:"xKey,omitempty" yaml:"xKey,omitempty"`
	YKeys  []string `json:"yKeys,omitempty" yaml:"yKeys,omitempty"`
	Labels []string `json:"labels,omitempty" yaml:"labels,omitempty"`
	Source string   `json:"source,omitempty" yaml:"source,omitempty"`
}

// Analysis is a recorded question and the chart produced for it
type Analysis struct {
	ID        int64     `json:"id"`
	Query     string    `json:"query"`
	Source    Source    `json:"source"`
	Kind      string    `json:"kind"`
	Chart     ChartData `json:"chart"`
	CreatedAt time.Time `json:"created_at"`
}
