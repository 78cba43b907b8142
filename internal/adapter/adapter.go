package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cityos/internal/domain"
)

// Adapter fetches JSON documents from one upstream open-data API
type Adapter interface {
	// Source returns the upstream this adapter serves
	Source() domain.Source

	// Fetch performs a GET on endpoint with params and returns the body unchanged
	Fetch(ctx context.Context, endpoint string, params domain.Params) (json.RawMessage, error)

	// Probe checks that the upstream answers. It bypasses the cache.
	Probe(ctx context.Context) error
}

// AdapterConfig holds registry settings for an adapter instance
type AdapterConfig struct {
	// Enabled turns on availability probing
	Enabled bool `json:"enabled"`
	// ProbeInterval between availability checks
	ProbeInterval time.Duration `json:"probe_interval"`
}

// ProbeResult is the outcome of one availability check
type ProbeResult struct {
	Source    domain.Source `json:"source"`
	Healthy   bool          `json:"healthy"`
	LatencyMs int64         `json:"latency_ms"`
	Error     string        `json:"error,omitempty"`
	CheckedAt time.Time     `json:"checked_at"`
}

// StatusFunc receives every probe result
type StatusFunc func(ProbeResult)

// UpstreamError reports a non-2xx answer from a government API
type UpstreamError struct {
	Source     domain.Source
	StatusCode int
	StatusText string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("Error fetching %s data: %s", sourceLabel(e.Source), e.StatusText)
}

func sourceLabel(s domain.Source) string {
	switch s {
	case domain.SourceCamara:
		return "Câmara"
	case domain.SourceSenado:
		return "Senado"
	case domain.SourceTransparencia:
		return "Transparência"
	default:
		return string(s)
	}
}
