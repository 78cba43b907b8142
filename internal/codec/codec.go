// Package codec exports operator audit trails and chart data as JSON or
// YAML documents.
package codec

import (
	"fmt"
	"io"
	"strings"
	"time"

	"cityos/internal/domain"
)

// AuditLog is an exported operator audit trail
type AuditLog struct {
	ExportedAt time.Time           `json:"exported_at" yaml:"exported_at"`
	Entries    []domain.AuditEntry `json:"entries" yaml:"entries"`
}

// ChartExport is an exported analysis chart
type ChartExport struct {
	Query string           `json:"query" yaml:"query"`
	Chart domain.ChartData `json:"chart" yaml:"chart"`
}

// Importer reads audit logs back from an exported document
type Importer interface {
	ParseAudit(r io.Reader) (*AuditLog, error)
	Format() string
}

// Exporter writes documents in one format
type Exporter interface {
	ExportAudit(log *AuditLog, w io.Writer) error
	ExportChart(chart *ChartExport, w io.Writer) error
	Format() string
	ContentType() string
}

// Codec both imports and exports
type Codec interface {
	Importer
	Exporter
}

// ForFormat returns the codec for name. An empty name selects JSON.
func ForFormat(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return NewJSONCodec(), nil
	case "yaml", "yml":
		return NewYAMLCodec(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported format %q (use json or yaml)", domain.ErrInvalid, name)
	}
}
