package codec

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"cityos/internal/domain"
)

// YAMLCodec handles YAML import/export
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// ContentType returns the MIME type of exported documents
func (c *YAMLCodec) ContentType() string {
	return "application/yaml"
}

// yamlAuditLog keeps entry ids in YAML exports, which domain.AuditEntry omits
type yamlAuditLog struct {
	ExportedAt string          `yaml:"exported_at"`
	Entries    []yamlAuditItem `yaml:"entries"`
}

type yamlAuditItem struct {
	ID                string `yaml:"id"`
	domain.AuditEntry `yaml:",inline"`
}

// ParseAudit imports an audit log from YAML
func (c *YAMLCodec) ParseAudit(r io.Reader) (*AuditLog, error) {
	var yl yamlAuditLog
	if err := yaml.NewDecoder(r).Decode(&yl); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	log := &AuditLog{Entries: make([]domain.AuditEntry, 0, len(yl.Entries))}
	if yl.ExportedAt != "" {
		t, err := time.Parse(time.RFC3339, yl.ExportedAt)
		if err != nil {
			return nil, fmt.Errorf("invalid exported_at: %w", err)
		}
		log.ExportedAt = t
	}
	for _, item := range yl.Entries {
		entry := item.AuditEntry
		entry.ID = item.ID
		log.Entries = append(log.Entries, entry)
	}
	return log, nil
}

// ExportAudit writes the audit log as YAML
func (c *YAMLCodec) ExportAudit(log *AuditLog, w io.Writer) error {
	yl := yamlAuditLog{
		ExportedAt: log.ExportedAt.UTC().Format(time.RFC3339),
		Entries:    make([]yamlAuditItem, 0, len(log.Entries)),
	}
	for _, e := range log.Entries {
		yl.Entries = append(yl.Entries, yamlAuditItem{ID: e.ID, AuditEntry: e})
	}
	return c.encode(yl, w)
}

// ExportChart writes the chart as YAML
func (c *YAMLCodec) ExportChart(chart *ChartExport, w io.Writer) error {
	return c.encode(chart, w)
}

func (c *YAMLCodec) encode(v any, w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)

	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return encoder.Close()
}
