package codec

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONCodec handles JSON import/export
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// ContentType returns the MIME type of exported documents
func (c *JSONCodec) ContentType() string {
	return "application/json"
}

// ParseAudit imports an audit log from JSON
func (c *JSONCodec) ParseAudit(r io.Reader) (*AuditLog, error) {
	var log AuditLog
	if err := json.NewDecoder(r).Decode(&log); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return &log, nil
}

// ExportAudit writes the audit log as indented JSON
func (c *JSONCodec) ExportAudit(log *AuditLog, w io.Writer) error {
	return c.encode(log, w)
}

// ExportChart writes the chart as indented JSON
func (c *JSONCodec) ExportChart(chart *ChartExport, w io.Writer) error {
	return c.encode(chart, w)
}

func (c *JSONCodec) encode(v any, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}
