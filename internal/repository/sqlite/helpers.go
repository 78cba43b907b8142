package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"cityos/internal/domain"
)

// ============================================================================
// Null and Time Conversion Helpers
// ============================================================================

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// timeLayout is how timestamps are stored in TEXT columns
const timeLayout = time.RFC3339Nano

// formatTime renders t for storage, always in UTC
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime reads a stored timestamp, returning the zero time when unset
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(timeLayout, s)
}

// ============================================================================
// Schema Evolution Guide
// ============================================================================
//
// To add a column to a table:
// 1. Add field to the row struct (below)
// 2. Update scanArgs() - APPEND to end to match column order
// 3. Update the columns constant - APPEND to end
// 4. Update toDomain() to map the new field
// 5. Add migration in sqlite.go migrate() using addColumnIfNotExists()
//
// CRITICAL: Column order must match between the columns constant, scanArgs()
// and every SELECT using the constant.

// ============================================================================
// Lead Row Scanner
// ============================================================================

// leadRow holds all columns from a lead query for scanning
type leadRow struct {
	ID         string
	Orgao      string
	Nome       string
	Email      string
	Integracao sql.NullString
	CreatedAt  string
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match leadColumns order exactly
func (r *leadRow) scanArgs() []interface{} {
	return []interface{}{
		&r.ID,         // 1
		&r.Orgao,      // 2
		&r.Nome,       // 3
		&r.Email,      // 4
		&r.Integracao, // 5
		&r.CreatedAt,  // 6
	}
}

// toDomain converts the scanned row to a domain.Lead
func (r *leadRow) toDomain() (domain.Lead, error) {
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("parse created_at: %w", err)
	}
	return domain.Lead{
		ID:         r.ID,
		Orgao:      r.Orgao,
		Nome:       r.Nome,
		Email:      r.Email,
		Integracao: nullToString(r.Integracao),
		CreatedAt:  created,
	}, nil
}

const leadColumns = `id, orgao, nome, email, integracao, created_at`

// ============================================================================
// Analysis Row Scanner
// ============================================================================

// analysisRow holds all columns from an analysis query for scanning
type analysisRow struct {
	ID        int64
	Query     string
	Source    sql.NullString
	Kind      string
	ChartJSON string
	CreatedAt string
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match analysisColumns order exactly
func (r *analysisRow) scanArgs() []interface{} {
	return []interface{}{
		&r.ID,        // 1
		&r.Query,     // 2
		&r.Source,    // 3
		&r.Kind,      // 4
		&r.ChartJSON, // 5
		&r.CreatedAt, // 6
	}
}

// toDomain converts the scanned row to a domain.Analysis
func (r *analysisRow) toDomain() (domain.Analysis, error) {
	a := domain.Analysis{
		ID:     r.ID,
		Query:  r.Query,
		Source: domain.Source(nullToString(r.Source)),
		Kind:   r.Kind,
	}
	if err := json.Unmarshal([]byte(r.ChartJSON), &a.Chart); err != nil {
		return domain.Analysis{}, fmt.Errorf("unmarshal chart: %w", err)
	}
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("parse created_at: %w", err)
	}
	a.CreatedAt = created
	return a, nil
}

const analysisColumns = `id, query, source, kind, chart, created_at`

// ============================================================================
// Audit Row Scanner
// ============================================================================

// auditRow holds all columns from an audit query for scanning
type auditRow struct {
	EntryID       string
	Timestamp     string
	Action        string
	Scope         string
	Justification string
	Hash          string
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match auditColumns order exactly
func (r *auditRow) scanArgs() []interface{} {
	return []interface{}{
		&r.EntryID,       // 1
		&r.Timestamp,     // 2
		&r.Action,        // 3
		&r.Scope,         // 4
		&r.Justification, // 5
		&r.Hash,          // 6
	}
}

// toDomain converts the scanned row to a domain.AuditEntry
func (r *auditRow) toDomain() domain.AuditEntry {
	return domain.AuditEntry{
		ID:            r.EntryID,
		Timestamp:     r.Timestamp,
		Action:        r.Action,
		Scope:         r.Scope,
		Justification: r.Justification,
		Hash:          r.Hash,
	}
}

const auditColumns = `entry_id, timestamp, action, scope, justification, hash`
