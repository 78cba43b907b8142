package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"cityos/internal/domain"
)

// defaultListLimit bounds list queries when the caller passes no limit
const defaultListLimit = 100

// Repository persists leads, analysis history and the operator audit log
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// New opens (or creates) the database at dbPath and migrates the schema
func New(dbPath string) (*Repository, error) {
	dsn := dbPath
	if dbPath != ":memory:" {
		dsn = "file:" + dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps :memory: databases shared and serialises writers
	db.SetMaxOpenConns(1)

	repo := &Repository{db: db, now: time.Now}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS leads (
		id TEXT PRIMARY KEY,
		orgao TEXT NOT NULL,
		nome TEXT NOT NULL,
		email TEXT NOT NULL,
		integracao TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS analyses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		query TEXT NOT NULL,
		source TEXT,
		kind TEXT NOT NULL,
		chart JSON NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS audit_entries (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		entry_id TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		action TEXT NOT NULL,
		scope TEXT NOT NULL,
		justification TEXT NOT NULL,
		hash TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_leads_created ON leads(created_at);
	CREATE INDEX IF NOT EXISTS idx_analyses_created ON analyses(created_at);
	`

	if _, err := r.db.Exec(schema); err != nil {
		return err
	}

	// Columns added after the first release
	return r.addColumnIfNotExists("analyses", "kind", "TEXT NOT NULL DEFAULT 'generic'")
}

// addColumnIfNotExists adds a column to a table if it doesn't already exist
func (r *Repository) addColumnIfNotExists(table, column, definition string) error {
	rows, err := r.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid       int
			name      string
			ctype     string
			notnull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return err
		}
		if strings.EqualFold(name, column) {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	_, err = r.db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
	return err
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return limit
}

// ============================================================================
// Leads
// ============================================================================

// CreateLead stores a lead. CreatedAt is stamped when zero.
func (r *Repository) CreateLead(ctx context.Context, lead *domain.Lead) error {
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = r.now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO leads (`+leadColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
	`, lead.ID, lead.Orgao, lead.Nome, lead.Email, stringToNull(lead.Integracao), formatTime(lead.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert lead: %w", err)
	}
	return nil
}

// GetLead retrieves a lead by ID
func (r *Repository) GetLead(ctx context.Context, id string) (*domain.Lead, error) {
	var row leadRow
	err := r.db.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = ?`, id).Scan(row.scanArgs()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lead %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query lead: %w", err)
	}
	lead, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

// ListLeads returns the most recent leads first
func (r *Repository) ListLeads(ctx context.Context, limit int) ([]domain.Lead, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+leadColumns+` FROM leads
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limitOrDefault(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query leads: %w", err)
	}
	defer rows.Close()

	leads := []domain.Lead{}
	for rows.Next() {
		var row leadRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		lead, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leads: %w", err)
	}
	return leads, nil
}

// ============================================================================
// Analyses
// ============================================================================

// SaveAnalysis records an answered question and sets its ID
func (r *Repository) SaveAnalysis(ctx context.Context, a *domain.Analysis) error {
	chart, err := json.Marshal(a.Chart)
	if err != nil {
		return fmt.Errorf("failed to marshal chart: %w", err)
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = r.now().UTC()
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO analyses (query, source, kind, chart, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, a.Query, stringToNull(string(a.Source)), a.Kind, string(chart), formatTime(a.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert analysis: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read analysis id: %w", err)
	}
	a.ID = id
	return nil
}

// ListAnalyses returns the most recent analyses first
func (r *Repository) ListAnalyses(ctx context.Context, limit int) ([]domain.Analysis, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+analysisColumns+` FROM analyses
		ORDER BY id DESC
		LIMIT ?
	`, limitOrDefault(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	out := []domain.Analysis{}
	for rows.Next() {
		var row analysisRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		a, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analyses: %w", err)
	}
	return out, nil
}

// ============================================================================
// Audit entries
// ============================================================================

// AppendAudit persists an operator audit entry. Entry IDs restart when the
// simulator resets, so rows are keyed by insertion order.
func (r *Repository) AppendAudit(ctx context.Context, entry domain.AuditEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_entries (`+auditColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.Timestamp, entry.Action, entry.Scope, entry.Justification, entry.Hash)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

// ListAudit returns persisted audit entries, newest first
func (r *Repository) ListAudit(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+auditColumns+` FROM audit_entries
		ORDER BY seq DESC
		LIMIT ?
	`, limitOrDefault(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	out := []domain.AuditEntry{}
	for rows.Next() {
		var row auditRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		out = append(out, row.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit entries: %w", err)
	}
	return out, nil
}
