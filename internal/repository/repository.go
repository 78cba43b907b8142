package repository

import (
	"context"

	"cityos/internal/domain"
)

// LeadStore persists contacts captured from the landing page
type LeadStore interface {
	CreateLead(ctx context.Context, lead *domain.Lead) error
	GetLead(ctx context.Context, id string) (*domain.Lead, error)
	ListLeads(ctx context.Context, limit int) ([]domain.Lead, error)
}

// AnalysisStore records answered questions
type AnalysisStore interface {
	SaveAnalysis(ctx context.Context, a *domain.Analysis) error
	ListAnalyses(ctx context.Context, limit int) ([]domain.Analysis, error)
}

// AuditStore keeps the operator audit log beyond the simulator's in-memory cap
type AuditStore interface {
	AppendAudit(ctx context.Context, entry domain.AuditEntry) error
	ListAudit(ctx context.Context, limit int) ([]domain.AuditEntry, error)
}

// Repository combines every store and releases resources on Close
type Repository interface {
	LeadStore
	AnalysisStore
	AuditStore

	// Close releases resources
	Close() error
}
