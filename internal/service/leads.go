package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cityos/internal/domain"
	"cityos/internal/repository"
)

// LeadService captures demo requests from the landing page
type LeadService struct {
	store  repository.LeadStore
	events *EventBus
	logger *zap.Logger
}

// NewLeadService creates a lead service
func NewLeadService(store repository.LeadStore, events *EventBus, logger *zap.Logger) *LeadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeadService{store: store, events: events, logger: logger}
}

// Capture validates and stores a lead. Validation failures are returned as
// domain.FieldErrors.
func (s *LeadService) Capture(ctx context.Context, lead domain.Lead) (*domain.Lead, error) {
	lead.Normalize()
	if errs := lead.Validate(); errs != nil {
		return nil, errs
	}

	lead.ID = uuid.NewString()
	if err := s.store.CreateLead(ctx, &lead); err != nil {
		return nil, err
	}

	s.logger.Info("lead captured", zap.String("id", lead.ID), zap.String("integracao", lead.Integracao))
	s.events.Publish(Event{
		Type:    EventLeadCaptured,
		Payload: map[string]string{"id": lead.ID, "orgao": lead.Orgao, "integracao": lead.Integracao},
	})
	return &lead, nil
}

// List returns the most recent leads
func (s *LeadService) List(ctx context.Context, limit int) ([]domain.Lead, error) {
	return s.store.ListLeads(ctx, limit)
}
