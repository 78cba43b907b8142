package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"cityos/internal/config"
	"cityos/internal/core/simulator"
	"cityos/internal/domain"
	"cityos/internal/repository"
)

// tickEvents is how many of the newest events a tick summary carries
const tickEvents = 10

// TickSummary is published on every demo tick
type TickSummary struct {
	Tick          int                     `json:"tick"`
	KPIs          domain.KPIs             `json:"kpis"`
	Metric        domain.MetricsPoint     `json:"metric"`
	LatestEvents  []domain.EventRecord    `json:"latest_events"`
	OpenIncidents []domain.IncidentRecord `json:"open_incidents"`
}

// IntensityRange describes the intensity slider
type IntensityRange struct {
	Min     int `json:"min"`
	Max     int `json:"max"`
	Step    int `json:"step"`
	Default int `json:"default"`
}

// Catalog is the static vocabulary of the demo console
type Catalog struct {
	Regions    []domain.Region      `json:"regions"`
	Corridors  []domain.Corridor    `json:"corridors"`
	Assets     []domain.Asset       `json:"assets"`
	Layers     []domain.Layer       `json:"layers"`
	Severities []domain.Severity    `json:"severities"`
	Scenarios  []domain.Scenario    `json:"scenarios"`
	Playbooks  []domain.Playbook    `json:"playbooks"`
	Sources    []domain.SourceState `json:"sources"`
	Intensity  IntensityRange       `json:"intensity"`
}

// DemoState is the full console state plus loop status
type DemoState struct {
	simulator.Snapshot
	Running bool `json:"running"`
}

// DemoService owns the demo console simulation. All engine access goes
// through its mutex.
type DemoService struct {
	mu       sync.Mutex
	engine   *simulator.Engine
	audit    repository.AuditStore
	events   *EventBus
	interval time.Duration
	logger   *zap.Logger

	parent context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewDemoService creates the simulation and primes it with cfg.PrimeTicks
// ticks. audit and events may be nil.
func NewDemoService(cfg config.DemoConfig, loc *time.Location, audit repository.AuditStore, events *EventBus, logger *zap.Logger, opts ...simulator.Option) *DemoService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	interval := cfg.TickInterval.Duration()
	if interval <= 0 {
		interval = 1200 * time.Millisecond
	}

	s := &DemoService{
		engine:   simulator.New(append([]simulator.Option{simulator.WithLocation(loc)}, opts...)...),
		audit:    audit,
		events:   events,
		interval: interval,
		logger:   logger,
	}
	for i := 0; i < cfg.PrimeTicks; i++ {
		s.engine.Advance()
	}
	return s
}

// Start runs the tick loop until ctx is cancelled or Stop is called.
// Calling Start on a running service does nothing.
func (s *DemoService) Start(ctx context.Context) {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return
	}
	s.parent = ctx
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel, s.done = cancel, done
	interval := s.interval
	s.mu.Unlock()

	s.logger.Info("demo loop started", zap.Duration("interval", interval))
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Tick()
			}
		}
	}()
}

// Stop halts the tick loop and waits for it to exit
func (s *DemoService) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.logger.Info("demo loop stopped")
}

// SetInterval changes the tick period. A running loop is restarted with the
// new period. Non-positive values are ignored.
func (s *DemoService) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	s.mu.Lock()
	changed := d != s.interval
	s.interval = d
	parent, running := s.parent, s.cancel != nil
	s.mu.Unlock()

	if changed && running {
		s.Stop()
		s.Start(parent)
	}
}

// Interval returns the tick period
func (s *DemoService) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// Running reports whether the tick loop is active
func (s *DemoService) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Tick advances the simulation once and publishes a summary
func (s *DemoService) Tick() TickSummary {
	s.mu.Lock()
	metric := s.engine.Advance()
	snap := s.engine.Snapshot()
	open := s.engine.OpenIncidents()
	s.mu.Unlock()

	latest := snap.Events
	if len(latest) > tickEvents {
		latest = latest[:tickEvents]
	}
	summary := TickSummary{
		Tick:          snap.Tick,
		KPIs:          snap.KPIs,
		Metric:        metric,
		LatestEvents:  latest,
		OpenIncidents: open,
	}
	s.events.Publish(Event{Type: EventDemoTick, Payload: summary})
	return summary
}

// Reset reseeds the simulation from the current controls
func (s *DemoService) Reset() simulator.Snapshot {
	s.mu.Lock()
	s.engine.Reset()
	snap := s.engine.Snapshot()
	s.mu.Unlock()

	s.events.Publish(Event{Type: EventDemoReset, Payload: map[string]any{"controls": snap.Controls}})
	return snap
}

// State returns the full simulation state
func (s *DemoService) State() DemoState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return DemoState{Snapshot: s.engine.Snapshot(), Running: s.cancel != nil}
}

// KPIs returns the headline indicators
func (s *DemoService) KPIs() domain.KPIs {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.KPIs()
}

// Events returns the events matching filter, newest first
func (s *DemoService) Events(filter domain.EventFilter) []domain.EventRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.FilterEvents(filter)
}

// OpenIncidents returns the incidents shown on the console
func (s *DemoService) OpenIncidents() []domain.IncidentRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.OpenIncidents()
}

// Entity returns the detail panel for rid
func (s *DemoService) Entity(rid string) (domain.EntityDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.EntityDetail(rid)
}

// Controls returns the current controls
func (s *DemoService) Controls() simulator.Controls {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Controls()
}

// SetControls replaces the controls after validating them
func (s *DemoService) SetControls(c simulator.Controls) (simulator.Controls, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.engine.SetControls(c); err != nil {
		return simulator.Controls{}, err
	}
	return s.engine.Controls(), nil
}

// Inject opens an operator-requested incident
func (s *DemoService) Inject(in simulator.Injection) (domain.IncidentRecord, error) {
	s.mu.Lock()
	incident, err := s.engine.Inject(in)
	s.mu.Unlock()
	if err != nil {
		return domain.IncidentRecord{}, err
	}

	s.logger.Info("incident injected",
		zap.String("id", incident.ID),
		zap.String("kind", string(incident.Kind)),
		zap.String("rid", incident.EntityRID))
	s.events.Publish(Event{Type: EventIncidentOpened, Payload: incident})
	return incident, nil
}

// RunPlaybook executes a playbook and persists its audit entry
func (s *DemoService) RunPlaybook(ctx context.Context, playbookID, scope, justification string) (domain.AuditEntry, error) {
	s.mu.Lock()
	entry, err := s.engine.RunPlaybook(playbookID, scope, justification)
	s.mu.Unlock()
	if err != nil {
		return domain.AuditEntry{}, err
	}

	if s.audit != nil {
		if err := s.audit.AppendAudit(ctx, entry); err != nil {
			s.logger.Error("failed to persist audit entry", zap.String("id", entry.ID), zap.Error(err))
		}
	}
	s.logger.Info("playbook executed", zap.String("playbook", playbookID), zap.String("scope", entry.Scope), zap.String("hash", entry.Hash))
	s.events.Publish(Event{Type: EventPlaybookRun, Payload: entry})
	return entry, nil
}

// SetSourceHealth forces a data source into health
func (s *DemoService) SetSourceHealth(id string, health domain.HealthState) (domain.SourceState, error) {
	s.mu.Lock()
	source, err := s.engine.SetSourceHealth(id, health)
	s.mu.Unlock()
	if err != nil {
		return domain.SourceState{}, err
	}

	s.events.Publish(Event{Type: EventSourceHealth, Payload: source})
	return source, nil
}

// AuditTrail returns the in-memory audit entries, newest first
func (s *DemoService) AuditTrail() []domain.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.AuditTrail()
}

// AuditLog returns the persisted audit entries, newest first, which outlive
// simulation resets. Without a store it falls back to AuditTrail.
func (s *DemoService) AuditLog(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	if s.audit == nil {
		return s.AuditTrail(), nil
	}
	return s.audit.ListAudit(ctx, limit)
}

// Catalog returns the console vocabulary
func (s *DemoService) Catalog() Catalog {
	return Catalog{
		Regions:    domain.Regions,
		Corridors:  domain.Corridors,
		Assets:     domain.Assets,
		Layers:     domain.Layers,
		Severities: domain.Severities,
		Scenarios:  domain.Scenarios,
		Playbooks:  domain.Playbooks,
		Sources:    domain.InitialSources,
		Intensity: IntensityRange{
			Min:     simulator.MinIntensity,
			Max:     simulator.MaxIntensity,
			Step:    simulator.IntensityStep,
			Default: simulator.DefaultIntensity,
		},
	}
}
