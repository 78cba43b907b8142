package simulator

import (
	"fmt"
	"strings"
	"time"

	"cityos/internal/domain"
)

// List caps keep memory bounded no matter how long the demo runs.
const (
	maxIncidentsTick   = 220
	maxIncidentsInject = 200
	maxEvents          = 420
	maxMetrics         = 72
	maxActivePlaybooks = 28
	maxAuditEntries    = 260

	autoIncidentDuration = 9
	playbookDuration     = 14
	openIncidentsShown   = 8
	entityRecentEvents   = 6
	suggestedPlaybooks   = 3
	offlineLatencyMs     = 920
	metricsWindowMs      = 60_000

	DefaultIntensity     = 56
	MinIntensity         = 20
	MaxIntensity         = 100
	IntensityStep        = 4
	DefaultInjectionTick = 8

	sourceEngine = "Motor de simulacao"
	sourceManual = "Operacao manual"
)

// Controls are the operator-facing knobs of the simulation
type Controls struct {
	Scenario     domain.ScenarioID `json:"scenario"`
	Intensity    int               `json:"intensity"`
	EdgeEnabled  bool              `json:"edge_enabled"`
	ActiveLayers []domain.LayerID  `json:"active_layers"`
	SelectedRID  string            `json:"selected_rid,omitempty"`
}

// DefaultControls returns the controls a fresh console starts with
func DefaultControls() Controls {
	return Controls{
		Scenario:     domain.ScenarioNormal,
		Intensity:    DefaultIntensity,
		EdgeEnabled:  true,
		ActiveLayers: domain.AllLayerIDs(),
	}
}

// Validate checks the controls against the known catalogue
func (c Controls) Validate() error {
	if _, ok := domain.LookupScenario(c.Scenario); !ok {
		return fmt.Errorf("%w: unknown scenario %q", domain.ErrInvalid, c.Scenario)
	}
	if c.Intensity < MinIntensity || c.Intensity > MaxIntensity {
		return fmt.Errorf("%w: intensity must be between %d and %d", domain.ErrInvalid, MinIntensity, MaxIntensity)
	}
	for _, l := range c.ActiveLayers {
		if !l.IsValid() {
			return fmt.Errorf("%w: unknown layer %q", domain.ErrInvalid, l)
		}
	}
	if c.SelectedRID != "" {
		if _, ok := domain.EntityByRID(c.SelectedRID); !ok {
			return fmt.Errorf("%w: unknown entity %q", domain.ErrInvalid, c.SelectedRID)
		}
	}
	return nil
}

// Injection asks the engine to open an incident on a region or corridor
type Injection struct {
	Kind          domain.InjectionKind `json:"kind"`
	TargetType    domain.TargetType    `json:"target_type"`
	TargetID      string               `json:"target_id"`
	Severity      domain.Severity      `json:"severity"`
	DurationTicks int                  `json:"duration_ticks"`
}

// Snapshot is a copy of the simulation state safe to hand to other goroutines
type Snapshot struct {
	Tick            int                     `json:"tick"`
	Controls        Controls                `json:"controls"`
	KPIs            domain.KPIs             `json:"kpis"`
	Events          []domain.EventRecord    `json:"events"`
	Incidents       []domain.IncidentRecord `json:"incidents"`
	Metrics         []domain.MetricsPoint   `json:"metrics"`
	Sources         []domain.SourceState    `json:"sources"`
	AuditTrail      []domain.AuditEntry     `json:"audit_trail"`
	ActivePlaybooks []domain.ActivePlaybook `json:"active_playbooks"`
}

// Option configures an Engine
type Option func(*Engine)

// WithClock replaces the wall clock, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLocation sets the zone used for event time labels
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) { e.loc = loc }
}

// WithControls sets the starting controls
func WithControls(c Controls) Option {
	return func(e *Engine) { e.controls = c }
}

// Engine advances the synthetic city one tick at a time.
// It is not safe for concurrent use; callers serialize access.
type Engine struct {
	rng      *RNG
	now      func() time.Time
	loc      *time.Location
	controls Controls

	tick            int
	eventCounter    int
	incidentCounter int
	auditCounter    int

	events          []domain.EventRecord
	incidents       []domain.IncidentRecord
	metrics         []domain.MetricsPoint
	sources         []domain.SourceState
	auditTrail      []domain.AuditEntry
	activePlaybooks []domain.ActivePlaybook
}

// New creates an engine seeded with InitialSeed and empty state
func New(opts ...Option) *Engine {
	e := &Engine{
		rng:      NewRNG(InitialSeed),
		now:      time.Now,
		loc:      time.Local,
		controls: DefaultControls(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.clear()
	return e
}

func (e *Engine) clear() {
	e.tick = 0
	e.eventCounter = 0
	e.incidentCounter = 0
	e.auditCounter = 0
	e.events = nil
	e.incidents = nil
	e.metrics = nil
	e.auditTrail = nil
	e.activePlaybooks = nil
	e.sources = make([]domain.SourceState, len(domain.InitialSources))
	copy(e.sources, domain.InitialSources)
}

// Reset clears all state and reseeds from the current scenario and intensity
func (e *Engine) Reset() {
	seed := ResetSeed(domain.ScenarioIndex(e.controls.Scenario), e.controls.Intensity)
	e.rng = NewRNG(seed)
	e.clear()
}

// Tick returns the number of ticks advanced since the last reset
func (e *Engine) Tick() int {
	return e.tick
}

// Controls returns a copy of the current controls
func (e *Engine) Controls() Controls {
	c := e.controls
	c.ActiveLayers = append([]domain.LayerID(nil), e.controls.ActiveLayers...)
	return c
}

// SetControls replaces the controls after validating them
func (e *Engine) SetControls(c Controls) error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.ActiveLayers = orderedLayers(c.ActiveLayers)
	e.controls = c
	return nil
}

// orderedLayers dedupes layers and returns them in catalogue order
func orderedLayers(layers []domain.LayerID) []domain.LayerID {
	out := make([]domain.LayerID, 0, len(layers))
	for _, id := range domain.AllLayerIDs() {
		if domain.ContainsLayer(layers, id) {
			out = append(out, id)
		}
	}
	return out
}

func (e *Engine) layerActive(l domain.LayerID) bool {
	return domain.ContainsLayer(e.controls.ActiveLayers, l)
}

func (e *Engine) newEvent(now int64, layer domain.LayerID, sev domain.Severity, source, summary string, ref domain.TargetRef) domain.EventRecord {
	e.eventCounter++
	return domain.EventRecord{
		ID:         fmt.Sprintf("evt-%06d", e.eventCounter),
		TS:         now,
		TimeLabel:  domain.TimeLabel(now, e.loc),
		Layer:      layer,
		EntityRID:  ref.RID,
		RegionID:   ref.RegionID,
		CorridorID: ref.CorridorID,
		Severity:   sev,
		Summary:    summary,
		Source:     source,
	}
}

func (e *Engine) newIncident(now int64, kind domain.InjectionKind, layer domain.LayerID, sev domain.Severity, summary string, ref domain.TargetRef, duration int) domain.IncidentRecord {
	e.incidentCounter++
	return domain.IncidentRecord{
		ID:             fmt.Sprintf("inc-%05d", e.incidentCounter),
		Kind:           kind,
		Layer:          layer,
		Severity:       sev,
		Status:         domain.IncidentOpen,
		Summary:        summary,
		EntityRID:      ref.RID,
		RegionID:       ref.RegionID,
		CorridorID:     ref.CorridorID,
		DurationTicks:  duration,
		RemainingTicks: duration,
		OpenedAt:       now,
	}
}

func pickSeverity(r *RNG, scenario domain.ScenarioID) domain.Severity {
	roll := r.Float()
	if scenario == domain.ScenarioBlackout {
		switch {
		case roll > 0.82:
			return domain.SeverityCritica
		case roll > 0.55:
			return domain.SeverityAlta
		case roll > 0.26:
			return domain.SeverityMedia
		}
		return domain.SeverityBaixa
	}
	switch {
	case roll > 0.91:
		return domain.SeverityCritica
	case roll > 0.67:
		return domain.SeverityAlta
	case roll > 0.34:
		return domain.SeverityMedia
	}
	return domain.SeverityBaixa
}

type layerPreference struct {
	below float64
	layer domain.LayerID
}

var scenarioLayerBias = map[domain.ScenarioID][]layerPreference{
	domain.ScenarioRain:     {{0.3, domain.LayerTrafego}, {0.52, domain.LayerEnergia}},
	domain.ScenarioPublic:   {{0.34, domain.LayerSeguranca}, {0.56, domain.LayerTrafego}},
	domain.ScenarioBlackout: {{0.52, domain.LayerEnergia}, {0.72, domain.LayerIluminacao}},
}

// pickLayer must only be called with at least one active layer
func pickLayer(r *RNG, scenario domain.ScenarioID, active []domain.LayerID) domain.LayerID {
	score := r.Float()
	for _, pref := range scenarioLayerBias[scenario] {
		if score < pref.below && domain.ContainsLayer(active, pref.layer) {
			return pref.layer
		}
	}
	return choice(r, active)
}

func summaryForEvent(layer domain.LayerID, sev domain.Severity, label string) string {
	return fmt.Sprintf("%s %s em %s", layer.Label(), sev.Lower(), label)
}

// Advance runs one simulation tick
func (e *Engine) Advance() domain.MetricsPoint {
	now := e.now().UnixMilli()
	r := e.rng
	e.tick++
	tick := e.tick

	layers := e.controls.ActiveLayers
	scenario, _ := domain.LookupScenario(e.controls.Scenario)
	intensity := float64(e.controls.Intensity)
	reliability := domain.Reliability(e.sources)

	active := e.activePlaybooks[:0:0]
	shield := 0.0
	for _, run := range e.activePlaybooks {
		if run.UntilTick > tick {
			active = append(active, run)
			shield += run.Impact * 0.2
		}
	}

	var transitioned []domain.EventRecord
	incidents := make([]domain.IncidentRecord, len(e.incidents))
	for i, inc := range e.incidents {
		incidents[i] = inc
		if inc.Status == domain.IncidentResolved {
			continue
		}

		scoped := 0.0
		for _, run := range active {
			if run.Layer != "" && run.Layer != inc.Layer {
				continue
			}
			if !domain.ScopeMatches(run.Scope, inc.Ref()) {
				continue
			}
			scoped += run.Impact
		}

		remaining := inc.RemainingTicks - 1 - round(scoped*2)
		next := inc.Status
		if remaining <= 0 {
			next = domain.IncidentResolved
			remaining = 0
		} else if remaining <= inc.DurationTicks*45/100 && inc.Status == domain.IncidentOpen {
			next = domain.IncidentMitigated
		}

		if next != inc.Status {
			sev := domain.SeverityMedia
			if next == domain.IncidentResolved {
				sev = domain.SeverityBaixa
			}
			transitioned = append(transitioned, e.newEvent(now, inc.Layer, sev, sourceEngine,
				fmt.Sprintf("%s (%s)", inc.Summary, next), inc.Ref()))
		}
		incidents[i].Status = next
		incidents[i].RemainingTicks = remaining
	}

	chance := domain.Clamp(scenario.IncidentFactor*(intensity/100)*(2.08-reliability)-shield, 0.02, 0.48)

	var newIncidents []domain.IncidentRecord
	var generated []domain.EventRecord

	if len(layers) > 0 && r.Float() < chance {
		var ref domain.TargetRef
		var name string
		if r.Float() > 0.56 {
			c := choice(r, domain.Corridors)
			ref, name = c.Target(), c.Name
		} else {
			reg := choice(r, domain.Regions)
			ref, name = reg.Target(), reg.Name
		}
		sev := pickSeverity(r, scenario.ID)
		layer := pickLayer(r, scenario.ID, layers)
		summary := "Alerta sintetico em " + name
		newIncidents = append(newIncidents, e.newIncident(now, domain.InjectionIncident, layer, sev, summary, ref, autoIncidentDuration))
		generated = append(generated, e.newEvent(now, layer, sev, sourceEngine, summary, ref))
	}

	volume := 0
	if len(layers) > 0 {
		volume = int(domain.Clamp(float64(round(intensity/17*scenario.VolumeFactor*reliability*(1-shield))), 1, 18))
	}

	eventSources := make([]domain.SourceState, 0, len(e.sources))
	for _, s := range e.sources {
		if s.Health != domain.HealthOffline {
			eventSources = append(eventSources, s)
		}
	}
	if len(eventSources) == 0 {
		eventSources = e.sources
	}

	var visibleAssets []domain.Asset
	for _, a := range domain.Assets {
		if domain.ContainsLayer(layers, a.Layer) {
			visibleAssets = append(visibleAssets, a)
		}
	}
	if len(visibleAssets) == 0 {
		visibleAssets = domain.Assets
	}

	for i := 0; i < volume; i++ {
		layer := pickLayer(r, scenario.ID, layers)
		sev := pickSeverity(r, scenario.ID)

		var ref domain.TargetRef
		var label string
		roll := r.Float()
		switch {
		case roll < 0.62:
			a := choice(r, visibleAssets)
			ref, label, layer = a.Target(), a.Name, a.Layer
		case roll < 0.86:
			c := choice(r, domain.Corridors)
			ref, label = c.Target(), c.Name
		default:
			reg := choice(r, domain.Regions)
			ref, label = reg.Target(), reg.Name
		}

		src := choice(r, eventSources)
		if sev.Weight() > 1.5 && src.Health == domain.HealthDegraded {
			sev = domain.SeverityAlta
		}
		generated = append(generated, e.newEvent(now, layer, sev, src.Name, summaryForEvent(layer, sev, label), ref))
	}

	for i, s := range e.sources {
		baseline, ok := domain.FindInitialSource(s.ID)
		if !ok {
			baseline = s
		}
		if s.Health == domain.HealthOffline {
			e.sources[i].IngestionRate = 0
			e.sources[i].LatencyMs = 880 + round(r.Float()*120)
			continue
		}
		jitter := 0.9 + r.Float()*0.2
		if s.Health == domain.HealthDegraded {
			e.sources[i].IngestionRate = round(float64(baseline.IngestionRate) * 0.58 * jitter)
			e.sources[i].LatencyMs = round(float64(baseline.LatencyMs+64) * jitter)
			continue
		}
		e.sources[i].IngestionRate = round(float64(baseline.IngestionRate) * jitter)
		e.sources[i].LatencyMs = round(float64(baseline.LatencyMs) * jitter)
	}

	e.incidents = capList(append(newIncidents, incidents...), maxIncidentsTick)

	merged := make([]domain.EventRecord, 0, len(generated)+len(transitioned)+len(e.events))
	merged = append(merged, generated...)
	merged = append(merged, transitioned...)
	merged = append(merged, e.events...)
	e.events = capList(merged, maxEvents)
	e.activePlaybooks = active

	windowStart := now - metricsWindowMs
	perMin, selectedPerMin := 0, 0
	for _, ev := range e.events {
		if ev.TS < windowStart {
			continue
		}
		perMin++
		if e.controls.SelectedRID != "" && ev.EntityRID == e.controls.SelectedRID {
			selectedPerMin++
		}
	}

	byLayer := make(map[domain.LayerID]int, len(domain.Layers))
	for _, id := range domain.AllLayerIDs() {
		byLayer[id] = 0
	}
	openCount := 0
	for _, inc := range e.incidents {
		if inc.IsActive() {
			byLayer[inc.Layer]++
			openCount++
		}
	}

	offline, degraded := domain.CountHealth(e.sources)
	edgeOn := round(domain.Clamp(42+scenario.LatencyOffset+float64(degraded)*25+float64(offline)*82+(r.Float()*12-6), 24, 1550))
	edgeOff := edgeOn + 36 + round(r.Float()*14)

	point := domain.MetricsPoint{
		TS:                   now,
		EventsPerMin:         perMin,
		SelectedEventsPerMin: selectedPerMin,
		LatencyEdgeOn:        edgeOn,
		LatencyEdgeOff:       edgeOff,
		IncidentsByLayer:     byLayer,
		Integrity:            domain.Integrity(e.sources, openCount),
	}
	e.metrics = append(e.metrics, point)
	if len(e.metrics) > maxMetrics {
		e.metrics = append([]domain.MetricsPoint(nil), e.metrics[len(e.metrics)-maxMetrics:]...)
	}
	return point
}

func capList[T any](items []T, limit int) []T {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}

// Inject opens an operator incident on a region or corridor
func (e *Engine) Inject(in Injection) (domain.IncidentRecord, error) {
	var ref domain.TargetRef
	var name string
	switch in.TargetType {
	case domain.TargetRegion:
		reg, ok := domain.FindRegion(in.TargetID)
		if !ok {
			return domain.IncidentRecord{}, fmt.Errorf("%w: region %q", domain.ErrNotFound, in.TargetID)
		}
		ref, name = reg.Target(), reg.Name
	case domain.TargetCorridor:
		c, ok := domain.FindCorridor(in.TargetID)
		if !ok {
			return domain.IncidentRecord{}, fmt.Errorf("%w: corridor %q", domain.ErrNotFound, in.TargetID)
		}
		ref, name = c.Target(), c.Name
	default:
		return domain.IncidentRecord{}, fmt.Errorf("%w: target type %q", domain.ErrInvalid, in.TargetType)
	}

	if in.Severity == "" {
		in.Severity = domain.SeverityAlta
	}
	if !in.Severity.IsValid() {
		return domain.IncidentRecord{}, fmt.Errorf("%w: severity %q", domain.ErrInvalid, in.Severity)
	}
	if in.DurationTicks == 0 {
		in.DurationTicks = DefaultInjectionTick
	}
	if in.DurationTicks < 1 {
		return domain.IncidentRecord{}, fmt.Errorf("%w: duration must be positive", domain.ErrInvalid)
	}

	var layer domain.LayerID
	var source, summary string
	switch in.Kind {
	case domain.InjectionIncident:
		if len(e.controls.ActiveLayers) == 0 {
			return domain.IncidentRecord{}, fmt.Errorf("%w: ative ao menos uma camada para injetar incidente", domain.ErrInvalid)
		}
		layer = choice(e.rng, e.controls.ActiveLayers)
		source = sourceManual
		summary = "Incidente sintetico em " + name
	case domain.InjectionEnergySpike:
		if !e.layerActive(domain.LayerEnergia) {
			return domain.IncidentRecord{}, fmt.Errorf("%w: camada Energia desativada", domain.ErrInvalid)
		}
		layer = domain.LayerEnergia
		source = "Energia / Distribuicao"
		summary = "Pico energetico manual em " + name
	default:
		return domain.IncidentRecord{}, fmt.Errorf("%w: injection kind %q", domain.ErrInvalid, in.Kind)
	}

	now := e.now().UnixMilli()
	inc := e.newIncident(now, in.Kind, layer, in.Severity, summary, ref, in.DurationTicks)
	ev := e.newEvent(now, layer, in.Severity, source, summary, ref)

	e.incidents = capList(append([]domain.IncidentRecord{inc}, e.incidents...), maxIncidentsInject)
	e.events = capList(append([]domain.EventRecord{ev}, e.events...), maxEvents)
	e.controls.SelectedRID = ref.RID
	return inc, nil
}

// RunPlaybook applies a playbook to a scope and records the decision
func (e *Engine) RunPlaybook(playbookID, scope, justification string) (domain.AuditEntry, error) {
	pb, ok := domain.FindPlaybook(playbookID)
	if !ok {
		return domain.AuditEntry{}, fmt.Errorf("%w: playbook %q", domain.ErrNotFound, playbookID)
	}
	justification = strings.TrimSpace(justification)
	if justification == "" {
		return domain.AuditEntry{}, fmt.Errorf("%w: justificativa obrigatoria", domain.ErrInvalid)
	}
	if scope == "" {
		scope = domain.ScopeGlobal
	}
	if !domain.ValidScope(scope) {
		return domain.AuditEntry{}, fmt.Errorf("%w: scope %q", domain.ErrInvalid, scope)
	}

	nowTime := e.now()
	now := nowTime.UnixMilli()
	run := domain.ActivePlaybook{
		ID:         fmt.Sprintf("run-%d", now),
		PlaybookID: pb.ID,
		Title:      pb.Title,
		Layer:      pb.Layer,
		Scope:      scope,
		Impact:     pb.Impact,
		UntilTick:  e.tick + playbookDuration,
	}

	e.auditCounter++
	action := "Executar " + pb.Title
	input := fmt.Sprintf("%d-%s-%s-%s-%d", now, action, scope, justification, e.auditCounter)
	entry := domain.AuditEntry{
		ID:            fmt.Sprintf("audit-%05d", e.auditCounter),
		Timestamp:     nowTime.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Action:        action,
		Scope:         domain.ScopeLabel(scope),
		Justification: justification,
		Hash:          domain.HashAudit(input),
	}

	for i, inc := range e.incidents {
		if inc.Status == domain.IncidentResolved || !pb.AppliesTo(inc.Layer) || !domain.ScopeMatches(scope, inc.Ref()) {
			continue
		}
		remaining := max(inc.RemainingTicks-2, 1)
		e.incidents[i].RemainingTicks = remaining
		if remaining <= inc.DurationTicks*40/100 {
			e.incidents[i].Status = domain.IncidentMitigated
		}
	}

	e.activePlaybooks = capList(append([]domain.ActivePlaybook{run}, e.activePlaybooks...), maxActivePlaybooks)
	e.auditTrail = capList(append([]domain.AuditEntry{entry}, e.auditTrail...), maxAuditEntries)
	return entry, nil
}

// SetSourceHealth forces a source into a health state and logs an event
func (e *Engine) SetSourceHealth(sourceID string, health domain.HealthState) (domain.SourceState, error) {
	if !health.IsValid() {
		return domain.SourceState{}, fmt.Errorf("%w: health %q", domain.ErrInvalid, health)
	}
	idx := -1
	for i, s := range e.sources {
		if s.ID == sourceID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.SourceState{}, fmt.Errorf("%w: source %q", domain.ErrNotFound, sourceID)
	}

	src := &e.sources[idx]
	src.Health = health
	if health == domain.HealthOffline {
		src.IngestionRate = 0
		src.LatencyMs = offlineLatencyMs
	}

	layer := domain.LayerSeguranca
	if sourceID == "fonte-energy" {
		layer = domain.LayerEnergia
	}
	sev := domain.SeverityMedia
	var summary string
	switch health {
	case domain.HealthOffline:
		sev = domain.SeverityAlta
		summary = "Falha simulada em " + src.Name
	case domain.HealthDegraded:
		summary = "Degradacao simulada em " + src.Name
	default:
		summary = "Fonte restaurada: " + src.Name
	}

	region := domain.Regions[0]
	ev := e.newEvent(e.now().UnixMilli(), layer, sev, src.Name, summary, domain.TargetRef{RID: region.RID, RegionID: region.ID})
	e.events = capList(append([]domain.EventRecord{ev}, e.events...), maxEvents)
	return *src, nil
}

// KPIs computes the headline figures from the latest metric point
func (e *Engine) KPIs() domain.KPIs {
	var latest domain.MetricsPoint
	if len(e.metrics) > 0 {
		latest = e.metrics[len(e.metrics)-1]
	}
	windowStart := latest.TS - metricsWindowMs

	perMin := 0
	for _, ev := range e.events {
		if ev.TS >= windowStart && e.layerActive(ev.Layer) {
			perMin++
		}
	}

	latency := latest.LatencyEdgeOff
	if e.controls.EdgeEnabled {
		latency = latest.LatencyEdgeOn
	}

	open := 0
	for _, inc := range e.incidents {
		if inc.IsActive() && e.layerActive(inc.Layer) {
			open++
		}
	}

	return domain.KPIs{
		EventsPerMin:  perMin,
		LatencyMs:     latency,
		IncidentsOpen: open,
		Integrity:     domain.Integrity(e.sources, open),
	}
}

// FilterEvents returns events matching every criterion of f, newest first
func (e *Engine) FilterEvents(f domain.EventFilter) []domain.EventRecord {
	search := strings.ToLower(f.SearchRID)
	out := make([]domain.EventRecord, 0)
	for _, ev := range e.events {
		if search != "" && !strings.Contains(strings.ToLower(ev.EntityRID), search) {
			continue
		}
		if f.Severity != "" && f.Severity != domain.SeverityAll && ev.Severity != f.Severity {
			continue
		}
		if f.Layers != nil && !domain.ContainsLayer(f.Layers, ev.Layer) {
			continue
		}
		if !zoneMatches(f.Zone, ev) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

func zoneMatches(zone string, ev domain.EventRecord) bool {
	if id, ok := strings.CutPrefix(zone, "region:"); ok {
		return ev.RegionID == id
	}
	if id, ok := strings.CutPrefix(zone, "corridor:"); ok {
		return ev.CorridorID == id
	}
	return true
}

// OpenIncidents returns the first unresolved incidents on active layers
func (e *Engine) OpenIncidents() []domain.IncidentRecord {
	out := make([]domain.IncidentRecord, 0, openIncidentsShown)
	for _, inc := range e.incidents {
		if !inc.IsActive() || !e.layerActive(inc.Layer) {
			continue
		}
		out = append(out, inc)
		if len(out) == openIncidentsShown {
			break
		}
	}
	return out
}

// EntityDetail resolves a RID and summarizes what is happening there
func (e *Engine) EntityDetail(rid string) (domain.EntityDetail, error) {
	entity, ok := domain.EntityByRID(rid)
	if !ok {
		return domain.EntityDetail{}, fmt.Errorf("%w: entity %q", domain.ErrNotFound, rid)
	}

	state := domain.EntityMonitored
	for _, inc := range e.incidents {
		if !relatedIncident(entity, inc) {
			continue
		}
		if inc.Status == domain.IncidentOpen {
			state = domain.EntityCritical
			break
		}
		if inc.Status == domain.IncidentMitigated {
			state = domain.EntityMitigating
		}
	}

	recent := make([]domain.EventRecord, 0, entityRecentEvents)
	for _, ev := range e.events {
		if ev.EntityRID != rid {
			continue
		}
		recent = append(recent, ev)
		if len(recent) == entityRecentEvents {
			break
		}
	}

	return domain.EntityDetail{
		Entity:             entity,
		State:              state,
		RecentEvents:       recent,
		SuggestedPlaybooks: SuggestPlaybooks(entity),
	}, nil
}

func relatedIncident(entity domain.Entity, inc domain.IncidentRecord) bool {
	if inc.EntityRID == entity.RID {
		return true
	}
	switch entity.Kind {
	case domain.EntityRegion:
		return inc.RegionID == entity.RegionID
	case domain.EntityCorridor:
		return inc.CorridorID == entity.CorridorID
	}
	return false
}

// SuggestPlaybooks lists up to three playbooks fitting the entity's layer
func SuggestPlaybooks(entity domain.Entity) []domain.Playbook {
	out := make([]domain.Playbook, 0, suggestedPlaybooks)
	for _, pb := range domain.Playbooks {
		if entity.LayerHint != "" && !pb.AppliesTo(entity.LayerHint) {
			continue
		}
		out = append(out, pb)
		if len(out) == suggestedPlaybooks {
			break
		}
	}
	return out
}

// AuditTrail returns the audit entries, newest first
func (e *Engine) AuditTrail() []domain.AuditEntry {
	return append([]domain.AuditEntry(nil), e.auditTrail...)
}

// Snapshot copies the full simulation state
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Tick:            e.tick,
		Controls:        e.Controls(),
		KPIs:            e.KPIs(),
		Events:          append([]domain.EventRecord(nil), e.events...),
		Incidents:       append([]domain.IncidentRecord(nil), e.incidents...),
		Metrics:         append([]domain.MetricsPoint(nil), e.metrics...),
		Sources:         append([]domain.SourceState(nil), e.sources...),
		AuditTrail:      e.AuditTrail(),
		ActivePlaybooks: append([]domain.ActivePlaybook(nil), e.activePlaybooks...),
	}
}
