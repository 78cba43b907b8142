package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"cityos/internal/domain"
)

// Registry manages all registered government data adapters
type Registry struct {
	mu       sync.RWMutex
	adapters map[domain.Source]Adapter
	configs  map[domain.Source]AdapterConfig
	status   map[domain.Source]ProbeResult
	onStatus StatusFunc
	logger   *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewRegistry creates a new adapter registry. onStatus may be nil.
func NewRegistry(logger *zap.Logger, onStatus StatusFunc) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		adapters: make(map[domain.Source]Adapter),
		configs:  make(map[domain.Source]AdapterConfig),
		status:   make(map[domain.Source]ProbeResult),
		onStatus: onStatus,
		logger:   logger,
	}
}

// Register adds an adapter to the registry
func (r *Registry) Register(adapter Adapter, config AdapterConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	source := adapter.Source()
	if _, exists := r.adapters[source]; exists {
		return fmt.Errorf("adapter %s already registered", source)
	}

	r.adapters[source] = adapter
	r.configs[source] = config
	r.logger.Info("registered adapter",
		zap.String("source", string(source)),
		zap.Bool("probe", config.Enabled),
		zap.Duration("interval", config.ProbeInterval))
	return nil
}

// Get returns the adapter for source
func (r *Registry) Get(source domain.Source) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	adapter, ok := r.adapters[source]
	if !ok {
		return nil, fmt.Errorf("adapter %s: %w", source, domain.ErrNotFound)
	}
	return adapter, nil
}

// Fetch looks up the adapter for source and fetches endpoint from it
func (r *Registry) Fetch(ctx context.Context, source domain.Source, endpoint string, params domain.Params) (json.RawMessage, error) {
	adapter, err := r.Get(source)
	if err != nil {
		return nil, err
	}
	return adapter.Fetch(ctx, endpoint, params)
}

// Start launches a probe loop for every enabled adapter
func (r *Registry) Start(ctx context.Context) error {
	r.mu.Lock()
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.mu.Unlock()

	r.mu.RLock()
	defer r.mu.RUnlock()

	for source, adapter := range r.adapters {
		config := r.configs[source]
		if !config.Enabled || config.ProbeInterval <= 0 {
			continue
		}
		r.wg.Add(1)
		go r.probeLoop(adapter, config.ProbeInterval)
	}

	return nil
}

// Stop cancels every probe loop and waits for them to finish
func (r *Registry) Stop() {
	r.mu.RLock()
	cancel := r.cancel
	r.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	r.wg.Wait()
}

// probeLoop checks an adapter once, then on every tick until stopped
func (r *Registry) probeLoop(adapter Adapter, interval time.Duration) {
	defer r.wg.Done()

	r.probe(r.ctx, adapter)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.probe(r.ctx, adapter)
		}
	}
}

func (r *Registry) probe(ctx context.Context, adapter Adapter) ProbeResult {
	start := time.Now()
	err := adapter.Probe(ctx)
	result := ProbeResult{
		Source:    adapter.Source(),
		Healthy:   err == nil,
		LatencyMs: time.Since(start).Milliseconds(),
		CheckedAt: start.UTC(),
	}
	if err != nil {
		result.Error = err.Error()
		r.logger.Warn("source probe failed",
			zap.String("source", string(result.Source)),
			zap.Error(err))
	}

	r.mu.Lock()
	previous, seen := r.status[result.Source]
	r.status[result.Source] = result
	r.mu.Unlock()

	if seen && previous.Healthy != result.Healthy {
		r.logger.Info("source status changed",
			zap.String("source", string(result.Source)),
			zap.Bool("healthy", result.Healthy))
	}
	if r.onStatus != nil {
		r.onStatus(result)
	}
	return result
}

// ProbeAll checks every registered adapter now, enabled or not
func (r *Registry) ProbeAll(ctx context.Context) []ProbeResult {
	var results []ProbeResult
	for _, adapter := range r.ordered() {
		results = append(results, r.probe(ctx, adapter))
	}
	return results
}

// AdapterInfo describes a registered adapter and its last probe
type AdapterInfo struct {
	Source        domain.Source `json:"source"`
	Enabled       bool          `json:"enabled"`
	ProbeInterval string        `json:"probe_interval,omitempty"`
	Status        *ProbeResult  `json:"status,omitempty"`
}

// ListAdapters returns info about all registered adapters in source order
func (r *Registry) ListAdapters() []AdapterInfo {
	adapters := r.ordered()

	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]AdapterInfo, 0, len(adapters))
	for _, adapter := range adapters {
		source := adapter.Source()
		config := r.configs[source]
		info := AdapterInfo{
			Source:  source,
			Enabled: config.Enabled,
		}
		if config.ProbeInterval > 0 {
			info.ProbeInterval = config.ProbeInterval.String()
		}
		if status, ok := r.status[source]; ok {
			info.Status = &status
		}
		infos = append(infos, info)
	}
	return infos
}

func (r *Registry) ordered() []Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Adapter, 0, len(r.adapters))
	for _, source := range domain.Sources {
		if adapter, ok := r.adapters[source]; ok {
			out = append(out, adapter)
		}
	}
	return out
}
