package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"cityos/internal/domain"
)

type fakeAdapter struct {
	source   domain.Source
	mu       sync.Mutex
	probeErr error
	probes   int
}

func (f *fakeAdapter) Source() domain.Source { return f.source }

func (f *fakeAdapter) Fetch(_ context.Context, endpoint string, _ domain.Params) (json.RawMessage, error) {
	return json.RawMessage(`{"endpoint":"` + endpoint + `"}`), nil
}

func (f *fakeAdapter) Probe(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probes++
	return f.probeErr
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry(nil, nil)
	require.NoError(t, r.Register(&fakeAdapter{source: domain.SourceSenado}, AdapterConfig{}))
	require.NoError(t, r.Register(&fakeAdapter{source: domain.SourceCamara}, AdapterConfig{Enabled: true, ProbeInterval: time.Minute}))

	err := r.Register(&fakeAdapter{source: domain.SourceCamara}, AdapterConfig{})
	assert.Error(t, err, "duplicate registration")

	a, err := r.Get(domain.SourceSenado)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceSenado, a.Source())

	_, err = r.Get(domain.SourceTransparencia)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	body, err := r.Fetch(context.Background(), domain.SourceCamara, "deputados", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"endpoint":"deputados"}`, string(body))

	infos := r.ListAdapters()
	require.Len(t, infos, 2)
	assert.Equal(t, domain.SourceCamara, infos[0].Source)
	assert.True(t, infos[0].Enabled)
	assert.Equal(t, "1m0s", infos[0].ProbeInterval)
	assert.Nil(t, infos[0].Status)
	assert.Equal(t, domain.SourceSenado, infos[1].Source)
	assert.Empty(t, infos[1].ProbeInterval)
}

func TestRegistryProbeAll(t *testing.T) {
	var got []ProbeResult
	r := NewRegistry(nil, func(p ProbeResult) { got = append(got, p) })

	require.NoError(t, r.Register(&fakeAdapter{source: domain.SourceCamara}, AdapterConfig{}))
	require.NoError(t, r.Register(&fakeAdapter{source: domain.SourceTransparencia, probeErr: errors.New("401 Unauthorized")}, AdapterConfig{}))

	results := r.ProbeAll(context.Background())
	require.Len(t, results, 2)
	assert.True(t, results[0].Healthy)
	assert.False(t, results[1].Healthy)
	assert.Equal(t, "401 Unauthorized", results[1].Error)
	assert.Equal(t, results, got)

	infos := r.ListAdapters()
	require.NotNil(t, infos[1].Status)
	assert.False(t, infos[1].Status.Healthy)
}

func TestRegistryProbeLoop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	results := make(chan ProbeResult, 16)
	r := NewRegistry(nil, func(p ProbeResult) {
		select {
		case results <- p:
		default:
		}
	})

	enabled := &fakeAdapter{source: domain.SourceCamara}
	disabled := &fakeAdapter{source: domain.SourceSenado}
	require.NoError(t, r.Register(enabled, AdapterConfig{Enabled: true, ProbeInterval: 10 * time.Millisecond}))
	require.NoError(t, r.Register(disabled, AdapterConfig{Enabled: false, ProbeInterval: 10 * time.Millisecond}))

	require.NoError(t, r.Start(context.Background()))

	for i := 0; i < 2; i++ {
		select {
		case p := <-results:
			assert.Equal(t, domain.SourceCamara, p.Source)
			assert.True(t, p.Healthy)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for probe")
		}
	}

	r.Stop()

	disabled.mu.Lock()
	defer disabled.mu.Unlock()
	assert.Zero(t, disabled.probes)
}
