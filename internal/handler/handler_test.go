package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cityos/internal/adapter"
	"cityos/internal/config"
	"cityos/internal/domain"
	"cityos/internal/repository/sqlite"
	"cityos/internal/service"
)

// stubFetcher answers by "source:endpoint"
type stubFetcher struct {
	mu        sync.Mutex
	responses map[string]string
}

func (f *stubFetcher) Fetch(_ context.Context, source domain.Source, endpoint string, _ domain.Params) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, ok := f.responses[string(source)+":"+endpoint]
	if !ok {
		return nil, errors.New("upstream unavailable")
	}
	return json.RawMessage(body), nil
}

type stubRenderer struct {
	err error
}

func (r stubRenderer) Render(context.Context, any) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	return []byte("png"), nil
}

type stubSources struct {
	probed atomic.Bool
}

func (s *stubSources) ListAdapters() []adapter.AdapterInfo {
	return []adapter.AdapterInfo{{Source: domain.SourceCamara, Enabled: true}}
}

func (s *stubSources) ProbeAll(context.Context) []adapter.ProbeResult {
	s.probed.Store(true)
	return nil
}

type testEnv struct {
	server  *httptest.Server
	demo    *service.DemoService
	sources *stubSources
}

func newTestEnv(t *testing.T, fetcher *stubFetcher, renderer stubRenderer) *testEnv {
	t.Helper()
	if fetcher == nil {
		fetcher = &stubFetcher{}
	}
	if fetcher.responses == nil {
		fetcher.responses = map[string]string{}
	}

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	bus := service.NewEventBus()
	demo := service.NewDemoService(config.DemoConfig{PrimeTicks: 3}, time.UTC, store, bus, nil)
	sources := &stubSources{}

	router := NewRouter(Deps{
		Gov: NewGovHandler(service.NewGovDataService(fetcher, nil), zapNop()),
		AI: NewAIHandler(
			service.NewAnalysisService(fetcher, nil, store, bus, config.AnalysisConfig{}, nil),
			service.NewAskService(0),
			service.NewChatService(nil, nil),
			service.NewChartService(renderer, nil),
			zapNop(),
		),
		Demo:   NewDemoHandler(demo, zapNop()),
		Urban:  NewUrbanHandler(),
		Leads:  NewLeadHandler(service.NewLeadService(store, bus, nil), zapNop()),
		System: NewSystemHandler(sources),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testEnv{server: srv, demo: demo, sources: sources}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			r = bytes.NewBufferString(b)
		default:
			data, err := json.Marshal(b)
			require.NoError(t, err)
			r = bytes.NewReader(data)
		}
	}
	req, err := http.NewRequest(method, e.server.URL+path, r)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}

func zapNop() *zap.Logger { return zap.NewNop() }
