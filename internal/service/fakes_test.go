package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"cityos/internal/adapter"
	"cityos/internal/domain"
	"cityos/internal/repository/sqlite"
)

var fixedNow = time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

type fetchCall struct {
	Source   domain.Source
	Endpoint string
	Params   domain.Params
}

// fakeFetcher answers by "source:endpoint"
type fakeFetcher struct {
	mu        sync.Mutex
	responses map[string]string
	errs      map[string]error
	calls     []fetchCall
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{responses: map[string]string{}, errs: map[string]error{}}
}

func (f *fakeFetcher) on(source domain.Source, endpoint, body string) *fakeFetcher {
	f.responses[string(source)+":"+endpoint] = body
	return f
}

func (f *fakeFetcher) fail(source domain.Source, endpoint string, err error) *fakeFetcher {
	f.errs[string(source)+":"+endpoint] = err
	return f
}

func (f *fakeFetcher) Fetch(_ context.Context, source domain.Source, endpoint string, params domain.Params) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fetchCall{Source: source, Endpoint: endpoint, Params: params.Clone()})

	key := string(source) + ":" + endpoint
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	body, ok := f.responses[key]
	if !ok {
		return nil, errors.New("unexpected fetch " + key)
	}
	return json.RawMessage(body), nil
}

func (f *fakeFetcher) callsTo(endpoint string) []fetchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []fetchCall
	for _, c := range f.calls {
		if c.Endpoint == endpoint {
			out = append(out, c)
		}
	}
	return out
}

// fakeLLM replays answers in order and records requests
type fakeLLM struct {
	mu       sync.Mutex
	answers  []string
	chunks   []string
	err      error
	requests []adapter.CompletionRequest
}

func (l *fakeLLM) Complete(_ context.Context, req adapter.CompletionRequest) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.requests = append(l.requests, req)
	if l.err != nil {
		return "", l.err
	}
	if len(l.answers) == 0 {
		return "", adapter.ErrEmptyCompletion
	}
	answer := l.answers[0]
	l.answers = l.answers[1:]
	return answer, nil
}

func (l *fakeLLM) Stream(_ context.Context, req adapter.CompletionRequest, fn func(chunk string) error) error {
	l.mu.Lock()
	l.requests = append(l.requests, req)
	chunks, err := l.chunks, l.err
	l.mu.Unlock()
	if err != nil {
		return err
	}
	for _, c := range chunks {
		if err := fn(c); err != nil {
			return err
		}
	}
	return nil
}

func newTestStore(t *testing.T) *sqlite.Repository {
	t.Helper()
	repo, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

// nextEvent waits briefly for an event of type want
func nextEvent(t *testing.T, ch <-chan Event, want EventType) Event {
	t.Helper()
	timeout := time.After(time.Second)
	for {
		select {
		case ev := <-ch:
			if ev.Type == want {
				return ev
			}
		case <-timeout:
			t.Fatalf("no %s event received", want)
			return Event{}
		}
	}
}
