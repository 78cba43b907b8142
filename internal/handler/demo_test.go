package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"region/centro", "cityos://region/centro"},
		{"/corridor/c-01/", "cityos://corridor/c-01"},
		{"cityos:/asset/sensor/s-101", "cityos://asset/sensor/s-101"},
		{"cityos://region/sul", "cityos://region/sul"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeRID(tt.in), tt.in)
	}
}

func TestDemoReadEndpoints(t *testing.T) {
	env := newTestEnv(t, nil, stubRenderer{})

	resp := env.do(t, http.MethodGet, "/api/demo/catalog", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	catalog := decode[map[string]any](t, resp)
	assert.Len(t, catalog["regions"], 4)

	resp = env.do(t, http.MethodGet, "/api/demo/state", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	state := decode[map[string]any](t, resp)
	assert.EqualValues(t, 3, state["tick"])
	assert.Equal(t, false, state["running"])

	resp = env.do(t, http.MethodGet, "/api/demo/kpis", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/demo/incidents", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDemoEvents(t *testing.T) {
	env := newTestEnv(t, nil, stubRenderer{})

	resp := env.do(t, http.MethodGet, "/api/demo/events?limit=2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.LessOrEqual(t, len(decode[[]map[string]any](t, resp)), 2)

	resp = env.do(t, http.MethodGet, "/api/demo/events?layers=trafego,submarino", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/demo/events?severity=Extrema", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/demo/events?severity=Todas&zone=todas", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDemoEntity(t *testing.T) {
	env := newTestEnv(t, nil, stubRenderer{})

	resp := env.do(t, http.MethodGet, "/api/demo/entities/region/centro", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	detail := decode[map[string]any](t, resp)
	entity := detail["entity"].(map[string]any)
	assert.Equal(t, "Centro", entity["label"])
	assert.Equal(t, "cityos://region/centro", entity["rid"])

	resp = env.do(t, http.MethodGet, "/api/demo/entities/region/atlantida", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDemoControls(t *testing.T) {
	env := newTestEnv(t, nil, stubRenderer{})

	resp := env.do(t, http.MethodPut, "/api/demo/controls", map[string]any{"intensity": 1000})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	before := env.demo.Controls()
	resp = env.do(t, http.MethodPut, "/api/demo/controls", map[string]any{"edge_enabled": !before.EdgeEnabled})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[map[string]any](t, resp)
	assert.Equal(t, !before.EdgeEnabled, got["edge_enabled"])
	assert.Equal(t, string(before.Scenario), got["scenario"])
}

func TestDemoTickAndReset(t *testing.T) {
	env := newTestEnv(t, nil, stubRenderer{})

	resp := env.do(t, http.MethodPost, "/api/demo/tick", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 4, decode[map[string]any](t, resp)["tick"])

	resp = env.do(t, http.MethodPost, "/api/demo/reset", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, env.demo.State().Tick)
}

func TestDemoInject(t *testing.T) {
	env := newTestEnv(t, nil, stubRenderer{})

	resp := env.do(t, http.MethodPost, "/api/demo/inject", map[string]any{
		"kind": "incident", "target_type": "region", "target_id": "norte", "severity": "Critica",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/demo/inject", map[string]any{
		"target_type": "region", "target_id": "atlantida",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/demo/inject", map[string]any{"target_type": "planet"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDemoPlaybookAndAudit(t *testing.T) {
	env := newTestEnv(t, nil, stubRenderer{})

	resp := env.do(t, http.MethodPost, "/api/demo/playbooks", map[string]string{"playbook_id": "pb-traffic"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/demo/playbooks", map[string]string{
		"playbook_id": "pb-traffic", "scope": "region:centro", "justification": "pico de fluxo",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	entry := decode[map[string]any](t, resp)
	assert.Equal(t, "pico de fluxo", entry["justification"])

	resp = env.do(t, http.MethodPost, "/api/demo/reset", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/demo/audit", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, "attachment; filename=audit.json", resp.Header.Get("Content-Disposition"))
	assert.Contains(t, readBody(t, resp), "pico de fluxo")

	resp = env.do(t, http.MethodGet, "/api/demo/audit?format=yaml", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/yaml", resp.Header.Get("Content-Type"))
	body := readBody(t, resp)
	assert.True(t, strings.Contains(body, "justification: pico de fluxo"), body)

	resp = env.do(t, http.MethodGet, "/api/demo/audit?format=csv", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDemoSourceHealth(t *testing.T) {
	env := newTestEnv(t, nil, stubRenderer{})

	resp := env.do(t, http.MethodPut, "/api/demo/sources/fonte-energy", map[string]string{"health": "offline"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "offline", decode[map[string]any](t, resp)["health"])

	resp = env.do(t, http.MethodPut, "/api/demo/sources/fonte-lunar", map[string]string{"health": "offline"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
