package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUrbanTimeline(t *testing.T) {
	env := newTestEnv(t, nil, stubRenderer{})

	resp := env.do(t, http.MethodGet, "/api/urban/timeline?window=7d", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	series := decode[[]map[string]any](t, resp)
	require.Len(t, series, 3)
	assert.Len(t, series[0]["points"], 7)

	resp = env.do(t, http.MethodGet, "/api/urban/timeline?layers=B", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	series = decode[[]map[string]any](t, resp)
	require.Len(t, series, 1)
	assert.Len(t, series[0]["points"], 30)

	resp = env.do(t, http.MethodGet, "/api/urban/timeline?window=1y", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/urban/timeline?layers=Z", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUrbanIncidentsAndEnergy(t *testing.T) {
	env := newTestEnv(t, nil, stubRenderer{})

	resp := env.do(t, http.MethodGet, "/api/urban/incidents?window=7d", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	counts := decode[[]map[string]any](t, resp)
	require.Len(t, counts, 4)
	assert.Equal(t, "Trânsito", counts[0]["category"])
	assert.EqualValues(t, 44, counts[0]["value"])

	resp = env.do(t, http.MethodGet, "/api/urban/energy?window=90d", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]map[string]any](t, resp), 90)
}
