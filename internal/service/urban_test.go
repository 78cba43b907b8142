package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cityos/internal/domain"
)

func TestParseWindow(t *testing.T) {
	w, err := ParseWindow("")
	require.NoError(t, err)
	assert.Equal(t, Window30d, w)

	w, err = ParseWindow("90d")
	require.NoError(t, err)
	assert.Equal(t, Window90d, w)

	_, err = ParseWindow("1y")
	assert.ErrorIs(t, err, domain.ErrInvalid)
}

func TestParseUrbanLayers(t *testing.T) {
	layers, err := ParseUrbanLayers(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, layers)

	_, err = ParseUrbanLayers([]string{"A", "D"})
	assert.ErrorIs(t, err, domain.ErrInvalid)
}

func TestTimeline(t *testing.T) {
	series := Timeline(Window7d, []string{"A", "C"})
	require.Len(t, series, 2)
	assert.Equal(t, "Corredor A", series[0].Label)

	a := series[0].Points
	require.Len(t, a, 7)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), a[0].Date)
	assert.Equal(t, time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC), a[6].Date)

	// pivot is floor(7*0.45) = 3
	assert.Equal(t, 150, a[0].Value)
	assert.Equal(t, 156, a[1].Value) // 150 + sin(1/2.4)*16
	assert.Equal(t, 136, a[4].Value) // 124 + sin(4/2.8)*12

	c := series[1].Points
	assert.Equal(t, 180, c[0].Value) // 150 * 1.2
}

func TestIncidentsByCategory(t *testing.T) {
	counts := IncidentsByCategory(Window7d, []string{"A", "B", "C"})
	require.Len(t, counts, 4)
	assert.Equal(t, CategoryCount{Category: "Trânsito", Value: 44}, counts[0])
	assert.Equal(t, CategoryCount{Category: "Segurança", Value: 84}, counts[3])

	counts = IncidentsByCategory(Window30d, []string{"A"})
	// 44 * 30/7 * 1/3
	assert.Equal(t, 63, counts[0].Value)

	counts = IncidentsByCategory(Window7d, nil)
	assert.Equal(t, 0, counts[0].Value)
}

func TestEnergyDemand(t *testing.T) {
	points := EnergyDemand(Window30d)
	require.Len(t, points, 30)
	assert.Equal(t, 107, points[0].Value) // 98 + 5 + 4
	assert.Equal(t, 94, points[0].Min)
	assert.Equal(t, 103, points[0].Max)
	assert.Equal(t, 103, points[1].Value) // 98 + cos(0.25)*5
	assert.Equal(t, time.Date(2026, 1, 30, 0, 0, 0, 0, time.UTC), points[29].Date)
}
