package service

import (
	"fmt"
	"math"
	"time"

	"cityos/internal/domain"
)

// UrbanWindow is the time range of the landing charts
type UrbanWindow string

const (
	Window7d  UrbanWindow = "7d"
	Window30d UrbanWindow = "30d"
	Window90d UrbanWindow = "90d"
)

var windowDays = map[UrbanWindow]int{
	Window7d:  7,
	Window30d: 30,
	Window90d: 90,
}

// UrbanLayers are the corridors plotted on the flux chart
var UrbanLayers = []string{"A", "B", "C"}

var layerOffsets = map[string]float64{
	"A": 1,
	"B": 0.82,
	"C": 1.2,
}

// IncidentCategories are the buckets of the incidents chart
var IncidentCategories = []string{"Trânsito", "Iluminação", "Resíduos", "Segurança"}

var seriesStart = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

const (
	energyMin = 94
	energyMax = 103
)

// ParseWindow validates w, defaulting to 30d when empty
func ParseWindow(w string) (UrbanWindow, error) {
	if w == "" {
		return Window30d, nil
	}
	if _, ok := windowDays[UrbanWindow(w)]; !ok {
		return "", fmt.Errorf("%w: window must be one of 7d, 30d, 90d", domain.ErrInvalid)
	}
	return UrbanWindow(w), nil
}

// ParseUrbanLayers validates a list of corridor letters. An empty list
// selects every layer.
func ParseUrbanLayers(layers []string) ([]string, error) {
	if len(layers) == 0 {
		return append([]string(nil), UrbanLayers...), nil
	}
	for _, l := range layers {
		if _, ok := layerOffsets[l]; !ok {
			return nil, fmt.Errorf("%w: unknown layer %q", domain.ErrInvalid, l)
		}
	}
	return layers, nil
}

// TimePoint is one sample of a daily series
type TimePoint struct {
	Date  time.Time `json:"date"`
	Value int       `json:"value"`
	Min   int       `json:"min,omitempty"`
	Max   int       `json:"max,omitempty"`
}

// LayerSeries is the flux timeline of one corridor
type LayerSeries struct {
	Layer  string      `json:"layer"`
	Label  string      `json:"label"`
	Points []TimePoint `json:"points"`
}

// CategoryCount is one bar of the incidents chart
type CategoryCount struct {
	Category string `json:"category"`
	Value    int    `json:"value"`
}

// Timeline returns the daily flux of each layer. Values drop after the
// pivot day to show the effect of optimization.
func Timeline(w UrbanWindow, layers []string) []LayerSeries {
	size := windowDays[w]
	pivot := int(math.Floor(float64(size) * 0.45))

	out := make([]LayerSeries, 0, len(layers))
	for _, layer := range layers {
		points := make([]TimePoint, size)
		for i := range points {
			x := float64(i)
			v := 124 + math.Sin(x/2.8)*12
			if i <= pivot {
				v = 150 + math.Sin(x/2.4)*16
			}
			points[i] = TimePoint{
				Date:  seriesStart.AddDate(0, 0, i),
				Value: int(math.Round(v * layerOffsets[layer])),
			}
		}
		out = append(out, LayerSeries{Layer: layer, Label: "Corredor " + layer, Points: points})
	}
	return out
}

// IncidentsByCategory scales incident counts by window length and the
// weight of the selected layers
func IncidentsByCategory(w UrbanWindow, layers []string) []CategoryCount {
	volume := float64(windowDays[w]) / 7
	var weight float64
	for _, l := range layers {
		weight += layerOffsets[l]
	}
	weight /= 3

	out := make([]CategoryCount, len(IncidentCategories))
	for i, c := range IncidentCategories {
		out[i] = CategoryCount{
			Category: c,
			Value:    int(math.Round(float64(44+i*13) * volume * weight)),
		}
	}
	return out
}

// EnergyDemand returns daily demand inside its expected band
func EnergyDemand(w UrbanWindow) []TimePoint {
	size := windowDays[w]
	out := make([]TimePoint, size)
	for i := range out {
		demand := 98 + math.Cos(float64(i)/4)*5
		if i%10 == 0 {
			demand += 4
		}
		out[i] = TimePoint{
			Date:  seriesStart.AddDate(0, 0, i),
			Value: int(math.Round(demand)),
			Min:   energyMin,
			Max:   energyMax,
		}
	}
	return out
}
