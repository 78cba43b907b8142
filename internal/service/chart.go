package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"cityos/internal/domain"
)

// chartLimit is the most bars a rendered chart shows
const chartLimit = 10

// ChartFallbackMessage is shown when rendering fails
const ChartFallbackMessage = "Estamos com dificuldades técnicas para gerar visualizações. Nossa equipe está trabalhando para resolver o problema."

var chartPalette = []string{
	"rgba(65, 105, 225, 0.8)",
	"rgba(30, 144, 255, 0.8)",
	"rgba(0, 191, 255, 0.8)",
	"rgba(135, 206, 235, 0.8)",
	"rgba(135, 206, 250, 0.8)",
	"rgba(70, 130, 180, 0.8)",
	"rgba(100, 149, 237, 0.8)",
	"rgba(123, 104, 238, 0.8)",
	"rgba(106, 90, 205, 0.8)",
	"rgba(72, 61, 139, 0.8)",
}

// ChartRenderer turns a Chart.js configuration into a PNG
type ChartRenderer interface {
	Render(ctx context.Context, chart any) ([]byte, error)
}

// ChartRequest asks for a rendered chart
type ChartRequest struct {
	Data      []domain.Row `json:"data"`
	ChartType string       `json:"chartType"`
	Query     string       `json:"query"`
}

// ChartService renders ranked chart images
type ChartService struct {
	renderer ChartRenderer
	printer  *message.Printer
	logger   *zap.Logger
}

// NewChartService creates a chart service
func NewChartService(renderer ChartRenderer, logger *zap.Logger) *ChartService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChartService{
		renderer: renderer,
		printer:  message.NewPrinter(language.BrazilianPortuguese),
		logger:   logger,
	}
}

// Generate renders req and returns it as a PNG data URL
func (s *ChartService) Generate(ctx context.Context, req ChartRequest) (string, error) {
	if len(req.Data) == 0 || req.ChartType == "" {
		return "", fmt.Errorf("%w: Missing required parameters", domain.ErrInvalid)
	}
	s.logger.Debug("rendering chart", zap.String("type", req.ChartType), zap.Int("points", len(req.Data)))

	image, err := s.renderer.Render(ctx, s.Config(req))
	if err != nil {
		s.logger.Error("chart rendering failed", zap.Error(err))
		return "", fmt.Errorf("Failed to generate chart with QuickChart API: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(image), nil
}

// Config builds the Chart.js configuration for req: the ten largest points,
// labelled with their BRL value.
func (s *ChartService) Config(req ChartRequest) map[string]any {
	points := make([]domain.Row, len(req.Data))
	copy(points, req.Data)
	sort.SliceStable(points, func(i, j int) bool {
		return pointValue(points[i]) > pointValue(points[j])
	})
	if len(points) > chartLimit {
		points = points[:chartLimit]
	}

	labels := make([]string, len(points))
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = pointValue(p)
		labels[i] = fmt.Sprintf("%s (%s)", pointLabel(p), s.FormatBRL(values[i]))
	}

	borders := make([]string, len(chartPalette))
	for i, c := range chartPalette {
		borders[i] = strings.Replace(c, "0.8", "1", 1)
	}

	chartType := req.ChartType
	indexAxis := "x"
	yTitle := ""
	if chartType == "bar" {
		chartType = "horizontalBar"
		indexAxis = "y"
		yTitle = "Deputado"
	}

	return map[string]any{
		"type": chartType,
		"data": map[string]any{
			"labels": labels,
			"datasets": []map[string]any{{
				"label":           "Valores",
				"data":            values,
				"backgroundColor": chartPalette,
				"borderColor":     borders,
				"borderWidth":     1,
			}},
		},
		"options": map[string]any{
			"responsive": true,
			"indexAxis":  indexAxis,
			"plugins": map[string]any{
				"title": map[string]any{
					"display": true,
					"text":    req.Query,
					"font":    map[string]any{"size": 18, "weight": "bold"},
					"padding": map[string]any{"top": 10, "bottom": 20},
				},
				"legend": map[string]any{"display": false},
			},
			"scales": map[string]any{
				"x": map[string]any{"title": map[string]any{"display": true, "text": "Valor (R$)"}},
				"y": map[string]any{"title": map[string]any{"display": true, "text": yTitle}},
			},
		},
	}
}

// FormatBRL renders v as whole Brazilian reais, e.g. "R$ 1.234.567"
func (s *ChartService) FormatBRL(v float64) string {
	return s.printer.Sprintf("R$ %d", int64(math.Round(v)))
}

// pointValue is the point's total, else its qtd, else zero
func pointValue(p domain.Row) float64 {
	if v := number(p["total"]); v != 0 {
		return v
	}
	return number(p["qtd"])
}

// pointLabel is the point's nome, else its type, else "Sem nome"
func pointLabel(p domain.Row) string {
	for _, key := range []string{"nome", "type"} {
		if s, ok := p[key].(string); ok && s != "" {
			return s
		}
	}
	return "Sem nome"
}

func number(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
