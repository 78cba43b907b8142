package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"cityos/internal/telemetry"
)

// QuickChart renders Chart.js configurations to PNG through a QuickChart server
type QuickChart struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
	tracer  trace.Tracer
}

// NewQuickChart creates a renderer for the server at baseURL
func NewQuickChart(baseURL string, timeout time.Duration, logger *zap.Logger) *QuickChart {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuickChart{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
		tracer:  telemetry.Tracer(),
	}
}

// Render fetches an 800x400 PNG with a white background for chart
func (q *QuickChart) Render(ctx context.Context, chart any) ([]byte, error) {
	ctx, span := q.tracer.Start(ctx, "quickchart.render", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	config, err := json.Marshal(chart)
	if err != nil {
		return nil, fmt.Errorf("encode chart: %w", err)
	}

	values := url.Values{}
	values.Set("c", string(config))
	values.Set("width", "800")
	values.Set("height", "400")
	values.Set("format", "png")
	values.Set("backgroundColor", "white")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, q.baseURL+"/chart?"+values.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := q.http.Do(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("quickchart: %w", err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxLoggedBody))
		q.logger.Error("quickchart error response",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)))
		err := fmt.Errorf("QuickChart API error: %s", http.StatusText(resp.StatusCode))
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	image, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	span.SetAttributes(attribute.Int("image.bytes", len(image)))
	return image, nil
}
