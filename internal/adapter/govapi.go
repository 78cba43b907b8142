package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"cityos/internal/cache"
	"cityos/internal/domain"
	"cityos/internal/telemetry"
)

const (
	// maxBodyBytes caps how much of an upstream body is read
	maxBodyBytes = 16 << 20
	// maxLoggedBody caps error bodies written to the log
	maxLoggedBody = 2048

	dataPrefix = "api-de-dados/"
)

// Client talks to one government open-data API
type Client struct {
	source      domain.Source
	baseURL     string
	headers     map[string]string
	probePath   string
	probeParams domain.Params
	http        *http.Client
	cache       cache.Cache
	ttl         time.Duration
	logger      *zap.Logger
	tracer      trace.Tracer
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client used for upstream calls
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.http = &http.Client{Timeout: d} }
}

// WithCache stores response bodies in cc for ttl
func WithCache(cc cache.Cache, ttl time.Duration) ClientOption {
	return func(c *Client) {
		if cc != nil {
			c.cache = cc
		}
		c.ttl = ttl
	}
}

// WithLogger sets the client logger
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// WithTracer overrides the global tracer
func WithTracer(tracer trace.Tracer) ClientOption {
	return func(c *Client) { c.tracer = tracer }
}

// WithHeader adds a header to every request
func WithHeader(key, value string) ClientOption {
	return func(c *Client) { c.headers[key] = value }
}

// WithProbe sets the endpoint used for availability checks
func WithProbe(endpoint string, params domain.Params) ClientOption {
	return func(c *Client) {
		c.probePath = endpoint
		c.probeParams = params
	}
}

// NewClient creates a client for source rooted at baseURL
func NewClient(source domain.Source, baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		source:  source,
		baseURL: strings.TrimRight(baseURL, "/"),
		headers: map[string]string{"Accept": "application/json"},
		http:    &http.Client{Timeout: 15 * time.Second},
		cache:   cache.Noop{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	c.logger = c.logger.With(zap.String("source", string(source)))
	if c.tracer == nil {
		c.tracer = telemetry.Tracer()
	}
	return c
}

// NewCamara creates a Câmara dos Deputados client
func NewCamara(baseURL string, opts ...ClientOption) *Client {
	opts = append([]ClientOption{WithProbe("deputados", domain.Params{"itens": "1"})}, opts...)
	return NewClient(domain.SourceCamara, baseURL, opts...)
}

// NewSenado creates a Senado Federal client
func NewSenado(baseURL string, opts ...ClientOption) *Client {
	opts = append([]ClientOption{WithProbe("senador/lista/atual", nil)}, opts...)
	return NewClient(domain.SourceSenado, baseURL, opts...)
}

// NewTransparencia creates a Portal da Transparência client that
// authenticates with apiKey
func NewTransparencia(baseURL, apiKey string, opts ...ClientOption) *Client {
	opts = append([]ClientOption{
		WithHeader("chave-api-dados", apiKey),
		WithProbe(TransparenciaEndpoint("ORGAOS_SIAFI"), domain.Params{"pagina": "1"}),
	}, opts...)
	return NewClient(domain.SourceTransparencia, baseURL, opts...)
}

// Source implements Adapter
func (c *Client) Source() domain.Source { return c.source }

// Fetch implements Adapter
func (c *Client) Fetch(ctx context.Context, endpoint string, params domain.Params) (json.RawMessage, error) {
	path, query := c.resolve(endpoint, params)
	return c.get(ctx, path, query, true)
}

// Probe implements Adapter
func (c *Client) Probe(ctx context.Context) error {
	if c.probePath == "" {
		return nil
	}
	path, query := c.resolve(c.probePath, c.probeParams)
	_, err := c.get(ctx, path, query, false)
	return err
}

func (c *Client) resolve(endpoint string, params domain.Params) (string, domain.Params) {
	endpoint = strings.TrimPrefix(endpoint, "/")
	if c.source != domain.SourceTransparencia {
		return endpoint, params
	}
	path, query, missing := ResolvePathParams(endpoint, params)
	for _, name := range missing {
		c.logger.Warn("missing path parameter", zap.String("param", name), zap.String("endpoint", endpoint))
	}
	if !strings.HasPrefix(path, dataPrefix) {
		path = dataPrefix + path
	}
	return path, query
}

// URL returns the full request URL for path and params. Query keys are
// sorted so equal requests share a cache key.
func (c *Client) URL(path string, params domain.Params) string {
	u := c.baseURL + "/" + path
	if len(params) == 0 {
		return u
	}
	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}
	return u + "?" + values.Encode()
}

func (c *Client) get(ctx context.Context, path string, params domain.Params, useCache bool) (json.RawMessage, error) {
	target := c.URL(path, params)

	ctx, span := c.tracer.Start(ctx, "govapi.fetch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("gov.source", string(c.source)),
			attribute.String("gov.endpoint", path),
		))
	defer span.End()

	if useCache {
		if body, ok := c.cached(ctx, target); ok {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return body, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	c.logger.Debug("fetching", zap.String("url", target))
	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		upstreamErr := &UpstreamError{
			Source:     c.source,
			StatusCode: resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
		}
		c.logger.Error("upstream error response",
			zap.Int("status", resp.StatusCode),
			zap.String("endpoint", path),
			zap.String("body", truncate(string(body), maxLoggedBody)))
		span.SetStatus(codes.Error, upstreamErr.Error())
		return nil, upstreamErr
	}

	if !json.Valid(body) {
		err := fmt.Errorf("decode %s: response is not JSON", path)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if useCache {
		if err := c.cache.Set(ctx, target, body, c.ttl); err != nil {
			c.logger.Warn("cache write failed", zap.Error(err))
		}
	}
	return json.RawMessage(body), nil
}

func (c *Client) cached(ctx context.Context, key string) (json.RawMessage, bool) {
	body, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache read failed", zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	return json.RawMessage(body), true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var pathParamPattern = regexp.MustCompile(`\{([^}]+)\}`)

// ResolvePathParams fills {name} placeholders in endpoint from params. Used
// parameters are removed from the returned query. Placeholders without a
// non-empty value are left in place and reported in missing.
func ResolvePathParams(endpoint string, params domain.Params) (path string, query domain.Params, missing []string) {
	query = params.Clone()
	path = pathParamPattern.ReplaceAllStringFunc(endpoint, func(token string) string {
		name := token[1 : len(token)-1]
		value := params[name]
		if value == "" {
			missing = append(missing, name)
			return token
		}
		delete(query, name)
		return url.PathEscape(value)
	})
	return path, query, missing
}
