package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"cityos/internal/adapter"
	"cityos/internal/domain"
)

// Fetcher reaches the government APIs by source
type Fetcher interface {
	Fetch(ctx context.Context, source domain.Source, endpoint string, params domain.Params) (json.RawMessage, error)
}

// GovDataService proxies the government open-data APIs
type GovDataService struct {
	fetcher Fetcher
	now     func() time.Time
	logger  *zap.Logger
}

// NewGovDataService creates a government data service
func NewGovDataService(fetcher Fetcher, logger *zap.Logger) *GovDataService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GovDataService{fetcher: fetcher, now: time.Now, logger: logger}
}

// Fetch passes endpoint and params through to source
func (s *GovDataService) Fetch(ctx context.Context, source, endpoint string, params domain.Params) (json.RawMessage, error) {
	if source == "" || endpoint == "" {
		return nil, fmt.Errorf("%w: Source and endpoint parameters are required", domain.ErrInvalid)
	}
	src := domain.Source(source)
	if !src.IsValid() {
		return nil, fmt.Errorf("%w: Invalid source. Must be one of: camara, senado, transparencia", domain.ErrInvalid)
	}
	return s.fetcher.Fetch(ctx, src, endpoint, params)
}

// CamaraDespesas returns the expense records of deputy id for year ano.
// An empty ano means the current year.
func (s *GovDataService) CamaraDespesas(ctx context.Context, id, ano string) (json.RawMessage, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: missing id", domain.ErrInvalid)
	}
	if ano == "" {
		ano = strconv.Itoa(s.now().Year())
	}
	body, err := s.fetcher.Fetch(ctx, domain.SourceCamara, "deputados/"+id+"/despesas", domain.Params{
		"ano":   ano,
		"itens": "100",
	})
	if err != nil {
		return nil, err
	}
	return dados(body), nil
}

// CamaraProjetos returns the latest proposições of type siglaTipo (PL when
// empty) presented in year ano (current year when empty).
func (s *GovDataService) CamaraProjetos(ctx context.Context, ano, siglaTipo string) (json.RawMessage, error) {
	if ano == "" {
		ano = strconv.Itoa(s.now().Year())
	}
	if siglaTipo == "" {
		siglaTipo = "PL"
	}
	body, err := s.fetcher.Fetch(ctx, domain.SourceCamara, "proposicoes", domain.Params{
		"ano":        ano,
		"siglaTipo":  siglaTipo,
		"ordenarPor": "dataApresentacao",
		"ordem":      "DESC",
		"itens":      "50",
	})
	if err != nil {
		return nil, err
	}
	return dados(body), nil
}

// dados extracts the "dados" member of a Câmara response, or null
func dados(body json.RawMessage) json.RawMessage {
	result := gjson.GetBytes(body, "dados")
	if !result.Exists() {
		return json.RawMessage("null")
	}
	return json.RawMessage(result.Raw)
}

// TransparenciaCatalogue is returned when no endpoint is requested
type TransparenciaCatalogue struct {
	Success            bool              `json:"success"`
	Message            string            `json:"message"`
	AvailableEndpoints map[string]string `json:"availableEndpoints"`
}

// TransparenciaResult wraps a Portal da Transparência response with the
// resolved request
type TransparenciaResult struct {
	Success  bool            `json:"success"`
	Endpoint string          `json:"endpoint"`
	Params   domain.Params   `json:"params"`
	Data     json.RawMessage `json:"data"`
}

// TransparenciaError carries the resolved request alongside the failure
type TransparenciaError struct {
	Endpoint string
	Params   domain.Params
	Err      error
}

func (e *TransparenciaError) Error() string { return e.Err.Error() }
func (e *TransparenciaError) Unwrap() error { return e.Err }

// Catalogue lists the named Portal da Transparência endpoints
func (s *GovDataService) Catalogue() TransparenciaCatalogue {
	return TransparenciaCatalogue{
		Success:            true,
		Message:            "Especifique um endpoint do Portal da Transparência",
		AvailableEndpoints: adapter.EndpointCatalogue(),
	}
}

// Transparencia resolves "$KEY" endpoints, fills the parameters the portal
// requires for travel and procurement queries, and fetches the result.
func (s *GovDataService) Transparencia(ctx context.Context, endpoint string, params domain.Params) (*TransparenciaResult, error) {
	resolved, ok := adapter.ResolveEndpointKey(endpoint)
	if ok {
		s.logger.Debug("resolved endpoint key", zap.String("key", endpoint), zap.String("endpoint", resolved))
	}

	params = params.Clone()
	now := s.now()
	if strings.Contains(resolved, "viagens") && (params["dataIdaDe"] == "" || params["dataIdaAte"] == "") {
		if params["dataIdaDe"] == "" {
			params["dataIdaDe"] = formatBRDate(time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()))
		}
		if params["dataIdaAte"] == "" {
			params["dataIdaAte"] = formatBRDate(now)
		}
		if params["pagina"] == "" {
			params["pagina"] = "1"
		}
	}
	if strings.Contains(resolved, "licitacoes") && params["pagina"] == "" {
		params["pagina"] = "1"
	}

	body, err := s.fetcher.Fetch(ctx, domain.SourceTransparencia, resolved, params)
	if err != nil {
		return nil, &TransparenciaError{Endpoint: resolved, Params: params, Err: err}
	}
	return &TransparenciaResult{Success: true, Endpoint: resolved, Params: params, Data: body}, nil
}

// formatBRDate renders t as DD/MM/YYYY
func formatBRDate(t time.Time) string {
	return t.Format("02/01/2006")
}
