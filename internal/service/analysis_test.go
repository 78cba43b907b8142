package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cityos/internal/adapter"
	"cityos/internal/config"
	"cityos/internal/domain"
	"cityos/internal/repository"
)

const deputiesBody = `{"dados":[
	{"id":1,"nome":"Ana","siglaPartido":"PT","siglaUf":"AM"},
	{"id":2,"nome":"Bruno","siglaPartido":"PL","siglaUf":"SP"},
	{"id":3,"nome":"Caio","siglaPartido":"MDB","siglaUf":"RJ"}
]}`

func newAnalysis(f Fetcher, llm adapter.Completer, store repository.AnalysisStore, bus *EventBus, cfg config.AnalysisConfig) *AnalysisService {
	s := NewAnalysisService(f, llm, store, bus, cfg, nil)
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestAnalyzeRequiresQuery(t *testing.T) {
	s := newAnalysis(newFakeFetcher(), nil, nil, nil, config.AnalysisConfig{})
	_, err := s.Analyze(context.Background(), "   ")
	assert.ErrorIs(t, err, domain.ErrInvalid)
}

func TestAnalyzeDeputyExpenses(t *testing.T) {
	f := newFakeFetcher().
		on(domain.SourceCamara, "deputados", deputiesBody).
		on(domain.SourceCamara, "deputados/1/despesas", `{"dados":[{"valorLiquido":1500},{"valorLiquido":2000}]}`).
		on(domain.SourceCamara, "deputados/2/despesas", `{"dados":[{"valorLiquido":5250}]}`)
	store := newTestStore(t)
	bus := NewEventBus()
	events := make(chan Event, 4)
	bus.Subscribe(events)

	s := newAnalysis(f, nil, store, bus, config.AnalysisConfig{Deputies: 2, Concurrency: 2})
	res, err := s.Analyze(context.Background(), "Quais deputados mais gastaram com a cota parlamentar?")
	require.NoError(t, err)

	assert.Equal(t, domain.SourceCamara, res.Source)
	assert.Equal(t, "bar", res.ChartData.Type)
	assert.Equal(t, "Deputados com maiores gastos da cota parlamentar em 2023 (em R$ mil)", res.ChartData.Title)
	assert.Equal(t, "nome", res.ChartData.XKey)
	assert.Equal(t, []string{"valorLiquido"}, res.ChartData.YKeys)
	assert.Equal(t, []domain.Row{
		{"nome": "Bruno (PL/SP)", "valorLiquido": 5.25},
		{"nome": "Ana (PT/AM)", "valorLiquido": 3.5},
	}, res.ChartData.Data)

	assert.Empty(t, f.callsTo("deputados/3/despesas"))
	calls := f.callsTo("deputados/1/despesas")
	require.Len(t, calls, 1)
	assert.Equal(t, "2023", calls[0].Params["ano"])

	ev := nextEvent(t, events, EventAnalysisDone)
	assert.Equal(t, KindDeputadosDespesas, ev.Payload.(map[string]any)["kind"])

	history, err := s.History(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, KindDeputadosDespesas, history[0].Kind)
	assert.Equal(t, res.ChartData.Title, history[0].Chart.Title)
}

func TestAnalyzeDeputyExpensesSkipsFailures(t *testing.T) {
	f := newFakeFetcher().
		on(domain.SourceCamara, "deputados", deputiesBody).
		on(domain.SourceCamara, "deputados/1/despesas", `{"dados":[{"valorLiquido":1000}]}`).
		fail(domain.SourceCamara, "deputados/2/despesas", errors.New("timeout")).
		on(domain.SourceCamara, "deputados/3/despesas", `{"dados":[]}`)

	s := newAnalysis(f, nil, nil, nil, config.AnalysisConfig{})
	res, err := s.Analyze(context.Background(), "gastos de cada deputado")
	require.NoError(t, err)
	assert.Equal(t, []domain.Row{
		{"nome": "Ana (PT/AM)", "valorLiquido": 1.0},
		{"nome": "Caio (MDB/RJ)", "valorLiquido": 0.0},
	}, res.ChartData.Data)
}

func TestAnalyzeDeputyListFailure(t *testing.T) {
	f := newFakeFetcher().fail(domain.SourceCamara, "deputados", errors.New("boom"))
	s := newAnalysis(f, nil, nil, nil, config.AnalysisConfig{})

	_, err := s.Analyze(context.Background(), "cota parlamentar")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Falha ao processar dados de despesas de deputados")
}

func TestAnalyzeBills(t *testing.T) {
	f := newFakeFetcher().on(domain.SourceCamara, "proposicoes", `{"dados":[
		{"statusProposicao":{"descricaoSituacao":"Arquivada"}},
		{"statusProposicao":{"descricaoSituacao":"Aguardando Parecer"}},
		{"statusProposicao":{"descricaoSituacao":"Aguardando Parecer"}},
		{}
	]}`)
	s := newAnalysis(f, nil, nil, nil, config.AnalysisConfig{})

	res, err := s.Analyze(context.Background(), "Quantos projetos de lei foram aprovados?")
	require.NoError(t, err)
	assert.Equal(t, "Projetos de Lei por situação em 2025", res.ChartData.Title)
	assert.Equal(t, "Dados Abertos da Câmara dos Deputados - 2025", res.ChartData.Source)
	assert.Equal(t, []domain.Row{
		{"situacao": "Aguardando Parecer", "quantidade": 2},
		{"situacao": "Arquivada", "quantidade": 1},
		{"situacao": "Desconhecida", "quantidade": 1},
	}, res.ChartData.Data)

	calls := f.callsTo("proposicoes")
	require.Len(t, calls, 1)
	assert.Equal(t, "2025", calls[0].Params["ano"])
	assert.Equal(t, "PL", calls[0].Params["siglaTipo"])
}

func TestAnalyzeBillsFallbacks(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*fakeFetcher)
		want  []int
	}{
		{"upstream failure", func(f *fakeFetcher) { f.fail(domain.SourceCamara, "proposicoes", errors.New("down")) }, []int{12, 87, 45}},
		{"unexpected payload", func(f *fakeFetcher) { f.on(domain.SourceCamara, "proposicoes", `{"dados":{"erro":"x"}}`) }, []int{15, 82, 37}},
		{"no bills", func(f *fakeFetcher) { f.on(domain.SourceCamara, "proposicoes", `{"dados":[]}`) }, []int{12, 87, 45}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeFetcher()
			tt.setup(f)
			s := newAnalysis(f, nil, nil, nil, config.AnalysisConfig{})

			res, err := s.Analyze(context.Background(), "PLs deste ano")
			require.NoError(t, err)
			require.Len(t, res.ChartData.Data, 3)
			for i, want := range tt.want {
				assert.Equal(t, want, res.ChartData.Data[i]["quantidade"])
			}
		})
	}
}

func TestAnalyzeHealthSpending(t *testing.T) {
	f := newFakeFetcher()
	s := newAnalysis(f, nil, nil, nil, config.AnalysisConfig{})

	res, err := s.Analyze(context.Background(), "gastos com saúde")
	require.NoError(t, err)
	assert.Empty(t, f.calls)
	assert.Equal(t, domain.SourceTransparencia, res.Source)
	assert.Equal(t, "Gastos com Saúde 2022-2025 (em R$ bilhões)", res.ChartData.Title)
	require.Len(t, res.ChartData.Data, 4)
	assert.Equal(t, domain.Row{"ano": 2025, "valor": 213.8}, res.ChartData.Data[3])
}

func TestAnalyzeGenericWithoutLLM(t *testing.T) {
	f := newFakeFetcher().on(domain.SourceTransparencia, "api-de-dados/licitacoes",
		`[{"modalidade":"Pregão"},{"modalidade":"Convite"},{"modalidade":"Pregão"}]`)
	s := newAnalysis(f, nil, nil, nil, config.AnalysisConfig{})

	res, err := s.Analyze(context.Background(), "licitações recentes")
	require.NoError(t, err)
	assert.Equal(t, "pie", res.ChartData.Type)
	assert.Equal(t, "Licitações por modalidade", res.ChartData.Title)
	assert.Equal(t, []domain.Row{
		{"modalidade": "Pregão", "quantidade": 2},
		{"modalidade": "Convite", "quantidade": 1},
	}, res.ChartData.Data)
}

func TestAnalyzeDefaultPlanAndFallback(t *testing.T) {
	f := newFakeFetcher().on(domain.SourceCamara, "deputados", `{"dados":[{"nome":"A"},{"nome":"B"},{"nome":"A"}]}`)
	s := newAnalysis(f, nil, nil, nil, config.AnalysisConfig{})

	res, err := s.Analyze(context.Background(), "qual o orçamento dos senadores")
	require.NoError(t, err)
	assert.Equal(t, "Análise de dados governamentais", res.ChartData.Title)
	assert.Equal(t, []domain.Row{{"nome": "A", "valor": 2}, {"nome": "B", "valor": 1}}, res.ChartData.Data)

	f = newFakeFetcher().on(domain.SourceCamara, "deputados", `{"dados":[]}`)
	s = newAnalysis(f, nil, nil, nil, config.AnalysisConfig{})
	res, err = s.Analyze(context.Background(), "qual o orçamento dos senadores")
	require.NoError(t, err)
	require.Len(t, res.ChartData.Data, 3)
	assert.Equal(t, "Categoria A", res.ChartData.Data[0]["categoria"])
}

func TestAnalyzeGenericWithLLM(t *testing.T) {
	f := newFakeFetcher().on(domain.SourceSenado, "senador/lista/atual", `{"senadores":[1,2,3]}`)
	llm := &fakeLLM{answers: []string{
		"```json\n" + `{"source":"senado","endpoint":"senador/lista/atual","params":{},
			"visualization":{"type":"pie","title":"Senadores por partido","xKey":"partido","yKeys":["total"]},
			"dataTransformation":"contar por partido"}` + "\n```",
		`Aqui está: {"data":[{"partido":"PT","total":3}]}`,
	}}
	s := newAnalysis(f, llm, nil, nil, config.AnalysisConfig{})

	res, err := s.Analyze(context.Background(), "qual o orçamento dos senadores")
	require.NoError(t, err)
	assert.Equal(t, domain.SourceSenado, res.Source)
	assert.Equal(t, "pie", res.ChartData.Type)
	assert.Equal(t, "Senadores por partido", res.ChartData.Title)
	assert.Equal(t, domain.SourceSenado.Caption(), res.ChartData.Source)
	assert.Equal(t, []domain.Row{{"partido": "PT", "total": float64(3)}}, res.ChartData.Data)

	require.Len(t, llm.requests, 2)
	assert.Equal(t, planPrompt, llm.requests[0].System)
	assert.Equal(t, "qual o orçamento dos senadores", llm.requests[0].Messages[0].Content)
	assert.Equal(t, formatPrompt, llm.requests[1].System)
	assert.Contains(t, llm.requests[1].Messages[0].Content, `{"senadores":[1,2,3]}`)
	assert.Contains(t, llm.requests[1].Messages[0].Content, "contar por partido")
}

func TestAnalyzePlanCompletionFailure(t *testing.T) {
	llm := &fakeLLM{err: errors.New("quota exceeded")}
	s := newAnalysis(newFakeFetcher(), llm, nil, nil, config.AnalysisConfig{})

	_, err := s.Analyze(context.Background(), "qual o orçamento dos senadores")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Falha ao analisar a consulta com IA")
}

func TestAnalyzeUnparseablePlanUsesDefault(t *testing.T) {
	f := newFakeFetcher().on(domain.SourceCamara, "deputados", `{"dados":[{"nome":"A"}]}`)
	llm := &fakeLLM{answers: []string{"não sei", `{"data":[{"nome":"A","valor":7}]}`}}
	s := newAnalysis(f, llm, nil, nil, config.AnalysisConfig{})

	res, err := s.Analyze(context.Background(), "qual o orçamento dos senadores")
	require.NoError(t, err)
	assert.Equal(t, domain.SourceCamara, res.Source)
	assert.Equal(t, []domain.Row{{"nome": "A", "valor": float64(7)}}, res.ChartData.Data)
}

func TestSpecialKind(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"deputados que mais gastam", KindDeputadosDespesas},
		{"uso da cota parlamentar", KindDeputadosDespesas},
		{"projetos de lei de 2024", KindProjetosLei},
		{"quantos PLs foram votados", KindProjetosLei},
		{"aplicação de saúde", KindGeneric},
		{"gasto com saúde", KindGastosSaude},
		{"viagens a serviço", KindGeneric},
		{"complemento salarial", KindGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, specialKind(tt.query))
		})
	}
}

func TestFormatRowsSumsNumericValues(t *testing.T) {
	body := []byte(`{"dados":[
		{"orgao":"MEC","valorTotal":10.5},
		{"orgao":"MS","valorTotal":30},
		{"orgao":"MEC","valorTotal":4.5},
		{"valorTotal":99}
	]}`)
	rows := formatRows(body, domain.Visualization{XKey: "orgao", YKeys: []string{"valorTotal"}})
	assert.Equal(t, []domain.Row{
		{"orgao": "MS", "valorTotal": 30.0},
		{"orgao": "MEC", "valorTotal": 15.0},
	}, rows)

	assert.Nil(t, formatRows(body, domain.Visualization{}))
	assert.Nil(t, formatRows(body, domain.Visualization{XKey: "uf"}))
}
