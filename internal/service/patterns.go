package service

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"cityos/internal/domain"
)

// Analysis kinds. Each predefined kind is also the name of its pattern.
const (
	KindDeputadosDespesas = "deputados_despesas"
	KindViagensServico    = "viagens_servico"
	KindServidores        = "servidores_remuneracao"
	KindLicitacoes        = "licitacoes"
	KindProjetosLei       = "projetos_lei"
	KindGastosSaude       = "gastos_saude"
	KindGeneric           = "generic"
)

// queryPattern maps a question shape to a ready-made plan
type queryPattern struct {
	kind  string
	regex *regexp.Regexp
	plan  func(now time.Time) domain.QueryPlan
}

// patterns are tried in order; the first match supplies the plan
var patterns = []queryPattern{
	{
		kind:  KindDeputadosDespesas,
		regex: regexp.MustCompile(`(?i)deputados.*gast|deput.*cota|cota.*parlamentar|gast.*deputado`),
		plan: func(time.Time) domain.QueryPlan {
			return domain.QueryPlan{
				Source:   domain.SourceCamara,
				Endpoint: "deputados",
				Params:   domain.Params{"ordem": "ASC", "ordenarPor": "nome"},
				Visualization: domain.Visualization{
					Type:  "bar",
					Title: "Deputados com maiores gastos da cota parlamentar (2023)",
					XKey:  "nome",
					YKeys: []string{"valorLiquido"},
				},
				DataTransformation: "Obter a lista de deputados, depois buscar as despesas de cada um para o ano de 2023, somar os valores líquidos e ordenar do maior para o menor",
			}
		},
	},
	{
		kind:  KindViagensServico,
		regex: regexp.MustCompile(`(?i)viagens.*servi(ç|c)o|deslocamentos|viagens|miss(õ|o)es oficiais`),
		plan: func(time.Time) domain.QueryPlan {
			return domain.QueryPlan{
				Source:   domain.SourceTransparencia,
				Endpoint: "api-de-dados/viagens",
				Params: domain.Params{
					"dataIdaDe":      "01/01/2023",
					"dataIdaAte":     "31/12/2023",
					"dataRetornoDe":  "01/01/2023",
					"dataRetornoAte": "31/12/2023",
					"pagina":         "1",
				},
				Visualization: domain.Visualization{
					Type:  "bar",
					Title: "Viagens a serviço do Governo Federal (2023)",
					XKey:  "orgao",
					YKeys: []string{"valorTotal"},
				},
				DataTransformation: "Agrupar viagens por órgão, somar os valores totais e ordenar do maior para o menor",
			}
		},
	},
	{
		kind:  KindServidores,
		regex: regexp.MustCompile(`(?i)servidores.*remunera(ç|c)(ã|a)o|sal(á|a)rios.*servidores`),
		plan: func(time.Time) domain.QueryPlan {
			return domain.QueryPlan{
				Source:   domain.SourceTransparencia,
				Endpoint: "api-de-dados/servidores/por-orgao",
				Params:   domain.Params{},
				Visualization: domain.Visualization{
					Type:  "bar",
					Title: "Quantidade de servidores por órgão",
					XKey:  "orgao",
					YKeys: []string{"quantidade"},
				},
				DataTransformation: "Extrair a quantidade de servidores por órgão e ordenar do maior para o menor",
			}
		},
	},
	{
		kind:  KindLicitacoes,
		regex: regexp.MustCompile(`(?i)licita(ç|c)(õ|o)es|contratos|compras.*governo`),
		plan: func(time.Time) domain.QueryPlan {
			return domain.QueryPlan{
				Source:   domain.SourceTransparencia,
				Endpoint: "api-de-dados/licitacoes",
				Params:   domain.Params{"pagina": "1"},
				Visualization: domain.Visualization{
					Type:  "pie",
					Title: "Licitações por modalidade",
					XKey:  "modalidade",
					YKeys: []string{"quantidade"},
				},
				DataTransformation: "Agrupar licitações por modalidade, contar a quantidade e exibir em formato de pizza",
			}
		},
	},
	{
		kind:  KindProjetosLei,
		regex: regexp.MustCompile(`(?i)projetos? de lei|\bPLs?\b|proposi(ç|c)(õ|o)es|projeto.*aprovad`),
		plan: func(now time.Time) domain.QueryPlan {
			year := strconv.Itoa(now.Year())
			return domain.QueryPlan{
				Source:   domain.SourceCamara,
				Endpoint: "proposicoes",
				Params:   domain.Params{"ano": year, "siglaTipo": "PL", "itens": "100"},
				Visualization: domain.Visualization{
					Type:  "bar",
					Title: "Projetos de Lei por situação em " + year,
					XKey:  "situacao",
					YKeys: []string{"quantidade"},
				},
				DataTransformation: "Agrupar proposições por situação, contar a quantidade em cada grupo e ordenar do maior para o menor",
			}
		},
	},
	{
		kind:  KindGastosSaude,
		regex: regexp.MustCompile(`(?i)gastos? .*sa(ú|u)de|sa(ú|u)de .*gastos?`),
		plan: func(now time.Time) domain.QueryPlan {
			return domain.QueryPlan{
				Source:   domain.SourceTransparencia,
				Endpoint: "api-de-dados/despesas/por-funcional-programatica",
				Params:   domain.Params{"funcao": "10", "ano": strconv.Itoa(now.Year() - 1)},
				Visualization: domain.Visualization{
					Type:  "bar",
					Title: "Gastos com Saúde nos últimos anos (em R$ bilhões)",
					XKey:  "ano",
					YKeys: []string{"valor"},
				},
				DataTransformation: "Agrupar gastos por ano, converter para bilhões de reais e ordenar cronologicamente",
			}
		},
	},
}

// matchPattern returns the first pattern matching query
func matchPattern(query string) (queryPattern, bool) {
	for _, p := range patterns {
		if p.regex.MatchString(query) {
			return p, true
		}
	}
	return queryPattern{}, false
}

// patternFor returns the pattern for kind. It panics on unknown kinds.
func patternFor(kind string) queryPattern {
	for _, p := range patterns {
		if p.kind == kind {
			return p
		}
	}
	panic(fmt.Sprintf("unknown pattern %q", kind))
}

// specialKind picks the dedicated pipeline for query. The checks are made
// on the query itself, independently of which pattern supplied the plan.
func specialKind(query string) string {
	for _, kind := range []string{KindDeputadosDespesas, KindProjetosLei, KindGastosSaude} {
		if patternFor(kind).regex.MatchString(query) {
			return kind
		}
	}
	return KindGeneric
}

// defaultPlan is used when no pattern matches and the LLM cannot help
func defaultPlan() domain.QueryPlan {
	return domain.QueryPlan{
		Source:   domain.SourceCamara,
		Endpoint: "deputados",
		Params:   domain.Params{"ordem": "ASC", "ordenarPor": "nome"},
		Visualization: domain.Visualization{
			Type:  "bar",
			Title: "Análise de dados governamentais",
			XKey:  "nome",
			YKeys: []string{"valor"},
		},
		DataTransformation: "Ordenar dados por valor do maior para o menor",
	}
}
