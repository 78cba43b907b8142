package adapter

import "strings"

// NamedEndpoint is a Portal da Transparência endpoint addressable by key
type NamedEndpoint struct {
	Key  string
	Path string
}

// TransparenciaEndpoints is the catalogue of known Portal da Transparência
// endpoints, grouped by subject.
var TransparenciaEndpoints = []NamedEndpoint{
	{"VIAGENS", "api-de-dados/viagens"},
	{"VIAGENS_ID", "api-de-dados/viagens/{id}"},
	{"VIAGENS_POR_CPF", "api-de-dados/viagens-por-cpf"},

	{"SERVIDORES", "api-de-dados/servidores"},
	{"SERVIDORES_ID", "api-de-dados/servidores/{id}"},
	{"SERVIDORES_REMUNERACAO", "api-de-dados/servidores/remuneracao"},
	{"SERVIDORES_POR_ORGAO", "api-de-dados/servidores/por-orgao"},
	{"SERVIDORES_FUNCOES_CARGOS", "api-de-dados/servidores/funcoes-e-cargos"},

	{"BOLSA_FAMILIA_MUNICIPIO", "api-de-dados/bolsa-familia-por-municipio"},
	{"BOLSA_FAMILIA_POR_NIS", "api-de-dados/bolsa-familia-sacado-por-nis"},
	{"AUXILIO_EMERGENCIAL_MUNICIPIO", "api-de-dados/auxilio-emergencial-por-municipio"},
	{"AUXILIO_EMERGENCIAL_CPF_NIS", "api-de-dados/auxilio-emergencial-por-cpf-ou-nis"},

	{"LICITACOES", "api-de-dados/licitacoes"},
	{"LICITACOES_ID", "api-de-dados/licitacoes/{id}"},
	{"LICITACOES_UGS", "api-de-dados/licitacoes/ugs"},
	{"LICITACOES_MODALIDADES", "api-de-dados/licitacoes/modalidades"},

	{"EMENDAS", "api-de-dados/emendas"},
	{"EMENDAS_DOCUMENTOS", "api-de-dados/emendas/documentos/{codigo}"},

	{"DESPESAS_POR_ORGAO", "api-de-dados/despesas/por-orgao"},
	{"DESPESAS_FUNCIONAL", "api-de-dados/despesas/por-funcional-programatica"},

	{"ORGAOS_SIAFI", "api-de-dados/orgaos-siafi"},
}

// TransparenciaEndpoint returns the path for key, or "" when unknown
func TransparenciaEndpoint(key string) string {
	for _, e := range TransparenciaEndpoints {
		if e.Key == key {
			return e.Path
		}
	}
	return ""
}

// ResolveEndpointKey expands a "$KEY" reference to its catalogue path.
// Anything else is returned unchanged.
func ResolveEndpointKey(endpoint string) (string, bool) {
	key, ok := strings.CutPrefix(endpoint, "$")
	if !ok {
		return endpoint, false
	}
	if path := TransparenciaEndpoint(key); path != "" {
		return path, true
	}
	return endpoint, false
}

// EndpointCatalogue returns the catalogue as a key to path map
func EndpointCatalogue() map[string]string {
	out := make(map[string]string, len(TransparenciaEndpoints))
	for _, e := range TransparenciaEndpoints {
		out[e.Key] = e.Path
	}
	return out
}
