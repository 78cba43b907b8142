package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const despesas = `{"dados":[
	{"tipoDespesa":"COMBUSTÍVEIS","valorLiquido":120.50},
	{"tipoDespesa":"TELEFONIA","valorLiquido":80},
	{"tipoDespesa":"COMBUSTÍVEIS","valorLiquido":"79.50"},
	{"valorLiquido":1000},
	{"tipoDespesa":"PASSAGEM AÉREA","valorLiquido":900.25}
]}`

func TestItems(t *testing.T) {
	assert.Len(t, Items([]byte(despesas)).Array(), 5)
	assert.Len(t, Items([]byte(`[{"a":1},{"a":2}]`)).Array(), 2)
	assert.False(t, Items([]byte(`{"message":"erro"}`)).Exists())
}

func TestSumBy(t *testing.T) {
	groups := SumBy(Items([]byte(despesas)), "tipoDespesa", "valorLiquido")
	require.Len(t, groups, 3)
	assert.Equal(t, []Group{
		{Key: "COMBUSTÍVEIS", Value: 200},
		{Key: "TELEFONIA", Value: 80},
		{Key: "PASSAGEM AÉREA", Value: 900.25},
	}, groups)

	assert.InDelta(t, 2180.25, Sum(Items([]byte(despesas)), "valorLiquido"), 1e-9)
}

func TestCountBy(t *testing.T) {
	body := []byte(`{"dados":[
		{"statusProposicao":{"descricaoSituacao":"Arquivada"}},
		{"statusProposicao":{"descricaoSituacao":"Aguardando Parecer"}},
		{"statusProposicao":{}},
		{"statusProposicao":{"descricaoSituacao":"Arquivada"}},
		{}
	]}`)

	groups := CountBy(Items(body), "statusProposicao.descricaoSituacao", "Desconhecida")
	assert.Equal(t, []Group{
		{Key: "Arquivada", Value: 2},
		{Key: "Aguardando Parecer", Value: 1},
		{Key: "Desconhecida", Value: 2},
	}, groups)
}

func TestSortDescStableAndTop(t *testing.T) {
	groups := []Group{
		{Key: "a", Value: 1},
		{Key: "b", Value: 3},
		{Key: "c", Value: 1},
		{Key: "d", Value: 5},
	}
	sorted := SortDesc(groups)
	assert.Equal(t, []string{"d", "b", "a", "c"}, keys(sorted))
	assert.Equal(t, []string{"d", "b"}, keys(Top(sorted, 2)))
	assert.Len(t, Top(sorted, 10), 4)
	assert.Empty(t, Top(sorted, 0))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 12.35, Round(12.345678, 2))
	assert.Equal(t, 0.0, Round(0.004, 2))
	assert.Equal(t, 3.0, Round(2.5, 0))
}

func TestEmptyInput(t *testing.T) {
	assert.Nil(t, SumBy(gjson.Result{}, "k", "v"))
	assert.Nil(t, CountBy(gjson.Result{}, "k", "x"))
}

func keys(groups []Group) []string {
	out := make([]string, len(groups))
	for i, g := range groups {
		out[i] = g.Key
	}
	return out
}
