package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cityos/internal/adapter"
	"cityos/internal/domain"
)

func newGovData(f *fakeFetcher) *GovDataService {
	s := NewGovDataService(f, nil)
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestGovDataFetchValidation(t *testing.T) {
	s := newGovData(newFakeFetcher())

	_, err := s.Fetch(context.Background(), "", "deputados", nil)
	require.ErrorIs(t, err, domain.ErrInvalid)
	assert.Contains(t, err.Error(), "Source and endpoint parameters are required")

	_, err = s.Fetch(context.Background(), "ibge", "deputados", nil)
	require.ErrorIs(t, err, domain.ErrInvalid)
	assert.Contains(t, err.Error(), "Invalid source")
}

func TestGovDataFetchPassesThrough(t *testing.T) {
	f := newFakeFetcher().on(domain.SourceSenado, "senador/lista/atual", `{"ok":true}`)
	s := newGovData(f)

	body, err := s.Fetch(context.Background(), "senado", "senador/lista/atual", domain.Params{"x": "1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, domain.Params{"x": "1"}, f.calls[0].Params)
}

func TestCamaraDespesas(t *testing.T) {
	f := newFakeFetcher().on(domain.SourceCamara, "deputados/204554/despesas", `{"dados":[{"valorLiquido":10.5}],"links":[]}`)
	s := newGovData(f)

	_, err := s.CamaraDespesas(context.Background(), " ", "")
	require.ErrorIs(t, err, domain.ErrInvalid)

	body, err := s.CamaraDespesas(context.Background(), "204554", "")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"valorLiquido":10.5}]`, string(body))
	assert.Equal(t, domain.Params{"ano": "2025", "itens": "100"}, f.calls[0].Params)
}

func TestCamaraProjetos(t *testing.T) {
	f := newFakeFetcher().on(domain.SourceCamara, "proposicoes", `{"links":[]}`)
	s := newGovData(f)

	body, err := s.CamaraProjetos(context.Background(), "2024", "")
	require.NoError(t, err)
	assert.Equal(t, "null", string(body))
	assert.Equal(t, "PL", f.calls[0].Params["siglaTipo"])
	assert.Equal(t, "2024", f.calls[0].Params["ano"])
	assert.Equal(t, "dataApresentacao", f.calls[0].Params["ordenarPor"])
}

func TestTransparenciaCatalogue(t *testing.T) {
	s := newGovData(newFakeFetcher())
	cat := s.Catalogue()
	assert.True(t, cat.Success)
	assert.Equal(t, adapter.EndpointCatalogue(), cat.AvailableEndpoints)
}

func TestTransparenciaDefaults(t *testing.T) {
	viagens := adapter.TransparenciaEndpoint("VIAGENS")
	require.NotEmpty(t, viagens)

	f := newFakeFetcher().
		on(domain.SourceTransparencia, viagens, `[{"id":1}]`).
		on(domain.SourceTransparencia, "licitacoes", `[]`)
	s := newGovData(f)

	res, err := s.Transparencia(context.Background(), "$VIAGENS", domain.Params{"codigoOrgao": "26000"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, viagens, res.Endpoint)
	assert.Equal(t, "01/01/2025", res.Params["dataIdaDe"])
	assert.Equal(t, "01/06/2025", res.Params["dataIdaAte"])
	assert.Equal(t, "1", res.Params["pagina"])
	assert.Equal(t, "26000", res.Params["codigoOrgao"])
	assert.JSONEq(t, `[{"id":1}]`, string(res.Data))

	res, err = s.Transparencia(context.Background(), "licitacoes", domain.Params{"pagina": "3"})
	require.NoError(t, err)
	assert.Equal(t, "3", res.Params["pagina"])
}

func TestTransparenciaErrorCarriesRequest(t *testing.T) {
	upstream := &adapter.UpstreamError{Source: domain.SourceTransparencia, StatusCode: 401, StatusText: "Unauthorized"}
	f := newFakeFetcher().fail(domain.SourceTransparencia, "orgaos-siafi", upstream)
	s := newGovData(f)

	_, err := s.Transparencia(context.Background(), "orgaos-siafi", nil)
	var terr *TransparenciaError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, "orgaos-siafi", terr.Endpoint)

	var uerr *adapter.UpstreamError
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, 401, uerr.StatusCode)

	out, _ := json.Marshal(terr.Params)
	assert.JSONEq(t, `{}`, string(out))
}
