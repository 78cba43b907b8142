package domain

import (
	"encoding/json"
	"testing"
)

func TestHashAudit(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		if got := HashAudit(""); got != "0x00000000" {
			t.Errorf("expected 0x00000000, got %s", got)
		}
	})

	t.Run("ascii input", func(t *testing.T) {
		// 97*33 + 98 = 3299
		if got := HashAudit("ab"); got != "0x00000ce3" {
			t.Errorf("expected 0x00000ce3, got %s", got)
		}
	})

	t.Run("wraps at 32 bits", func(t *testing.T) {
		got := HashAudit("1700000000000-Executar Sincronizar semaforos adaptativos-global-teste-1")
		if got != "0x3ec39455" {
			t.Errorf("expected 0x3ec39455, got %s", got)
		}
	})

	t.Run("non-ascii uses code units", func(t *testing.T) {
		// 'ç' is a single UTF-16 unit 0xe7
		if got := HashAudit("ç"); got != "0x000000e7" {
			t.Errorf("expected 0x000000e7, got %s", got)
		}
	})
}

func TestIntegrity(t *testing.T) {
	sources := make([]SourceState, len(InitialSources))
	copy(sources, InitialSources)

	t.Run("healthy with no incidents", func(t *testing.T) {
		if got := Integrity(sources, 0); got != 99.4 {
			t.Errorf("expected 99.4, got %v", got)
		}
	})

	t.Run("clamps to floor", func(t *testing.T) {
		down := make([]SourceState, len(sources))
		for i, s := range sources {
			s.Health = HealthOffline
			down[i] = s
		}
		if got := Integrity(down, 40); got != 52 {
			t.Errorf("expected 52, got %v", got)
		}
	})

	t.Run("degraded and incidents", func(t *testing.T) {
		mixed := make([]SourceState, len(sources))
		copy(mixed, sources)
		mixed[0].Health = HealthDegraded
		want := 99.4 - 7 - 2*0.65
		if got := Integrity(mixed, 2); got != want {
			t.Errorf("expected %v, got %v", want, got)
		}
	})
}

func TestReliability(t *testing.T) {
	sources := []SourceState{
		{ID: "a", Health: HealthHealthy},
		{ID: "b", Health: HealthDegraded},
		{ID: "c", Health: HealthOffline},
		{ID: "d", Health: HealthHealthy},
	}
	want := (1 + 0.72 + 0.32 + 1) / 4
	if got := Reliability(sources); got != want {
		t.Errorf("expected %v, got %v", want, got)
	}
	if got := Reliability(nil); got != 0 {
		t.Errorf("expected 0 for no sources, got %v", got)
	}
}

func TestScope(t *testing.T) {
	ref := TargetRef{RID: "cityos://region/centro", RegionID: "centro", CorridorID: "c-01"}

	tests := []struct {
		scope string
		match bool
		valid bool
		label string
	}{
		{ScopeGlobal, true, true, "Global"},
		{"region:centro", true, true, "Regiao Centro"},
		{"region:norte", false, true, "Regiao Norte"},
		{"corridor:c-01", true, true, "Corredor C-01"},
		{"corridor:c-09", false, false, "corridor:c-09"},
		{"bairro:x", false, false, "bairro:x"},
	}

	for _, tt := range tests {
		t.Run(tt.scope, func(t *testing.T) {
			if got := ScopeMatches(tt.scope, ref); got != tt.match {
				t.Errorf("ScopeMatches: expected %v, got %v", tt.match, got)
			}
			if got := ValidScope(tt.scope); got != tt.valid {
				t.Errorf("ValidScope: expected %v, got %v", tt.valid, got)
			}
			if got := ScopeLabel(tt.scope); got != tt.label {
				t.Errorf("ScopeLabel: expected %q, got %q", tt.label, got)
			}
		})
	}
}

func TestEntityByRID(t *testing.T) {
	t.Run("asset carries layer hint", func(t *testing.T) {
		e, ok := EntityByRID("cityos://asset/energia/sub-08")
		if !ok {
			t.Fatal("expected asset to resolve")
		}
		if e.Kind != EntityAsset || e.LayerHint != LayerEnergia {
			t.Errorf("unexpected entity %+v", e)
		}
	})

	t.Run("region resolves first corridor", func(t *testing.T) {
		r, _ := FindRegion("sul")
		if got := r.Target().CorridorID; got != "c-04" {
			t.Errorf("expected c-04, got %s", got)
		}
		r, _ = FindRegion("leste")
		if got := r.Target().CorridorID; got != "" {
			t.Errorf("expected no corridor from leste, got %s", got)
		}
	})

	t.Run("unknown rid", func(t *testing.T) {
		if _, ok := EntityByRID("cityos://asset/none"); ok {
			t.Error("expected unknown RID to fail")
		}
	})
}

func TestScenarioIndex(t *testing.T) {
	if got := ScenarioIndex(ScenarioNormal); got != 1 {
		t.Errorf("expected 1, got %d", got)
	}
	if got := ScenarioIndex(ScenarioOperation); got != 5 {
		t.Errorf("expected 5, got %d", got)
	}
	if got := ScenarioIndex("storm"); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
}

func TestLeadValidate(t *testing.T) {
	t.Run("all fields missing", func(t *testing.T) {
		lead := &Lead{}
		errs := lead.Validate()
		if len(errs) != 3 {
			t.Fatalf("expected 3 errors, got %v", errs)
		}
		if errs["email"] != "Informe o e-mail institucional." {
			t.Errorf("unexpected email message %q", errs["email"])
		}
	})

	t.Run("bad email", func(t *testing.T) {
		lead := &Lead{Orgao: "Prefeitura", Nome: "Ana", Email: "ana@prefeitura"}
		errs := lead.Validate()
		if errs["email"] != "Use um e-mail válido." {
			t.Errorf("unexpected email message %q", errs["email"])
		}
	})

	t.Run("valid lead gets default integration", func(t *testing.T) {
		lead := &Lead{Orgao: " Prefeitura ", Nome: "Ana", Email: "ana@cidade.gov.br"}
		lead.Normalize()
		if errs := lead.Validate(); errs != nil {
			t.Fatalf("expected no errors, got %v", errs)
		}
		if lead.Integracao != DefaultIntegration {
			t.Errorf("expected default integration, got %q", lead.Integracao)
		}
		if lead.Orgao != "Prefeitura" {
			t.Errorf("expected trimmed orgao, got %q", lead.Orgao)
		}
	})
}

func TestParamsUnmarshal(t *testing.T) {
	var plan QueryPlan
	raw := `{"source":"camara","endpoint":"proposicoes","params":{"ano":2024,"siglaTipo":"PL","ativo":true,"skip":null}}`
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Params["ano"] != "2024" {
		t.Errorf("expected ano 2024, got %q", plan.Params["ano"])
	}
	if plan.Params["ativo"] != "true" {
		t.Errorf("expected ativo true, got %q", plan.Params["ativo"])
	}
	if _, ok := plan.Params["skip"]; ok {
		t.Error("expected null param to be dropped")
	}
	if !plan.Source.IsValid() {
		t.Error("expected camara to be a valid source")
	}
}
