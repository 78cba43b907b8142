package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cityos/internal/domain"
)

// AskScopes lists the scopes served by Ask
var AskScopes = []string{"promessometro", "votacoes", "licitacoes", "gastos"}

type askAnswer struct {
	data    []map[string]string
	message string
}

var askAnswers = map[string]askAnswer{
	"promessometro": {
		data: []map[string]string{
			{"politico": "David Almeida", "promessa": "Construir 5 novas UPAs", "status": "Em andamento"},
			{"politico": "Luiz Castro", "promessa": "Reformar 10 escolas", "status": "Concluído"},
			{"politico": "Arthur Virgílio", "promessa": "Revitalizar o Centro", "status": "Não iniciado"},
		},
		message: "Dados do Promessômetro para políticos de Manaus",
	},
	"votacoes": {
		data: []map[string]string{
			{"politico": "Eduardo Braga", "sessao": "PL 123/2023", "voto": "Favorável"},
			{"politico": "Omar Aziz", "sessao": "PL 123/2023", "voto": "Contrário"},
			{"politico": "Wilson Lima", "sessao": "Emenda Orçamentária 45", "voto": "Abstenção"},
		},
		message: "Resultados das votações recentes",
	},
	"licitacoes": {
		data: []map[string]string{
			{"numero": "2023-045", "objeto": "Pavimentação av. Torquato Tapajós", "valor": "R$ 5.400.000", "status": "Em andamento"},
			{"numero": "2023-037", "objeto": "Revitalização do Porto", "valor": "R$ 12.800.000", "status": "Concluído"},
			{"numero": "2023-028", "objeto": "Compra de medicamentos", "valor": "R$ 3.200.000", "status": "Cancelado"},
		},
		message: "Licitações recentes encontradas",
	},
	"gastos": {
		data: []map[string]string{
			{"secretaria": "Saúde", "ano": "2023", "orcamento": "R$ 1.200.000.000", "executado": "R$ 980.000.000"},
			{"secretaria": "Educação", "ano": "2023", "orcamento": "R$ 800.000.000", "executado": "R$ 750.000.000"},
			{"secretaria": "Infraestrutura", "ano": "2023", "orcamento": "R$ 500.000.000", "executado": "R$ 300.000.000"},
		},
		message: "Gastos públicos por secretaria",
	},
}

// AskError is a rejected ask request. Error is the short label and Message
// the explanation shown to the user.
type AskError struct {
	Label   string
	Message string
}

func (e *AskError) Error() string { return e.Label + ": " + e.Message }

// Unwrap lets callers match domain.ErrInvalid
func (e *AskError) Unwrap() error { return domain.ErrInvalid }

// AskResponse is a scoped answer
type AskResponse struct {
	Success   bool                `json:"success"`
	Query     string              `json:"query"`
	Scope     string              `json:"scope"`
	Timestamp string              `json:"timestamp"`
	Data      []map[string]string `json:"data"`
	Message   string              `json:"message"`
}

// AskService answers scoped questions with curated sample data
type AskService struct {
	delay time.Duration
	now   func() time.Time
}

// NewAskService creates an ask service that waits delay before answering
func NewAskService(delay time.Duration) *AskService {
	return &AskService{delay: delay, now: time.Now}
}

// Ask returns the curated answer for scope
func (s *AskService) Ask(ctx context.Context, scope, query string) (*AskResponse, error) {
	if strings.TrimSpace(scope) == "" || strings.TrimSpace(query) == "" {
		return nil, &AskError{Label: "Parâmetros inválidos", Message: "Scope e query são obrigatórios"}
	}
	answer, ok := askAnswers[scope]
	if !ok {
		return nil, &AskError{Label: "Scope inválido", Message: "Scope deve ser: promessometro, votacoes, licitacoes ou gastos"}
	}

	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("ask: %w", ctx.Err())
		case <-timer.C:
		}
	}

	return &AskResponse{
		Success:   true,
		Query:     query,
		Scope:     scope,
		Timestamp: s.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Data:      answer.data,
		Message:   answer.message,
	}, nil
}
