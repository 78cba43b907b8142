package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"cityos/internal/aggregate"
	"cityos/internal/domain"
)

var (
	intentSpending = regexp.MustCompile(`(?i)gasto|cota|despesa`)
	intentBills    = regexp.MustCompile(`(?i)projeto|pl |proposi`)
)

// IntentResult is the quick chart answered by keyword intent
type IntentResult struct {
	Type   string       `json:"type"`
	Series []domain.Row `json:"series"`
}

// Intent answers a question by keyword alone: spending questions get the
// top five spenders among the first 30 deputies this year, bill questions
// get this year's proposições by type. Anything else yields no chart.
func (s *AnalysisService) Intent(ctx context.Context, query string) (*IntentResult, error) {
	year := s.now().Year()

	switch {
	case intentSpending.MatchString(query):
		list, err := s.fetcher.Fetch(ctx, domain.SourceCamara, "deputados", nil)
		if err != nil {
			return nil, err
		}
		deputies := aggregate.Items(list).Array()
		if len(deputies) > 30 {
			deputies = deputies[:30]
		}
		totals, err := s.deputyTotals(ctx, deputies, domain.Params{"ano": strconv.Itoa(year)}, true)
		if err != nil {
			return nil, fmt.Errorf("deputy expenses: %w", err)
		}
		if len(totals) > 5 {
			totals = totals[:5]
		}
		series := make([]domain.Row, 0, len(totals))
		for _, t := range totals {
			series = append(series, domain.Row{"nome": t.Nome, "total": aggregate.Round(t.Total, 2)})
		}
		return &IntentResult{Type: "bar", Series: series}, nil

	case intentBills.MatchString(query):
		body, err := s.fetcher.Fetch(ctx, domain.SourceCamara, "proposicoes", domain.Params{
			"dataInicio": fmt.Sprintf("%d-01-01", year),
		})
		if err != nil {
			return nil, err
		}
		groups := aggregate.Top(aggregate.CountBy(aggregate.Items(body), "siglaTipo", "Desconhecido"), 6)
		series := make([]domain.Row, 0, len(groups))
		for _, g := range groups {
			series = append(series, domain.Row{"type": g.Key, "qtd": int(g.Value)})
		}
		return &IntentResult{Type: "pie", Series: series}, nil
	}

	return &IntentResult{Type: "none", Series: []domain.Row{}}, nil
}
