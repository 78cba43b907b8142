package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cityos/internal/adapter"
	"cityos/internal/cache"
	"cityos/internal/logging"
	"cityos/internal/service"
)

// analyzeCmd runs the question-to-chart pipeline once
var analyzeCmd = &cobra.Command{
	Use:   "analyze [question]",
	Short: "Answer a question about government data with chart JSON",
	Long: `Plans, fetches and formats the data answering a question, exactly as
POST /api/analyze does, and prints the result.

Example:
  cityos analyze "quais deputados mais gastaram em 2023?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	query := strings.Join(args, " ")

	responses, err := cache.Open(ctx, cfg.Cache.RedisURL)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer responses.Close()

	upstream := cfg.Upstream
	upstream.ProbeEnabled = false
	registry, err := adapter.Bootstrap(upstream, responses, cfg.Cache.TTL, logger, nil)
	if err != nil {
		return fmt.Errorf("bootstrap adapters: %w", err)
	}

	llm := adapter.NewCompleter(cfg.LLM, logging.Named(logger, "llm"))
	analysis := service.NewAnalysisService(registry, llm, nil, nil, cfg.Analysis, logging.Named(logger, "analysis"))

	res, err := analysis.Analyze(ctx, query)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
