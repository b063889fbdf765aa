// Package pipeline wires configuration into a ready processor.
package pipeline

import (
	"context"
	"fmt"

	"sales-auditor-go/internal/config"
	"sales-auditor-go/internal/extractor"
	"sales-auditor-go/internal/llm"
	"sales-auditor-go/internal/logger"
	"sales-auditor-go/internal/observe"
	"sales-auditor-go/internal/processor"
	"sales-auditor-go/internal/summary"
)

// Pipeline holds the components built from one configuration.
type Pipeline struct {
	Client    llm.Client
	Processor *processor.Processor
	Summary   *summary.Generator
}

// Build creates the LLM client (with retry and, when metrics is non-nil,
// instrumentation) and the processor on top of it.
func Build(ctx context.Context, cfg *config.Config, log *logger.Logger, metrics *observe.Metrics) (*Pipeline, error) {
	if log == nil {
		log = logger.Discard()
	}
	client, err := llm.New(ctx, cfg.LLM, log)
	if err != nil {
		return nil, fmt.Errorf("llm client: %w", err)
	}
	client = llm.WithMetrics(client, metrics)

	gen := summary.NewGenerator(client, log)
	var opts []processor.Option
	if metrics != nil {
		opts = append(opts, processor.WithMetrics(metrics))
	}
	proc := processor.New(
		extractor.NewAnalyzer(client, cfg.Analysis, log),
		gen,
		log,
		opts...,
	)
	log.WithField("provider", cfg.LLM.Provider).
		WithField("model", cfg.LLM.Model).
		WithField("max_retries", cfg.LLM.MaxRetries).
		WithField("min_fields", cfg.Analysis.MinFields).
		WithField("response_format", cfg.Analysis.ResponseFormat).
		Info("pipeline ready")
	return &Pipeline{Client: client, Processor: proc, Summary: gen}, nil
}
