// Package extractor turns one call transcript into a types.CallRecord by
// prompting the model and parsing its answer.
package extractor

import (
	"context"
	"fmt"

	"sales-auditor-go/internal/config"
	"sales-auditor-go/internal/llm"
	"sales-auditor-go/internal/logger"
	"sales-auditor-go/internal/types"
)

type Analyzer struct {
	client llm.Client
	cfg    config.AnalysisConfig
	log    *logger.Logger
}

func NewAnalyzer(client llm.Client, cfg config.AnalysisConfig, log *logger.Logger) *Analyzer {
	if log == nil {
		log = logger.Discard()
	}
	return &Analyzer{client: client, cfg: cfg, log: log.Component("extractor")}
}

// Analyze sends one prompt for text and parses the reply. Any LLM or parse
// failure returns a nil record and the error; nothing is retried here beyond
// what the client wrapper does.
func (a *Analyzer) Analyze(ctx context.Context, text, sourceFile string) (*types.CallRecord, error) {
	transcript := Truncate(text, a.cfg.MaxChars)

	prompt := BuildAnalysisPrompt(transcript)
	parse := ParseDelimited
	if a.cfg.ResponseFormat == config.FormatJSON {
		prompt = BuildStructuredPrompt(transcript)
		parse = ParseStructured
	}

	raw, err := a.client.Generate(llm.WithKind(ctx, "analysis"), prompt)
	if err != nil {
		return nil, fmt.Errorf("%s: AI error: %w", sourceFile, err)
	}

	rec, err := parse(raw, sourceFile, a.cfg.MinFields)
	if err != nil {
		a.log.WithField("file", sourceFile).WithField("raw_len", len(raw)).Debug("unparseable analysis response")
		return nil, fmt.Errorf("%s: %w", sourceFile, err)
	}
	return rec, nil
}
