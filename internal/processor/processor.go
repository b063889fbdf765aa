// Package processor drives one run: extract, analyze, aggregate, summarize.
package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sales-auditor-go/internal/actionable"
	"sales-auditor-go/internal/aggregator"
	"sales-auditor-go/internal/llm"
	"sales-auditor-go/internal/logger"
	"sales-auditor-go/internal/observe"
	"sales-auditor-go/internal/pdftext"
	"sales-auditor-go/internal/types"
)

// Upload is one transcript as received from the caller.
type Upload struct {
	Name string
	Data []byte
}

// Progress is reported after every file.
type Progress struct {
	Index  int    `json:"index"`
	Total  int    `json:"total"`
	File   string `json:"file"`
	Status string `json:"status"`
}

// File outcomes, also used as the metrics status label.
const (
	StatusOK         = "ok"
	StatusUnreadable = "unreadable"
	StatusFailed     = "failed"
	StatusSkipped    = "skipped"
)

type Analyzer interface {
	Analyze(ctx context.Context, text, sourceFile string) (*types.CallRecord, error)
}

type Summarizer interface {
	Generate(ctx context.Context, records []types.CallRecord) ([]types.AgentSummary, []string, error)
}

// Result is what one call to Run produced.
type Result struct {
	RunID string `json:"run_id"`
	types.Report
	Insight     aggregator.Insight    `json:"insight"`
	ActionCard  actionable.ActionCard `json:"action_card"`
	Diagnostics []string              `json:"diagnostics"`
	DurationMs  int64                 `json:"duration_ms"`
	Error       string                `json:"error,omitempty"`
}

type Processor struct {
	analyzer   Analyzer
	summarizer Summarizer
	extract    func([]byte) (string, error)
	metrics    *observe.Metrics
	log        *logger.Logger
}

type Option func(*Processor)

// WithMetrics records per-file and per-run outcomes.
func WithMetrics(m *observe.Metrics) Option {
	return func(p *Processor) { p.metrics = m }
}

// WithTextExtractor replaces the PDF text extraction step.
func WithTextExtractor(fn func([]byte) (string, error)) Option {
	return func(p *Processor) { p.extract = fn }
}

func New(analyzer Analyzer, summarizer Summarizer, log *logger.Logger, opts ...Option) *Processor {
	if log == nil {
		log = logger.Discard()
	}
	p := &Processor{
		analyzer:   analyzer,
		summarizer: summarizer,
		extract:    pdftext.Extract,
		log:        log.Component("processor"),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run processes files strictly in order against run. Per-file failures are
// recorded as diagnostics and skipped. Files already in run are not analyzed
// again. A credential failure or a cancelled ctx halts the run; the records
// gathered so far are still returned together with the error.
func (p *Processor) Run(ctx context.Context, run *aggregator.Run, files []Upload, progress func(Progress)) (Result, error) {
	start := time.Now()
	log := p.log.WithRun(run.ID)

	total := len(files)
	run.Logf("Started processing %d files...", total)
	log.WithField("files", total).Info("run started")

	var fatal error
	for i, file := range files {
		if err := ctx.Err(); err != nil {
			fatal = err
			break
		}
		status, err := p.processFile(ctx, run, file)
		p.recordFile(ctx, status)
		if progress != nil {
			progress(Progress{Index: i + 1, Total: total, File: file.Name, Status: status})
		}
		if err != nil {
			fatal = err
			break
		}
	}

	records := run.Records()
	res := Result{RunID: run.ID, Report: types.Report{Records: records}}

	if fatal != nil {
		run.Logf("Critical Error: %v", fatal)
		log.WithError(fatal).Error("run halted")
		res.Error = fatal.Error()
		return p.finish(ctx, run, res, start, "halted"), fatal
	}

	if len(records) == 0 {
		run.Logf("No valid data was extracted. Check the diagnostics.")
		return p.finish(ctx, run, res, start, "empty"), nil
	}

	run.Logf("Generating Management Summaries...")
	agents, team, err := p.summarizer.Generate(ctx, records)
	if err != nil {
		run.Logf("Summary Error: %v", err)
	}
	res.AgentSummaries = agents
	res.TeamInsights = team

	res.Insight = aggregator.Aggregate(records)
	res.ActionCard = actionable.Generate(res.Insight)
	return p.finish(ctx, run, res, start, "ok"), nil
}

// processFile returns the file outcome and a non-nil error only when the
// whole run must stop.
func (p *Processor) processFile(ctx context.Context, run *aggregator.Run, file Upload) (string, error) {
	log := p.log.WithRun(run.ID).WithField("file", file.Name)

	if run.Has(file.Name) {
		run.Logf("%s: already analyzed, skipped.", file.Name)
		return StatusSkipped, nil
	}

	text, err := p.extract(file.Data)
	if err != nil || text == "" {
		run.Logf("%s: Empty or unreadable PDF.", file.Name)
		log.WithError(err).Debug("no text extracted")
		return StatusUnreadable, nil
	}

	rec, err := p.analyzer.Analyze(ctx, text, file.Name)
	if err != nil {
		if errors.Is(err, llm.ErrUnauthorized) {
			return StatusFailed, fmt.Errorf("analyze %s: %w", file.Name, err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return StatusFailed, ctxErr
		}
		run.Logf("%v", err)
		log.WithError(err).Warn("analysis failed")
		return StatusFailed, nil
	}

	if !run.Append(*rec) {
		run.Logf("%s: already analyzed, skipped.", file.Name)
		return StatusSkipped, nil
	}
	run.Logf("%s: Analyzed successfully.", file.Name)
	log.Info("analyzed")
	return StatusOK, nil
}

func (p *Processor) finish(ctx context.Context, run *aggregator.Run, res Result, start time.Time, status string) Result {
	res.Diagnostics = run.Diagnostics()
	res.DurationMs = time.Since(start).Milliseconds()
	if p.metrics != nil {
		p.metrics.RecordRun(ctx, status)
	}
	p.log.WithRun(run.ID).
		WithField("records", len(res.Records)).
		WithField("status", status).
		WithField("duration_ms", res.DurationMs).
		Info("run finished")
	return res
}

func (p *Processor) recordFile(ctx context.Context, status string) {
	if p.metrics != nil {
		p.metrics.RecordFile(ctx, status)
	}
}
