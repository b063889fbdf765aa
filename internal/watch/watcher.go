// Package watch processes transcripts dropped into an inbox directory and
// writes a report per batch into an outbox directory.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"sales-auditor-go/internal/aggregator"
	"sales-auditor-go/internal/logger"
	"sales-auditor-go/internal/processor"
	"sales-auditor-go/internal/report"
)

// Runner is the part of processor.Processor the watcher needs.
type Runner interface {
	Run(ctx context.Context, run *aggregator.Run, files []processor.Upload, progress func(processor.Progress)) (processor.Result, error)
}

type Config struct {
	InboxDir       string
	OutboxDir      string
	ReportFileName string
	Debounce       time.Duration
}

// Watcher batches new PDFs from InboxDir. All batches share one run, so a file
// dropped again under the same name is not analyzed twice.
type Watcher struct {
	cfg    Config
	runner Runner
	run    *aggregator.Run
	log    *logger.Logger

	// OnBatch, if set, is called after each batch with its result.
	OnBatch func(processor.Result, string)

	mu      sync.Mutex
	pending map[string]struct{}
	now     func() time.Time
}

func New(cfg Config, runner Runner, log *logger.Logger) *Watcher {
	if log == nil {
		log = logger.Discard()
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 2 * time.Second
	}
	if cfg.OutboxDir == "" {
		cfg.OutboxDir = cfg.InboxDir
	}
	if cfg.ReportFileName == "" {
		cfg.ReportFileName = report.DefaultFileName
	}
	run := aggregator.NewRun()
	return &Watcher{
		cfg:     cfg,
		runner:  runner,
		run:     run,
		log:     log.Component("watch").WithRun(run.ID),
		pending: map[string]struct{}{},
		now:     time.Now,
	}
}

// Start watches the inbox until ctx is done. Bursts of events are collapsed
// into one batch once the inbox has been quiet for the debounce interval.
func (w *Watcher) Start(ctx context.Context) error {
	if err := os.MkdirAll(w.cfg.OutboxDir, 0o755); err != nil {
		return fmt.Errorf("watch: create outbox: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(w.cfg.InboxDir); err != nil {
		return fmt.Errorf("watch: add %s: %w", w.cfg.InboxDir, err)
	}
	w.log.WithField("inbox", w.cfg.InboxDir).Info("watching inbox")

	timer := time.NewTimer(w.cfg.Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if evt.Op&(fsnotify.Create|fsnotify.Rename|fsnotify.Write) != 0 && isPDF(evt.Name) {
				w.mu.Lock()
				w.pending[evt.Name] = struct{}{}
				w.mu.Unlock()
				timer.Reset(w.cfg.Debounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.WithError(err).Warn("watcher error")
		case <-timer.C:
			w.mu.Lock()
			paths := make([]string, 0, len(w.pending))
			for p := range w.pending {
				paths = append(paths, p)
			}
			w.pending = map[string]struct{}{}
			w.mu.Unlock()
			if _, err := w.ProcessPaths(ctx, paths); err != nil {
				w.log.WithError(err).Error("batch failed")
			}
		}
	}
}

// Backfill processes PDFs already present in the inbox.
func (w *Watcher) Backfill(ctx context.Context) (string, error) {
	entries, err := filepath.Glob(filepath.Join(w.cfg.InboxDir, "*"))
	if err != nil {
		return "", err
	}
	var paths []string
	for _, e := range entries {
		if isPDF(e) {
			paths = append(paths, e)
		}
	}
	return w.ProcessPaths(ctx, paths)
}

// ProcessPaths runs one batch in name order and writes its report. It returns
// the written report path, or "" when nothing was new.
func (w *Watcher) ProcessPaths(ctx context.Context, paths []string) (string, error) {
	sort.Strings(paths)
	var files []processor.Upload
	for _, p := range paths {
		name := filepath.Base(p)
		if w.run.Has(name) {
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil {
			w.log.WithError(err).WithField("file", name).Warn("read failed")
			continue
		}
		files = append(files, processor.Upload{Name: name, Data: data})
	}
	if len(files) == 0 {
		return "", nil
	}

	res, err := w.runner.Run(ctx, w.run, files, nil)
	out := filepath.Join(w.cfg.OutboxDir, w.now().UTC().Format("20060102T150405.000")+"_"+w.cfg.ReportFileName)
	if werr := writeReport(out, res); werr != nil {
		return "", werr
	}
	w.log.WithField("report", out).WithField("records", len(res.Records)).Info("batch report written")
	if w.OnBatch != nil {
		w.OnBatch(res, out)
	}
	return out, err
}

func writeReport(path string, res processor.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("watch: create report: %w", err)
	}
	if err := report.Write(f, res.Report); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func isPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}
