package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"sales-auditor-go/internal/aggregator"
	"sales-auditor-go/internal/processor"
	"sales-auditor-go/internal/report"
	"sales-auditor-go/internal/types"
)

// fakeRunner appends one record per upload, like a processor whose analysis
// always succeeds.
type fakeRunner struct {
	mu    sync.Mutex
	calls [][]string
}

func (f *fakeRunner) Run(_ context.Context, run *aggregator.Run, files []processor.Upload, _ func(processor.Progress)) (processor.Result, error) {
	f.mu.Lock()
	var names []string
	for _, u := range files {
		names = append(names, u.Name)
		run.Append(types.CallRecord{CSMName: "Rohit", SourceFile: u.Name})
	}
	f.calls = append(f.calls, names)
	f.mu.Unlock()
	return processor.Result{RunID: run.ID, Report: types.Report{Records: run.Records()}}, nil
}

func (f *fakeRunner) batches() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.calls...)
}

func writeFile(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestBackfill(t *testing.T) {
	inbox, outbox := t.TempDir(), t.TempDir()
	writeFile(t, inbox, "b.pdf")
	writeFile(t, inbox, "a.PDF")
	writeFile(t, inbox, "notes.txt")

	r := &fakeRunner{}
	w := New(Config{InboxDir: inbox, OutboxDir: outbox}, r, nil)

	out, err := w.Backfill(context.Background())
	if err != nil {
		t.Fatalf("Backfill: %v", err)
	}
	b := r.batches()
	if len(b) != 1 || len(b[0]) != 2 || b[0][0] != "a.PDF" || b[0][1] != "b.pdf" {
		t.Fatalf("batches = %v", b)
	}

	f, err := excelize.OpenFile(out)
	if err != nil {
		t.Fatalf("report not readable: %v", err)
	}
	defer f.Close()
	rows, _ := f.GetRows(report.SheetAnalysis)
	if len(rows) != 3 {
		t.Errorf("analysis rows = %d, want 3", len(rows))
	}

	// Nothing new: no second batch, no report.
	out, err = w.Backfill(context.Background())
	if err != nil || out != "" {
		t.Fatalf("second backfill = %q, %v", out, err)
	}
	if len(r.batches()) != 1 {
		t.Fatal("already analyzed files were re-submitted")
	}
}

func TestStart_DebouncesNewFiles(t *testing.T) {
	inbox, outbox := t.TempDir(), t.TempDir()
	r := &fakeRunner{}
	w := New(Config{InboxDir: inbox, OutboxDir: outbox, Debounce: 100 * time.Millisecond}, r, nil)

	done := make(chan string, 4)
	w.OnBatch = func(_ processor.Result, path string) { done <- path }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- w.Start(ctx) }()

	// Give the watcher time to register the directory.
	time.Sleep(200 * time.Millisecond)
	writeFile(t, inbox, "one.pdf")
	writeFile(t, inbox, "two.pdf")
	writeFile(t, inbox, "skip.txt")

	select {
	case path := <-done:
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("report missing: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no batch processed")
	}

	cancel()
	if err := <-errc; err != nil {
		t.Fatalf("Start: %v", err)
	}

	seen := map[string]bool{}
	for _, b := range r.batches() {
		for _, n := range b {
			if seen[n] {
				t.Errorf("%s processed twice", n)
			}
			seen[n] = true
		}
	}
	if seen["skip.txt"] {
		t.Error("non-pdf file processed")
	}
}
