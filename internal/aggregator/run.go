// Package aggregator owns the records of a processing run and the statistics
// derived from them.
package aggregator

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"sales-auditor-go/internal/types"
)

// Run is the state of one processing run: ordered records, the set of source
// files already analyzed and the diagnostic log. Safe for concurrent use.
type Run struct {
	ID        string
	CreatedAt time.Time

	mu          sync.Mutex
	records     []types.CallRecord
	seen        map[string]struct{}
	diagnostics []string
}

func NewRun() *Run {
	return NewRunWithID(uuid.New().String())
}

func NewRunWithID(id string) *Run {
	return &Run{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		seen:      map[string]struct{}{},
	}
}

// Append adds rec unless a record from the same source file is already held;
// the first one wins. It reports whether rec was added.
func (r *Run) Append(rec types.CallRecord) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.seen[rec.SourceFile]; ok {
		return false
	}
	r.seen[rec.SourceFile] = struct{}{}
	r.records = append(r.records, rec)
	return true
}

func (r *Run) Has(sourceFile string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.seen[sourceFile]
	return ok
}

// Reset clears records and diagnostics for a new run.
func (r *Run) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = nil
	r.seen = map[string]struct{}{}
	r.diagnostics = nil
}

func (r *Run) Records() []types.CallRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.CallRecord, len(r.records))
	copy(out, r.records)
	return out
}

func (r *Run) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

func (r *Run) Diagnostics() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.diagnostics))
	copy(out, r.diagnostics)
	return out
}

// Logf appends one diagnostic line.
func (r *Run) Logf(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	r.mu.Lock()
	r.diagnostics = append(r.diagnostics, line)
	r.mu.Unlock()
}
