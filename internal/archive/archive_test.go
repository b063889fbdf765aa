package archive

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"sales-auditor-go/internal/types"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndLoad(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	rep := types.Report{
		Records:        []types.CallRecord{{CSMName: "Rohit", SourceFile: "a.pdf"}},
		AgentSummaries: []types.AgentSummary{{CSMName: "Rohit", Strengths: "ROI"}},
		TeamInsights:   []string{"ok"},
	}
	wb := []byte("PK\x03\x04 fake xlsx")
	err := s.Save(ctx, Entry{ID: "run-1", CreatedAt: time.Now(), FileCount: 2, Report: rep, Diagnostics: []string{"a.pdf: Analyzed successfully."}, Workbook: wb})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, diag, err := s.Report(ctx, "run-1")
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if len(got.Records) != 1 || got.Records[0].CSMName != "Rohit" || len(got.TeamInsights) != 1 {
		t.Errorf("report = %+v", got)
	}
	if len(diag) != 1 {
		t.Errorf("diagnostics = %v", diag)
	}

	data, err := s.Workbook(ctx, "run-1")
	if err != nil {
		t.Fatalf("Workbook: %v", err)
	}
	if !bytes.Equal(data, wb) {
		t.Errorf("workbook = %q", data)
	}
}

func TestSave_ReplacesSameRun(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	_ = s.Save(ctx, Entry{ID: "r", FileCount: 1})
	rep := types.Report{Records: []types.CallRecord{{SourceFile: "a.pdf"}, {SourceFile: "b.pdf"}}}
	if err := s.Save(ctx, Entry{ID: "r", FileCount: 2, Report: rep}); err != nil {
		t.Fatal(err)
	}

	list, err := s.List(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("list = %d entries, want 1", len(list))
	}
	if list[0].FileCount != 2 || list[0].RecordCount != 2 {
		t.Errorf("summary = %+v", list[0])
	}
}

func TestList_NewestFirst(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	base := time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)

	for i, id := range []string{"old", "mid", "new"} {
		if err := s.Save(ctx, Entry{ID: id, CreatedAt: base.Add(time.Duration(i) * time.Hour)}); err != nil {
			t.Fatal(err)
		}
	}
	list, err := s.List(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != "new" || list[1].ID != "mid" {
		t.Fatalf("list = %+v", list)
	}
	if !list[0].CreatedAt.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("CreatedAt = %v", list[0].CreatedAt)
	}
}

func TestNotFound(t *testing.T) {
	s := openTemp(t)
	if _, err := s.Workbook(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Workbook err = %v", err)
	}
	if _, _, err := s.Report(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Report err = %v", err)
	}
}
