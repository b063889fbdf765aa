package summary

import (
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"

	"sales-auditor-go/internal/llm"
	"sales-auditor-go/internal/llm/mock"
	"sales-auditor-go/internal/types"
)

const embedded = `{"CSM_Summaries": [{"CSM Name": "Rohit", "Strengths": "Clear ROI story", "Areas of Improvement": ["Probe motivation", "Create urgency"], "Specific Instances": "Explained 8% yield"}], "Team_Summary": ["Priming is consistent", "Site visit objections unhandled"]}`

func TestParseSummary_FencedWithCommentary(t *testing.T) {
	raw := "Here you go:\n```json\n" + embedded + "\n```"
	agents, team, err := ParseSummary(raw)
	if err != nil {
		t.Fatalf("ParseSummary: %v", err)
	}
	if len(agents) != 1 {
		t.Fatalf("agents = %d, want 1", len(agents))
	}
	want := types.AgentSummary{
		CSMName:            "Rohit",
		Strengths:          "Clear ROI story",
		AreasOfImprovement: "Probe motivation; Create urgency",
		SpecificInstances:  "Explained 8% yield",
	}
	if agents[0] != want {
		t.Errorf("agent = %+v, want %+v", agents[0], want)
	}
	if len(team) != 2 || team[1] != "Site visit objections unhandled" {
		t.Errorf("team = %v", team)
	}
}

func TestParseSummary_MissingKeys(t *testing.T) {
	agents, team, err := ParseSummary(`{"Team_Summary": ["only team"]}`)
	if err != nil {
		t.Fatal(err)
	}
	if len(agents) != 0 || len(team) != 1 {
		t.Errorf("agents=%v team=%v", agents, team)
	}
}

func TestParseSummary_Malformed(t *testing.T) {
	for _, raw := range []string{"", "no json at all", "{\"CSM_Summaries\": [", "```json\n{broken}\n```"} {
		agents, team, err := ParseSummary(raw)
		if !errors.Is(err, ErrNoJSON) {
			t.Errorf("%q: err = %v, want ErrNoJSON", raw, err)
		}
		if agents != nil || team != nil {
			t.Errorf("%q: expected empty results", raw)
		}
	}
}

func TestRecordsCSV(t *testing.T) {
	recs := []types.CallRecord{
		{CSMName: "Rohit", VerbatimQA: "Cust: price, really? -> CSM: yes", SourceFile: "a.pdf"},
		{CSMName: "Priya", SourceFile: "b.pdf"},
	}
	out, err := RecordsCSV(recs)
	if err != nil {
		t.Fatal(err)
	}
	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[0][0] != "CSM Name" || rows[0][len(rows[0])-1] != "File Name" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][15] != "Cust: price, really? -> CSM: yes" {
		t.Errorf("quoted field lost: %q", rows[1][15])
	}
}

func TestGenerate_EmptyMakesNoCall(t *testing.T) {
	m := &mock.Client{Responses: []string{embedded}}
	agents, team, err := NewGenerator(m, nil).Generate(context.Background(), nil)
	if err != nil || agents != nil || team != nil {
		t.Fatalf("got %v %v %v", agents, team, err)
	}
	if m.Calls() != 0 {
		t.Fatalf("calls = %d, want 0", m.Calls())
	}
}

func TestGenerate_OneCall(t *testing.T) {
	m := &mock.Client{Responses: []string{"Sure.\n" + embedded}}
	recs := []types.CallRecord{{CSMName: "Rohit", SourceFile: "a.pdf"}}

	agents, team, err := NewGenerator(m, nil).Generate(context.Background(), recs)
	if err != nil {
		t.Fatal(err)
	}
	if len(agents) != 1 || len(team) != 2 {
		t.Errorf("agents=%d team=%d", len(agents), len(team))
	}
	if m.Calls() != 1 {
		t.Errorf("calls = %d, want 1", m.Calls())
	}
	p := m.Prompts[0]
	for _, want := range []string{AgentsKey, TeamKey, "100% English", "a.pdf"} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestGenerate_FailuresGiveEmptyResults(t *testing.T) {
	recs := []types.CallRecord{{CSMName: "Rohit", SourceFile: "a.pdf"}}

	m := &mock.Client{Errors: []error{errors.New("quota")}}
	if a, tm, err := NewGenerator(m, nil).Generate(context.Background(), recs); err == nil || a != nil || tm != nil {
		t.Errorf("llm error: got %v %v %v", a, tm, err)
	}

	m = &mock.Client{Responses: []string{"I cannot help with that."}}
	a, tm, err := NewGenerator(m, nil).Generate(context.Background(), recs)
	if !errors.Is(err, ErrNoJSON) || a != nil || tm != nil {
		t.Errorf("bad json: got %v %v %v", a, tm, err)
	}
}

func TestParseSummary_WrongShapeIsNoJSON(t *testing.T) {
	for _, raw := range []string{
		`{"CSM_Summaries": "not a list"}`,
		`{"Team_Summary": {"a": 1}}`,
		`["CSM_Summaries"]`,
	} {
		if _, _, err := ParseSummary(raw); !errors.Is(err, ErrNoJSON) {
			t.Errorf("ParseSummary(%q) err = %v, want ErrNoJSON", raw, err)
		}
	}
}

func TestGenerate_DemoBackend(t *testing.T) {
	recs := []types.CallRecord{{CSMName: "Rohit Sharma", SourceFile: "a.pdf"}}

	agents, team, err := NewGenerator(llm.Demo{}, nil).Generate(context.Background(), recs)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(agents) != 1 || agents[0].CSMName != "Rohit Sharma" {
		t.Errorf("agents = %+v", agents)
	}
	if len(team) != 2 {
		t.Errorf("team = %v", team)
	}
}
