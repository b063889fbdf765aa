// Package summary asks the model for per-CSM and team-level feedback over
// all records of a run.
package summary

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"sales-auditor-go/internal/extractor"
	"sales-auditor-go/internal/llm"
	"sales-auditor-go/internal/logger"
	"sales-auditor-go/internal/types"
)

// Top-level keys of the summary object the model is asked to return.
const (
	AgentsKey = "CSM_Summaries"
	TeamKey   = "Team_Summary"
)

// ErrNoJSON means the reply held nothing decodable as the summary object.
var ErrNoJSON = errors.New("summary: no JSON object in response")

// RecordsCSV renders records as a header row plus one comma separated row
// per record.
func RecordsCSV(records []types.CallRecord) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(types.Headers()); err != nil {
		return "", err
	}
	for _, r := range records {
		if err := w.Write(r.Row()); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func BuildSummaryPrompt(csvData string) string {
	return `You are the Sales Training Head at HoABL. Summarize these G.O.A.A. sales calls.
Data:
` + csvData + `
**STRICT RULE:** 100% English Output. No Hindi.
**TASK 1: CSM SUMMARY** (JSON list of objects: "CSM Name", "Strengths", "Areas of Improvement", "Specific Instances")
**TASK 2: TEAM SUMMARY** (JSON list of strings: "Team Performance Insights")
Return strictly Valid JSON: { "` + AgentsKey + `": [], "` + TeamKey + `": [] }`
}

// flexText decodes a JSON string, list of strings or scalar into one string.
type flexText string

func (f *flexText) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexText(strings.TrimSpace(s))
		return nil
	}
	var list []any
	if err := json.Unmarshal(b, &list); err == nil {
		parts := make([]string, 0, len(list))
		for _, e := range list {
			if v := strings.TrimSpace(fmt.Sprint(e)); v != "" && e != nil {
				parts = append(parts, v)
			}
		}
		*f = flexText(strings.Join(parts, "; "))
		return nil
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	if v != nil {
		*f = flexText(fmt.Sprint(v))
	}
	return nil
}

type wireAgent struct {
	CSMName            flexText `json:"CSM Name"`
	Strengths          flexText `json:"Strengths"`
	AreasOfImprovement flexText `json:"Areas of Improvement"`
	SpecificInstances  flexText `json:"Specific Instances"`
}

// ParseSummary locates the summary object in raw and decodes it. Missing keys
// yield empty slices. Undecodable input returns ErrNoJSON and no results.
func ParseSummary(raw string) ([]types.AgentSummary, []string, error) {
	candidate := extractor.ExtractJSONObject(raw)
	if candidate == "" {
		return nil, nil, ErrNoJSON
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &obj); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrNoJSON, err)
	}
	var (
		wireAgents []wireAgent
		wireTeam   []flexText
	)
	if raw, ok := obj[AgentsKey]; ok {
		if err := json.Unmarshal(raw, &wireAgents); err != nil {
			return nil, nil, fmt.Errorf("%w: %s: %v", ErrNoJSON, AgentsKey, err)
		}
	}
	if raw, ok := obj[TeamKey]; ok {
		if err := json.Unmarshal(raw, &wireTeam); err != nil {
			return nil, nil, fmt.Errorf("%w: %s: %v", ErrNoJSON, TeamKey, err)
		}
	}

	agents := make([]types.AgentSummary, 0, len(wireAgents))
	for _, s := range wireAgents {
		agents = append(agents, types.AgentSummary{
			CSMName:            string(s.CSMName),
			Strengths:          string(s.Strengths),
			AreasOfImprovement: string(s.AreasOfImprovement),
			SpecificInstances:  string(s.SpecificInstances),
		})
	}
	team := make([]string, 0, len(wireTeam))
	for _, t := range wireTeam {
		if t != "" {
			team = append(team, string(t))
		}
	}
	return agents, team, nil
}

type Generator struct {
	client llm.Client
	log    *logger.Logger
}

func NewGenerator(client llm.Client, log *logger.Logger) *Generator {
	if log == nil {
		log = logger.Discard()
	}
	return &Generator{client: client, log: log.Component("summary")}
}

// Generate returns the per-CSM and team summaries for records. An empty
// input returns immediately without calling the model. Failures are logged
// and returned alongside empty results so callers can export regardless.
func (g *Generator) Generate(ctx context.Context, records []types.CallRecord) ([]types.AgentSummary, []string, error) {
	if len(records) == 0 {
		return nil, nil, nil
	}

	data, err := RecordsCSV(records)
	if err != nil {
		return nil, nil, fmt.Errorf("summary: render csv: %w", err)
	}

	raw, err := g.client.Generate(llm.WithKind(ctx, "summary"), BuildSummaryPrompt(data))
	if err != nil {
		g.log.WithError(err).Warn("summary generation failed")
		return nil, nil, fmt.Errorf("summary: generate: %w", err)
	}

	agents, team, err := ParseSummary(raw)
	if err != nil {
		g.log.WithError(err).WithField("raw_len", len(raw)).Warn("summary response not parseable")
		return nil, nil, err
	}
	g.log.WithField("csm_count", len(agents)).WithField("team_insights", len(team)).Info("summaries generated")
	return agents, team, nil
}
