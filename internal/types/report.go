// internal/types/report.go
package types

// --------------------------------------------
// Per-agent coaching summary
// --------------------------------------------
type AgentSummary struct {
	CSMName            string `json:"csm_name"`
	Strengths          string `json:"strengths"`
	AreasOfImprovement string `json:"areas_of_improvement"`
	SpecificInstances  string `json:"specific_instances"`
}

// AgentSummaryHeaders are the column headers of the per-agent sheet.
var AgentSummaryHeaders = []string{"CSM Name", "Strengths", "Areas of Improvement", "Specific Instances"}

// Row returns the summary as one spreadsheet row.
func (a AgentSummary) Row() []string {
	return []string{a.CSMName, a.Strengths, a.AreasOfImprovement, a.SpecificInstances}
}

// TeamInsightHeader is the single column header of the team sheet.
const TeamInsightHeader = "Team Performance Insights"

// --------------------------------------------
// Aggregate report for one completed run.
// Summaries always belong to exactly this Records slice.
// --------------------------------------------
type Report struct {
	Records        []CallRecord   `json:"records"`
	AgentSummaries []AgentSummary `json:"csm_summary"`
	TeamInsights   []string       `json:"team_summary"`
}
