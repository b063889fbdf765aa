package actionable

import (
	"fmt"
	"sort"

	"sales-auditor-go/internal/aggregator"
)

type ActionCard struct {
	Insight string `json:"insight"`
	Action  string `json:"action"`
	Impact  string `json:"impact"`
}

const (
	objectionThreshold = 0.35
	coverageThreshold  = 0.5
)

// Generate turns the weakest area of a run into one coaching card. Missing
// urgency wins over gaps in priming, which win over a dominant objection.
func Generate(ins aggregator.Insight) ActionCard {
	if ins.TotalCalls == 0 {
		return ActionCard{
			Insight: "No calls analyzed",
			Action:  "Upload transcripts to start the audit",
			Impact:  "None",
		}
	}

	if ins.UrgencyRate < coverageThreshold {
		return ActionCard{
			Insight: fmt.Sprintf("Urgency created in only %.0f%% of calls", ins.UrgencyRate*100),
			Action:  "Coach CSMs to close with the spot offer and its deadline before ending the call",
			Impact:  "More EOIs collected on the first call",
		}
	}

	if item, rate := lowest(ins.PrimingRates); item != "" && rate < coverageThreshold {
		return ActionCard{
			Insight: fmt.Sprintf("Customers primed on %s in only %.0f%% of calls", item, rate*100),
			Action:  fmt.Sprintf("Add %s to the opening script and review it in the next huddle", item),
			Impact:  "Better prepared customers and shorter objection handling",
		}
	}

	if bucket, rate := highest(ins.ObjectionRates); bucket != "" && rate >= objectionThreshold {
		return ActionCard{
			Insight: fmt.Sprintf("High %s objections (%.0f%%)", bucket, rate*100),
			Action:  fmt.Sprintf("Run a role-play on %s objection handling using the project guide", bucket),
			Impact:  "Fewer stalled conversations",
		}
	}

	return ActionCard{
		Insight: "No strong weakness pattern detected",
		Action:  "Monitor and collect more data",
		Impact:  "Low immediate intervention",
	}
}

// lowest and highest break ties by name so cards are stable across runs.
func lowest(m map[string]float64) (string, float64) {
	keys := sortedKeys(m)
	best, bestV := "", 0.0
	for _, k := range keys {
		if best == "" || m[k] < bestV {
			best, bestV = k, m[k]
		}
	}
	return best, bestV
}

func highest(m map[string]float64) (string, float64) {
	keys := sortedKeys(m)
	best, bestV := "", 0.0
	for _, k := range keys {
		if best == "" || m[k] > bestV {
			best, bestV = k, m[k]
		}
	}
	return best, bestV
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
