package actionable

import (
	"strings"
	"testing"

	"sales-auditor-go/internal/aggregator"
)

func TestGenerate(t *testing.T) {
	full := map[string]float64{"Price Rise": 1, "Inventory": 1, "Call Value": 1, "Time Sensitivity": 1}

	tests := []struct {
		name    string
		ins     aggregator.Insight
		contain string
	}{
		{"no calls", aggregator.Insight{}, "No calls"},
		{"low urgency", aggregator.Insight{TotalCalls: 4, UrgencyRate: 0.25, PrimingRates: full}, "Urgency created in only 25%"},
		{
			"priming gap",
			aggregator.Insight{TotalCalls: 4, UrgencyRate: 1, PrimingRates: map[string]float64{"Price Rise": 1, "Inventory": 0.25, "Call Value": 0.25}},
			"Call Value",
		},
		{
			"objection",
			aggregator.Insight{TotalCalls: 4, UrgencyRate: 1, PrimingRates: full, ObjectionRates: map[string]float64{"Price": 0.5, "ROI": 0.25}},
			"High Price objections (50%)",
		},
		{
			"healthy",
			aggregator.Insight{TotalCalls: 4, UrgencyRate: 1, PrimingRates: full, ObjectionRates: map[string]float64{"Price": 0.1}},
			"No strong weakness",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			card := Generate(tc.ins)
			if !strings.Contains(card.Insight, tc.contain) {
				t.Errorf("Insight = %q, want it to contain %q", card.Insight, tc.contain)
			}
			if card.Action == "" || card.Impact == "" {
				t.Error("card should be complete")
			}
		})
	}
}
