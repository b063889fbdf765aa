package aggregator

import (
	"strings"

	"sales-auditor-go/internal/types"
)

// Insight is a statistical view over one run's records.
type Insight struct {
	TotalCalls          int                `json:"total_calls"`
	ObjectionRates      map[string]float64 `json:"objection_rates"`
	PrimingRates        map[string]float64 `json:"priming_rates"`
	MotivationCheckRate float64            `json:"motivation_check_rate"`
	PitchTailoredRate   float64            `json:"pitch_tailored_rate"`
	UrgencyRate         float64            `json:"urgency_rate"`
	CallsByCSM          map[string]int     `json:"calls_by_csm"`
}

// Aggregate computes rates of "Yes" answers. Placeholder answers count as
// "No" since the model could not confirm them.
func Aggregate(records []types.CallRecord) Insight {
	ins := Insight{
		TotalCalls:     len(records),
		ObjectionRates: map[string]float64{},
		PrimingRates:   map[string]float64{},
		CallsByCSM:     map[string]int{},
	}
	if len(records) == 0 {
		return ins
	}

	objections := map[string]int{}
	priming := map[string]int{}
	var motivation, tailored, urgency int
	for _, r := range records {
		name := strings.TrimSpace(r.CSMName)
		if name == "" || name == types.Placeholder {
			name = "Unknown"
		}
		ins.CallsByCSM[name]++

		for bucket, v := range objectionFlags(r) {
			objections[bucket] += yes(v)
		}
		for item, v := range primingFlags(r) {
			priming[item] += yes(v)
		}
		if types.IsYes(r.MotivationChecked) {
			motivation++
		}
		if types.IsYes(r.PitchTailored) {
			tailored++
		}
		if types.IsYes(r.UrgencyCreated) {
			urgency++
		}
	}

	total := float64(len(records))
	for k, n := range objections {
		ins.ObjectionRates[k] = float64(n) / total
	}
	for k, n := range priming {
		ins.PrimingRates[k] = float64(n) / total
	}
	ins.MotivationCheckRate = float64(motivation) / total
	ins.PitchTailoredRate = float64(tailored) / total
	ins.UrgencyRate = float64(urgency) / total
	return ins
}

func objectionFlags(r types.CallRecord) map[string]string {
	return map[string]string{
		"Price":      r.ObjPrice,
		"Product":    r.ObjProduct,
		"Location":   r.ObjLocation,
		"ROI":        r.ObjROI,
		"Site Visit": r.ObjSiteVisit,
		"Payment":    r.ObjPayment,
	}
}

func primingFlags(r types.CallRecord) map[string]string {
	return map[string]string{
		"Price Rise":       r.PrimedPriceRise,
		"Inventory":        r.PrimedInventory,
		"Call Value":       r.PrimedCallValue,
		"Time Sensitivity": r.PrimedTimeSensitive,
	}
}

func yes(v string) int {
	if types.IsYes(v) {
		return 1
	}
	return 0
}
