package llm

import (
	"context"
	"encoding/json"
	"strings"

	"sales-auditor-go/internal/types"
)

const demoAnalysis = "Rohit Sharma###Anita Desai###Yes###Yes###No###Yes###Yes###Rental Yield###Yes###Yes###No###Yes###No###Yes###No###Cust: Is the rental guaranteed? -> CSM: MIROS manages it and projects about 8% for the 1 BHK.###Yes###Offered the spot offer valid only until Sunday to push for the EOI"

const demoSummary = `{"CSM_Summaries": [{"CSM Name": "Rohit Sharma", "Strengths": "Clear ROI framing", "Areas of Improvement": "Probe motivation earlier", "Specific Instances": "Explained 8% rental yield"}], "Team_Summary": ["Price rise priming is consistent", "Site visit objections are rarely handled"]}`

// structuredKey only appears, quoted, in prompts asking for a JSON record.
var structuredKey = `"` + types.FieldNames[types.FieldCount-1] + `"`

// Demo returns fixed answers so the whole pipeline runs offline
// (USE_MOCK_LLM=true).
type Demo struct{}

func (Demo) Name() string { return "mock" }

func (Demo) Generate(_ context.Context, prompt string) (string, error) {
	switch {
	case strings.Contains(prompt, "CSM_Summaries"):
		return demoSummary, nil
	case strings.Contains(prompt, structuredKey):
		return demoStructured()
	default:
		return demoAnalysis, nil
	}
}

func demoStructured() (string, error) {
	obj := make(map[string]string, types.FieldCount)
	for i, v := range strings.Split(demoAnalysis, "###") {
		obj[types.FieldNames[i]] = v
	}
	b, err := json.Marshal(obj)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
