package extractor

import (
	"strings"

	"sales-auditor-go/internal/types"
)

// Delimiter separates the fields of a delimited analysis response.
const Delimiter = "###"

// languageRule is shared by every prompt sent to the model.
const languageRule = `**STRICT LANGUAGE RULE:**
1. THE OUTPUT MUST BE 100% ENGLISH.
2. DO NOT USE HINDI SCRIPT (Devanagari) OR ANY OTHER NON-LATIN SCRIPT.
3. If the transcript contains Hindi or another language, TRANSLATE the specific quotes into English.`

// referenceGuide grounds the audit in the project being sold. It is context
// for the model, not data to return.
const referenceGuide = `**REFERENCE DOCUMENT HIGHLIGHTS (THE "GUIDE"):**
1. **Project:** G.O.A.A. Premium Residences, Bicholim (North Goa). 40 mins from MOPA Airport.
2. **Product:** 1 BHK & 2 BHK Premium Serviced Residences. Serviced by MIROS Hotels & Resorts (5-Star).
3. **USP:** Man-made sea & beach, 130+ acre resort ecosystem, high rental yield (~8% for 1BHK).
4. **Offers:** Club Membership Waiver (~10L), Spot Offer (70k), Corpus Waiver (1.30L), Payment Plan (25:25:25:25).
5. **Growth:** 3X appreciation in 7 years (Colliers Report).`

const analysisTasks = `**YOUR TASK: Extract the following fields.**

**1. Customer Priming (Yes/No):**
   - Price Rise Awareness
   - Limited Inventory Awareness
   - Value of attending this call
   - Time-sensitive window

**2. Motivation & Tailoring:**
   - **Motivation Checked?** (Yes/No)
   - **Identified Motivation:** (e.g., Rental Yield, Holiday Home).
   - **Tailored Pitch?** Did the CSM adapt the pitch? (Yes/No).

**3. Objections (Bucketing):**
   Mark "Yes" if raised:
   - Price Related
   - Product Related
   - Location Related
   - ROI Related
   - Site Visit Related
   - Payment Terms Related

**4. Q&A Log (Verbatim):**
   Format: "Cust: [Quote] -> CSM: [Quote]"

**5. Urgency Creation:**
   - **Urgency Established?** (Yes/No)
   - **Closing Remarks:** How did they push for the EOI?`

// outputFields is the field order as spelled out to the model.
var outputFields = [types.FieldCount]string{
	"CSM Name",
	"Customer Name",
	"Primed: Price Rise (Y/N)",
	"Primed: Inventory (Y/N)",
	"Primed: Call Value (Y/N)",
	"Primed: Time Sensitive (Y/N)",
	"Motivation Checked (Y/N)",
	"Customer Motivation",
	"Pitch Tailored (Y/N)",
	"Obj: Price (Y/N)",
	"Obj: Product (Y/N)",
	"Obj: Location (Y/N)",
	"Obj: ROI (Y/N)",
	"Obj: Site Visit (Y/N)",
	"Obj: Payment (Y/N)",
	"Verbatim Q&A",
	"Urgency Created (Y/N)",
	"Closing Remarks/Urgency Tactic",
}

func header() string {
	return `You are a QA Auditor for 'The House of Abhinandan Lodha' (HoABL) specifically for the project 'G.O.A.A. Premium Residences'.
Analyze this sales call transcript.

` + languageRule + "\n\n" + referenceGuide + "\n\n" + analysisTasks + "\n\n"
}

// BuildAnalysisPrompt asks for a single '###' separated line of 18 fields.
// transcript must already be truncated by the caller.
func BuildAnalysisPrompt(transcript string) string {
	var b strings.Builder
	b.WriteString(header())
	b.WriteString("**OUTPUT FORMAT:**\n")
	b.WriteString("Return a SINGLE line separated by '###' delimiters containing exactly these 18 fields:\n")
	b.WriteString(strings.Join(outputFields[:], Delimiter))
	b.WriteString("\n\n**TRANSCRIPT:**\n")
	b.WriteString(transcript)
	return b.String()
}

// BuildStructuredPrompt asks for one JSON object keyed by the column headers.
func BuildStructuredPrompt(transcript string) string {
	var b strings.Builder
	b.WriteString(header())
	b.WriteString("**OUTPUT FORMAT:**\n")
	b.WriteString("Return ONLY one valid JSON object, no commentary and no code fences, with exactly these keys:\n")
	for _, name := range types.FieldNames {
		b.WriteString(`  "` + name + `"` + "\n")
	}
	b.WriteString(`Use "Yes" or "No" for the flag fields and a string for every other field.`)
	b.WriteString("\n\n**TRANSCRIPT:**\n")
	b.WriteString(transcript)
	return b.String()
}

// Truncate keeps the first max runes of text.
func Truncate(text string, max int) string {
	if max <= 0 {
		return text
	}
	n := 0
	for i := range text {
		if n == max {
			return text[:i]
		}
		n++
	}
	return text
}
