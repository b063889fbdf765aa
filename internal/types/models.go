package types

import "strings"

// Placeholder fills any field the model left out.
const Placeholder = "-"

// FieldCount is the number of semantic fields extracted per call.
const FieldCount = 18

// CallRecord is one analyzed transcript. Yes/No flags keep the model's
// wording so a missing answer stays visible as Placeholder in the export.
type CallRecord struct {
	CSMName      string `json:"csm_name"`
	CustomerName string `json:"customer_name"`

	PrimedPriceRise     string `json:"primed_price_rise"`
	PrimedInventory     string `json:"primed_inventory"`
	PrimedCallValue     string `json:"primed_call_value"`
	PrimedTimeSensitive string `json:"primed_time_sensitive"`

	MotivationChecked  string `json:"motivation_checked"`
	CustomerMotivation string `json:"customer_motivation"`
	PitchTailored      string `json:"pitch_tailored"`

	ObjPrice     string `json:"obj_price"`
	ObjProduct   string `json:"obj_product"`
	ObjLocation  string `json:"obj_location"`
	ObjROI       string `json:"obj_roi"`
	ObjSiteVisit string `json:"obj_site_visit"`
	ObjPayment   string `json:"obj_payment"`

	VerbatimQA     string `json:"verbatim_qa"`
	UrgencyCreated string `json:"urgency_created"`
	ClosingRemarks string `json:"closing_remarks"`

	SourceFile string `json:"file_name"`
}

// FieldNames are the column headers of the per-call sheet, in the order the
// model is asked to return them. SourceFileHeader follows as the last column.
var FieldNames = [FieldCount]string{
	"CSM Name",
	"Customer Name",
	"Primed: Price Rise",
	"Primed: Inventory",
	"Primed: Call Value",
	"Primed: Time Sens.",
	"Motivation Checked?",
	"Customer Motivation",
	"Pitch Tailored?",
	"Obj: Price",
	"Obj: Product",
	"Obj: Location",
	"Obj: ROI",
	"Obj: Site Visit",
	"Obj: Payment",
	"Verbatim Q&A",
	"Urgency Created?",
	"Closing/Urgency Tactic",
}

const SourceFileHeader = "File Name"

// Headers returns the full per-call header row.
func Headers() []string {
	out := make([]string, 0, FieldCount+1)
	out = append(out, FieldNames[:]...)
	return append(out, SourceFileHeader)
}

// NewCallRecord maps exactly FieldCount values positionally.
func NewCallRecord(fields [FieldCount]string, sourceFile string) CallRecord {
	return CallRecord{
		CSMName:             fields[0],
		CustomerName:        fields[1],
		PrimedPriceRise:     fields[2],
		PrimedInventory:     fields[3],
		PrimedCallValue:     fields[4],
		PrimedTimeSensitive: fields[5],
		MotivationChecked:   fields[6],
		CustomerMotivation:  fields[7],
		PitchTailored:       fields[8],
		ObjPrice:            fields[9],
		ObjProduct:          fields[10],
		ObjLocation:         fields[11],
		ObjROI:              fields[12],
		ObjSiteVisit:        fields[13],
		ObjPayment:          fields[14],
		VerbatimQA:          fields[15],
		UrgencyCreated:      fields[16],
		ClosingRemarks:      fields[17],
		SourceFile:          sourceFile,
	}
}

// Fields returns the 18 semantic values in header order.
func (r CallRecord) Fields() [FieldCount]string {
	return [FieldCount]string{
		r.CSMName, r.CustomerName,
		r.PrimedPriceRise, r.PrimedInventory, r.PrimedCallValue, r.PrimedTimeSensitive,
		r.MotivationChecked, r.CustomerMotivation, r.PitchTailored,
		r.ObjPrice, r.ObjProduct, r.ObjLocation, r.ObjROI, r.ObjSiteVisit, r.ObjPayment,
		r.VerbatimQA, r.UrgencyCreated, r.ClosingRemarks,
	}
}

// Row returns the record as one spreadsheet/CSV row, source file last.
func (r CallRecord) Row() []string {
	f := r.Fields()
	out := make([]string, 0, FieldCount+1)
	out = append(out, f[:]...)
	return append(out, r.SourceFile)
}

// IsYes reports whether a flag answer reads as affirmative ("Yes", "Y", "yes - ...").
func IsYes(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "y" || strings.HasPrefix(v, "yes") || strings.HasPrefix(v, "y ")
}
