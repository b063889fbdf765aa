package report

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"
	"sales-auditor-go/internal/types"
)

func sampleReport() types.Report {
	var f1, f2 [types.FieldCount]string
	for i := range f1 {
		f1[i] = "Yes"
		f2[i] = types.Placeholder
	}
	f1[0], f2[0] = "Rohit", "Priya"
	return types.Report{
		Records: []types.CallRecord{
			types.NewCallRecord(f1, "a.pdf"),
			types.NewCallRecord(f2, "b.pdf"),
		},
		AgentSummaries: []types.AgentSummary{
			{CSMName: "Rohit", Strengths: "ROI framing", AreasOfImprovement: "Urgency", SpecificInstances: "8% yield"},
		},
		TeamInsights: []string{"Priming is consistent", "Site visits rarely pushed"},
	}
}

func TestWrite_ThreeSheetsWithRowCounts(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleReport()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	got := f.GetSheetList()
	want := []string{SheetAnalysis, SheetCSM, SheetTeam}
	if len(got) != len(want) {
		t.Fatalf("sheets = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sheet %d = %q, want %q", i, got[i], want[i])
		}
	}

	counts := map[string]int{SheetAnalysis: 2, SheetCSM: 1, SheetTeam: 2}
	for sheet, n := range counts {
		rows, err := f.GetRows(sheet)
		if err != nil {
			t.Fatalf("GetRows(%s): %v", sheet, err)
		}
		if len(rows) != n+1 {
			t.Errorf("%s rows = %d, want %d + header", sheet, len(rows), n)
		}
	}

	header, _ := f.GetRows(SheetAnalysis)
	if header[0][0] != "CSM Name" || header[0][18] != types.SourceFileHeader {
		t.Errorf("analysis header = %v", header[0])
	}
	team, _ := f.GetRows(SheetTeam)
	if team[0][0] != types.TeamInsightHeader || team[2][0] != "Site visits rarely pushed" {
		t.Errorf("team sheet = %v", team)
	}
}

func TestWrite_EmptyReportHasHeaders(t *testing.T) {
	data, err := Bytes(types.Report{})
	if err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, _ := f.GetRows(SheetCSM)
	if len(rows) != 1 {
		t.Fatalf("CSM rows = %d, want header only", len(rows))
	}
}

func TestReadAnalysis_RoundTrip(t *testing.T) {
	rep := sampleReport()
	data, err := Bytes(rep)
	if err != nil {
		t.Fatal(err)
	}
	recs, err := ReadAnalysis(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadAnalysis: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("records = %d, want 2", len(recs))
	}
	if recs[0] != rep.Records[0] || recs[1] != rep.Records[1] {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", recs, rep.Records)
	}
}

func TestReadAnalysis_DecoratedHeaders(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	_ = f.SetSheetRow(sheet, "A1", &[]any{"CSM Name", "⚠️ Obj: Price", "📝 Verbatim Q&A", "File Name"})
	_ = f.SetSheetRow(sheet, "A2", &[]any{"Rohit", "Yes", "Cust: hi -> CSM: hello", "old.pdf"})
	_ = f.SetSheetRow(sheet, "A4", &[]any{"Priya", "No"})
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}

	recs, err := ReadAnalysis(buf)
	if err != nil {
		t.Fatalf("ReadAnalysis: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("records = %d, want 2 (blank row skipped)", len(recs))
	}
	if recs[0].ObjPrice != "Yes" || recs[0].VerbatimQA != "Cust: hi -> CSM: hello" || recs[0].SourceFile != "old.pdf" {
		t.Errorf("record 0 = %+v", recs[0])
	}
	if recs[0].ObjROI != types.Placeholder {
		t.Errorf("absent column should be placeholder, got %q", recs[0].ObjROI)
	}
	if recs[1].SourceFile != "row-4" {
		t.Errorf("missing file name should get a row id, got %q", recs[1].SourceFile)
	}
}

func TestReadAnalysis_NoData(t *testing.T) {
	data, _ := Bytes(types.Report{})
	if _, err := ReadAnalysis(bytes.NewReader(data)); err == nil {
		t.Fatal("expected error for header-only sheet")
	}
}
