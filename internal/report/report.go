// Package report renders a run into the three-sheet xlsx workbook and reads
// the per-call sheet back.
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
	"sales-auditor-go/internal/types"
)

// Sheet names, in workbook order.
const (
	SheetAnalysis = "Analysis"
	SheetCSM      = "CSM Summary"
	SheetTeam     = "Team Stats"
)

// DefaultFileName is the download name used when none is configured.
const DefaultFileName = "GOAA_Report.xlsx"

// ContentType is the MIME type of the workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Build lays out rep as a workbook. The caller owns the returned file and
// must Close it.
func Build(rep types.Report) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), SheetAnalysis); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetCSM, SheetTeam} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("new sheet %q: %w", name, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("header style: %w", err)
	}

	analysis := make([][]string, 0, len(rep.Records))
	for _, r := range rep.Records {
		analysis = append(analysis, r.Row())
	}
	agents := make([][]string, 0, len(rep.AgentSummaries))
	for _, a := range rep.AgentSummaries {
		agents = append(agents, a.Row())
	}
	team := make([][]string, 0, len(rep.TeamInsights))
	for _, s := range rep.TeamInsights {
		team = append(team, []string{s})
	}

	sheets := []struct {
		name   string
		header []string
		rows   [][]string
	}{
		{SheetAnalysis, types.Headers(), analysis},
		{SheetCSM, types.AgentSummaryHeaders, agents},
		{SheetTeam, []string{types.TeamInsightHeader}, team},
	}
	for _, s := range sheets {
		if err := writeSheet(f, s.name, s.header, s.rows, bold); err != nil {
			f.Close()
			return nil, err
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]string, headerStyle int) error {
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	for i, row := range rows {
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("%s: header style: %w", sheet, err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", lastCol, 24); err != nil {
		return fmt.Errorf("%s: column width: %w", sheet, err)
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	vals := make([]any, len(values))
	for i, v := range values {
		vals[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
		return fmt.Errorf("%s: row %d: %w", sheet, row, err)
	}
	return nil
}

// Write streams the workbook for rep to w.
func Write(w io.Writer, rep types.Report) error {
	f, err := Build(rep)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Bytes renders rep into memory.
func Bytes(rep types.Report) ([]byte, error) {
	f, err := Build(rep)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
