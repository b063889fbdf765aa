package report

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"
	"sales-auditor-go/internal/types"
)

var errNoRows = errors.New("no data rows")

// ReadAnalysis reads the per-call sheet of a workbook written by [Write]
// (or the older dashboard export) back into records. Columns are matched by
// header name, ignoring case and decorative prefixes; absent columns become
// types.Placeholder. The first sheet is used when no Analysis sheet exists.
func ReadAnalysis(r io.Reader) ([]types.CallRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	sheet := sheets[0]
	if slices.Contains(sheets, SheetAnalysis) {
		sheet = SheetAnalysis
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, errNoRows
	}

	index := map[string]int{}
	for i, h := range rows[0] {
		index[normalizeHeader(h)] = i
	}
	fieldIdx := make([]int, types.FieldCount)
	for i, name := range types.FieldNames {
		idx, ok := index[normalizeHeader(name)]
		if !ok {
			idx = -1
		}
		fieldIdx[i] = idx
	}
	fileIdx, ok := index[normalizeHeader(types.SourceFileHeader)]
	if !ok {
		fileIdx = -1
	}

	var out []types.CallRecord
	for n, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		var fields [types.FieldCount]string
		for i, idx := range fieldIdx {
			fields[i] = cell(row, idx)
		}
		file := cell(row, fileIdx)
		if file == types.Placeholder {
			file = fmt.Sprintf("row-%d", n+2)
		}
		out = append(out, types.NewCallRecord(fields, file))
	}
	if len(out) == 0 {
		return nil, errNoRows
	}
	return out, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return types.Placeholder
	}
	v := strings.TrimSpace(row[idx])
	if v == "" {
		return types.Placeholder
	}
	return v
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// normalizeHeader drops leading emoji/symbols and lowercases, so
// "⚠️ Obj: Price" matches "Obj: Price".
func normalizeHeader(h string) string {
	h = strings.TrimLeftFunc(h, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.ToLower(strings.TrimSpace(h))
}
