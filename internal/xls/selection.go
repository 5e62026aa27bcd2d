package xls

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/criteria-extractor/internal/common"
	"github.com/joseph-ayodele/criteria-extractor/internal/entity"
)

// Selection names the sheet, column and row range to scan.
// Zero row bounds select the whole column.
type Selection struct {
	Sheet      string
	SheetIndex int
	Column     string
	RowStart   int
	RowEnd     int
}

// Resolved is a Selection bound to a concrete workbook.
type Resolved struct {
	Sheet    string
	Column   string
	RowStart int
	RowEnd   int
	MaxRow   int
}

// Resolve binds sel to wb: it picks the sheet, upper-cases the column and
// fills in the full-column range.
func Resolve(wb *Workbook, sel Selection) (Resolved, error) {
	sheet, err := wb.ResolveSheet(sel.Sheet, sel.SheetIndex)
	if err != nil {
		return Resolved{}, err
	}
	column := strings.ToUpper(strings.TrimSpace(sel.Column))
	if column == "" {
		column = "A"
	}
	if _, err := excelize.ColumnNameToNumber(column); err != nil {
		return Resolved{}, fmt.Errorf("%w: column %q", common.ErrInvalidInput, sel.Column)
	}
	maxRow, err := wb.MaxRow(sheet)
	if err != nil {
		return Resolved{}, err
	}

	start, end := sel.RowStart, sel.RowEnd
	if start == 0 && end == 0 {
		start, end = 1, maxRow
	}
	if start == 0 {
		start = 1
	}
	if end == 0 || end > maxRow {
		end = maxRow
	}
	if start < 1 || (maxRow > 0 && end < start) {
		return Resolved{}, fmt.Errorf("%w: row range %d-%d", common.ErrInvalidInput, start, end)
	}
	return Resolved{Sheet: sheet, Column: column, RowStart: start, RowEnd: end, MaxRow: maxRow}, nil
}

// ParseSheet reads the resolved range and parses it.
func ParseSheet(wb *Workbook, r Resolved) ([]entity.Record, error) {
	if r.MaxRow == 0 || r.RowEnd < r.RowStart {
		return []entity.Record{}, nil
	}
	cells, err := wb.ColumnCells(r.Sheet, r.Column, r.RowStart, r.RowEnd)
	if err != nil {
		return nil, err
	}
	return ParseRecords(cells), nil
}
