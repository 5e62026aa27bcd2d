package xls

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/criteria-extractor/internal/common"
)

// Workbook is a read-only view over an excelize file.
type Workbook struct {
	f    *excelize.File
	name string
}

// Open reads a workbook from disk.
func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", common.ErrWorkbookOpen, path, err)
	}
	return &Workbook{f: f, name: path}, nil
}

// OpenReader reads a workbook from an upload stream; name identifies it in logs and cache keys.
func OpenReader(name string, r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", common.ErrWorkbookOpen, name, err)
	}
	return &Workbook{f: f, name: name}, nil
}

func (w *Workbook) Name() string { return w.name }

func (w *Workbook) Close() error {
	return w.f.Close()
}

// SheetNames returns sheet names in workbook order.
func (w *Workbook) SheetNames() []string {
	return w.f.GetSheetList()
}

// ResolveSheet picks a sheet by 1-based index when index > 1, otherwise by
// name, otherwise the first sheet.
func (w *Workbook) ResolveSheet(name string, index int) (string, error) {
	names := w.SheetNames()
	if len(names) == 0 {
		return "", fmt.Errorf("%w: workbook has no sheets", common.ErrInvalidInput)
	}
	if index > 1 {
		if index > len(names) {
			return "", fmt.Errorf("%w: sheet index %d out of range 1..%d", common.ErrInvalidInput, index, len(names))
		}
		return names[index-1], nil
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return names[0], nil
	}
	for _, n := range names {
		if n == name {
			return n, nil
		}
	}
	return "", fmt.Errorf("%w: sheet %q", common.ErrNotFound, name)
}

// Rows returns the sheet's cell grid as formatted strings. Trailing empty
// cells and rows are not included.
func (w *Workbook) Rows(sheet string) ([][]string, error) {
	rows, err := w.f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

// MaxRow is the last row holding data, 0 for an empty sheet.
func (w *Workbook) MaxRow(sheet string) (int, error) {
	rows, err := w.Rows(sheet)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// ColumnCells returns the cells of column between rows start and end, inclusive.
// Missing cells come back as "". end is capped at the sheet's last row.
func (w *Workbook) ColumnCells(sheet, column string, start, end int) ([]string, error) {
	col, err := excelize.ColumnNameToNumber(strings.ToUpper(strings.TrimSpace(column)))
	if err != nil {
		return nil, errors.Join(common.ErrInvalidInput, err)
	}
	if start < 1 || end < start {
		return nil, fmt.Errorf("%w: row range %d-%d", common.ErrInvalidInput, start, end)
	}
	rows, err := w.Rows(sheet)
	if err != nil {
		return nil, err
	}
	if end > len(rows) {
		end = len(rows)
	}
	if end < start {
		return []string{}, nil
	}
	out := make([]string, 0, end-start+1)
	for r := start; r <= end; r++ {
		cell := ""
		if r-1 < len(rows) && col-1 < len(rows[r-1]) {
			cell = rows[r-1][col-1]
		}
		out = append(out, cell)
	}
	return out, nil
}
