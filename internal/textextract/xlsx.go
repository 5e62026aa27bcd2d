package textextract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// extractXLSX reads every sheet column by column: the non-empty cells of a
// column are space-joined and followed by a space, and each sheet ends with
// a newline.
func extractXLSX(data []byte) (string, int, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", 0, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	var sb strings.Builder
	for _, sheet := range sheets {
		cols, err := f.GetCols(sheet)
		if err != nil {
			return "", 0, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		for _, col := range cols {
			cells := make([]string, 0, len(col))
			for _, c := range col {
				if strings.TrimSpace(c) != "" {
					cells = append(cells, c)
				}
			}
			if len(cells) == 0 {
				continue
			}
			sb.WriteString(strings.Join(cells, " "))
			sb.WriteString(" ")
		}
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String()), len(sheets), nil
}
