// Package xls extracts criterion records from one column of a spreadsheet.
package xls

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/criteria-extractor/internal/entity"
)

var (
	// reSubCode marks "CRITERIO A1.2"; the description is the next non-blank cell.
	reSubCode = regexp.MustCompile(`(?i)^\s*CRITERIO\s+([A-Z]\d(?:\.\d+)*)`)
	// reMainCode matches "A1 - description" or "A1 description" on one cell.
	reMainCode = regexp.MustCompile(`^\s*([A-Z]\d+)\s*[- ]\s*(.+)`)
)

// ParseRecords scans cells in order and emits one record per recognised code.
//
// A pending sub-code consumes the next non-blank cell verbatim, whatever it
// holds. The sub-code pattern is always tried before the main pattern, so
// "CRITERIO A1 - x" opens a pending code rather than emitting a record. A
// pending code still open at the end of the range is dropped.
func ParseRecords(cells []string) []entity.Record {
	records := make([]entity.Record, 0)
	pending := ""

	for _, raw := range cells {
		text := strings.TrimSpace(raw)
		if text == "" {
			continue
		}

		if pending != "" {
			records = append(records, entity.Record{Code: pending, Text: text})
			pending = ""
			continue
		}

		if m := reSubCode.FindStringSubmatch(text); m != nil {
			pending = m[1]
			continue
		}

		if m := reMainCode.FindStringSubmatch(text); m != nil {
			records = append(records, entity.Record{Code: m[1], Text: strings.TrimSpace(m[2])})
		}
	}
	return records
}

// Codes lists record codes in source order, duplicates included.
func Codes(records []entity.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Code)
	}
	return out
}

// FilterCodes keeps records whose code is selected. A nil selection keeps
// everything; an empty non-nil selection keeps nothing.
func FilterCodes(records []entity.Record, selected []string) []entity.Record {
	if selected == nil {
		return records
	}
	keep := make(map[string]struct{}, len(selected))
	for _, c := range selected {
		keep[strings.TrimSpace(c)] = struct{}{}
	}
	out := make([]entity.Record, 0, len(records))
	for _, r := range records {
		if _, ok := keep[r.Code]; ok {
			out = append(out, r)
		}
	}
	return out
}
