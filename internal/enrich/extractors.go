package enrich

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/criteria-extractor/constants"
	"github.com/joseph-ayodele/criteria-extractor/internal/utils"
)

var (
	reNarrativeCode = regexp.MustCompile(`(?i)^criterio\s+([A-Z]\d(?:\.\d)?)`)
	reGroupCode     = regexp.MustCompile(`^[A-Z]\d{1,2}$`)
)

// ExtractSubject finds the first cell of column A containing "denominazione"
// and returns the next non-blank cell below it.
func ExtractSubject(rows [][]string) string {
	for i, row := range rows {
		if !strings.Contains(strings.ToLower(utils.FirstCell(row, 0)), "denominazione") {
			continue
		}
		for _, next := range rows[i+1:] {
			v := utils.FirstCell(next, 0)
			if v != "" && !strings.EqualFold(v, "nan") {
				return v
			}
		}
		break
	}
	return constants.UnknownSubject
}

// ExtractNarratives groups column A into per-criterion text. A "criterio X1.2"
// line opens a new entry; following lines are space-joined into it. Lines
// before the first marker are ignored.
func ExtractNarratives(rows [][]string) map[string]string {
	out := make(map[string]string)
	current := ""
	for _, row := range rows {
		line := utils.FirstCell(row, 0)
		if m := reNarrativeCode.FindStringSubmatch(line); m != nil {
			current = strings.ToUpper(m[1])
			out[current] = ""
			continue
		}
		if current == "" || line == "" {
			continue
		}
		out[current] = strings.TrimSpace(out[current] + " " + line)
	}
	return out
}

// ExtractDescriptions maps group codes in column A (e.g. "B12") to the
// description in column B. Rows without a column B cell are skipped.
func ExtractDescriptions(rows [][]string) map[string]string {
	out := make(map[string]string)
	for _, row := range rows {
		key := utils.FirstCell(row, 0)
		if !reGroupCode.MatchString(key) || len(row) < 2 {
			continue
		}
		out[strings.ToUpper(key)] = strings.TrimSpace(row[1])
	}
	return out
}
