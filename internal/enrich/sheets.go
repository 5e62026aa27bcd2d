// Package enrich fills a criteria template from a three-sheet application workbook.
package enrich

import (
	"fmt"
	"strings"

	"github.com/joseph-ayodele/criteria-extractor/internal/common"
)

// FindSheet returns the first sheet whose lowercased name contains every
// keyword, else the sheet at fallback. A negative fallback counts from the end.
func FindSheet(names []string, keywords []string, fallback int) (string, error) {
	for _, n := range names {
		lower := strings.ToLower(n)
		all := true
		for _, k := range keywords {
			if !strings.Contains(lower, k) {
				all = false
				break
			}
		}
		if all {
			return n, nil
		}
	}

	idx := fallback
	if idx < 0 {
		idx = len(names) + idx
	}
	if idx < 0 || idx >= len(names) {
		return "", fmt.Errorf("%w: no sheet matches %v and fallback %d is out of range (%d sheets)",
			common.ErrNotFound, keywords, fallback, len(names))
	}
	return names[idx], nil
}
