package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/criteria-extractor/constants"
)

// ListSpreadsheets returns the spreadsheets directly inside dir, sorted by
// name. Subdirectories and hidden files are skipped.
func ListSpreadsheets(dir string) ([]string, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("excel dir is required")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || IsHidden(e.Name()) {
			continue
		}
		if !constants.IsSpreadsheet(e.Name()) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	return out, nil
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".")
}

// OutputName maps "domanda.xlsx" to "domanda.json".
func OutputName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".json"
}
