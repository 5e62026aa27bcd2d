package textextract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDF concatenates the text layer of every page. Pages without a text
// layer contribute nothing; there is no OCR fallback.
func extractPDF(data []byte) (text string, pages int, warnings []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("read pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, nil, fmt.Errorf("open pdf: %w", err)
	}

	var sb strings.Builder
	pages = r.NumPage()
	for i := 1; i <= pages; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			warnings = append(warnings, fmt.Sprintf("page %d is empty", i))
			continue
		}
		t, err := p.GetPlainText(nil)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("page %d: %v", i, err))
			continue
		}
		sb.WriteString(t)
	}
	return sb.String(), pages, warnings, nil
}
