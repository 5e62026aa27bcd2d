package textextract

import (
	"fmt"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"

	"github.com/joseph-ayodele/criteria-extractor/constants"
	"github.com/joseph-ayodele/criteria-extractor/internal/common"
)

var mimeFormats = map[string]constants.FileFormat{
	"application/pdf": constants.PDF,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": constants.DOCX,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       constants.XLSX,
}

// DetectFormat trusts a known extension and falls back to content sniffing.
func DetectFormat(name string, data []byte) (constants.FileFormat, error) {
	if f := constants.MapExtToFormat(filepath.Ext(name)); f != "" {
		return f, nil
	}
	mt := mimetype.Detect(data)
	for m := mt; m != nil; m = m.Parent() {
		if f, ok := mimeFormats[m.String()]; ok {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %s (%s), expected one of %v", common.ErrUnsupportedFormat, filepath.Base(name), mt.String(), constants.FileTypes)
}
