package constants

import (
	"path/filepath"
	"strings"
)

// FileFormat is the document family a text extractor understands.
type FileFormat string

const (
	PDF  FileFormat = "PDF"
	DOCX FileFormat = "DOCX"
	XLSX FileFormat = "XLSX"
)

// FileTypes holds the formats accepted by the inference and matching pipelines.
var FileTypes = []FileFormat{PDF, DOCX, XLSX}

// AllowedExtensions maps each accepted document extension to its format.
var AllowedExtensions = map[string]FileFormat{
	"pdf":  PDF,
	"docx": DOCX,
	"xlsx": XLSX,
	"xlsm": XLSX,
	"xls":  XLSX,
}

// SpreadsheetGlob matches every spreadsheet the batch enrichment tool picks up.
const SpreadsheetGlob = "*.xls*"

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// MapExtToFormat returns the format for an extension, or "" when unsupported.
func MapExtToFormat(ext string) FileFormat {
	return AllowedExtensions[NormalizeExt(ext)]
}

// IsSpreadsheet reports whether name matches SpreadsheetGlob.
func IsSpreadsheet(name string) bool {
	ok, _ := filepath.Match(SpreadsheetGlob, strings.ToLower(filepath.Base(name)))
	return ok
}
