// Package textextract turns uploaded PDF, DOCX and XLSX documents into plain text.
package textextract

import (
	"context"
	"time"

	"github.com/joseph-ayodele/criteria-extractor/constants"
)

// TextExtractor is stage 1 of the model pipelines: file -> text.
type TextExtractor interface {
	Extract(ctx context.Context, name string, data []byte) (Result, error)
}

type Result struct {
	Text     string
	Pages    int // PDF pages or workbook sheets; 0 for DOCX
	Format   constants.FileFormat
	Method   string // "pdf-text" | "docx-xml" | "xlsx-cells"
	Duration time.Duration
	Warnings []string
}
