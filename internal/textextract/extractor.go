package textextract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/criteria-extractor/constants"
	"github.com/joseph-ayodele/criteria-extractor/internal/common"
)

// Extractor dispatches on the detected document format.
type Extractor struct {
	logger *slog.Logger
}

func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

func (e *Extractor) Extract(ctx context.Context, name string, data []byte) (Result, error) {
	start := time.Now()

	format, err := DetectFormat(name, data)
	if err != nil {
		e.logger.WarnContext(ctx, "textextract.unsupported", "file", name, "error", err)
		return Result{}, err
	}

	res := Result{Format: format}
	switch format {
	case constants.PDF:
		res.Method = "pdf-text"
		res.Text, res.Pages, res.Warnings, err = extractPDF(data)
	case constants.DOCX:
		res.Method = "docx-xml"
		res.Text, err = extractDOCX(data)
	case constants.XLSX:
		res.Method = "xlsx-cells"
		res.Text, res.Pages, err = extractXLSX(data)
	default:
		err = fmt.Errorf("%w: %s", common.ErrUnsupportedFormat, format)
	}
	res.Duration = time.Since(start)
	if err != nil {
		e.logger.ErrorContext(ctx, "textextract.error", "file", name, "format", format, "error", err)
		return res, err
	}

	if strings.TrimSpace(res.Text) == "" {
		res.Warnings = append(res.Warnings, common.ErrEmptyText.Error())
	}
	e.logger.InfoContext(ctx, "textextract.ok",
		"file", name,
		"format", format,
		"method", res.Method,
		"pages", res.Pages,
		"chars", len([]rune(res.Text)),
		"warnings", len(res.Warnings),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}
