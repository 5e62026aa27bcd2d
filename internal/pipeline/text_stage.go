package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/criteria-extractor/constants"
	"github.com/joseph-ayodele/criteria-extractor/internal/textextract"
)

// textStage is stage 1 of both pipelines. ok is false when the text is
// missing or too short to be worth a model call.
type textStage struct {
	extractor textextract.TextExtractor
	logger    *slog.Logger
}

func (s textStage) run(ctx context.Context, name string, data []byte) (text string, warnings []string, ok bool) {
	res, err := s.extractor.Extract(ctx, name, data)
	if err != nil {
		return "", []string{fmt.Sprintf("text extraction failed for %s: %s", name, Describe(err))}, false
	}
	warnings = append(warnings, res.Warnings...)
	if tooShort(res.Text) {
		s.logger.WarnContext(ctx, "pipeline.text.too_short", "file", name, "chars", len([]rune(res.Text)))
		warnings = append(warnings, fmt.Sprintf("extracted text is shorter than %d characters; nothing sent to the model", constants.MinDocumentChars))
		return res.Text, warnings, false
	}
	return res.Text, warnings, true
}
