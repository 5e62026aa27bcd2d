package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/criteria-extractor/internal/entity"
	"github.com/joseph-ayodele/criteria-extractor/internal/llm"
	"github.com/joseph-ayodele/criteria-extractor/internal/textextract"
)

type InferResult struct {
	Text     string             `json:"-"`
	Criteria []entity.Criterion `json:"criteria"`
	Warnings []string           `json:"warnings"`
}

// InferService infers criteria from an uploaded document.
type InferService struct {
	text      textStage
	extractor llm.CriteriaExtractor
	logger    *slog.Logger
}

func NewInferService(te textextract.TextExtractor, ce llm.CriteriaExtractor, logger *slog.Logger) *InferService {
	if logger == nil {
		logger = slog.Default()
	}
	return &InferService{text: textStage{extractor: te, logger: logger}, extractor: ce, logger: logger}
}

// Run never fails: problems are reported in Warnings and Criteria is empty.
func (s *InferService) Run(ctx context.Context, name string, data []byte) InferResult {
	start := time.Now()
	out := InferResult{Criteria: []entity.Criterion{}, Warnings: []string{}}

	text, warnings, ok := s.text.run(ctx, name, data)
	out.Text = text
	out.Warnings = append(out.Warnings, warnings...)
	if !ok {
		return out
	}

	resp, err := s.extractor.ExtractCriteria(ctx, llm.ExtractRequest{Text: text, Filename: name})
	if err != nil {
		s.logger.ErrorContext(ctx, "pipeline.infer.error", "file", name, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		out.Warnings = append(out.Warnings, Describe(err))
		return out
	}
	if len(resp.Dropped) > 0 {
		out.Warnings = append(out.Warnings, droppedWarning(len(resp.Dropped)))
	}
	if len(resp.Criteria) > 0 {
		out.Criteria = resp.Criteria
	} else {
		out.Warnings = append(out.Warnings, "the model found no criteria in the document")
	}

	s.logger.InfoContext(ctx, "pipeline.infer.ok",
		"file", name,
		"criteria", len(out.Criteria),
		"warnings", len(out.Warnings),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out
}
