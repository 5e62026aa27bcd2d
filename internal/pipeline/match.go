package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/criteria-extractor/internal/entity"
	"github.com/joseph-ayodele/criteria-extractor/internal/llm"
	"github.com/joseph-ayodele/criteria-extractor/internal/textextract"
)

type MatchResult struct {
	Text     string                    `json:"-"`
	Criteria []entity.GuideCriterion   `json:"criteria"`
	Matches  []entity.MatchedCriterion `json:"matches"`
	Warnings []string                  `json:"warnings"`
}

// MatchService answers a criteria list from an uploaded document.
type MatchService struct {
	text    textStage
	matcher llm.CriteriaMatcher
	logger  *slog.Logger
}

func NewMatchService(te textextract.TextExtractor, cm llm.CriteriaMatcher, logger *slog.Logger) *MatchService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MatchService{text: textStage{extractor: te, logger: logger}, matcher: cm, logger: logger}
}

// Run loads the criteria, extracts the document text and asks the model.
// Like InferService.Run it reports failures as warnings.
func (s *MatchService) Run(ctx context.Context, criteriaJSON []byte, name string, data []byte) MatchResult {
	start := time.Now()
	out := MatchResult{
		Criteria: []entity.GuideCriterion{},
		Matches:  []entity.MatchedCriterion{},
		Warnings: []string{},
	}

	criteria, err := llm.LoadGuideCriteria(criteriaJSON)
	if err != nil {
		s.logger.WarnContext(ctx, "pipeline.match.criteria_invalid", "error", err)
		out.Warnings = append(out.Warnings, fmt.Sprintf("could not load the criteria: %s", Describe(err)))
		return out
	}
	out.Criteria = criteria

	text, warnings, ok := s.text.run(ctx, name, data)
	out.Text = text
	out.Warnings = append(out.Warnings, warnings...)
	if !ok {
		return out
	}

	resp, err := s.matcher.MatchCriteria(ctx, llm.MatchRequest{Criteria: criteria, Text: text, Filename: name})
	if err != nil {
		s.logger.ErrorContext(ctx, "pipeline.match.error", "file", name, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		out.Warnings = append(out.Warnings, Describe(err))
		return out
	}
	if len(resp.Dropped) > 0 {
		out.Warnings = append(out.Warnings, droppedWarning(len(resp.Dropped)))
	}
	out.Matches = resp.Matches
	if out.Matches == nil {
		out.Matches = []entity.MatchedCriterion{}
	}
	if len(out.Matches) < len(criteria) {
		out.Warnings = append(out.Warnings,
			fmt.Sprintf("the model answered %d of %d criteria", len(out.Matches), len(criteria)))
	}

	s.logger.InfoContext(ctx, "pipeline.match.ok",
		"file", name,
		"criteria", len(criteria),
		"matches", len(out.Matches),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out
}

func droppedWarning(n int) string {
	return fmt.Sprintf("%d malformed item(s) in the model answer were skipped", n)
}
