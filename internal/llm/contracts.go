package llm

import (
	"context"

	"github.com/joseph-ayodele/criteria-extractor/internal/entity"
)

type ExtractRequest struct {
	Text     string
	Filename string
}

// ExtractResponse carries the validated criteria plus what was dropped on the way.
type ExtractResponse struct {
	Criteria []entity.Criterion
	Shape    Shape
	Dropped  []string
	Raw      []byte
}

type MatchRequest struct {
	Criteria []entity.GuideCriterion
	Text     string
	Filename string
}

type MatchResponse struct {
	Matches []entity.MatchedCriterion
	Shape   Shape
	Dropped []string
	Raw     []byte
}

// CriteriaExtractor infers criteria from unstructured document text.
type CriteriaExtractor interface {
	ExtractCriteria(ctx context.Context, req ExtractRequest) (ExtractResponse, error)
}

// CriteriaMatcher answers a list of criteria from a document.
type CriteriaMatcher interface {
	MatchCriteria(ctx context.Context, req MatchRequest) (MatchResponse, error)
}
