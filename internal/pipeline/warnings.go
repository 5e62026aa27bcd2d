// Package pipeline runs the interactive tier: document in, criteria out.
// Failures never escape as errors; they come back as warnings next to an
// empty or partial result.
package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/criteria-extractor/constants"
	"github.com/joseph-ayodele/criteria-extractor/internal/common"
)

// Describe turns a pipeline error into the message shown to the user.
func Describe(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, common.ErrContextLength):
		return "the document is too long for the selected model; try a shorter document or a model with a larger context window"
	case errors.Is(err, common.ErrAuthentication):
		return fmt.Sprintf("model API authentication failed, check the API key: %v", err)
	case errors.Is(err, common.ErrRateLimited):
		return fmt.Sprintf("model API rate limit exceeded, retry later: %v", err)
	case errors.Is(err, common.ErrUpstreamConnection):
		return fmt.Sprintf("could not reach the model API: %v", err)
	case errors.Is(err, common.ErrUpstreamAPI):
		return fmt.Sprintf("model API error: %v", err)
	case errors.Is(err, common.ErrUnrecognizedShape):
		return "the model answered with JSON in an unexpected layout"
	case errors.Is(err, common.ErrUnsupportedFormat):
		return fmt.Sprintf("unsupported file: %v", err)
	case errors.Is(err, common.ErrInvalidInput):
		return fmt.Sprintf("invalid input: %v", err)
	default:
		return fmt.Sprintf("unexpected error: %v", err)
	}
}

// Preview keeps the first n runes of text and marks the cut with "...".
func Preview(text string, n int) string {
	if n <= 0 || utf8.RuneCountInString(text) <= n {
		return text
	}
	return string([]rune(text)[:n]) + "..."
}

func tooShort(text string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) < constants.MinDocumentChars
}
