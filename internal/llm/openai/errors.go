package openai

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/joseph-ayodele/criteria-extractor/internal/common"
)

const codeContextLength = "context_length_exceeded"

// APIError is a non-2xx answer from the API. It unwraps to one of the
// common upstream sentinels so callers can branch with errors.Is.
type APIError struct {
	StatusCode int
	Type       string
	Code       string
	Message    string
	kind       error
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("openai status %d (%s): %s", e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("openai status %d: %s", e.StatusCode, msg)
}

func (e *APIError) Unwrap() error { return e.kind }

func newAPIError(status int, body []byte) *APIError {
	var env struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    any    `json:"code"`
		} `json:"error"`
	}
	e := &APIError{StatusCode: status}
	if err := json.Unmarshal(body, &env); err == nil {
		e.Message = env.Error.Message
		e.Type = env.Error.Type
		if env.Error.Code != nil {
			e.Code = fmt.Sprint(env.Error.Code)
		}
	} else {
		e.Message = strings.TrimSpace(string(body))
	}
	e.kind = classify(e)
	return e
}

func classify(e *APIError) error {
	switch {
	case e.Code == codeContextLength || strings.Contains(e.Message, "maximum context length"):
		return common.ErrContextLength
	case e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden:
		return common.ErrAuthentication
	case e.StatusCode == http.StatusTooManyRequests:
		return common.ErrRateLimited
	default:
		return common.ErrUpstreamAPI
	}
}
