// Package dispatch posts enriched documents to a remote endpoint.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/criteria-extractor/constants"
	"github.com/joseph-ayodele/criteria-extractor/internal/utils"
)

const defaultTimeout = 30 * time.Second

// BearerHeader builds the Authorization value. A token that already carries
// a "Bearer " prefix (any case) is passed through unchanged.
func BearerHeader(token string) string {
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return token
	}
	return "Bearer " + strings.TrimSpace(token)
}

// Result describes a completed POST.
type Result struct {
	StatusCode int
	Snippet    string
	Elapsed    time.Duration
}

// OK reports a 2xx status.
func (r Result) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Snippet    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("dispatch status %d: %s", e.StatusCode, e.Snippet)
}

// Client posts JSON documents. It never retries.
type Client struct {
	http    *http.Client
	verbose bool
	logger  *slog.Logger
}

type Option func(*Client)

// WithHTTPClient overrides the underlying client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithVerbose adds URL, headers and a payload preview to failure logs.
func WithVerbose(v bool) Option {
	return func(c *Client) { c.verbose = v }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

func NewClient(logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{http: &http.Client{Timeout: defaultTimeout}, logger: logger}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Post sends doc to endpoint. Transport failures and non-2xx statuses are
// logged and returned; the caller decides whether they are fatal.
func (c *Client) Post(ctx context.Context, endpoint, token string, doc any) (Result, error) {
	reqID := uuid.New().String()
	start := time.Now()

	body, err := json.Marshal(doc)
	if err != nil {
		c.logger.ErrorContext(ctx, "dispatch.encode_error", "req_id", reqID, "error", err)
		return Result{}, fmt.Errorf("encode json: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		c.logger.ErrorContext(ctx, "dispatch.build_request_error", "req_id", reqID, "error", err)
		return Result{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", BearerHeader(token))

	c.logger.DebugContext(ctx, "dispatch.post.start", "req_id", reqID, "url", endpoint, "content_length", len(body))

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "dispatch.post.error",
			"req_id", reqID,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		c.logDetails(ctx, reqID, endpoint, req.Header, body)
		return Result{Elapsed: time.Since(start)}, fmt.Errorf("post %s: %w", endpoint, err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.logger.WarnContext(ctx, "dispatch.response_body_close_error", "req_id", reqID, "error", err)
		}
	}(resp.Body)

	// a rune is at most 4 bytes, so this always covers the snippet
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4*constants.DispatchSnippetChars))
	if err != nil {
		c.logger.WarnContext(ctx, "dispatch.read_body_error",
			"req_id", reqID,
			"status", resp.StatusCode,
			"read_bytes", len(raw),
			"error", err,
		)
	}
	res := Result{
		StatusCode: resp.StatusCode,
		Snippet:    utils.Snippet(string(raw), constants.DispatchSnippetChars),
		Elapsed:    time.Since(start),
	}

	if !res.OK() {
		c.logger.ErrorContext(ctx, "dispatch.post.status_error",
			"req_id", reqID,
			"status", res.StatusCode,
			"body", res.Snippet,
			"elapsed_ms", res.Elapsed.Milliseconds(),
		)
		c.logDetails(ctx, reqID, endpoint, req.Header, body)
		return res, &StatusError{StatusCode: res.StatusCode, Snippet: res.Snippet}
	}

	c.logger.InfoContext(ctx, "dispatch.post.ok",
		"req_id", reqID,
		"status", res.StatusCode,
		"body", res.Snippet,
		"elapsed_ms", res.Elapsed.Milliseconds(),
	)
	return res, nil
}

func (c *Client) logDetails(ctx context.Context, reqID, endpoint string, h http.Header, body []byte) {
	if !c.verbose {
		return
	}
	headers := map[string]string{}
	for k := range h {
		headers[k] = h.Get(k)
	}
	if _, ok := headers["Authorization"]; ok {
		headers["Authorization"] = "Bearer ***"
	}
	c.logger.ErrorContext(ctx, "dispatch.post.details",
		"req_id", reqID,
		"url", endpoint,
		"headers", headers,
		"payload_preview", utils.Truncate(string(body), constants.PayloadPreviewChars),
	)
}
