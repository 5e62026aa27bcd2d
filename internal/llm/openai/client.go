package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/criteria-extractor/internal/common"
	"github.com/joseph-ayodele/criteria-extractor/internal/llm"
	"github.com/joseph-ayodele/criteria-extractor/internal/llm/tokencount"
)

var (
	_ llm.CriteriaExtractor = (*Client)(nil)
	_ llm.CriteriaMatcher   = (*Client)(nil)
)

// ExtractCriteria implements llm.CriteriaExtractor using chat/completions in JSON mode.
func (c *Client) ExtractCriteria(ctx context.Context, req llm.ExtractRequest) (llm.ExtractResponse, error) {
	rid := requestID(ctx)
	start := time.Now()
	c.log.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"text_len", len(req.Text),
		"filename", req.Filename,
	)

	sys, user := llm.BuildExtractionPrompts(req.Text)
	content, err := c.complete(ctx, rid, "extract", sys, user, c.cfg.Temperature)
	if err != nil {
		return llm.ExtractResponse{}, err
	}

	decoded, err := llm.DecodeShape(content)
	if err != nil {
		c.log.Error("llm.extract.shape_error",
			"req_id", rid, "error", err, "content", string(content),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.ExtractResponse{Raw: content}, err
	}
	criteria, dropped := llm.NormalizeCriteria(decoded.Items)
	if len(dropped) > 0 {
		c.log.Warn("llm.extract.items_dropped", "req_id", rid, "dropped", dropped)
	}

	c.log.Info("llm.extract.ok",
		"req_id", rid,
		"shape", decoded.Shape.String(),
		"key", decoded.Key,
		"criteria", len(criteria),
		"dropped", len(dropped),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return llm.ExtractResponse{Criteria: criteria, Shape: decoded.Shape, Dropped: dropped, Raw: content}, nil
}

// MatchCriteria implements llm.CriteriaMatcher.
func (c *Client) MatchCriteria(ctx context.Context, req llm.MatchRequest) (llm.MatchResponse, error) {
	rid := requestID(ctx)
	start := time.Now()
	c.log.Info("llm.match.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.MatchTemperature,
		"criteria", len(req.Criteria),
		"text_len", len(req.Text),
		"filename", req.Filename,
	)

	sys, user := llm.BuildMatchingPrompts(req.Criteria, req.Text)
	content, err := c.complete(ctx, rid, "match", sys, user, c.cfg.MatchTemperature)
	if err != nil {
		return llm.MatchResponse{}, err
	}

	decoded, err := llm.DecodeShape(content)
	if err != nil {
		c.log.Error("llm.match.shape_error",
			"req_id", rid, "error", err, "content", string(content),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.MatchResponse{Raw: content}, err
	}
	matches, dropped := llm.NormalizeMatches(decoded.Items, req.Criteria)
	if len(dropped) > 0 {
		c.log.Warn("llm.match.items_dropped", "req_id", rid, "dropped", dropped)
	}

	c.log.Info("llm.match.ok",
		"req_id", rid,
		"shape", decoded.Shape.String(),
		"matches", len(matches),
		"dropped", len(dropped),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return llm.MatchResponse{Matches: matches, Shape: decoded.Shape, Dropped: dropped, Raw: content}, nil
}

// complete sends one system+user exchange and returns the message content.
func (c *Client) complete(ctx context.Context, rid, op, sys, user string, temp float32) ([]byte, error) {
	start := time.Now()

	tokens, err := tokencount.CountChat(sys, user)
	if err != nil {
		c.log.Debug("llm.tokens.estimate", "req_id", rid, "error", err)
		tokens = tokencount.Estimate(sys, user)
	}
	if c.cfg.MaxPromptTokens > 0 && tokens > c.cfg.MaxPromptTokens {
		// the API has the final word; it answers context_length_exceeded
		c.log.Warn("llm."+op+".prompt_too_large",
			"req_id", rid, "prompt_tokens", tokens, "max", c.cfg.MaxPromptTokens)
	}

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     temp,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": sys},
			{"role": "user", "content": user},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		c.log.Error("llm."+op+".http_error",
			"req_id", rid, "error", err, "prompt_tokens", tokens,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.log.Error("llm."+op+".decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, fmt.Errorf("%w: decode openai response: %v", common.ErrUpstreamAPI, err)
	}
	if len(cc.Choices) == 0 {
		c.log.Error("llm."+op+".no_choices",
			"req_id", rid, "raw", string(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, fmt.Errorf("%w: no choices in openai response", common.ErrUpstreamAPI)
	}
	return []byte(strings.TrimSpace(cc.Choices[0].Message.Content)), nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUpstreamConnection, err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.log.Warn("openai response body close error", "error", err)
		}
	}(resp.Body)

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("%w: read body: %v", common.ErrUpstreamConnection, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(resp.StatusCode, buf.Bytes())
	}
	return buf.Bytes(), nil
}

func requestID(ctx context.Context) string {
	if rid := common.RequestIDFromContext(ctx); rid != "" {
		return rid
	}
	return uuid.New().String()
}
