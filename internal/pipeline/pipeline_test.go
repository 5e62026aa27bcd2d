package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/criteria-extractor/internal/common"
	"github.com/joseph-ayodele/criteria-extractor/internal/entity"
	"github.com/joseph-ayodele/criteria-extractor/internal/llm"
	"github.com/joseph-ayodele/criteria-extractor/internal/textextract"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var longText = strings.Repeat("Criterio A1 qualità del progetto. ", 4)

type fakeText struct {
	text string
	err  error
}

func (f fakeText) Extract(_ context.Context, _ string, _ []byte) (textextract.Result, error) {
	return textextract.Result{Text: f.text}, f.err
}

type fakeLLM struct {
	extract llm.ExtractResponse
	match   llm.MatchResponse
	err     error
	calls   int
	lastReq llm.MatchRequest
}

func (f *fakeLLM) ExtractCriteria(_ context.Context, _ llm.ExtractRequest) (llm.ExtractResponse, error) {
	f.calls++
	return f.extract, f.err
}

func (f *fakeLLM) MatchCriteria(_ context.Context, req llm.MatchRequest) (llm.MatchResponse, error) {
	f.calls++
	f.lastReq = req
	return f.match, f.err
}

func TestInfer_OK(t *testing.T) {
	model := &fakeLLM{extract: llm.ExtractResponse{
		Criteria: []entity.Criterion{{ID: "A1", Description: "Quality"}},
		Dropped:  []string{"item 1: empty"},
	}}
	res := NewInferService(fakeText{text: longText}, model, testLogger()).Run(context.Background(), "doc.pdf", nil)

	assert.Equal(t, []entity.Criterion{{ID: "A1", Description: "Quality"}}, res.Criteria)
	assert.Equal(t, longText, res.Text)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "1 malformed")
}

func TestInfer_ShortTextSkipsModel(t *testing.T) {
	model := &fakeLLM{}
	res := NewInferService(fakeText{text: "  short  "}, model, testLogger()).Run(context.Background(), "doc.pdf", nil)

	assert.Zero(t, model.calls)
	assert.Empty(t, res.Criteria)
	assert.NotNil(t, res.Criteria)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "50")
}

func TestInfer_ExtractionError(t *testing.T) {
	model := &fakeLLM{}
	te := fakeText{err: fmt.Errorf("%w: .txt", common.ErrUnsupportedFormat)}
	res := NewInferService(te, model, testLogger()).Run(context.Background(), "notes.txt", nil)

	assert.Zero(t, model.calls)
	assert.Empty(t, res.Criteria)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "unsupported file")
}

func TestInfer_ModelErrorsBecomeWarnings(t *testing.T) {
	cases := map[string]struct {
		err  error
		want string
	}{
		"context": {fmt.Errorf("wrap: %w", common.ErrContextLength), "too long"},
		"auth":    {common.ErrAuthentication, "API key"},
		"rate":    {common.ErrRateLimited, "rate limit"},
		"conn":    {common.ErrUpstreamConnection, "could not reach"},
		"api":     {common.ErrUpstreamAPI, "model API error"},
		"shape":   {common.ErrUnrecognizedShape, "unexpected layout"},
		"other":   {io.ErrUnexpectedEOF, "unexpected error"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			res := NewInferService(fakeText{text: longText}, &fakeLLM{err: tc.err}, testLogger()).
				Run(context.Background(), "doc.docx", nil)
			assert.Empty(t, res.Criteria)
			require.Len(t, res.Warnings, 1)
			assert.Contains(t, res.Warnings[0], tc.want)
		})
	}
}

func TestInfer_NoCriteriaFound(t *testing.T) {
	res := NewInferService(fakeText{text: longText}, &fakeLLM{}, testLogger()).Run(context.Background(), "doc.pdf", nil)
	assert.Empty(t, res.Criteria)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "no criteria")
}

func TestMatch_OK(t *testing.T) {
	model := &fakeLLM{match: llm.MatchResponse{Matches: []entity.MatchedCriterion{
		{ID: "A1", Guide: "Quality", Answer: "Section 2."},
	}}}
	res := NewMatchService(fakeText{text: longText}, model, testLogger()).
		Run(context.Background(), []byte(`[{"A1":"Quality"},{"B1":"Budget"}]`), "doc.pdf", nil)

	assert.Len(t, res.Criteria, 2)
	assert.Len(t, res.Matches, 1)
	assert.Equal(t, longText, model.lastReq.Text)
	assert.Len(t, model.lastReq.Criteria, 2)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "1 of 2")
}

func TestMatch_BadCriteria(t *testing.T) {
	model := &fakeLLM{}
	res := NewMatchService(fakeText{text: longText}, model, testLogger()).
		Run(context.Background(), []byte(`{"a":1}`), "doc.pdf", nil)

	assert.Zero(t, model.calls)
	assert.Empty(t, res.Matches)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "could not load the criteria")
}

func TestMatch_ModelError(t *testing.T) {
	res := NewMatchService(fakeText{text: longText}, &fakeLLM{err: common.ErrRateLimited}, testLogger()).
		Run(context.Background(), []byte(`[{"criterio_id":"A1"}]`), "doc.pdf", nil)
	assert.Empty(t, res.Matches)
	assert.NotNil(t, res.Matches)
	assert.Len(t, res.Criteria, 1)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "rate limit")
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "abc", Preview("abc", 5))
	assert.Equal(t, "àbc...", Preview("àbcdef", 3))
	assert.Equal(t, "abc", Preview("abc", 0))
}
