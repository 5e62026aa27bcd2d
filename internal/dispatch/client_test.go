package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBearerHeader(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{"abc123", "Bearer abc123"},
		{"  abc123 ", "Bearer abc123"},
		{"Bearer abc123", "Bearer abc123"},
		{"bearer abc123", "bearer abc123"},
		{"BEARER   abc", "BEARER   abc"},
		{"Bearerabc", "Bearer Bearerabc"},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			assert.Equal(t, tt.want, BearerHeader(tt.token))
		})
	}
}

func TestPost_Headers(t *testing.T) {
	var gotAuth, gotType string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient(nil)
	doc := map[string]any{"idDomanda": "000000001"}

	res, err := c.Post(context.Background(), srv.URL, "tok", doc)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Equal(t, `{"ok":true}`, res.Snippet)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, "000000001", gotBody["idDomanda"])

	_, err = c.Post(context.Background(), srv.URL, "Bearer already", doc)
	require.NoError(t, err)
	assert.Equal(t, "Bearer already", gotAuth)
}

func TestPost_StatusErrorSnippetAndVerboseLog(t *testing.T) {
	long := strings.Repeat("x", 500)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, long)
	}))
	defer srv.Close()

	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c := NewClient(logger, WithVerbose(true))

	res, err := c.Post(context.Background(), srv.URL, "secret-token", map[string]any{"a": strings.Repeat("y", 400)})
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	assert.Len(t, res.Snippet, 300)
	assert.False(t, res.OK())

	out := logs.String()
	assert.Contains(t, out, "dispatch.post.details")
	assert.Contains(t, out, "payload_preview")
	assert.NotContains(t, out, "secret-token")
}

func TestPost_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(nil).Post(context.Background(), url, "t", map[string]any{})
	require.Error(t, err)
	var se *StatusError
	assert.False(t, errors.As(err, &se))
}

func TestPost_TruncatedBodyIsLogged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "partial")
	}))
	defer srv.Close()

	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	res, err := NewClient(logger).Post(context.Background(), srv.URL, "t", map[string]any{})
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, "partial", res.Snippet)
	assert.Contains(t, logs.String(), "dispatch.read_body_error")
}
