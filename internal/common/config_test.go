package common

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, float32(0.0), cfg.LLM.Temperature)
	assert.Equal(t, float32(0.1), cfg.LLM.MatchTemperature)
	assert.Equal(t, 30*time.Second, cfg.Dispatch.Timeout)
	assert.Equal(t, int64(25<<20), cfg.Server.MaxUploadBytes())
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := []byte(`
llm:
  model: gpt-4o
  timeout: 10s
dispatch:
  endpoint: https://example.org/hook
  token: from-file
log:
  level: debug
`)
	require.NoError(t, os.WriteFile(path, yml, 0o644))

	t.Setenv("API_TOKEN", "from-env")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, 10*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "https://example.org/hook", cfg.Dispatch.Endpoint)
	assert.Equal(t, "from-env", cfg.Dispatch.Token)
	assert.Equal(t, slog.LevelDebug, cfg.Log.SlogLevel())
	// untouched keys keep their defaults
	assert.Equal(t, "https://api.openai.com/v1", cfg.LLM.BaseURL)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("LOG_LEVEL", "chatty")

	_, err := LoadConfig("")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "CONFIG_ERROR", appErr.Code)
}

func TestRequireLLM(t *testing.T) {
	cfg := DefaultConfig()
	assert.ErrorIs(t, cfg.RequireLLM(), ErrInvalidInput)

	cfg.LLM.APIKey = "sk-test"
	assert.NoError(t, cfg.RequireLLM())
}
