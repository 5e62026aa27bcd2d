package common

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	LLM      LLMConfig      `yaml:"llm"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	Server   ServerConfig   `yaml:"server"`
	Journal  JournalConfig  `yaml:"journal"`
	Log      LogConfig      `yaml:"log"`
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	APIKey           string        `yaml:"api_key" env:"OPENAI_API_KEY"`
	BaseURL          string        `yaml:"base_url" env:"OPENAI_BASE_URL" validate:"required,url"`
	Model            string        `yaml:"model" env:"OPENAI_MODEL" validate:"required"`
	Temperature      float32       `yaml:"temperature" env:"OPENAI_TEMPERATURE" validate:"gte=0,lte=2"`
	MatchTemperature float32       `yaml:"match_temperature" env:"OPENAI_MATCH_TEMPERATURE" validate:"gte=0,lte=2"`
	Timeout          time.Duration `yaml:"timeout" env:"OPENAI_TIMEOUT" validate:"gt=0"`
	MaxPromptTokens  int           `yaml:"max_prompt_tokens" env:"OPENAI_MAX_PROMPT_TOKENS" validate:"gte=0"`
}

// DispatchConfig holds the remote endpoint enriched templates are posted to.
type DispatchConfig struct {
	Endpoint string        `yaml:"endpoint" env:"DISPATCH_ENDPOINT" validate:"omitempty,url"`
	Token    string        `yaml:"token" env:"API_TOKEN"`
	Timeout  time.Duration `yaml:"timeout" env:"DISPATCH_TIMEOUT" validate:"gt=0"`
}

// ServerConfig holds HTTP API configuration
type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"HTTP_ADDR" validate:"required"`
	MaxUploadMB     int64         `yaml:"max_upload_mb" env:"MAX_UPLOAD_MB" validate:"gt=0"`
	AllowedOrigins  []string      `yaml:"allowed_origins" env:"CORS_ALLOW_ORIGINS" envSeparator:","`
	RateLimitPerMin int           `yaml:"rate_limit_per_min" env:"RATE_LIMIT_PER_MIN" validate:"gte=0"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" validate:"gt=0"`
}

// JournalConfig points at the optional run journal. Empty DSN disables it.
type JournalConfig struct {
	DSN string `yaml:"dsn" env:"JOURNAL_DSN"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL" validate:"oneof=debug info warn error"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			BaseURL:          "https://api.openai.com/v1",
			Model:            "gpt-4o-mini",
			Temperature:      0.0,
			MatchTemperature: 0.1,
			Timeout:          120 * time.Second,
			MaxPromptTokens:  120000,
		},
		Dispatch: DispatchConfig{
			Timeout: 30 * time.Second,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			MaxUploadMB:     25,
			AllowedOrigins:  []string{"*"},
			RateLimitPerMin: 30,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    180 * time.Second,
		},
		Log: LogConfig{Level: "info"},
	}
}

// LoadConfig layers defaults, an optional YAML file and environment variables,
// in that order, then validates the result.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if strings.TrimSpace(path) != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, NewAppError("CONFIG_ERROR", "read config file", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, NewAppError("CONFIG_ERROR", "parse config file", errors.Join(ErrInvalidInput, err))
		}
	}

	// Unset variables leave the current value untouched.
	if err := env.Parse(cfg); err != nil {
		return nil, NewAppError("CONFIG_ERROR", "parse environment", errors.Join(ErrInvalidInput, err))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if err := ValidateStruct(c); err != nil {
		return NewAppError("CONFIG_ERROR", "invalid configuration", err)
	}
	return nil
}

// RequireLLM reports a configuration error when no API key is available.
func (c *Config) RequireLLM() error {
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required", ErrInvalidInput)
	}
	return nil
}

// SlogLevel maps the configured level name onto slog.
func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// MaxUploadBytes converts the configured upload limit.
func (c ServerConfig) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

func (c *Config) String() string {
	return fmt.Sprintf("model=%s base_url=%s dispatch=%t journal=%t addr=%s",
		c.LLM.Model, c.LLM.BaseURL, c.Dispatch.Endpoint != "", c.Journal.DSN != "", c.Server.Addr)
}
