package openai

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joseph-ayodele/criteria-extractor/internal/common"
)

// Config for the OpenAI client.
type Config struct {
	APIKey           string        // if empty, falls back to env OPENAI_API_KEY
	BaseURL          string        // default https://api.openai.com/v1
	Model            string        // e.g., "gpt-4o-mini"
	Temperature      float32       // extraction
	MatchTemperature float32       // matching
	Timeout          time.Duration // http client timeout
	MaxPromptTokens  int           // 0 disables the local check
}

// ConfigFrom maps the application config onto the client config.
func ConfigFrom(c common.LLMConfig) Config {
	return Config{
		APIKey:           c.APIKey,
		BaseURL:          c.BaseURL,
		Model:            c.Model,
		Temperature:      c.Temperature,
		MatchTemperature: c.MatchTemperature,
		Timeout:          c.Timeout,
		MaxPromptTokens:  c.MaxPromptTokens,
	}
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

func NewClient(cfg Config, logger *slog.Logger, opts ...Option) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Model() string { return c.cfg.Model }
