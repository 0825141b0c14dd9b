package inference

import (
	"net/http"
	"time"

	"github.com/bft-labs/morsebridge/pkg/log"
)

// Defaults for the hosted API.
const (
	DefaultBaseURL    = "https://api.anthropic.com/v1"
	DefaultModel      = "claude-3-7-sonnet-20250219"
	DefaultAPIVersion = "2023-06-01"
	DefaultMaxTokens  = 1024
	DefaultTimeout    = 60 * time.Second
)

// HTTPClient abstracts HTTP operations for dependency injection.
// The standard *http.Client satisfies this interface.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds client configuration.
type Config struct {
	BaseURL    string
	APIKey     string
	APIVersion string
	Model      string
	MaxTokens  int
	Timeout    time.Duration

	// HTTPClient overrides the client built from Timeout.
	HTTPClient HTTPClient
	Logger     log.Logger
}

// Option is a functional option for configuring the client.
type Option func(*Config)

// WithBaseURL sets the API base URL, e.g. "https://api.anthropic.com/v1".
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

// WithAPIKey sets the API key sent as x-api-key.
func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithAPIVersion sets the anthropic-version header.
func WithAPIVersion(v string) Option {
	return func(c *Config) { c.APIVersion = v }
}

// WithModel sets the default model.
func WithModel(model string) Option {
	return func(c *Config) { c.Model = model }
}

// WithMaxTokens sets the default max tokens.
func WithMaxTokens(n int) Option {
	return func(c *Config) { c.MaxTokens = n }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc HTTPClient) Option {
	return func(c *Config) { c.HTTPClient = hc }
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultConfig returns the defaults for the hosted API.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:    DefaultBaseURL,
		APIVersion: DefaultAPIVersion,
		Model:      DefaultModel,
		MaxTokens:  DefaultMaxTokens,
		Timeout:    DefaultTimeout,
		Logger:     log.NewNoopLogger(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrNoAPIKey
	}
	if c.Model == "" {
		return ErrNoModel
	}
	if c.BaseURL == "" {
		return ErrNoBaseURL
	}
	return nil
}
