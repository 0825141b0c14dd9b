package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bft-labs/morsebridge/pkg/log"
)

const maxErrorBody = 64 << 10

// Client calls the Messages API over HTTP.
type Client struct {
	baseURL string
	config  *Config
	http    HTTPClient
	logger  log.Logger
}

// NewClient creates a client. The API key is required.
func NewClient(opts ...Option) (*Client, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNoopLogger()
	}

	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		config:  cfg,
		http:    hc,
		logger:  logger.With(log.String("component", "inference")),
	}, nil
}

// Model returns the default model.
func (c *Client) Model() string { return c.config.Model }

// Messages sends one request and returns the reply.
func (c *Client) Messages(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()

	body := *req
	if body.Model == "" {
		body.Model = c.config.Model
	}
	if body.MaxTokens <= 0 {
		body.MaxTokens = c.config.MaxTokens
	}

	resp, err := c.post(ctx, "/messages", &body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var result Response
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, WrapError(providerName, fmt.Errorf("decode response: %w", err))
	}
	result.LatencyMs = time.Since(start).Milliseconds()

	c.logger.Debug("messages request completed",
		log.String("model", body.Model),
		log.Int("input_tokens", result.Usage.InputTokens),
		log.Int("output_tokens", result.Usage.OutputTokens),
		log.Int64("latency_ms", result.LatencyMs),
	)
	return &result, nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, WrapError(providerName, fmt.Errorf("marshal payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, WrapError(providerName, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.config.APIKey)
	req.Header.Set("anthropic-version", c.config.APIVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, WrapError(providerName, fmt.Errorf("send request: %w", err))
	}
	return resp, nil
}

func (c *Client) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var errResp struct {
		Type  string `json:"type"`
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}

	message := strings.TrimSpace(string(body))
	errType := ""
	if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
		errType = errResp.Error.Type
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Type:       errType,
		Message:    message,
	}
}
