package inference

import (
	"errors"
	"fmt"
	"net/http"
)

const providerName = "anthropic"

// Sentinel errors for common conditions.
var (
	// ErrNoAPIKey is returned when the API key is missing.
	ErrNoAPIKey = errors.New("inference: API key required")

	// ErrNoModel is returned when no model is configured.
	ErrNoModel = errors.New("inference: model required")

	// ErrNoBaseURL is returned when the base URL is empty.
	ErrNoBaseURL = errors.New("inference: base URL required")
)

// APIError represents an error response from the API.
type APIError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Type is the error type from the body, e.g. "rate_limit_error".
	Type string

	// Message is the error message from the body, or the raw body.
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("inference [%s]: API error %d (%s): %s",
			providerName, e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("inference [%s]: API error %d: %s",
		providerName, e.StatusCode, e.Message)
}

// IsRateLimited returns true for HTTP 429.
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// IsUnauthorized returns true for HTTP 401.
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// IsOverloaded returns true for HTTP 529, the API's overload status.
func (e *APIError) IsOverloaded() bool {
	return e.StatusCode == 529
}

// IsServerError returns true for 5xx statuses.
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// ProviderError wraps an error with provider context.
type ProviderError struct {
	Provider string
	Err      error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("inference [%s]: %v", e.Provider, e.Err)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// WrapError wraps an error with provider context.
func WrapError(provider string, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{Provider: provider, Err: err}
}
