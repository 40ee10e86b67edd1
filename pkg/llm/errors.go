// Error types and handling
package llm

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnsupportedOptions is returned when an adapter receives options of a type it cannot convert
	ErrUnsupportedOptions = errors.New("unsupported options type")

	// ErrUnsupportedContent is returned for message content an adapter cannot map
	ErrUnsupportedContent = errors.New("unsupported message content")

	// ErrToolNotFound is returned when the model asks for a tool no callback is registered for
	ErrToolNotFound = errors.New("tool not found")

	// ErrEmptyPrompt is returned when a request carries no messages or inputs
	ErrEmptyPrompt = errors.New("prompt must not be empty")

	// ErrMissingAPIKey is returned by constructors when no API key is configured
	ErrMissingAPIKey = errors.New("API key is required")

	// ErrMissingModel is returned when neither the defaults nor the request name a model
	ErrMissingModel = errors.New("model is required")

	// ErrToolRoundsExceeded is returned when the model keeps asking for tools past the configured bound
	ErrToolRoundsExceeded = errors.New("too many tool calling rounds")
)

// Error type values shared across providers
const (
	ErrorTypeRateLimit      = "rate_limit_error"
	ErrorTypeAPI            = "api_error"
	ErrorTypeInvalidRequest = "invalid_request_error"
	ErrorTypeAuthentication = "authentication_error"
	ErrorTypeTransport      = "transport_error"
)

// Error represents a standardized LLM error
type Error struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Type       string `json:"type"`
	StatusCode int    `json:"status_code,omitempty"`
	Cause      error  `json:"-"`
}

// NewError creates an Error with the given status, type and message
func NewError(statusCode int, errType, message string) *Error {
	return &Error{
		Code:       http.StatusText(statusCode),
		Message:    message,
		Type:       errType,
		StatusCode: statusCode,
	}
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (status %d): %s", e.Type, e.StatusCode, e.Message)
	}
	if e.Type != "" {
		return fmt.Sprintf("%s: %s", e.Type, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable reports whether the error is worth another attempt with the default policy:
// rate limits, server errors and transport failures.
func (e *Error) IsRetryable() bool {
	if e == nil {
		return false
	}
	switch {
	case e.Type == ErrorTypeRateLimit, e.Type == ErrorTypeTransport:
		return true
	case e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= 500 && e.StatusCode < 600:
		return true
	}
	return false
}

// AsError returns the *Error in err's chain, if there is one
func AsError(err error) (*Error, bool) {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr, true
	}
	return nil, false
}
