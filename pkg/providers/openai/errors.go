package openai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/sashabaranov/go-openai"

	"github.com/modelport/modelport/pkg/llm"
)

// convertError converts a go-openai error into an *llm.Error.
// Context errors are returned untouched so callers and retries can tell cancellation apart.
func convertError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if _, ok := llm.AsError(err); ok {
		return err
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		code := "unknown"
		if apiErr.Code != nil {
			switch c := apiErr.Code.(type) {
			case string:
				code = c
			default:
				code = fmt.Sprint(c)
			}
		}
		errType := apiErr.Type
		if errType == "" {
			errType = errorTypeForStatus(apiErr.HTTPStatusCode)
		}
		return &llm.Error{
			Code:       code,
			Message:    apiErr.Message,
			Type:       errType,
			StatusCode: apiErr.HTTPStatusCode,
			Cause:      err,
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &llm.Error{
			Code:       http.StatusText(reqErr.HTTPStatusCode),
			Message:    reqErr.Error(),
			Type:       errorTypeForStatus(reqErr.HTTPStatusCode),
			StatusCode: reqErr.HTTPStatusCode,
			Cause:      err,
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return &llm.Error{
			Code:    "transport_error",
			Message: err.Error(),
			Type:    llm.ErrorTypeTransport,
			Cause:   err,
		}
	}

	// Generic error
	return &llm.Error{
		Code:    "unknown_error",
		Message: err.Error(),
		Type:    llm.ErrorTypeAPI,
		Cause:   err,
	}
}

// toLLMError is convertError for places that need an *llm.Error, such as stream error events
func toLLMError(err error) *llm.Error {
	if llmErr, ok := llm.AsError(convertError(err)); ok {
		return llmErr
	}
	return &llm.Error{
		Code:    "canceled",
		Message: err.Error(),
		Type:    llm.ErrorTypeAPI,
		Cause:   err,
	}
}

func errorTypeForStatus(status int) string {
	switch {
	case status == http.StatusTooManyRequests:
		return llm.ErrorTypeRateLimit
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return llm.ErrorTypeAuthentication
	case status >= 400 && status < 500:
		return llm.ErrorTypeInvalidRequest
	default:
		return llm.ErrorTypeAPI
	}
}
