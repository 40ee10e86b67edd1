// Package llm provides retry functionality with exponential backoff.
//
// Examples:
//
// Default configuration (4 attempts, 1s initial interval, 2x backoff):
//
//	rt := llm.NewRetryTemplate(llm.DefaultRetryConfig(), logger)
//	resp, err := llm.Retry(ctx, rt, func(ctx context.Context) (*llm.ChatResponse, error) {
//		return model.Call(ctx, prompt)
//	})
//
// Only retry rate limits:
//
//	cfg := llm.DefaultRetryConfig()
//	cfg.RetryOnStatusCodes = []int{429}
//	rt := llm.NewRetryTemplate(cfg, logger)
package llm

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// RetryConfig defines configuration options for the retry mechanism.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, the first one included (default: 4).
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts"`

	// InitialInterval is the delay before the first retry (default: 1 second).
	InitialInterval time.Duration `yaml:"initial_interval" json:"initial_interval"`

	// Multiplier grows the delay after each retry (default: 2.0).
	Multiplier float64 `yaml:"multiplier" json:"multiplier"`

	// MaxInterval caps the delay between retries (default: 60 seconds).
	MaxInterval time.Duration `yaml:"max_interval" json:"max_interval"`

	// MaxElapsedTime bounds the whole retry loop; zero means no bound.
	MaxElapsedTime time.Duration `yaml:"max_elapsed_time" json:"max_elapsed_time"`

	// Jitter randomizes each delay by ±50% to prevent thundering herd (default: true).
	Jitter bool `yaml:"jitter" json:"jitter"`

	// RetryOnStatusCodes specifies exact HTTP status codes to retry on.
	// If empty, uses default behavior (429, 5xx).
	RetryOnStatusCodes []int `yaml:"retry_on_status_codes,omitempty" json:"retry_on_status_codes,omitempty"`

	// RetryOnErrorTypes specifies exact error types to retry on.
	// If empty, uses default behavior ("rate_limit_error" and transport errors).
	RetryOnErrorTypes []string `yaml:"retry_on_error_types,omitempty" json:"retry_on_error_types,omitempty"`
}

// DefaultRetryConfig returns a sensible default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:     4,
		InitialInterval: 1 * time.Second,
		Multiplier:      2.0,
		MaxInterval:     60 * time.Second,
		Jitter:          true,
	}
}

// withDefaults fills zero values
func (c RetryConfig) withDefaults() RetryConfig {
	def := DefaultRetryConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = def.MaxAttempts
	}
	if c.InitialInterval <= 0 {
		c.InitialInterval = def.InitialInterval
	}
	if c.Multiplier <= 0 {
		c.Multiplier = def.Multiplier
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = def.MaxInterval
	}
	return c
}

// RetryTemplate runs operations with exponential backoff on retryable errors
type RetryTemplate struct {
	config RetryConfig
	logger *zap.Logger
}

// NewRetryTemplate creates a template. A nil logger disables retry logging.
func NewRetryTemplate(config RetryConfig, logger *zap.Logger) *RetryTemplate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryTemplate{
		config: config.withDefaults(),
		logger: logger,
	}
}

// NoRetry returns a template that makes a single attempt
func NoRetry() *RetryTemplate {
	return NewRetryTemplate(RetryConfig{MaxAttempts: 1}, nil)
}

// Config returns the effective configuration
func (rt *RetryTemplate) Config() RetryConfig {
	return rt.config
}

// IsRetryable determines if an error should trigger a retry
func (rt *RetryTemplate) IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	llmErr, ok := AsError(err)
	if !ok {
		return false
	}

	if len(rt.config.RetryOnStatusCodes) == 0 && len(rt.config.RetryOnErrorTypes) == 0 {
		return llmErr.IsRetryable()
	}
	return slices.Contains(rt.config.RetryOnStatusCodes, llmErr.StatusCode) ||
		slices.Contains(rt.config.RetryOnErrorTypes, llmErr.Type)
}

func (rt *RetryTemplate) backOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = rt.config.InitialInterval
	b.Multiplier = rt.config.Multiplier
	b.MaxInterval = rt.config.MaxInterval
	b.RandomizationFactor = 0
	if rt.config.Jitter {
		b.RandomizationFactor = 0.5
	}
	return b
}

// Retry executes op until it succeeds, fails with a non-retryable error, or the
// template's attempts are exhausted. A nil template makes a single attempt.
func Retry[T any](ctx context.Context, rt *RetryTemplate, op func(context.Context) (T, error)) (T, error) {
	if rt == nil {
		return op(ctx)
	}

	attempt := 0
	operation := func() (T, error) {
		attempt++
		res, err := op(ctx)
		if err == nil {
			return res, nil
		}
		if !rt.IsRetryable(err) {
			return res, backoff.Permanent(err)
		}
		return res, err
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(rt.backOff()),
		backoff.WithMaxTries(uint(rt.config.MaxAttempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			rt.logger.Info("retrying after error",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", rt.config.MaxAttempts),
				zap.Duration("backoff", next),
				zap.Error(err))
		}),
	}
	if rt.config.MaxElapsedTime > 0 {
		opts = append(opts, backoff.WithMaxElapsedTime(rt.config.MaxElapsedTime))
	}

	return backoff.Retry(ctx, operation, opts...)
}
