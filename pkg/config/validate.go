package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap/zapcore"
)

// Validate checks the configuration and reports every problem found
func Validate(cfg *Config) error {
	var errs []error

	if cfg.OpenAI.BaseURL != "" {
		if u, err := url.Parse(cfg.OpenAI.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("openai.base_url %q is not an absolute URL", cfg.OpenAI.BaseURL))
		}
	}
	if cfg.OpenAI.Timeout < 0 {
		errs = append(errs, errors.New("openai.timeout must not be negative"))
	}

	switch cfg.PostgresML.VectorType {
	case "", "pg_array", "pg_vector":
	default:
		errs = append(errs, fmt.Errorf("postgresml.vector_type %q must be pg_array or pg_vector", cfg.PostgresML.VectorType))
	}
	if cfg.PostgresML.Concurrency < 0 {
		errs = append(errs, errors.New("postgresml.concurrency must not be negative"))
	}

	switch cfg.Cache.Backend {
	case "", "memory":
	case "redis":
		if cfg.Cache.RedisAddr == "" {
			errs = append(errs, errors.New("cache.redis_addr is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.backend %q must be memory or redis", cfg.Cache.Backend))
	}
	if cfg.Cache.TTL < 0 {
		errs = append(errs, errors.New("cache.ttl must not be negative"))
	}

	if cfg.Retry.MaxAttempts < 0 {
		errs = append(errs, errors.New("retry.max_attempts must not be negative"))
	}
	if cfg.Retry.Multiplier != 0 && cfg.Retry.Multiplier < 1 {
		errs = append(errs, errors.New("retry.multiplier must be at least 1"))
	}
	if cfg.Retry.MaxInterval != 0 && cfg.Retry.MaxInterval < cfg.Retry.InitialInterval {
		errs = append(errs, errors.New("retry.max_interval must not be below retry.initial_interval"))
	}

	if cfg.Logging.Level != "" {
		var level zapcore.Level
		if err := level.UnmarshalText([]byte(cfg.Logging.Level)); err != nil {
			errs = append(errs, fmt.Errorf("logging.level %q is invalid", cfg.Logging.Level))
		}
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "", "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q must be json or console", cfg.Logging.Format))
	}

	return errors.Join(errs...)
}
