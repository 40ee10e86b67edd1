package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Environment variables honored by LoadWithEnvOverrides and FromEnv
const (
	EnvOpenAIAPIKey       = "OPENAI_API_KEY"
	EnvOpenAIBaseURL      = "OPENAI_BASE_URL"
	EnvOpenAIModel        = "OPENAI_MODEL"
	EnvOpenAIOrganization = "OPENAI_ORGANIZATION"
	EnvPostgresMLDSN      = "POSTGRESML_DSN"
	EnvRedisAddr          = "MODELPORT_REDIS_ADDR"
	EnvLogLevel           = "MODELPORT_LOG_LEVEL"
	EnvLogFormat          = "MODELPORT_LOG_FORMAT"
)

// Load reads a YAML file, applies defaults and validates the result.
// Environment variables are not consulted; use LoadWithEnvOverrides for that.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// LoadWithEnvOverrides loads path (when not empty) and applies environment overrides.
func LoadWithEnvOverrides(path string) (*Config, error) {
	if path == "" {
		return FromEnv()
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}
	return cfg, nil
}

// FromEnv builds a configuration from defaults and the environment only
func FromEnv() (*Config, error) {
	var cfg Config
	ApplyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.OpenAI.APIKey = envOr(EnvOpenAIAPIKey, cfg.OpenAI.APIKey)
	cfg.OpenAI.BaseURL = envOr(EnvOpenAIBaseURL, cfg.OpenAI.BaseURL)
	cfg.OpenAI.Model = envOr(EnvOpenAIModel, cfg.OpenAI.Model)
	cfg.OpenAI.Organization = envOr(EnvOpenAIOrganization, cfg.OpenAI.Organization)
	cfg.PostgresML.DSN = envOr(EnvPostgresMLDSN, cfg.PostgresML.DSN)
	if addr := os.Getenv(EnvRedisAddr); addr != "" {
		cfg.Cache.RedisAddr = addr
		if cfg.Cache.Backend == "" {
			cfg.Cache.Backend = "redis"
			ApplyDefaults(cfg)
		}
	}
	cfg.Logging.Level = envOr(EnvLogLevel, cfg.Logging.Level)
	cfg.Logging.Format = envOr(EnvLogFormat, cfg.Logging.Format)
}

// envOr returns the value of the environment variable key, or fallback if not set.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
