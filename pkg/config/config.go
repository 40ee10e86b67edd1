// Package config loads modelport configuration from YAML files and the environment.
//
// Loading order: YAML file, defaults, environment overrides, validation.
// Environment variables always win over the file.
package config

import (
	"time"

	"github.com/modelport/modelport/pkg/llm"
	"github.com/modelport/modelport/pkg/logging"
)

// Config is the root configuration
type Config struct {
	OpenAI     OpenAIConfig      `yaml:"openai"`
	PostgresML PostgresMLConfig  `yaml:"postgresml"`
	Cache      CacheConfig       `yaml:"cache"`
	Retry      llm.RetryConfig   `yaml:"retry"`
	Logging    logging.Config    `yaml:"logging"`
	Prompts    llm.PromptsConfig `yaml:"prompts"`
}

// OpenAIConfig configures the OpenAI adapters
type OpenAIConfig struct {
	APIKey       string        `yaml:"api_key"`
	BaseURL      string        `yaml:"base_url"`
	Organization string        `yaml:"organization"`
	Timeout      time.Duration `yaml:"timeout"`

	// Default models per endpoint
	Model              string `yaml:"model"`
	EmbeddingModel     string `yaml:"embedding_model"`
	ImageModel         string `yaml:"image_model"`
	TranscriptionModel string `yaml:"transcription_model"`
	SpeechModel        string `yaml:"speech_model"`
	ModerationModel    string `yaml:"moderation_model"`
}

// PostgresMLConfig configures the PostgresML embedding adapter
type PostgresMLConfig struct {
	DSN             string         `yaml:"dsn"`
	Transformer     string         `yaml:"transformer"`
	VectorType      string         `yaml:"vector_type"` // pg_array or pg_vector
	Kwargs          map[string]any `yaml:"kwargs"`
	CreateExtension bool           `yaml:"create_extension"`
	Concurrency     int            `yaml:"concurrency"`
}

// CacheConfig configures the embedding cache. An empty backend disables it.
type CacheConfig struct {
	Backend   string        `yaml:"backend"` // memory or redis
	RedisAddr string        `yaml:"redis_addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	TTL       time.Duration `yaml:"ttl"`
	Prefix    string        `yaml:"prefix"`
}

// ClientConfig returns the factory input for the given provider
func (c *Config) ClientConfig(provider string) llm.ClientConfig {
	switch provider {
	case "postgresml":
		return llm.ClientConfig{
			Provider: provider,
			Model:    c.PostgresML.Transformer,
			Extra: map[string]string{
				"dsn":         c.PostgresML.DSN,
				"vector_type": c.PostgresML.VectorType,
			},
		}
	default:
		retry := c.Retry
		cc := llm.ClientConfig{
			Provider:   provider,
			Model:      c.OpenAI.Model,
			APIKey:     c.OpenAI.APIKey,
			BaseURL:    c.OpenAI.BaseURL,
			Timeout:    c.OpenAI.Timeout,
			MaxRetries: c.Retry.MaxAttempts - 1,
			Retry:      &retry,
		}
		if c.OpenAI.Organization != "" {
			cc.Extra = map[string]string{"organization": c.OpenAI.Organization}
		}
		return cc
	}
}
