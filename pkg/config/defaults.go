package config

import (
	"time"

	"github.com/modelport/modelport/pkg/llm"
)

// Default values
const (
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "console"
	DefaultVectorType  = "pg_array"
	DefaultConcurrency = 4
	DefaultCacheTTL    = 24 * time.Hour
	DefaultCachePrefix = "modelport:embed"
)

// ApplyDefaults fills every unset field. A retry section left entirely empty
// gets llm.DefaultRetryConfig.
func ApplyDefaults(cfg *Config) {
	o := &cfg.OpenAI
	o.BaseURL = orDefault(o.BaseURL, llm.DefaultOpenAIBaseURL)
	o.Model = orDefault(o.Model, llm.DefaultOpenAIModel)
	o.EmbeddingModel = orDefault(o.EmbeddingModel, llm.DefaultOpenAIEmbeddingModel)
	o.ImageModel = orDefault(o.ImageModel, llm.DefaultOpenAIImageModel)
	o.TranscriptionModel = orDefault(o.TranscriptionModel, llm.DefaultOpenAITranscriptionModel)
	o.SpeechModel = orDefault(o.SpeechModel, llm.DefaultOpenAISpeechModel)
	o.ModerationModel = orDefault(o.ModerationModel, llm.DefaultOpenAIModerationModel)
	if o.Timeout <= 0 {
		o.Timeout = llm.DefaultTimeout
	}

	p := &cfg.PostgresML
	p.Transformer = orDefault(p.Transformer, llm.DefaultPostgresMLTransformer)
	p.VectorType = orDefault(p.VectorType, DefaultVectorType)
	if p.Concurrency <= 0 {
		p.Concurrency = DefaultConcurrency
	}

	if cfg.Cache.Backend != "" {
		if cfg.Cache.TTL <= 0 {
			cfg.Cache.TTL = DefaultCacheTTL
		}
		cfg.Cache.Prefix = orDefault(cfg.Cache.Prefix, DefaultCachePrefix)
	}

	if isZeroRetry(cfg.Retry) {
		cfg.Retry = llm.DefaultRetryConfig()
	} else {
		def := llm.DefaultRetryConfig()
		if cfg.Retry.MaxAttempts <= 0 {
			cfg.Retry.MaxAttempts = def.MaxAttempts
		}
		if cfg.Retry.InitialInterval <= 0 {
			cfg.Retry.InitialInterval = def.InitialInterval
		}
		if cfg.Retry.Multiplier <= 0 {
			cfg.Retry.Multiplier = def.Multiplier
		}
		if cfg.Retry.MaxInterval <= 0 {
			cfg.Retry.MaxInterval = def.MaxInterval
		}
	}

	cfg.Logging.Level = orDefault(cfg.Logging.Level, DefaultLogLevel)
	cfg.Logging.Format = orDefault(cfg.Logging.Format, DefaultLogFormat)
}

func isZeroRetry(r llm.RetryConfig) bool {
	return r.MaxAttempts == 0 && r.InitialInterval == 0 && r.Multiplier == 0 &&
		r.MaxInterval == 0 && r.MaxElapsedTime == 0 && !r.Jitter &&
		len(r.RetryOnStatusCodes) == 0 && len(r.RetryOnErrorTypes) == 0
}

func orDefault(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
