package factory

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/modelport/modelport/pkg/llm"
)

const DefaultProvider = "openai"

// Factory creates models based on configuration
type Factory struct {
	logger *zap.Logger
}

// Option configures a Factory
type Option func(*Factory)

// WithLogger sets the logger handed to every model created
func WithLogger(logger *zap.Logger) Option {
	return func(f *Factory) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// New creates a new model factory
func New(opts ...Option) *Factory {
	f := &Factory{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateChatModel creates a chat model for config.Provider
func (f *Factory) CreateChatModel(ctx context.Context, config llm.ClientConfig) (llm.ChatModel, error) {
	provider, err := validate(&config)
	if err != nil {
		return nil, err
	}
	constructor, exists := GetChatProvider(provider)
	if !exists {
		return nil, unsupported(provider, "chat")
	}

	f.logger.Debug("creating chat model", zap.String("provider", provider), zap.String("model", config.Model))
	return constructor(ctx, config, f.logger.With(zap.String("provider", provider)))
}

// CreateEmbeddingModel creates an embedding model for config.Provider
func (f *Factory) CreateEmbeddingModel(ctx context.Context, config llm.ClientConfig) (llm.EmbeddingModel, error) {
	provider, err := validate(&config)
	if err != nil {
		return nil, err
	}
	constructor, exists := GetEmbeddingProvider(provider)
	if !exists {
		return nil, unsupported(provider, "embedding")
	}

	f.logger.Debug("creating embedding model", zap.String("provider", provider), zap.String("model", config.Model))
	return constructor(ctx, config, f.logger.With(zap.String("provider", provider)))
}

// validate normalizes the provider name and checks the required fields
func validate(config *llm.ClientConfig) (string, error) {
	// Default to "openai" if provider is empty
	provider := strings.ToLower(config.Provider)
	if provider == "" {
		provider = DefaultProvider
	}
	config.Provider = provider

	if config.Model == "" {
		return "", &llm.Error{
			Code:    "missing_model",
			Message: "model is required",
			Type:    "validation_error",
			Cause:   llm.ErrMissingModel,
		}
	}
	return provider, nil
}

func unsupported(provider, kind string) error {
	return &llm.Error{
		Code:    "unsupported_provider",
		Message: fmt.Sprintf("unsupported %s provider: %s", kind, provider),
		Type:    "validation_error",
	}
}
