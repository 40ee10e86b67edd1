package factory

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/modelport/modelport/pkg/llm"
	"github.com/modelport/modelport/pkg/providers/mock"
	"github.com/modelport/modelport/pkg/providers/openai"
	"github.com/modelport/modelport/pkg/providers/postgresml"
)

// compatibleProviders maps vendors speaking the OpenAI wire format to their default base URL
var compatibleProviders = map[string]string{
	"deepseek":   "https://api.deepseek.com/v1",
	"ollama":     "http://localhost:11434/v1",
	"openrouter": "https://openrouter.ai/api/v1",
}

func init() {
	// Register the OpenAI provider
	RegisterChatProvider(openai.ProviderName, func(_ context.Context, config llm.ClientConfig, logger *zap.Logger) (llm.ChatModel, error) {
		return openai.NewChatModel(config, openai.WithLogger(logger))
	})
	RegisterEmbeddingProvider(openai.ProviderName, func(_ context.Context, config llm.ClientConfig, logger *zap.Logger) (llm.EmbeddingModel, error) {
		return openai.NewEmbeddingModel(config, openai.WithLogger(logger))
	})

	// OpenAI-compatible vendors reuse the OpenAI adapter with their own base URL
	for name, baseURL := range compatibleProviders {
		RegisterChatProvider(name, func(_ context.Context, config llm.ClientConfig, logger *zap.Logger) (llm.ChatModel, error) {
			if config.BaseURL == "" || config.BaseURL == llm.DefaultOpenAIBaseURL {
				config.BaseURL = baseURL
			}
			if config.APIKey == "" && name == "ollama" {
				config.APIKey = "ollama"
			}
			return openai.NewChatModel(config, openai.WithLogger(logger))
		})
	}

	// Register the PostgresML provider. The pool connects lazily and is closed by the model's Close.
	RegisterEmbeddingProvider(postgresml.ProviderName, func(ctx context.Context, config llm.ClientConfig, logger *zap.Logger) (llm.EmbeddingModel, error) {
		dsn := config.Extra["dsn"]
		if dsn == "" {
			return nil, fmt.Errorf("postgresml: extra \"dsn\" is required")
		}
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres pool: %w", err)
		}
		model, err := postgresml.NewEmbeddingModel(pool,
			postgresml.WithLogger(logger),
			postgresml.WithOwnedConnection(),
			postgresml.WithDefaultOptions(&postgresml.EmbeddingOptions{
				Transformer: config.Model,
				VectorType:  postgresml.VectorType(config.Extra["vector_type"]),
			}))
		if err != nil {
			pool.Close()
			return nil, err
		}
		return model, nil
	})

	// Register the mock provider
	for _, name := range []string{mock.ProviderName, "mocked"} {
		RegisterChatProvider(name, func(_ context.Context, config llm.ClientConfig, logger *zap.Logger) (llm.ChatModel, error) {
			return mock.NewChatModel(config.Model, mock.WithLogger(logger)), nil
		})
		RegisterEmbeddingProvider(name, func(_ context.Context, config llm.ClientConfig, _ *zap.Logger) (llm.EmbeddingModel, error) {
			return mock.NewEmbeddingModel(config.Model, 0), nil
		})
	}
}
