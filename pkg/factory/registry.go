package factory

import (
	"context"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/modelport/modelport/pkg/llm"
)

// ChatConstructor creates a chat model for a provider
type ChatConstructor func(ctx context.Context, config llm.ClientConfig, logger *zap.Logger) (llm.ChatModel, error)

// EmbeddingConstructor creates an embedding model for a provider
type EmbeddingConstructor func(ctx context.Context, config llm.ClientConfig, logger *zap.Logger) (llm.EmbeddingModel, error)

// providerRegistry holds all registered provider constructors
type providerRegistry struct {
	mu        sync.RWMutex
	chat      map[string]ChatConstructor
	embedding map[string]EmbeddingConstructor
}

var globalRegistry = &providerRegistry{
	chat:      make(map[string]ChatConstructor),
	embedding: make(map[string]EmbeddingConstructor),
}

// RegisterChatProvider registers a chat model constructor, replacing any previous one
func RegisterChatProvider(name string, constructor ChatConstructor) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	globalRegistry.chat[name] = constructor
}

// RegisterEmbeddingProvider registers an embedding model constructor, replacing any previous one
func RegisterEmbeddingProvider(name string, constructor EmbeddingConstructor) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	globalRegistry.embedding[name] = constructor
}

// GetChatProvider returns a chat constructor by name
func GetChatProvider(name string) (ChatConstructor, bool) {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()
	constructor, exists := globalRegistry.chat[name]
	return constructor, exists
}

// GetEmbeddingProvider returns an embedding constructor by name
func GetEmbeddingProvider(name string) (EmbeddingConstructor, bool) {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()
	constructor, exists := globalRegistry.embedding[name]
	return constructor, exists
}

// ListProviders returns the sorted names of every provider registered for chat or embeddings
func ListProviders() []string {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	names := make([]string, 0, len(globalRegistry.chat)+len(globalRegistry.embedding))
	for name := range globalRegistry.chat {
		names = append(names, name)
	}
	for name := range globalRegistry.embedding {
		names = append(names, name)
	}
	slices.Sort(names)
	return slices.Compact(names)
}
