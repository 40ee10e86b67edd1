package openai

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelport/modelport/pkg/llm"
)

func TestModelInfo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		model     string
		baseURL   string
		maxTokens int
		tools     bool
		vision    bool
	}{
		{name: "gpt-4o", model: "gpt-4o", maxTokens: 128000, tools: true, vision: true},
		{name: "dated gpt-4o-mini", model: "gpt-4o-mini-2024-07-18", maxTokens: 128000, tools: true, vision: true},
		{name: "gpt-4.1", model: "gpt-4.1-nano", maxTokens: 1047576, tools: true, vision: true},
		{name: "o3-mini", model: "o3-mini", maxTokens: 200000, tools: true, vision: true},
		{name: "o1 has no tools", model: "o1", maxTokens: 200000, tools: false, vision: true},
		{name: "gpt-3.5", model: "gpt-3.5-turbo", maxTokens: 4096, tools: true},
		{name: "gpt-4-32k", model: "gpt-4-32k", maxTokens: 32768, tools: true},
		{name: "unknown", model: "my-model", maxTokens: 4096},
		{name: "default endpoint", model: "gpt-oss-20b", baseURL: llm.DefaultOpenAIBaseURL, maxTokens: 4096},
		{name: "custom endpoint gpt", model: "gpt-oss-20b", baseURL: "http://localhost:8000/v1", maxTokens: 4096, tools: true},
		{name: "custom endpoint other", model: "llama3", baseURL: "http://localhost:8000/v1", maxTokens: 4096},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := modelInfo(tt.model, tt.baseURL)
			assert.Equal(t, tt.model, info.Name)
			assert.Equal(t, ProviderName, info.Provider)
			assert.Equal(t, tt.maxTokens, info.MaxTokens)
			assert.Equal(t, tt.tools, info.SupportsTools)
			assert.Equal(t, tt.vision, info.SupportsVision)
			assert.True(t, info.SupportsStreaming)
		})
	}
}

func TestNewSettingsMaxRetries(t *testing.T) {
	t.Parallel()

	s := newSettings(llm.ClientConfig{MaxRetries: 4}, nil)
	require.NotNil(t, s.retry)
	assert.Equal(t, 5, s.retry.Config().MaxAttempts)
	assert.Equal(t, llm.DefaultTimeout, s.httpClient.Timeout)
	assert.Equal(t, llm.MetadataModeEmbed, s.metadataMode)
}

func TestNewSettingsRetryConfig(t *testing.T) {
	t.Parallel()

	s := newSettings(llm.ClientConfig{MaxRetries: 4, Retry: &llm.RetryConfig{MaxAttempts: 1}}, nil)
	assert.Equal(t, 1, s.retry.Config().MaxAttempts)

	srv := newAPIServer(t,
		errorReply(http.StatusInternalServerError, "server_error", "boom"),
		errorReply(http.StatusInternalServerError, "server_error", "boom"),
	)
	cfg := srv.config()
	cfg.Retry = &llm.RetryConfig{MaxAttempts: 1}
	m, err := NewChatModel(cfg)
	require.NoError(t, err)

	_, err = m.Call(context.Background(), llm.NewPrompt("hi"))
	require.Error(t, err)
	assert.Equal(t, 1, srv.count())
}

func TestConnectionHealth(t *testing.T) {
	t.Parallel()

	srv := newAPIServer(t,
		jsonReply(`{"object": "list", "data": [{"id": "gpt-4o-mini", "object": "model", "owned_by": "openai"}]}`),
		errorReply(http.StatusUnauthorized, "", "invalid key"),
	)
	cfg := srv.config()
	cfg.Extra = map[string]string{"organization": "org-1"}
	m, err := NewChatModel(cfg)
	require.NoError(t, err)

	require.NoError(t, m.Health(context.Background()))
	rec := srv.request(0)
	assert.Equal(t, "/v1/models", rec.path)
	assert.Equal(t, "org-1", rec.header.Get("OpenAI-Organization"))

	err = m.Health(context.Background())
	llmErr, ok := llm.AsError(err)
	require.True(t, ok)
	assert.Equal(t, llm.ErrorTypeAuthentication, llmErr.Type)
}

func TestChatModelGetModelInfo(t *testing.T) {
	t.Parallel()

	srv := newAPIServer(t)
	cfg := srv.config()
	cfg.Model = "gpt-4o"
	m, err := NewChatModel(cfg)
	require.NoError(t, err)

	info := m.GetModelInfo()
	assert.Equal(t, "gpt-4o", info.Name)
	assert.True(t, info.SupportsTools)
}
