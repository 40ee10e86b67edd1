package openai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/modelport/modelport/pkg/llm"
)

const embeddingResponse = `{
	"object": "list",
	"model": "text-embedding-3-small",
	"data": [
		{"object": "embedding", "index": 1, "embedding": [0.4, 0.5, 0.6]},
		{"object": "embedding", "index": 0, "embedding": [0.1, 0.2, 0.3]}
	],
	"usage": {"prompt_tokens": 6, "total_tokens": 6}
}`

func newTestEmbeddingModel(t *testing.T, srv *apiServer, config func(*llm.ClientConfig), opts ...Option) *EmbeddingModel {
	t.Helper()

	cfg := srv.config()
	if config != nil {
		config(&cfg)
	}
	opts = append([]Option{WithLogger(zaptest.NewLogger(t)), fastRetry()}, opts...)
	m, err := NewEmbeddingModel(cfg, opts...)
	require.NoError(t, err)
	return m
}

func TestEmbeddingModelCall(t *testing.T) {
	t.Parallel()

	srv := newAPIServer(t, jsonReply(embeddingResponse))
	m := newTestEmbeddingModel(t, srv, nil)

	resp, err := m.Call(context.Background(), llm.NewEmbeddingRequest(
		[]string{"first", "second"},
		&EmbeddingOptions{Dimensions: llm.Ptr(3), User: "u-1"},
	))
	require.NoError(t, err)

	assert.Equal(t, "text-embedding-3-small", resp.Model)
	assert.Equal(t, 6, resp.Usage.TotalTokens)
	assert.Equal(t, [][]float32{{0.1, 0.2, 0.3}, {0.4, 0.5, 0.6}}, resp.Vectors())

	rec := srv.request(0)
	assert.Equal(t, "/v1/embeddings", rec.path)
	assert.Equal(t, "Bearer test-key", rec.header.Get("Authorization"))
	assert.Equal(t, llm.DefaultOpenAIEmbeddingModel, rec.body["model"])
	assert.EqualValues(t, 3, rec.body["dimensions"])
	assert.Equal(t, "u-1", rec.body["user"])
	assert.Equal(t, []any{"first", "second"}, rec.body["input"])
}

func TestEmbeddingModelPortableOptions(t *testing.T) {
	t.Parallel()

	srv := newAPIServer(t, jsonReply(embeddingResponse))
	m := newTestEmbeddingModel(t, srv, nil)

	_, err := m.Call(context.Background(), llm.NewEmbeddingRequest(
		[]string{"first"},
		llm.EmbeddingOptions{Model: "text-embedding-3-large"},
	))
	require.NoError(t, err)
	assert.Equal(t, "text-embedding-3-large", srv.request(0).body["model"])
}

func TestEmbeddingModelEmptyInput(t *testing.T) {
	t.Parallel()

	srv := newAPIServer(t)
	m := newTestEmbeddingModel(t, srv, nil)

	_, err := m.Call(context.Background(), llm.NewEmbeddingRequest(nil))
	assert.ErrorIs(t, err, llm.ErrEmptyPrompt)
	assert.Equal(t, 0, srv.count())
}

func TestEmbeddingModelEmbedDocuments(t *testing.T) {
	t.Parallel()

	srv := newAPIServer(t, jsonReply(embeddingResponse))
	m := newTestEmbeddingModel(t, srv, nil)

	docs := []llm.Document{
		llm.NewDocument("Paris is in France", map[string]any{"source": "atlas"}),
		llm.NewDocument("Rome is in Italy", nil),
	}
	vectors, err := m.EmbedDocuments(context.Background(), docs)
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vectors[0])

	input := srv.request(0).body["input"].([]any)
	assert.Equal(t, "source: atlas\n\nParis is in France", input[0])
	assert.Equal(t, "Rome is in Italy", input[1])
}

func TestEmbeddingModelEmbedDocumentsWithoutMetadata(t *testing.T) {
	t.Parallel()

	srv := newAPIServer(t, jsonReply(embeddingResponse))
	m := newTestEmbeddingModel(t, srv, nil, WithMetadataMode(llm.MetadataModeNone))

	docs := []llm.Document{
		llm.NewDocument("Paris is in France", map[string]any{"source": "atlas"}),
		llm.NewDocument("Rome is in Italy", nil),
	}
	_, err := m.EmbedDocuments(context.Background(), docs)
	require.NoError(t, err)

	input := srv.request(0).body["input"].([]any)
	assert.Equal(t, "Paris is in France", input[0])
}

func TestEmbeddingModelEmbedDocumentsCountMismatch(t *testing.T) {
	t.Parallel()

	srv := newAPIServer(t, jsonReply(embeddingResponse))
	m := newTestEmbeddingModel(t, srv, nil)

	docs := []llm.Document{llm.NewDocument("a", nil), llm.NewDocument("b", nil), llm.NewDocument("c", nil)}
	_, err := m.EmbedDocuments(context.Background(), docs)
	assert.ErrorContains(t, err, "expected 3 embeddings, got 2")
}

func TestEmbeddingModelDimensions(t *testing.T) {
	t.Parallel()

	t.Run("known model", func(t *testing.T) {
		srv := newAPIServer(t)
		m := newTestEmbeddingModel(t, srv, func(c *llm.ClientConfig) { c.Model = "text-embedding-3-large" })

		n, err := m.Dimensions(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 3072, n)
		assert.Equal(t, 0, srv.count())
	})

	t.Run("configured", func(t *testing.T) {
		srv := newAPIServer(t)
		m := newTestEmbeddingModel(t, srv, nil, WithDefaultEmbeddingOptions(&EmbeddingOptions{Dimensions: llm.Ptr(256)}))

		n, err := m.Dimensions(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 256, n)
		assert.Equal(t, 0, srv.count())
	})

	t.Run("sampled once", func(t *testing.T) {
		srv := newAPIServer(t, jsonReply(embeddingResponse))
		m := newTestEmbeddingModel(t, srv, func(c *llm.ClientConfig) { c.Model = "custom-embedder" })

		for range 2 {
			n, err := m.Dimensions(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 3, n)
		}
		assert.Equal(t, 1, srv.count())
		assert.Equal(t, []any{sampleText}, srv.request(0).body["input"])
	})
}
