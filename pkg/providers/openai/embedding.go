package openai

import (
	"context"
	"fmt"
	"sync"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/modelport/modelport/pkg/llm"
)

// knownDimensions avoids a sample call for the models OpenAI documents
var knownDimensions = map[string]int{
	"text-embedding-ada-002": 1536,
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
}

// sampleText is embedded to discover the dimensions of unknown models
const sampleText = "Hello World"

// EmbeddingModel implements llm.EmbeddingModel on the embeddings endpoint
type EmbeddingModel struct {
	conn         *connection
	defaults     *EmbeddingOptions
	retry        *llm.RetryTemplate
	metadataMode llm.MetadataMode
	logger       *zap.Logger

	mu         sync.Mutex
	dimensions int
}

var _ llm.EmbeddingModel = (*EmbeddingModel)(nil)

// NewEmbeddingModel creates an embedding model
func NewEmbeddingModel(config llm.ClientConfig, opts ...Option) (*EmbeddingModel, error) {
	s := newSettings(config, opts)
	conn, err := newConnection(config, s)
	if err != nil {
		return nil, err
	}

	defaults := s.embedding.Clone()
	if defaults == nil {
		defaults = &EmbeddingOptions{}
	}
	if defaults.Model == "" {
		defaults.Model = config.Model
	}
	if defaults.Model == "" {
		defaults.Model = llm.DefaultOpenAIEmbeddingModel
	}

	return &EmbeddingModel{
		conn:         conn,
		defaults:     defaults,
		retry:        s.retry,
		metadataMode: s.metadataMode,
		logger:       s.logger,
	}, nil
}

// Call embeds all inputs in a single request
func (m *EmbeddingModel) Call(ctx context.Context, req llm.EmbeddingRequest) (*llm.EmbeddingResponse, error) {
	if len(req.Inputs) == 0 {
		return nil, llm.ErrEmptyPrompt
	}

	rt, err := toEmbeddingOptions(req.Options)
	if err != nil {
		return nil, err
	}
	opts, err := llm.MergeOptions(m.defaults, rt)
	if err != nil {
		return nil, err
	}
	if opts.Model == "" {
		return nil, llm.ErrMissingModel
	}

	apiReq := openai.EmbeddingRequest{
		Input:          req.Inputs,
		Model:          openai.EmbeddingModel(opts.Model),
		User:           opts.User,
		EncodingFormat: openai.EmbeddingEncodingFormat(opts.EncodingFormat),
	}
	if opts.Dimensions != nil {
		apiReq.Dimensions = *opts.Dimensions
	}

	m.logger.Debug("creating embeddings",
		zap.String("model", opts.Model),
		zap.Int("inputs", len(req.Inputs)))

	resp, err := llm.Retry(ctx, m.retry, func(ctx context.Context) (openai.EmbeddingResponse, error) {
		resp, err := m.conn.client.CreateEmbeddings(ctx, apiReq)
		return resp, convertError(err)
	})
	if err != nil {
		return nil, err
	}

	out := &llm.EmbeddingResponse{
		Model: string(resp.Model),
		Usage: llm.Usage{
			PromptTokens: resp.Usage.PromptTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
		RateLimit: rateLimitFrom(&resp),
	}
	if len(resp.Data) == 0 {
		m.logger.Warn("no embeddings in response", zap.String("model", opts.Model))
		return out, nil
	}
	for _, e := range resp.Data {
		out.Embeddings = append(out.Embeddings, llm.Embedding{
			Index:  e.Index,
			Vector: e.Embedding,
		})
	}
	return out, nil
}

// Embed returns the vector for a single text
func (m *EmbeddingModel) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := m.Call(ctx, llm.NewEmbeddingRequest([]string{text}))
	if err != nil {
		return nil, err
	}
	vector := resp.First()
	if vector == nil {
		return nil, fmt.Errorf("no embedding returned for model %s", m.defaults.Model)
	}
	return vector, nil
}

// EmbedDocuments embeds the documents' formatted content, in order
func (m *EmbeddingModel) EmbedDocuments(ctx context.Context, docs []llm.Document) ([][]float32, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	inputs := make([]string, 0, len(docs))
	for _, doc := range docs {
		inputs = append(inputs, doc.FormattedContent(m.metadataMode))
	}

	resp, err := m.Call(ctx, llm.NewEmbeddingRequest(inputs))
	if err != nil {
		return nil, err
	}
	vectors := resp.Vectors()
	if len(vectors) != len(docs) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(docs), len(vectors))
	}
	return vectors, nil
}

// Dimensions returns the vector size: configured, documented, or learned from a sample call
func (m *EmbeddingModel) Dimensions(ctx context.Context) (int, error) {
	if m.defaults.Dimensions != nil {
		return *m.defaults.Dimensions, nil
	}
	if n, ok := knownDimensions[m.defaults.Model]; ok {
		return n, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dimensions > 0 {
		return m.dimensions, nil
	}

	vector, err := m.Embed(ctx, sampleText)
	if err != nil {
		return 0, fmt.Errorf("failed to detect embedding dimensions: %w", err)
	}
	m.dimensions = len(vector)
	return m.dimensions, nil
}
