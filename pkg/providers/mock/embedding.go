package mock

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"sync"

	"github.com/modelport/modelport/pkg/llm"
)

// DefaultDimensions is the vector size of a mock EmbeddingModel
const DefaultDimensions = 8

// EmbeddingModel implements llm.EmbeddingModel with vectors derived from a hash of the text.
// The same text always gets the same unit-length vector.
type EmbeddingModel struct {
	model      string
	dimensions int

	mu     sync.Mutex
	inputs []string
	errors []error
}

var _ llm.EmbeddingModel = (*EmbeddingModel)(nil)

// NewEmbeddingModel creates a mock embedding model. Dimensions <= 0 means DefaultDimensions.
func NewEmbeddingModel(model string, dimensions int) *EmbeddingModel {
	if model == "" {
		model = "mock-embedding"
	}
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &EmbeddingModel{model: model, dimensions: dimensions}
}

// AddError queues an error returned by the next call
func (m *EmbeddingModel) AddError(err error) *EmbeddingModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, err)
	return m
}

// Inputs returns every text embedded so far
func (m *EmbeddingModel) Inputs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.inputs...)
}

// Call implements llm.EmbeddingModel
func (m *EmbeddingModel) Call(ctx context.Context, req llm.EmbeddingRequest) (*llm.EmbeddingResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(req.Inputs) == 0 {
		return nil, llm.ErrEmptyPrompt
	}

	m.mu.Lock()
	if len(m.errors) > 0 {
		err := m.errors[0]
		m.errors = m.errors[1:]
		m.mu.Unlock()
		return nil, err
	}
	m.inputs = append(m.inputs, req.Inputs...)
	m.mu.Unlock()

	model := m.model
	if req.Options != nil {
		if o := req.Options.GetEmbeddingOptions(); o.Model != "" {
			model = o.Model
		}
	}

	resp := &llm.EmbeddingResponse{Model: model}
	tokens := 0
	for i, input := range req.Inputs {
		resp.Embeddings = append(resp.Embeddings, llm.Embedding{Index: i, Vector: m.vector(input)})
		tokens += len(strings.Fields(input))
	}
	resp.Usage = llm.Usage{PromptTokens: tokens, TotalTokens: tokens}
	return resp, nil
}

func (m *EmbeddingModel) vector(text string) []float32 {
	vector := make([]float32, m.dimensions)
	var norm float64
	for i := range vector {
		h := fnv.New64a()
		_, _ = h.Write([]byte{byte(i)})
		_, _ = h.Write([]byte(text))
		v := float64(h.Sum64()%2000)/1000 - 1
		vector[i] = float32(v)
		norm += v * v
	}
	if norm == 0 {
		return vector
	}
	norm = math.Sqrt(norm)
	for i := range vector {
		vector[i] = float32(float64(vector[i]) / norm)
	}
	return vector
}

// Embed implements llm.EmbeddingModel
func (m *EmbeddingModel) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := m.Call(ctx, llm.NewEmbeddingRequest([]string{text}))
	if err != nil {
		return nil, err
	}
	return resp.First(), nil
}

// EmbedDocuments implements llm.EmbeddingModel
func (m *EmbeddingModel) EmbedDocuments(ctx context.Context, docs []llm.Document) ([][]float32, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	inputs := make([]string, 0, len(docs))
	for _, doc := range docs {
		inputs = append(inputs, doc.FormattedContent(llm.MetadataModeEmbed))
	}
	resp, err := m.Call(ctx, llm.NewEmbeddingRequest(inputs))
	if err != nil {
		return nil, err
	}
	return resp.Vectors(), nil
}

// Dimensions implements llm.EmbeddingModel
func (m *EmbeddingModel) Dimensions(context.Context) (int, error) {
	return m.dimensions, nil
}
