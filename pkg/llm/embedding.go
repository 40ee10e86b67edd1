package llm

import "slices"

// EmbeddingOptionsProvider is implemented by every options type an EmbeddingModel accepts
type EmbeddingOptionsProvider interface {
	GetEmbeddingOptions() EmbeddingOptions
}

// EmbeddingOptions holds the portable embedding parameters
type EmbeddingOptions struct {
	Model      string `json:"model,omitempty" yaml:"model,omitempty"`
	Dimensions *int   `json:"dimensions,omitempty" yaml:"dimensions,omitempty"`
}

// GetEmbeddingOptions implements EmbeddingOptionsProvider
func (o EmbeddingOptions) GetEmbeddingOptions() EmbeddingOptions {
	return o
}

// EmbeddingRequest is a batch of texts to embed
type EmbeddingRequest struct {
	Inputs  []string
	Options EmbeddingOptionsProvider
}

// NewEmbeddingRequest creates a request for the given texts
func NewEmbeddingRequest(inputs []string, opts ...EmbeddingOptionsProvider) EmbeddingRequest {
	req := EmbeddingRequest{Inputs: inputs}
	if len(opts) > 0 {
		req.Options = opts[0]
	}
	return req
}

// Embedding is a single vector, Index refers to the input position
type Embedding struct {
	Index  int       `json:"index"`
	Vector []float32 `json:"vector"`
}

// EmbeddingResponse holds the vectors for an EmbeddingRequest, in input order
type EmbeddingResponse struct {
	Embeddings []Embedding    `json:"embeddings"`
	Model      string         `json:"model,omitempty"`
	Usage      Usage          `json:"usage,omitempty"`
	RateLimit  *RateLimit     `json:"rate_limit,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Vectors returns the vectors ordered by index
func (r *EmbeddingResponse) Vectors() [][]float32 {
	if r == nil {
		return nil
	}
	sorted := slices.Clone(r.Embeddings)
	slices.SortStableFunc(sorted, func(a, b Embedding) int { return a.Index - b.Index })

	vectors := make([][]float32, 0, len(sorted))
	for _, e := range sorted {
		vectors = append(vectors, e.Vector)
	}
	return vectors
}

// First returns the first vector, or nil
func (r *EmbeddingResponse) First() []float32 {
	if vectors := r.Vectors(); len(vectors) > 0 {
		return vectors[0]
	}
	return nil
}
