package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/modelport/modelport/pkg/llm"
)

// Defaults for NewEmbeddingModel
const (
	DefaultTTL    = 24 * time.Hour
	DefaultPrefix = "modelport:embed"
)

type settings struct {
	logger       *zap.Logger
	ttl          time.Duration
	prefix       string
	model        string
	metadataMode llm.MetadataMode
}

// Option configures an EmbeddingModel
type Option func(*settings)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTTL sets how long vectors are kept. ttl <= 0 disables writes.
func WithTTL(ttl time.Duration) Option {
	return func(s *settings) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix
func WithPrefix(prefix string) Option {
	return func(s *settings) {
		s.prefix = prefix
	}
}

// WithModel names the model used when a request does not set one. It scopes the keys.
func WithModel(model string) Option {
	return func(s *settings) {
		s.model = model
	}
}

// WithMetadataMode sets how EmbedDocuments formats documents
func WithMetadataMode(mode llm.MetadataMode) Option {
	return func(s *settings) {
		s.metadataMode = mode
	}
}

// EmbeddingModel serves vectors from a Store and asks the wrapped model only for the misses.
// Store failures are logged and treated as misses.
type EmbeddingModel struct {
	inner llm.EmbeddingModel
	store Store
	settings
}

var _ llm.EmbeddingModel = (*EmbeddingModel)(nil)

// NewEmbeddingModel wraps inner with store
func NewEmbeddingModel(inner llm.EmbeddingModel, store Store, opts ...Option) *EmbeddingModel {
	s := settings{
		logger:       zap.NewNop(),
		ttl:          DefaultTTL,
		prefix:       DefaultPrefix,
		metadataMode: llm.MetadataModeEmbed,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return &EmbeddingModel{inner: inner, store: store, settings: s}
}

// key scopes a text by model and requested dimensions
func (m *EmbeddingModel) key(model string, dimensions *int, text string) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	if dimensions != nil {
		h.Write([]byte(strconv.Itoa(*dimensions)))
	}
	h.Write([]byte{0})
	h.Write([]byte(text))
	sum := hex.EncodeToString(h.Sum(nil))
	if m.prefix == "" {
		return sum
	}
	return m.prefix + ":" + sum
}

// Call implements llm.EmbeddingModel
func (m *EmbeddingModel) Call(ctx context.Context, req llm.EmbeddingRequest) (*llm.EmbeddingResponse, error) {
	if len(req.Inputs) == 0 {
		return m.inner.Call(ctx, req)
	}

	model := m.model
	var dimensions *int
	if req.Options != nil {
		o := req.Options.GetEmbeddingOptions()
		if o.Model != "" {
			model = o.Model
		}
		dimensions = o.Dimensions
	}

	keys := make([]string, len(req.Inputs))
	for i, input := range req.Inputs {
		keys[i] = m.key(model, dimensions, input)
	}

	cached, err := m.store.GetMany(ctx, keys)
	if err != nil {
		m.logger.Warn("embedding cache read failed", zap.Error(err))
		cached = nil
	}

	vectors := make([][]float32, len(req.Inputs))
	// positions of every input still missing, by key, so duplicates are embedded once
	missing := map[string][]int{}
	var missingInputs []string
	hits := 0
	for i, key := range keys {
		if i < len(cached) && cached[i] != nil {
			var vector []float32
			if err := json.Unmarshal(cached[i], &vector); err == nil {
				vectors[i] = vector
				hits++
				continue
			}
		}
		if _, seen := missing[key]; !seen {
			missingInputs = append(missingInputs, req.Inputs[i])
		}
		missing[key] = append(missing[key], i)
	}

	resp := &llm.EmbeddingResponse{Model: model}
	if len(missingInputs) > 0 {
		inner, err := m.inner.Call(ctx, llm.EmbeddingRequest{Inputs: missingInputs, Options: req.Options})
		if err != nil {
			return nil, err
		}
		embedded := inner.Vectors()
		if len(embedded) != len(missingInputs) {
			return nil, fmt.Errorf("expected %d embeddings, got %d", len(missingInputs), len(embedded))
		}
		resp.Model = inner.Model
		resp.Usage = inner.Usage
		resp.RateLimit = inner.RateLimit

		entries := make(map[string][]byte, len(missingInputs))
		for j, vector := range embedded {
			key := m.key(model, dimensions, missingInputs[j])
			for _, i := range missing[key] {
				vectors[i] = vector
			}
			if data, err := json.Marshal(vector); err == nil {
				entries[key] = data
			}
		}
		if err := m.store.SetMany(ctx, entries, m.ttl); err != nil {
			m.logger.Warn("embedding cache write failed", zap.Error(err))
		}
	}

	m.logger.Debug("embedding cache lookup",
		zap.String("model", model),
		zap.Int("inputs", len(req.Inputs)),
		zap.Int("hits", hits))

	resp.Embeddings = make([]llm.Embedding, 0, len(vectors))
	for i, vector := range vectors {
		resp.Embeddings = append(resp.Embeddings, llm.Embedding{Index: i, Vector: vector})
	}
	resp.Metadata = map[string]any{"cache_hits": hits}
	return resp, nil
}

// Embed returns the vector for a single text
func (m *EmbeddingModel) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := m.Call(ctx, llm.NewEmbeddingRequest([]string{text}))
	if err != nil {
		return nil, err
	}
	return resp.First(), nil
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
	return resp.Vectors(), nil
}

// Dimensions asks the wrapped model
func (m *EmbeddingModel) Dimensions(ctx context.Context) (int, error) {
	return m.inner.Dimensions(ctx)
}
