package postgresml

import (
	"fmt"
	"maps"

	"github.com/modelport/modelport/pkg/llm"
)

// DefaultTransformer is the Hugging Face model used when none is configured
const DefaultTransformer = "distilbert-base-uncased"

// VectorType selects the SQL type pgml.embed results are read as
type VectorType string

const (
	// VectorTypePgArray reads the native float4[] result
	VectorTypePgArray VectorType = "pg_array"
	// VectorTypePgVector casts the result to the pgvector extension's vector type
	VectorTypePgVector VectorType = "pg_vector"
)

// EmbeddingOptions are the PostgresML embedding parameters
type EmbeddingOptions struct {
	// Transformer is the Hugging Face model name passed to pgml.embed
	Transformer string `json:"transformer,omitempty" yaml:"transformer,omitempty"`

	VectorType VectorType `json:"vector_type,omitempty" yaml:"vector_type,omitempty"`

	// Kwargs are passed to the transformer as a JSONB argument
	Kwargs map[string]any `json:"kwargs,omitempty" yaml:"kwargs,omitempty"`

	// MetadataMode selects the document metadata embedded along with the content
	MetadataMode llm.MetadataMode `json:"metadata_mode,omitempty" yaml:"metadata_mode,omitempty"`
}

// DefaultEmbeddingOptions returns the options used when nothing is configured
func DefaultEmbeddingOptions() *EmbeddingOptions {
	return &EmbeddingOptions{
		Transformer:  DefaultTransformer,
		VectorType:   VectorTypePgArray,
		Kwargs:       map[string]any{},
		MetadataMode: llm.MetadataModeEmbed,
	}
}

// GetEmbeddingOptions implements llm.EmbeddingOptionsProvider
func (o EmbeddingOptions) GetEmbeddingOptions() llm.EmbeddingOptions {
	return llm.EmbeddingOptions{Model: o.Transformer}
}

// Clone returns a deep copy of o
func (o *EmbeddingOptions) Clone() *EmbeddingOptions {
	if o == nil {
		return nil
	}
	copied := *o
	copied.Kwargs = maps.Clone(o.Kwargs)
	return &copied
}

func (o *EmbeddingOptions) validate() error {
	if o.Transformer == "" {
		return llm.ErrMissingModel
	}
	switch o.VectorType {
	case VectorTypePgArray, VectorTypePgVector:
		return nil
	default:
		return fmt.Errorf("unknown vector type %q", o.VectorType)
	}
}

func toEmbeddingOptions(opts llm.EmbeddingOptionsProvider) (*EmbeddingOptions, error) {
	switch o := opts.(type) {
	case nil:
		return nil, nil
	case *EmbeddingOptions:
		return o, nil
	case EmbeddingOptions:
		return &o, nil
	case *llm.EmbeddingOptions:
		if o == nil {
			return nil, nil
		}
		return &EmbeddingOptions{Transformer: o.Model}, nil
	case llm.EmbeddingOptions:
		return &EmbeddingOptions{Transformer: o.Model}, nil
	default:
		return nil, fmt.Errorf("%w: %T", llm.ErrUnsupportedOptions, opts)
	}
}
