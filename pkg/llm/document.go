package llm

import (
	"fmt"
	"slices"
	"strings"
)

// MetadataMode selects which document metadata is folded into the text sent to a model
type MetadataMode string

const (
	MetadataModeAll       MetadataMode = "all"
	MetadataModeEmbed     MetadataMode = "embed"
	MetadataModeInference MetadataMode = "inference"
	MetadataModeNone      MetadataMode = "none"
)

// Document is a piece of text with metadata, the unit of embedding
type Document struct {
	ID       string         `json:"id,omitempty"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`

	// ExcludedEmbedMetadataKeys are left out under MetadataModeEmbed
	ExcludedEmbedMetadataKeys []string `json:"excluded_embed_metadata_keys,omitempty"`

	// ExcludedInferenceMetadataKeys are left out under MetadataModeInference
	ExcludedInferenceMetadataKeys []string `json:"excluded_inference_metadata_keys,omitempty"`
}

// NewDocument creates a document
func NewDocument(content string, metadata map[string]any) Document {
	return Document{Content: content, Metadata: metadata}
}

// FormattedContent renders the metadata allowed by mode as "key: value" lines,
// followed by a blank line and the content.
func (d Document) FormattedContent(mode MetadataMode) string {
	var excluded []string
	switch mode {
	case MetadataModeNone, "":
		return d.Content
	case MetadataModeEmbed:
		excluded = d.ExcludedEmbedMetadataKeys
	case MetadataModeInference:
		excluded = d.ExcludedInferenceMetadataKeys
	}

	keys := make([]string, 0, len(d.Metadata))
	for k := range d.Metadata {
		if !slices.Contains(excluded, k) {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return d.Content
	}
	slices.Sort(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %v\n", k, d.Metadata[k])
	}
	b.WriteString("\n")
	b.WriteString(d.Content)
	return b.String()
}
