// Model interfaces implemented by the provider adapters
package llm

import (
	"context"
	"io"
)

// ChatModel defines the interface all chat adapters implement
type ChatModel interface {
	// Call performs a chat completion, running the tool-calling loop when enabled
	Call(ctx context.Context, prompt Prompt) (*ChatResponse, error)

	// Stream performs a streaming chat completion. The channel is closed when the
	// stream ends, fails or ctx is done.
	Stream(ctx context.Context, prompt Prompt) (<-chan StreamEvent, error)

	// DefaultOptions returns the options applied under every request
	DefaultOptions() ChatOptionsProvider

	// GetModelInfo returns information about the default model
	GetModelInfo() ModelInfo
}

// ModelInfo describes a chat model's limits and capabilities
type ModelInfo struct {
	Name              string `json:"name"`
	Provider          string `json:"provider"`
	MaxTokens         int    `json:"max_tokens"` // context window, 0 when unknown
	SupportsTools     bool   `json:"supports_tools"`
	SupportsVision    bool   `json:"supports_vision"`
	SupportsStreaming bool   `json:"supports_streaming"`
}

// EmbeddingModel turns text into vectors
type EmbeddingModel interface {
	Call(ctx context.Context, req EmbeddingRequest) (*EmbeddingResponse, error)

	// Embed returns the vector for a single text
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedDocuments returns one vector per document, in order
	EmbedDocuments(ctx context.Context, docs []Document) ([][]float32, error)

	// Dimensions returns the size of the vectors produced
	Dimensions(ctx context.Context) (int, error)
}

// ImageModel generates images from text instructions
type ImageModel interface {
	Call(ctx context.Context, prompt ImagePrompt) (*ImageResponse, error)
}

// StreamingImageModel can also deliver partial images while generating
type StreamingImageModel interface {
	ImageModel
	Stream(ctx context.Context, prompt ImagePrompt) (<-chan ImageStreamEvent, error)
}

// AudioTranscriptionModel converts speech to text
type AudioTranscriptionModel interface {
	Call(ctx context.Context, req TranscriptionRequest) (*TranscriptionResponse, error)

	// Transcribe is a shortcut returning only the text
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}

// AudioSpeechModel converts text to speech
type AudioSpeechModel interface {
	Call(ctx context.Context, prompt SpeechPrompt) (*SpeechResponse, error)
	Stream(ctx context.Context, prompt SpeechPrompt) (<-chan SpeechChunk, error)
}

// ModerationModel classifies text against content policies
type ModerationModel interface {
	Call(ctx context.Context, prompt ModerationPrompt) (*ModerationResponse, error)
}
