// Configuration types and response format specifications
package llm

import "time"

const (
	DefaultOpenAIModel              = "gpt-4o-mini"
	DefaultOpenAIEmbeddingModel     = "text-embedding-ada-002"
	DefaultOpenAIImageModel         = "dall-e-3"
	DefaultOpenAITranscriptionModel = "whisper-1"
	DefaultOpenAISpeechModel        = "gpt-4o-mini-tts"
	DefaultOpenAIModerationModel    = "omni-moderation-latest"
	DefaultPostgresMLTransformer    = "distilbert-base-uncased"
	DefaultOpenAIBaseURL            = "https://api.openai.com/v1"
	DefaultTimeout                  = 60 * time.Second
)

// ClientConfig holds configuration for creating model adapters through the factory
type ClientConfig struct {
	Provider   string            `json:"provider" yaml:"provider"` // openai, postgresml, mock
	Model      string            `json:"model" yaml:"model"`
	APIKey     string            `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	BaseURL    string            `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Timeout    time.Duration     `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	MaxRetries int               `json:"max_retries,omitempty" yaml:"max_retries,omitempty"`
	Retry      *RetryConfig      `json:"retry,omitempty" yaml:"retry,omitempty"` // takes precedence over MaxRetries
	Extra      map[string]string `json:"extra,omitempty" yaml:"extra,omitempty"` // Provider-specific configs
}

// ResponseFormat specifies the desired response format for structured outputs
type ResponseFormat struct {
	Type       ResponseFormatType `json:"type"`
	JSONSchema *JSONSchema        `json:"json_schema,omitempty"`
}

// ResponseFormatType defines the type of response format
type ResponseFormatType string

const (
	// ResponseFormatText indicates plain text response (default)
	ResponseFormatText ResponseFormatType = "text"
	// ResponseFormatJSON indicates JSON object response without strict schema
	ResponseFormatJSON ResponseFormatType = "json_object"
	// ResponseFormatJSONSchema indicates JSON response with strict schema validation
	ResponseFormatJSONSchema ResponseFormatType = "json_schema"
)

// JSONSchema represents a JSON Schema specification for structured outputs
type JSONSchema struct {
	Name        string `json:"name,omitempty"`        // Schema name (required by some providers)
	Description string `json:"description,omitempty"` // Human-readable description
	Schema      any    `json:"schema"`                // The actual JSON Schema object
	Strict      *bool  `json:"strict,omitempty"`      // Enable strict validation (OpenAI-specific)
}
