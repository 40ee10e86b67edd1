package openai

import (
	"fmt"
	"maps"
	"slices"

	"github.com/modelport/modelport/pkg/llm"
)

// Tool choice values besides a function name
const (
	ToolChoiceAuto     = "auto"
	ToolChoiceNone     = "none"
	ToolChoiceRequired = "required"
)

// ChatOptions are the OpenAI chat parameters: the portable ones plus what only OpenAI understands
type ChatOptions struct {
	llm.ToolCallingChatOptions

	// MaxCompletionTokens bounds visible and reasoning tokens. When set, MaxTokens is dropped.
	MaxCompletionTokens *int                `json:"max_completion_tokens,omitempty" yaml:"max_completion_tokens,omitempty"`
	N                   *int                `json:"n,omitempty" yaml:"n,omitempty"`
	Seed                *int                `json:"seed,omitempty" yaml:"seed,omitempty"`
	LogitBias           map[string]int      `json:"logit_bias,omitempty" yaml:"logit_bias,omitempty"`
	LogProbs            *bool               `json:"logprobs,omitempty" yaml:"logprobs,omitempty"`
	TopLogProbs         *int                `json:"top_logprobs,omitempty" yaml:"top_logprobs,omitempty"`
	User                string              `json:"user,omitempty" yaml:"user,omitempty"`
	ResponseFormat      *llm.ResponseFormat `json:"response_format,omitempty" yaml:"response_format,omitempty"`

	// ToolChoice is "auto", "none", "required" or the name of the function to force
	ToolChoice        string            `json:"tool_choice,omitempty" yaml:"tool_choice,omitempty"`
	ParallelToolCalls *bool             `json:"parallel_tool_calls,omitempty" yaml:"parallel_tool_calls,omitempty"`
	Store             *bool             `json:"store,omitempty" yaml:"store,omitempty"`
	ReasoningEffort   string            `json:"reasoning_effort,omitempty" yaml:"reasoning_effort,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`

	// StreamUsage asks for a final usage chunk when streaming
	StreamUsage *bool `json:"stream_usage,omitempty" yaml:"stream_usage,omitempty"`

	// Deprecated: use ToolNames.
	Functions []string `json:"functions,omitempty" yaml:"functions,omitempty"`

	// Deprecated: use InternalToolExecutionEnabled, which is its negation.
	ProxyToolCalls *bool `json:"proxy_tool_calls,omitempty" yaml:"proxy_tool_calls,omitempty"`
}

// Clone returns a deep copy of o
func (o *ChatOptions) Clone() *ChatOptions {
	if o == nil {
		return nil
	}
	copied := *o
	copied.ToolCallingChatOptions = *o.ToolCallingChatOptions.Clone()
	copied.LogitBias = maps.Clone(o.LogitBias)
	copied.Metadata = maps.Clone(o.Metadata)
	copied.Functions = slices.Clone(o.Functions)
	if o.ResponseFormat != nil {
		rf := *o.ResponseFormat
		if rf.JSONSchema != nil {
			schema := *rf.JSONSchema
			rf.JSONSchema = &schema
		}
		copied.ResponseFormat = &rf
	}
	return &copied
}

// toChatOptions converts any accepted options value into *ChatOptions
func toChatOptions(opts llm.ChatOptionsProvider) (*ChatOptions, error) {
	switch o := opts.(type) {
	case nil:
		return nil, nil
	case *ChatOptions:
		return o, nil
	case ChatOptions:
		return &o, nil
	case *llm.ToolCallingChatOptions:
		if o == nil {
			return nil, nil
		}
		return &ChatOptions{ToolCallingChatOptions: *o}, nil
	case llm.ToolCallingChatOptions:
		return &ChatOptions{ToolCallingChatOptions: o}, nil
	case *llm.ChatOptions:
		if o == nil {
			return nil, nil
		}
		return &ChatOptions{ToolCallingChatOptions: llm.ToolCallingChatOptions{ChatOptions: *o}}, nil
	case llm.ChatOptions:
		return &ChatOptions{ToolCallingChatOptions: llm.ToolCallingChatOptions{ChatOptions: o}}, nil
	default:
		return nil, fmt.Errorf("%w: %T", llm.ErrUnsupportedOptions, opts)
	}
}

// EmbeddingOptions are the OpenAI embedding parameters
type EmbeddingOptions struct {
	Model          string `json:"model,omitempty" yaml:"model,omitempty"`
	Dimensions     *int   `json:"dimensions,omitempty" yaml:"dimensions,omitempty"`
	User           string `json:"user,omitempty" yaml:"user,omitempty"`
	EncodingFormat string `json:"encoding_format,omitempty" yaml:"encoding_format,omitempty"`
}

// GetEmbeddingOptions implements llm.EmbeddingOptionsProvider
func (o EmbeddingOptions) GetEmbeddingOptions() llm.EmbeddingOptions {
	return llm.EmbeddingOptions{Model: o.Model, Dimensions: o.Dimensions}
}

// Clone returns a copy of o
func (o *EmbeddingOptions) Clone() *EmbeddingOptions {
	if o == nil {
		return nil
	}
	copied := *o
	return &copied
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
		return &EmbeddingOptions{Model: o.Model, Dimensions: o.Dimensions}, nil
	case llm.EmbeddingOptions:
		return &EmbeddingOptions{Model: o.Model, Dimensions: o.Dimensions}, nil
	default:
		return nil, fmt.Errorf("%w: %T", llm.ErrUnsupportedOptions, opts)
	}
}

// ImageOptions are the OpenAI image generation parameters
type ImageOptions struct {
	Model  string `json:"model,omitempty" yaml:"model,omitempty"`
	N      *int   `json:"n,omitempty" yaml:"n,omitempty"`
	Width  *int   `json:"width,omitempty" yaml:"width,omitempty"`
	Height *int   `json:"height,omitempty" yaml:"height,omitempty"`

	// Size such as "1024x1024"; derived from Width and Height when empty
	Size           string `json:"size,omitempty" yaml:"size,omitempty"`
	Quality        string `json:"quality,omitempty" yaml:"quality,omitempty"`
	Style          string `json:"style,omitempty" yaml:"style,omitempty"`
	ResponseFormat string `json:"response_format,omitempty" yaml:"response_format,omitempty"`
	User           string `json:"user,omitempty" yaml:"user,omitempty"`
	Background     string `json:"background,omitempty" yaml:"background,omitempty"`
	OutputFormat   string `json:"output_format,omitempty" yaml:"output_format,omitempty"`

	// PartialImages is the number of partial images sent while streaming (0-3)
	PartialImages *int `json:"partial_images,omitempty" yaml:"partial_images,omitempty"`
}

// GetImageOptions implements llm.ImageOptionsProvider
func (o ImageOptions) GetImageOptions() llm.ImageOptions {
	return llm.ImageOptions{
		Model:          o.Model,
		N:              o.N,
		Width:          o.Width,
		Height:         o.Height,
		ResponseFormat: o.ResponseFormat,
		Style:          o.Style,
	}
}

// Clone returns a copy of o
func (o *ImageOptions) Clone() *ImageOptions {
	if o == nil {
		return nil
	}
	copied := *o
	return &copied
}

// size returns Size, or WIDTHxHEIGHT when both are set
func (o *ImageOptions) size() string {
	if o.Size != "" {
		return o.Size
	}
	if o.Width != nil && o.Height != nil {
		return fmt.Sprintf("%dx%d", *o.Width, *o.Height)
	}
	return ""
}

func toImageOptions(opts llm.ImageOptionsProvider) (*ImageOptions, error) {
	switch o := opts.(type) {
	case nil:
		return nil, nil
	case *ImageOptions:
		return o, nil
	case ImageOptions:
		return &o, nil
	case *llm.ImageOptions:
		if o == nil {
			return nil, nil
		}
		return imageOptionsFrom(*o), nil
	case llm.ImageOptions:
		return imageOptionsFrom(o), nil
	default:
		return nil, fmt.Errorf("%w: %T", llm.ErrUnsupportedOptions, opts)
	}
}

func imageOptionsFrom(o llm.ImageOptions) *ImageOptions {
	return &ImageOptions{
		Model:          o.Model,
		N:              o.N,
		Width:          o.Width,
		Height:         o.Height,
		ResponseFormat: o.ResponseFormat,
		Style:          o.Style,
	}
}

// TranscriptionOptions are the OpenAI transcription parameters
type TranscriptionOptions struct {
	Model       string   `json:"model,omitempty" yaml:"model,omitempty"`
	Language    string   `json:"language,omitempty" yaml:"language,omitempty"`
	Prompt      string   `json:"prompt,omitempty" yaml:"prompt,omitempty"`
	Temperature *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`

	// ResponseFormat is json, text, srt, vtt or verbose_json (needed for segments)
	ResponseFormat string `json:"response_format,omitempty" yaml:"response_format,omitempty"`
}

// GetTranscriptionOptions implements llm.TranscriptionOptionsProvider
func (o TranscriptionOptions) GetTranscriptionOptions() llm.TranscriptionOptions {
	return llm.TranscriptionOptions{
		Model:       o.Model,
		Language:    o.Language,
		Prompt:      o.Prompt,
		Temperature: o.Temperature,
	}
}

// Clone returns a copy of o
func (o *TranscriptionOptions) Clone() *TranscriptionOptions {
	if o == nil {
		return nil
	}
	copied := *o
	return &copied
}

func toTranscriptionOptions(opts llm.TranscriptionOptionsProvider) (*TranscriptionOptions, error) {
	switch o := opts.(type) {
	case nil:
		return nil, nil
	case *TranscriptionOptions:
		return o, nil
	case TranscriptionOptions:
		return &o, nil
	case *llm.TranscriptionOptions:
		if o == nil {
			return nil, nil
		}
		return &TranscriptionOptions{Model: o.Model, Language: o.Language, Prompt: o.Prompt, Temperature: o.Temperature}, nil
	case llm.TranscriptionOptions:
		return &TranscriptionOptions{Model: o.Model, Language: o.Language, Prompt: o.Prompt, Temperature: o.Temperature}, nil
	default:
		return nil, fmt.Errorf("%w: %T", llm.ErrUnsupportedOptions, opts)
	}
}

// SpeechOptions are the OpenAI text-to-speech parameters
type SpeechOptions struct {
	Model  string   `json:"model,omitempty" yaml:"model,omitempty"`
	Voice  string   `json:"voice,omitempty" yaml:"voice,omitempty"`
	Format string   `json:"format,omitempty" yaml:"format,omitempty"`
	Speed  *float64 `json:"speed,omitempty" yaml:"speed,omitempty"`
}

// GetSpeechOptions implements llm.SpeechOptionsProvider
func (o SpeechOptions) GetSpeechOptions() llm.SpeechOptions {
	return llm.SpeechOptions(o)
}

// Clone returns a copy of o
func (o *SpeechOptions) Clone() *SpeechOptions {
	if o == nil {
		return nil
	}
	copied := *o
	return &copied
}

func toSpeechOptions(opts llm.SpeechOptionsProvider) (*SpeechOptions, error) {
	switch o := opts.(type) {
	case nil:
		return nil, nil
	case *SpeechOptions:
		return o, nil
	case SpeechOptions:
		return &o, nil
	case *llm.SpeechOptions:
		if o == nil {
			return nil, nil
		}
		converted := SpeechOptions(*o)
		return &converted, nil
	case llm.SpeechOptions:
		converted := SpeechOptions(o)
		return &converted, nil
	default:
		return nil, fmt.Errorf("%w: %T", llm.ErrUnsupportedOptions, opts)
	}
}

// ModerationOptions are the OpenAI moderation parameters
type ModerationOptions struct {
	Model string `json:"model,omitempty" yaml:"model,omitempty"`
}

// GetModerationOptions implements llm.ModerationOptionsProvider
func (o ModerationOptions) GetModerationOptions() llm.ModerationOptions {
	return llm.ModerationOptions(o)
}

// Clone returns a copy of o
func (o *ModerationOptions) Clone() *ModerationOptions {
	if o == nil {
		return nil
	}
	copied := *o
	return &copied
}

func toModerationOptions(opts llm.ModerationOptionsProvider) (*ModerationOptions, error) {
	switch o := opts.(type) {
	case nil:
		return nil, nil
	case *ModerationOptions:
		return o, nil
	case ModerationOptions:
		return &o, nil
	case *llm.ModerationOptions:
		if o == nil {
			return nil, nil
		}
		converted := ModerationOptions(*o)
		return &converted, nil
	case llm.ModerationOptions:
		converted := ModerationOptions(o)
		return &converted, nil
	default:
		return nil, fmt.Errorf("%w: %T", llm.ErrUnsupportedOptions, opts)
	}
}
