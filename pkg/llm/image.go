package llm

import (
	"strings"
	"time"
)

// ImageOptionsProvider is implemented by every options type an ImageModel accepts
type ImageOptionsProvider interface {
	GetImageOptions() ImageOptions
}

// ImageOptions holds the portable image generation parameters
type ImageOptions struct {
	Model          string `json:"model,omitempty" yaml:"model,omitempty"`
	N              *int   `json:"n,omitempty" yaml:"n,omitempty"`
	Width          *int   `json:"width,omitempty" yaml:"width,omitempty"`
	Height         *int   `json:"height,omitempty" yaml:"height,omitempty"`
	ResponseFormat string `json:"response_format,omitempty" yaml:"response_format,omitempty"`
	Style          string `json:"style,omitempty" yaml:"style,omitempty"`
}

// GetImageOptions implements ImageOptionsProvider
func (o ImageOptions) GetImageOptions() ImageOptions {
	return o
}

// ImageMessage is one instruction of an image prompt
type ImageMessage struct {
	Text   string  `json:"text"`
	Weight float64 `json:"weight,omitempty"`
}

// ImagePrompt is the portable image generation request
type ImagePrompt struct {
	Instructions []ImageMessage
	Options      ImageOptionsProvider
}

// NewImagePrompt creates a prompt with a single instruction
func NewImagePrompt(text string, opts ...ImageOptionsProvider) ImagePrompt {
	p := ImagePrompt{Instructions: []ImageMessage{{Text: text}}}
	if len(opts) > 0 {
		p.Options = opts[0]
	}
	return p
}

// Text joins the instruction texts
func (p ImagePrompt) Text() string {
	parts := make([]string, 0, len(p.Instructions))
	for _, m := range p.Instructions {
		parts = append(parts, m.Text)
	}
	return strings.Join(parts, "\n")
}

// ImageGeneration is one generated image, as URL or base64 payload
type ImageGeneration struct {
	URL           string `json:"url,omitempty"`
	B64JSON       string `json:"b64_json,omitempty"`
	RevisedPrompt string `json:"revised_prompt,omitempty"`
}

// ImageResponse is the result of an image generation
type ImageResponse struct {
	Created     time.Time         `json:"created,omitzero"`
	Generations []ImageGeneration `json:"generations"`
	RateLimit   *RateLimit        `json:"rate_limit,omitempty"`
}

// Image stream event types
const (
	ImageStreamEventPartial   = "partial_image"
	ImageStreamEventCompleted = "completed"
	ImageStreamEventError     = "error"
)

// ImageStreamEvent is emitted while an image is generated progressively
type ImageStreamEvent struct {
	Type              string `json:"type"`
	PartialImageIndex int    `json:"partial_image_index,omitempty"`
	B64JSON           string `json:"b64_json,omitempty"`
	Usage             *Usage `json:"usage,omitempty"`
	Error             *Error `json:"error,omitempty"`
}
