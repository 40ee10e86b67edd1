package llm

import (
	"io"
	"time"
)

// TranscriptionOptionsProvider is implemented by every options type an AudioTranscriptionModel accepts
type TranscriptionOptionsProvider interface {
	GetTranscriptionOptions() TranscriptionOptions
}

// TranscriptionOptions holds the portable transcription parameters
type TranscriptionOptions struct {
	Model       string   `json:"model,omitempty" yaml:"model,omitempty"`
	Language    string   `json:"language,omitempty" yaml:"language,omitempty"`
	Prompt      string   `json:"prompt,omitempty" yaml:"prompt,omitempty"`
	Temperature *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
}

// GetTranscriptionOptions implements TranscriptionOptionsProvider
func (o TranscriptionOptions) GetTranscriptionOptions() TranscriptionOptions {
	return o
}

// TranscriptionRequest carries the audio to transcribe
type TranscriptionRequest struct {
	Audio    io.Reader
	Filename string
	Options  TranscriptionOptionsProvider
}

// TranscriptionSegment is a timed piece of a transcription
type TranscriptionSegment struct {
	ID    int           `json:"id"`
	Start time.Duration `json:"start"`
	End   time.Duration `json:"end"`
	Text  string        `json:"text"`
}

// TranscriptionResponse is the result of a transcription
type TranscriptionResponse struct {
	Text      string                 `json:"text"`
	Language  string                 `json:"language,omitempty"`
	Duration  time.Duration          `json:"duration,omitempty"`
	Segments  []TranscriptionSegment `json:"segments,omitempty"`
	RateLimit *RateLimit             `json:"rate_limit,omitempty"`
}

// SpeechOptionsProvider is implemented by every options type an AudioSpeechModel accepts
type SpeechOptionsProvider interface {
	GetSpeechOptions() SpeechOptions
}

// SpeechOptions holds the portable speech synthesis parameters
type SpeechOptions struct {
	Model  string   `json:"model,omitempty" yaml:"model,omitempty"`
	Voice  string   `json:"voice,omitempty" yaml:"voice,omitempty"`
	Format string   `json:"format,omitempty" yaml:"format,omitempty"`
	Speed  *float64 `json:"speed,omitempty" yaml:"speed,omitempty"`
}

// GetSpeechOptions implements SpeechOptionsProvider
func (o SpeechOptions) GetSpeechOptions() SpeechOptions {
	return o
}

// SpeechPrompt is the text to synthesize
type SpeechPrompt struct {
	Text    string
	Options SpeechOptionsProvider
}

// SpeechResponse holds the synthesized audio
type SpeechResponse struct {
	Audio     []byte     `json:"audio"`
	Format    string     `json:"format"`
	RateLimit *RateLimit `json:"rate_limit,omitempty"`
}

// SpeechChunk is a piece of streamed audio. A chunk with Err set is the last one.
type SpeechChunk struct {
	Data []byte
	Err  error
}
