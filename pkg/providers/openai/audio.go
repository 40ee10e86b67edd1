package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/modelport/modelport/pkg/llm"
)

// Speech defaults applied when neither the defaults nor the request set them
const (
	DefaultSpeechVoice  = "alloy"
	DefaultSpeechFormat = "mp3"
)

// speechChunkSize is the size of the pieces streamed speech is delivered in
const speechChunkSize = 16 * 1024

// AudioTranscriptionModel implements llm.AudioTranscriptionModel
type AudioTranscriptionModel struct {
	conn     *connection
	defaults *TranscriptionOptions
	logger   *zap.Logger
}

var _ llm.AudioTranscriptionModel = (*AudioTranscriptionModel)(nil)

// NewAudioTranscriptionModel creates a transcription model
func NewAudioTranscriptionModel(config llm.ClientConfig, opts ...Option) (*AudioTranscriptionModel, error) {
	s := newSettings(config, opts)
	conn, err := newConnection(config, s)
	if err != nil {
		return nil, err
	}

	defaults := s.transcription.Clone()
	if defaults == nil {
		defaults = &TranscriptionOptions{}
	}
	if defaults.Model == "" {
		defaults.Model = config.Model
	}
	if defaults.Model == "" {
		defaults.Model = llm.DefaultOpenAITranscriptionModel
	}

	return &AudioTranscriptionModel{
		conn:     conn,
		defaults: defaults,
		logger:   s.logger,
	}, nil
}

// Call transcribes the audio. The audio is sent once: a reader cannot be replayed,
// so failed attempts are not retried.
func (m *AudioTranscriptionModel) Call(ctx context.Context, req llm.TranscriptionRequest) (*llm.TranscriptionResponse, error) {
	if req.Audio == nil {
		return nil, errors.New("no audio to transcribe")
	}
	if req.Filename == "" {
		return nil, errors.New("audio filename is required to detect its format")
	}

	rt, err := toTranscriptionOptions(req.Options)
	if err != nil {
		return nil, err
	}
	opts, err := llm.MergeOptions(m.defaults, rt)
	if err != nil {
		return nil, err
	}
	if opts.Model == "" {
		return nil, llm.ErrMissingModel
	}

	apiReq := openai.AudioRequest{
		Model:    opts.Model,
		FilePath: req.Filename,
		Reader:   req.Audio,
		Prompt:   opts.Prompt,
		Language: opts.Language,
		Format:   openai.AudioResponseFormat(opts.ResponseFormat),
	}
	if opts.Temperature != nil {
		apiReq.Temperature = float32(*opts.Temperature)
	}

	m.logger.Debug("creating transcription",
		zap.String("model", opts.Model),
		zap.String("file", req.Filename))

	resp, err := m.conn.client.CreateTranscription(ctx, apiReq)
	if err != nil {
		return nil, convertError(err)
	}

	out := &llm.TranscriptionResponse{
		Text:      resp.Text,
		Language:  resp.Language,
		Duration:  seconds(resp.Duration),
		RateLimit: rateLimitFrom(&resp),
	}
	for _, seg := range resp.Segments {
		out.Segments = append(out.Segments, llm.TranscriptionSegment{
			ID:    seg.ID,
			Start: seconds(seg.Start),
			End:   seconds(seg.End),
			Text:  seg.Text,
		})
	}
	return out, nil
}

// Transcribe returns only the transcribed text
func (m *AudioTranscriptionModel) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	resp, err := m.Call(ctx, llm.TranscriptionRequest{Audio: audio, Filename: filename})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// AudioSpeechModel implements llm.AudioSpeechModel
type AudioSpeechModel struct {
	conn     *connection
	defaults *SpeechOptions
	retry    *llm.RetryTemplate
	logger   *zap.Logger
}

var _ llm.AudioSpeechModel = (*AudioSpeechModel)(nil)

// NewAudioSpeechModel creates a text-to-speech model
func NewAudioSpeechModel(config llm.ClientConfig, opts ...Option) (*AudioSpeechModel, error) {
	s := newSettings(config, opts)
	conn, err := newConnection(config, s)
	if err != nil {
		return nil, err
	}

	defaults := s.speech.Clone()
	if defaults == nil {
		defaults = &SpeechOptions{}
	}
	if defaults.Model == "" {
		defaults.Model = config.Model
	}
	if defaults.Model == "" {
		defaults.Model = llm.DefaultOpenAISpeechModel
	}
	if defaults.Voice == "" {
		defaults.Voice = DefaultSpeechVoice
	}
	if defaults.Format == "" {
		defaults.Format = DefaultSpeechFormat
	}

	return &AudioSpeechModel{
		conn:     conn,
		defaults: defaults,
		retry:    s.retry,
		logger:   s.logger,
	}, nil
}

// open starts the synthesis and returns the audio body
func (m *AudioSpeechModel) open(ctx context.Context, prompt llm.SpeechPrompt) (openai.RawResponse, *SpeechOptions, error) {
	if prompt.Text == "" {
		return openai.RawResponse{}, nil, llm.ErrEmptyPrompt
	}
	rt, err := toSpeechOptions(prompt.Options)
	if err != nil {
		return openai.RawResponse{}, nil, err
	}
	opts, err := llm.MergeOptions(m.defaults, rt)
	if err != nil {
		return openai.RawResponse{}, nil, err
	}

	req := openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(opts.Model),
		Input:          prompt.Text,
		Voice:          openai.SpeechVoice(opts.Voice),
		ResponseFormat: openai.SpeechResponseFormat(opts.Format),
	}
	if opts.Speed != nil {
		req.Speed = *opts.Speed
	}

	m.logger.Debug("creating speech",
		zap.String("model", opts.Model),
		zap.String("voice", opts.Voice),
		zap.Int("characters", len(prompt.Text)))

	raw, err := llm.Retry(ctx, m.retry, func(ctx context.Context) (openai.RawResponse, error) {
		raw, err := m.conn.client.CreateSpeech(ctx, req)
		return raw, convertError(err)
	})
	if err != nil {
		return openai.RawResponse{}, nil, err
	}
	return raw, opts, nil
}

// Call synthesizes the whole text and returns the audio
func (m *AudioSpeechModel) Call(ctx context.Context, prompt llm.SpeechPrompt) (*llm.SpeechResponse, error) {
	raw, opts, err := m.open(ctx, prompt)
	if err != nil {
		return nil, err
	}
	defer raw.Close()

	audio, err := io.ReadAll(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to read speech audio: %w", convertError(err))
	}
	return &llm.SpeechResponse{
		Audio:     audio,
		Format:    opts.Format,
		RateLimit: rateLimitFrom(&raw),
	}, nil
}

// Stream delivers the audio in chunks as it is received
func (m *AudioSpeechModel) Stream(ctx context.Context, prompt llm.SpeechPrompt) (<-chan llm.SpeechChunk, error) {
	raw, _, err := m.open(ctx, prompt)
	if err != nil {
		return nil, err
	}

	ch := make(chan llm.SpeechChunk, streamBufferSize)
	go func() {
		defer close(ch)
		defer raw.Close()

		buf := make([]byte, speechChunkSize)
		for {
			n, err := raw.Read(buf)
			if n > 0 {
				data := make([]byte, n)
				copy(data, buf[:n])
				if !send(ctx, ch, llm.SpeechChunk{Data: data}) {
					return
				}
			}
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				send(ctx, ch, llm.SpeechChunk{Err: convertError(err)})
				return
			}
		}
	}()
	return ch, nil
}
