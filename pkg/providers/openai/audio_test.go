package openai

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/modelport/modelport/pkg/llm"
)

func TestAudioTranscriptionModelCall(t *testing.T) {
	t.Parallel()

	srv := newAPIServer(t, jsonReply(`{
		"task": "transcribe",
		"language": "english",
		"duration": 2.5,
		"text": "Hello world.",
		"segments": [
			{"id": 0, "start": 0.0, "end": 1.5, "text": "Hello"},
			{"id": 1, "start": 1.5, "end": 2.5, "text": " world."}
		]
	}`))
	m, err := NewAudioTranscriptionModel(srv.config(), WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)

	resp, err := m.Call(context.Background(), llm.TranscriptionRequest{
		Audio:    bytes.NewReader([]byte("ID3fake-audio")),
		Filename: "speech.mp3",
		Options:  &TranscriptionOptions{Language: "en", ResponseFormat: "verbose_json"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Hello world.", resp.Text)
	assert.Equal(t, "english", resp.Language)
	assert.Equal(t, 2500*time.Millisecond, resp.Duration)
	require.Len(t, resp.Segments, 2)
	assert.Equal(t, 1500*time.Millisecond, resp.Segments[1].Start)
	assert.Equal(t, " world.", resp.Segments[1].Text)

	rec := srv.request(0)
	assert.Equal(t, "/v1/audio/transcriptions", rec.path)
	assert.True(t, strings.HasPrefix(rec.header.Get("Content-Type"), "multipart/form-data"))
	raw := string(rec.raw)
	assert.Contains(t, raw, `filename="speech.mp3"`)
	assert.Contains(t, raw, llm.DefaultOpenAITranscriptionModel)
	assert.Contains(t, raw, "verbose_json")
	assert.Contains(t, raw, "ID3fake-audio")
}

func TestAudioTranscriptionModelTranscribe(t *testing.T) {
	t.Parallel()

	srv := newAPIServer(t, jsonReply(`{"text": "Just the text."}`))
	m, err := NewAudioTranscriptionModel(srv.config())
	require.NoError(t, err)

	text, err := m.Transcribe(context.Background(), strings.NewReader("audio"), "clip.wav")
	require.NoError(t, err)
	assert.Equal(t, "Just the text.", text)
}

func TestAudioTranscriptionModelIsNotRetried(t *testing.T) {
	t.Parallel()

	srv := newAPIServer(t, errorReply(http.StatusInternalServerError, "server_error", "boom"))
	m, err := NewAudioTranscriptionModel(srv.config(), fastRetry())
	require.NoError(t, err)

	_, err = m.Transcribe(context.Background(), strings.NewReader("audio"), "clip.wav")
	require.Error(t, err)
	assert.Equal(t, 1, srv.count())
}

func TestAudioTranscriptionModelValidatesRequest(t *testing.T) {
	t.Parallel()

	srv := newAPIServer(t)
	m, err := NewAudioTranscriptionModel(srv.config())
	require.NoError(t, err)

	_, err = m.Call(context.Background(), llm.TranscriptionRequest{Filename: "clip.wav"})
	assert.Error(t, err)
	_, err = m.Call(context.Background(), llm.TranscriptionRequest{Audio: strings.NewReader("audio")})
	assert.Error(t, err)
	assert.Equal(t, 0, srv.count())
}

func TestAudioSpeechModelCall(t *testing.T) {
	t.Parallel()

	audio := []byte("fake-mp3-bytes")
	srv := newAPIServer(t, reply{status: http.StatusOK, body: string(audio), header: http.Header{"Content-Type": {"audio/mpeg"}}})
	m, err := NewAudioSpeechModel(srv.config(), WithLogger(zaptest.NewLogger(t)), fastRetry())
	require.NoError(t, err)

	resp, err := m.Call(context.Background(), llm.SpeechPrompt{
		Text:    "Hello world",
		Options: llm.SpeechOptions{Voice: "nova", Speed: llm.Ptr(1.25)},
	})
	require.NoError(t, err)
	assert.Equal(t, audio, resp.Audio)
	assert.Equal(t, DefaultSpeechFormat, resp.Format)

	rec := srv.request(0)
	assert.Equal(t, "/v1/audio/speech", rec.path)
	assert.Equal(t, llm.DefaultOpenAISpeechModel, rec.body["model"])
	assert.Equal(t, "Hello world", rec.body["input"])
	assert.Equal(t, "nova", rec.body["voice"])
	assert.Equal(t, DefaultSpeechFormat, rec.body["response_format"])
	assert.InDelta(t, 1.25, rec.body["speed"], 1e-6)
}

func TestAudioSpeechModelStream(t *testing.T) {
	t.Parallel()

	audio := bytes.Repeat([]byte{0xAB}, speechChunkSize*2+100)
	srv := newAPIServer(t, reply{status: http.StatusOK, body: string(audio), header: http.Header{"Content-Type": {"audio/mpeg"}}})
	m, err := NewAudioSpeechModel(srv.config(), fastRetry())
	require.NoError(t, err)

	ch, err := m.Stream(context.Background(), llm.SpeechPrompt{Text: "A longer text"})
	require.NoError(t, err)

	var got []byte
	for chunk := range ch {
		require.NoError(t, chunk.Err)
		assert.LessOrEqual(t, len(chunk.Data), speechChunkSize)
		got = append(got, chunk.Data...)
	}
	assert.Equal(t, audio, got)
}

func TestAudioSpeechModelEmptyText(t *testing.T) {
	t.Parallel()

	srv := newAPIServer(t)
	m, err := NewAudioSpeechModel(srv.config())
	require.NoError(t, err)

	_, err = m.Call(context.Background(), llm.SpeechPrompt{})
	assert.ErrorIs(t, err, llm.ErrEmptyPrompt)
	assert.Equal(t, 0, srv.count())
}
