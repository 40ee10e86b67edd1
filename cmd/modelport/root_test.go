package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args after resetting the flag values a previous run left behind
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cfgFile, provider, verbose = "", "openai", false
	chatFlags.model, chatFlags.stream, chatFlags.temperature, chatFlags.maxTokens = "", false, -1, 0
	embedFlags.model = ""
	moderateFlags.model = ""

	t.Setenv("MODELPORT_LOG_LEVEL", "error")
	t.Setenv("MODELPORT_REDIS_ADDR", "")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestChatCommandMock(t *testing.T) {
	out, err := execute(t, "chat", "--provider", "mock", "hello", "there")
	require.NoError(t, err)
	assert.Equal(t, "Hello! How can I help you today?\n", out)
}

func TestChatCommandStreamMock(t *testing.T) {
	out, err := execute(t, "chat", "--provider", "mock", "--stream", "tell me about Go")
	require.NoError(t, err)
	assert.Equal(t, "I understand you're asking about: tell me about Go\n", out)
}

func TestChatCommandUnknownProvider(t *testing.T) {
	_, err := execute(t, "chat", "--provider", "nope", "hi")
	assert.ErrorContains(t, err, "unsupported chat provider: nope")
}

func TestEmbedCommandMock(t *testing.T) {
	out, err := execute(t, "embed", "--provider", "mock", "one", "two")
	require.NoError(t, err)

	var vectors [][]float32
	require.NoError(t, json.Unmarshal([]byte(out), &vectors))
	require.Len(t, vectors, 2)
	assert.NotEqual(t, vectors[0], vectors[1])
}

func TestEmbedCommandWithCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modelport.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cache:\n  backend: memory\n"), 0o600))

	out, err := execute(t, "embed", "--provider", "mock", "--config", path, "same", "same")
	require.NoError(t, err)

	var vectors [][]float32
	require.NoError(t, json.Unmarshal([]byte(out), &vectors))
	require.Len(t, vectors, 2)
	assert.Equal(t, vectors[0], vectors[1])
}

func TestModerateCommand(t *testing.T) {
	flagged := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/moderations", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		if flagged {
			_, _ = io.WriteString(w, `{"id":"modr-2","model":"omni-moderation-latest","results":[{"flagged":true,"categories":{"violence":true},"category_scores":{"violence":0.9}}]}`)
			return
		}
		_, _ = io.WriteString(w, `{"id":"modr-1","model":"omni-moderation-latest","results":[{"flagged":false,"categories":{"violence":false},"category_scores":{"violence":0.01}}]}`)
	}))
	t.Cleanup(srv.Close)

	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("OPENAI_BASE_URL", srv.URL+"/v1")

	out, err := execute(t, "moderate", "a calm sentence")
	require.NoError(t, err)
	assert.Equal(t, "not flagged\n", out)

	flagged = true
	out, err = execute(t, "moderate", "a violent sentence")
	assert.EqualError(t, err, "text was flagged")
	assert.True(t, strings.HasPrefix(out, "flagged: violence (0.90)"))
}

func TestOpenAICommandsRequireAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := execute(t, "moderate", "text")
	assert.ErrorContains(t, err, "API key is required")
}
