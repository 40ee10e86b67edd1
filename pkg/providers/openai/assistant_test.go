package openai

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/modelport/modelport/pkg/llm"
)

const assistantResponse = `{
	"id": "asst_1",
	"object": "assistant",
	"created_at": 1700000000,
	"name": "Weather bot",
	"model": "gpt-4o-mini",
	"instructions": "Answer weather questions.",
	"tools": [
		{"type": "code_interpreter"},
		{"type": "function", "function": {"name": "get_weather", "description": "Get the weather", "parameters": {"type": "object"}}}
	],
	"metadata": {"team": "forecast"}
}`

func newTestAssistantClient(t *testing.T, srv *apiServer) *AssistantClient {
	t.Helper()

	c, err := NewAssistantClient(srv.config(), WithLogger(zaptest.NewLogger(t)), fastRetry())
	require.NoError(t, err)
	return c
}

func TestAssistantClientCreate(t *testing.T) {
	t.Parallel()

	srv := newAPIServer(t, jsonReply(assistantResponse))
	c := newTestAssistantClient(t, srv)

	a, err := c.Create(context.Background(), AssistantRequest{
		Name:            "Weather bot",
		Instructions:    "Answer weather questions.",
		CodeInterpreter: true,
		Tools: []llm.ToolDefinition{{
			Name:        "get_weather",
			Description: "Get the weather",
			Parameters:  map[string]any{"type": "object"},
		}},
		Metadata:    map[string]any{"team": "forecast"},
		Temperature: llm.Ptr(0.2),
	})
	require.NoError(t, err)

	assert.Equal(t, "asst_1", a.ID)
	assert.Equal(t, "Weather bot", a.Name)
	assert.True(t, a.CodeInterpreter)
	assert.False(t, a.FileSearch)
	require.Len(t, a.Tools, 1)
	assert.Equal(t, "get_weather", a.Tools[0].Name)
	assert.Equal(t, map[string]any{"type": "object"}, a.Tools[0].Parameters)
	assert.Equal(t, "forecast", a.Metadata["team"])
	assert.Equal(t, int64(1700000000), a.CreatedAt.Unix())

	rec := srv.request(0)
	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/v1/assistants", rec.path)
	assert.Equal(t, "assistants=v2", rec.header.Get("OpenAI-Beta"))
	assert.Equal(t, llm.DefaultOpenAIModel, rec.body["model"])
	_, hasDescription := rec.body["description"]
	assert.False(t, hasDescription)

	tools := rec.body["tools"].([]any)
	require.Len(t, tools, 2)
	assert.Equal(t, "code_interpreter", tools[0].(map[string]any)["type"])
	assert.Equal(t, "function", tools[1].(map[string]any)["type"])
}

func TestAssistantClientRetrieve(t *testing.T) {
	t.Parallel()

	srv := newAPIServer(t, jsonReply(assistantResponse))
	c := newTestAssistantClient(t, srv)

	a, err := c.Retrieve(context.Background(), "asst_1")
	require.NoError(t, err)
	assert.Equal(t, "Answer weather questions.", a.Instructions)
	assert.Equal(t, "/v1/assistants/asst_1", srv.request(0).path)

	_, err = c.Retrieve(context.Background(), "")
	assert.Error(t, err)
	assert.Equal(t, 1, srv.count())
}

func TestAssistantClientModify(t *testing.T) {
	t.Parallel()

	srv := newAPIServer(t, jsonReply(assistantResponse))
	c := newTestAssistantClient(t, srv)

	_, err := c.Modify(context.Background(), "asst_1", AssistantRequest{Model: "gpt-4o", Description: "Forecasts"})
	require.NoError(t, err)

	rec := srv.request(0)
	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/v1/assistants/asst_1", rec.path)
	assert.Equal(t, "Forecasts", rec.body["description"])
	assert.Equal(t, "gpt-4o", rec.body["model"])
}

func TestAssistantClientList(t *testing.T) {
	t.Parallel()

	srv := newAPIServer(t, jsonReply(`{
		"object": "list",
		"data": [` + assistantResponse + `],
		"first_id": "asst_1",
		"last_id": "asst_1",
		"has_more": true
	}`))
	c := newTestAssistantClient(t, srv)

	list, err := c.List(context.Background(), ListAssistantsParams{Limit: 1, Order: "desc"})
	require.NoError(t, err)
	require.Len(t, list.Assistants, 1)
	assert.Equal(t, "asst_1", list.FirstID)
	assert.True(t, list.HasMore)

	rec := srv.request(0)
	assert.Equal(t, http.MethodGet, rec.method)
	assert.Equal(t, "limit=1&order=desc", rec.query)
}

func TestAssistantClientDelete(t *testing.T) {
	t.Parallel()

	srv := newAPIServer(t, jsonReply(`{"id": "asst_1", "object": "assistant.deleted", "deleted": true}`))
	c := newTestAssistantClient(t, srv)

	deleted, err := c.Delete(context.Background(), "asst_1")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, http.MethodDelete, srv.request(0).method)
}

func TestAssistantClientNotFound(t *testing.T) {
	t.Parallel()

	srv := newAPIServer(t, errorReply(http.StatusNotFound, "invalid_request_error", "No assistant found with id 'asst_x'."))
	c := newTestAssistantClient(t, srv)

	_, err := c.Retrieve(context.Background(), "asst_x")
	require.Error(t, err)
	llmErr, ok := llm.AsError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, llmErr.StatusCode)
	assert.False(t, llmErr.IsRetryable())
	assert.Equal(t, 1, srv.count())
}
