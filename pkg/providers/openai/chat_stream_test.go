package openai

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelport/modelport/pkg/llm"
)

func textChunk(id, role, content string) string {
	return `{"id":"` + id + `","object":"chat.completion.chunk","created":1,"model":"gpt-4o-mini","choices":[{"index":0,"delta":{"role":"` + role + `","content":"` + content + `"},"finish_reason":null}]}`
}

func finishChunk(id, reason string) string {
	return `{"id":"` + id + `","object":"chat.completion.chunk","created":1,"model":"gpt-4o-mini","choices":[{"index":0,"delta":{},"finish_reason":"` + reason + `"}]}`
}

func usageChunk(id string, prompt, completion int) string {
	return `{"id":"` + id + `","object":"chat.completion.chunk","created":1,"model":"gpt-4o-mini","choices":[],"usage":{"prompt_tokens":` +
		strconv.Itoa(prompt) + `,"completion_tokens":` + strconv.Itoa(completion) + `,"total_tokens":` + strconv.Itoa(prompt+completion) + `}}`
}

// toolCallStream splits the get_weather call across chunks the way the API does
func toolCallStream() reply {
	return sseReply(
		`{"id":"c0","object":"chat.completion.chunk","created":1,"model":"gpt-4o-mini","choices":[{"index":0,"delta":{"role":"assistant","tool_calls":[{"index":0,"id":"call_1","type":"function","function":{"name":"get_weather","arguments":""}}]},"finish_reason":null}]}`,
		`{"id":"c0","object":"chat.completion.chunk","created":1,"model":"gpt-4o-mini","choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"arguments":"{\"city\":"}}]},"finish_reason":null}]}`,
		`{"id":"c0","object":"chat.completion.chunk","created":1,"model":"gpt-4o-mini","choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"arguments":"\"Paris\"}"}}]},"finish_reason":null}]}`,
		finishChunk("c0", "tool_calls"),
		usageChunk("c0", 10, 4),
		"[DONE]",
	)
}

func textStream() reply {
	return sseReply(
		textChunk("c1", "assistant", "Hel"),
		textChunk("c1", "", "lo!"),
		finishChunk("c1", "stop"),
		usageChunk("c1", 5, 3),
		"[DONE]",
	)
}

func collect(t *testing.T, ch <-chan llm.StreamEvent) []llm.StreamEvent {
	t.Helper()

	var events []llm.StreamEvent
	for ev := range ch {
		events = append(events, ev)
	}
	return events
}

func TestChatModelStream(t *testing.T) {
	t.Parallel()

	srv := newAPIServer(t, textStream())
	m := newTestChatModel(t, srv)

	ch, err := m.Stream(context.Background(), llm.NewPrompt("Hi", &ChatOptions{StreamUsage: llm.Ptr(true)}))
	require.NoError(t, err)

	events := collect(t, ch)
	require.Len(t, events, 3)
	assert.True(t, events[0].IsDelta())
	assert.Equal(t, "Hel", events[0].Choice.Delta.Text())
	assert.Equal(t, llm.RoleAssistant, events[1].Choice.Delta.Role)
	assert.Equal(t, "c1", events[1].ID)

	done := events[2]
	require.True(t, done.IsDone())
	assert.Equal(t, llm.FinishReasonStop, done.Choice.FinishReason)
	require.NotNil(t, done.Usage)
	assert.Equal(t, 8, done.Usage.TotalTokens)

	body := srv.request(0).body
	assert.Equal(t, true, body["stream"])
	assert.Equal(t, map[string]any{"include_usage": true}, body["stream_options"])
}

func TestChatModelStreamAggregates(t *testing.T) {
	t.Parallel()

	srv := newAPIServer(t, textStream())
	m := newTestChatModel(t, srv)

	ch, err := m.Stream(context.Background(), llm.NewPrompt("Hi"))
	require.NoError(t, err)

	resp, err := llm.AggregateStream(context.Background(), ch)
	require.NoError(t, err)
	assert.Equal(t, "Hello!", resp.Text())
	assert.Equal(t, "c1", resp.ID)
	assert.Equal(t, "gpt-4o-mini", resp.Model)
	assert.Equal(t, llm.Usage{PromptTokens: 5, CompletionTokens: 3, TotalTokens: 8}, resp.Usage)
	_, hasStreamOptions := srv.request(0).body["stream_options"]
	assert.False(t, hasStreamOptions)
}

func TestChatModelStreamExecutesTools(t *testing.T) {
	t.Parallel()

	srv := newAPIServer(t, toolCallStream(), textStream())
	m := newTestChatModel(t, srv)

	opts := &llm.ToolCallingChatOptions{
		ToolCallingOptions: llm.ToolCallingOptions{ToolCallbacks: []llm.ToolCallback{newWeatherTool(t)}},
	}
	ch, err := m.Stream(context.Background(), llm.NewPrompt("Weather in Paris?", opts))
	require.NoError(t, err)

	resp, err := llm.AggregateStream(context.Background(), ch)
	require.NoError(t, err)
	assert.Equal(t, "Hello!", resp.Text())
	assert.False(t, resp.RequiresToolExecution())
	assert.Equal(t, llm.Usage{PromptTokens: 15, CompletionTokens: 7, TotalTokens: 22}, resp.Usage)

	require.Equal(t, 2, srv.count())
	messages := srv.request(1).body["messages"].([]any)
	require.Len(t, messages, 3)
	toolMsg := messages[2].(map[string]any)
	assert.Equal(t, "sunny in Paris", toolMsg["content"])
}

func TestChatModelStreamResubmitsTextWithToolCalls(t *testing.T) {
	t.Parallel()

	toolRound := sseReply(
		textChunk("c0", "assistant", "Let me "),
		textChunk("c0", "", "check."),
		`{"id":"c0","object":"chat.completion.chunk","created":1,"model":"gpt-4o-mini","choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"id":"call_1","type":"function","function":{"name":"get_weather","arguments":"{\"city\":\"Paris\"}"}}]},"finish_reason":null}]}`,
		finishChunk("c0", "tool_calls"),
		"[DONE]",
	)
	srv := newAPIServer(t, toolRound, textStream())
	m := newTestChatModel(t, srv)

	opts := &llm.ToolCallingChatOptions{
		ToolCallingOptions: llm.ToolCallingOptions{ToolCallbacks: []llm.ToolCallback{newWeatherTool(t)}},
	}
	ch, err := m.Stream(context.Background(), llm.NewPrompt("Weather in Paris?", opts))
	require.NoError(t, err)

	resp, err := llm.AggregateStream(context.Background(), ch)
	require.NoError(t, err)
	assert.Equal(t, "Let me check.Hello!", resp.Text())

	require.Equal(t, 2, srv.count())
	messages := srv.request(1).body["messages"].([]any)
	require.Len(t, messages, 3)
	assistant := messages[1].(map[string]any)
	assert.Equal(t, "assistant", assistant["role"])
	assert.Equal(t, "Let me check.", assistant["content"])
	assert.Len(t, assistant["tool_calls"], 1)
}

func TestChatModelStreamEmitsUnexecutedToolCalls(t *testing.T) {
	t.Parallel()

	srv := newAPIServer(t, toolCallStream())
	m := newTestChatModel(t, srv)

	opts := &llm.ToolCallingChatOptions{
		ToolCallingOptions: llm.ToolCallingOptions{
			ToolCallbacks:                []llm.ToolCallback{newWeatherTool(t)},
			InternalToolExecutionEnabled: llm.Ptr(false),
		},
	}
	ch, err := m.Stream(context.Background(), llm.NewPrompt("Weather in Paris?", opts))
	require.NoError(t, err)

	events := collect(t, ch)
	require.Len(t, events, 2)
	require.True(t, events[0].IsDelta())
	deltas := events[0].Choice.Delta.ToolCalls
	require.Len(t, deltas, 1)
	assert.Equal(t, "call_1", deltas[0].ID)
	assert.Equal(t, "get_weather", deltas[0].Function.Name)
	assert.JSONEq(t, `{"city":"Paris"}`, deltas[0].Function.Arguments)

	assert.True(t, events[1].IsDone())
	assert.Equal(t, llm.FinishReasonToolCalls, events[1].Choice.FinishReason)
	assert.Equal(t, 1, srv.count())
}

func TestChatModelStreamReturnDirect(t *testing.T) {
	t.Parallel()

	srv := newAPIServer(t, toolCallStream())
	m := newTestChatModel(t, srv)

	opts := &llm.ToolCallingChatOptions{
		ToolCallingOptions: llm.ToolCallingOptions{
			ToolCallbacks: []llm.ToolCallback{newWeatherTool(t, llm.WithReturnDirect())},
		},
	}
	ch, err := m.Stream(context.Background(), llm.NewPrompt("Weather in Paris?", opts))
	require.NoError(t, err)

	resp, err := llm.AggregateStream(context.Background(), ch)
	require.NoError(t, err)
	assert.Equal(t, "sunny in Paris", resp.Text())
	require.Len(t, resp.Choices, 1)
	assert.Equal(t, llm.FinishReasonReturnDirect, resp.Choices[0].FinishReason)
	assert.Equal(t, 1, srv.count())
}

func TestChatModelStreamUnknownToolIsErrorEvent(t *testing.T) {
	t.Parallel()

	srv := newAPIServer(t, toolCallStream())
	m := newTestChatModel(t, srv)

	ch, err := m.Stream(context.Background(), llm.NewPrompt("Weather in Paris?"))
	require.NoError(t, err)

	_, err = llm.AggregateStream(context.Background(), ch)
	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrToolNotFound)
}

func TestChatModelStreamOpenError(t *testing.T) {
	t.Parallel()

	srv := newAPIServer(t, errorReply(401, "", "bad key"))
	m := newTestChatModel(t, srv)

	_, err := m.Stream(context.Background(), llm.NewPrompt("Hi"))
	require.Error(t, err)
	llmErr, ok := llm.AsError(err)
	require.True(t, ok)
	assert.Equal(t, llm.ErrorTypeAuthentication, llmErr.Type)
	assert.Equal(t, 1, srv.count())
}

func TestChatModelStreamEmptyPrompt(t *testing.T) {
	t.Parallel()

	srv := newAPIServer(t)
	m := newTestChatModel(t, srv)

	_, err := m.Stream(context.Background(), llm.Prompt{})
	assert.ErrorIs(t, err, llm.ErrEmptyPrompt)
	assert.Equal(t, 0, srv.count())
}
