package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrompt(t *testing.T) {
	t.Parallel()

	opts := &ChatOptions{Model: "m"}
	p := NewPromptFromMessages([]Message{
		NewSystemMessage("sys"),
		NewUserMessage("first"),
		NewAssistantMessage("reply"),
		NewUserMessage("second"),
	}, opts)

	assert.Equal(t, "first\nsecond", p.UserText())

	copied := p.Copy()
	copied.Messages[1].SetText("changed")
	assert.Equal(t, "first", p.Messages[1].GetText())
	assert.Same(t, opts, copied.Options)
}

func TestUsageAdd(t *testing.T) {
	t.Parallel()

	total := Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}.Add(Usage{PromptTokens: 1, CompletionTokens: 2, TotalTokens: 3})
	assert.Equal(t, Usage{PromptTokens: 11, CompletionTokens: 7, TotalTokens: 18}, total)
	assert.True(t, Usage{}.IsZero())
}

func TestChatResponseToolCalls(t *testing.T) {
	t.Parallel()

	resp := ChatResponse{Choices: []Choice{
		{Message: NewAssistantMessage("text"), FinishReason: FinishReasonStop},
		{Message: NewAssistantMessage("", call("c1", "f", "{}")), FinishReason: FinishReasonToolCalls},
	}}
	assert.True(t, resp.RequiresToolExecution())
	require.Len(t, resp.GetToolCalls(), 1)
	assert.True(t, resp.Choices[0].IsComplete())

	// a tool_calls finish reason without calls has nothing to execute
	empty := ChatResponse{Choices: []Choice{{FinishReason: FinishReasonToolCalls}}}
	assert.False(t, empty.RequiresToolExecution())
}

func TestChatResponseDeepCopy(t *testing.T) {
	t.Parallel()

	original := ChatResponse{
		ID:        "r",
		Choices:   []Choice{{Message: NewAssistantMessage("hello")}},
		RateLimit: &RateLimit{RequestsLimit: 10},
		Metadata:  map[string]any{"system_fingerprint": "fp"},
	}
	copied := original.DeepCopy()

	original.Choices[0].Message.SetText("bye")
	original.RateLimit.RequestsLimit = 1
	original.Metadata["system_fingerprint"] = "other"

	assert.Equal(t, "hello", copied.Text())
	assert.Equal(t, int64(10), copied.RateLimit.RequestsLimit)
	assert.Equal(t, "fp", copied.Metadata["system_fingerprint"])
}
