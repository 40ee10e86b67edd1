package llm

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageConstructors(t *testing.T) {
	t.Parallel()

	t.Run("system", func(t *testing.T) {
		msg := NewSystemMessage("be brief")
		assert.Equal(t, RoleSystem, msg.Role)
		assert.Equal(t, "be brief", msg.GetText())
	})

	t.Run("user_with_media", func(t *testing.T) {
		img := NewImageContentFromURL("https://example.com/cat.png", "image/png")
		msg := NewUserMessage("what is this?", img)
		require.Len(t, msg.Content, 2)
		assert.Equal(t, "what is this?", msg.GetText())
		assert.True(t, msg.HasContentType(MessageTypeImage))
		assert.False(t, msg.IsTextOnly())
	})

	t.Run("assistant_with_tool_calls", func(t *testing.T) {
		call := ToolCall{ID: "call_1", Type: "function", Function: ToolCallFunction{Name: "f", Arguments: "{}"}}
		msg := NewAssistantMessage("", call)
		assert.Equal(t, RoleAssistant, msg.Role)
		assert.Empty(t, msg.Content)
		assert.True(t, msg.HasToolCalls())
	})

	t.Run("tool_response", func(t *testing.T) {
		msg := NewToolResponseMessage("call_1", "get_weather", "sunny")
		assert.Equal(t, RoleTool, msg.Role)
		assert.Equal(t, "call_1", msg.ToolCallID)
		assert.Equal(t, "get_weather", msg.Name)
		assert.Equal(t, "sunny", msg.GetText())
	})
}

func TestMessageGetTextConcatenatesParts(t *testing.T) {
	t.Parallel()

	msg := Message{Role: RoleUser}
	msg.AddContent(NewTextContent("Hello, "))
	msg.AddContent(NewImageContentFromBytes([]byte{1, 2, 3}, "image/png"))
	msg.AddContent(NewTextContent("world"))

	assert.Equal(t, "Hello, world", msg.GetText())
}

func TestMessageDeepCopy(t *testing.T) {
	t.Parallel()

	t.Run("text_message_deep_copy", func(t *testing.T) {
		original := NewTextMessage(RoleAssistant, "Hello World")
		original.SetMetadata("key1", "value1")
		original.SetMetadata("key2", 42)

		copied := original.DeepCopy()

		assert.Equal(t, original.Role, copied.Role)
		assert.Equal(t, "Hello World", copied.GetText())

		original.SetText("Modified Original")
		original.SetMetadata("key1", "modified")

		assert.Equal(t, "Hello World", copied.GetText())
		value1, exists := copied.GetMetadata("key1")
		assert.True(t, exists)
		assert.Equal(t, "value1", value1)
	})

	t.Run("tool_calls_and_nested_metadata", func(t *testing.T) {
		original := Message{
			Role:    RoleAssistant,
			Content: []MessageContent{NewTextContent("I'll help you with that calculation.")},
			ToolCalls: []ToolCall{
				{
					ID:   "call_123",
					Type: "function",
					Function: ToolCallFunction{
						Name:      "calculate",
						Arguments: `{"operation": "add", "a": 5, "b": 3}`,
					},
				},
			},
			Metadata: map[string]any{
				"nested": map[string]any{"source": "assistant"},
			},
		}

		copied := original.DeepCopy()

		original.ToolCalls[0].Function.Name = "changed"
		original.Metadata["nested"].(map[string]any)["source"] = "changed"

		require.Len(t, copied.ToolCalls, 1)
		assert.Equal(t, "calculate", copied.ToolCalls[0].Function.Name)
		nested, _ := copied.GetMetadata("nested")
		assert.Equal(t, "assistant", nested.(map[string]any)["source"])
	})

	t.Run("image_bytes_are_copied", func(t *testing.T) {
		data := []byte{0x89, 0x50, 0x4E, 0x47}
		original := NewUserMessage("look", NewImageContentFromBytes(data, "image/png"))

		copied := original.DeepCopy()
		data[0] = 0

		img, ok := copied.Content[1].(*ImageContent)
		require.True(t, ok)
		assert.Equal(t, byte(0x89), img.Data[0])
	})
}

func TestMessageJSONRoundTrip(t *testing.T) {
	t.Parallel()

	original := Message{
		Role: RoleUser,
		Content: []MessageContent{
			NewTextContent("describe"),
			&ImageContent{URL: "https://example.com/a.jpg", MimeType: "image/jpeg", Detail: ImageDetailHigh},
		},
		Name: "alice",
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Message
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, RoleUser, decoded.Role)
	assert.Equal(t, "alice", decoded.Name)
	require.Len(t, decoded.Content, 2)
	assert.Equal(t, "describe", decoded.GetText())
	img, ok := decoded.Content[1].(*ImageContent)
	require.True(t, ok)
	assert.Equal(t, "https://example.com/a.jpg", img.URL)
	assert.Equal(t, ImageDetailHigh, img.Detail)
}

func TestMessageUnmarshalUnknownContent(t *testing.T) {
	t.Parallel()

	var msg Message
	err := json.Unmarshal([]byte(`{"role":"user","content":[{"type":"video","url":"x"}]}`), &msg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedContent))
}

func TestMessageValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, NewUserMessage("hi").Validate())

	bad := Message{Role: RoleUser, Content: []MessageContent{NewTextContent("  ")}}
	assert.Error(t, bad.Validate())
}
