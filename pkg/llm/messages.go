// Message types and functionality
package llm

import (
	"encoding/json"
	"fmt"
	"maps"
	"strings"
)

// Message represents a single chat message with multi-modal content support
type Message struct {
	Role       MessageRole      `json:"role"`
	Content    []MessageContent `json:"content"`
	ToolCalls  []ToolCall       `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
	Name       string           `json:"name,omitempty"`
	Metadata   map[string]any   `json:"metadata,omitempty"`
}

// MessageRole defines the role of a message sender
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

// NewTextMessage creates a new Message holding a single TextContent
func NewTextMessage(role MessageRole, text string) Message {
	return Message{
		Role:    role,
		Content: []MessageContent{NewTextContent(text)},
	}
}

// NewSystemMessage creates a system message
func NewSystemMessage(text string) Message {
	return NewTextMessage(RoleSystem, text)
}

// NewUserMessage creates a user message with optional media attached after the text
func NewUserMessage(text string, media ...MessageContent) Message {
	msg := NewTextMessage(RoleUser, text)
	msg.Content = append(msg.Content, media...)
	return msg
}

// NewAssistantMessage creates an assistant message, optionally carrying tool calls
func NewAssistantMessage(text string, toolCalls ...ToolCall) Message {
	msg := Message{Role: RoleAssistant, ToolCalls: toolCalls}
	if text != "" {
		msg.Content = []MessageContent{NewTextContent(text)}
	}
	return msg
}

// NewToolResponseMessage creates the message answering the tool call with the given id
func NewToolResponseMessage(toolCallID, name, result string) Message {
	return Message{
		Role:       RoleTool,
		Content:    []MessageContent{NewTextContent(result)},
		ToolCallID: toolCallID,
		Name:       name,
	}
}

// GetText returns the concatenation of all text parts of the message
func (m Message) GetText() string {
	var parts []string
	for _, content := range m.Content {
		if textContent, ok := content.(*TextContent); ok {
			parts = append(parts, textContent.GetText())
		}
	}
	return strings.Join(parts, "")
}

// SetText replaces all existing content with a single TextContent
func (m *Message) SetText(text string) {
	m.Content = []MessageContent{NewTextContent(text)}
}

// IsTextOnly checks if the message contains only text content
func (m Message) IsTextOnly() bool {
	if len(m.Content) == 0 {
		return false
	}
	for _, content := range m.Content {
		if content.Type() != MessageTypeText {
			return false
		}
	}
	return true
}

// HasContentType checks if the message contains any content of the specified type
func (m Message) HasContentType(messageType MessageType) bool {
	for _, content := range m.Content {
		if content.Type() == messageType {
			return true
		}
	}
	return false
}

// AddContent adds a MessageContent item to the message
func (m *Message) AddContent(content MessageContent) {
	m.Content = append(m.Content, content)
}

// SetMetadata sets a metadata key-value pair
func (m *Message) SetMetadata(key string, value any) {
	if m.Metadata == nil {
		m.Metadata = make(map[string]any)
	}
	m.Metadata[key] = value
}

// GetMetadata retrieves a metadata value by key
func (m Message) GetMetadata(key string) (any, bool) {
	value, exists := m.Metadata[key]
	return value, exists
}

// Validate validates all content items in the message
func (m Message) Validate() error {
	for i, content := range m.Content {
		if err := content.Validate(); err != nil {
			return fmt.Errorf("content item %d validation failed: %w", i, err)
		}
	}
	return nil
}

// HasToolCalls checks if the message contains any tool calls
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

// DeepCopy creates a deep copy of the message, including content and tool calls
func (m Message) DeepCopy() Message {
	copied := Message{
		Role:       m.Role,
		ToolCallID: m.ToolCallID,
		Name:       m.Name,
	}

	if len(m.Content) > 0 {
		copied.Content = make([]MessageContent, 0, len(m.Content))
		for _, content := range m.Content {
			copied.Content = append(copied.Content, deepCopyMessageContent(content))
		}
	}
	if len(m.ToolCalls) > 0 {
		copied.ToolCalls = append([]ToolCall(nil), m.ToolCalls...)
	}
	if len(m.Metadata) > 0 {
		copied.Metadata = make(map[string]any, len(m.Metadata))
		for k, v := range m.Metadata {
			copied.Metadata[k] = deepCopyValue(v)
		}
	}
	return copied
}

func deepCopyMessageContent(content MessageContent) MessageContent {
	switch c := content.(type) {
	case *TextContent:
		return &TextContent{Text: c.Text}
	case *ImageContent:
		img := *c
		if len(c.Data) > 0 {
			img.Data = append([]byte(nil), c.Data...)
		}
		return &img
	default:
		return content
	}
}

func deepCopyValue(v any) any {
	switch val := v.(type) {
	case []byte:
		return append([]byte(nil), val...)
	case map[string]any:
		copied := maps.Clone(val)
		for k, inner := range copied {
			copied[k] = deepCopyValue(inner)
		}
		return copied
	case []any:
		copied := make([]any, len(val))
		for i, inner := range val {
			copied[i] = deepCopyValue(inner)
		}
		return copied
	default:
		return val
	}
}

// MarshalJSON implements custom JSON marshaling for Message
func (m Message) MarshalJSON() ([]byte, error) {
	type Alias Message

	temp := struct {
		Alias
		Content []json.RawMessage `json:"content"`
	}{
		Alias: (Alias)(m),
	}

	if len(m.Content) > 0 {
		temp.Content = make([]json.RawMessage, len(m.Content))
		for i, content := range m.Content {
			contentBytes, err := json.Marshal(content)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal content item %d: %w", i, err)
			}
			temp.Content[i] = contentBytes
		}
	}

	return json.Marshal(temp)
}

// UnmarshalJSON implements custom JSON unmarshaling for Message
func (m *Message) UnmarshalJSON(data []byte) error {
	type Alias Message

	temp := struct {
		*Alias
		Content []json.RawMessage `json:"content"`
	}{
		Alias: (*Alias)(m),
	}

	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}

	m.Content = nil
	for i, contentBytes := range temp.Content {
		var typeChecker struct {
			Type MessageType `json:"type"`
		}
		if err := json.Unmarshal(contentBytes, &typeChecker); err != nil {
			return fmt.Errorf("failed to determine type for content item %d: %w", i, err)
		}

		var content MessageContent
		switch typeChecker.Type {
		case MessageTypeText:
			content = &TextContent{}
		case MessageTypeImage:
			content = &ImageContent{}
		default:
			return fmt.Errorf("%w: %q", ErrUnsupportedContent, typeChecker.Type)
		}

		if err := json.Unmarshal(contentBytes, content); err != nil {
			return fmt.Errorf("failed to unmarshal content item %d of type %s: %w", i, typeChecker.Type, err)
		}
		m.Content = append(m.Content, content)
	}

	return nil
}
