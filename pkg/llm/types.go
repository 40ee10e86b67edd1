// Core request and response types
package llm

import (
	"strings"
	"time"
)

// Finish reasons reported by providers
const (
	FinishReasonStop          = "stop"
	FinishReasonLength        = "length"
	FinishReasonToolCalls     = "tool_calls"
	FinishReasonContentFilter = "content_filter"

	// FinishReasonReturnDirect marks tool results handed back to the caller
	// without another round trip to the model
	FinishReasonReturnDirect = "return_direct"
)

// Prompt is the portable chat request: the conversation plus optional runtime options
type Prompt struct {
	Messages []Message          `json:"messages"`
	Options  ChatOptionsProvider `json:"-"`
}

// NewPrompt creates a prompt holding a single user message
func NewPrompt(text string, opts ...ChatOptionsProvider) Prompt {
	p := Prompt{Messages: []Message{NewUserMessage(text)}}
	if len(opts) > 0 {
		p.Options = opts[0]
	}
	return p
}

// NewPromptFromMessages creates a prompt from a conversation
func NewPromptFromMessages(messages []Message, opts ...ChatOptionsProvider) Prompt {
	p := Prompt{Messages: messages}
	if len(opts) > 0 {
		p.Options = opts[0]
	}
	return p
}

// Copy returns a prompt with deep copies of all messages, sharing the options
func (p Prompt) Copy() Prompt {
	copied := Prompt{Options: p.Options}
	if len(p.Messages) > 0 {
		copied.Messages = make([]Message, 0, len(p.Messages))
		for _, m := range p.Messages {
			copied.Messages = append(copied.Messages, m.DeepCopy())
		}
	}
	return copied
}

// UserText returns the text of all user messages, separated by newlines
func (p Prompt) UserText() string {
	var parts []string
	for _, m := range p.Messages {
		if m.Role == RoleUser {
			parts = append(parts, m.GetText())
		}
	}
	return strings.Join(parts, "\n")
}

// ChatResponse represents a chat completion response (provider-agnostic)
type ChatResponse struct {
	ID        string         `json:"id"`
	Model     string         `json:"model"`
	Created   time.Time      `json:"created,omitzero"`
	Choices   []Choice       `json:"choices"`
	Usage     Usage          `json:"usage,omitempty"`
	RateLimit *RateLimit     `json:"rate_limit,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Choice represents a single response choice
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason,omitempty"`
}

// Usage represents token usage information
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add returns the sum of two usages
func (u Usage) Add(other Usage) Usage {
	return Usage{
		PromptTokens:     u.PromptTokens + other.PromptTokens,
		CompletionTokens: u.CompletionTokens + other.CompletionTokens,
		TotalTokens:      u.TotalTokens + other.TotalTokens,
	}
}

// IsZero reports whether no tokens were accounted
func (u Usage) IsZero() bool {
	return u.PromptTokens == 0 && u.CompletionTokens == 0 && u.TotalTokens == 0
}

// WantsToolExecution checks if this choice indicates the LLM wants to execute tools
func (c Choice) WantsToolExecution() bool {
	return c.FinishReason == FinishReasonToolCalls || c.Message.HasToolCalls()
}

// IsComplete checks if this choice represents a complete response (not requiring tool execution)
func (c Choice) IsComplete() bool {
	return c.FinishReason == FinishReasonStop || c.FinishReason == FinishReasonLength
}

// RequiresToolExecution checks if this response requires tool execution before continuing
func (r ChatResponse) RequiresToolExecution() bool {
	for _, choice := range r.Choices {
		if choice.WantsToolExecution() && choice.Message.HasToolCalls() {
			return true
		}
	}
	return false
}

// GetToolCalls returns all tool calls from all choices in the response
func (r ChatResponse) GetToolCalls() []ToolCall {
	var allToolCalls []ToolCall
	for _, choice := range r.Choices {
		allToolCalls = append(allToolCalls, choice.Message.ToolCalls...)
	}
	return allToolCalls
}

// Text returns the text of the first choice, or the empty string
func (r ChatResponse) Text() string {
	if len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.GetText()
}

// DeepCopy creates a deep copy of the ChatResponse, including all choices and usage information
func (r ChatResponse) DeepCopy() ChatResponse {
	copied := ChatResponse{
		ID:      r.ID,
		Model:   r.Model,
		Created: r.Created,
		Usage:   r.Usage,
	}

	if r.RateLimit != nil {
		rl := *r.RateLimit
		copied.RateLimit = &rl
	}
	if len(r.Choices) > 0 {
		copied.Choices = make([]Choice, 0, len(r.Choices))
		for _, choice := range r.Choices {
			copied.Choices = append(copied.Choices, Choice{
				Index:        choice.Index,
				Message:      choice.Message.DeepCopy(),
				FinishReason: choice.FinishReason,
			})
		}
	}
	if len(r.Metadata) > 0 {
		copied.Metadata = make(map[string]any, len(r.Metadata))
		for k, v := range r.Metadata {
			copied.Metadata[k] = deepCopyValue(v)
		}
	}

	return copied
}
