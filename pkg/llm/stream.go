// Package llm provides abstractions for Large Language Model clients
// streaming.go defines types for streaming chat completions

package llm

// Stream event types
const (
	StreamEventDelta = "delta"
	StreamEventDone  = "done"
	StreamEventError = "error"
)

// StreamEvent represents a single event in the streaming response
type StreamEvent struct {
	Type   string        `json:"type"` // "delta", "done", "error"
	ID     string        `json:"id,omitempty"`
	Model  string        `json:"model,omitempty"`
	Choice *StreamChoice `json:"choice,omitempty"`
	Usage  *Usage        `json:"usage,omitempty"`
	Error  *Error        `json:"error,omitempty"`
}

// StreamChoice represents a choice in the streaming response
type StreamChoice struct {
	Index        int           `json:"index"`
	Delta        *MessageDelta `json:"delta,omitempty"`
	FinishReason string        `json:"finish_reason,omitempty"`
}

// MessageDelta represents incremental updates to a message
type MessageDelta struct {
	Role      MessageRole      `json:"role,omitempty"`
	Content   []MessageContent `json:"content,omitempty"`
	ToolCalls []ToolCallDelta  `json:"tool_calls,omitempty"`
}

// Text returns the text carried by the delta
func (d *MessageDelta) Text() string {
	if d == nil {
		return ""
	}
	var text string
	for _, c := range d.Content {
		if tc, ok := c.(*TextContent); ok {
			text += tc.Text
		}
	}
	return text
}

// ToolCallDelta represents an incremental tool call update
type ToolCallDelta struct {
	Index    int                    `json:"index"`
	ID       string                 `json:"id,omitempty"`
	Type     string                 `json:"type,omitempty"`
	Function *ToolCallFunctionDelta `json:"function,omitempty"`
}

// ToolCallFunctionDelta represents incremental function call details
type ToolCallFunctionDelta struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// IsDelta returns true if this is a delta event
func (e StreamEvent) IsDelta() bool {
	return e.Type == StreamEventDelta && e.Choice != nil && e.Choice.Delta != nil
}

// IsDone returns true if this is a done event
func (e StreamEvent) IsDone() bool {
	return e.Type == StreamEventDone && e.Choice != nil
}

// IsError returns true if this is an error event
func (e StreamEvent) IsError() bool {
	return e.Type == StreamEventError && e.Error != nil
}

// NewDeltaEvent creates a new delta stream event
func NewDeltaEvent(index int, delta *MessageDelta) StreamEvent {
	return StreamEvent{
		Type: StreamEventDelta,
		Choice: &StreamChoice{
			Index: index,
			Delta: delta,
		},
	}
}

// NewTextDeltaEvent creates a delta event carrying assistant text
func NewTextDeltaEvent(index int, text string) StreamEvent {
	return NewDeltaEvent(index, &MessageDelta{
		Role:    RoleAssistant,
		Content: []MessageContent{NewTextContent(text)},
	})
}

// NewDoneEvent creates a new done stream event
func NewDoneEvent(index int, finishReason string) StreamEvent {
	return StreamEvent{
		Type: StreamEventDone,
		Choice: &StreamChoice{
			Index:        index,
			FinishReason: finishReason,
		},
	}
}

// NewErrorEvent creates a new error stream event
func NewErrorEvent(err *Error) StreamEvent {
	return StreamEvent{
		Type:  StreamEventError,
		Error: err,
	}
}

// ToolCallsToDeltas converts complete tool calls into a single delta per call
func ToolCallsToDeltas(calls []ToolCall) []ToolCallDelta {
	deltas := make([]ToolCallDelta, 0, len(calls))
	for i, call := range calls {
		deltas = append(deltas, ToolCallDelta{
			Index: i,
			ID:    call.ID,
			Type:  call.Type,
			Function: &ToolCallFunctionDelta{
				Name:      call.Function.Name,
				Arguments: call.Function.Arguments,
			},
		})
	}
	return deltas
}
