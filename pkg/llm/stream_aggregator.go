// Package llm provides abstractions for Large Language Model clients
// stream_aggregator.go coalesces stream events into complete responses

package llm

import (
	"context"
	"slices"
	"strings"
)

// ToolCallAccumulator merges streamed tool-call fragments by index
type ToolCallAccumulator struct {
	calls map[int]*ToolCall
}

// NewToolCallAccumulator creates an empty accumulator
func NewToolCallAccumulator() *ToolCallAccumulator {
	return &ToolCallAccumulator{calls: make(map[int]*ToolCall)}
}

// Add merges the deltas: ids, types and names are set once, arguments are appended
func (a *ToolCallAccumulator) Add(deltas ...ToolCallDelta) {
	for _, d := range deltas {
		call, ok := a.calls[d.Index]
		if !ok {
			call = &ToolCall{Type: "function"}
			a.calls[d.Index] = call
		}
		if d.ID != "" {
			call.ID = d.ID
		}
		if d.Type != "" {
			call.Type = d.Type
		}
		if d.Function != nil {
			if d.Function.Name != "" {
				call.Function.Name = d.Function.Name
			}
			call.Function.Arguments += d.Function.Arguments
		}
	}
}

// Len returns the number of distinct tool calls seen
func (a *ToolCallAccumulator) Len() int {
	return len(a.calls)
}

// ToolCalls returns the merged calls ordered by index
func (a *ToolCallAccumulator) ToolCalls() []ToolCall {
	if len(a.calls) == 0 {
		return nil
	}
	indexes := make([]int, 0, len(a.calls))
	for i := range a.calls {
		indexes = append(indexes, i)
	}
	slices.Sort(indexes)

	calls := make([]ToolCall, 0, len(indexes))
	for _, i := range indexes {
		calls = append(calls, *a.calls[i])
	}
	return calls
}

// Reset drops everything accumulated so far
func (a *ToolCallAccumulator) Reset() {
	clear(a.calls)
}

type choiceState struct {
	role         MessageRole
	text         strings.Builder
	toolCalls    *ToolCallAccumulator
	finishReason string
}

// StreamAggregator builds a ChatResponse out of stream events
type StreamAggregator struct {
	id      string
	model   string
	usage   Usage
	choices map[int]*choiceState
}

// NewStreamAggregator creates an empty aggregator
func NewStreamAggregator() *StreamAggregator {
	return &StreamAggregator{choices: make(map[int]*choiceState)}
}

func (a *StreamAggregator) choice(index int) *choiceState {
	st, ok := a.choices[index]
	if !ok {
		st = &choiceState{toolCalls: NewToolCallAccumulator()}
		a.choices[index] = st
	}
	return st
}

// Add folds an event into the aggregate. Error events are returned as errors.
func (a *StreamAggregator) Add(event StreamEvent) error {
	if event.IsError() {
		return event.Error
	}
	if event.ID != "" {
		a.id = event.ID
	}
	if event.Model != "" {
		a.model = event.Model
	}
	if event.Usage != nil {
		a.usage = *event.Usage
	}
	if event.Choice == nil {
		return nil
	}

	st := a.choice(event.Choice.Index)
	if delta := event.Choice.Delta; delta != nil {
		if delta.Role != "" {
			st.role = delta.Role
		}
		st.text.WriteString(delta.Text())
		st.toolCalls.Add(delta.ToolCalls...)
	}
	if event.Choice.FinishReason != "" {
		st.finishReason = event.Choice.FinishReason
	}
	return nil
}

// Response returns the response aggregated so far
func (a *StreamAggregator) Response() *ChatResponse {
	resp := &ChatResponse{
		ID:    a.id,
		Model: a.model,
		Usage: a.usage,
	}

	indexes := make([]int, 0, len(a.choices))
	for i := range a.choices {
		indexes = append(indexes, i)
	}
	slices.Sort(indexes)

	for _, i := range indexes {
		st := a.choices[i]
		role := st.role
		if role == "" {
			role = RoleAssistant
		}
		msg := Message{Role: role, ToolCalls: st.toolCalls.ToolCalls()}
		if st.text.Len() > 0 {
			msg.Content = []MessageContent{NewTextContent(st.text.String())}
		}
		resp.Choices = append(resp.Choices, Choice{
			Index:        i,
			Message:      msg,
			FinishReason: st.finishReason,
		})
	}
	return resp
}

// AggregateStream drains the stream and returns the combined response.
// It stops early on an error event or when ctx is done.
func AggregateStream(ctx context.Context, stream <-chan StreamEvent) (*ChatResponse, error) {
	agg := NewStreamAggregator()
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case event, ok := <-stream:
			if !ok {
				return agg.Response(), nil
			}
			if err := agg.Add(event); err != nil {
				return nil, err
			}
		}
	}
}
