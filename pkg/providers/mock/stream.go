package mock

import (
	"encoding/json"
	"strings"

	"github.com/modelport/modelport/pkg/llm"
)

// CreateWordByWordStream creates stream events sending the text one word at a time
func CreateWordByWordStream(text string) []llm.StreamEvent {
	words := strings.Fields(text)
	events := make([]llm.StreamEvent, 0, len(words)+1)

	for i, word := range words {
		if i < len(words)-1 {
			word += " "
		}
		events = append(events, llm.NewTextDeltaEvent(0, word))
	}

	events = append(events, llm.NewDoneEvent(0, llm.FinishReasonStop))
	return events
}

// CreateToolCallStream creates stream events with optional text followed by a tool call
func CreateToolCallStream(initialText, toolName string, args map[string]any) []llm.StreamEvent {
	events := CreateWordByWordStream(initialText)
	events = events[:len(events)-1]

	argsJSON, _ := json.Marshal(args)
	events = append(events, llm.NewDeltaEvent(0, &llm.MessageDelta{
		Role: llm.RoleAssistant,
		ToolCalls: []llm.ToolCallDelta{{
			Index: 0,
			ID:    newID("call"),
			Type:  "function",
			Function: &llm.ToolCallFunctionDelta{
				Name:      toolName,
				Arguments: string(argsJSON),
			},
		}},
	}))

	events = append(events, llm.NewDoneEvent(0, llm.FinishReasonToolCalls))
	return events
}

// ResponseToStream replays a complete response as stream events: the text word by word,
// the tool calls in one delta, then a done event carrying the usage
func ResponseToStream(resp *llm.ChatResponse) []llm.StreamEvent {
	var events []llm.StreamEvent
	for _, choice := range resp.Choices {
		text := choice.Message.GetText()
		if text != "" {
			for _, event := range CreateWordByWordStream(text) {
				if event.IsDelta() {
					event.Choice.Index = choice.Index
					events = append(events, event)
				}
			}
		}
		if choice.Message.HasToolCalls() {
			events = append(events, llm.NewDeltaEvent(choice.Index, &llm.MessageDelta{
				Role:      llm.RoleAssistant,
				ToolCalls: llm.ToolCallsToDeltas(choice.Message.ToolCalls),
			}))
		}
		events = append(events, llm.NewDoneEvent(choice.Index, choice.FinishReason))
	}

	for i := range events {
		events[i].ID = resp.ID
		events[i].Model = resp.Model
	}
	if n := len(events); n > 0 && !resp.Usage.IsZero() {
		usage := resp.Usage
		events[n-1].Usage = &usage
	}
	return events
}
