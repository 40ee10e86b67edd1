package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/modelport/modelport/pkg/llm"
)

const streamBufferSize = 16

// Stream performs a streaming chat completion.
//
// Text deltas are forwarded as they arrive. Tool-call fragments are buffered: when the
// round ends with tool calls and internal execution is enabled they are executed and a
// new stream is opened with the extended conversation, otherwise they are emitted as a
// single delta. The channel is closed after the done events or an error event.
func (m *ChatModel) Stream(ctx context.Context, prompt llm.Prompt) (<-chan llm.StreamEvent, error) {
	if len(prompt.Messages) == 0 {
		return nil, llm.ErrEmptyPrompt
	}
	opts, err := m.requestOptions(prompt.Options)
	if err != nil {
		return nil, err
	}

	stream, err := m.openStream(ctx, prompt.Messages, opts)
	if err != nil {
		return nil, err
	}

	ch := make(chan llm.StreamEvent, streamBufferSize)
	go func() {
		defer close(ch)
		m.streamRounds(ctx, ch, stream, prompt.Messages, opts)
	}()

	return ch, nil
}

func (m *ChatModel) openStream(ctx context.Context, messages []llm.Message, opts *ChatOptions) (*openai.ChatCompletionStream, error) {
	req, err := m.createRequest(messages, opts, true)
	if err != nil {
		return nil, err
	}

	m.logger.Debug("opening chat completion stream",
		zap.String("model", req.Model),
		zap.Int("messages", len(req.Messages)),
		zap.Int("tools", len(req.Tools)))

	return llm.Retry(ctx, m.retry, func(ctx context.Context) (*openai.ChatCompletionStream, error) {
		stream, err := m.conn.client.CreateChatCompletionStream(ctx, req)
		return stream, convertError(err)
	})
}

func (m *ChatModel) streamRounds(ctx context.Context, ch chan<- llm.StreamEvent, stream *openai.ChatCompletionStream, messages []llm.Message, opts *ChatOptions) {
	var usage llm.Usage

	for round := 0; ; round++ {
		state, err := m.consume(ctx, ch, stream)
		stream.Close()
		if err != nil {
			send(ctx, ch, llm.NewErrorEvent(toLLMError(err)))
			return
		}
		if state.usage != nil {
			usage = usage.Add(*state.usage)
		}

		pending := state.toolCallResponse()
		if pending == nil || !llm.IsInternalToolExecutionEnabled(opts) {
			state.finish(ctx, ch, usage)
			return
		}
		if m.maxToolRounds > 0 && round >= m.maxToolRounds {
			err := fmt.Errorf("%w: limit is %d", llm.ErrToolRoundsExceeded, m.maxToolRounds)
			send(ctx, ch, llm.NewErrorEvent(toLLMError(err)))
			return
		}

		result, err := m.toolManager.ExecuteToolCalls(ctx, llm.NewPromptFromMessages(messages, opts), pending)
		if err != nil {
			send(ctx, ch, llm.NewErrorEvent(toLLMError(err)))
			return
		}
		if result.ReturnDirect {
			state.returnDirect(ctx, ch, llm.BuildReturnDirectResponse(result), usage)
			return
		}

		messages = result.Conversation
		if stream, err = m.openStream(ctx, messages, opts); err != nil {
			send(ctx, ch, llm.NewErrorEvent(toLLMError(err)))
			return
		}
	}
}

// streamState accumulates what one stream round produced besides forwarded text
type streamState struct {
	id        string
	model     string
	roleByID  map[string]llm.MessageRole
	toolCalls map[int]*llm.ToolCallAccumulator
	text      map[int]*strings.Builder
	finished  map[int]string
	usage     *llm.Usage
}

func newStreamState() *streamState {
	return &streamState{
		roleByID:  make(map[string]llm.MessageRole),
		toolCalls: make(map[int]*llm.ToolCallAccumulator),
		text:      make(map[int]*strings.Builder),
		finished:  make(map[int]string),
	}
}

// role returns the role of the message a chunk belongs to. Only the first chunk of a
// message names it.
func (s *streamState) role(chunkID string, role string) llm.MessageRole {
	if role != "" {
		s.roleByID[chunkID] = llm.MessageRole(role)
	}
	if r, ok := s.roleByID[chunkID]; ok {
		return r
	}
	return llm.RoleAssistant
}

func (s *streamState) accumulator(index int) *llm.ToolCallAccumulator {
	acc, ok := s.toolCalls[index]
	if !ok {
		acc = llm.NewToolCallAccumulator()
		s.toolCalls[index] = acc
	}
	return acc
}

// consume reads one stream until EOF, forwarding text deltas
func (m *ChatModel) consume(ctx context.Context, ch chan<- llm.StreamEvent, stream *openai.ChatCompletionStream) (*streamState, error) {
	state := newStreamState()

	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return state, nil
		}
		if err != nil {
			return state, err
		}

		if chunk.ID != "" {
			state.id = chunk.ID
		}
		if chunk.Model != "" {
			state.model = chunk.Model
		}
		if chunk.Usage != nil {
			state.usage = &llm.Usage{
				PromptTokens:     chunk.Usage.PromptTokens,
				CompletionTokens: chunk.Usage.CompletionTokens,
				TotalTokens:      chunk.Usage.TotalTokens,
			}
		}

		for _, choice := range chunk.Choices {
			role := state.role(chunk.ID, choice.Delta.Role)

			if choice.Delta.Content != "" {
				sb, ok := state.text[choice.Index]
				if !ok {
					sb = &strings.Builder{}
					state.text[choice.Index] = sb
				}
				sb.WriteString(choice.Delta.Content)

				event := llm.NewDeltaEvent(choice.Index, &llm.MessageDelta{
					Role:    role,
					Content: []llm.MessageContent{llm.NewTextContent(choice.Delta.Content)},
				})
				event.ID = chunk.ID
				event.Model = chunk.Model
				if !send(ctx, ch, event) {
					return state, ctx.Err()
				}
			}
			if len(choice.Delta.ToolCalls) > 0 {
				state.accumulator(choice.Index).Add(toolCallDeltas(choice.Delta.ToolCalls)...)
			}
			if choice.FinishReason != "" {
				state.finished[choice.Index] = string(choice.FinishReason)
			}
		}
	}
}

func toolCallDeltas(calls []openai.ToolCall) []llm.ToolCallDelta {
	deltas := make([]llm.ToolCallDelta, 0, len(calls))
	for i, tc := range calls {
		index := i
		if tc.Index != nil {
			index = *tc.Index
		}
		deltas = append(deltas, llm.ToolCallDelta{
			Index: index,
			ID:    tc.ID,
			Type:  string(tc.Type),
			Function: &llm.ToolCallFunctionDelta{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}
	return deltas
}

// toolCallResponse builds a response holding the buffered tool calls and the text streamed
// alongside them, or nil if there are none
func (s *streamState) toolCallResponse() *llm.ChatResponse {
	var choices []llm.Choice
	for _, index := range slices.Sorted(maps.Keys(s.toolCalls)) {
		calls := s.toolCalls[index].ToolCalls()
		if len(calls) == 0 {
			continue
		}
		var text string
		if sb, ok := s.text[index]; ok {
			text = sb.String()
		}
		choices = append(choices, llm.Choice{
			Index:        index,
			Message:      llm.NewAssistantMessage(text, calls...),
			FinishReason: llm.FinishReasonToolCalls,
		})
	}
	if len(choices) == 0 {
		return nil
	}
	return &llm.ChatResponse{ID: s.id, Model: s.model, Choices: choices}
}

// indexes returns every choice index seen in the round
func (s *streamState) indexes() []int {
	seen := maps.Clone(s.finished)
	for index := range s.toolCalls {
		if _, ok := seen[index]; !ok {
			seen[index] = ""
		}
	}
	if len(seen) == 0 {
		return []int{0}
	}
	return slices.Sorted(maps.Keys(seen))
}

// finish emits unexecuted tool calls and the done events; usage rides on the last one
func (s *streamState) finish(ctx context.Context, ch chan<- llm.StreamEvent, usage llm.Usage) {
	indexes := s.indexes()
	for _, index := range indexes {
		if acc, ok := s.toolCalls[index]; ok && acc.Len() > 0 {
			event := llm.NewDeltaEvent(index, &llm.MessageDelta{
				Role:      llm.RoleAssistant,
				ToolCalls: llm.ToolCallsToDeltas(acc.ToolCalls()),
			})
			event.ID, event.Model = s.id, s.model
			if !send(ctx, ch, event) {
				return
			}
		}
	}

	for i, index := range indexes {
		reason := s.finished[index]
		if reason == "" {
			reason = llm.FinishReasonStop
		}
		event := llm.NewDoneEvent(index, reason)
		event.ID, event.Model = s.id, s.model
		if i == len(indexes)-1 && !usage.IsZero() {
			event.Usage = &usage
		}
		if !send(ctx, ch, event) {
			return
		}
	}
}

// returnDirect emits the tool results as the final answer
func (s *streamState) returnDirect(ctx context.Context, ch chan<- llm.StreamEvent, resp *llm.ChatResponse, usage llm.Usage) {
	for _, choice := range resp.Choices {
		event := llm.NewTextDeltaEvent(choice.Index, choice.Message.GetText())
		event.ID, event.Model = s.id, s.model
		if !send(ctx, ch, event) {
			return
		}
	}
	for i, choice := range resp.Choices {
		event := llm.NewDoneEvent(choice.Index, llm.FinishReasonReturnDirect)
		event.ID, event.Model = s.id, s.model
		if i == len(resp.Choices)-1 && !usage.IsZero() {
			event.Usage = &usage
		}
		if !send(ctx, ch, event) {
			return
		}
	}
}

// send delivers event unless ctx is done first
func send[T any](ctx context.Context, ch chan<- T, event T) bool {
	select {
	case ch <- event:
		return true
	case <-ctx.Done():
		return false
	}
}
