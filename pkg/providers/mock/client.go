package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/modelport/modelport/pkg/llm"
)

// ProviderName is the name this package registers under
const ProviderName = "mock"

// ChatModel implements llm.ChatModel with scripted responses.
//
// Scripted errors are returned first, then scripted responses in order. When the script
// runs out a canned reply is generated from the last user message. Tool calls in the
// replies run through the same tool-calling loop as the real adapters.
type ChatModel struct {
	mu        sync.Mutex
	modelInfo llm.ModelInfo
	defaults  *llm.ToolCallingChatOptions
	responses []llm.ChatResponse
	errors    []error
	streams   [][]llm.StreamEvent
	calls     []llm.Prompt
	latency   time.Duration

	toolManager *llm.ToolCallingManager
	logger      *zap.Logger
}

var _ llm.ChatModel = (*ChatModel)(nil)

// Option configures a ChatModel at construction
type Option func(*ChatModel)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(m *ChatModel) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithToolCallingManager replaces the manager running tool calls
func WithToolCallingManager(manager *llm.ToolCallingManager) Option {
	return func(m *ChatModel) {
		m.toolManager = manager
	}
}

// WithDefaultOptions sets the options applied under every request
func WithDefaultOptions(o *llm.ToolCallingChatOptions) Option {
	return func(m *ChatModel) {
		if o != nil {
			m.defaults = o.Clone()
		}
	}
}

// NewChatModel creates a mock chat model answering as model
func NewChatModel(model string, opts ...Option) *ChatModel {
	if model == "" {
		model = "mock-model"
	}
	m := &ChatModel{
		modelInfo: llm.ModelInfo{
			Name:              model,
			Provider:          ProviderName,
			MaxTokens:         4096,
			SupportsTools:     true,
			SupportsStreaming: true,
		},
		defaults: &llm.ToolCallingChatOptions{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.toolManager == nil {
		m.toolManager = llm.NewToolCallingManager(llm.WithToolLogger(m.logger))
	}
	m.defaults.Model = model
	return m
}

// DefaultOptions returns a copy of the default options
func (m *ChatModel) DefaultOptions() llm.ChatOptionsProvider {
	return m.defaults.Clone()
}

// GetModelInfo returns the configured model info
func (m *ChatModel) GetModelInfo() llm.ModelInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.modelInfo
}

// requestOptions folds the runtime options of any provider into the defaults
func (m *ChatModel) requestOptions(runtime llm.ChatOptionsProvider) (*llm.ToolCallingChatOptions, error) {
	var rt *llm.ToolCallingChatOptions
	switch o := runtime.(type) {
	case nil:
	case llm.ToolCallingOptionsProvider:
		rt = &llm.ToolCallingChatOptions{ChatOptions: o.GetChatOptions(), ToolCallingOptions: o.GetToolCallingOptions()}
	default:
		rt = &llm.ToolCallingChatOptions{ChatOptions: o.GetChatOptions()}
	}
	return llm.MergeOptions(m.defaults, rt)
}

// Call returns the next scripted response, running tool calls while they are requested
func (m *ChatModel) Call(ctx context.Context, prompt llm.Prompt) (*llm.ChatResponse, error) {
	if len(prompt.Messages) == 0 {
		return nil, llm.ErrEmptyPrompt
	}
	opts, err := m.requestOptions(prompt.Options)
	if err != nil {
		return nil, err
	}

	var usage llm.Usage
	messages := prompt.Messages
	for {
		resp, err := m.next(ctx, llm.NewPromptFromMessages(messages, opts))
		if err != nil {
			return nil, err
		}
		usage = usage.Add(resp.Usage)
		resp.Usage = usage

		if !resp.RequiresToolExecution() || !llm.IsInternalToolExecutionEnabled(opts) {
			return resp, nil
		}

		result, err := m.toolManager.ExecuteToolCalls(ctx, llm.NewPromptFromMessages(messages, opts), resp)
		if err != nil {
			return nil, err
		}
		if result.ReturnDirect {
			direct := llm.BuildReturnDirectResponse(result)
			direct.ID, direct.Model, direct.Usage = resp.ID, resp.Model, usage
			return direct, nil
		}
		messages = result.Conversation
	}
}

// next records the request and pops the next scripted outcome
func (m *ChatModel) next(ctx context.Context, prompt llm.Prompt) (*llm.ChatResponse, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, prompt.Copy())

	if len(m.errors) > 0 {
		err := m.errors[0]
		m.errors = m.errors[1:]
		return nil, err
	}
	if len(m.responses) > 0 {
		resp := m.responses[0].DeepCopy()
		m.responses = m.responses[1:]
		return &resp, nil
	}
	return m.generate(prompt), nil
}

func (m *ChatModel) wait(ctx context.Context) error {
	m.mu.Lock()
	latency := m.latency
	m.mu.Unlock()
	if latency <= 0 {
		return ctx.Err()
	}

	select {
	case <-time.After(latency):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// generate produces a canned reply when nothing is scripted
func (m *ChatModel) generate(prompt llm.Prompt) *llm.ChatResponse {
	last := prompt.Messages[len(prompt.Messages)-1]

	var text string
	if last.Role == llm.RoleTool {
		text = fmt.Sprintf("Based on the tool result: %s", last.GetText())
	} else {
		userText := prompt.UserText()
		lower := strings.ToLower(userText)
		switch {
		case strings.Contains(lower, "hello") || strings.HasPrefix(lower, "hi"):
			text = "Hello! How can I help you today?"
		case strings.Contains(lower, "help"):
			text = "I'm here to help! Ask me anything."
		default:
			text = fmt.Sprintf("I understand you're asking about: %s", userText)
		}
	}

	promptTokens := 0
	for _, msg := range prompt.Messages {
		promptTokens += len(strings.Fields(msg.GetText()))
	}
	completionTokens := len(strings.Fields(text))

	return &llm.ChatResponse{
		ID:      newID("chatcmpl"),
		Model:   m.modelInfo.Name,
		Created: time.Now(),
		Choices: []llm.Choice{{
			Index:        0,
			Message:      llm.NewAssistantMessage(text),
			FinishReason: llm.FinishReasonStop,
		}},
		Usage: llm.Usage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
		},
	}
}

// Stream replays the next scripted stream. Without one, the reply Call would give is
// streamed word by word, tool calls included.
func (m *ChatModel) Stream(ctx context.Context, prompt llm.Prompt) (<-chan llm.StreamEvent, error) {
	if len(prompt.Messages) == 0 {
		return nil, llm.ErrEmptyPrompt
	}

	m.mu.Lock()
	var events []llm.StreamEvent
	if len(m.streams) > 0 {
		events = m.streams[0]
		m.streams = m.streams[1:]
		m.calls = append(m.calls, prompt.Copy())
	}
	m.mu.Unlock()

	if events == nil {
		resp, err := m.Call(ctx, prompt)
		if err != nil {
			return nil, err
		}
		events = ResponseToStream(resp)
	}

	ch := make(chan llm.StreamEvent, len(events))
	go func() {
		defer close(ch)
		for _, event := range events {
			select {
			case <-ctx.Done():
				return
			case ch <- event:
			}
		}
	}()
	return ch, nil
}

// Script builders

// AddResponse queues a response
func (m *ChatModel) AddResponse(response llm.ChatResponse) *ChatModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, response)
	return m
}

// AddError queues an error; errors are returned before any queued response
func (m *ChatModel) AddError(err error) *ChatModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, err)
	return m
}

// WithSimpleResponse queues a plain text response
func (m *ChatModel) WithSimpleResponse(content string) *ChatModel {
	return m.AddResponse(llm.ChatResponse{
		ID:    newID("chatcmpl"),
		Model: m.modelInfo.Name,
		Choices: []llm.Choice{{
			Index:        0,
			Message:      llm.NewAssistantMessage(content),
			FinishReason: llm.FinishReasonStop,
		}},
	})
}

// WithToolCall queues a response asking for one tool call with the given arguments
func (m *ChatModel) WithToolCall(toolName string, args map[string]any) *ChatModel {
	argsJSON := []byte("{}")
	if len(args) > 0 {
		argsJSON, _ = json.Marshal(args)
	}
	call := llm.ToolCall{
		ID:   newID("call"),
		Type: "function",
		Function: llm.ToolCallFunction{
			Name:      toolName,
			Arguments: string(argsJSON),
		},
	}
	return m.AddResponse(llm.ChatResponse{
		ID:    newID("chatcmpl"),
		Model: m.modelInfo.Name,
		Choices: []llm.Choice{{
			Index:        0,
			Message:      llm.NewAssistantMessage("", call),
			FinishReason: llm.FinishReasonToolCalls,
		}},
	})
}

// WithError queues an *llm.Error
func (m *ChatModel) WithError(code, message, errorType string) *ChatModel {
	return m.AddError(&llm.Error{
		Code:    code,
		Message: message,
		Type:    errorType,
	})
}

// WithStreamResponse queues the events returned by the next Stream call
func (m *ChatModel) WithStreamResponse(events []llm.StreamEvent) *ChatModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.streams = append(m.streams, events)
	return m
}

// WithLatency delays every answer by d
func (m *ChatModel) WithLatency(d time.Duration) *ChatModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latency = d
	return m
}

// WithModelCapabilities configures the model's capabilities
func (m *ChatModel) WithModelCapabilities(maxTokens int, supportsTools, supportsVision, supportsStreaming bool) *ChatModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modelInfo.MaxTokens = maxTokens
	m.modelInfo.SupportsTools = supportsTools
	m.modelInfo.SupportsVision = supportsVision
	m.modelInfo.SupportsStreaming = supportsStreaming
	return m
}

// Call log

// GetCallLog returns every prompt sent to the model, tool-calling rounds included
func (m *ChatModel) GetCallLog() []llm.Prompt {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]llm.Prompt(nil), m.calls...)
}

// GetLastCall returns the most recent prompt, or nil
func (m *ChatModel) GetLastCall() *llm.Prompt {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return nil
	}
	last := m.calls[len(m.calls)-1]
	return &last
}

// CallCount returns the number of requests made
func (m *ChatModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// LastMessageContains reports whether a user message of the last request contains text
func (m *ChatModel) LastMessageContains(text string) bool {
	last := m.GetLastCall()
	if last == nil {
		return false
	}
	for _, msg := range last.Messages {
		if msg.Role == llm.RoleUser && strings.Contains(msg.GetText(), text) {
			return true
		}
	}
	return false
}

// ToolWasCalled reports whether any request carried a call to toolName
func (m *ChatModel) ToolWasCalled(toolName string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, call := range m.calls {
		for _, msg := range call.Messages {
			for _, tc := range msg.ToolCalls {
				if tc.Function.Name == toolName {
					return true
				}
			}
		}
	}
	return false
}

// Reset clears the script and the call log
func (m *ChatModel) Reset() *ChatModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = nil
	m.errors = nil
	m.streams = nil
	m.calls = nil
	return m
}

func newID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}
