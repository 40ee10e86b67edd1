package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// ToolExecutionResult is the outcome of running one round of tool calls
type ToolExecutionResult struct {
	// Conversation is the prompt history followed by the assistant tool-call
	// message and one tool response per call
	Conversation []Message

	// ReturnDirect is set when every executed tool asked for its result to be returned as is
	ReturnDirect bool
}

// ToolCallingManager resolves tool definitions and executes the tool calls a model asks for
type ToolCallingManager struct {
	resolver        ToolCallbackResolver
	errorsAsResults bool
	logger          *zap.Logger
}

// ToolCallingManagerOption configures a ToolCallingManager
type ToolCallingManagerOption func(*ToolCallingManager)

// WithToolResolver sets the resolver used for ToolNames and for calls not matched by ToolCallbacks
func WithToolResolver(r ToolCallbackResolver) ToolCallingManagerOption {
	return func(m *ToolCallingManager) {
		m.resolver = r
	}
}

// WithToolErrorsAsResults controls whether a failing callback produces an
// "error: ..." tool response (the default) or aborts the round.
func WithToolErrorsAsResults(enabled bool) ToolCallingManagerOption {
	return func(m *ToolCallingManager) {
		m.errorsAsResults = enabled
	}
}

// WithToolLogger sets the logger
func WithToolLogger(logger *zap.Logger) ToolCallingManagerOption {
	return func(m *ToolCallingManager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewToolCallingManager creates a manager
func NewToolCallingManager(opts ...ToolCallingManagerOption) *ToolCallingManager {
	m := &ToolCallingManager{
		resolver:        StaticToolCallbackResolver{},
		errorsAsResults: true,
		logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ResolveToolDefinitions returns the definitions of the configured callbacks followed by
// those of the named tools, without duplicates.
func (m *ToolCallingManager) ResolveToolDefinitions(opts ToolCallingOptions) ([]ToolDefinition, error) {
	seen := make(map[string]bool)
	var defs []ToolDefinition

	for _, cb := range opts.ToolCallbacks {
		def := cb.Definition()
		if seen[def.Name] {
			continue
		}
		seen[def.Name] = true
		defs = append(defs, def)
	}

	for _, name := range opts.ToolNames {
		if seen[name] {
			continue
		}
		cb, ok := m.resolver.Resolve(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
		}
		seen[name] = true
		defs = append(defs, cb.Definition())
	}

	return defs, nil
}

// ExecuteToolCalls runs the tool calls of the first choice that carries any and
// returns the extended conversation.
func (m *ToolCallingManager) ExecuteToolCalls(ctx context.Context, prompt Prompt, resp *ChatResponse) (ToolExecutionResult, error) {
	if resp == nil {
		return ToolExecutionResult{}, fmt.Errorf("no response to execute tools for")
	}

	var assistant *Message
	for i := range resp.Choices {
		if resp.Choices[i].Message.HasToolCalls() {
			assistant = &resp.Choices[i].Message
			break
		}
	}
	if assistant == nil {
		return ToolExecutionResult{}, fmt.Errorf("response carries no tool calls")
	}

	var toolOpts ToolCallingOptions
	if tc, ok := prompt.Options.(ToolCallingOptionsProvider); ok {
		toolOpts = tc.GetToolCallingOptions()
	}
	if len(toolOpts.ToolContext) > 0 {
		ctx = WithToolContext(ctx, toolOpts.ToolContext)
	}

	conversation := make([]Message, 0, len(prompt.Messages)+1+len(assistant.ToolCalls))
	for _, msg := range prompt.Messages {
		conversation = append(conversation, msg.DeepCopy())
	}
	assistantMsg := assistant.DeepCopy()
	assistantMsg.Role = RoleAssistant
	conversation = append(conversation, assistantMsg)

	returnDirect := true
	for _, call := range assistant.ToolCalls {
		cb, err := m.lookup(call.Function.Name, toolOpts.ToolCallbacks)
		if err != nil {
			return ToolExecutionResult{}, err
		}

		m.logger.Debug("executing tool call",
			zap.String("tool", call.Function.Name),
			zap.String("call_id", call.ID))

		result, err := cb.Call(ctx, call.Function.Arguments)
		if err != nil {
			if !m.errorsAsResults {
				return ToolExecutionResult{}, fmt.Errorf("tool %q failed: %w", call.Function.Name, err)
			}
			m.logger.Warn("tool call failed",
				zap.String("tool", call.Function.Name),
				zap.String("call_id", call.ID),
				zap.Error(err))
			result = "error: " + err.Error()
		}

		returnDirect = returnDirect && cb.ReturnDirect()
		conversation = append(conversation, NewToolResponseMessage(call.ID, call.Function.Name, result))
	}

	return ToolExecutionResult{
		Conversation: conversation,
		ReturnDirect: returnDirect,
	}, nil
}

func (m *ToolCallingManager) lookup(name string, callbacks []ToolCallback) (ToolCallback, error) {
	for _, cb := range callbacks {
		if cb.Definition().Name == name {
			return cb, nil
		}
	}
	if cb, ok := m.resolver.Resolve(name); ok {
		return cb, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
}

// BuildReturnDirectResponse turns the tool responses at the end of the conversation into
// a ChatResponse, one choice per tool response.
func BuildReturnDirectResponse(result ToolExecutionResult) *ChatResponse {
	resp := &ChatResponse{}

	start := len(result.Conversation)
	for start > 0 && result.Conversation[start-1].Role == RoleTool {
		start--
	}
	for i, msg := range result.Conversation[start:] {
		answer := NewAssistantMessage(msg.GetText())
		answer.SetMetadata("tool_call_id", msg.ToolCallID)
		answer.SetMetadata("tool_name", msg.Name)
		resp.Choices = append(resp.Choices, Choice{
			Index:        i,
			Message:      answer,
			FinishReason: FinishReasonReturnDirect,
		})
	}
	return resp
}
