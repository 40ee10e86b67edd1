package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/modelport/modelport/pkg/llm"
)

// ChatModel implements llm.ChatModel on the chat completions endpoint
type ChatModel struct {
	conn          *connection
	defaults      *ChatOptions
	retry         *llm.RetryTemplate
	toolManager   *llm.ToolCallingManager
	maxToolRounds int
	logger        *zap.Logger
}

var _ llm.ChatModel = (*ChatModel)(nil)

// NewChatModel creates a chat model. The default model is taken from the options,
// then from config.Model, then DefaultOpenAIModel.
func NewChatModel(config llm.ClientConfig, opts ...Option) (*ChatModel, error) {
	s := newSettings(config, opts)
	conn, err := newConnection(config, s)
	if err != nil {
		return nil, err
	}

	defaults := s.chat.Clone()
	if defaults == nil {
		defaults = &ChatOptions{}
	}
	if defaults.Model == "" {
		defaults.Model = config.Model
	}
	if defaults.Model == "" {
		defaults.Model = llm.DefaultOpenAIModel
	}

	return &ChatModel{
		conn:          conn,
		defaults:      defaults,
		retry:         s.retry,
		toolManager:   s.toolManager,
		maxToolRounds: s.maxToolRound,
		logger:        s.logger,
	}, nil
}

// DefaultOptions returns a copy of the default options
func (m *ChatModel) DefaultOptions() llm.ChatOptionsProvider {
	return m.defaults.Clone()
}

// GetModelInfo returns information about the default model
func (m *ChatModel) GetModelInfo() llm.ModelInfo {
	return modelInfo(m.defaults.Model, m.conn.baseURL)
}

// Health checks the API is reachable with the configured credentials
func (m *ChatModel) Health(ctx context.Context) error {
	return m.conn.Health(ctx)
}

// Call performs a chat completion. While internal tool execution is enabled and the
// model asks for tools, the calls are executed and the conversation is sent back.
func (m *ChatModel) Call(ctx context.Context, prompt llm.Prompt) (*llm.ChatResponse, error) {
	if len(prompt.Messages) == 0 {
		return nil, llm.ErrEmptyPrompt
	}
	opts, err := m.requestOptions(prompt.Options)
	if err != nil {
		return nil, err
	}
	return m.call(ctx, prompt.Messages, opts, 0, llm.Usage{})
}

func (m *ChatModel) call(ctx context.Context, messages []llm.Message, opts *ChatOptions, round int, usage llm.Usage) (*llm.ChatResponse, error) {
	req, err := m.createRequest(messages, opts, false)
	if err != nil {
		return nil, err
	}

	m.logger.Debug("sending chat completion",
		zap.String("model", req.Model),
		zap.Int("messages", len(req.Messages)),
		zap.Int("tools", len(req.Tools)),
		zap.Int("round", round))

	resp, err := llm.Retry(ctx, m.retry, func(ctx context.Context) (openai.ChatCompletionResponse, error) {
		resp, err := m.conn.client.CreateChatCompletion(ctx, req)
		return resp, convertError(err)
	})
	if err != nil {
		return nil, err
	}

	chatResp := m.convertResponse(&resp)
	chatResp.Usage = usage.Add(chatResp.Usage)

	if !llm.IsInternalToolExecutionEnabled(opts) || !chatResp.RequiresToolExecution() {
		return chatResp, nil
	}
	if m.maxToolRounds > 0 && round >= m.maxToolRounds {
		return nil, fmt.Errorf("%w: limit is %d", llm.ErrToolRoundsExceeded, m.maxToolRounds)
	}

	result, err := m.toolManager.ExecuteToolCalls(ctx, llm.NewPromptFromMessages(messages, opts), chatResp)
	if err != nil {
		return nil, err
	}
	if result.ReturnDirect {
		direct := llm.BuildReturnDirectResponse(result)
		direct.ID = chatResp.ID
		direct.Model = chatResp.Model
		direct.Created = chatResp.Created
		direct.Usage = chatResp.Usage
		direct.RateLimit = chatResp.RateLimit
		return direct, nil
	}

	return m.call(ctx, result.Conversation, opts, round+1, chatResp.Usage)
}

// requestOptions merges the runtime options over the defaults and resolves deprecated fields
func (m *ChatModel) requestOptions(runtime llm.ChatOptionsProvider) (*ChatOptions, error) {
	rt, err := toChatOptions(runtime)
	if err != nil {
		return nil, err
	}
	merged, err := llm.MergeOptions(m.defaults, rt)
	if err != nil {
		return nil, err
	}
	m.normalize(merged)
	if merged.Model == "" {
		return nil, llm.ErrMissingModel
	}
	return merged, nil
}

func (m *ChatModel) normalize(o *ChatOptions) {
	if o.ProxyToolCalls != nil {
		m.logger.Warn("proxy_tool_calls is deprecated, use internal_tool_execution_enabled")
		if o.InternalToolExecutionEnabled == nil {
			o.InternalToolExecutionEnabled = llm.Ptr(!*o.ProxyToolCalls)
		}
		o.ProxyToolCalls = nil
	}
	if len(o.Functions) > 0 {
		m.logger.Warn("functions is deprecated, use tool_names", zap.Strings("functions", o.Functions))
		for _, name := range o.Functions {
			if !slices.Contains(o.ToolNames, name) {
				o.ToolNames = append(o.ToolNames, name)
			}
		}
		o.Functions = nil
	}
	if o.MaxTokens != nil && o.MaxCompletionTokens != nil {
		m.logger.Warn("max_tokens and max_completion_tokens are mutually exclusive, dropping max_tokens",
			zap.Int("max_tokens", *o.MaxTokens),
			zap.Int("max_completion_tokens", *o.MaxCompletionTokens))
		o.MaxTokens = nil
	}
}

// createRequest converts the conversation and options to OpenAI format
func (m *ChatModel) createRequest(messages []llm.Message, opts *ChatOptions, stream bool) (openai.ChatCompletionRequest, error) {
	converted, err := convertMessages(messages)
	if err != nil {
		return openai.ChatCompletionRequest{}, err
	}

	req := openai.ChatCompletionRequest{
		Model:           opts.Model,
		Messages:        converted,
		Stream:          stream,
		Stop:            opts.StopSequences,
		Seed:            opts.Seed,
		LogitBias:       opts.LogitBias,
		User:            opts.User,
		ReasoningEffort: opts.ReasoningEffort,
		Metadata:        opts.Metadata,
	}

	// Handle optional pointer fields
	if opts.Temperature != nil {
		req.Temperature = float32(*opts.Temperature)
	}
	if opts.TopP != nil {
		req.TopP = float32(*opts.TopP)
	}
	if opts.FrequencyPenalty != nil {
		req.FrequencyPenalty = float32(*opts.FrequencyPenalty)
	}
	if opts.PresencePenalty != nil {
		req.PresencePenalty = float32(*opts.PresencePenalty)
	}
	if opts.MaxTokens != nil {
		req.MaxTokens = *opts.MaxTokens
	}
	if opts.MaxCompletionTokens != nil {
		req.MaxCompletionTokens = *opts.MaxCompletionTokens
	}
	if opts.N != nil {
		req.N = *opts.N
	}
	if opts.LogProbs != nil {
		req.LogProbs = *opts.LogProbs
	}
	if opts.TopLogProbs != nil {
		req.TopLogProbs = *opts.TopLogProbs
	}
	if opts.Store != nil {
		req.Store = *opts.Store
	}
	if stream && opts.StreamUsage != nil && *opts.StreamUsage {
		req.StreamOptions = &openai.StreamOptions{IncludeUsage: true}
	}

	if req.ResponseFormat, err = convertResponseFormat(opts.ResponseFormat); err != nil {
		return openai.ChatCompletionRequest{}, err
	}

	defs, err := m.toolManager.ResolveToolDefinitions(opts.GetToolCallingOptions())
	if err != nil {
		return openai.ChatCompletionRequest{}, err
	}
	for _, def := range defs {
		req.Tools = append(req.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        def.Name,
				Description: def.Description,
				Strict:      def.Strict,
				Parameters:  def.Parameters,
			},
		})
	}
	if len(req.Tools) > 0 {
		if opts.ToolChoice != "" {
			req.ToolChoice = toolChoice(opts.ToolChoice)
		}
		if opts.ParallelToolCalls != nil {
			req.ParallelToolCalls = *opts.ParallelToolCalls
		}
	}

	return req, nil
}

func toolChoice(choice string) any {
	switch choice {
	case ToolChoiceAuto, ToolChoiceNone, ToolChoiceRequired:
		return choice
	default:
		return openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: choice},
		}
	}
}

// convertResponseFormat maps the portable response format, passing the schema through as raw JSON
func convertResponseFormat(rf *llm.ResponseFormat) (*openai.ChatCompletionResponseFormat, error) {
	if rf == nil {
		return nil, nil
	}

	switch rf.Type {
	case llm.ResponseFormatText, "":
		return &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeText}, nil
	case llm.ResponseFormatJSON:
		return &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}, nil
	case llm.ResponseFormatJSONSchema:
		if rf.JSONSchema == nil || rf.JSONSchema.Schema == nil {
			return nil, fmt.Errorf("response format %q requires a schema", rf.Type)
		}
		raw, err := json.Marshal(rf.JSONSchema.Schema)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response schema: %w", err)
		}
		name := rf.JSONSchema.Name
		if name == "" {
			name = "response"
		}
		schema := &openai.ChatCompletionResponseFormatJSONSchema{
			Name:        name,
			Description: rf.JSONSchema.Description,
			Schema:      json.RawMessage(raw),
		}
		if rf.JSONSchema.Strict != nil {
			schema.Strict = *rf.JSONSchema.Strict
		}
		return &openai.ChatCompletionResponseFormat{
			Type:       openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: schema,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported response format %q", rf.Type)
	}
}

// convertMessages converts our messages to OpenAI format
func convertMessages(messages []llm.Message) ([]openai.ChatCompletionMessage, error) {
	openaiMessages := make([]openai.ChatCompletionMessage, 0, len(messages))

	for _, msg := range messages {
		openaiMsg := openai.ChatCompletionMessage{
			Role:       string(msg.Role),
			ToolCallID: msg.ToolCallID,
		}
		if msg.Role != llm.RoleTool {
			openaiMsg.Name = msg.Name
		}

		for _, tc := range msg.ToolCalls {
			openaiMsg.ToolCalls = append(openaiMsg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}

		// Content must never be empty: the API reports it as 'undefined'
		switch {
		case len(msg.Content) == 1 && msg.IsTextOnly():
			text := msg.GetText()
			if strings.TrimSpace(text) == "" {
				text = " "
			}
			openaiMsg.Content = text

		case len(msg.Content) > 0:
			var parts []openai.ChatMessagePart
			for _, content := range msg.Content {
				switch c := content.(type) {
				case *llm.TextContent:
					// Skip empty text parts to avoid API errors
					if strings.TrimSpace(c.GetText()) != "" {
						parts = append(parts, openai.ChatMessagePart{
							Type: openai.ChatMessagePartTypeText,
							Text: c.GetText(),
						})
					}
				case *llm.ImageContent:
					parts = append(parts, openai.ChatMessagePart{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    c.DataURL(),
							Detail: imageDetail(c.Detail),
						},
					})
				default:
					return nil, fmt.Errorf("%w: %s", llm.ErrUnsupportedContent, content.Type())
				}
			}

			// MultiContent and Content cannot be used together
			if len(parts) == 0 {
				openaiMsg.Content = " "
			} else {
				openaiMsg.MultiContent = parts
			}

		default:
			// Assistant messages with tool calls, tool responses without output, etc.
			openaiMsg.Content = " "
		}

		openaiMessages = append(openaiMessages, openaiMsg)
	}

	return openaiMessages, nil
}

func imageDetail(d llm.ImageDetail) openai.ImageURLDetail {
	switch d {
	case llm.ImageDetailLow:
		return openai.ImageURLDetailLow
	case llm.ImageDetailHigh:
		return openai.ImageURLDetailHigh
	default:
		return openai.ImageURLDetailAuto
	}
}

// convertResponse converts an OpenAI response to our format
func (m *ChatModel) convertResponse(resp *openai.ChatCompletionResponse) *llm.ChatResponse {
	chatResp := &llm.ChatResponse{
		ID:    resp.ID,
		Model: resp.Model,
		Usage: llm.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
		RateLimit: rateLimitFrom(resp),
	}
	if resp.Created > 0 {
		chatResp.Created = time.Unix(resp.Created, 0)
	}
	if resp.SystemFingerprint != "" {
		chatResp.Metadata = map[string]any{"system_fingerprint": resp.SystemFingerprint}
	}

	if len(resp.Choices) == 0 {
		m.logger.Warn("no choices in chat completion response", zap.String("id", resp.ID))
		return chatResp
	}

	for _, choice := range resp.Choices {
		chatResp.Choices = append(chatResp.Choices, llm.Choice{
			Index:        choice.Index,
			Message:      convertMessage(choice.Message),
			FinishReason: string(choice.FinishReason),
		})
	}
	return chatResp
}

// convertMessage converts an OpenAI message to our format
func convertMessage(msg openai.ChatCompletionMessage) llm.Message {
	role := llm.MessageRole(msg.Role)
	if role == "" {
		role = llm.RoleAssistant
	}
	ourMsg := llm.Message{
		Role:       role,
		ToolCallID: msg.ToolCallID,
	}

	if msg.Content != "" {
		ourMsg.Content = []llm.MessageContent{llm.NewTextContent(msg.Content)}
	}
	if msg.Refusal != "" {
		ourMsg.SetMetadata("refusal", msg.Refusal)
	}

	for _, tc := range msg.ToolCalls {
		ourMsg.ToolCalls = append(ourMsg.ToolCalls, llm.ToolCall{
			ID:   tc.ID,
			Type: string(tc.Type),
			Function: llm.ToolCallFunction{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}

	return ourMsg
}
