package openai

import (
	"context"
	"errors"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/modelport/modelport/pkg/llm"
)

// Assistant is an assistant stored on the OpenAI side
type Assistant struct {
	ID              string               `json:"id"`
	Name            string               `json:"name,omitempty"`
	Description     string               `json:"description,omitempty"`
	Model           string               `json:"model"`
	Instructions    string               `json:"instructions,omitempty"`
	Tools           []llm.ToolDefinition `json:"tools,omitempty"`
	CodeInterpreter bool                 `json:"code_interpreter,omitempty"`
	FileSearch      bool                 `json:"file_search,omitempty"`
	Metadata        map[string]any       `json:"metadata,omitempty"`
	CreatedAt       time.Time            `json:"created_at,omitzero"`
}

// AssistantRequest creates or modifies an assistant. Empty strings are left unset.
type AssistantRequest struct {
	Model           string
	Name            string
	Description     string
	Instructions    string
	Tools           []llm.ToolDefinition
	CodeInterpreter bool
	FileSearch      bool
	Metadata        map[string]any
	Temperature     *float64
	TopP            *float64
}

// ListAssistantsParams pages through assistants; zero values use the API defaults
type ListAssistantsParams struct {
	Limit  int
	Order  string
	After  string
	Before string
}

// AssistantList is one page of assistants
type AssistantList struct {
	Assistants []Assistant `json:"assistants"`
	FirstID    string      `json:"first_id,omitempty"`
	LastID     string      `json:"last_id,omitempty"`
	HasMore    bool        `json:"has_more"`
}

// AssistantClient manages assistants
type AssistantClient struct {
	conn         *connection
	defaultModel string
	retry        *llm.RetryTemplate
	logger       *zap.Logger
}

// NewAssistantClient creates an assistants client. config.Model is the model used when
// a create request names none.
func NewAssistantClient(config llm.ClientConfig, opts ...Option) (*AssistantClient, error) {
	s := newSettings(config, opts)
	conn, err := newConnection(config, s)
	if err != nil {
		return nil, err
	}

	model := config.Model
	if model == "" {
		model = llm.DefaultOpenAIModel
	}
	return &AssistantClient{
		conn:         conn,
		defaultModel: model,
		retry:        s.retry,
		logger:       s.logger,
	}, nil
}

// Create creates an assistant
func (c *AssistantClient) Create(ctx context.Context, req AssistantRequest) (*Assistant, error) {
	if req.Model == "" {
		req.Model = c.defaultModel
	}
	apiReq := toAssistantRequest(req)

	resp, err := llm.Retry(ctx, c.retry, func(ctx context.Context) (openai.Assistant, error) {
		resp, err := c.conn.client.CreateAssistant(ctx, apiReq)
		return resp, convertError(err)
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("created assistant", zap.String("id", resp.ID), zap.String("model", resp.Model))
	return fromAssistant(resp), nil
}

// Retrieve returns the assistant with the given id
func (c *AssistantClient) Retrieve(ctx context.Context, id string) (*Assistant, error) {
	if id == "" {
		return nil, errors.New("assistant id is required")
	}
	resp, err := llm.Retry(ctx, c.retry, func(ctx context.Context) (openai.Assistant, error) {
		resp, err := c.conn.client.RetrieveAssistant(ctx, id)
		return resp, convertError(err)
	})
	if err != nil {
		return nil, err
	}
	return fromAssistant(resp), nil
}

// Modify updates the assistant with the set fields of req
func (c *AssistantClient) Modify(ctx context.Context, id string, req AssistantRequest) (*Assistant, error) {
	if id == "" {
		return nil, errors.New("assistant id is required")
	}
	apiReq := toAssistantRequest(req)

	resp, err := llm.Retry(ctx, c.retry, func(ctx context.Context) (openai.Assistant, error) {
		resp, err := c.conn.client.ModifyAssistant(ctx, id, apiReq)
		return resp, convertError(err)
	})
	if err != nil {
		return nil, err
	}
	return fromAssistant(resp), nil
}

// Delete deletes the assistant and reports whether the API confirmed it
func (c *AssistantClient) Delete(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, errors.New("assistant id is required")
	}
	resp, err := llm.Retry(ctx, c.retry, func(ctx context.Context) (openai.AssistantDeleteResponse, error) {
		resp, err := c.conn.client.DeleteAssistant(ctx, id)
		return resp, convertError(err)
	})
	if err != nil {
		return false, err
	}

	c.logger.Info("deleted assistant", zap.String("id", resp.ID), zap.Bool("deleted", resp.Deleted))
	return resp.Deleted, nil
}

// List returns a page of assistants
func (c *AssistantClient) List(ctx context.Context, params ListAssistantsParams) (*AssistantList, error) {
	var limit *int
	if params.Limit > 0 {
		limit = &params.Limit
	}
	order := optional(params.Order)
	after := optional(params.After)
	before := optional(params.Before)

	resp, err := llm.Retry(ctx, c.retry, func(ctx context.Context) (openai.AssistantsList, error) {
		resp, err := c.conn.client.ListAssistants(ctx, limit, order, after, before)
		return resp, convertError(err)
	})
	if err != nil {
		return nil, err
	}

	list := &AssistantList{
		HasMore: resp.HasMore,
		FirstID: deref(resp.FirstID),
		LastID:  deref(resp.LastID),
	}
	for _, a := range resp.Assistants {
		list.Assistants = append(list.Assistants, *fromAssistant(a))
	}
	return list, nil
}

func toAssistantRequest(req AssistantRequest) openai.AssistantRequest {
	apiReq := openai.AssistantRequest{
		Model:        req.Model,
		Name:         optional(req.Name),
		Description:  optional(req.Description),
		Instructions: optional(req.Instructions),
		Metadata:     req.Metadata,
	}
	if req.Temperature != nil {
		apiReq.Temperature = llm.Ptr(float32(*req.Temperature))
	}
	if req.TopP != nil {
		apiReq.TopP = llm.Ptr(float32(*req.TopP))
	}

	if req.CodeInterpreter {
		apiReq.Tools = append(apiReq.Tools, openai.AssistantTool{Type: openai.AssistantToolTypeCodeInterpreter})
	}
	if req.FileSearch {
		apiReq.Tools = append(apiReq.Tools, openai.AssistantTool{Type: openai.AssistantToolTypeFileSearch})
	}
	for _, def := range req.Tools {
		apiReq.Tools = append(apiReq.Tools, openai.AssistantTool{
			Type: openai.AssistantToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        def.Name,
				Description: def.Description,
				Strict:      def.Strict,
				Parameters:  def.Parameters,
			},
		})
	}
	return apiReq
}

func fromAssistant(a openai.Assistant) *Assistant {
	out := &Assistant{
		ID:           a.ID,
		Name:         deref(a.Name),
		Description:  deref(a.Description),
		Model:        a.Model,
		Instructions: deref(a.Instructions),
		Metadata:     a.Metadata,
	}
	if a.CreatedAt > 0 {
		out.CreatedAt = time.Unix(a.CreatedAt, 0)
	}
	for _, tool := range a.Tools {
		switch tool.Type {
		case openai.AssistantToolTypeCodeInterpreter:
			out.CodeInterpreter = true
		case openai.AssistantToolTypeFileSearch:
			out.FileSearch = true
		case openai.AssistantToolTypeFunction:
			if tool.Function == nil {
				continue
			}
			def := llm.ToolDefinition{
				Name:        tool.Function.Name,
				Description: tool.Function.Description,
				Strict:      tool.Function.Strict,
			}
			if params, ok := tool.Function.Parameters.(map[string]any); ok {
				def.Parameters = params
			}
			out.Tools = append(out.Tools, def)
		}
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
