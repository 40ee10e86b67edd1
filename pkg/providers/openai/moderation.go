package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/modelport/modelport/pkg/llm"
)

// ModerationModel implements llm.ModerationModel
type ModerationModel struct {
	conn     *connection
	defaults *ModerationOptions
	retry    *llm.RetryTemplate
	logger   *zap.Logger
}

var _ llm.ModerationModel = (*ModerationModel)(nil)

// NewModerationModel creates a moderation model
func NewModerationModel(config llm.ClientConfig, opts ...Option) (*ModerationModel, error) {
	s := newSettings(config, opts)
	conn, err := newConnection(config, s)
	if err != nil {
		return nil, err
	}

	defaults := s.moderation.Clone()
	if defaults == nil {
		defaults = &ModerationOptions{}
	}
	if defaults.Model == "" {
		defaults.Model = config.Model
	}
	if defaults.Model == "" {
		defaults.Model = llm.DefaultOpenAIModerationModel
	}

	return &ModerationModel{
		conn:     conn,
		defaults: defaults,
		retry:    s.retry,
		logger:   s.logger,
	}, nil
}

// Call classifies the text
func (m *ModerationModel) Call(ctx context.Context, prompt llm.ModerationPrompt) (*llm.ModerationResponse, error) {
	if prompt.Text == "" {
		return nil, llm.ErrEmptyPrompt
	}
	rt, err := toModerationOptions(prompt.Options)
	if err != nil {
		return nil, err
	}
	opts, err := llm.MergeOptions(m.defaults, rt)
	if err != nil {
		return nil, err
	}

	req := openai.ModerationRequest{
		Input: prompt.Text,
		Model: opts.Model,
	}

	resp, err := llm.Retry(ctx, m.retry, func(ctx context.Context) (openai.ModerationResponse, error) {
		resp, err := m.conn.client.Moderations(ctx, req)
		return resp, convertError(err)
	})
	if err != nil {
		return nil, err
	}

	out := &llm.ModerationResponse{
		ID:        resp.ID,
		Model:     resp.Model,
		RateLimit: rateLimitFrom(&resp),
	}
	for _, r := range resp.Results {
		result := llm.ModerationResult{Flagged: r.Flagged}
		if err := remarshal(r.Categories, &result.Categories); err != nil {
			return nil, fmt.Errorf("failed to read moderation categories: %w", err)
		}
		if err := remarshal(r.CategoryScores, &result.CategoryScores); err != nil {
			return nil, fmt.Errorf("failed to read moderation scores: %w", err)
		}
		out.Results = append(out.Results, result)
	}

	if out.Flagged() {
		m.logger.Info("moderation flagged input", zap.String("id", out.ID))
	}
	return out, nil
}

// remarshal turns a vendor struct into a map keyed by its JSON names
func remarshal(from, to any) error {
	data, err := json.Marshal(from)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, to)
}
