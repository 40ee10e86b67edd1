package openai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/modelport/modelport/pkg/llm"
)

const moderationResponse = `{
	"id": "modr-1",
	"model": "omni-moderation-latest",
	"results": [{
		"flagged": true,
		"categories": {"violence": true, "hate": false, "harassment": false},
		"category_scores": {"violence": 0.92, "hate": 0.01, "harassment": 0.02}
	}]
}`

func TestModerationModelCall(t *testing.T) {
	t.Parallel()

	srv := newAPIServer(t, jsonReply(moderationResponse))
	m, err := NewModerationModel(srv.config(), WithLogger(zaptest.NewLogger(t)), fastRetry())
	require.NoError(t, err)

	resp, err := m.Call(context.Background(), llm.ModerationPrompt{Text: "some violent text"})
	require.NoError(t, err)

	assert.Equal(t, "modr-1", resp.ID)
	assert.True(t, resp.Flagged())
	require.Len(t, resp.Results, 1)

	result := resp.Results[0]
	assert.True(t, result.Categories["violence"])
	assert.False(t, result.Categories["hate"])
	assert.Equal(t, []string{"violence"}, result.FlaggedCategories())
	assert.InDelta(t, 0.92, result.CategoryScores["violence"], 1e-6)
	assert.InDelta(t, 0.01, result.CategoryScores["hate"], 1e-6)

	rec := srv.request(0)
	assert.Equal(t, "/v1/moderations", rec.path)
	assert.Equal(t, "some violent text", rec.body["input"])
	assert.Equal(t, llm.DefaultOpenAIModerationModel, rec.body["model"])
}

func TestModerationModelEmptyText(t *testing.T) {
	t.Parallel()

	srv := newAPIServer(t)
	m, err := NewModerationModel(srv.config())
	require.NoError(t, err)

	_, err = m.Call(context.Background(), llm.ModerationPrompt{})
	assert.ErrorIs(t, err, llm.ErrEmptyPrompt)
}
