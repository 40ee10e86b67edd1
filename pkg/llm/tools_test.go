package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type weatherInput struct {
	City string `json:"city" description:"City name"`
	Unit string `json:"unit,omitempty"`
}

type weatherOutput struct {
	City        string  `json:"city"`
	Temperature float64 `json:"temperature"`
}

func newWeatherTool(t *testing.T, opts ...FunctionToolOption) *FunctionTool[weatherInput, weatherOutput] {
	t.Helper()
	tool, err := NewFunctionTool("get_weather", "Current weather for a city",
		func(ctx context.Context, in weatherInput) (weatherOutput, error) {
			if in.City == "" {
				return weatherOutput{}, errors.New("city is required")
			}
			return weatherOutput{City: in.City, Temperature: 21.5}, nil
		}, opts...)
	require.NoError(t, err)
	return tool
}

func TestFunctionToolSchema(t *testing.T) {
	t.Parallel()

	t.Run("inferred", func(t *testing.T) {
		def := newWeatherTool(t).Definition()
		assert.Equal(t, "get_weather", def.Name)
		assert.Equal(t, "Current weather for a city", def.Description)
		assert.False(t, def.Strict)
		assert.Equal(t, "object", def.Parameters["type"])

		props, ok := def.Parameters["properties"].(map[string]any)
		require.True(t, ok)
		assert.Contains(t, props, "city")
		assert.Contains(t, props, "unit")
		city := props["city"].(map[string]any)
		assert.Equal(t, "City name", city["description"])
		assert.NotContains(t, def.Parameters, "additionalProperties")
	})

	t.Run("strict", func(t *testing.T) {
		def := newWeatherTool(t, WithStrictSchema()).Definition()
		assert.True(t, def.Strict)
		assert.Equal(t, false, def.Parameters["additionalProperties"])
		assert.Equal(t, []string{"city", "unit"}, def.Parameters["required"])
	})

	t.Run("no_struct_input", func(t *testing.T) {
		tool, err := NewFunctionTool("now", "Current time", func(ctx context.Context, _ struct{}) (string, error) {
			return "noon", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "object", tool.Definition().Parameters["type"])
	})
}

func TestMakeStrictVisitsSubschemasOnly(t *testing.T) {
	t.Parallel()

	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"properties": map[string]any{"type": "string"},
			"tags": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":       "object",
					"properties": map[string]any{"k": map[string]any{"type": "string"}},
				},
			},
		},
		"$defs": map[string]any{
			"Unit": map[string]any{
				"type":       "object",
				"properties": map[string]any{"name": map[string]any{"type": "string"}},
			},
		},
	}
	makeStrict(schema)

	assert.Equal(t, []string{"properties", "tags"}, schema["required"])
	assert.Equal(t, false, schema["additionalProperties"])

	props := schema["properties"].(map[string]any)
	assert.Len(t, props, 2)
	assert.Equal(t, map[string]any{"type": "string"}, props["properties"])

	items := props["tags"].(map[string]any)["items"].(map[string]any)
	assert.Equal(t, []string{"k"}, items["required"])
	assert.Equal(t, false, items["additionalProperties"])

	unit := schema["$defs"].(map[string]any)["Unit"].(map[string]any)
	assert.Equal(t, []string{"name"}, unit["required"])
}

func TestFunctionToolCall(t *testing.T) {
	t.Parallel()

	tool := newWeatherTool(t)
	ctx := context.Background()

	out, err := tool.Call(ctx, `{"city":"Paris"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"city":"Paris","temperature":21.5}`, out)

	_, err = tool.Call(ctx, `{"city":`)
	assert.Error(t, err)

	_, err = tool.Call(ctx, "")
	assert.EqualError(t, err, "city is required")
}

func TestFunctionToolStringResultIsVerbatim(t *testing.T) {
	t.Parallel()

	tool, err := NewFunctionTool("echo", "Echo", func(ctx context.Context, in struct {
		Text string `json:"text"`
	}) (string, error) {
		return fmt.Sprintf("you said %s", in.Text), nil
	}, WithReturnDirect())
	require.NoError(t, err)

	out, err := tool.Call(context.Background(), `{"text":"hi"}`)
	require.NoError(t, err)
	assert.Equal(t, "you said hi", out)
	assert.True(t, tool.ReturnDirect())
}

func TestNewFunctionToolValidation(t *testing.T) {
	t.Parallel()

	_, err := NewFunctionTool[weatherInput, string]("", "x", func(context.Context, weatherInput) (string, error) { return "", nil })
	assert.Error(t, err)

	_, err = NewFunctionTool[weatherInput, string]("x", "x", nil)
	assert.Error(t, err)
}

func TestStaticToolCallbackResolver(t *testing.T) {
	t.Parallel()

	resolver := NewStaticToolCallbackResolver(newWeatherTool(t))

	cb, ok := resolver.Resolve("get_weather")
	require.True(t, ok)
	assert.Equal(t, "get_weather", cb.Definition().Name)

	_, ok = resolver.Resolve("missing")
	assert.False(t, ok)
}

func TestToolContext(t *testing.T) {
	t.Parallel()

	ctx := WithToolContext(context.Background(), map[string]any{"tenant": "acme"})
	assert.Equal(t, "acme", ToolContextFrom(ctx)["tenant"])
	assert.Nil(t, ToolContextFrom(context.Background()))
}
