package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptsConfig(t *testing.T) {
	t.Parallel()

	cfg := PromptsConfig{
		System: []string{"You are helpful.", "Be brief."},
		User:   []string{"Context: tests."},
	}
	assert.Equal(t, "You are helpful.\nBe brief.", cfg.GetSystemPrompts())
	assert.Equal(t, "Context: tests.", cfg.GetUserPrompts())

	msgs := cfg.Messages("What is Go?")
	require.Len(t, msgs, 2)
	assert.Equal(t, RoleSystem, msgs[0].Role)
	assert.Equal(t, "Context: tests.\nWhat is Go?", msgs[1].GetText())
	assert.Equal(t, []string{"Context: tests."}, cfg.User)

	assert.Empty(t, PromptsConfig{}.Messages(""))
}

func TestPromptTemplateRender(t *testing.T) {
	t.Parallel()

	pt := NewPromptTemplate("Tell me a {{.adjective}} joke about {{.topic}}")

	out, err := pt.Render(map[string]any{"adjective": "funny", "topic": "<gophers>"})
	require.NoError(t, err)
	assert.Equal(t, "Tell me a funny joke about <gophers>", out)

	_, err = pt.Render(map[string]any{"adjective": "funny"})
	assert.Error(t, err)

	_, err = NewPromptTemplate("{{.broken").Render(nil)
	assert.Error(t, err)
}

func TestPromptTemplateRenderWithJSONSchemaFor(t *testing.T) {
	t.Parallel()

	type answer struct {
		Title string `json:"title"`
	}

	inputs := map[string]any{"topic": "go"}
	out, err := NewPromptTemplate("About {{.topic}}. Reply using {{.JSONSchema}}").RenderWithJSONSchemaFor(inputs, answer{})
	require.NoError(t, err)
	assert.Contains(t, out, "About go.")
	assert.Contains(t, out, `"title"`)
	assert.NotContains(t, inputs, "JSONSchema")
}

func TestPromptTemplateCreate(t *testing.T) {
	t.Parallel()

	opts := &ChatOptions{Model: "m"}
	p, err := NewPromptTemplate("Hi {{.name}}").Create(map[string]any{"name": "there"}, opts)
	require.NoError(t, err)
	assert.Equal(t, "Hi there", p.UserText())
	assert.Same(t, opts, p.Options)
}
