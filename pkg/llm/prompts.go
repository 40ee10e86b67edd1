package llm

import (
	"bytes"
	"encoding/json"
	"maps"
	"strings"
	"text/template"
)

// PromptsConfig holds prompt configuration with system and user prompts
type PromptsConfig struct {
	System []string `yaml:"system,omitempty"` // System prompts
	User   []string `yaml:"user,omitempty"`   // User prompts
}

// GetSystemPrompts returns all system prompts joined with newlines
func (p PromptsConfig) GetSystemPrompts() string {
	return strings.Join(p.System, "\n")
}

// GetUserPrompts returns all user prompts joined with newlines
func (p PromptsConfig) GetUserPrompts() string {
	return strings.Join(p.User, "\n")
}

// Messages returns a system message (when configured) followed by the user prompts and the extra text
func (p PromptsConfig) Messages(userText string) []Message {
	var msgs []Message
	if len(p.System) > 0 {
		msgs = append(msgs, NewSystemMessage(p.GetSystemPrompts()))
	}
	user := p.User
	if userText != "" {
		user = append(append([]string(nil), user...), userText)
	}
	if len(user) > 0 {
		msgs = append(msgs, NewUserMessage(strings.Join(user, "\n")))
	}
	return msgs
}

// PromptTemplate represents a prompt template.
// It uses Go's text/template syntax for placeholders.
type PromptTemplate struct {
	Template string // The prompt template with placeholders
}

// NewPromptTemplate creates a new PromptTemplate with the given template string
func NewPromptTemplate(template string) PromptTemplate {
	return PromptTemplate{
		Template: template,
	}
}

// Render fills the template with the provided inputs
func (pt PromptTemplate) Render(inputs map[string]any) (string, error) {
	tmpl, err := template.New("prompt").Option("missingkey=error").Parse(pt.Template)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, inputs); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderWithJSONSchemaFor fills the template with the provided inputs
// and adds the JSON schema of s under the key "JSONSchema".
// The inputs map is not modified.
func (pt PromptTemplate) RenderWithJSONSchemaFor(inputs map[string]any, s any) (string, error) {
	schema, err := SchemaFromStruct(s)
	if err != nil {
		return "", err
	}

	j, err := json.MarshalIndent(schema, "", " ")
	if err != nil {
		return "", err
	}

	withSchema := maps.Clone(inputs)
	if withSchema == nil {
		withSchema = make(map[string]any, 1)
	}
	withSchema["JSONSchema"] = string(j)
	return pt.Render(withSchema)
}

// Create renders the template into a user prompt
func (pt PromptTemplate) Create(inputs map[string]any, opts ...ChatOptionsProvider) (Prompt, error) {
	text, err := pt.Render(inputs)
	if err != nil {
		return Prompt{}, err
	}
	return NewPrompt(text, opts...), nil
}
