// Tool and tool call types and functionality
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/swaggest/jsonschema-go"
)

// ToolDefinition describes a tool offered to the model
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
	Strict      bool           `json:"strict,omitempty"`
}

// ToolCall represents a tool call made by the LLM
type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction represents the function call details
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolCallback is a locally executed tool
type ToolCallback interface {
	// Definition returns what is advertised to the model
	Definition() ToolDefinition

	// Call runs the tool with the raw JSON arguments chosen by the model
	Call(ctx context.Context, arguments string) (string, error)

	// ReturnDirect reports whether the result goes straight back to the caller
	ReturnDirect() bool
}

// ToolCallbackResolver finds callbacks by name
type ToolCallbackResolver interface {
	Resolve(name string) (ToolCallback, bool)
}

// StaticToolCallbackResolver resolves from a fixed set of callbacks
type StaticToolCallbackResolver map[string]ToolCallback

// NewStaticToolCallbackResolver indexes the callbacks by their definition name
func NewStaticToolCallbackResolver(callbacks ...ToolCallback) StaticToolCallbackResolver {
	r := make(StaticToolCallbackResolver, len(callbacks))
	for _, cb := range callbacks {
		r[cb.Definition().Name] = cb
	}
	return r
}

// Resolve implements ToolCallbackResolver
func (r StaticToolCallbackResolver) Resolve(name string) (ToolCallback, bool) {
	cb, ok := r[name]
	return cb, ok
}

type toolContextKey struct{}

// WithToolContext attaches tool context values to ctx
func WithToolContext(ctx context.Context, values map[string]any) context.Context {
	return context.WithValue(ctx, toolContextKey{}, values)
}

// ToolContextFrom returns the tool context attached to ctx, if any
func ToolContextFrom(ctx context.Context) map[string]any {
	values, _ := ctx.Value(toolContextKey{}).(map[string]any)
	return values
}

// FunctionTool is a ToolCallback backed by a typed Go function
type FunctionTool[In, Out any] struct {
	definition   ToolDefinition
	fn           func(context.Context, In) (Out, error)
	returnDirect bool
}

// FunctionToolOption configures a FunctionTool
type FunctionToolOption func(*functionToolConfig)

type functionToolConfig struct {
	strict       bool
	returnDirect bool
}

// WithStrictSchema closes every object in the input schema and marks all properties required
func WithStrictSchema() FunctionToolOption {
	return func(c *functionToolConfig) {
		c.strict = true
	}
}

// WithReturnDirect makes the tool result the final answer
func WithReturnDirect() FunctionToolOption {
	return func(c *functionToolConfig) {
		c.returnDirect = true
	}
}

// NewFunctionTool builds a tool whose input schema is inferred from In.
//
// Example:
//
//	type WeatherRequest struct {
//	    City string `json:"city" description:"City name"`
//	}
//	tool, err := NewFunctionTool("get_weather", "Current weather for a city",
//	    func(ctx context.Context, req WeatherRequest) (string, error) { ... })
func NewFunctionTool[In, Out any](name, description string, fn func(context.Context, In) (Out, error), opts ...FunctionToolOption) (*FunctionTool[In, Out], error) {
	if name == "" {
		return nil, fmt.Errorf("tool name is required")
	}
	if fn == nil {
		return nil, fmt.Errorf("tool %q: function is required", name)
	}

	cfg := &functionToolConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	var in In
	params, err := inputSchema(in)
	if err != nil {
		return nil, fmt.Errorf("tool %q: %w", name, err)
	}
	if cfg.strict {
		makeStrict(params)
	}

	return &FunctionTool[In, Out]{
		definition: ToolDefinition{
			Name:        name,
			Description: description,
			Parameters:  params,
			Strict:      cfg.strict,
		},
		fn:           fn,
		returnDirect: cfg.returnDirect,
	}, nil
}

// Definition implements ToolCallback
func (t *FunctionTool[In, Out]) Definition() ToolDefinition {
	return t.definition
}

// ReturnDirect implements ToolCallback
func (t *FunctionTool[In, Out]) ReturnDirect() bool {
	return t.returnDirect
}

// Call implements ToolCallback. String results are returned verbatim, anything else as JSON.
func (t *FunctionTool[In, Out]) Call(ctx context.Context, arguments string) (string, error) {
	var in In
	if strings.TrimSpace(arguments) != "" {
		if err := json.Unmarshal([]byte(arguments), &in); err != nil {
			return "", fmt.Errorf("invalid arguments for tool %q: %w", t.definition.Name, err)
		}
	}

	out, err := t.fn(ctx, in)
	if err != nil {
		return "", err
	}

	if s, ok := any(out).(string); ok {
		return s, nil
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("failed to marshal result of tool %q: %w", t.definition.Name, err)
	}
	return string(b), nil
}

func inputSchema(in any) (map[string]any, error) {
	if t := reflect.TypeOf(in); t != nil && t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct {
		in = reflect.New(t.Elem()).Elem().Interface()
	}
	if in == nil || reflect.TypeOf(in).Kind() != reflect.Struct {
		// no struct to reflect, accept any object
		return map[string]any{"type": "object", "properties": map[string]any{}}, nil
	}

	reflector := jsonschema.Reflector{}
	schema, err := reflector.Reflect(in, jsonschema.InlineRefs)
	if err != nil {
		return nil, fmt.Errorf("failed to reflect input schema: %w", err)
	}

	b, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal input schema: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("failed to decode input schema: %w", err)
	}
	if _, ok := m["properties"]; !ok {
		m["properties"] = map[string]any{}
	}
	return m, nil
}

// makeStrict walks the schema and, for every object with properties, forbids
// additional properties and requires every property. Only subschema positions are
// visited, so a property named like a keyword is left alone.
func makeStrict(node any) {
	n, ok := node.(map[string]any)
	if !ok {
		return
	}
	if props, ok := n["properties"].(map[string]any); ok {
		required := make([]string, 0, len(props))
		for name, prop := range props {
			required = append(required, name)
			makeStrict(prop)
		}
		slices.Sort(required)
		n["required"] = required
		n["additionalProperties"] = false
	}
	for _, key := range []string{"$defs", "definitions"} {
		if defs, ok := n[key].(map[string]any); ok {
			for _, def := range defs {
				makeStrict(def)
			}
		}
	}
	switch items := n["items"].(type) {
	case map[string]any:
		makeStrict(items)
	case []any:
		for _, item := range items {
			makeStrict(item)
		}
	}
	for _, key := range []string{"anyOf", "oneOf", "allOf"} {
		if list, ok := n[key].([]any); ok {
			for _, sub := range list {
				makeStrict(sub)
			}
		}
	}
}
