package llm

import (
	"fmt"
	"maps"
	"slices"

	"dario.cat/mergo"
)

// ChatOptionsProvider is implemented by every options type a ChatModel accepts.
// GetChatOptions exposes the vendor-neutral subset.
type ChatOptionsProvider interface {
	GetChatOptions() ChatOptions
}

// ToolCallingOptionsProvider is implemented by options that also carry tool configuration
type ToolCallingOptionsProvider interface {
	ChatOptionsProvider
	GetToolCallingOptions() ToolCallingOptions
}

// ChatOptions holds the portable chat parameters.
// Nil fields are unset and never override anything during a merge.
type ChatOptions struct {
	Model            string   `json:"model,omitempty" yaml:"model,omitempty"`
	FrequencyPenalty *float64 `json:"frequency_penalty,omitempty" yaml:"frequency_penalty,omitempty"`
	MaxTokens        *int     `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	PresencePenalty  *float64 `json:"presence_penalty,omitempty" yaml:"presence_penalty,omitempty"`
	StopSequences    []string `json:"stop_sequences,omitempty" yaml:"stop_sequences,omitempty"`
	Temperature      *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	TopK             *int     `json:"top_k,omitempty" yaml:"top_k,omitempty"`
	TopP             *float64 `json:"top_p,omitempty" yaml:"top_p,omitempty"`
}

// GetChatOptions implements ChatOptionsProvider
func (o ChatOptions) GetChatOptions() ChatOptions {
	return o
}

// Clone returns a copy that shares no slices with o
func (o *ChatOptions) Clone() *ChatOptions {
	if o == nil {
		return nil
	}
	copied := *o
	copied.StopSequences = slices.Clone(o.StopSequences)
	return &copied
}

// ToolCallingOptions configures which tools the model may call and who executes them
type ToolCallingOptions struct {
	// ToolCallbacks are offered to the model and executed locally
	ToolCallbacks []ToolCallback `json:"-" yaml:"-"`

	// ToolNames are resolved through the ToolCallingManager's resolver
	ToolNames []string `json:"tool_names,omitempty" yaml:"tool_names,omitempty"`

	// InternalToolExecutionEnabled keeps the tool loop inside the adapter (default true).
	// When false, tool calls are returned to the caller.
	InternalToolExecutionEnabled *bool `json:"internal_tool_execution_enabled,omitempty" yaml:"internal_tool_execution_enabled,omitempty"`

	// ToolContext is made available to callbacks through ToolContextFrom
	ToolContext map[string]any `json:"tool_context,omitempty" yaml:"tool_context,omitempty"`
}

// Clone returns a copy that shares no slices or maps with o
func (o ToolCallingOptions) Clone() ToolCallingOptions {
	return ToolCallingOptions{
		ToolCallbacks:                slices.Clone(o.ToolCallbacks),
		ToolNames:                    slices.Clone(o.ToolNames),
		InternalToolExecutionEnabled: o.InternalToolExecutionEnabled,
		ToolContext:                  maps.Clone(o.ToolContext),
	}
}

// ToolCallingChatOptions are portable chat options with tool configuration
type ToolCallingChatOptions struct {
	ChatOptions
	ToolCallingOptions
}

// GetToolCallingOptions implements ToolCallingOptionsProvider
func (o ToolCallingChatOptions) GetToolCallingOptions() ToolCallingOptions {
	return o.ToolCallingOptions
}

// Clone returns a deep copy of o
func (o *ToolCallingChatOptions) Clone() *ToolCallingChatOptions {
	if o == nil {
		return nil
	}
	return &ToolCallingChatOptions{
		ChatOptions:        *o.ChatOptions.Clone(),
		ToolCallingOptions: o.ToolCallingOptions.Clone(),
	}
}

// IsInternalToolExecutionEnabled reports whether the adapter should run tool calls itself.
// Options without tool configuration default to true.
func IsInternalToolExecutionEnabled(opts ChatOptionsProvider) bool {
	tc, ok := opts.(ToolCallingOptionsProvider)
	if !ok {
		return true
	}
	enabled := tc.GetToolCallingOptions().InternalToolExecutionEnabled
	return enabled == nil || *enabled
}

// Cloneable is satisfied by option types with a pointer-receiver Clone
type Cloneable[T any] interface {
	*T
	Clone() *T
}

// MergeOptions returns a new value holding defaults overridden by every set field of runtime.
// Neither argument is modified. Pointers are replaced rather than merged through,
// slices are replaced and maps are merged key by key.
func MergeOptions[T any, P Cloneable[T]](defaults, runtime P) (P, error) {
	merged := P(new(T))
	if defaults != nil {
		merged = defaults.Clone()
	}
	if runtime == nil {
		return merged, nil
	}
	if err := mergo.Merge(merged, runtime.Clone(), mergo.WithOverride, mergo.WithoutDereference); err != nil {
		return nil, fmt.Errorf("failed to merge options: %w", err)
	}
	return merged, nil
}

// Ptr returns a pointer to v; handy for setting option fields
func Ptr[T any](v T) *T {
	return &v
}
