package llm

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"
)

// Middleware observes or rewrites the traffic of a ChatModel
type Middleware interface {
	// Name returns the middleware name for identification
	Name() string

	// ProcessRequest runs before the prompt is sent; it may return a modified prompt
	ProcessRequest(ctx context.Context, prompt Prompt) (Prompt, error)

	// ProcessResponse runs after Call returns, and once more when a stream ends (with a nil response)
	ProcessResponse(ctx context.Context, prompt Prompt, resp *ChatResponse, err error) (*ChatResponse, error)

	// ProcessStreamEvent runs for every stream event
	ProcessStreamEvent(ctx context.Context, prompt Prompt, event StreamEvent) (StreamEvent, error)
}

// MiddlewareChain manages a chain of middleware
type MiddlewareChain struct {
	mu          sync.RWMutex
	middlewares []Middleware
}

// NewMiddlewareChain creates a chain running middlewares in order
func NewMiddlewareChain(middlewares ...Middleware) *MiddlewareChain {
	return &MiddlewareChain{middlewares: slices.Clone(middlewares)}
}

// AddMiddleware appends a middleware to the chain
func (c *MiddlewareChain) AddMiddleware(middleware Middleware) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.middlewares = append(c.middlewares, middleware)
}

// RemoveMiddleware removes a middleware by name
func (c *MiddlewareChain) RemoveMiddleware(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, middleware := range c.middlewares {
		if middleware.Name() == name {
			c.middlewares = slices.Delete(c.middlewares, i, i+1)
			return true
		}
	}
	return false
}

// Names returns the names of all middleware in the chain
func (c *MiddlewareChain) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, len(c.middlewares))
	for i, middleware := range c.middlewares {
		names[i] = middleware.Name()
	}
	return names
}

func (c *MiddlewareChain) snapshot() []Middleware {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.middlewares)
}

// ProcessRequest runs the prompt through the chain; the first error aborts the request
func (c *MiddlewareChain) ProcessRequest(ctx context.Context, prompt Prompt) (Prompt, error) {
	for _, middleware := range c.snapshot() {
		var err error
		prompt, err = middleware.ProcessRequest(ctx, prompt)
		if err != nil {
			return Prompt{}, fmt.Errorf("middleware %s failed: %w", middleware.Name(), err)
		}
	}
	return prompt, nil
}

// ProcessResponse runs the response through the chain in reverse order.
// A failing middleware is skipped; the model's error is never replaced.
func (c *MiddlewareChain) ProcessResponse(ctx context.Context, prompt Prompt, resp *ChatResponse, err error) *ChatResponse {
	middlewares := c.snapshot()
	for i := len(middlewares) - 1; i >= 0; i-- {
		processed, processErr := middlewares[i].ProcessResponse(ctx, prompt, resp, err)
		if processErr != nil {
			continue
		}
		resp = processed
	}
	return resp
}

// ProcessStreamEvent runs an event through the chain, skipping middleware that fail
func (c *MiddlewareChain) ProcessStreamEvent(ctx context.Context, prompt Prompt, event StreamEvent) StreamEvent {
	for _, middleware := range c.snapshot() {
		processed, err := middleware.ProcessStreamEvent(ctx, prompt, event)
		if err != nil {
			continue
		}
		event = processed
	}
	return event
}

// MiddlewareChatModel wraps a ChatModel with a middleware chain
type MiddlewareChatModel struct {
	model ChatModel
	chain *MiddlewareChain
}

var _ ChatModel = (*MiddlewareChatModel)(nil)

// WithMiddleware wraps model with the given middleware. Wrapping an already wrapped
// model appends to its chain.
func WithMiddleware(model ChatModel, middlewares ...Middleware) *MiddlewareChatModel {
	if wrapped, ok := model.(*MiddlewareChatModel); ok {
		for _, middleware := range middlewares {
			wrapped.chain.AddMiddleware(middleware)
		}
		return wrapped
	}
	return &MiddlewareChatModel{model: model, chain: NewMiddlewareChain(middlewares...)}
}

// Chain returns the middleware chain
func (m *MiddlewareChatModel) Chain() *MiddlewareChain {
	return m.chain
}

// Call implements ChatModel
func (m *MiddlewareChatModel) Call(ctx context.Context, prompt Prompt) (*ChatResponse, error) {
	prompt, err := m.chain.ProcessRequest(ctx, prompt)
	if err != nil {
		return nil, err
	}

	resp, err := m.model.Call(ctx, prompt)
	return m.chain.ProcessResponse(ctx, prompt, resp, err), err
}

// Stream implements ChatModel
func (m *MiddlewareChatModel) Stream(ctx context.Context, prompt Prompt) (<-chan StreamEvent, error) {
	prompt, err := m.chain.ProcessRequest(ctx, prompt)
	if err != nil {
		return nil, err
	}

	events, err := m.model.Stream(ctx, prompt)
	if err != nil {
		m.chain.ProcessResponse(ctx, prompt, nil, err)
		return nil, err
	}

	out := make(chan StreamEvent)
	go func() {
		defer close(out)
		for event := range events {
			select {
			case out <- m.chain.ProcessStreamEvent(ctx, prompt, event):
			case <-ctx.Done():
				return
			}
		}
		m.chain.ProcessResponse(ctx, prompt, nil, nil)
	}()
	return out, nil
}

// DefaultOptions implements ChatModel
func (m *MiddlewareChatModel) DefaultOptions() ChatOptionsProvider {
	return m.model.DefaultOptions()
}

// GetModelInfo implements ChatModel
func (m *MiddlewareChatModel) GetModelInfo() ModelInfo {
	return m.model.GetModelInfo()
}

// LoggingMiddleware logs every request and its outcome at debug level
type LoggingMiddleware struct {
	logger *zap.Logger
}

// NewLoggingMiddleware creates a middleware logging to logger
func NewLoggingMiddleware(logger *zap.Logger) *LoggingMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingMiddleware{logger: logger}
}

// Name implements Middleware
func (l *LoggingMiddleware) Name() string {
	return "logging"
}

// ProcessRequest implements Middleware
func (l *LoggingMiddleware) ProcessRequest(_ context.Context, prompt Prompt) (Prompt, error) {
	model := ""
	if prompt.Options != nil {
		model = prompt.Options.GetChatOptions().Model
	}
	l.logger.Debug("chat request",
		zap.String("model", model),
		zap.Int("messages", len(prompt.Messages)))
	return prompt, nil
}

// ProcessResponse implements Middleware
func (l *LoggingMiddleware) ProcessResponse(_ context.Context, _ Prompt, resp *ChatResponse, err error) (*ChatResponse, error) {
	switch {
	case err != nil:
		l.logger.Debug("chat request failed", zap.Error(err))
	case resp != nil:
		l.logger.Debug("chat response",
			zap.String("id", resp.ID),
			zap.String("model", resp.Model),
			zap.Int("prompt_tokens", resp.Usage.PromptTokens),
			zap.Int("completion_tokens", resp.Usage.CompletionTokens))
	default:
		l.logger.Debug("chat stream finished")
	}
	return resp, nil
}

// ProcessStreamEvent implements Middleware
func (l *LoggingMiddleware) ProcessStreamEvent(_ context.Context, _ Prompt, event StreamEvent) (StreamEvent, error) {
	switch {
	case event.IsError():
		l.logger.Debug("chat stream error", zap.Error(event.Error))
	case event.Usage != nil:
		l.logger.Debug("chat stream usage",
			zap.Int("prompt_tokens", event.Usage.PromptTokens),
			zap.Int("completion_tokens", event.Usage.CompletionTokens))
	}
	return event, nil
}
