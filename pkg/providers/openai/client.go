package openai

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/modelport/modelport/pkg/llm"
)

// ProviderName is the name this package registers under
const ProviderName = "openai"

// ModelAttribute represents a model attribute with its pattern and value
type ModelAttribute[T any] struct {
	Pattern *regexp.Regexp
	Value   T
}

var (
	// Vision support patterns - models that support image inputs
	visionSupport = []ModelAttribute[bool]{
		{regexp.MustCompile(`^gpt-4o(-mini)?(-\d{4}-\d{2}-\d{2})?$`), true},
		{regexp.MustCompile(`^gpt-4\.1(-mini|-nano)?$`), true},
		{regexp.MustCompile(`^gpt-4-turbo(-\d{4}-\d{2}-\d{2})?$`), true},
		{regexp.MustCompile(`^o[134](-mini)?$`), true},
		{regexp.MustCompile(`.*`), false},
	}

	// Tools support patterns - models that support function calling
	toolsSupport = []ModelAttribute[bool]{
		{regexp.MustCompile(`^gpt-4o(-mini)?(-\d{4}-\d{2}-\d{2})?$`), true},
		{regexp.MustCompile(`^gpt-4\.1(-mini|-nano)?$`), true},
		{regexp.MustCompile(`^gpt-4(-0613|-32k|-32k-0613)?$`), true},
		{regexp.MustCompile(`^gpt-4-turbo(-preview|-\d{4}-\d{2}-\d{2})?$`), true},
		{regexp.MustCompile(`^gpt-3\.5-turbo(-16k|-\d{4}-\d{2}-\d{2})?$`), true},
		{regexp.MustCompile(`^o[34](-mini)?$`), true},
		{regexp.MustCompile(`.*`), false},
	}

	// Custom endpoints serve many GPT-like or open models with tool support
	customToolsSupport = []ModelAttribute[bool]{
		{regexp.MustCompile(`(?i).*gpt.*`), true},
		{regexp.MustCompile(`(?i).*oss.*`), true},
	}

	// Context length patterns - maximum tokens for different models
	contextLength = []ModelAttribute[int]{
		{regexp.MustCompile(`^gpt-4\.1(-mini|-nano)?$`), 1047576},
		{regexp.MustCompile(`^o[134](-mini)?$`), 200000},
		{regexp.MustCompile(`^gpt-4o(-mini)?(-\d{4}-\d{2}-\d{2})?$`), 128000},
		{regexp.MustCompile(`^gpt-4-turbo(-preview|-\d{4}-\d{2}-\d{2})?$`), 128000},
		{regexp.MustCompile(`^gpt-4-32k(-0613)?$`), 32768},
		{regexp.MustCompile(`^gpt-4(-0613)?$`), 8192},
		{regexp.MustCompile(`^gpt-3\.5-turbo-16k(-\d{4}-\d{2}-\d{2})?$`), 16384},
		{regexp.MustCompile(`^gpt-3\.5-turbo(-\d{4}-\d{2}-\d{2})?$`), 4096},
		{regexp.MustCompile(`.*`), 4096},
	}
)

// getModelAttribute returns the attribute value for a given model by matching against patterns
func getModelAttribute[T any](model string, attributes []ModelAttribute[T]) T {
	for _, attr := range attributes {
		if attr.Pattern.MatchString(model) {
			return attr.Value
		}
	}
	var zero T
	return zero
}

// modelInfo describes model for the given endpoint
func modelInfo(model, baseURL string) llm.ModelInfo {
	tools := getModelAttribute(model, toolsSupport)
	if !tools && isCustomEndpoint(baseURL) {
		for _, attr := range customToolsSupport {
			if attr.Pattern.MatchString(model) {
				tools = true
				break
			}
		}
	}
	return llm.ModelInfo{
		Name:              model,
		Provider:          ProviderName,
		MaxTokens:         getModelAttribute(model, contextLength),
		SupportsTools:     tools,
		SupportsVision:    getModelAttribute(model, visionSupport),
		SupportsStreaming: true,
	}
}

func isCustomEndpoint(baseURL string) bool {
	return baseURL != "" && strings.TrimSuffix(baseURL, "/") != llm.DefaultOpenAIBaseURL
}

// connection is what every model needs to talk to the API
type connection struct {
	client     *openai.Client
	apiKey     string
	baseURL    string
	orgID      string
	httpClient *http.Client
}

// settings collects everything Option can change
type settings struct {
	logger       *zap.Logger
	retry        *llm.RetryTemplate
	toolManager  *llm.ToolCallingManager
	httpClient   *http.Client
	maxToolRound int

	chat          *ChatOptions
	embedding     *EmbeddingOptions
	image         *ImageOptions
	transcription *TranscriptionOptions
	speech        *SpeechOptions
	moderation    *ModerationOptions
	metadataMode  llm.MetadataMode
}

// Option configures a model at construction
type Option func(*settings)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRetryTemplate replaces the retry policy applied to every API call
func WithRetryTemplate(rt *llm.RetryTemplate) Option {
	return func(s *settings) {
		s.retry = rt
	}
}

// WithToolCallingManager sets the manager resolving and executing tools
func WithToolCallingManager(m *llm.ToolCallingManager) Option {
	return func(s *settings) {
		s.toolManager = m
	}
}

// WithHTTPClient sets the HTTP client used for all requests
func WithHTTPClient(c *http.Client) Option {
	return func(s *settings) {
		s.httpClient = c
	}
}

// WithMaxToolRounds bounds the number of tool-calling round trips; zero means unbounded
func WithMaxToolRounds(n int) Option {
	return func(s *settings) {
		s.maxToolRound = n
	}
}

// WithDefaultChatOptions sets the chat defaults
func WithDefaultChatOptions(o *ChatOptions) Option {
	return func(s *settings) {
		s.chat = o
	}
}

// WithDefaultEmbeddingOptions sets the embedding defaults
func WithDefaultEmbeddingOptions(o *EmbeddingOptions) Option {
	return func(s *settings) {
		s.embedding = o
	}
}

// WithDefaultImageOptions sets the image defaults
func WithDefaultImageOptions(o *ImageOptions) Option {
	return func(s *settings) {
		s.image = o
	}
}

// WithDefaultTranscriptionOptions sets the transcription defaults
func WithDefaultTranscriptionOptions(o *TranscriptionOptions) Option {
	return func(s *settings) {
		s.transcription = o
	}
}

// WithDefaultSpeechOptions sets the speech defaults
func WithDefaultSpeechOptions(o *SpeechOptions) Option {
	return func(s *settings) {
		s.speech = o
	}
}

// WithDefaultModerationOptions sets the moderation defaults
func WithDefaultModerationOptions(o *ModerationOptions) Option {
	return func(s *settings) {
		s.moderation = o
	}
}

// WithMetadataMode selects the document metadata embedded by EmbedDocuments
func WithMetadataMode(mode llm.MetadataMode) Option {
	return func(s *settings) {
		s.metadataMode = mode
	}
}

func newSettings(config llm.ClientConfig, opts []Option) *settings {
	s := &settings{
		logger:       zap.NewNop(),
		metadataMode: llm.MetadataModeEmbed,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.retry == nil {
		retryCfg := llm.DefaultRetryConfig()
		switch {
		case config.Retry != nil:
			retryCfg = *config.Retry
		case config.MaxRetries > 0:
			retryCfg.MaxAttempts = config.MaxRetries + 1
		}
		s.retry = llm.NewRetryTemplate(retryCfg, s.logger)
	}
	if s.toolManager == nil {
		s.toolManager = llm.NewToolCallingManager(llm.WithToolLogger(s.logger))
	}
	if s.httpClient == nil {
		timeout := config.Timeout
		if timeout <= 0 {
			timeout = llm.DefaultTimeout
		}
		s.httpClient = &http.Client{Timeout: timeout}
	}
	return s
}

// newConnection creates the go-openai client for config
func newConnection(config llm.ClientConfig, s *settings) (*connection, error) {
	if config.APIKey == "" {
		return nil, &llm.Error{
			Code:    "missing_api_key",
			Message: llm.ErrMissingAPIKey.Error() + " for OpenAI",
			Type:    llm.ErrorTypeAuthentication,
			Cause:   llm.ErrMissingAPIKey,
		}
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	}
	clientConfig.OrgID = config.Extra["organization"]
	clientConfig.HTTPClient = s.httpClient

	return &connection{
		client:     openai.NewClientWithConfig(clientConfig),
		apiKey:     config.APIKey,
		baseURL:    clientConfig.BaseURL,
		orgID:      clientConfig.OrgID,
		httpClient: s.httpClient,
	}, nil
}

// Health lists the available models as a reachability check
func (c *connection) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := c.client.ListModels(ctx); err != nil {
		return convertError(err)
	}
	return nil
}
