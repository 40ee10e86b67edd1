package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/modelport/modelport/pkg/llm"
)

// ImageModel implements llm.StreamingImageModel on the image generation endpoint
type ImageModel struct {
	conn     *connection
	defaults *ImageOptions
	retry    *llm.RetryTemplate
	logger   *zap.Logger
}

var _ llm.StreamingImageModel = (*ImageModel)(nil)

// NewImageModel creates an image model
func NewImageModel(config llm.ClientConfig, opts ...Option) (*ImageModel, error) {
	s := newSettings(config, opts)
	conn, err := newConnection(config, s)
	if err != nil {
		return nil, err
	}

	defaults := s.image.Clone()
	if defaults == nil {
		defaults = &ImageOptions{}
	}
	if defaults.Model == "" {
		defaults.Model = config.Model
	}
	if defaults.Model == "" {
		defaults.Model = llm.DefaultOpenAIImageModel
	}

	return &ImageModel{
		conn:     conn,
		defaults: defaults,
		retry:    s.retry,
		logger:   s.logger,
	}, nil
}

func (m *ImageModel) requestOptions(prompt llm.ImagePrompt) (*ImageOptions, error) {
	if len(prompt.Instructions) == 0 {
		return nil, llm.ErrEmptyPrompt
	}
	rt, err := toImageOptions(prompt.Options)
	if err != nil {
		return nil, err
	}
	opts, err := llm.MergeOptions(m.defaults, rt)
	if err != nil {
		return nil, err
	}
	if opts.Model == "" {
		return nil, llm.ErrMissingModel
	}
	return opts, nil
}

// Call generates images for the prompt. Instructions are joined into one prompt.
func (m *ImageModel) Call(ctx context.Context, prompt llm.ImagePrompt) (*llm.ImageResponse, error) {
	opts, err := m.requestOptions(prompt)
	if err != nil {
		return nil, err
	}

	req := openai.ImageRequest{
		Prompt:         prompt.Text(),
		Model:          opts.Model,
		Size:           opts.size(),
		Quality:        opts.Quality,
		Style:          opts.Style,
		ResponseFormat: opts.ResponseFormat,
		User:           opts.User,
		Background:     opts.Background,
		OutputFormat:   opts.OutputFormat,
	}
	if opts.N != nil {
		req.N = *opts.N
	}

	m.logger.Debug("creating image",
		zap.String("model", req.Model),
		zap.String("size", req.Size))

	resp, err := llm.Retry(ctx, m.retry, func(ctx context.Context) (openai.ImageResponse, error) {
		resp, err := m.conn.client.CreateImage(ctx, req)
		return resp, convertError(err)
	})
	if err != nil {
		return nil, err
	}

	out := &llm.ImageResponse{RateLimit: rateLimitFrom(&resp)}
	if resp.Created > 0 {
		out.Created = time.Unix(resp.Created, 0)
	}
	if len(resp.Data) == 0 {
		m.logger.Warn("no images in response", zap.String("model", req.Model))
	}
	for _, d := range resp.Data {
		out.Generations = append(out.Generations, llm.ImageGeneration{
			URL:           d.URL,
			B64JSON:       d.B64JSON,
			RevisedPrompt: d.RevisedPrompt,
		})
	}
	return out, nil
}

// Stream generates an image, delivering the partial images as they are produced and the
// final image last. It requires a model with streaming support such as gpt-image-1.
func (m *ImageModel) Stream(ctx context.Context, prompt llm.ImagePrompt) (<-chan llm.ImageStreamEvent, error) {
	opts, err := m.requestOptions(prompt)
	if err != nil {
		return nil, err
	}

	body := imageStreamRequest{
		Model:        opts.Model,
		Prompt:       prompt.Text(),
		Size:         opts.size(),
		Quality:      opts.Quality,
		User:         opts.User,
		Background:   opts.Background,
		OutputFormat: opts.OutputFormat,
		Stream:       true,
	}
	if opts.N != nil {
		body.N = *opts.N
	}
	if opts.PartialImages != nil {
		body.PartialImages = *opts.PartialImages
	}
	if body.N > 1 {
		return nil, fmt.Errorf("image streaming supports a single image, got n=%d", body.N)
	}

	return m.stream(ctx, body)
}
