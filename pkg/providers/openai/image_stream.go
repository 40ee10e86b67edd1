package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/modelport/modelport/pkg/llm"
)

// Event types sent by the streaming image endpoint
const (
	imageEventPartial   = "image_generation.partial_image"
	imageEventCompleted = "image_generation.completed"
	imageEventError     = "error"
)

const maxImageEventSize = 32 << 20

type imageStreamRequest struct {
	Model         string `json:"model"`
	Prompt        string `json:"prompt"`
	N             int    `json:"n,omitempty"`
	Size          string `json:"size,omitempty"`
	Quality       string `json:"quality,omitempty"`
	User          string `json:"user,omitempty"`
	Background    string `json:"background,omitempty"`
	OutputFormat  string `json:"output_format,omitempty"`
	PartialImages int    `json:"partial_images,omitempty"`
	Stream        bool   `json:"stream"`
}

type imageStreamPayload struct {
	Type              string        `json:"type"`
	B64JSON           string        `json:"b64_json"`
	PartialImageIndex int           `json:"partial_image_index"`
	Usage             *imageUsage   `json:"usage"`
	Error             *apiErrorBody `json:"error"`
}

type imageUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

type apiErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    any    `json:"code"`
}

func (e *apiErrorBody) toError(status int) *llm.Error {
	errType := e.Type
	if errType == "" {
		errType = errorTypeForStatus(status)
	}
	code := http.StatusText(status)
	if e.Code != nil {
		code = fmt.Sprint(e.Code)
	}
	return &llm.Error{
		Code:       code,
		Message:    e.Message,
		Type:       errType,
		StatusCode: status,
	}
}

// stream posts the request and turns the server-sent events into ImageStreamEvents
func (m *ImageModel) stream(ctx context.Context, body imageStreamRequest) (<-chan llm.ImageStreamEvent, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal image request: %w", err)
	}

	m.logger.Debug("opening image stream",
		zap.String("model", body.Model),
		zap.Int("partial_images", body.PartialImages))

	resp, err := llm.Retry(ctx, m.retry, func(ctx context.Context) (*http.Response, error) {
		return m.post(ctx, "/images/generations", payload)
	})
	if err != nil {
		return nil, err
	}

	ch := make(chan llm.ImageStreamEvent, streamBufferSize)
	go func() {
		defer close(ch)
		defer resp.Body.Close()
		m.readImageEvents(ctx, resp.Body, ch)
	}()
	return ch, nil
}

func (m *ImageModel) post(ctx context.Context, path string, payload []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.conn.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+m.conn.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if m.conn.orgID != "" {
		req.Header.Set("OpenAI-Organization", m.conn.orgID)
	}

	resp, err := m.conn.httpClient.Do(req)
	if err != nil {
		return nil, convertError(err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		defer resp.Body.Close()
		return nil, readErrorResponse(resp)
	}
	return resp, nil
}

func readErrorResponse(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	var body struct {
		Error *apiErrorBody `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Error != nil {
		return body.Error.toError(resp.StatusCode)
	}
	return llm.NewError(resp.StatusCode, errorTypeForStatus(resp.StatusCode), strings.TrimSpace(string(data)))
}

// readImageEvents parses "data:" lines; the event name is repeated inside the payload
func (m *ImageModel) readImageEvents(ctx context.Context, r io.Reader, ch chan<- llm.ImageStreamEvent) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxImageEventSize)

	var data strings.Builder
	dispatch := func() bool {
		if data.Len() == 0 {
			return true
		}
		raw := data.String()
		data.Reset()
		if raw == "[DONE]" {
			return false
		}

		var p imageStreamPayload
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			m.logger.Warn("skipping malformed image stream event", zap.Error(err))
			return true
		}
		event, ok := convertImageEvent(p)
		if !ok {
			m.logger.Debug("ignoring image stream event", zap.String("type", p.Type))
			return true
		}
		if !send(ctx, ch, event) {
			return false
		}
		return event.Type == llm.ImageStreamEventPartial
	}

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if !dispatch() {
				return
			}
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
	}
	if err := scanner.Err(); err != nil {
		send(ctx, ch, llm.ImageStreamEvent{Type: llm.ImageStreamEventError, Error: toLLMError(err)})
		return
	}
	dispatch()
}

func convertImageEvent(p imageStreamPayload) (llm.ImageStreamEvent, bool) {
	switch p.Type {
	case imageEventPartial:
		return llm.ImageStreamEvent{
			Type:              llm.ImageStreamEventPartial,
			PartialImageIndex: p.PartialImageIndex,
			B64JSON:           p.B64JSON,
		}, true
	case imageEventCompleted:
		event := llm.ImageStreamEvent{
			Type:    llm.ImageStreamEventCompleted,
			B64JSON: p.B64JSON,
		}
		if p.Usage != nil {
			event.Usage = &llm.Usage{
				PromptTokens:     p.Usage.InputTokens,
				CompletionTokens: p.Usage.OutputTokens,
				TotalTokens:      p.Usage.TotalTokens,
			}
		}
		return event, true
	case imageEventError:
		errBody := p.Error
		if errBody == nil {
			errBody = &apiErrorBody{Message: "image generation failed"}
		}
		return llm.ImageStreamEvent{
			Type:  llm.ImageStreamEventError,
			Error: errBody.toError(0),
		}, true
	default:
		return llm.ImageStreamEvent{}, false
	}
}
