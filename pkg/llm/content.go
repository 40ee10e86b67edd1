package llm

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
)

// TextContent represents text-based message content
type TextContent struct {
	Text string `json:"text"`
}

// NewTextContent creates a new TextContent instance with the given text
func NewTextContent(text string) *TextContent {
	return &TextContent{
		Text: text,
	}
}

// Type returns the message type for text content
func (t *TextContent) Type() MessageType {
	return MessageTypeText
}

// Validate checks if the text content is valid.
// Text content must not be empty or contain only whitespace
func (t *TextContent) Validate() error {
	if t == nil {
		return errors.New("text content cannot be nil")
	}
	if strings.TrimSpace(t.Text) == "" {
		return errors.New("text content cannot be empty")
	}
	return nil
}

// Size returns the byte size of the text content
func (t *TextContent) Size() int64 {
	if t == nil {
		return 0
	}
	return int64(len(t.Text))
}

// GetText returns the text content as a string
func (t *TextContent) GetText() string {
	if t == nil {
		return ""
	}
	return t.Text
}

// IsEmpty checks if the text content is empty or whitespace-only
func (t *TextContent) IsEmpty() bool {
	if t == nil {
		return true
	}
	return strings.TrimSpace(t.Text) == ""
}

// MarshalJSON implements custom JSON marshaling for TextContent
func (t *TextContent) MarshalJSON() ([]byte, error) {
	if t == nil {
		return json.Marshal(nil)
	}
	return json.Marshal(struct {
		Type MessageType `json:"type"`
		Text string      `json:"text"`
	}{
		Type: t.Type(),
		Text: t.Text,
	})
}

// UnmarshalJSON implements custom JSON unmarshaling for TextContent
func (t *TextContent) UnmarshalJSON(data []byte) error {
	var content struct {
		Type MessageType `json:"type"`
		Text string      `json:"text"`
	}
	if err := json.Unmarshal(data, &content); err != nil {
		return err
	}
	if content.Type != "" && content.Type != MessageTypeText {
		return errors.New("invalid content type for TextContent")
	}
	t.Text = content.Text
	return nil
}

// ImageDetail controls the fidelity the vendor uses when looking at an image
type ImageDetail string

const (
	ImageDetailAuto ImageDetail = "auto"
	ImageDetailLow  ImageDetail = "low"
	ImageDetailHigh ImageDetail = "high"
)

// ImageContent represents image-based message content.
// Either Data or URL must be set.
type ImageContent struct {
	Data     []byte      `json:"data,omitempty"`
	URL      string      `json:"url,omitempty"`
	MimeType string      `json:"mime_type"`
	Detail   ImageDetail `json:"detail,omitempty"`
}

var supportedImageMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// NewImageContentFromBytes creates a new ImageContent instance from binary data
func NewImageContentFromBytes(data []byte, mimeType string) *ImageContent {
	return &ImageContent{
		Data:     data,
		MimeType: mimeType,
	}
}

// NewImageContentFromURL creates a new ImageContent instance from a URL reference
func NewImageContentFromURL(imageURL, mimeType string) *ImageContent {
	return &ImageContent{
		URL:      imageURL,
		MimeType: mimeType,
	}
}

// Type returns the message type for image content
func (i *ImageContent) Type() MessageType {
	return MessageTypeImage
}

// Validate checks if the image content is valid
func (i *ImageContent) Validate() error {
	if i == nil {
		return errors.New("image content cannot be nil")
	}

	hasData := len(i.Data) > 0
	hasURL := strings.TrimSpace(i.URL) != ""
	if !hasData && !hasURL {
		return errors.New("image content must have either data or URL")
	}
	if hasData && !supportedImageMimeTypes[i.MimeType] {
		return errors.New("unsupported image MIME type: " + i.MimeType)
	}
	if hasURL {
		if _, err := url.ParseRequestURI(i.URL); err != nil {
			return errors.New("invalid image URL: " + err.Error())
		}
	}
	return nil
}

// Size returns the byte size of the inline image data
func (i *ImageContent) Size() int64 {
	if i == nil {
		return 0
	}
	return int64(len(i.Data))
}

// HasData returns true if the image has binary data
func (i *ImageContent) HasData() bool {
	return i != nil && len(i.Data) > 0
}

// HasURL returns true if the image has a URL reference
func (i *ImageContent) HasURL() bool {
	return i != nil && strings.TrimSpace(i.URL) != ""
}

// DataURL returns the URL to hand to a vendor: the URL itself when present,
// otherwise a base64 data URL built from the inline bytes.
func (i *ImageContent) DataURL() string {
	if i == nil {
		return ""
	}
	if i.HasURL() {
		return i.URL
	}
	mimeType := i.MimeType
	if mimeType == "" {
		mimeType = "image/png"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// IsValidImageMimeType checks if a MIME type is supported for images
func IsValidImageMimeType(mimeType string) bool {
	return supportedImageMimeTypes[mimeType]
}

// MarshalJSON implements custom JSON marshaling for ImageContent
func (i *ImageContent) MarshalJSON() ([]byte, error) {
	if i == nil {
		return json.Marshal(nil)
	}
	type alias ImageContent
	return json.Marshal(struct {
		Type MessageType `json:"type"`
		*alias
	}{
		Type:  i.Type(),
		alias: (*alias)(i),
	})
}

// UnmarshalJSON implements custom JSON unmarshaling for ImageContent
func (i *ImageContent) UnmarshalJSON(data []byte) error {
	type alias ImageContent
	content := struct {
		Type MessageType `json:"type"`
		*alias
	}{
		alias: (*alias)(i),
	}
	if err := json.Unmarshal(data, &content); err != nil {
		return err
	}
	if content.Type != "" && content.Type != MessageTypeImage {
		return errors.New("invalid content type for ImageContent")
	}
	return nil
}
