package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextContent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{name: "plain", text: "hello"},
		{name: "empty", text: "", wantErr: true},
		{name: "whitespace", text: " \n\t", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewTextContent(tt.text)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, c.IsEmpty())
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, int64(len(tt.text)), c.Size())
			assert.Equal(t, MessageTypeText, c.Type())
		})
	}
}

func TestTextContentJSONCarriesType(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(NewTextContent("hi"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"text","text":"hi"}`, string(data))

	var c TextContent
	assert.Error(t, json.Unmarshal([]byte(`{"type":"image","text":"hi"}`), &c))
}

func TestImageContentValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content *ImageContent
		wantErr bool
	}{
		{name: "url", content: NewImageContentFromURL("https://example.com/a.png", "")},
		{name: "bytes", content: NewImageContentFromBytes([]byte{1}, "image/png")},
		{name: "nothing", content: &ImageContent{}, wantErr: true},
		{name: "unsupported_mime", content: NewImageContentFromBytes([]byte{1}, "image/bmp"), wantErr: true},
		{name: "bad_url", content: NewImageContentFromURL("not a url", ""), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.content.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestImageContentDataURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://example.com/a.png", NewImageContentFromURL("https://example.com/a.png", "image/png").DataURL())
	assert.Equal(t, "data:image/jpeg;base64,AQID", NewImageContentFromBytes([]byte{1, 2, 3}, "image/jpeg").DataURL())
	assert.Equal(t, "data:image/png;base64,AQID", NewImageContentFromBytes([]byte{1, 2, 3}, "").DataURL())
}
