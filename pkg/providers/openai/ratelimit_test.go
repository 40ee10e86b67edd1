package openai

import (
	"net/http"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func responseWithHeaders(h http.Header) *openai.RawResponse {
	resp := &openai.RawResponse{}
	resp.SetHeader(h)
	return resp
}

func TestRateLimitFrom(t *testing.T) {
	t.Parallel()

	h := http.Header{}
	h.Set("x-ratelimit-limit-requests", "500")
	h.Set("x-ratelimit-remaining-requests", "499")
	h.Set("x-ratelimit-reset-requests", "120ms")
	h.Set("x-ratelimit-limit-tokens", "200000")
	h.Set("x-ratelimit-remaining-tokens", "199950")
	h.Set("x-ratelimit-reset-tokens", "6m0s")

	rl := rateLimitFrom(responseWithHeaders(h))
	require.NotNil(t, rl)
	assert.EqualValues(t, 500, rl.RequestsLimit)
	assert.EqualValues(t, 499, rl.RequestsRemaining)
	assert.Equal(t, 120*time.Millisecond, rl.RequestsReset)
	assert.EqualValues(t, 200000, rl.TokensLimit)
	assert.EqualValues(t, 199950, rl.TokensRemaining)
	assert.Equal(t, 6*time.Minute, rl.TokensReset)
}

func TestRateLimitFromMissingOrMalformed(t *testing.T) {
	t.Parallel()

	assert.Nil(t, rateLimitFrom(responseWithHeaders(http.Header{})))

	h := http.Header{}
	h.Set("x-ratelimit-limit-requests", "lots")
	h.Set("x-ratelimit-reset-tokens", "soon")
	assert.Nil(t, rateLimitFrom(responseWithHeaders(h)))
}

func TestRateLimitFromNonCarrier(t *testing.T) {
	t.Parallel()

	assert.Nil(t, rateLimitFrom(struct{}{}))
}
