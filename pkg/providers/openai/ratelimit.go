package openai

import (
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/modelport/modelport/pkg/llm"
)

// rateLimitCarrier is implemented by go-openai responses through their embedded header holder
type rateLimitCarrier interface {
	GetRateLimitHeaders() openai.RateLimitHeaders
}

// rateLimitFrom extracts the rate-limit state from a go-openai response pointer.
// It returns nil when the response carries none.
func rateLimitFrom(resp any) *llm.RateLimit {
	carrier, ok := resp.(rateLimitCarrier)
	if !ok {
		return nil
	}
	return convertRateLimit(carrier.GetRateLimitHeaders())
}

// convertRateLimit keeps resets as durations; ResetTime.Time would anchor them to now
func convertRateLimit(h openai.RateLimitHeaders) *llm.RateLimit {
	rl := llm.RateLimit{
		RequestsLimit:     int64(h.LimitRequests),
		RequestsRemaining: int64(h.RemainingRequests),
		RequestsReset:     resetDuration(h.ResetRequests),
		TokensLimit:       int64(h.LimitTokens),
		TokensRemaining:   int64(h.RemainingTokens),
		TokensReset:       resetDuration(h.ResetTokens),
	}
	if rl.IsZero() {
		return nil
	}
	return &rl
}

// resetDuration reads values such as "1s", "6m0s" or "20ms"
func resetDuration(r openai.ResetTime) time.Duration {
	d, err := time.ParseDuration(r.String())
	if err != nil {
		return 0
	}
	return d
}
