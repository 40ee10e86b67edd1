package llm

import "time"

// RateLimit is the rate-limit state a vendor reported alongside a response.
// Zero values mean the header was absent.
type RateLimit struct {
	RequestsLimit     int64         `json:"requests_limit,omitempty"`
	RequestsRemaining int64         `json:"requests_remaining,omitempty"`
	RequestsReset     time.Duration `json:"requests_reset,omitempty"`
	TokensLimit       int64         `json:"tokens_limit,omitempty"`
	TokensRemaining   int64         `json:"tokens_remaining,omitempty"`
	TokensReset       time.Duration `json:"tokens_reset,omitempty"`
}

// IsZero reports whether no rate-limit information was captured
func (r RateLimit) IsZero() bool {
	return r == RateLimit{}
}
