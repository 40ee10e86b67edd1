package llm

import "slices"

// ModerationOptionsProvider is implemented by every options type a ModerationModel accepts
type ModerationOptionsProvider interface {
	GetModerationOptions() ModerationOptions
}

// ModerationOptions holds the portable moderation parameters
type ModerationOptions struct {
	Model string `json:"model,omitempty" yaml:"model,omitempty"`
}

// GetModerationOptions implements ModerationOptionsProvider
func (o ModerationOptions) GetModerationOptions() ModerationOptions {
	return o
}

// ModerationPrompt is the text to classify
type ModerationPrompt struct {
	Text    string
	Options ModerationOptionsProvider
}

// ModerationResult is the verdict for one input
type ModerationResult struct {
	Flagged        bool               `json:"flagged"`
	Categories     map[string]bool    `json:"categories"`
	CategoryScores map[string]float64 `json:"category_scores"`
}

// FlaggedCategories returns the sorted names of the categories that were flagged
func (r ModerationResult) FlaggedCategories() []string {
	var names []string
	for name, flagged := range r.Categories {
		if flagged {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// ModerationResponse is the result of a moderation call
type ModerationResponse struct {
	ID        string             `json:"id"`
	Model     string             `json:"model"`
	Results   []ModerationResult `json:"results"`
	RateLimit *RateLimit         `json:"rate_limit,omitempty"`
}

// Flagged reports whether any result was flagged
func (r *ModerationResponse) Flagged() bool {
	if r == nil {
		return false
	}
	for _, res := range r.Results {
		if res.Flagged {
			return true
		}
	}
	return false
}
