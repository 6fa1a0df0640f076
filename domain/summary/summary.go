// Package summary holds the result of AI diff summarisation.
package summary

import "strings"

// Result is a generated description of a diff. It is never persisted on its
// own; callers use it to prefill a record.
type Result struct {
	Summary  string   `json:"summary"`
	Tags     []string `json:"tags"`
	Analysis string   `json:"analysis"`
}

// Placeholder texts returned when no model output is available.
const (
	UnconfiguredSummary  = "AI Summary unavailable (Missing GOOGLE_API_KEY). This is a simulated summary."
	UnconfiguredAnalysis = "Simulated analysis: Diff received."
	RateLimitedSummary   = "Rate limit hit. Returning a simulated summary so UI can continue working."
	RateLimitedAnalysis  = "Your integration is correct; Gemini rejected the request due to quota/rate limiting. Add throttling/backoff or wait for quota reset."
)

// DefaultCredential is the variable named by UnconfiguredSummary.
const DefaultCredential = "GOOGLE_API_KEY"

// Unconfigured is returned when no Gemini credential is configured.
func Unconfigured() Result {
	return UnconfiguredFor(DefaultCredential)
}

// UnconfiguredFor is the placeholder naming the missing credential variable.
func UnconfiguredFor(credential string) Result {
	text := UnconfiguredSummary
	if credential != "" && credential != DefaultCredential {
		text = strings.Replace(text, DefaultCredential, credential, 1)
	}
	return Result{
		Summary:  text,
		Tags:     []string{"mock-ai"},
		Analysis: UnconfiguredAnalysis,
	}
}

// RateLimited is returned when every model attempt was rejected for quota.
func RateLimited() Result {
	return Result{
		Summary:  RateLimitedSummary,
		Tags:     []string{"rate-limited", "mock-data"},
		Analysis: RateLimitedAnalysis,
	}
}

// IsPlaceholder reports whether r is one of the simulated results.
func (r Result) IsPlaceholder() bool {
	if r.Summary == RateLimitedSummary {
		return true
	}
	return r.Analysis == UnconfiguredAnalysis && len(r.Tags) == 1 && r.Tags[0] == "mock-ai"
}
