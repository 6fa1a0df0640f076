package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/helixml/patchlog/domain/summary"
	"github.com/helixml/patchlog/infrastructure/provider"
	"github.com/helixml/patchlog/internal/config"
)

// Backoff applied within one model when the provider rate-limits.
const (
	DefaultMaxRetries     = 3
	DefaultInitialBackoff = 800 * time.Millisecond
)

const truncationMarker = "\n\n...[TRUNCATED]"

// Generation failure messages.
const (
	MsgInvalidJSON   = "Model did not return valid JSON."
	MsgInvalidSchema = "Invalid JSON schema returned by model."
)

// GenerationError reports that no model produced a usable summary for a
// reason other than rate limiting.
type GenerationError struct {
	message string
	cause   error
}

// NewGenerationError creates a GenerationError.
func NewGenerationError(message string, cause error) *GenerationError {
	return &GenerationError{message: message, cause: cause}
}

// Error returns the failure message.
func (e *GenerationError) Error() string { return e.message }

// Unwrap returns the last model error.
func (e *GenerationError) Unwrap() error { return e.cause }

// throttle spaces out calls to the model. Reads and writes are individually
// atomic but the check-then-store is not, so concurrent callers may slip
// through together. The spacing is best effort.
type throttle struct {
	lastCallAt atomic.Int64
}

// sharedThrottle is process-wide so every Summarizer shares one spacing.
var sharedThrottle = &throttle{}

func (t *throttle) wait(ctx context.Context, interval time.Duration, now func() time.Time, sleep func(context.Context, time.Duration) error) error {
	elapsed := now().Sub(time.Unix(0, t.lastCallAt.Load()))
	if elapsed < interval {
		if err := sleep(ctx, interval-elapsed); err != nil {
			return err
		}
	}
	t.lastCallAt.Store(now().UnixNano())
	return nil
}

// Summarizer produces summaries, tags and risk analysis for diffs.
type Summarizer struct {
	generator      provider.TextGenerator
	models         []string
	temperature    float64
	timeout        time.Duration
	minInterval    time.Duration
	diffBudget     int
	contextBudget  int
	maxRetries     int
	initialBackoff time.Duration
	throttle       *throttle
	now            func() time.Time
	sleep          func(context.Context, time.Duration) error
	logger         *slog.Logger
	credential     string
}

// NewSummarizer creates a Summarizer. A nil generator means no credential is
// configured; Generate then returns a placeholder without network access.
func NewSummarizer(cfg config.AIConfig, generator provider.TextGenerator, logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{
		generator:      generator,
		models:         cfg.Models(),
		credential:     cfg.CredentialVar(),
		temperature:    cfg.Temperature(),
		timeout:        cfg.Timeout(),
		minInterval:    cfg.MinInterval(),
		diffBudget:     config.DefaultDiffBudget,
		contextBudget:  config.DefaultContextBudget,
		maxRetries:     DefaultMaxRetries,
		initialBackoff: DefaultInitialBackoff,
		throttle:       sharedThrottle,
		now:            time.Now,
		sleep:          sleepContext,
		logger:         logger,
	}
}

// Configured reports whether a model backend is available.
func (s *Summarizer) Configured() bool {
	return s.generator != nil
}

// Generate summarises diff, using extra as optional surrounding context.
//
// Rate limiting never surfaces as an error: when the last model failure is
// quota-related a placeholder result is returned instead. Other failures
// return a *GenerationError.
func (s *Summarizer) Generate(ctx context.Context, diff, extra string) (summary.Result, error) {
	if s.generator == nil {
		return summary.UnconfiguredFor(s.credential), nil
	}

	if err := s.throttle.wait(ctx, s.minInterval, s.now, s.sleep); err != nil {
		return summary.Result{}, fmt.Errorf("wait for model throttle: %w", err)
	}

	prompt := buildSummaryPrompt(truncate(diff, s.diffBudget), truncate(extra, s.contextBudget))

	var lastErr error
	for _, model := range s.models {
		result, err := s.generateWithModel(ctx, model, prompt)
		if err == nil {
			s.logger.DebugContext(ctx, "diff summarised", slog.String("model", model), slog.Int("tags", len(result.Tags)))
			return result, nil
		}
		lastErr = err
		s.logger.WarnContext(ctx, "summary model failed",
			slog.String("model", model),
			slog.String("error", err.Error()),
		)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return summary.Result{}, fmt.Errorf("generate summary: %w", ctxErr)
		}
	}

	if lastErr == nil {
		return summary.Result{}, NewGenerationError("AI generation failed.", nil)
	}
	if IsRateLimitError(lastErr) {
		s.logger.WarnContext(ctx, "summary models rate limited, returning placeholder")
		return summary.RateLimited(), nil
	}
	return summary.Result{}, NewGenerationError(lastErr.Error(), lastErr)
}

// generateWithModel retries rate-limited calls with doubling delays. Any
// other failure, including unusable output, is returned immediately.
func (s *Summarizer) generateWithModel(ctx context.Context, model, prompt string) (summary.Result, error) {
	req := provider.NewChatCompletionRequest([]provider.Message{provider.UserMessage(prompt)}).
		WithModel(model).
		WithTemperature(s.temperature)

	delay := s.initialBackoff
	for attempt := 0; ; attempt++ {
		text, err := s.complete(ctx, req)
		if err == nil {
			return parseSummary(text)
		}
		if !IsRateLimitError(err) || attempt >= s.maxRetries {
			return summary.Result{}, err
		}

		s.logger.DebugContext(ctx, "summary model rate limited, backing off",
			slog.String("model", model),
			slog.Int("attempt", attempt+1),
			slog.Duration("delay", delay),
		)
		if err := s.sleep(ctx, delay); err != nil {
			return summary.Result{}, err
		}
		delay *= 2
	}
}

func (s *Summarizer) complete(ctx context.Context, req provider.ChatCompletionRequest) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	resp, err := s.generator.ChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	return resp.Content(), nil
}

// IsRateLimitError reports whether err looks like a quota or rate limit
// rejection, either by status code or by its message.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	var perr *provider.ProviderError
	if errors.As(err, &perr) && perr.IsRateLimited() {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"429", "rate", "quota", "resource_exhausted"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func buildSummaryPrompt(diff, extra string) string {
	if extra == "" {
		extra = "None"
	}
	return fmt.Sprintf(`You are a coding assistant. Analyze this git diff and return STRICT JSON only.

Return:
{
  "summary": "string",
  "tags": ["string"],
  "analysis": "string"
}

Rules:
- Output MUST be valid JSON (no markdown, no extra text).
- tags: 3-5 short tags.

Diff:
%s

Additional Context:
%s`, diff, extra)
}

// truncate keeps the first limit runes of s and marks the cut.
func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + truncationMarker
}

var (
	leadingJSONFence = regexp.MustCompile("(?i)^```json\\s*")
	leadingFence     = regexp.MustCompile("^```")
	trailingFence    = regexp.MustCompile("\\s*```$")
)

// parseSummary recovers a summary object from model text that may be
// wrapped in markdown fences or surrounded by prose.
func parseSummary(text string) (summary.Result, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = leadingJSONFence.ReplaceAllString(cleaned, "")
	cleaned = leadingFence.ReplaceAllString(cleaned, "")
	cleaned = trailingFence.ReplaceAllString(cleaned, "")

	var parsed any
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		start := strings.Index(cleaned, "{")
		end := strings.LastIndex(cleaned, "}")
		if start < 0 || end <= start {
			return summary.Result{}, ErrInvalidJSON
		}
		if err := json.Unmarshal([]byte(cleaned[start:end+1]), &parsed); err != nil {
			return summary.Result{}, fmt.Errorf("parse model output: %w", err)
		}
	}

	return validateSummary(parsed)
}

func validateSummary(parsed any) (summary.Result, error) {
	obj, ok := parsed.(map[string]any)
	if !ok {
		return summary.Result{}, ErrInvalidSchema
	}
	text, _ := obj["summary"].(string)
	analysis, _ := obj["analysis"].(string)
	rawTags, tagsOK := obj["tags"].([]any)
	if text == "" || analysis == "" || !tagsOK {
		return summary.Result{}, ErrInvalidSchema
	}

	// Scalar tags are kept as text; objects, arrays and nulls are dropped.
	tags := make([]string, 0, len(rawTags))
	for _, t := range rawTags {
		switch v := t.(type) {
		case string:
			tags = append(tags, v)
		case float64, bool:
			tags = append(tags, fmt.Sprint(v))
		}
	}

	return summary.Result{Summary: text, Tags: tags, Analysis: analysis}, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
