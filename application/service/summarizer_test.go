package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/helixml/patchlog/domain/summary"
	"github.com/helixml/patchlog/infrastructure/provider"
	"github.com/helixml/patchlog/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedReply struct {
	text string
	err  error
}

// fakeGenerator replays scripted replies per model. When a model's script is
// exhausted the last reply repeats.
type fakeGenerator struct {
	mu      sync.Mutex
	replies map[string][]scriptedReply
	calls   []provider.ChatCompletionRequest
}

func (f *fakeGenerator) ChatCompletion(_ context.Context, req provider.ChatCompletionRequest) (provider.ChatCompletionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)

	script := f.replies[req.Model()]
	if len(script) == 0 {
		return provider.ChatCompletionResponse{}, errors.New("no reply scripted")
	}
	reply := script[0]
	if len(script) > 1 {
		f.replies[req.Model()] = script[1:]
	}
	if reply.err != nil {
		return provider.ChatCompletionResponse{}, reply.err
	}
	return provider.NewChatCompletionResponse(reply.text, "stop", provider.Usage{}), nil
}

func (f *fakeGenerator) callsFor(model string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Model() == model {
			n++
		}
	}
	return n
}

type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordingSleeper) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return ctx.Err()
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestSummarizer(gen provider.TextGenerator, models ...string) (*Summarizer, *recordingSleeper) {
	cfg := config.NewAIConfigWithOptions(
		config.WithAPIKey("test-key"),
		config.WithModels(models),
	)
	s := NewSummarizer(cfg, gen, testLogger())
	sleeper := &recordingSleeper{}
	s.sleep = sleeper.sleep
	s.throttle = &throttle{}
	return s, sleeper
}

const validReply = `{"summary":"Adds a greeting","tags":["feature","greeting","cli"],"analysis":"Low risk."}`

func TestSummarizer_Unconfigured(t *testing.T) {
	s, sleeper := newTestSummarizer(nil, "m1")

	result, err := s.Generate(context.Background(), "+a", "")
	require.NoError(t, err)

	assert.Equal(t, summary.Unconfigured(), result)
	assert.False(t, s.Configured())
	assert.Empty(t, sleeper.delays, "unconfigured generation should not throttle")
}

func TestSummarizer_UnconfiguredNamesProviderCredential(t *testing.T) {
	cfg := config.NewAIConfigWithOptions(config.WithProvider(config.ProviderOpenAI))
	s := NewSummarizer(cfg, nil, testLogger())

	result, err := s.Generate(context.Background(), "+a", "")
	require.NoError(t, err)

	assert.Contains(t, result.Summary, "Missing OPENAI_API_KEY")
	assert.NotContains(t, result.Summary, "GOOGLE_API_KEY")
	assert.Equal(t, []string{"mock-ai"}, result.Tags)
	assert.True(t, result.IsPlaceholder())
}

func TestParseSummary_CoercesScalarTags(t *testing.T) {
	result, err := parseSummary(`{"summary":"s","analysis":"a","tags":["api",3,true,{"name":"x"},null,["y"]]}`)
	require.NoError(t, err)

	assert.Equal(t, []string{"api", "3", "true"}, result.Tags)
}

func TestSummarizer_Success(t *testing.T) {
	gen := &fakeGenerator{replies: map[string][]scriptedReply{
		"m1": {{text: validReply}},
	}}
	s, _ := newTestSummarizer(gen, "m1", "m2")

	result, err := s.Generate(context.Background(), "+hello", "ticket ABC-1")
	require.NoError(t, err)

	assert.Equal(t, "Adds a greeting", result.Summary)
	assert.Equal(t, []string{"feature", "greeting", "cli"}, result.Tags)
	assert.Equal(t, "Low risk.", result.Analysis)
	assert.Equal(t, 1, gen.callsFor("m1"))
	assert.Equal(t, 0, gen.callsFor("m2"))

	prompt := gen.calls[0].Messages()[0].Content()
	assert.Contains(t, prompt, "Diff:\n+hello")
	assert.Contains(t, prompt, "Additional Context:\nticket ABC-1")
}

func TestSummarizer_PromptWithoutContext(t *testing.T) {
	gen := &fakeGenerator{replies: map[string][]scriptedReply{
		"m1": {{text: validReply}},
	}}
	s, _ := newTestSummarizer(gen, "m1")

	_, err := s.Generate(context.Background(), "+x", "")
	require.NoError(t, err)

	prompt := gen.calls[0].Messages()[0].Content()
	assert.True(t, strings.HasSuffix(prompt, "Additional Context:\nNone"))
}

func TestSummarizer_StripsCodeFences(t *testing.T) {
	gen := &fakeGenerator{replies: map[string][]scriptedReply{
		"m1": {{text: "```json\n" + validReply + "\n```"}},
	}}
	s, _ := newTestSummarizer(gen, "m1")

	result, err := s.Generate(context.Background(), "+x", "")
	require.NoError(t, err)
	assert.Equal(t, "Adds a greeting", result.Summary)
}

func TestSummarizer_RecoversEmbeddedObject(t *testing.T) {
	gen := &fakeGenerator{replies: map[string][]scriptedReply{
		"m1": {{text: "Sure! Here you go: " + validReply + " Hope that helps."}},
	}}
	s, _ := newTestSummarizer(gen, "m1")

	result, err := s.Generate(context.Background(), "+x", "")
	require.NoError(t, err)
	assert.Equal(t, "Low risk.", result.Analysis)
}

func TestSummarizer_MalformedJSON(t *testing.T) {
	gen := &fakeGenerator{replies: map[string][]scriptedReply{
		"m1": {{text: "not json at all"}},
	}}
	s, sleeper := newTestSummarizer(gen, "m1")

	_, err := s.Generate(context.Background(), "+x", "")
	require.Error(t, err)

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, MsgInvalidJSON, err.Error())
	assert.ErrorIs(t, err, ErrInvalidJSON)
	assert.Equal(t, 1, gen.callsFor("m1"), "parse failures are not retried")
	assert.Empty(t, sleeper.delays)
}

func TestSummarizer_SchemaErrorFallsThroughToNextModel(t *testing.T) {
	gen := &fakeGenerator{replies: map[string][]scriptedReply{
		"m1": {{text: `{"summary":"","tags":[],"analysis":"x"}`}},
		"m2": {{text: validReply}},
	}}
	s, _ := newTestSummarizer(gen, "m1", "m2")

	result, err := s.Generate(context.Background(), "+x", "")
	require.NoError(t, err)
	assert.Equal(t, "Adds a greeting", result.Summary)
	assert.Equal(t, 1, gen.callsFor("m1"))
	assert.Equal(t, 1, gen.callsFor("m2"))
}

func TestSummarizer_SchemaErrorOnLastModel(t *testing.T) {
	gen := &fakeGenerator{replies: map[string][]scriptedReply{
		"m1": {{text: `{"summary":"s","tags":"nope","analysis":"a"}`}},
	}}
	s, _ := newTestSummarizer(gen, "m1")

	_, err := s.Generate(context.Background(), "+x", "")
	require.Error(t, err)
	assert.Equal(t, MsgInvalidSchema, err.Error())
	assert.ErrorIs(t, err, ErrInvalidSchema)
}

func TestSummarizer_RateLimitedFallback(t *testing.T) {
	limited := provider.NewProviderError("generate", 429, "quota exceeded", nil)
	gen := &fakeGenerator{replies: map[string][]scriptedReply{
		"m1": {{err: limited}},
		"m2": {{err: limited}},
	}}
	s, sleeper := newTestSummarizer(gen, "m1", "m2")

	result, err := s.Generate(context.Background(), "+x", "")
	require.NoError(t, err)

	assert.Equal(t, summary.RateLimited(), result)
	assert.Contains(t, result.Tags, "rate-limited")
	assert.Equal(t, DefaultMaxRetries+1, gen.callsFor("m1"))
	assert.Equal(t, DefaultMaxRetries+1, gen.callsFor("m2"))
	assert.Equal(t, []time.Duration{
		800 * time.Millisecond, 1600 * time.Millisecond, 3200 * time.Millisecond,
		800 * time.Millisecond, 1600 * time.Millisecond, 3200 * time.Millisecond,
	}, sleeper.delays)
}

func TestSummarizer_RateLimitRecovers(t *testing.T) {
	gen := &fakeGenerator{replies: map[string][]scriptedReply{
		"m1": {
			{err: errors.New("RESOURCE_EXHAUSTED: try later")},
			{text: validReply},
		},
	}}
	s, sleeper := newTestSummarizer(gen, "m1")

	result, err := s.Generate(context.Background(), "+x", "")
	require.NoError(t, err)
	assert.Equal(t, "Adds a greeting", result.Summary)
	assert.Equal(t, 2, gen.callsFor("m1"))
	assert.Equal(t, []time.Duration{800 * time.Millisecond}, sleeper.delays)
}

func TestSummarizer_OtherErrorIsNotRetried(t *testing.T) {
	gen := &fakeGenerator{replies: map[string][]scriptedReply{
		"m1": {{err: provider.NewProviderError("generate", 500, "internal error", nil)}},
	}}
	s, sleeper := newTestSummarizer(gen, "m1")

	_, err := s.Generate(context.Background(), "+x", "")
	require.Error(t, err)

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	var perr *provider.ProviderError
	assert.ErrorAs(t, err, &perr)
	assert.Equal(t, 1, gen.callsFor("m1"))
	assert.Empty(t, sleeper.delays)
}

func TestSummarizer_TruncatesLongInput(t *testing.T) {
	gen := &fakeGenerator{replies: map[string][]scriptedReply{
		"m1": {{text: validReply}},
	}}
	s, _ := newTestSummarizer(gen, "m1")
	s.diffBudget = 10

	_, err := s.Generate(context.Background(), strings.Repeat("é", 25), "")
	require.NoError(t, err)

	prompt := gen.calls[0].Messages()[0].Content()
	assert.Contains(t, prompt, strings.Repeat("é", 10)+truncationMarker)
	assert.NotContains(t, prompt, strings.Repeat("é", 11))
}

func TestSummarizer_Throttle(t *testing.T) {
	gen := &fakeGenerator{replies: map[string][]scriptedReply{
		"m1": {{text: validReply}},
	}}
	s, sleeper := newTestSummarizer(gen, "m1")
	s.minInterval = time.Second

	base := time.Unix(1_700_000_000, 0)
	now := base
	s.now = func() time.Time { return now }

	_, err := s.Generate(context.Background(), "+x", "")
	require.NoError(t, err)
	assert.Empty(t, sleeper.delays, "first call should not wait")

	now = base.Add(300 * time.Millisecond)
	_, err = s.Generate(context.Background(), "+x", "")
	require.NoError(t, err)
	require.Len(t, sleeper.delays, 1)
	assert.Equal(t, 700*time.Millisecond, sleeper.delays[0])
}

func TestSummarizer_NoModels(t *testing.T) {
	s, _ := newTestSummarizer(&fakeGenerator{}, "m1")
	s.models = nil

	_, err := s.Generate(context.Background(), "+x", "")
	require.Error(t, err)
	assert.Equal(t, "AI generation failed.", err.Error())
}

func TestIsRateLimitError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"status 429", provider.NewProviderError("op", 429, "slow down", nil), true},
		{"message 429", errors.New("HTTP 429"), true},
		{"quota", errors.New("Quota exceeded for project"), true},
		{"rate", errors.New("rate limit"), true},
		{"resource exhausted", errors.New("RESOURCE_EXHAUSTED"), true},
		{"other", errors.New("bad request"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRateLimitError(tt.err))
		})
	}
}

func TestParseSummary_TagCoercion(t *testing.T) {
	result, err := parseSummary(`{"summary":"s","tags":["a",2,true,{"x":1},null],"analysis":"a"}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "2", "true"}, result.Tags)
}

func TestParseSummary_NotAnObject(t *testing.T) {
	_, err := parseSummary(`["summary"]`)
	require.Error(t, err)
	assert.Equal(t, MsgInvalidSchema, err.Error())
}
