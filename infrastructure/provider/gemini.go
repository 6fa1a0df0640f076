package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when the request names no model.
const DefaultGeminiModel = "gemini-1.5-flash"

// GeminiConfig holds configuration for the Gemini provider.
type GeminiConfig struct {
	APIKey string
	// BaseURL overrides the Gemini API endpoint.
	BaseURL string
	Timeout time.Duration
	// Transport overrides the HTTP transport, e.g. with a response cache.
	Transport http.RoundTripper
}

// GeminiProvider generates text through the Google Gemini API.
type GeminiProvider struct {
	client *genai.Client
}

// NewGeminiProvider creates a Gemini client. No request is made until the
// first completion.
func NewGeminiProvider(ctx context.Context, cfg GeminiConfig) (*GeminiProvider, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	if cfg.Timeout > 0 || cfg.Transport != nil {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout, Transport: cfg.Transport}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiProvider{client: client}, nil
}

// ChatCompletion sends the conversation to Gemini in a single attempt.
// System messages become the system instruction.
func (p *GeminiProvider) ChatCompletion(ctx context.Context, req ChatCompletionRequest) (ChatCompletionResponse, error) {
	model := req.Model()
	if model == "" {
		model = DefaultGeminiModel
	}

	config := &genai.GenerateContentConfig{}
	if req.Temperature() > 0 {
		config.Temperature = genai.Ptr(float32(req.Temperature()))
	}
	if req.MaxTokens() > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens())
	}

	var contents []*genai.Content
	var system []string
	for _, m := range req.Messages() {
		switch m.Role() {
		case "system":
			system = append(system, m.Content())
		case "assistant":
			contents = append(contents, genai.NewContentFromText(m.Content(), genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content(), genai.RoleUser))
		}
	}
	if len(system) > 0 {
		config.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}

	resp, err := p.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return ChatCompletionResponse{}, wrapGeminiError("generate_content", err)
	}

	text, finish := geminiText(resp)
	if text == "" {
		return ChatCompletionResponse{}, NewProviderError("generate_content", 0, "no text in response", ErrEmptyResponse)
	}

	var usage Usage
	if resp.UsageMetadata != nil {
		usage = NewUsage(
			int(resp.UsageMetadata.PromptTokenCount),
			int(resp.UsageMetadata.CandidatesTokenCount),
			int(resp.UsageMetadata.TotalTokenCount),
		)
	}
	return NewChatCompletionResponse(text, finish, usage), nil
}

func geminiText(resp *genai.GenerateContentResponse) (string, string) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", ""
	}
	cand := resp.Candidates[0]
	if cand.Content == nil {
		return "", string(cand.FinishReason)
	}
	var b strings.Builder
	for _, part := range cand.Content.Parts {
		if part != nil && !part.Thought {
			b.WriteString(part.Text)
		}
	}
	return b.String(), string(cand.FinishReason)
}

func wrapGeminiError(operation string, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return NewProviderError(operation, apiErr.Code, apiErr.Message, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return NewProviderError(operation, apiErrPtr.Code, apiErrPtr.Message, err)
	}
	return NewProviderError(operation, 0, err.Error(), err)
}

var _ TextGenerator = (*GeminiProvider)(nil)
