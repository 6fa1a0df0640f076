package patchlog

import (
	"context"
	"fmt"
	"net/http"

	"github.com/helixml/patchlog/infrastructure/provider"
	"github.com/helixml/patchlog/internal/config"
)

// buildDatabaseURL constructs the database URL from configuration.
func buildDatabaseURL(cfg *clientConfig) (string, error) {
	switch cfg.database {
	case databaseSQLite:
		return "sqlite:///" + cfg.dbPath, nil
	case databasePostgres, databaseURL:
		return cfg.dbDSN, nil
	default:
		return "", ErrNoDatabase
	}
}

// buildTextProvider creates the generator named by ai. It returns nil when
// no credential is configured.
func buildTextProvider(ctx context.Context, ai config.AIConfig) (provider.TextGenerator, error) {
	if !ai.IsConfigured() {
		return nil, nil
	}

	var transport http.RoundTripper
	if dir := ai.CacheDir(); dir != "" {
		cache, err := provider.NewCachingTransport(dir, http.DefaultTransport)
		if err != nil {
			return nil, fmt.Errorf("response cache: %w", err)
		}
		transport = cache
	}

	switch ai.Provider() {
	case config.ProviderOpenAI:
		return provider.NewOpenAIProvider(provider.OpenAIConfig{
			APIKey:    ai.APIKey(),
			BaseURL:   ai.BaseURL(),
			Timeout:   ai.Timeout(),
			Transport: transport,
		}), nil
	default:
		return provider.NewGeminiProvider(ctx, provider.GeminiConfig{
			APIKey:    ai.APIKey(),
			BaseURL:   ai.BaseURL(),
			Timeout:   ai.Timeout(),
			Transport: transport,
		})
	}
}
