package patchlog

import (
	"io"
	"log/slog"

	"github.com/helixml/patchlog/infrastructure/provider"
	"github.com/helixml/patchlog/internal/config"
)

// databaseType identifies the database.
type databaseType int

const (
	databaseUnset databaseType = iota
	databaseSQLite
	databasePostgres
	databaseURL
)

// clientConfig holds configuration for Client construction.
// Use newClientConfig() to create with defaults from internal/config.
type clientConfig struct {
	database     databaseType
	dbPath       string
	dbDSN        string
	dataDir      string
	logger       *slog.Logger
	apiKeys      []string
	recordLimit  int
	ai           config.AIConfig
	textProvider provider.TextGenerator
	github       config.GitHubConfig
	closers      []io.Closer
}

// newClientConfig creates a clientConfig with defaults from internal/config.
func newClientConfig() *clientConfig {
	return &clientConfig{
		dataDir:     config.DefaultDataDir(),
		recordLimit: config.DefaultRecordLimit,
		ai:          config.NewAIConfig(),
	}
}

// Option configures the Client.
type Option func(*clientConfig)

// WithSQLite stores records in a SQLite file.
func WithSQLite(path string) Option {
	return func(c *clientConfig) {
		c.database = databaseSQLite
		c.dbPath = path
	}
}

// WithPostgres stores records in PostgreSQL.
func WithPostgres(dsn string) Option {
	return func(c *clientConfig) {
		c.database = databasePostgres
		c.dbDSN = dsn
	}
}

// WithDatabaseURL selects the database from a sqlite:/// or postgres:// URL.
func WithDatabaseURL(url string) Option {
	return func(c *clientConfig) {
		c.database = databaseURL
		c.dbDSN = url
	}
}

// WithDataDir sets the data directory.
func WithDataDir(dir string) Option {
	return func(c *clientConfig) {
		c.dataDir = dir
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}

// WithAPIKeys sets the accepted API keys, each "user:key" or a bare key.
func WithAPIKeys(keys ...string) Option {
	return func(c *clientConfig) {
		c.apiKeys = append([]string(nil), keys...)
	}
}

// WithRecordLimit sets the default listing size.
func WithRecordLimit(n int) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.recordLimit = n
		}
	}
}

// WithAIConfig configures summary generation. A provider is built from the
// config when it carries a credential.
func WithAIConfig(ai config.AIConfig) Option {
	return func(c *clientConfig) {
		c.ai = ai
	}
}

// WithGemini uses Gemini with apiKey for summaries.
func WithGemini(apiKey string) Option {
	return func(c *clientConfig) {
		c.ai = c.ai.Apply(config.WithProvider(config.ProviderGemini), config.WithAPIKey(apiKey))
	}
}

// WithOpenAI uses an OpenAI-compatible API with apiKey for summaries.
func WithOpenAI(apiKey string) Option {
	return func(c *clientConfig) {
		c.ai = c.ai.Apply(config.WithProvider(config.ProviderOpenAI), config.WithAPIKey(apiKey))
	}
}

// WithTextProvider sets a custom text generation provider, overriding the
// one built from the AI config.
func WithTextProvider(p provider.TextGenerator) Option {
	return func(c *clientConfig) {
		c.textProvider = p
	}
}

// WithGitHub sets the default GitHub token and an optional Enterprise API URL.
func WithGitHub(token, baseURL string) Option {
	return func(c *clientConfig) {
		c.github = config.NewGitHubConfig(token, baseURL)
	}
}

// WithCloser registers a resource to close with the Client.
func WithCloser(closer io.Closer) Option {
	return func(c *clientConfig) {
		c.closers = append(c.closers, closer)
	}
}
