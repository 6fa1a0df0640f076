// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultHost            = "0.0.0.0"
	DefaultPort            = 8080
	DefaultLogLevel        = "INFO"
	DefaultDataSubdir      = ".patchlog"
	DefaultDBFile          = "patchlog.db"
	DefaultRecordLimit     = 50
	DefaultAIProvider      = ProviderGemini
	DefaultEndpointTimeout = 60 * time.Second
	DefaultMinInterval     = 1200 * time.Millisecond
	DefaultTemperature     = 0.2
	DefaultDiffBudget      = 12000
	DefaultContextBudget   = 4000
)

// DefaultModels is the ordered list of Gemini models tried for generation.
var DefaultModels = []string{"gemini-1.5-flash", "gemini-2.0-flash"}

// DefaultOpenAIModels is the ordered list tried when the provider is OpenAI.
var DefaultOpenAIModels = []string{"gpt-4o-mini", "gpt-4o"}

// DefaultModelsFor returns a copy of the default candidate list for p.
func DefaultModelsFor(p AIProvider) []string {
	defaults := DefaultModels
	if p == ProviderOpenAI {
		defaults = DefaultOpenAIModels
	}
	return append([]string(nil), defaults...)
}

// LogFormat represents the log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// AIProvider names the text generation backend.
type AIProvider string

// AIProvider values.
const (
	ProviderGemini AIProvider = "gemini"
	ProviderOpenAI AIProvider = "openai"
)

// AIConfig configures the summary generation backend.
type AIConfig struct {
	provider    AIProvider
	baseURL     string
	apiKey      string
	models      []string
	timeout     time.Duration
	minInterval time.Duration
	temperature float64
	cacheDir    string
}

// NewAIConfig creates a new AIConfig with defaults.
func NewAIConfig() AIConfig {
	return AIConfig{
		provider:    DefaultAIProvider,
		timeout:     DefaultEndpointTimeout,
		minInterval: DefaultMinInterval,
		temperature: DefaultTemperature,
	}
}

// Provider returns the configured backend.
func (a AIConfig) Provider() AIProvider { return a.provider }

// BaseURL returns the base URL override, if any.
func (a AIConfig) BaseURL() string { return a.baseURL }

// APIKey returns the credential for the backend.
func (a AIConfig) APIKey() string { return a.apiKey }

// Models returns the ordered candidate models. Without an explicit list
// the provider's defaults apply.
func (a AIConfig) Models() []string {
	if len(a.models) == 0 {
		return DefaultModelsFor(a.provider)
	}
	models := make([]string, len(a.models))
	copy(models, a.models)
	return models
}

// Timeout returns the per-call timeout.
func (a AIConfig) Timeout() time.Duration { return a.timeout }

// MinInterval returns the minimum spacing between generation calls.
func (a AIConfig) MinInterval() time.Duration { return a.minInterval }

// Temperature returns the sampling temperature.
func (a AIConfig) Temperature() float64 { return a.temperature }

// CacheDir returns the response cache directory. Empty disables caching.
func (a AIConfig) CacheDir() string { return a.cacheDir }

// CredentialVar names the environment variable holding the credential for
// the configured provider.
func (a AIConfig) CredentialVar() string {
	if a.provider == ProviderOpenAI {
		return "OPENAI_API_KEY"
	}
	return "GOOGLE_API_KEY"
}

// IsConfigured returns true if a credential is present.
func (a AIConfig) IsConfigured() bool {
	return a.apiKey != ""
}

// AIOption is a functional option for AIConfig.
type AIOption func(*AIConfig)

// WithProvider sets the backend.
func WithProvider(p AIProvider) AIOption {
	return func(a *AIConfig) { a.provider = p }
}

// WithBaseURL sets the base URL.
func WithBaseURL(url string) AIOption {
	return func(a *AIConfig) { a.baseURL = url }
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) AIOption {
	return func(a *AIConfig) { a.apiKey = key }
}

// WithModels sets the candidate models. Empty input keeps the defaults.
func WithModels(models []string) AIOption {
	return func(a *AIConfig) {
		if len(models) == 0 {
			return
		}
		a.models = make([]string, len(models))
		copy(a.models, models)
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) AIOption {
	return func(a *AIConfig) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithMinInterval sets the throttle interval.
func WithMinInterval(d time.Duration) AIOption {
	return func(a *AIConfig) {
		if d >= 0 {
			a.minInterval = d
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) AIOption {
	return func(a *AIConfig) { a.temperature = t }
}

// WithCacheDir enables the on-disk model response cache.
func WithCacheDir(dir string) AIOption {
	return func(a *AIConfig) { a.cacheDir = dir }
}

// NewAIConfigWithOptions creates an AIConfig with functional options.
func NewAIConfigWithOptions(opts ...AIOption) AIConfig {
	a := NewAIConfig()
	for _, opt := range opts {
		opt(&a)
	}
	return a
}

// Apply returns a copy of a with opts applied.
func (a AIConfig) Apply(opts ...AIOption) AIConfig {
	a.models = append([]string(nil), a.models...)
	for _, opt := range opts {
		opt(&a)
	}
	return a
}

// GitHubConfig configures access to the source hosting API.
type GitHubConfig struct {
	token   string
	baseURL string
}

// NewGitHubConfig creates a GitHubConfig.
func NewGitHubConfig(token, baseURL string) GitHubConfig {
	return GitHubConfig{token: token, baseURL: baseURL}
}

// Token returns the default access token.
func (g GitHubConfig) Token() string { return g.token }

// BaseURL returns the enterprise API URL, if any.
func (g GitHubConfig) BaseURL() string { return g.baseURL }

// AppConfig holds the main application configuration.
type AppConfig struct {
	host        string
	port        int
	dataDir     string
	dbURL       string
	logLevel    string
	logFormat   LogFormat
	apiKeys     []string
	corsOrigins []string
	recordLimit int
	ai          AIConfig
	github      GitHubConfig
}

// DefaultDataDir returns the default data directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultDataSubdir
	}
	return filepath.Join(home, DefaultDataSubdir)
}

// DefaultLogger returns the default slog logger for library consumers.
func DefaultLogger() *slog.Logger {
	return slog.Default()
}

// PrepareDataDir creates the data directory if it does not exist and returns it.
func PrepareDataDir(dataDir string) (string, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	return dataDir, nil
}

// NewAppConfig creates a new AppConfig with defaults.
func NewAppConfig() AppConfig {
	dataDir := DefaultDataDir()
	return AppConfig{
		host:        DefaultHost,
		port:        DefaultPort,
		dataDir:     dataDir,
		dbURL:       "sqlite:///" + filepath.Join(dataDir, DefaultDBFile),
		logLevel:    DefaultLogLevel,
		logFormat:   LogFormatPretty,
		apiKeys:     []string{},
		corsOrigins: []string{},
		recordLimit: DefaultRecordLimit,
		ai:          NewAIConfig(),
	}
}

// Host returns the server host to bind to.
func (c AppConfig) Host() string { return c.host }

// Port returns the server port to listen on.
func (c AppConfig) Port() int { return c.port }

// Addr returns the combined host:port address.
func (c AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.host, c.port)
}

// DataDir returns the data directory path.
func (c AppConfig) DataDir() string { return c.dataDir }

// DBURL returns the database connection URL.
func (c AppConfig) DBURL() string { return c.dbURL }

// LogLevel returns the log level.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the log format.
func (c AppConfig) LogFormat() LogFormat { return c.logFormat }

// APIKeys returns the configured API key entries.
func (c AppConfig) APIKeys() []string {
	keys := make([]string, len(c.apiKeys))
	copy(keys, c.apiKeys)
	return keys
}

// CORSOrigins returns the allowed browser origins.
func (c AppConfig) CORSOrigins() []string {
	origins := make([]string, len(c.corsOrigins))
	copy(origins, c.corsOrigins)
	return origins
}

// RecordLimit returns the default page size for record listings.
func (c AppConfig) RecordLimit() int { return c.recordLimit }

// AI returns the summary generation config.
func (c AppConfig) AI() AIConfig { return c.ai }

// GitHub returns the source hosting config.
func (c AppConfig) GitHub() GitHubConfig { return c.github }

// EnsureDataDir creates the data directory if it doesn't exist.
func (c AppConfig) EnsureDataDir() error {
	return os.MkdirAll(c.dataDir, 0o755)
}

// AppConfigOption is a functional option for AppConfig.
type AppConfigOption func(*AppConfig)

// WithHost sets the server host.
func WithHost(host string) AppConfigOption {
	return func(c *AppConfig) { c.host = host }
}

// WithPort sets the server port.
func WithPort(port int) AppConfigOption {
	return func(c *AppConfig) { c.port = port }
}

// WithDataDir sets the data directory.
func WithDataDir(dir string) AppConfigOption {
	return func(c *AppConfig) {
		c.dataDir = dir
		// Follow the data dir while the DB URL is still the default.
		if c.dbURL == "" || strings.HasSuffix(c.dbURL, DefaultDBFile) {
			c.dbURL = "sqlite:///" + filepath.Join(dir, DefaultDBFile)
		}
	}
}

// WithDBURL sets the database URL.
func WithDBURL(url string) AppConfigOption {
	return func(c *AppConfig) { c.dbURL = url }
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) AppConfigOption {
	return func(c *AppConfig) { c.logLevel = level }
}

// WithLogFormat sets the log format.
func WithLogFormat(format LogFormat) AppConfigOption {
	return func(c *AppConfig) { c.logFormat = format }
}

// WithAPIKeys sets the API key entries.
func WithAPIKeys(keys []string) AppConfigOption {
	return func(c *AppConfig) {
		c.apiKeys = make([]string, len(keys))
		copy(c.apiKeys, keys)
	}
}

// WithCORSOrigins sets the allowed browser origins.
func WithCORSOrigins(origins []string) AppConfigOption {
	return func(c *AppConfig) {
		c.corsOrigins = make([]string, len(origins))
		copy(c.corsOrigins, origins)
	}
}

// WithRecordLimit sets the default listing limit.
func WithRecordLimit(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.recordLimit = n
		}
	}
}

// WithAIConfig sets the summary generation config.
func WithAIConfig(a AIConfig) AppConfigOption {
	return func(c *AppConfig) { c.ai = a }
}

// WithGitHubConfig sets the source hosting config.
func WithGitHubConfig(g GitHubConfig) AppConfigOption {
	return func(c *AppConfig) { c.github = g }
}

// NewAppConfigWithOptions creates an AppConfig with functional options.
func NewAppConfigWithOptions(opts ...AppConfigOption) AppConfig {
	c := NewAppConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Apply returns a new AppConfig with the given options applied.
func (c AppConfig) Apply(opts ...AppConfigOption) AppConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// LogAttrs returns slog attributes for logging the configuration.
// Secrets are reported as presence flags or counts.
func (c AppConfig) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("data_dir", c.dataDir),
		slog.String("log_level", c.logLevel),
		slog.String("db_url", c.maskedDBURL()),
		slog.String("ai_provider", string(c.ai.Provider())),
		slog.String("ai_models", strings.Join(c.ai.Models(), ",")),
		slog.Bool("ai_configured", c.ai.IsConfigured()),
		slog.Duration("ai_min_interval", c.ai.MinInterval()),
		slog.Bool("ai_cache", c.ai.CacheDir() != ""),
		slog.Bool("github_token_set", c.github.Token() != ""),
		slog.Int("api_keys_count", len(c.apiKeys)),
		slog.Int("cors_origins_count", len(c.corsOrigins)),
	}
}

func (c AppConfig) maskedDBURL() string {
	if c.dbURL == "" {
		return "(default)"
	}
	if strings.HasPrefix(c.dbURL, "sqlite:") {
		return c.dbURL
	}
	return "postgres://***@***"
}

// ParseList parses a comma-separated string, dropping blanks.
func ParseList(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
