package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds all environment-based configuration.
// Nested structs use underscore delimiter (e.g., AI_MIN_INTERVAL_MS).
type EnvConfig struct {
	// Host is the server host to bind to.
	// Env: HOST (default: 0.0.0.0)
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	// Port is the server port to listen on.
	// Env: PORT (default: 8080)
	Port int `envconfig:"PORT" default:"8080"`

	// DataDir is the data directory path.
	// Env: DATA_DIR
	// Default: ~/.patchlog
	DataDir string `envconfig:"DATA_DIR"`

	// DBURL is the database connection URL.
	// Env: DB_URL
	// Default: sqlite:///{data_dir}/patchlog.db
	DBURL string `envconfig:"DB_URL"`

	// LogLevel is the log verbosity level.
	// Env: LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (pretty or json).
	// Env: LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// APIKeys is a comma-separated list of user:key entries.
	// Env: API_KEYS
	APIKeys string `envconfig:"API_KEYS"`

	// CORSOrigins is a comma-separated list of allowed browser origins.
	// Env: CORS_ORIGINS
	CORSOrigins string `envconfig:"CORS_ORIGINS"`

	// RecordLimit is the default number of records returned by a listing.
	// Env: RECORD_LIMIT (default: 50)
	RecordLimit int `envconfig:"RECORD_LIMIT" default:"50"`

	// GoogleAPIKey is the Gemini credential.
	// Env: GOOGLE_API_KEY
	GoogleAPIKey string `envconfig:"GOOGLE_API_KEY"`

	// OpenAIAPIKey is the credential used when AI_PROVIDER=openai.
	// Env: OPENAI_API_KEY
	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`

	// AI configures summary generation.
	AI AIEnv `envconfig:"AI"`

	// GitHub configures the source hosting API.
	GitHub GitHubEnv `envconfig:"GITHUB"`
}

// AIEnv holds environment configuration for summary generation.
type AIEnv struct {
	// Provider is gemini or openai.
	// Env: AI_PROVIDER (default: gemini)
	Provider string `envconfig:"PROVIDER" default:"gemini"`

	// Models is a comma-separated ordered list of candidate models.
	// Env: AI_MODELS
	Models string `envconfig:"MODELS"`

	// BaseURL overrides the provider endpoint.
	// Env: AI_BASE_URL
	BaseURL string `envconfig:"BASE_URL"`

	// Timeout is the per-call timeout in seconds.
	// Env: AI_TIMEOUT (default: 60)
	Timeout float64 `envconfig:"TIMEOUT" default:"60"`

	// MinIntervalMS is the minimum spacing between calls in milliseconds.
	// Env: AI_MIN_INTERVAL_MS (default: 1200)
	MinIntervalMS int `envconfig:"MIN_INTERVAL_MS" default:"1200"`

	// Temperature is the sampling temperature.
	// Env: AI_TEMPERATURE (default: 0.2)
	Temperature float64 `envconfig:"TEMPERATURE" default:"0.2"`

	// CacheDir stores successful model responses on disk when set.
	// Env: AI_CACHE_DIR
	CacheDir string `envconfig:"CACHE_DIR"`
}

// GitHubEnv holds environment configuration for GitHub access.
type GitHubEnv struct {
	// Token is the default personal access token.
	// Env: GITHUB_TOKEN
	Token string `envconfig:"TOKEN"`

	// BaseURL points at a GitHub Enterprise API.
	// Env: GITHUB_BASE_URL
	BaseURL string `envconfig:"BASE_URL"`
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// LoadFromEnvWithPrefix loads configuration with a custom prefix.
// For example, prefix "PATCHLOG" would require PATCHLOG_PORT instead of PORT.
func LoadFromEnvWithPrefix(prefix string) (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// ToAppConfig converts EnvConfig to AppConfig.
func (e EnvConfig) ToAppConfig() AppConfig {
	cfg := NewAppConfig()

	if e.Host != "" {
		cfg = applyOption(cfg, WithHost(e.Host))
	}
	if e.Port != 0 {
		cfg = applyOption(cfg, WithPort(e.Port))
	}
	if e.DataDir != "" {
		cfg = applyOption(cfg, WithDataDir(e.DataDir))
	}
	if e.DBURL != "" {
		cfg = applyOption(cfg, WithDBURL(e.DBURL))
	}
	if e.LogLevel != "" {
		cfg = applyOption(cfg, WithLogLevel(e.LogLevel))
	}
	if e.LogFormat != "" {
		cfg = applyOption(cfg, WithLogFormat(parseLogFormat(e.LogFormat)))
	}
	if e.APIKeys != "" {
		cfg = applyOption(cfg, WithAPIKeys(ParseList(e.APIKeys)))
	}
	if e.CORSOrigins != "" {
		cfg = applyOption(cfg, WithCORSOrigins(ParseList(e.CORSOrigins)))
	}
	cfg = applyOption(cfg, WithRecordLimit(e.RecordLimit))
	cfg = applyOption(cfg, WithAIConfig(e.toAIConfig()))
	cfg = applyOption(cfg, WithGitHubConfig(NewGitHubConfig(e.GitHub.Token, e.GitHub.BaseURL)))

	return cfg
}

func (e EnvConfig) toAIConfig() AIConfig {
	provider := parseProvider(e.AI.Provider)

	key := e.GoogleAPIKey
	if provider == ProviderOpenAI {
		key = e.OpenAIAPIKey
	}

	return NewAIConfigWithOptions(
		WithProvider(provider),
		WithAPIKey(key),
		WithBaseURL(e.AI.BaseURL),
		WithModels(ParseList(e.AI.Models)),
		WithTimeout(time.Duration(e.AI.Timeout*float64(time.Second))),
		WithMinInterval(time.Duration(e.AI.MinIntervalMS)*time.Millisecond),
		WithTemperature(e.AI.Temperature),
		WithCacheDir(e.AI.CacheDir),
	)
}

// applyOption applies an option to the config.
func applyOption(cfg AppConfig, opt AppConfigOption) AppConfig {
	opt(&cfg)
	return cfg
}

// parseLogFormat parses a log format string.
func parseLogFormat(s string) LogFormat {
	switch strings.ToLower(s) {
	case "json":
		return LogFormatJSON
	default:
		return LogFormatPretty
	}
}

// parseProvider parses an AI provider name, defaulting to Gemini.
func parseProvider(s string) AIProvider {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "openai":
		return ProviderOpenAI
	default:
		return ProviderGemini
	}
}
