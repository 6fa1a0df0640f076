// Package patchlog records code changes shipped to deployment environments.
//
// Each record carries a unified diff from which line and file statistics are
// derived, plus an optional AI-generated summary, tags and risk analysis.
//
// Basic usage:
//
//	client, err := patchlog.New(
//	    patchlog.WithSQLite(".patchlog/patchlog.db"),
//	    patchlog.WithGemini(os.Getenv("GOOGLE_API_KEY")),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Summarise a diff
//	result, err := client.Summarizer.Generate(ctx, diff, "")
//
//	// Store a record
//	rec, err := client.Records.Create(ctx, "alice", record.Draft{
//	    Environment: "DEV",
//	    Branch:      "feature/login",
//	    TaskID:      "JIRA-42",
//	    Title:       "Add login form",
//	    Diff:        diff,
//	    Summary:     result.Summary,
//	    Tags:        result.Tags,
//	})
package patchlog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/helixml/patchlog/application/service"
	"github.com/helixml/patchlog/infrastructure/github"
	"github.com/helixml/patchlog/infrastructure/persistence"
	"github.com/helixml/patchlog/internal/config"
	"github.com/helixml/patchlog/internal/database"
)

// Client is the main entry point for the patchlog library.
//
// Access resources via struct fields:
//
//	client.Records.List(ctx, user, record.NewFilter())
//	client.Summarizer.Generate(ctx, diff, context)
type Client struct {
	Records    *service.Records
	Summarizer *service.Summarizer
	Importer   *service.Importer
	GitHub     github.Factory

	db      database.Database
	closers []io.Closer

	logger  *slog.Logger
	dataDir string
	apiKeys []string
	ai      config.AIConfig
	closed  atomic.Bool
	mu      sync.Mutex
}

// New creates a new Client with the given options.
func New(opts ...Option) (*Client, error) {
	cfg := newClientConfig()

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.database == databaseUnset {
		return nil, ErrNoDatabase
	}

	logger := cfg.logger
	if logger == nil {
		logger = config.DefaultLogger()
	}

	dataDir, err := config.PrepareDataDir(cfg.dataDir)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	dbURL, err := buildDatabaseURL(cfg)
	if err != nil {
		return nil, fmt.Errorf("build database url: %w", err)
	}

	db, err := database.NewDatabase(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := persistence.AutoMigrate(db); err != nil {
		errClose := db.Close()
		return nil, errors.Join(fmt.Errorf("auto migrate: %w", err), errClose)
	}

	if err := persistence.ValidateSchema(db); err != nil {
		errClose := db.Close()
		return nil, errors.Join(fmt.Errorf("validate schema: %w", err), errClose)
	}

	generator := cfg.textProvider
	if generator == nil {
		generator, err = buildTextProvider(ctx, cfg.ai)
		if err != nil {
			errClose := db.Close()
			return nil, errors.Join(fmt.Errorf("text provider: %w", err), errClose)
		}
	}
	if generator == nil {
		logger.Warn("no AI credential configured, summaries will be simulated")
	}

	client := &Client{
		Records:    service.NewRecords(persistence.NewRecordStore(db), cfg.recordLimit, logger),
		Summarizer: service.NewSummarizer(cfg.ai, generator, logger),
		Importer:   service.NewImporter(logger),
		GitHub:     github.NewFactory(cfg.github.Token(), cfg.github.BaseURL(), logger),
		db:         db,
		closers:    cfg.closers,
		logger:     logger,
		dataDir:    dataDir,
		apiKeys:    cfg.apiKeys,
		ai:         cfg.ai,
	}

	logger.Info("patchlog client ready",
		slog.String("data_dir", dataDir),
		slog.Bool("ai_configured", generator != nil),
		slog.String("ai_provider", string(cfg.ai.Provider())),
	)
	return client, nil
}

// Close releases all resources.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClientClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			c.logger.Error("failed to close resource", slog.Any("error", err))
		}
	}

	if err := c.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}

	c.logger.Info("patchlog client closed")
	return nil
}

// Logger returns the client's logger.
func (c *Client) Logger() *slog.Logger {
	return c.logger
}

// APIKeys returns the configured API key entries.
func (c *Client) APIKeys() []string {
	return append([]string(nil), c.apiKeys...)
}

// DataDir returns the data directory.
func (c *Client) DataDir() string {
	return c.dataDir
}

// AI returns the summary generation configuration.
func (c *Client) AI() config.AIConfig {
	return c.ai
}
