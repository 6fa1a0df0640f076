package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/helixml/patchlog/infrastructure/api"
	"github.com/helixml/patchlog/internal/config"
	"github.com/helixml/patchlog/internal/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func serveCmd() *cobra.Command {
	var (
		envFile string
		host    string
		port    int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. .env file (if --env-file specified or .env exists in current directory)
  3. Environment variables
  4. Command line flags

Environment variables:
  HOST                  Server host to bind to (default: 0.0.0.0)
  PORT                  Server port to listen on (default: 8080)
  DATA_DIR              Data directory (default: ~/.patchlog)
  DB_URL                Database URL (default: sqlite:///{data_dir}/patchlog.db)
  LOG_LEVEL             Log level: DEBUG, INFO, WARN, ERROR (default: INFO)
  LOG_FORMAT            Log format: pretty, json (default: pretty)
  API_KEYS              Comma-separated list of user:key entries
  CORS_ORIGINS          Comma-separated list of allowed browser origins
  RECORD_LIMIT          Default listing size (default: 50)

  GOOGLE_API_KEY        Gemini credential
  OPENAI_API_KEY        OpenAI credential (used when AI_PROVIDER=openai)
  AI_*                  Summary generation
    PROVIDER            gemini or openai (default: gemini)
    MODELS              Ordered candidate models
    BASE_URL            Provider endpoint override
    TIMEOUT             Per-call timeout in seconds (default: 60)
    MIN_INTERVAL_MS     Minimum spacing between calls (default: 1200)
    TEMPERATURE         Sampling temperature (default: 0.2)
    CACHE_DIR           On-disk response cache

  GITHUB_TOKEN          Default GitHub token
  GITHUB_BASE_URL       GitHub Enterprise API URL`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), envFile, host, port)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().StringVar(&host, "host", "", "Server host to bind to (default: 0.0.0.0)")
	cmd.Flags().IntVar(&port, "port", 0, "Server port to listen on (default: 8080)")

	return cmd
}

func runServe(parent context.Context, envFile, host string, port int) error {
	if parent == nil {
		parent = context.Background()
	}

	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	cfg = applyServeOverrides(cfg, host, port)

	logger := log.NewLogger(cfg)
	logger.SetDefault()
	slogger := logger.Slog()

	attrs := append([]slog.Attr{slog.String("version", version)}, cfg.LogAttrs()...)
	slogger.LogAttrs(parent, slog.LevelInfo, "starting patchlog", attrs...)

	client, err := newClient(cfg, slogger)
	if err != nil {
		return fmt.Errorf("create patchlog client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			slogger.Error("failed to close patchlog client", slog.Any("error", err))
		}
	}()

	server := api.NewAPIServer(client, cfg.APIKeys()).
		WithCORSOrigins(cfg.CORSOrigins()).
		WithVersion(version)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.ListenAndServe(cfg.Addr())
	})
	g.Go(func() error {
		<-ctx.Done()
		slogger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// applyServeOverrides applies command line flag overrides to the config.
func applyServeOverrides(cfg config.AppConfig, host string, port int) config.AppConfig {
	var opts []config.AppConfigOption

	if host != "" {
		opts = append(opts, config.WithHost(host))
	}
	if port != 0 {
		opts = append(opts, config.WithPort(port))
	}

	return cfg.Apply(opts...)
}
