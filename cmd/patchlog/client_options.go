package main

import (
	"log/slog"

	"github.com/helixml/patchlog"
	"github.com/helixml/patchlog/internal/config"
)

// clientOptions translates loaded configuration into client options.
func clientOptions(cfg config.AppConfig, logger *slog.Logger) []patchlog.Option {
	opts := []patchlog.Option{
		patchlog.WithDataDir(cfg.DataDir()),
		patchlog.WithDatabaseURL(cfg.DBURL()),
		patchlog.WithLogger(logger),
		patchlog.WithAIConfig(cfg.AI()),
		patchlog.WithRecordLimit(cfg.RecordLimit()),
	}

	if gh := cfg.GitHub(); gh.Token() != "" || gh.BaseURL() != "" {
		opts = append(opts, patchlog.WithGitHub(gh.Token(), gh.BaseURL()))
	}
	if keys := cfg.APIKeys(); len(keys) > 0 {
		opts = append(opts, patchlog.WithAPIKeys(keys...))
	}

	return opts
}

// newClient builds a client from configuration, creating the data directory first.
func newClient(cfg config.AppConfig, logger *slog.Logger) (*patchlog.Client, error) {
	if err := cfg.EnsureDataDir(); err != nil {
		return nil, err
	}
	return patchlog.New(clientOptions(cfg, logger)...)
}
