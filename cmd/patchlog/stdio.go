package main

import (
	"fmt"
	"log/slog"

	"github.com/helixml/patchlog/internal/log"
	"github.com/helixml/patchlog/internal/mcp"
	"github.com/spf13/cobra"
)

func stdioCmd() *cobra.Command {
	var (
		envFile string
		user    string
	)

	cmd := &cobra.Command{
		Use:   "stdio",
		Short: "Start MCP server on stdio",
		Long: `Start the MCP (Model Context Protocol) server on stdio.

This lets AI assistants list and read change records, compute diff
statistics and draft summaries. Records are read as the user named by
--user. Configuration is loaded from environment variables and .env file.
Logs go to stderr.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStdio(envFile, user)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")
	cmd.Flags().StringVar(&user, "user", mcp.DefaultUser, "User whose records are exposed")

	return cmd
}

func runStdio(envFile, user string) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}

	logger := log.NewLogger(cfg)
	logger.SetDefault()
	slogger := logger.Slog()

	slogger.Info("starting MCP server",
		slog.String("version", version),
		slog.String("data_dir", cfg.DataDir()),
		slog.String("user", user),
	)

	client, err := newClient(cfg, slogger)
	if err != nil {
		return fmt.Errorf("create patchlog client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			slogger.Error("failed to close patchlog client", slog.Any("error", err))
		}
	}()

	mcpServer := mcp.NewServer(client.Records, client.Summarizer, version, slogger).
		WithDefaultUser(user)

	return mcpServer.ServeStdio()
}
