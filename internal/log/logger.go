// Package log builds the service's slog loggers and carries request
// identity (correlation ID, request ID, user) through contexts.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/helixml/patchlog/internal/config"
)

// Logger owns the configured handler chain.
type Logger struct {
	handler slog.Handler
	logger  *slog.Logger
}

// NewLogger creates a Logger from configuration. Output goes to stderr so
// the stdio transport owns stdout.
func NewLogger(cfg config.AppConfig) *Logger {
	return NewLoggerWithWriter(os.Stderr, cfg.LogFormat(), cfg.LogLevel())
}

// NewLoggerWithWriter creates a Logger that writes to w. Records logged
// with a context pick up the identity stored by WithCorrelationID,
// WithRequestID and WithUser.
func NewLoggerWithWriter(w io.Writer, format config.LogFormat, level string) *Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var base slog.Handler
	if format == config.LogFormatJSON {
		base = slog.NewJSONHandler(w, opts)
	} else {
		base = newTerminalHandler(w, opts)
	}

	handler := contextHandler{Handler: base}
	return &Logger{handler: handler, logger: slog.New(handler)}
}

func parseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Handler returns the handler chain.
func (l *Logger) Handler() slog.Handler { return l.handler }

// Slog returns the slog.Logger used throughout the service.
func (l *Logger) Slog() *slog.Logger { return l.logger }

// SetDefault installs the logger as slog's default, which is also where
// SQL tracing is sent.
func (l *Logger) SetDefault() { slog.SetDefault(l.logger) }
