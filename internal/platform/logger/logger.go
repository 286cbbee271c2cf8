// Package logger provides structured logging functionality for the application.
package logger

import (
	"io"
	"log/slog"
	"strings"

	"github.com/phrazzld/medinodus/internal/config"
)

// ParseLevel converts a configured level name (case-insensitive) to a slog.Level.
// The second result is false when the name is not recognised.
func ParseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// New creates a JSON logger writing to w at the configured level.
// An invalid level falls back to info and is reported through the new logger.
func New(w io.Writer, cfg config.ClientConfig) *slog.Logger {
	level, ok := ParseLevel(cfg.LogLevel)

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(handler)

	if !ok {
		logger.Warn("invalid log level configured, using default level",
			"configured_level", cfg.LogLevel,
			"default_level", "info")
	}
	return logger
}

// Setup initializes the application's logging system based on the provided
// configuration. It creates a structured JSON logger on w (the CLI passes
// stderr; stdout is reserved for command output), sets it as the default
// logger, and returns it.
func Setup(w io.Writer, cfg config.ClientConfig) (*slog.Logger, error) {
	logger := New(w, cfg)
	slog.SetDefault(logger)
	return logger, nil
}
