// Package logging builds the structured loggers used across labourstat on top
// of log/slog, and carries them through a context.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel maps debug, info, warn and error to a slog level. Anything else
// is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// New creates a logger writing to w. format is "json" or "text" (default).
func New(w io.Writer, format string, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: level,
		// Source locations only at debug level.
		AddSource: level <= slog.LevelDebug,
	}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// NewLogger creates a JSON logger on stderr. The level comes from LOG_LEVEL.
func NewLogger() *slog.Logger {
	return New(os.Stderr, "json", ParseLevel(os.Getenv("LOG_LEVEL")))
}

// NewTextLogger creates a human-readable logger on stderr. The level comes
// from LOG_LEVEL.
func NewTextLogger() *slog.Logger {
	return New(os.Stderr, "text", ParseLevel(os.Getenv("LOG_LEVEL")))
}

// FromEnv picks NewLogger or NewTextLogger by LOG_FORMAT. verbose forces the
// debug level.
func FromEnv(verbose bool) *slog.Logger {
	level := ParseLevel(os.Getenv("LOG_LEVEL"))
	if verbose {
		level = slog.LevelDebug
	}
	return New(os.Stderr, os.Getenv("LOG_FORMAT"), level)
}

// WithFields returns a new logger with additional structured fields.
func WithFields(logger *slog.Logger, fields map[string]any) *slog.Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return logger.With(args...)
}

// FromContext retrieves the logger from the context, or returns the default
// logger if not found.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

type contextKey string

const loggerContextKey contextKey = "logger"
