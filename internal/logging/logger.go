// Package logging builds the structured logger used across the application.
// The terminal belongs to the panel, so logs only go to a file when one is
// configured and are discarded otherwise.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// ParseLevel maps debug, info, warn and error onto slog levels. Anything else is info.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New creates a text logger writing to w
func New(w io.Writer, level string) *slog.Logger {
	lvl := ParseLevel(level)
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl <= slog.LevelDebug,
	})
	return slog.New(handler)
}

// NewFileLogger creates a logger appending to path. An empty path discards
// all output. The returned close function must be called on shutdown.
func NewFileLogger(path, level string) (*slog.Logger, func() error, error) {
	if path == "" {
		return New(io.Discard, level), func() error { return nil }, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return New(f, level), f.Close, nil
}
