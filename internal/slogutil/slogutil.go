package slogutil

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LevelSilent is above every standard level and suppresses all output.
const LevelSilent = slog.Level(100)

// NewLogger creates a new slog.Logger using the line-oriented text format.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(NewTextHandler(w, &TextOptions{Level: level}))
}

// NewFileHandler opens path in append mode and returns a text handler writing to it.
// The caller owns the returned file.
func NewFileHandler(path string, level slog.Level) (slog.Handler, *os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, err
	}
	return NewTextHandler(f, &TextOptions{Level: level}), f, nil
}

// NewDiscardLogger creates a logger that discards all output.
// Useful for tests or when logging should be completely suppressed.
func NewDiscardLogger() *slog.Logger {
	return slog.New(NewTextHandler(io.Discard, &TextOptions{Level: LevelSilent}))
}

// LevelFromString converts a string to a slog.Level.
// Supports: debug, info, warn, error (case-insensitive).
// Returns slog.LevelInfo for unrecognized strings.
func LevelFromString(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LevelFromVerbosity converts CLI verbosity flags to a slog.Level.
// - quiet=true: returns a level that suppresses all logs
// - verbosity=0: fallback
// - verbosity=1: debug
func LevelFromVerbosity(verbosity int, quiet bool, fallback slog.Level) slog.Level {
	if quiet {
		return LevelSilent
	}
	if verbosity > 0 {
		return slog.LevelDebug
	}
	return fallback
}

// TeeHandler writes logs to multiple handlers.
type TeeHandler struct {
	handlers []slog.Handler
}

// NewTeeHandler creates a handler that writes to all provided handlers.
func NewTeeHandler(handlers ...slog.Handler) *TeeHandler {
	return &TeeHandler{handlers: handlers}
}

// Enabled returns true if any handler is enabled for the level.
func (t *TeeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle writes the record to all handlers.
func (t *TeeHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range t.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// WithAttrs returns a new TeeHandler with attributes added to all handlers.
func (t *TeeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &TeeHandler{handlers: next}
}

// WithGroup returns a new TeeHandler with the group added to all handlers.
func (t *TeeHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		next[i] = h.WithGroup(name)
	}
	return &TeeHandler{handlers: next}
}
