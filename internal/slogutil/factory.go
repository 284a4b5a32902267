package slogutil

import (
	"io"
	"log/slog"
	"os"

	"depflat/internal/config"
)

// LoggerFactory builds the diagnostics logger for a CLI invocation.
// Precedence for the level: --quiet > -v > config logging.level.
type LoggerFactory struct {
	config    config.LoggingConfig
	verbosity int
	quiet     bool
	format    string
	file      string
	stderr    io.Writer
	closers   []io.Closer
}

// NewLoggerFactory creates a factory. Empty format/file fall back to the config values.
func NewLoggerFactory(cfg config.LoggingConfig, verbosity int, quiet bool, format, file string) *LoggerFactory {
	if format == "" {
		format = cfg.Format
	}
	if file == "" {
		file = cfg.File
	}
	return &LoggerFactory{
		config:    cfg,
		verbosity: verbosity,
		quiet:     quiet,
		format:    format,
		file:      file,
		stderr:    os.Stderr,
	}
}

// Level returns the effective console level.
func (f *LoggerFactory) Level() slog.Level {
	return LevelFromVerbosity(f.verbosity, f.quiet, LevelFromString(f.config.Level))
}

// Logger returns the console logger, teed into the log file when one is configured.
// A log file that cannot be opened is reported on the console and skipped.
func (f *LoggerFactory) Logger() *slog.Logger {
	level := f.Level()

	var console slog.Handler
	if f.format == "json" {
		console = slog.NewJSONHandler(f.stderr, &slog.HandlerOptions{Level: level})
	} else {
		console = NewTextHandler(f.stderr, &TextOptions{Level: level})
	}

	if f.file == "" {
		return slog.New(console)
	}

	fileHandler, file, err := NewFileHandler(f.file, slog.LevelDebug)
	if err != nil {
		logger := slog.New(console)
		logger.Warn("Cannot open log file", "path", f.file, "error", err.Error())
		return logger
	}
	f.closers = append(f.closers, file)
	return slog.New(NewTeeHandler(console, fileHandler))
}

// Close closes all open log files.
func (f *LoggerFactory) Close() error {
	var firstErr error
	for _, c := range f.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	f.closers = nil
	return firstErr
}
