package main

import (
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"depflat/internal/config"
	"depflat/internal/errors"
	"depflat/internal/slogutil"
	"depflat/internal/version"
)

var (
	configPath string
	verbosity  int
	quiet      bool
	logFormat  string
	logFile    string
)

// activeLogger is the logger of the running command, used to report its
// failure after Execute returns.
var activeLogger *slog.Logger

var rootCmd = &cobra.Command{
	Use:   "depflat",
	Short: "depflat - flatten a file and its imports into one document",
	Long: `depflat follows the import statements of one or more entry files through a
repository and concatenates every reachable file into a single flat text
document, ready to paste into an LLM prompt.

Java, Kotlin, JavaScript and TypeScript imports are understood. Files matching
.repoignore patterns are never emitted and their imports are never followed.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("depflat version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default .depflat.{yaml,json,toml} in the working directory)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress all log output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: human or json (default from config)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also append debug logs to this file")
}

// session carries what every command needs: the loaded configuration and a
// logger tagged with a fresh run id.
type session struct {
	cfg     *config.Config
	logger  *slog.Logger
	factory *slogutil.LoggerFactory
	runID   string
}

func newSession() (*session, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, errors.New(errors.ConfigInvalid, "cannot load configuration", err)
	}

	factory := slogutil.NewLoggerFactory(cfg.Logging, verbosity, quiet, logFormat, logFile)
	runID := uuid.NewString()
	logger := factory.Logger().With("run", runID)
	activeLogger = logger

	if configPath != "" {
		logger.Debug("Loaded configuration", "path", configPath)
	}
	return &session{cfg: cfg, logger: logger, factory: factory, runID: runID}, nil
}

func (s *session) Close() {
	_ = s.factory.Close()
}

// currentLogger returns the running command's logger, or a plain stderr
// logger when the command failed before creating one.
func currentLogger() *slog.Logger {
	if activeLogger != nil {
		return activeLogger
	}
	level := slogutil.LevelFromVerbosity(verbosity, quiet, slog.LevelInfo)
	return slogutil.NewLogger(os.Stderr, level)
}
