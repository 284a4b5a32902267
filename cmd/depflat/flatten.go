package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"depflat/internal/config"
	"depflat/internal/errors"
	"depflat/internal/flatten"
	"depflat/internal/output"
	"depflat/internal/reach"
	"depflat/internal/storage"
)

var (
	flattenEngine        engineFlags
	flattenOutput        string
	flattenToken         bool
	flattenIncludeImages bool
	flattenFormat        string
	flattenNoHistory     bool
)

var flattenCmd = &cobra.Command{
	Use:   "flatten [entry...]",
	Short: "Flatten entry files and everything they import",
	Long: `Follow imports from the entry files and write every reachable file into one
flat document. Entries are repository-relative paths; without arguments the
config's files list and bundles are used.

Output paths ending in .gz or .zst are compressed.

Examples:
  depflat flatten src/main/java/com/acme/App.java
  depflat flatten --depth 2 --token App.java Util.java
  depflat flatten --language typescript --output ui.txt.zst src/index.ts`,
	RunE: runFlatten,
}

func init() {
	flattenEngine.register(flattenCmd)
	flattenCmd.Flags().StringVarP(&flattenOutput, "output", "o", "", "Output file (default from config)")
	flattenCmd.Flags().BoolVar(&flattenToken, "token", false, "Estimate tokens of the emitted files")
	flattenCmd.Flags().BoolVar(&flattenIncludeImages, "include-images", false, "Emit a placeholder section for image files")
	flattenCmd.Flags().StringVar(&flattenFormat, "format", "human", "Report format (human, json)")
	flattenCmd.Flags().BoolVar(&flattenNoHistory, "no-history", false, "Do not record the run in the index database")
	rootCmd.AddCommand(flattenCmd)
}

// flattenReport is printed with --format json.
type flattenReport struct {
	RunID   string         `json:"runId"`
	Targets []targetReport `json:"targets"`
}

type targetReport struct {
	Name        string            `json:"name"`
	Output      string            `json:"output"`
	Depth       string            `json:"depth"`
	Discoveries []reach.Discovery `json:"discoveries"`
	Skipped     []reach.Skip      `json:"skipped,omitempty"`
	Stats       reach.Stats       `json:"stats"`
	Written     int               `json:"written"`
	Tokens      int               `json:"tokens,omitempty"`
}

func runFlatten(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.Close()

	cfg := s.cfg
	flattenEngine.apply(cmd, cfg)
	if cmd.Flags().Changed("output") {
		cfg.Output = flattenOutput
	}
	if cmd.Flags().Changed("token") {
		cfg.TokenCount = flattenToken
	}
	if cmd.Flags().Changed("include-images") {
		cfg.IncludeImages = flattenIncludeImages
	}
	if len(args) > 0 {
		cfg.Files = args
		cfg.Bundles = nil
	}
	if err := validate(cfg); err != nil {
		return err
	}

	targets := cfg.Targets()
	if len(targets) == 0 {
		return errors.New(errors.EntriesEmpty, "no entry files given", nil)
	}

	ws, err := openWorkspace(cfg, s.logger)
	if err != nil {
		return err
	}

	var store *storage.DB
	if !flattenNoHistory {
		if store, err = openStore(ws.root, cfg, s.logger); err != nil {
			s.logger.Warn("Run history disabled", "error", err.Error())
			store = nil
		} else {
			defer func() { _ = store.Close() }()
		}
	}

	report := flattenReport{RunID: s.runID}
	for _, t := range targets {
		started := time.Now()
		tr, err := flattenTarget(cmd, s, ws, t)
		if err != nil {
			return err
		}
		report.Targets = append(report.Targets, *tr)

		if store != nil {
			recordRun(s, store, t, tr, started)
		}
	}
	s.logger.Debug("Extraction cache", "entries", ws.cache.Len(), "hits", ws.cache.Hits(), "misses", ws.cache.Misses())

	if flattenFormat == "json" {
		data, err := output.DeterministicEncodeIndented(report, "  ")
		if err != nil {
			return errors.New(errors.InternalError, "cannot encode report", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	printFlattenHuman(cmd.OutOrStdout(), cfg, report)
	return nil
}

func flattenTarget(cmd *cobra.Command, s *session, ws *workspace, t config.Target) (*targetReport, error) {
	logger := s.logger
	if t.Name != "default" {
		logger = logger.With("target", t.Name)
	}

	eng, err := ws.engine(t.Depth, logger)
	if err != nil {
		return nil, err
	}
	res, err := eng.Run(cmd.Context(), ws.entries(t.Files, s.logger))
	if err != nil {
		return nil, err
	}

	agg := flatten.NewAggregator(ws.fs, flatten.Options{
		CountTokens:   ws.cfg.TokenCount,
		IncludeImages: ws.cfg.IncludeImages,
		Logger:        logger,
	})
	sum, err := agg.WriteFile(cmd.Context(), afero.NewOsFs(), t.Output, flatten.Paths(res.Paths()))
	if err != nil {
		return nil, errors.New(errors.OutputFailed, fmt.Sprintf("cannot write %s", t.Output), err)
	}

	if ws.cfg.TokenCount {
		logger.Info("Flatten complete", "output", t.Output, "discovered", res.Stats.Discovered, "tokens", sum.Tokens)
	} else {
		logger.Info("Flatten complete", "output", t.Output, "discovered", res.Stats.Discovered)
	}

	return &targetReport{
		Name:        t.Name,
		Output:      t.Output,
		Depth:       t.Depth,
		Discoveries: res.Discoveries,
		Skipped:     res.Skipped,
		Stats:       res.Stats,
		Written:     sum.Written,
		Tokens:      sum.Tokens,
	}, nil
}

// recordRun stores the run in the history table. Failures only warn.
func recordRun(s *session, store *storage.DB, t config.Target, tr *targetReport, started time.Time) {
	_, err := store.RecordRun(storage.Run{
		ID:         s.runID + ":" + t.Name,
		StartedAt:  started,
		Target:     t.Name,
		Language:   s.cfg.Language,
		Entries:    t.Files,
		Depth:      t.Depth,
		Discovered: tr.Stats.Discovered,
		Tokens:     tr.Tokens,
		Output:     t.Output,
	})
	if err != nil {
		s.logger.Warn("Could not record run", "target", t.Name, "error", err.Error())
	}
}

func printFlattenHuman(w io.Writer, cfg *config.Config, report flattenReport) {
	for _, t := range report.Targets {
		line := fmt.Sprintf("%s: %d files discovered, %d written to %s", t.Name, t.Stats.Discovered, t.Written, t.Output)
		if cfg.TokenCount {
			line += fmt.Sprintf(" (estimated %d tokens)", t.Tokens)
		}
		fmt.Fprintln(w, line)
	}
}
