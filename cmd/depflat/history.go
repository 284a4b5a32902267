package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"depflat/internal/errors"
	"depflat/internal/output"
)

var (
	historyRepo   string
	historyLimit  int
	historyFormat string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded flatten runs",
	Long: `Show the flatten runs recorded in the index database, newest first.

Examples:
  depflat history
  depflat history -n 5 --format json`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historyRepo, "repo", "", "Repository root (default from config)")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to show (0 for all)")
	historyCmd.Flags().StringVar(&historyFormat, "format", "human", "Output format (human, json)")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.Close()

	cfg := s.cfg
	if cmd.Flags().Changed("repo") {
		cfg.Repo = historyRepo
	}
	root, _, err := openRepo(cfg.Repo)
	if err != nil {
		return err
	}
	store, err := openStore(root, cfg, s.logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runs, err := store.ListRuns(historyLimit)
	if err != nil {
		return errors.New(errors.StorageFailed, "cannot read run history", err)
	}

	w := cmd.OutOrStdout()
	if historyFormat == "json" {
		data, err := output.DeterministicEncodeIndented(runs, "  ")
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	fmt.Fprintf(w, "%-20s  %-12s  %-6s  %10s  %8s  %s\n", "STARTED", "TARGET", "DEPTH", "DISCOVERED", "TOKENS", "ENTRIES")
	fmt.Fprintln(w, strings.Repeat("─", 78))
	for _, r := range runs {
		fmt.Fprintf(w, "%-20s  %-12s  %-6s  %10d  %8d  %s\n",
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Target, r.Depth, r.Discovered, r.Tokens, strings.Join(r.Entries, " "))
	}
	return nil
}
