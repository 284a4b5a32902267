package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"depflat/internal/errors"
	"depflat/internal/output"
	"depflat/internal/scan"
	"depflat/internal/storage"
)

var (
	scanRepo       string
	scanIgnoreFile string
	scanToken      bool
	scanList       bool
	scanFormat     string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Index every text file of the repository",
	Long: `Walk the whole repository, skip ignored directories and files, and number
every remaining text file. The numbering is stored in the index database and
used by 'depflat extract'.

Examples:
  depflat scan --token
  depflat scan --list`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanRepo, "repo", "", "Repository root (default from config)")
	scanCmd.Flags().StringVar(&scanIgnoreFile, "ignore-file", "", "Ignore pattern file, relative to the repository")
	scanCmd.Flags().BoolVar(&scanToken, "token", false, "Estimate the total tokens of all indexed files")
	scanCmd.Flags().BoolVar(&scanList, "list", false, "Print the index as ID<TAB>path lines")
	scanCmd.Flags().StringVar(&scanFormat, "format", "human", "Output format (human, json)")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.Close()

	cfg := s.cfg
	if cmd.Flags().Changed("repo") {
		cfg.Repo = scanRepo
	}
	if cmd.Flags().Changed("ignore-file") {
		cfg.IgnoreFile = scanIgnoreFile
	}
	if cmd.Flags().Changed("token") {
		cfg.TokenCount = scanToken
	}

	root, fs, err := openRepo(cfg.Repo)
	if err != nil {
		return err
	}
	rules, err := loadRules(root, cfg.IgnoreFile, s.logger)
	if err != nil {
		return err
	}

	res, err := scan.New(fs, scan.Options{Rules: rules, CountTokens: cfg.TokenCount, Logger: s.logger}).Scan(cmd.Context())
	if err != nil {
		return err
	}

	store, err := openStore(root, cfg, s.logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	files := make([]storage.IndexedFile, len(res.Files))
	for i, f := range res.Files {
		files[i] = storage.IndexedFile{Path: f.Path, Tokens: f.Tokens}
	}
	indexed, err := store.ReplaceIndex(files, time.Now())
	if err != nil {
		return errors.New(errors.StorageFailed, "cannot store index", err)
	}
	s.logger.Info("Index written", "path", store.Path(), "entries", len(indexed))

	w := cmd.OutOrStdout()
	if scanFormat == "json" {
		data, err := output.DeterministicEncodeIndented(struct {
			Index  string                `json:"index"`
			Files  []storage.IndexedFile `json:"files"`
			Tokens int                   `json:"tokens,omitempty"`
			Result *scan.Result          `json:"scan"`
		}{store.Path(), indexed, res.Tokens, res}, "  ")
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}

	if scanList {
		for _, f := range indexed {
			fmt.Fprintf(w, "%d\t%s\n", f.ID, f.Path)
		}
	}
	fmt.Fprintf(w, "Index %s has been created with %d entries.\n", store.Path(), len(indexed))
	if cfg.TokenCount {
		fmt.Fprintf(w, "Estimated total tokens across all text files: %d\n", res.Tokens)
	}
	return nil
}
