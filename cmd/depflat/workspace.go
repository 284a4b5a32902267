package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"depflat/internal/config"
	"depflat/internal/errors"
	"depflat/internal/ignore"
	"depflat/internal/imports"
	"depflat/internal/paths"
	"depflat/internal/reach"
	"depflat/internal/resolve"
	"depflat/internal/storage"
)

// engineFlags are the config overrides shared by flatten and graph.
type engineFlags struct {
	repo       string
	sourceRoot string
	language   string
	depth      string
	ignoreFile string
	extractor  string
	includeCSS bool
	workers    int
}

func (f *engineFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.repo, "repo", "", "Repository root")
	flags.StringVar(&f.sourceRoot, "source-root", "", "Root of dotted package paths (Java default: src/main/java)")
	flags.StringVar(&f.language, "language", "", "Import syntax: java, kotlin, javascript or typescript")
	flags.StringVar(&f.depth, "depth", "", "Import hops to follow, or \"all\"")
	flags.StringVar(&f.ignoreFile, "ignore-file", "", "Ignore pattern file, relative to the repository")
	flags.StringVar(&f.extractor, "extractor", "", "Java import extractor: lexical or treesitter")
	flags.BoolVar(&f.includeCSS, "include-css", false, "Follow style sheet imports")
	flags.IntVar(&f.workers, "workers", 0, "Files extracted in parallel per level")
}

// apply copies every flag the user set into cfg.
func (f *engineFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("repo") {
		cfg.Repo = f.repo
	}
	if flags.Changed("source-root") {
		cfg.SourceRoot = f.sourceRoot
	}
	if flags.Changed("language") {
		cfg.Language = f.language
	}
	if flags.Changed("depth") {
		cfg.Depth = f.depth
	}
	if flags.Changed("ignore-file") {
		cfg.IgnoreFile = f.ignoreFile
	}
	if flags.Changed("extractor") {
		cfg.Extractor = f.extractor
	}
	if flags.Changed("include-css") {
		cfg.IncludeCSS = f.includeCSS
	}
	if flags.Changed("workers") {
		cfg.Workers = f.workers
	}
}

func validate(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return errors.New(errors.ConfigInvalid, "invalid configuration", err)
	}
	return nil
}

// workspace is a repository opened for reachability runs. The extraction
// cache is shared by every engine it creates.
type workspace struct {
	cfg       *config.Config
	root      string
	fs        afero.Fs
	rules     *ignore.Rules
	resolver  *resolve.Resolver
	extractor imports.Extractor
	cache     *reach.Cache
}

// openRepo checks the repository root and returns it with a filesystem
// rooted there.
func openRepo(repo string) (string, afero.Fs, error) {
	root, err := filepath.Abs(repo)
	if err != nil {
		return "", nil, errors.New(errors.RepoInvalid, fmt.Sprintf("invalid repository path %q", repo), err)
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return "", nil, errors.New(errors.RepoInvalid, fmt.Sprintf("repository %q is not a directory", root), err)
	}
	return root, afero.NewBasePathFs(afero.NewOsFs(), root), nil
}

// loadRules reads the ignore file, relative to root unless absolute.
func loadRules(root, ignoreFile string, logger *slog.Logger) (*ignore.Rules, error) {
	if ignoreFile == "" {
		return &ignore.Rules{}, nil
	}
	path := ignoreFile
	if !filepath.IsAbs(path) {
		path = paths.JoinRepoPath(root, path)
	}
	rules, err := ignore.LoadRulesFile(path)
	if err != nil {
		return nil, errors.New(errors.ConfigInvalid, fmt.Sprintf("cannot read ignore file %s", path), err)
	}
	if rules.Len() > 0 {
		logger.Info("Loaded ignore patterns", "file", ignoreFile, "count", rules.Len())
		logger.Debug("Ignore patterns", "patterns", strings.Join(rules.Patterns(), " "))
	} else {
		logger.Debug("No ignore patterns", "file", ignoreFile)
	}
	return rules, nil
}

func openWorkspace(cfg *config.Config, logger *slog.Logger) (*workspace, error) {
	root, fs, err := openRepo(cfg.Repo)
	if err != nil {
		return nil, err
	}
	rules, err := loadRules(root, cfg.IgnoreFile, logger)
	if err != nil {
		return nil, err
	}

	sourceRoot := cfg.SourceRoot
	if sourceRoot == "" {
		sourceRoot = resolve.DefaultSourceRoot(fs, cfg.Language)
	}

	useTreeSitter := cfg.Extractor == config.ExtractorTreeSitter
	if useTreeSitter && !imports.Available() {
		logger.Warn("Tree-sitter extractor not built into this binary, using lexical extraction")
		useTreeSitter = false
	}

	cache, err := reach.NewCache(reach.DefaultCacheSize)
	if err != nil {
		return nil, errors.New(errors.InternalError, "cannot create extraction cache", err)
	}

	logger.Debug("Opened repository", "root", root, "language", cfg.Language, "source_root", sourceRoot)
	return &workspace{
		cfg:       cfg,
		root:      root,
		fs:        fs,
		rules:     rules,
		resolver:  resolve.New(fs, cfg.Language, sourceRoot, cfg.IncludeCSS),
		extractor: imports.New(cfg.Language, imports.Options{IncludeCSS: cfg.IncludeCSS, TreeSitter: useTreeSitter}),
		cache:     cache,
	}, nil
}

// entries rewrites absolute entry paths inside the repository to their
// repo-relative form. Anything else is passed through for the engine to
// judge.
func (w *workspace) entries(files []string, logger *slog.Logger) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f
		if lang := imports.LanguageFromPath(f); lang != "" && !sameSyntax(lang, w.cfg.Language) {
			logger.Warn("Entry file language differs from configured language",
				"path", f, "detected", lang, "language", w.cfg.Language)
		}
		if !filepath.IsAbs(f) || !paths.IsWithinRepo(f, w.root) {
			continue
		}
		if rel, err := paths.CanonicalizePath(f, w.root); err == nil {
			out[i] = rel
		}
	}
	return out
}

// sameSyntax reports whether files of language a can be walked with the
// extractor for b. JVM languages share package paths, and so do JavaScript
// and TypeScript.
func sameSyntax(a, b string) bool {
	family := func(l string) string {
		switch l {
		case config.LanguageJava, config.LanguageKotlin:
			return "jvm"
		case config.LanguageJavaScript, config.LanguageTypeScript:
			return "script"
		}
		return l
	}
	return family(a) == family(b)
}

// engine builds an engine for one depth setting.
func (w *workspace) engine(depth string, logger *slog.Logger) (*reach.Engine, error) {
	n, unbounded, err := config.ParseDepth(depth)
	if err != nil {
		return nil, errors.New(errors.ConfigInvalid, "invalid depth", err)
	}
	if unbounded {
		n = reach.Unbounded
	}
	return reach.New(reach.Options{
		Depth:     n,
		Workers:   w.cfg.Workers,
		Language:  w.cfg.Language,
		Rules:     w.rules,
		Extractor: w.extractor,
		Resolver:  w.resolver,
		Fs:        w.fs,
		Cache:     w.cache,
		Logger:    logger,
	}), nil
}

// indexPath locates the SQLite store, relative to the repository root
// unless absolute.
func indexPath(root string, cfg *config.Config) string {
	if filepath.IsAbs(cfg.Index.Path) {
		return cfg.Index.Path
	}
	return paths.JoinRepoPath(root, cfg.Index.Path)
}

func openStore(root string, cfg *config.Config, logger *slog.Logger) (*storage.DB, error) {
	db, err := storage.Open(indexPath(root, cfg), logger)
	if err != nil {
		return nil, errors.New(errors.StorageFailed, "cannot open index database", err)
	}
	return db, nil
}
