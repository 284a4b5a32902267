// Package scan walks a whole repository and lists its text files, the
// input of the ID-based index used by extract.
package scan

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"depflat/internal/ignore"
	"depflat/internal/paths"
	"depflat/internal/slogutil"
	"depflat/internal/textload"
	"depflat/internal/tokens"
)

// File is one text file found by a scan.
type File struct {
	Path   string `json:"path"`
	Tokens int    `json:"tokens,omitempty"`
}

// Result lists the kept files in walk order.
type Result struct {
	Files        []File `json:"files"`
	Tokens       int    `json:"tokens"`
	SkippedDirs  int    `json:"skippedDirs"`
	SkippedFiles int    `json:"skippedFiles"`
	NonText      int    `json:"nonText"`
}

// Options configures a Scanner.
type Options struct {
	Rules *ignore.Rules

	// CountTokens reads and estimates every kept file.
	CountTokens bool
	Estimator   tokens.Estimator

	Logger *slog.Logger
}

// Scanner walks a repo-rooted filesystem.
type Scanner struct {
	fs     afero.Fs
	loader *textload.Loader
	opts   Options
	logger *slog.Logger
}

// New creates a scanner over fs.
func New(fs afero.Fs, opts Options) *Scanner {
	if opts.Rules == nil {
		opts.Rules = &ignore.Rules{}
	}
	if opts.Estimator == nil {
		opts.Estimator = tokens.WordEstimator{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Scanner{fs: fs, loader: textload.New(fs), opts: opts, logger: logger}
}

// Scan walks the repository in lexical order. Excluded directories are
// pruned, so nothing beneath them is visited.
func (s *Scanner) Scan(ctx context.Context) (*Result, error) {
	res := &Result{}
	err := afero.Walk(s.fs, ".", func(p string, info os.FileInfo, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		rel := paths.Clean(filepath.ToSlash(p))
		if rel == "" || rel == "." {
			return nil
		}
		if err != nil {
			s.logger.Warn("Cannot access path", "path", rel, "error", err)
			return nil
		}

		if info.IsDir() {
			if pattern, ok := s.opts.Rules.Match(rel); ok {
				s.logger.Info("Skipping directory", "path", rel, "pattern", pattern)
				res.SkippedDirs++
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		if pattern, ok := s.opts.Rules.Match(rel); ok {
			s.logger.Info("Skipping file", "path", rel, "pattern", pattern)
			res.SkippedFiles++
			return nil
		}
		s.visit(res, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Scan complete", "files", len(res.Files), "skipped_dirs", res.SkippedDirs, "skipped_files", res.SkippedFiles)
	return res, nil
}

func (s *Scanner) visit(res *Result, rel string) {
	doc, err := s.loader.Load(rel)
	if err != nil {
		s.logger.Warn("Could not read file", "path", rel, "error", err)
		res.NonText++
		return
	}
	if doc.Kind != textload.KindText {
		s.logger.Warn("Skipping binary or unreadable file", "path", rel)
		res.NonText++
		return
	}

	f := File{Path: rel}
	if s.opts.CountTokens {
		f.Tokens = s.opts.Estimator.Estimate(doc.Text)
		res.Tokens += f.Tokens
	}
	res.Files = append(res.Files, f)
}
