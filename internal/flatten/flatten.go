// Package flatten concatenates discovered files into one document, each
// file preceded by a header line, and totals their estimated tokens.
package flatten

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/afero"

	"depflat/internal/slogutil"
	"depflat/internal/textload"
	"depflat/internal/tokens"
)

// ImagePlaceholder is written instead of image bytes.
const ImagePlaceholder = "[Image file skipped]\n"

// Item is one file to emit. ID is zero for reachability output.
type Item struct {
	ID   int64
	Path string
}

// HeaderFunc renders the line that precedes an item, newline included.
type HeaderFunc func(Item) string

// FileHeader is the default header: "===== FILE: <path> =====".
func FileHeader(it Item) string {
	return fmt.Sprintf("===== FILE: %s =====\n", it.Path)
}

// IDHeader labels files with their index ID.
func IDHeader(it Item) string {
	return fmt.Sprintf("===== FILE ID %d : %s =====\n", it.ID, it.Path)
}

// Status tells what happened to one item.
type Status string

const (
	StatusWritten    Status = "written"
	StatusImage      Status = "image"
	StatusSkipped    Status = "skipped"
	StatusBinary     Status = "binary"
	StatusUnreadable Status = "unreadable"
)

// FileResult describes one emitted or skipped item.
type FileResult struct {
	Path     string `json:"path"`
	Status   Status `json:"status"`
	Encoding string `json:"encoding,omitempty"`
	Tokens   int    `json:"tokens,omitempty"`
}

// Summary totals a flatten pass. Discovered counts every item, including
// those that could not be emitted.
type Summary struct {
	Discovered int          `json:"discovered"`
	Written    int          `json:"written"`
	Skipped    int          `json:"skipped"`
	Tokens     int          `json:"tokens"`
	Document   int          `json:"documentTokens,omitempty"`
	Files      []FileResult `json:"files"`
}

// Options tunes an Aggregator.
type Options struct {
	// CountTokens estimates tokens per written file.
	CountTokens bool

	// DocumentTokens additionally estimates the whole document, headers
	// included.
	DocumentTokens bool

	// IncludeImages writes a placeholder section for image files instead of
	// skipping them.
	IncludeImages bool

	Estimator tokens.Estimator
	Header    HeaderFunc
	Logger    *slog.Logger
}

// Aggregator loads items and writes the flat document.
type Aggregator struct {
	loader *textload.Loader
	opts   Options
	logger *slog.Logger
}

// NewAggregator reads files from fs, a repo-rooted filesystem.
func NewAggregator(fs afero.Fs, opts Options) *Aggregator {
	if opts.Estimator == nil {
		opts.Estimator = tokens.WordEstimator{}
	}
	if opts.Header == nil {
		opts.Header = FileHeader
	}
	logger := opts.Logger
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Aggregator{loader: textload.New(fs), opts: opts, logger: logger}
}

// Paths wraps plain paths as items.
func Paths(paths []string) []Item {
	items := make([]Item, len(paths))
	for i, p := range paths {
		items[i] = Item{Path: p}
	}
	return items
}

// Write emits items to w in order. Files that cannot be loaded are logged
// and left out; only write errors and cancellation abort.
func (a *Aggregator) Write(ctx context.Context, w io.Writer, items []Item) (*Summary, error) {
	sum := &Summary{Discovered: len(items), Files: make([]FileResult, 0, len(items))}

	var doc *strings.Builder
	if a.opts.DocumentTokens {
		doc = &strings.Builder{}
	}
	emit := func(s string) error {
		if doc != nil {
			doc.WriteString(s)
		}
		_, err := io.WriteString(w, s)
		return err
	}

	for _, it := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res := FileResult{Path: it.Path}
		loaded, err := a.loader.Load(it.Path)
		switch {
		case err != nil:
			a.logger.Warn("Could not read file", "path", it.Path, "error", err)
			res.Status = StatusUnreadable
		case loaded.Kind == textload.KindImage && !a.opts.IncludeImages:
			a.logger.Info("Skipping image file", "path", it.Path)
			res.Status = StatusSkipped
		case loaded.Kind == textload.KindImage:
			if err := emit(a.opts.Header(it) + ImagePlaceholder + "\n"); err != nil {
				return nil, err
			}
			res.Status = StatusImage
		case loaded.Kind == textload.KindBinary:
			a.logger.Warn("Skipping binary or unreadable file", "path", it.Path)
			res.Status = StatusBinary
		default:
			if err := emit(a.opts.Header(it) + loaded.Text + "\n"); err != nil {
				return nil, err
			}
			res.Status = StatusWritten
			res.Encoding = loaded.Encoding
			if a.opts.CountTokens {
				res.Tokens = a.opts.Estimator.Estimate(loaded.Text)
				sum.Tokens += res.Tokens
			}
		}

		switch res.Status {
		case StatusWritten, StatusImage:
			sum.Written++
		default:
			sum.Skipped++
		}
		sum.Files = append(sum.Files, res)
	}

	if doc != nil {
		sum.Document = a.opts.Estimator.Estimate(doc.String())
	}
	return sum, nil
}

// WriteFile writes items to path on out, compressing by extension.
func (a *Aggregator) WriteFile(ctx context.Context, out afero.Fs, path string, items []Item) (*Summary, error) {
	w, err := Create(out, path)
	if err != nil {
		return nil, err
	}
	sum, err := a.Write(ctx, w, items)
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}
	return sum, nil
}
