// Package reach computes the set of files reachable from entry files by
// following import statements, breadth first and up to a depth limit.
package reach

import (
	"context"
	"log/slog"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"depflat/internal/errors"
	"depflat/internal/ignore"
	"depflat/internal/imports"
	"depflat/internal/paths"
	"depflat/internal/slogutil"
	"depflat/internal/textload"
)

// Unbounded disables the depth limit; only the fixpoint stops a run.
const Unbounded = -1

// Resolver maps a reference found in file from to a repo-relative path.
type Resolver interface {
	Resolve(ref imports.Reference, from string) (string, bool)
}

// Options configures an Engine.
type Options struct {
	// Depth is the number of import hops followed from the entries, or
	// Unbounded.
	Depth int

	// Workers bounds parallel extraction within one level. Values below 1
	// mean sequential.
	Workers int

	// Language is part of the cache key.
	Language string

	Rules     *ignore.Rules
	Extractor imports.Extractor
	Resolver  Resolver

	// Fs is rooted at the repository.
	Fs afero.Fs

	// Cache is optional and may be shared between engines.
	Cache *Cache

	Logger *slog.Logger
}

// Discovery is one admitted file.
type Discovery struct {
	Path  string `json:"path"`
	Depth int    `json:"depth"`
	// Via is the file whose import first queued this one; empty for entries.
	Via string `json:"via,omitempty"`
}

// Edge is a resolved import between two admitted files.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
	// Import is the reference text as written in From.
	Import string `json:"import"`
	Line   int    `json:"line"`
}

// Skip records a file rejected by an ignore pattern.
type Skip struct {
	Path    string `json:"path"`
	Pattern string `json:"pattern"`
	Depth   int    `json:"depth"`
}

// Stats summarizes a run.
type Stats struct {
	Entries    int   `json:"entries"`
	Discovered int   `json:"discovered"`
	Skipped    int   `json:"skipped"`
	Unresolved int   `json:"unresolved"`
	Levels     int   `json:"levels"`
	CacheHits  int64 `json:"cacheHits"`
}

// Result is the outcome of one run. Discoveries are in admission order:
// entries first, then each level in the order its files were queued.
type Result struct {
	Discoveries []Discovery `json:"discoveries"`
	Edges       []Edge      `json:"edges"`
	Skipped     []Skip      `json:"skipped,omitempty"`
	Stats       Stats       `json:"stats"`
}

// Paths returns the discovered paths in order.
func (r *Result) Paths() []string {
	out := make([]string, len(r.Discoveries))
	for i, d := range r.Discoveries {
		out[i] = d.Path
	}
	return out
}

// Engine runs reachability queries. An Engine holds no per-run state and
// may run several queries, one after another or concurrently.
type Engine struct {
	opts   Options
	loader *textload.Loader
	logger *slog.Logger
}

// New creates an engine. Nil collaborators get inert defaults.
func New(opts Options) *Engine {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Rules == nil {
		opts.Rules = &ignore.Rules{}
	}
	if opts.Extractor == nil {
		opts.Extractor = imports.New(opts.Language, imports.Options{})
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Engine{
		opts:   opts,
		loader: textload.New(opts.Fs),
		logger: logger,
	}
}

// candidate is a path queued for admission at some level.
type candidate struct {
	path string
	via  string
}

// run is the state of a single Run call. It is owned by the goroutine
// driving the run; extraction workers never touch it.
type run struct {
	visited   map[string]bool
	skipped   map[string]bool
	edgeSeen  map[[2]string]bool
	result    *Result
	cacheHits int64
}

// Run expands entries to their reachable set. It fails only when no entry
// survives cleaning, existence and ignore checks, or when ctx is done.
func (e *Engine) Run(ctx context.Context, entries []string) (*Result, error) {
	st := &run{
		visited:  make(map[string]bool),
		skipped:  make(map[string]bool),
		edgeSeen: make(map[[2]string]bool),
		result:   &Result{},
	}

	frontier := e.initialFrontier(st, entries)
	if len(frontier) == 0 {
		return nil, errors.New(errors.EntriesEmpty, "no usable entry files", nil).WithDetails(map[string]int{
			"given":    st.result.Stats.Entries,
			"excluded": len(st.result.Skipped),
		})
	}

	for depth := 0; len(frontier) > 0; depth++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		admitted := e.admit(st, frontier, depth)
		st.result.Stats.Levels = depth

		if e.opts.Depth != Unbounded && depth >= e.opts.Depth {
			break
		}

		refs, err := e.extractAll(ctx, st, admitted)
		if err != nil {
			return nil, err
		}
		frontier = e.nextFrontier(st, admitted, refs, depth+1)
	}

	stats := &st.result.Stats
	stats.Discovered = len(st.result.Discoveries)
	stats.Skipped = len(st.result.Skipped)
	stats.CacheHits = st.cacheHits

	e.logger.Debug("Reachability complete",
		"discovered", stats.Discovered,
		"skipped", stats.Skipped,
		"unresolved", stats.Unresolved,
		"levels", stats.Levels,
	)
	return st.result, nil
}

// initialFrontier cleans and deduplicates entries, dropping missing and
// excluded ones with a diagnostic.
func (e *Engine) initialFrontier(st *run, entries []string) []candidate {
	seen := make(map[string]bool)
	var frontier []candidate
	for _, raw := range entries {
		p := paths.Clean(raw)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		st.result.Stats.Entries++

		if !paths.IsRelWithinRepo(p) {
			e.logger.Warn("Entry file outside repository", "path", p)
			continue
		}
		if info, err := e.opts.Fs.Stat(p); err != nil || info.IsDir() {
			e.logger.Warn("Entry file not found", "path", p)
			continue
		}
		if e.excluded(st, p, 0) {
			continue
		}
		frontier = append(frontier, candidate{path: p})
	}
	return frontier
}

// admit adds every not-yet-visited, non-excluded frontier path to the
// discovery list and returns them in order.
func (e *Engine) admit(st *run, frontier []candidate, depth int) []string {
	var admitted []string
	for _, c := range frontier {
		if st.visited[c.path] {
			continue
		}
		if e.excluded(st, c.path, depth) {
			continue
		}
		st.visited[c.path] = true
		st.result.Discoveries = append(st.result.Discoveries, Discovery{Path: c.path, Depth: depth, Via: c.via})
		admitted = append(admitted, c.path)
		e.logger.Info("Discovered", "path", c.path, "depth", depth)
	}
	return admitted
}

// excluded checks p against the ignore rules, logging and recording each
// excluded path once per run.
func (e *Engine) excluded(st *run, p string, depth int) bool {
	pattern, ok := e.opts.Rules.Match(p)
	if !ok {
		return false
	}
	if !st.skipped[p] {
		st.skipped[p] = true
		st.result.Skipped = append(st.result.Skipped, Skip{Path: p, Pattern: pattern, Depth: depth})
		e.logger.Info("Skipping file", "path", p, "pattern", pattern)
	}
	return true
}

// extractAll reads and extracts every admitted file. Results are indexed
// like admitted, so merging them stays in frontier order whatever the
// completion order of the workers.
func (e *Engine) extractAll(ctx context.Context, st *run, admitted []string) ([][]imports.Reference, error) {
	results := make([][]imports.Reference, len(admitted))
	hits := make([]bool, len(admitted))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i, p := range admitted {
		i, p := i, p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i], hits[i] = e.extract(p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, hit := range hits {
		if hit {
			st.cacheHits++
		}
	}
	return results, nil
}

// extract returns the references of p and whether they came from the cache.
// Unreadable, binary and image files have no references.
func (e *Engine) extract(p string) ([]imports.Reference, bool) {
	var key cacheKey
	if e.opts.Cache != nil {
		info, err := e.opts.Fs.Stat(p)
		if err == nil {
			key = cacheKey{path: p, size: info.Size(), modTime: info.ModTime(), language: e.opts.Language}
			if refs, ok := e.opts.Cache.get(key); ok {
				return refs, true
			}
		}
	}

	doc, err := e.loader.Load(p)
	if err != nil {
		e.logger.Warn("Could not read file", "path", p, "error", err)
		return nil, false
	}
	if doc.Kind != textload.KindText {
		e.logger.Debug("Not scanning non-text file", "path", p, "kind", doc.Kind.String())
		return nil, false
	}

	refs := e.opts.Extractor.Extract([]byte(doc.Text))
	if e.opts.Cache != nil && key.path != "" {
		e.opts.Cache.put(key, refs)
	}
	return refs, false
}

// nextFrontier resolves the references of each admitted file, in file then
// reference order, and queues targets not yet visited or excluded.
func (e *Engine) nextFrontier(st *run, admitted []string, refs [][]imports.Reference, depth int) []candidate {
	queued := make(map[string]bool)
	var next []candidate
	for i, from := range admitted {
		for _, ref := range refs[i] {
			if ref.Wildcard {
				continue
			}
			if e.opts.Resolver == nil {
				st.result.Stats.Unresolved++
				continue
			}
			to, ok := e.opts.Resolver.Resolve(ref, from)
			if !ok {
				st.result.Stats.Unresolved++
				e.logger.Debug("Unresolved import", "from", from, "import", ref.Name, "line", ref.Line)
				continue
			}
			if e.excluded(st, to, depth) {
				continue
			}
			e.addEdge(st, Edge{From: from, To: to, Import: ref.Name, Line: ref.Line})
			if st.visited[to] || queued[to] {
				continue
			}
			queued[to] = true
			next = append(next, candidate{path: to, via: from})
		}
	}
	return next
}

func (e *Engine) addEdge(st *run, edge Edge) {
	key := [2]string{edge.From, edge.To}
	if edge.From == edge.To || st.edgeSeen[key] {
		return
	}
	st.edgeSeen[key] = true
	st.result.Edges = append(st.result.Edges, edge)
}
