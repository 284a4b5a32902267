package graph

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// RankOptions configures Rank.
type RankOptions struct {
	// Damping is the probability of following an import instead of jumping
	// back to an entry (default 0.85).
	Damping float64

	// MaxIterations bounds the power iteration (default 20).
	MaxIterations int

	// Tolerance stops iteration once no score moves more than this
	// (default 1e-6).
	Tolerance float64

	// TopK limits the number of results (default 20).
	TopK int

	// IncludePaths adds an import chain from an entry to each result.
	IncludePaths bool
}

// DefaultRankOptions returns the defaults Rank falls back to.
func DefaultRankOptions() RankOptions {
	return RankOptions{
		Damping:       0.85,
		MaxIterations: 20,
		Tolerance:     1e-6,
		TopK:          20,
		IncludePaths:  true,
	}
}

// Ranked is one file with its score.
type Ranked struct {
	Path  string   `json:"path"`
	Score float64  `json:"score"`
	Via   []string `json:"via,omitempty"`
}

// Ranking is the outcome of Rank.
type Ranking struct {
	Results    []Ranked `json:"results"`
	Seeds      []string `json:"seeds"`
	Iterations int      `json:"iterations"`
	Converged  bool     `json:"converged"`
}

// Rank scores files by personalized PageRank seeded at seeds: files that
// many import chains from the seeds pass through score highest. Ties are
// broken by path so the ranking is deterministic.
func (g *Graph) Rank(ctx context.Context, seeds []string, opts RankOptions) (*Ranking, error) {
	if len(seeds) == 0 {
		return nil, fmt.Errorf("no seed files provided")
	}
	def := DefaultRankOptions()
	if opts.Damping <= 0 || opts.Damping >= 1 {
		opts.Damping = def.Damping
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = def.MaxIterations
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = def.Tolerance
	}
	if opts.TopK <= 0 {
		opts.TopK = def.TopK
	}

	out := &Ranking{Results: []Ranked{}, Seeds: []string{}}
	seedSet := make(map[int]bool)
	for _, s := range seeds {
		if idx, ok := g.nodeIdx[s]; ok && !seedSet[idx] {
			seedSet[idx] = true
			out.Seeds = append(out.Seeds, s)
		}
	}
	if len(seedSet) == 0 {
		return out, nil
	}

	n := len(g.nodes)
	teleport := make([]float64, n)
	for idx := range seedSet {
		teleport[idx] = 1.0 / float64(len(seedSet))
	}
	scores := make([]float64, n)
	copy(scores, teleport)
	next := make([]float64, n)

	for iter := 0; iter < opts.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out.Iterations = iter + 1

		for i := range next {
			next[i] = 0
		}
		for i, edges := range g.out {
			if len(edges) == 0 {
				continue
			}
			share := scores[i] / float64(len(edges))
			for _, ei := range edges {
				next[g.nodeIdx[g.edges[ei].To]] += share
			}
		}

		maxDiff := 0.0
		for i := range next {
			next[i] = opts.Damping*next[i] + (1-opts.Damping)*teleport[i]
			maxDiff = math.Max(maxDiff, math.Abs(next[i]-scores[i]))
		}
		scores, next = next, scores

		if maxDiff < opts.Tolerance {
			out.Converged = true
			break
		}
	}

	order := make([]int, 0, n)
	for i, s := range scores {
		if s > 0 {
			order = append(order, i)
		}
	}
	sort.Slice(order, func(a, b int) bool {
		sa, sb := scores[order[a]], scores[order[b]]
		if sa != sb {
			return sa > sb
		}
		return g.nodes[order[a]].Path < g.nodes[order[b]].Path
	})
	if len(order) > opts.TopK {
		order = order[:opts.TopK]
	}

	for _, idx := range order {
		r := Ranked{Path: g.nodes[idx].Path, Score: scores[idx]}
		if opts.IncludePaths && !seedSet[idx] {
			r.Via = g.chainFrom(idx, seedSet, 8)
		}
		out.Results = append(out.Results, r)
	}
	return out, nil
}

// chainFrom walks incoming edges back from target towards a seed, always
// taking the first unvisited importer, and returns the chain seed first.
func (g *Graph) chainFrom(target int, seedSet map[int]bool, maxLen int) []string {
	chain := []string{g.nodes[target].Path}
	visited := map[int]bool{target: true}
	current := target

	for len(chain) <= maxLen {
		prev := -1
		for _, ei := range g.in[current] {
			from := g.nodeIdx[g.edges[ei].From]
			if !visited[from] {
				prev = from
				break
			}
		}
		if prev < 0 {
			break
		}
		chain = append(chain, g.nodes[prev].Path)
		visited[prev] = true
		if seedSet[prev] {
			break
		}
		current = prev
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}
