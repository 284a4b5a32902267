// Package graph holds the import graph of a reachability run and renders
// it as DOT or JSON.
package graph

import (
	"fmt"
	"io"
	"strings"

	"depflat/internal/output"
	"depflat/internal/reach"
)

// Node is one discovered file.
type Node struct {
	Path  string `json:"path"`
	Depth int    `json:"depth"`
	Entry bool   `json:"entry,omitempty"`
}

// Edge is one import between discovered files.
type Edge struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Import string `json:"import,omitempty"`
	Line   int    `json:"line,omitempty"`
}

// Stats describes the shape of a graph.
type Stats struct {
	Nodes        int     `json:"nodes"`
	Edges        int     `json:"edges"`
	Entries      int     `json:"entries"`
	MaxDepth     int     `json:"maxDepth"`
	AvgOutDegree float64 `json:"avgOutDegree"`
}

// Graph is a directed graph over repo-relative paths. Node order is
// insertion order, which for a reachability result is discovery order.
type Graph struct {
	nodes   []Node
	nodeIdx map[string]int

	edges []Edge
	// out and in index into edges per node.
	out [][]int
	in  [][]int
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{nodeIdx: make(map[string]int)}
}

// FromResult builds the graph of a reachability run. Edges whose ends were
// not both discovered (for example when the depth limit stopped the run)
// are dropped.
func FromResult(res *reach.Result) *Graph {
	g := New()
	for _, d := range res.Discoveries {
		g.AddNode(Node{Path: d.Path, Depth: d.Depth, Entry: d.Via == "" && d.Depth == 0})
	}
	for _, e := range res.Edges {
		if g.HasNode(e.From) && g.HasNode(e.To) {
			g.AddEdge(Edge{From: e.From, To: e.To, Import: e.Import, Line: e.Line})
		}
	}
	return g
}

// AddNode adds n unless a node with the same path exists, and returns its
// index.
func (g *Graph) AddNode(n Node) int {
	if idx, ok := g.nodeIdx[n.Path]; ok {
		return idx
	}
	idx := len(g.nodes)
	g.nodes = append(g.nodes, n)
	g.nodeIdx[n.Path] = idx
	g.out = append(g.out, nil)
	g.in = append(g.in, nil)
	return idx
}

// AddEdge adds e, creating missing end nodes at depth 0.
func (g *Graph) AddEdge(e Edge) {
	from := g.AddNode(Node{Path: e.From})
	to := g.AddNode(Node{Path: e.To})
	g.edges = append(g.edges, e)
	g.out[from] = append(g.out[from], len(g.edges)-1)
	g.in[to] = append(g.in[to], len(g.edges)-1)
}

// HasNode reports whether path is in the graph.
func (g *Graph) HasNode(path string) bool {
	_, ok := g.nodeIdx[path]
	return ok
}

// Nodes returns the nodes in insertion order.
func (g *Graph) Nodes() []Node { return g.nodes }

// Edges returns the edges in insertion order.
func (g *Graph) Edges() []Edge { return g.edges }

// Imports returns the files path imports directly.
func (g *Graph) Imports(path string) []string {
	idx, ok := g.nodeIdx[path]
	if !ok {
		return nil
	}
	out := make([]string, len(g.out[idx]))
	for i, ei := range g.out[idx] {
		out[i] = g.edges[ei].To
	}
	return out
}

// ImportedBy returns the files that import path directly.
func (g *Graph) ImportedBy(path string) []string {
	idx, ok := g.nodeIdx[path]
	if !ok {
		return nil
	}
	out := make([]string, len(g.in[idx]))
	for i, ei := range g.in[idx] {
		out[i] = g.edges[ei].From
	}
	return out
}

// Entries returns the entry nodes.
func (g *Graph) Entries() []string {
	var out []string
	for _, n := range g.nodes {
		if n.Entry {
			out = append(out, n.Path)
		}
	}
	return out
}

// Stats returns summary figures.
func (g *Graph) Stats() Stats {
	s := Stats{Nodes: len(g.nodes), Edges: len(g.edges)}
	for _, n := range g.nodes {
		if n.Entry {
			s.Entries++
		}
		if n.Depth > s.MaxDepth {
			s.MaxDepth = n.Depth
		}
	}
	if s.Nodes > 0 {
		s.AvgOutDegree = float64(s.Edges) / float64(s.Nodes)
	}
	return s
}

// document is the JSON form of a graph.
type document struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
	Stats Stats  `json:"stats"`
}

// WriteJSON writes the graph as indented deterministic JSON.
func (g *Graph) WriteJSON(w io.Writer) error {
	nodes, edges := g.nodes, g.edges
	if nodes == nil {
		nodes = []Node{}
	}
	if edges == nil {
		edges = []Edge{}
	}
	data, err := output.DeterministicEncodeIndented(document{Nodes: nodes, Edges: edges, Stats: g.Stats()}, "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// WriteDOT writes the graph in Graphviz DOT syntax. Entry files are drawn
// as boxes.
func (g *Graph) WriteDOT(w io.Writer) error {
	var b strings.Builder
	b.WriteString("digraph imports {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=ellipse];\n")
	for _, n := range g.nodes {
		attrs := fmt.Sprintf("label=%s", dotQuote(fmt.Sprintf("%s\\n(depth %d)", n.Path, n.Depth)))
		if n.Entry {
			attrs += ", shape=box"
		}
		fmt.Fprintf(&b, "  %s [%s];\n", dotQuote(n.Path), attrs)
	}
	for _, e := range g.edges {
		fmt.Fprintf(&b, "  %s -> %s;\n", dotQuote(e.From), dotQuote(e.To))
	}
	b.WriteString("}\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// dotQuote quotes s as a DOT ID. Backslash sequences already in s (such as
// the "\n" line break in labels) are kept.
func dotQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
