package main

import (
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"depflat/internal/errors"
	"depflat/internal/flatten"
	"depflat/internal/graph"
	"depflat/internal/output"
)

var (
	graphEngine engineFlags
	graphFormat string
	graphOutput string
	graphRank   bool
	graphTop    int
)

var graphCmd = &cobra.Command{
	Use:   "graph [entry...]",
	Short: "Print the import graph of the entry files",
	Long: `Run the same reachability walk as flatten and print the resolved imports
between discovered files instead of their contents.

With --rank, files are scored by how many import chains from the entries
pass through them, which surfaces the files most central to the entries.

Examples:
  depflat graph App.java | dot -Tsvg > imports.svg
  depflat graph --format json App.java
  depflat graph --rank --top 10 App.java`,
	RunE: runGraph,
}

func init() {
	graphEngine.register(graphCmd)
	graphCmd.Flags().StringVar(&graphFormat, "format", "dot", "Output format (dot, json)")
	graphCmd.Flags().StringVarP(&graphOutput, "output", "o", "", "Write to a file instead of stdout")
	graphCmd.Flags().BoolVar(&graphRank, "rank", false, "Rank files by centrality to the entries")
	graphCmd.Flags().IntVar(&graphTop, "top", 20, "Number of ranked files to print")
	rootCmd.AddCommand(graphCmd)
}

func runGraph(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.Close()

	cfg := s.cfg
	graphEngine.apply(cmd, cfg)
	if len(args) > 0 {
		cfg.Files = args
	}
	if err := validate(cfg); err != nil {
		return err
	}
	if len(cfg.Files) == 0 {
		return errors.New(errors.EntriesEmpty, "no entry files given", nil)
	}

	ws, err := openWorkspace(cfg, s.logger)
	if err != nil {
		return err
	}
	eng, err := ws.engine(cfg.Depth, s.logger)
	if err != nil {
		return err
	}
	res, err := eng.Run(cmd.Context(), ws.entries(cfg.Files, s.logger))
	if err != nil {
		return err
	}
	g := graph.FromResult(res)
	st := g.Stats()
	s.logger.Info("Graph built", "nodes", st.Nodes, "edges", st.Edges, "max_depth", st.MaxDepth)

	w := cmd.OutOrStdout()
	if graphOutput != "" {
		f, err := flatten.Create(afero.NewOsFs(), graphOutput)
		if err != nil {
			return errors.New(errors.OutputFailed, fmt.Sprintf("cannot create %s", graphOutput), err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil {
				s.logger.Error("Failed to close graph output", "path", graphOutput, "error", cerr.Error())
			}
		}()
		w = f
	}

	if graphRank {
		return writeRanking(cmd, s, g, w)
	}
	switch graphFormat {
	case "dot":
		return g.WriteDOT(w)
	case "json":
		return g.WriteJSON(w)
	default:
		return errors.New(errors.ConfigInvalid, fmt.Sprintf("unsupported graph format %q", graphFormat), nil)
	}
}

func writeRanking(cmd *cobra.Command, s *session, g *graph.Graph, w io.Writer) error {
	opts := graph.DefaultRankOptions()
	opts.TopK = graphTop
	ranking, err := g.Rank(cmd.Context(), g.Entries(), opts)
	if err != nil {
		return err
	}

	if graphFormat == "json" {
		data, err := output.DeterministicEncodeIndented(ranking, "  ")
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}

	for i, r := range ranking.Results {
		fmt.Fprintf(w, "%3d. %.4f  %s  (imports %d, imported by %d)\n",
			i+1, r.Score, r.Path, len(g.Imports(r.Path)), len(g.ImportedBy(r.Path)))
		if len(r.Via) > 1 {
			fmt.Fprintf(w, "       via %v\n", r.Via)
		}
	}
	if !ranking.Converged {
		s.logger.Warn("Ranking did not converge", "iterations", ranking.Iterations)
	}
	return nil
}
