package main

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"depflat/internal/errors"
	"depflat/internal/schemaref"
)

var schemaCmd = &cobra.Command{
	Use:   "schema <schema.json> <definition> <out.json>",
	Short: "Cut a JSON Schema down to one definition and what it references",
	Long: `Keep one definition of a LinkML-style JSON Schema plus every definition it
reaches through "#/$defs/..." references, following references forward only.
References to names without a definition are replaced by
"#/$defs/REMOVED_REFERENCE".

Example:
  depflat schema alliance_model.json Gene gene.json`,
	Args: cobra.ExactArgs(3),
	RunE: runSchema,
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}

func runSchema(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.Close()

	in, target, out := args[0], args[1], args[2]
	fs := afero.NewOsFs()

	data, err := afero.ReadFile(fs, in)
	if err != nil {
		return errors.New(errors.SchemaInvalid, fmt.Sprintf("cannot read %s", in), err)
	}
	res, err := schemaref.Minimize(data, target)
	if err != nil {
		return err
	}
	if !res.TargetFound {
		s.logger.Warn("Definition not found in $defs", "definition", target, "schema", in)
	}
	for _, name := range res.Dangling {
		s.logger.Warn("Removed reference to undefined definition", "definition", name)
	}

	if err := afero.WriteFile(fs, out, res.Schema, 0o644); err != nil {
		return errors.New(errors.OutputFailed, fmt.Sprintf("cannot write %s", out), err)
	}
	s.logger.Debug("Schema minimized", "kept", len(res.Kept), "pruned_refs", res.Pruned)
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote minimized schema with %d definitions to '%s'.\n", len(res.Kept), out)
	return nil
}
