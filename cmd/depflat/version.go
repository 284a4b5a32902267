package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"depflat/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.Full())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
