package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"depflat/internal/config"
	"depflat/internal/errors"
	"depflat/internal/output"
)

var (
	configShowFormat string
	configInitForce  bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage depflat configuration",
	Long:  "Create and inspect the depflat configuration file (.depflat.yaml by default)",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a sample configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Print the configuration after defaults, the config file and DEPFLAT_*
environment overrides have been applied.

Examples:
  depflat config show
  depflat config show --format toml`,
	RunE: runConfigShow,
}

var configEnvCmd = &cobra.Command{
	Use:   "env",
	Short: "List supported environment variables",
	Run:   runConfigEnv,
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing file")
	configShowCmd.Flags().StringVar(&configShowFormat, "format", "yaml", "Output format (yaml, json, toml)")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEnvCmd)
	rootCmd.AddCommand(configCmd)
}

// sampleConfig is what config init writes.
func sampleConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Files = []string{"src/main/java/com/example/App.java"}
	cfg.Depth = "2"
	return cfg
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := config.DefaultConfigName + ".yaml"
	if len(args) == 1 {
		path = args[0]
	}
	if _, err := os.Stat(path); err == nil && !configInitForce {
		return errors.New(errors.ConfigInvalid, fmt.Sprintf("%s already exists (use --force to overwrite)", path), nil)
	}
	if err := sampleConfig().Save(path); err != nil {
		return errors.New(errors.OutputFailed, fmt.Sprintf("cannot write %s", path), err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return errors.New(errors.ConfigInvalid, "cannot load configuration", err)
	}
	data, err := encodeConfig(cfg, configShowFormat)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func encodeConfig(cfg *config.Config, format string) ([]byte, error) {
	switch format {
	case "yaml", "yml":
		return yaml.Marshal(cfg)
	case "json":
		return output.DeterministicEncodeIndented(cfg, "  ")
	case "toml":
		return toml.Marshal(cfg)
	default:
		return nil, errors.New(errors.ConfigInvalid, fmt.Sprintf("unsupported format %q", format), nil)
	}
}

func runConfigEnv(cmd *cobra.Command, args []string) {
	vars := []struct{ name, desc string }{
		{"DEPFLAT_REPO", "Repository root"},
		{"DEPFLAT_LANGUAGE", "java, kotlin, javascript or typescript"},
		{"DEPFLAT_DEPTH", "Import hops to follow, or all"},
		{"DEPFLAT_IGNOREFILE", "Ignore pattern file"},
		{"DEPFLAT_OUTPUT", "Output file"},
		{"DEPFLAT_TOKENCOUNT", "Estimate tokens (true/false)"},
		{"DEPFLAT_EXTRACTOR", "lexical or treesitter"},
		{"DEPFLAT_WORKERS", "Parallel extraction per level"},
		{"DEPFLAT_LOGGING_LEVEL", "debug, info, warn or error"},
		{"DEPFLAT_LOGGING_FORMAT", "human or json"},
		{"DEPFLAT_INDEX_PATH", "Index database path"},
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "Supported depflat environment variables")
	fmt.Fprintln(w, strings.Repeat("─", 50))
	for _, v := range vars {
		fmt.Fprintf(w, "  %-24s %s\n", v.name, v.desc)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Variables are also read from a .env file in the working directory.")
}
