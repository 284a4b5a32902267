package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultConfigName is the base name searched for when no --config is given.
const DefaultConfigName = ".depflat"

// DepthAll is the depth keyword for unbounded expansion.
const DepthAll = "all"

// Supported languages
const (
	LanguageJava       = "java"
	LanguageKotlin     = "kotlin"
	LanguageJavaScript = "javascript"
	LanguageTypeScript = "typescript"
)

// Supported import extractors
const (
	ExtractorLexical    = "lexical"
	ExtractorTreeSitter = "treesitter"
)

// Config represents the complete depflat configuration
type Config struct {
	Repo          string   `json:"repo" yaml:"repo" toml:"repo" mapstructure:"repo"`
	SourceRoot    string   `json:"sourceRoot" yaml:"sourceRoot" toml:"sourceRoot" mapstructure:"sourceRoot"`
	Language      string   `json:"language" yaml:"language" toml:"language" mapstructure:"language"`
	Files         []string `json:"files" yaml:"files" toml:"files" mapstructure:"files"`
	Depth         string   `json:"depth" yaml:"depth" toml:"depth" mapstructure:"depth"`
	IgnoreFile    string   `json:"ignoreFile" yaml:"ignoreFile" toml:"ignoreFile" mapstructure:"ignoreFile"`
	TokenCount    bool     `json:"tokenCount" yaml:"tokenCount" toml:"tokenCount" mapstructure:"tokenCount"`
	Output        string   `json:"output" yaml:"output" toml:"output" mapstructure:"output"`
	IncludeCSS    bool     `json:"includeCss" yaml:"includeCss" toml:"includeCss" mapstructure:"includeCss"`
	IncludeImages bool     `json:"includeImages" yaml:"includeImages" toml:"includeImages" mapstructure:"includeImages"`
	Extractor     string   `json:"extractor" yaml:"extractor" toml:"extractor" mapstructure:"extractor"`
	Workers       int      `json:"workers" yaml:"workers" toml:"workers" mapstructure:"workers"`

	Logging LoggingConfig  `json:"logging" yaml:"logging" toml:"logging" mapstructure:"logging"`
	Index   IndexConfig    `json:"index" yaml:"index" toml:"index" mapstructure:"index"`
	Bundles []BundleConfig `json:"bundles,omitempty" yaml:"bundles,omitempty" toml:"bundles,omitempty" mapstructure:"bundles"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" yaml:"format" toml:"format" mapstructure:"format"`
	Level  string `json:"level" yaml:"level" toml:"level" mapstructure:"level"`
	File   string `json:"file,omitempty" yaml:"file,omitempty" toml:"file,omitempty" mapstructure:"file"`
}

// IndexConfig locates the SQLite store used by scan, extract and history
type IndexConfig struct {
	Path string `json:"path" yaml:"path" toml:"path" mapstructure:"path"`
}

// BundleConfig is an additional named run. Unset fields inherit from the top level.
type BundleConfig struct {
	Name   string   `json:"name" yaml:"name" toml:"name" mapstructure:"name"`
	Files  []string `json:"files" yaml:"files" toml:"files" mapstructure:"files"`
	Depth  string   `json:"depth,omitempty" yaml:"depth,omitempty" toml:"depth,omitempty" mapstructure:"depth"`
	Output string   `json:"output,omitempty" yaml:"output,omitempty" toml:"output,omitempty" mapstructure:"output"`
}

// Target is one fully resolved flatten run.
type Target struct {
	Name   string
	Files  []string
	Depth  string
	Output string
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Repo:       ".",
		Language:   LanguageJava,
		Depth:      DepthAll,
		IgnoreFile: ".repoignore",
		Output:     "flat_output.txt",
		Extractor:  ExtractorLexical,
		Workers:    1,
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
		Index: IndexConfig{
			Path: filepath.Join(".depflat", "index.db"),
		},
	}
}

// LoadConfig loads configuration from path, or from .depflat.{yaml,yml,json,toml}
// in the working directory when path is empty. A missing default file yields
// DefaultConfig; a missing explicit file is an error. DEPFLAT_* environment
// variables (optionally from a .env file) override file values.
func LoadConfig(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("DEPFLAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, &ConfigError{Field: "file", Message: err.Error()}
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, &ConfigError{Field: "file", Message: err.Error()}
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("repo", d.Repo)
	v.SetDefault("sourceRoot", d.SourceRoot)
	v.SetDefault("language", d.Language)
	v.SetDefault("depth", d.Depth)
	v.SetDefault("ignoreFile", d.IgnoreFile)
	v.SetDefault("tokenCount", d.TokenCount)
	v.SetDefault("output", d.Output)
	v.SetDefault("includeCss", d.IncludeCSS)
	v.SetDefault("includeImages", d.IncludeImages)
	v.SetDefault("extractor", d.Extractor)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("index.path", d.Index.Path)
}

// Save writes the configuration as YAML
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Repo) == "" {
		return &ConfigError{Field: "repo", Message: "must not be empty"}
	}
	switch c.Language {
	case LanguageJava, LanguageKotlin, LanguageJavaScript, LanguageTypeScript:
	default:
		return &ConfigError{Field: "language", Message: fmt.Sprintf("unsupported language %q", c.Language)}
	}
	switch c.Extractor {
	case ExtractorLexical, ExtractorTreeSitter:
	default:
		return &ConfigError{Field: "extractor", Message: fmt.Sprintf("unknown extractor %q", c.Extractor)}
	}
	if c.Workers < 1 {
		return &ConfigError{Field: "workers", Message: "must be at least 1"}
	}
	if _, _, err := ParseDepth(c.Depth); err != nil {
		return &ConfigError{Field: "depth", Message: err.Error()}
	}
	for i, b := range c.Bundles {
		if b.Depth == "" {
			continue
		}
		if _, _, err := ParseDepth(b.Depth); err != nil {
			return &ConfigError{Field: fmt.Sprintf("bundles[%d].depth", i), Message: err.Error()}
		}
	}
	return nil
}

// Targets returns the top-level run (when it lists files) followed by every
// bundle, with unset bundle fields inherited from the top level.
func (c *Config) Targets() []Target {
	var targets []Target
	if len(c.Files) > 0 {
		targets = append(targets, Target{Name: "default", Files: c.Files, Depth: c.Depth, Output: c.Output})
	}
	for i, b := range c.Bundles {
		t := Target{Name: b.Name, Files: b.Files, Depth: b.Depth, Output: b.Output}
		if t.Name == "" {
			t.Name = fmt.Sprintf("bundle-%d", i+1)
		}
		if t.Depth == "" {
			t.Depth = c.Depth
		}
		if t.Output == "" {
			t.Output = t.Name + "_" + filepath.Base(c.Output)
		}
		targets = append(targets, t)
	}
	return targets
}

// ParseDepth parses "all" (unbounded) or a non-negative integer.
// An empty string means "all".
func ParseDepth(s string) (depth int, unbounded bool, err error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, DepthAll) {
		return 0, true, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false, fmt.Errorf("depth must be %q or a non-negative integer, got %q", DepthAll, s)
	}
	if n < 0 {
		return 0, false, fmt.Errorf("depth must not be negative, got %d", n)
	}
	return n, false, nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
