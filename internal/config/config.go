// Package config provides configuration management for taglint using Viper
// for loading from a YAML file, TAGLINT_ environment variables and
// command-line flags.
package config

import (
	"fmt"
	"regexp"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/conneroisu/taglint/internal/charset"
	"github.com/conneroisu/taglint/internal/errors"
	"github.com/conneroisu/taglint/internal/logging"
	"github.com/conneroisu/taglint/internal/report"
)

// FileName is the configuration file looked up in the working directory.
const FileName = ".taglint.yml"

type Config struct {
	Policy PolicyConfig `mapstructure:"policy" yaml:"policy"`
	Scan   ScanConfig   `mapstructure:"scan" yaml:"scan"`
	Output OutputConfig `mapstructure:"output" yaml:"output"`
	Log    LogConfig    `mapstructure:"log" yaml:"log"`
}

type PolicyConfig struct {
	// Forbidden is the exact-match table: tag,attr lines or a YAML document.
	Forbidden string `mapstructure:"forbidden" yaml:"forbidden"`
	// Allowed is the prefix-allow table: one literal per line or a YAML document.
	Allowed string `mapstructure:"allowed" yaml:"allowed"`
}

type ScanConfig struct {
	Paths                []string `mapstructure:"paths" yaml:"paths"`
	Extensions           []string `mapstructure:"extensions" yaml:"extensions"`
	AdditionalExtensions []string `mapstructure:"additional_extensions" yaml:"additional_extensions"`
	Exclude              []string `mapstructure:"exclude" yaml:"exclude"`
	RespectGitignore     bool     `mapstructure:"respect_gitignore" yaml:"respect_gitignore"`
	Charset              string   `mapstructure:"charset" yaml:"charset"`
	Workers              int      `mapstructure:"workers" yaml:"workers"`
	MaxFileSize          int64    `mapstructure:"max_file_size" yaml:"max_file_size"`
}

type OutputConfig struct {
	Format        string `mapstructure:"format" yaml:"format"`
	Path          string `mapstructure:"path" yaml:"path"`
	LineSeparator string `mapstructure:"line_separator" yaml:"line_separator"`
	Template      string `mapstructure:"template" yaml:"template"`
	Verbose       bool   `mapstructure:"verbose" yaml:"verbose"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8
	}

	v.SetDefault("scan.paths", []string{"."})
	v.SetDefault("scan.extensions", []string{".jsp"})
	v.SetDefault("scan.additional_extensions", []string{})
	v.SetDefault("scan.exclude", []string{})
	v.SetDefault("scan.respect_gitignore", true)
	v.SetDefault("scan.charset", charset.Default)
	v.SetDefault("scan.workers", workers)
	v.SetDefault("scan.max_file_size", 0)
	v.SetDefault("output.format", string(report.FormatText))
	v.SetDefault("output.line_separator", "\n")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads the configuration held by the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads and validates the configuration held by v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeConfigInvalid, "failed to decode configuration").WithCause(err)
	}

	// slices given as comma-separated env values arrive as one element
	cfg.Scan.Paths = splitList(cfg.Scan.Paths)
	cfg.Scan.Extensions = splitList(cfg.Scan.Extensions)
	cfg.Scan.AdditionalExtensions = splitList(cfg.Scan.AdditionalExtensions)

	if len(cfg.Scan.Paths) == 0 {
		cfg.Scan.Paths = []string{"."}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks every value that can be checked without touching input files.
func (c *Config) Validate() error {
	if _, err := report.ParseFormat(c.Output.Format); err != nil {
		return err
	}
	if _, err := c.ExcludePatterns(); err != nil {
		return err
	}
	if _, err := charset.Lookup(c.Scan.Charset); err != nil {
		return err
	}
	if c.Scan.Workers < 1 {
		return errors.NewConfigError(errors.ErrCodeConfigInvalid,
			fmt.Sprintf("scan.workers must be at least 1, got %d", c.Scan.Workers))
	}
	if c.Scan.MaxFileSize < 0 {
		return errors.NewConfigError(errors.ErrCodeConfigInvalid, "scan.max_file_size must not be negative")
	}
	for _, ext := range c.AllExtensions() {
		if !strings.HasPrefix(ext, ".") {
			return errors.NewConfigError(errors.ErrCodeConfigInvalid,
				fmt.Sprintf("extension %q must start with '.'", ext))
		}
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return errors.NewConfigError(errors.ErrCodeConfigInvalid, err.Error())
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return errors.NewConfigError(errors.ErrCodeConfigInvalid,
			fmt.Sprintf("log.format must be text or json, got %q", c.Log.Format))
	}
	return nil
}

// RequirePolicy reports a configuration error when no policy table is set.
func (c *Config) RequirePolicy() error {
	if c.Policy.Forbidden == "" && c.Policy.Allowed == "" {
		return errors.NewConfigError(errors.ErrCodeConfigInvalid,
			"no policy configured: set policy.forbidden or policy.allowed")
	}
	return nil
}

// AllExtensions merges scan.extensions and scan.additional_extensions.
func (c *Config) AllExtensions() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, ext := range append(append([]string{}, c.Scan.Extensions...), c.Scan.AdditionalExtensions...) {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			continue
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	return out
}

// ExcludePatterns compiles scan.exclude.
func (c *Config) ExcludePatterns() ([]*regexp.Regexp, error) {
	patterns := make([]*regexp.Regexp, 0, len(c.Scan.Exclude))
	for _, expr := range c.Scan.Exclude {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, errors.NewConfigError(errors.ErrCodeConfigInvalid,
				fmt.Sprintf("invalid exclude pattern %q", expr)).WithCause(err)
		}
		patterns = append(patterns, re)
	}
	return patterns, nil
}

// LineSeparator resolves output.line_separator. The names LF, CRLF and CR
// and their escaped spellings are accepted alongside literal separators.
func (c *Config) LineSeparator() string {
	switch strings.ToUpper(c.Output.LineSeparator) {
	case "", "LF", `\N`:
		return "\n"
	case "CRLF", `\R\N`:
		return "\r\n"
	case "CR", `\R`:
		return "\r"
	default:
		return c.Output.LineSeparator
	}
}

// LogLevel returns the parsed log.level.
func (c *Config) LogLevel() logging.LogLevel {
	level, _ := logging.ParseLevel(c.Log.Level)
	return level
}

func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// NewKeyReplacer maps nested keys to environment variable names.
func NewKeyReplacer() *strings.Replacer {
	return strings.NewReplacer(".", "_")
}
