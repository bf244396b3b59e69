package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/taglint/internal/errors"
	"github.com/conneroisu/taglint/internal/logging"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)

	assert.Equal(t, []string{"."}, cfg.Scan.Paths)
	assert.Equal(t, []string{".jsp"}, cfg.AllExtensions())
	assert.True(t, cfg.Scan.RespectGitignore)
	assert.Equal(t, "UTF-8", cfg.Scan.Charset)
	assert.GreaterOrEqual(t, cfg.Scan.Workers, 1)
	assert.LessOrEqual(t, cfg.Scan.Workers, 8)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.Equal(t, "\n", cfg.LineSeparator())
	assert.Equal(t, logging.LevelInfo, cfg.LogLevel())

	require.Error(t, cfg.RequirePolicy())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(`
policy:
  forbidden: rules/forbidden.csv
  allowed: rules/allowed.txt
scan:
  paths: [web, views]
  additional_extensions: [.jspf, .tag, .jsp]
  exclude: ['[/\\]generated[/\\]']
  respect_gitignore: false
  charset: Shift_JIS
  workers: 2
  max_file_size: 1048576
output:
  format: xml
  path: report.xml
  line_separator: CRLF
log:
  level: debug
  format: json
`), 0o644))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := LoadFrom(v)
	require.NoError(t, err)
	require.NoError(t, cfg.RequirePolicy())

	assert.Equal(t, "rules/forbidden.csv", cfg.Policy.Forbidden)
	assert.Equal(t, "rules/allowed.txt", cfg.Policy.Allowed)
	assert.Equal(t, []string{"web", "views"}, cfg.Scan.Paths)
	assert.Equal(t, []string{".jsp", ".jspf", ".tag"}, cfg.AllExtensions())
	assert.False(t, cfg.Scan.RespectGitignore)
	assert.Equal(t, 2, cfg.Scan.Workers)
	assert.Equal(t, int64(1048576), cfg.Scan.MaxFileSize)
	assert.Equal(t, "xml", cfg.Output.Format)
	assert.Equal(t, "\r\n", cfg.LineSeparator())
	assert.Equal(t, logging.LevelDebug, cfg.LogLevel())

	patterns, err := cfg.ExcludePatterns()
	require.NoError(t, err)
	require.Len(t, patterns, 1)
	assert.True(t, patterns[0].MatchString("/app/generated/x.jsp"))
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("TAGLINT_SCAN_PATHS", "a,b")
	t.Setenv("TAGLINT_OUTPUT_FORMAT", "json")

	v := viper.New()
	v.SetEnvPrefix("TAGLINT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(NewKeyReplacer())

	cfg, err := LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, cfg.Scan.Paths)
	assert.Equal(t, "json", cfg.Output.Format)
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   interface{}
		message string
	}{
		{name: "format", key: "output.format", value: "csv", message: "invalid output format"},
		{name: "exclude regex", key: "scan.exclude", value: []string{"("}, message: "invalid exclude pattern"},
		{name: "charset", key: "scan.charset", value: "klingon", message: "unknown charset"},
		{name: "workers", key: "scan.workers", value: 0, message: "scan.workers must be at least 1"},
		{name: "extension", key: "scan.additional_extensions", value: []string{"html"}, message: "must start with '.'"},
		{name: "max file size", key: "scan.max_file_size", value: -1, message: "must not be negative"},
		{name: "log level", key: "log.level", value: "loud", message: "unknown log level"},
		{name: "log format", key: "log.format", value: "xml", message: "log.format must be text or json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.value)

			cfg, err := LoadFrom(v)
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestLineSeparator(t *testing.T) {
	tests := map[string]string{
		"":     "\n",
		"lf":   "\n",
		`\n`:   "\n",
		"CRLF": "\r\n",
		`\r\n`: "\r\n",
		"cr":   "\r",
		"\r\n": "\r\n",
		";":    ";",
	}
	for in, want := range tests {
		cfg := &Config{Output: OutputConfig{LineSeparator: in}}
		assert.Equal(t, want, cfg.LineSeparator(), "input %q", in)
	}
}

func TestRequirePolicy(t *testing.T) {
	cfg := &Config{}
	err := cfg.RequirePolicy()
	require.Error(t, err)
	assert.True(t, errors.IsConfigError(err))

	cfg.Policy.Allowed = "allowed.txt"
	assert.NoError(t, cfg.RequirePolicy())
}
