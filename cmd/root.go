// Package cmd provides the taglint command-line interface.
//
// Configuration is resolved by viper with the usual precedence:
//
//  1. command-line flags
//  2. TAGLINT_* environment variables (TAGLINT_SCAN_WORKERS, TAGLINT_POLICY_FORBIDDEN, ...)
//  3. the file named by --config or TAGLINT_CONFIG_FILE
//  4. .taglint.yml in the working directory
//  5. built-in defaults
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/taglint/internal/config"
	"github.com/conneroisu/taglint/internal/logging"
)

// app carries the state shared by every subcommand of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	logger  logging.Logger
}

// Execute runs the root command against os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}

// NewRootCommand builds the full command tree with a fresh viper instance.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New(), logger: logging.NewNop()}

	root := &cobra.Command{
		Use:   "taglint",
		Short: "Find forbidden tags and attributes in server-page templates",
		Long: `taglint scans JSP templates for directives, scriptlets, expression-language
fragments, comments and custom tags that a policy forbids, and reports every
occurrence with its line and column.

Quick Start:
  taglint check --forbidden forbidden.csv src/main/webapp
  taglint check --allowed allowed.txt -f xml -o report.xml .
  taglint convert report.xml report.html
  taglint tags index.jsp`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.initConfig(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is .taglint.yml, can also use TAGLINT_CONFIG_FILE env var)")
	flags.StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text, json)")
	SetViperBindings(a.v, root.PersistentFlags(), map[string]string{
		"log.level":  "log-level",
		"log.format": "log-format",
	})

	root.AddCommand(
		newCheckCommand(a),
		newTagsCommand(a),
		newWatchCommand(a),
		newConvertCommand(a),
		newDiffCommand(a),
		newVersionCommand(a),
	)
	return root
}

// initConfig reads the configuration file and environment, then builds the logger.
func (a *app) initConfig(cmd *cobra.Command) error {
	explicit := true
	switch {
	case a.cfgFile != "":
		a.v.SetConfigFile(a.cfgFile)
	case os.Getenv("TAGLINT_CONFIG_FILE") != "":
		a.v.SetConfigFile(os.Getenv("TAGLINT_CONFIG_FILE"))
	default:
		explicit = false
		a.v.AddConfigPath(".")
		a.v.SetConfigType("yaml")
		a.v.SetConfigName(strings.TrimSuffix(config.FileName, ".yml"))
	}

	a.v.SetEnvPrefix("TAGLINT")
	a.v.SetEnvKeyReplacer(config.NewKeyReplacer())
	a.v.AutomaticEnv()

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !errors.As(err, &notFound) {
			return fmt.Errorf("reading config file: %w", err)
		}
	}

	level, err := logging.ParseLevel(a.v.GetString("log.level"))
	if err != nil {
		return err
	}
	a.logger = logging.NewLogger(&logging.LoggerConfig{
		Level:     level,
		Format:    a.v.GetString("log.format"),
		Output:    cmd.ErrOrStderr(),
		Component: "cli",
	})
	if used := a.v.ConfigFileUsed(); used != "" {
		a.logger.Debug(cmd.Context(), "Using config file", "path", used)
	}
	return nil
}

// loadConfig decodes and validates the merged configuration.
func (a *app) loadConfig() (*config.Config, error) {
	return config.LoadFrom(a.v)
}
