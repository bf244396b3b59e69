package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/conneroisu/taglint/internal/report"
)

// StandardFlags provides consistent flag definitions across commands
type StandardFlags struct {
	// Output flags
	Format  string `flag:"format,f" desc:"Report format (text|xml|json|yaml|html)" default:"text"`
	Output  string `flag:"output,o" desc:"Write the report to a file instead of stdout" default:""`
	Verbose bool   `flag:"verbose,v" desc:"Show construct labels next to messages" default:"false"`
	Quiet   bool   `flag:"quiet,q" desc:"Do not write the report, only set the exit status" default:"false"`

	// Scan flags
	Exclude   []string `flag:"exclude,e" desc:"Regular expression matched against absolute paths to skip"`
	Extension []string `flag:"ext" desc:"Additional file extension to check"`
	Charset   string   `flag:"charset" desc:"Charset of templates and policy files" default:"UTF-8"`
	Workers   int      `flag:"workers,w" desc:"Number of files checked concurrently"`
}

// AddStandardFlags adds standard flags to a command
func AddStandardFlags(cmd *cobra.Command, flagTypes ...string) *StandardFlags {
	flags := &StandardFlags{}

	for _, flagType := range flagTypes {
		switch flagType {
		case "output":
			addOutputFlags(cmd, flags)
		case "scan":
			addScanFlags(cmd, flags)
		}
	}

	return flags
}

func addOutputFlags(cmd *cobra.Command, flags *StandardFlags) {
	cmd.Flags().StringVarP(&flags.Format, "format", "f", string(report.FormatText), "Report format (text|xml|json|yaml|html)")
	cmd.Flags().StringVarP(&flags.Output, "output", "o", "", "Write the report to a file instead of stdout")
	cmd.Flags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Show construct labels next to messages")
	cmd.Flags().BoolVarP(&flags.Quiet, "quiet", "q", false, "Do not write the report, only set the exit status")

	AddFlagValidation(cmd, "format", func(s string) error {
		_, err := report.ParseFormat(s)
		return err
	})
}

func addScanFlags(cmd *cobra.Command, flags *StandardFlags) {
	cmd.Flags().StringSliceVarP(&flags.Exclude, "exclude", "e", nil, "Regular expression matched against absolute paths to skip (repeatable)")
	cmd.Flags().StringSliceVar(&flags.Extension, "ext", nil, "Additional file extension to check (repeatable)")
	cmd.Flags().StringVar(&flags.Charset, "charset", "UTF-8", "Charset of templates and policy files")
	cmd.Flags().IntVarP(&flags.Workers, "workers", "w", 0, "Number of files checked concurrently (default NumCPU, at most 8)")

	AddFlagValidation(cmd, "workers", func(s string) error {
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("workers must be a number: %w", err)
		}
		if n < 1 {
			return fmt.Errorf("workers must be at least 1, got %d", n)
		}
		return nil
	})
}

// outputBindings maps configuration keys to the output flags.
var outputBindings = map[string]string{
	"output.format":  "format",
	"output.path":    "output",
	"output.verbose": "verbose",
}

// scanBindings maps configuration keys to the scan flags.
var scanBindings = map[string]string{
	"scan.exclude":               "exclude",
	"scan.additional_extensions": "ext",
	"scan.charset":               "charset",
	"scan.workers":               "workers",
}

// SetViperBindings binds each configuration key to the named flag. Flags
// that are not defined are skipped.
func SetViperBindings(v *viper.Viper, flags *pflag.FlagSet, bindings map[string]string) {
	for key, name := range bindings {
		if f := flags.Lookup(name); f != nil {
			_ = v.BindPFlag(key, f)
		}
	}
}

// bindOnRun binds the command's flags just before it runs, so commands that
// share configuration keys do not steal each other's bindings.
func bindOnRun(cmd *cobra.Command, v *viper.Viper, bindings ...map[string]string) {
	cmd.PreRun = func(cmd *cobra.Command, _ []string) {
		for _, b := range bindings {
			SetViperBindings(v, cmd.Flags(), b)
		}
	}
}

// AddFlagValidation adds validation to a flag
func AddFlagValidation(cmd *cobra.Command, flagName string, validator func(string) error) {
	flag := cmd.Flags().Lookup(flagName)
	if flag == nil {
		return
	}

	flag.Value = &validatingValue{
		Value:     flag.Value,
		validator: validator,
	}
}

// validatingValue wraps a pflag.Value with validation
type validatingValue struct {
	pflag.Value
	validator func(string) error
}

func (v *validatingValue) Set(val string) error {
	if err := v.validator(val); err != nil {
		return err
	}

	return v.Value.Set(val)
}

// ValidateFileExists validates that a file exists
func ValidateFileExists(filename string) error {
	if filename == "" {
		return nil
	}
	info, err := os.Stat(filename)
	if err != nil {
		return fmt.Errorf("file does not exist: %s", filename)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", filename)
	}
	return nil
}
