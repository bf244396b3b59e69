package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/conneroisu/taglint/internal/checker"
	"github.com/conneroisu/taglint/internal/config"
	"github.com/conneroisu/taglint/internal/policy"
	"github.com/conneroisu/taglint/internal/report"
	"github.com/conneroisu/taglint/internal/scanner"
)

// ErrViolations is returned by check when forbidden tags were found.
var ErrViolations = errors.New("forbidden tags found")

type checkOptions struct {
	std       *StandardFlags
	failFast  bool
	noFail    bool
	gitignore bool
}

func newCheckCommand(a *app) *cobra.Command {
	opts := &checkOptions{}

	cmd := &cobra.Command{
		Use:     "check [path...]",
		Aliases: []string{"c"},
		Short:   "Check templates for forbidden tags",
		Long: `Check every template under the given paths (default: scan.paths, or ".")
against the configured policy and write a report.

A path may name a single file, which is checked whatever its extension, or a
directory, which is walked recursively for .jsp files and any additional
extensions. The exit status is 1 when violations are found (unless --no-fail)
or when a file could not be read.

Examples:
  taglint check --forbidden forbidden.csv webapp/
  taglint check --allowed allowed.txt -e '/generated/' -f xml -o report.xml .
  taglint check --ext .tag --ext .jspf --workers 4 src/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, a, opts, args)
		},
	}

	opts.std = AddStandardFlags(cmd, "output", "scan")
	cmd.Flags().String("forbidden", "", "Forbidden table: tag,attribute lines or a YAML document")
	cmd.Flags().String("allowed", "", "Allow table: one literal prefix per line or a YAML document")
	cmd.Flags().String("line-separator", "", "Line separator for XML output (LF, CRLF, CR)")
	cmd.Flags().String("template", "", "HTML template used with --format html")
	cmd.Flags().BoolVar(&opts.failFast, "fail-fast", false, "Stop at the first file that cannot be read")
	cmd.Flags().BoolVar(&opts.noFail, "no-fail", false, "Exit 0 even when violations are found")
	cmd.Flags().BoolVar(&opts.gitignore, "gitignore", true, "Skip files ignored by a .gitignore at each root")

	AddFlagValidation(cmd, "forbidden", ValidateFileExists)
	AddFlagValidation(cmd, "allowed", ValidateFileExists)
	AddFlagValidation(cmd, "template", ValidateFileExists)

	bindOnRun(cmd, a.v, outputBindings, scanBindings, map[string]string{
		"policy.forbidden":       "forbidden",
		"policy.allowed":         "allowed",
		"output.line_separator":  "line-separator",
		"output.template":        "template",
		"scan.respect_gitignore": "gitignore",
	})

	return cmd
}

func runCheck(cmd *cobra.Command, a *app, opts *checkOptions, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	if len(args) > 0 {
		cfg.Scan.Paths = args
	}

	s, err := newScanner(a, cfg, opts.failFast)
	if err != nil {
		return err
	}

	result, err := s.Run(ctx, cfg.Scan.Paths)
	if err != nil {
		return err
	}

	for _, ferr := range result.Errors {
		fmt.Fprintln(cmd.ErrOrStderr(), ferr)
	}

	rep := report.New(result.Files, result.Errors)
	if !opts.std.Quiet {
		if err := writeReport(cmd.OutOrStdout(), cfg, rep); err != nil {
			return err
		}
	}

	if len(result.Errors) > 0 {
		return fmt.Errorf("%d file(s) could not be read", len(result.Errors))
	}
	if n := rep.ViolationCount(); n > 0 && !opts.noFail {
		return fmt.Errorf("%w: %d violation(s) in %d file(s)", ErrViolations, n, len(rep.Items))
	}
	return nil
}

// newScanner loads the policy and builds a scanner from cfg.
func newScanner(a *app, cfg *config.Config, failFast bool) (*scanner.Scanner, error) {
	if err := cfg.RequirePolicy(); err != nil {
		return nil, err
	}
	p, err := policy.Load(policy.Options{
		ForbiddenPath: cfg.Policy.Forbidden,
		AllowedPath:   cfg.Policy.Allowed,
		Charset:       cfg.Scan.Charset,
	})
	if err != nil {
		return nil, err
	}

	exclude, err := cfg.ExcludePatterns()
	if err != nil {
		return nil, err
	}

	return scanner.New(checker.New(p), scanner.Options{
		Extensions:       cfg.AllExtensions(),
		Exclude:          exclude,
		RespectGitignore: cfg.Scan.RespectGitignore,
		Charset:          cfg.Scan.Charset,
		Workers:          cfg.Scan.Workers,
		MaxFileSize:      cfg.Scan.MaxFileSize,
		FailFast:         failFast,
	}, a.logger), nil
}

// writeReport renders rep to output.path, or to stdout when unset.
func writeReport(stdout io.Writer, cfg *config.Config, rep *report.Report) error {
	format, err := report.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}

	w := stdout
	if cfg.Output.Path != "" {
		f, err := os.Create(cfg.Output.Path)
		if err != nil {
			return fmt.Errorf("creating report file: %w", err)
		}
		defer f.Close()
		w = f
	}

	return report.Write(w, rep, format, report.Options{
		LineSeparator: cfg.LineSeparator(),
		Verbose:       cfg.Output.Verbose,
		TemplatePath:  cfg.Output.Template,
	})
}
