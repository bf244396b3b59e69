package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/taglint/internal/checker"
	"github.com/conneroisu/taglint/internal/scanner"
	"github.com/conneroisu/taglint/internal/watcher"
)

func newWatchCommand(a *app) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:     "watch [path...]",
		Aliases: []string{"w"},
		Short:   "Re-check templates whenever they change",
		Long: `Check every template under the given paths once, then keep watching them
and print the violations of each file as it is saved. Stop with Ctrl+C.

Examples:
  taglint watch --forbidden forbidden.csv webapp/
  taglint watch --debounce 500ms .`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, a, args, debounce)
		},
	}

	AddStandardFlags(cmd, "scan")
	cmd.Flags().String("forbidden", "", "Forbidden table: tag,attribute lines or a YAML document")
	cmd.Flags().String("allowed", "", "Allow table: one literal prefix per line or a YAML document")
	cmd.Flags().DurationVar(&debounce, "debounce", 300*time.Millisecond, "Wait this long after the last write before checking")
	AddFlagValidation(cmd, "forbidden", ValidateFileExists)
	AddFlagValidation(cmd, "allowed", ValidateFileExists)

	bindOnRun(cmd, a.v, scanBindings, map[string]string{
		"policy.forbidden": "forbidden",
		"policy.allowed":   "allowed",
	})

	return cmd
}

func runWatch(cmd *cobra.Command, a *app, args []string, debounce time.Duration) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	if len(args) > 0 {
		cfg.Scan.Paths = args
	}

	s, err := newScanner(a, cfg, false)
	if err != nil {
		return err
	}
	exclude, err := cfg.ExcludePatterns()
	if err != nil {
		return err
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()

	initial, err := s.Run(ctx, cfg.Scan.Paths)
	if err != nil {
		return err
	}
	for _, ferr := range initial.Errors {
		fmt.Fprintln(cmd.ErrOrStderr(), ferr)
	}
	for _, res := range initial.WithViolations() {
		printFileResult(out, res)
	}
	fmt.Fprintf(out, "%d violation(s) in %d file(s); watching for changes\n",
		initial.ViolationCount(), len(initial.WithViolations()))

	fw, err := watcher.NewFileWatcher(debounce, a.logger)
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer fw.Stop()

	exts := append([]string{scanner.DefaultExtension}, cfg.AllExtensions()...)
	fw.AddFilter(watcher.NoGitFilter)
	fw.AddFilter(watcher.ExtensionFilter(exts...))
	fw.AddFilter(watcher.ExcludeFilter(exclude))
	fw.AddHandler(func(ctx context.Context, events []watcher.ChangeEvent) error {
		return handleChanges(ctx, s, out, events)
	})

	for _, root := range cfg.Scan.Paths {
		if err := fw.AddRecursive(root); err != nil {
			return fmt.Errorf("watching %s: %w", root, err)
		}
	}
	if err := fw.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	a.logger.Info(context.Background(), "Watch stopped")
	return nil
}

// handleChanges re-checks each changed file and prints its current state.
func handleChanges(ctx context.Context, s *scanner.Scanner, out io.Writer, events []watcher.ChangeEvent) error {
	for _, ev := range events {
		path, err := filepath.Abs(ev.Path)
		if err != nil {
			path = ev.Path
		}
		if ev.Type == watcher.EventTypeDeleted || ev.Type == watcher.EventTypeRenamed {
			fmt.Fprintf(out, "%s: removed\n", path)
			continue
		}

		res, err := s.CheckFile(ctx, path)
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", path, err)
			continue
		}
		if len(res.Violations) == 0 {
			fmt.Fprintf(out, "%s: clean\n", path)
			continue
		}
		printFileResult(out, res)
	}
	return nil
}

func printFileResult(out io.Writer, res *checker.FileResult) {
	fmt.Fprintln(out, res.Path)
	for _, msg := range res.Messages() {
		fmt.Fprintf(out, "  %s\n", msg)
	}
}
