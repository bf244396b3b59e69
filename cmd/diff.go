package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/taglint/internal/report"
)

func newDiffCommand(_ *app) *cobra.Command {
	var exitCode bool

	cmd := &cobra.Command{
		Use:   "diff <old.xml> <new.xml>",
		Short: "Compare two XML reports",
		Long: `Show which violations were added or removed between two reports written
with --format xml. Removed lines start with "- ", added lines with "+ ".

Examples:
  taglint diff main.xml branch.xml
  taglint diff --exit-code before.xml after.xml`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			before, err := readXMLReport(args[0])
			if err != nil {
				return err
			}
			after, err := readXMLReport(args[1])
			if err != nil {
				return err
			}

			diff, err := report.Diff(before, after)
			if err != nil {
				return err
			}
			if diff == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "No differences.")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), diff)
			if exitCode {
				return fmt.Errorf("reports differ")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&exitCode, "exit-code", false, "Exit with status 1 when the reports differ")
	return cmd
}
