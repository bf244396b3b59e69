package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/conneroisu/taglint/internal/report"
)

func newConvertCommand(a *app) *cobra.Command {
	var templatePath string

	cmd := &cobra.Command{
		Use:   "convert <report.xml> [out.html]",
		Short: "Render an XML report as an HTML page",
		Long: `Read a report written with --format xml and render it as an HTML page,
using the built-in page or the html/template file given with --template.
The page is written to out.html, or to stdout when no output file is given.

Examples:
  taglint convert report.xml report.html
  taglint convert --template team.tmpl report.xml > report.html`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := readXMLReport(args[0])
			if err != nil {
				return err
			}
			tmpl, err := report.LoadTemplate(templatePath)
			if err != nil {
				return err
			}

			if len(args) == 1 {
				return report.WriteHTML(cmd.OutOrStdout(), rep, tmpl)
			}

			f, err := os.Create(args[1])
			if err != nil {
				return fmt.Errorf("creating %s: %w", args[1], err)
			}
			if err := report.WriteHTML(f, rep, tmpl); err != nil {
				f.Close()
				return err
			}
			a.logger.Info(cmd.Context(), "Report converted", "input", args[0], "output", args[1], "items", len(rep.Items))
			return f.Close()
		},
	}

	cmd.Flags().StringVar(&templatePath, "template", "", "html/template file used instead of the built-in page")
	AddFlagValidation(cmd, "template", ValidateFileExists)

	return cmd
}

func readXMLReport(path string) (*report.Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening report: %w", err)
	}
	defer f.Close()

	rep, err := report.ReadXML(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rep, nil
}
