package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/taglint/internal/charset"
	"github.com/conneroisu/taglint/internal/markup"
)

// tagRow is one occurrence in the tags listing.
type tagRow struct {
	Kind       string             `json:"kind" yaml:"kind"`
	Name       string             `json:"name" yaml:"name"`
	Line       int                `json:"line" yaml:"line"`
	Column     int                `json:"column" yaml:"column"`
	Suppressed bool               `json:"suppressed,omitempty" yaml:"suppressed,omitempty"`
	Label      string             `json:"label" yaml:"label"`
	Attributes []markup.Attribute `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

type tagListing struct {
	Path              string   `json:"path" yaml:"path"`
	Tags              []tagRow `json:"tags" yaml:"tags"`
	Discarded         int      `json:"discarded" yaml:"discarded"`
	DroppedAttributes int      `json:"dropped_attributes" yaml:"dropped_attributes"`
}

func newTagsCommand(a *app) *cobra.Command {
	var format, charsetName string

	cmd := &cobra.Command{
		Use:     "tags <file>",
		Aliases: []string{"t"},
		Short:   "List every construct found in a template",
		Long: `Print the tags recognised in one template with their kind, position,
attributes and display label. Useful for writing policy files and for
understanding why a line was or was not reported.

Examples:
  taglint tags index.jsp
  taglint tags --format json header.jspf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := charset.Open(args[0], charsetName)
			if err != nil {
				return err
			}
			defer r.Close()

			doc, err := markup.Walk(r)
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			a.logger.Debug(cmd.Context(), "Template walked", "path", args[0], "tags", len(doc.Tags))
			return writeTags(cmd.OutOrStdout(), listingOf(args[0], doc), format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format (table|json|yaml)")
	cmd.Flags().StringVar(&charsetName, "charset", charset.Default, "Charset of the template")
	AddFlagValidation(cmd, "format", func(s string) error {
		switch s {
		case "table", "json", "yaml":
			return nil
		}
		return fmt.Errorf("invalid format %s, must be one of: table, json, yaml", s)
	})

	return cmd
}

func listingOf(path string, doc *markup.Document) tagListing {
	listing := tagListing{
		Path:              path,
		Tags:              make([]tagRow, 0, len(doc.Tags)),
		Discarded:         doc.Discarded,
		DroppedAttributes: doc.DroppedAttributes,
	}
	for _, tag := range doc.Tags {
		listing.Tags = append(listing.Tags, tagRow{
			Kind:       tag.Kind().String(),
			Name:       tag.Name(),
			Line:       tag.Line(),
			Column:     tag.Column(),
			Suppressed: tag.Suppressed(),
			Label:      tag.Label(),
			Attributes: tag.Attributes(),
		})
	}
	return listing
}

func writeTags(w io.Writer, listing tagListing, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(listing)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(listing)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LINE\tCOLUMN\tKIND\tNAME\tSUPPRESSED\tATTRIBUTES\tLABEL")
	for _, row := range listing.Tags {
		attrs := make([]string, len(row.Attributes))
		for i, attr := range row.Attributes {
			attrs[i] = fmt.Sprintf("%s=%q", attr.Name, attr.Value)
		}
		suppressed := ""
		if row.Suppressed {
			suppressed = "yes"
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\t%s\n",
			row.Line, row.Column, row.Kind, row.Name, suppressed, strings.Join(attrs, " "), row.Label)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d tag(s), %d discarded, %d attribute(s) dropped\n",
		len(listing.Tags), listing.Discarded, listing.DroppedAttributes)
	return err
}
