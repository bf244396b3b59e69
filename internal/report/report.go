// Package report maps check results to the persisted report formats: the
// XML document consumed by downstream tooling, JSON, YAML, a plain-text
// listing, and an HTML page rendered from the XML form.
package report

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/conneroisu/taglint/internal/checker"
	"github.com/conneroisu/taglint/internal/errors"
)

// Format names an output format.
type Format string

const (
	FormatText Format = "text"
	FormatXML  Format = "xml"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatHTML Format = "html"
)

// Formats lists every supported format.
var Formats = []Format{FormatText, FormatXML, FormatJSON, FormatYAML, FormatHTML}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(Formats, f) {
		return f, nil
	}
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return "", errors.NewValidationError(errors.ErrCodeUnsupportedValue,
		fmt.Sprintf("invalid output format %s, must be one of: %s", s, strings.Join(names, ", ")))
}

// Entry lists the violations of one file.
type Entry struct {
	Path       string              `xml:"path" json:"path" yaml:"path"`
	Errors     []string            `xml:"errors>error" json:"errors" yaml:"errors"`
	Violations []checker.Violation `xml:"-" json:"violations,omitempty" yaml:"violations,omitempty"`
}

// Report maps file paths to their violation messages. Items keep the order
// in which files were discovered; files without violations are omitted.
type Report struct {
	XMLName xml.Name `xml:"result" json:"-" yaml:"-"`
	Items   []Entry  `xml:"item" json:"items" yaml:"items"`
	// Checked is the number of files checked, including clean ones.
	Checked int `xml:"-" json:"checked" yaml:"checked"`
	// Unreadable lists files that could not be checked.
	Unreadable []string `xml:"-" json:"unreadable,omitempty" yaml:"unreadable,omitempty"`
}

// New builds a report from per-file results.
func New(files []*checker.FileResult, failures []error) *Report {
	r := &Report{Checked: len(files)}
	for _, f := range files {
		if len(f.Violations) == 0 {
			continue
		}
		r.Items = append(r.Items, Entry{
			Path:       f.Path,
			Errors:     f.Messages(),
			Violations: slices.Clone(f.Violations),
		})
	}
	for _, err := range failures {
		r.Unreadable = append(r.Unreadable, err.Error())
	}
	return r
}

// ViolationCount sums the messages over all entries.
func (r *Report) ViolationCount() int {
	n := 0
	for _, item := range r.Items {
		n += len(item.Errors)
	}
	return n
}

// Options tune the writers.
type Options struct {
	// LineSeparator replaces "\n" in XML output.
	LineSeparator string
	// Verbose adds construct labels to text output.
	Verbose bool
	// TemplatePath overrides the built-in HTML template.
	TemplatePath string
}

// Write renders r in format f.
func Write(w io.Writer, r *Report, f Format, opts Options) error {
	switch f {
	case FormatXML:
		return WriteXML(w, r, opts.LineSeparator)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(r)
	case FormatHTML:
		tmpl, err := LoadTemplate(opts.TemplatePath)
		if err != nil {
			return err
		}
		return WriteHTML(w, r, tmpl)
	case FormatText:
		return WriteText(w, r, opts.Verbose)
	default:
		return errors.NewValidationError(errors.ErrCodeUnsupportedValue, fmt.Sprintf("unsupported format: %s", f))
	}
}

// WriteText lists every file followed by its indented messages, then a
// one-line summary.
func WriteText(w io.Writer, r *Report, verbose bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, item := range r.Items {
		fmt.Fprintln(tw, item.Path)
		for i, msg := range item.Errors {
			if verbose && i < len(item.Violations) {
				fmt.Fprintf(tw, "  %s\t%s\n", msg, item.Violations[i].Label)
				continue
			}
			fmt.Fprintf(tw, "  %s\n", msg)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d violation(s) in %d file(s), %d file(s) checked\n",
		r.ViolationCount(), len(r.Items), r.Checked)
	return err
}
