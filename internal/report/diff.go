package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Diff compares two reports line by line over their text rendering without
// the summary. Unchanged lines are prefixed with two spaces, removed lines
// with "- " and added lines with "+ ". The result is empty when the reports
// list the same violations.
func Diff(before, after *Report) (string, error) {
	a, err := listing(before)
	if err != nil {
		return "", err
	}
	b, err := listing(after)
	if err != nil {
		return "", err
	}
	if a == b {
		return "", nil
	}

	dmp := diffmatchpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), lines)

	var out strings.Builder
	for _, d := range diffs {
		prefix := "  "
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffEqual:
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			out.WriteString(prefix)
			out.WriteString(line)
			if !strings.HasSuffix(line, "\n") {
				out.WriteByte('\n')
			}
		}
	}
	return out.String(), nil
}

func listing(r *Report) (string, error) {
	var buf bytes.Buffer
	for _, item := range r.Items {
		if _, err := fmt.Fprintln(&buf, item.Path); err != nil {
			return "", err
		}
		for _, msg := range item.Errors {
			if _, err := fmt.Fprintf(&buf, "  %s\n", msg); err != nil {
				return "", err
			}
		}
	}
	return buf.String(), nil
}
