package report

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/conneroisu/taglint/internal/errors"
)

// WriteXML writes the <result> document with two-space indentation. sep
// replaces the newline between elements; an empty sep means "\n".
func WriteXML(w io.Writer, r *Report, sep string) error {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)

	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	buf.WriteByte('\n')

	out := buf.String()
	if sep != "" && sep != "\n" {
		out = strings.ReplaceAll(out, "\n", sep)
	}
	_, err := io.WriteString(w, out)
	return err
}

// ReadXML parses a document written by WriteXML.
func ReadXML(rd io.Reader) (*Report, error) {
	var r Report
	if err := xml.NewDecoder(rd).Decode(&r); err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidArgument, "not a taglint XML report").
			WithCause(err)
	}
	return &r, nil
}
