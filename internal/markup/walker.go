package markup

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Document is the result of walking one input: its closed tags in source
// order plus counters for the constructs that were tolerated and dropped.
type Document struct {
	Tags []Tag
	// Discarded counts tags still open when the input ended and plain
	// elements abandoned because markup interrupted them.
	Discarded int
	// DroppedAttributes counts attribute names that never received a quoted value.
	DroppedAttributes int
	// Lines is the number of lines read.
	Lines int
}

// Walk reads r line by line and returns every closed tag. A suppress marker
// on line N marks the first tag that opens on line N+1 as suppressed; the
// marker itself is not part of the output.
func Walk(r io.Reader) (*Document, error) {
	lines := newLineReader(r)
	doc := &Document{}

	var (
		open        *OpenTag
		line        string
		lineNo      int
		offset      int
		suppressOn  int
		needNewLine = true
	)

	for {
		if needNewLine {
			next, err := lines.next()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("reading line %d: %w", lineNo+1, err)
			}
			line = next
			lineNo++
			offset = 0
			needNewLine = false
		}

		if open == nil {
			m, ok := Find(line, offset)
			if !ok {
				needNewLine = true
				continue
			}
			if m.Kind == KindSuppress {
				suppressOn = lineNo + 1
				offset = m.End
				continue
			}
			open = Open(m, line, lineNo)
			offset = m.End
		}

		tag, next, closed := open.Advance(line, lineNo, offset)
		if !closed && open.Abandoned() {
			doc.Discarded++
			doc.DroppedAttributes += open.DroppedAttributes()
			open = nil
			offset = next
			continue
		}
		if !closed {
			needNewLine = true
			continue
		}
		doc.DroppedAttributes += open.DroppedAttributes()
		open = nil
		offset = next

		if tag.line == suppressOn {
			tag = tag.withSuppressed()
			suppressOn = 0
		}
		doc.Tags = append(doc.Tags, tag)
	}

	if open != nil {
		doc.Discarded++
		doc.DroppedAttributes += open.DroppedAttributes()
	}
	doc.Lines = lineNo
	return doc, nil
}

// WalkString is Walk over an in-memory document.
func WalkString(s string) *Document {
	// reading from a strings.Reader cannot fail
	doc, _ := Walk(strings.NewReader(s))
	return doc
}

// lineReader splits input on \n, \r\n or a lone \r without limiting line length.
type lineReader struct {
	r *bufio.Reader
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReader(r)}
}

func (l *lineReader) next() (string, error) {
	var sb strings.Builder
	for {
		c, err := l.r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) && sb.Len() > 0 {
				return sb.String(), nil
			}
			return "", err
		}
		switch c {
		case '\n':
			return sb.String(), nil
		case '\r':
			if p, err := l.r.Peek(1); err == nil && p[0] == '\n' {
				_, _ = l.r.ReadByte()
			}
			return sb.String(), nil
		default:
			sb.WriteByte(c)
		}
	}
}
