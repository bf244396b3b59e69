package markup

import (
	"slices"
	"strings"
)

// OpenTag is a tag whose terminator has not been seen yet. It carries the
// partial body state between lines; Advance turns it into a closed Tag.
type OpenTag struct {
	kind   Kind
	core   CoreType
	name   string
	line   int
	column int
	start  int

	attributes []Attribute
	buf        strings.Builder
	attrName   string
	hasName    bool
	quote      byte
	valueLine  int
	valuePos   int
	lastLine   int
	literal    bool
	dropped    int
	abandoned  bool
}

// Open starts an OpenTag for a match found on line lineNo.
func Open(m Match, line string, lineNo int) *OpenTag {
	return &OpenTag{
		kind:     m.Kind,
		core:     m.Core,
		name:     m.Name,
		line:     lineNo,
		column:   m.Column(line),
		start:    m.Start,
		lastLine: lineNo,
	}
}

// Kind returns the kind of the tag being parsed.
func (o *OpenTag) Kind() Kind { return o.kind }

// Line returns the line the tag opened on.
func (o *OpenTag) Line() int { return o.line }

// DroppedAttributes returns how many malformed attributes were discarded so far.
func (o *OpenTag) DroppedAttributes() int { return o.dropped }

// Abandoned reports whether Advance gave the tag up. The offset Advance
// returned then points at the construct that interrupted it.
func (o *OpenTag) Abandoned() bool { return o.abandoned }

// Advance consumes line (numbered lineNo) from offset. Once the close
// condition fires it returns the closed tag, the byte offset at which
// scanning of the line may resume, and true. Otherwise the tag stays open
// and the caller must feed it the next line from offset 0, unless it was
// Abandoned.
func (o *OpenTag) Advance(line string, lineNo, offset int) (Tag, int, bool) {
	switch o.kind {
	case KindHTMLComment:
		// the closing --> is not looked for
		return o.close(line, lineNo, o.start+1), o.start + 1, true
	case KindCore:
		return o.advanceCore(line, lineNo, offset)
	case KindExpression:
		return o.advanceExpression(line, lineNo, offset)
	case KindSuppress:
		return o.close(line, lineNo, offset), offset, true
	case KindDirective, KindElement:
		return o.advanceBody(line, lineNo, offset)
	default:
		return o.advanceBody(line, lineNo, offset)
	}
}

func (o *OpenTag) advanceCore(line string, lineNo, offset int) (Tag, int, bool) {
	delim := o.core.CloseDelimiter()
	if offset > len(line) {
		offset = len(line)
	}
	idx := strings.Index(line[offset:], delim)
	if idx < 0 {
		return Tag{}, len(line), false
	}
	end := offset + idx + len(delim)
	return o.close(line, lineNo, end), end, true
}

func (o *OpenTag) advanceExpression(line string, lineNo, offset int) (Tag, int, bool) {
	if lineNo != o.lastLine {
		o.lastLine = lineNo
		// quotes do not pair across lines
		o.literal = false
	}
	for i := offset; i < len(line); i++ {
		switch line[i] {
		case '\\':
			i++
		case '"', '\'':
			o.literal = !o.literal
		case '}':
			if o.literal {
				continue
			}
			return o.close(line, lineNo, i+1), i + 1, true
		}
	}
	return Tag{}, len(line), false
}

// advanceBody runs the attribute state machine shared by directives and
// elements. An unquoted '>' closes the tag. A plain element is abandoned at
// an unquoted '<' or "${", which never occur in real markup and usually mean
// the opener was a comparison inside script text.
func (o *OpenTag) advanceBody(line string, lineNo, offset int) (Tag, int, bool) {
	plain := o.kind == KindElement && !IsNamespaced(o.name)

	if lineNo != o.lastLine {
		o.lastLine = lineNo
		// a line break separates words like any other whitespace
		if o.quote == 0 && o.buf.Len() > 0 {
			o.buf.WriteByte(' ')
		}
	}

	for i := offset; i < len(line); i++ {
		c := line[i]

		if o.quote != 0 {
			switch c {
			case '\\':
				o.buf.WriteByte(c)
				if i+1 < len(line) {
					i++
					o.buf.WriteByte(line[i])
				}
			case o.quote:
				o.appendAttribute()
			default:
				o.buf.WriteByte(c)
			}
			continue
		}

		if o.hasName {
			switch {
			case c == '"' || c == '\'':
				o.quote = c
				o.valueLine = lineNo
				o.valuePos = columnAt(line, i+1)
				o.buf.Reset()
				continue
			case isSpace(c):
				continue
			default:
				// name= without a quoted value
				o.dropPending()
			}
		}

		if plain && (c == '<' || strings.HasPrefix(line[i:], "${")) {
			o.abandoned = true
			return Tag{}, i, false
		}

		switch {
		case c == '>':
			return o.close(line, lineNo, i+1), i + 1, true
		case c == '=':
			o.attrName = strings.TrimSpace(o.buf.String())
			o.hasName = true
			o.buf.Reset()
		default:
			if !isSpace(c) && o.buf.Len() > 0 && isSpace(o.lastBuffered()) {
				o.buf.Reset()
			}
			o.buf.WriteByte(c)
		}
	}
	return Tag{}, len(line), false
}

func (o *OpenTag) appendAttribute() {
	if o.attrName == "" {
		o.dropped++
	} else {
		o.attributes = append(o.attributes, Attribute{
			Name:     o.attrName,
			Value:    o.buf.String(),
			Line:     o.valueLine,
			Position: o.valuePos,
		})
	}
	o.resetAttribute()
}

func (o *OpenTag) dropPending() {
	o.dropped++
	o.resetAttribute()
}

func (o *OpenTag) resetAttribute() {
	o.attrName = ""
	o.hasName = false
	o.quote = 0
	o.valueLine = 0
	o.valuePos = 0
	o.buf.Reset()
}

func (o *OpenTag) lastBuffered() byte {
	s := o.buf.String()
	return s[len(s)-1]
}

func (o *OpenTag) close(line string, lineNo, end int) Tag {
	return Tag{
		kind:        o.kind,
		core:        o.core,
		name:        o.name,
		line:        o.line,
		column:      o.column,
		closeLine:   lineNo,
		closeColumn: columnAt(line, end),
		attributes:  slices.Clone(o.attributes),
	}
}
