// Package markup turns server-page template text into a stream of tag
// occurrences.
//
// The package is a small state machine over raw characters. Find locates the
// next opening marker on a line, an OpenTag consumes characters (possibly
// across several lines) until its kind-specific close condition fires, and
// Walk drives both over a whole document, producing closed Tags in source
// order. Tags are immutable once closed; the only way to obtain one is from
// OpenTag.Advance or Walk.
//
// Malformed input is tolerated: a tag still open at end of input is discarded
// and an attribute name without a quoted value is dropped. Both are counted
// on the Document so callers can observe them.
package markup

import (
	"fmt"
	"regexp"
	"slices"
)

// Attribute is one name="value" pair captured inside a tag body. Value is the
// raw text between the quotes with escape sequences left in place. Line and
// Position locate the first character of the value (1-based).
type Attribute struct {
	Name     string `json:"name" yaml:"name"`
	Value    string `json:"value" yaml:"value"`
	Line     int    `json:"line" yaml:"line"`
	Position int    `json:"position" yaml:"position"`
}

// Tag is a closed markup occurrence.
type Tag struct {
	kind        Kind
	core        CoreType
	name        string
	line        int
	column      int
	closeLine   int
	closeColumn int
	attributes  []Attribute
	suppressed  bool
}

// Kind returns the construct that opened the tag.
func (t Tag) Kind() Kind { return t.kind }

// Core returns the core block type. It is only meaningful for KindCore.
func (t Tag) Core() CoreType { return t.core }

// Name returns the name used for policy lookups: the directive keyword, the
// element name without its leading '<', or the opener spelling for the other
// kinds.
func (t Tag) Name() string { return t.name }

// Line returns the 1-based line the tag opened on.
func (t Tag) Line() int { return t.line }

// Column returns the 1-based column the tag opened at.
func (t Tag) Column() int { return t.column }

// CloseLine returns the line the terminator was found on.
func (t Tag) CloseLine() int { return t.closeLine }

// CloseColumn returns the 1-based column just past the terminator.
func (t Tag) CloseColumn() int { return t.closeColumn }

// Suppressed reports whether a suppress marker on the preceding line
// disabled checks for this tag.
func (t Tag) Suppressed() bool { return t.suppressed }

// Attributes returns a copy of the captured attributes in scan order.
func (t Tag) Attributes() []Attribute { return slices.Clone(t.attributes) }

// Namespaced reports whether the tag is a tag-library element (<prefix:name>).
func (t Tag) Namespaced() bool {
	return t.kind == KindElement && IsNamespaced(t.name)
}

// Label returns the human-readable description of the construct.
func (t Tag) Label() string {
	return LabelOf(t.kind, t.core, t.name)
}

// LabelOf describes a construct of the given kind, core type and name.
func LabelOf(kind Kind, core CoreType, name string) string {
	switch kind {
	case KindDirective:
		return "JSP Directive: <%@ " + name + " %>"
	case KindHTMLComment:
		return "HTML Comment: <!-- xxx -->"
	case KindExpression:
		return "JSP EL Element: ${ xxx }"
	case KindCore:
		switch core {
		case CoreComment:
			return "JSP Comment: <%-- xxx --%>"
		case CoreDeclaration:
			return "JSP Declaration: <%! xxx %>"
		case CoreExpression:
			return "JSP Expression: <%= xxx %>"
		case CoreScriptlet:
			return "JSP Scriptlet: <% xxx %>"
		}
		return name
	case KindElement:
		return "Custom Tag: <" + name + ">"
	case KindSuppress:
		return "Suppress Marker"
	default:
		return name
	}
}

func (t Tag) String() string {
	return fmt.Sprintf("%s (at line=%d column=%d)", t.Label(), t.line, t.column)
}

// withSuppressed returns a copy of t marked as suppressed.
func (t Tag) withSuppressed() Tag {
	t.suppressed = true
	return t
}

var namespacedPattern = regexp.MustCompile(`^<?[^\s:<>]+:`)

// IsNamespaced reports whether name has the prefix:local shape of a
// tag-library element. A leading '<' is accepted.
func IsNamespaced(name string) bool {
	return namespacedPattern.MatchString(name)
}
