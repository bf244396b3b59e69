package policy

import (
	"github.com/conneroisu/taglint/internal/markup"
)

// Policy combines the two tables. Either may be nil when not configured.
type Policy struct {
	Forbidden *ForbiddenTable
	Allowed   *PrefixTable
}

// New returns a policy over the given tables.
func New(forbidden *ForbiddenTable, allowed *PrefixTable) *Policy {
	return &Policy{Forbidden: forbidden, Allowed: allowed}
}

// IsForbiddenTag reports whether a construct of the given kind and lookup
// name is forbidden. The exact-match table applies to every kind. The
// prefix-allow table applies to every kind except plain elements such as
// <img>, which it would otherwise reject wholesale.
func (p *Policy) IsForbiddenTag(kind markup.Kind, name string) bool {
	if p == nil {
		return false
	}
	if p.Forbidden.IsForbiddenTag(name) {
		return true
	}
	if p.Allowed == nil {
		return false
	}
	if kind == markup.KindElement && !markup.IsNamespaced(name) {
		return false
	}
	for _, key := range allowKeys(kind, name) {
		if !p.Allowed.IsForbidden(key) {
			return false
		}
	}
	return true
}

// IsForbiddenAttribute reports whether attr may not be used on the named tag.
func (p *Policy) IsForbiddenAttribute(name, attr string) bool {
	if p == nil {
		return false
	}
	return p.Forbidden.IsForbiddenAttribute(name, attr)
}

// allowKeys lists the spellings an allow-list entry may use for a construct:
// the bare lookup name, and for directives and elements the spelling with
// its opener, such as "<%@ page" or "<c:out".
func allowKeys(kind markup.Kind, name string) []string {
	switch kind {
	case markup.KindDirective:
		return []string{name, "<%@ " + name}
	case markup.KindElement:
		return []string{name, "<" + name}
	case markup.KindHTMLComment, markup.KindExpression, markup.KindCore, markup.KindSuppress:
		return []string{name}
	default:
		return []string{name}
	}
}
