// Package policy holds the rule tables a checker consults: an exact-match
// table of forbidden tags and attributes, and a prefix-allow table for
// tag-library elements. Both are built once by a loader and are read-only
// afterwards, so a single value may be shared by concurrent scans.
package policy

import (
	"slices"
	"strings"
)

// ForbiddenTable maps lower-cased tag names to their forbidden attributes.
// A tag present with no attributes is forbidden outright.
type ForbiddenTable struct {
	rules map[string]map[string]struct{}
}

// NewForbiddenTable returns an empty table.
func NewForbiddenTable() *ForbiddenTable {
	return &ForbiddenTable{rules: make(map[string]map[string]struct{})}
}

// Add records a rule. An empty attr registers the tag without adding an
// attribute, so repeated lines for one tag merge their attribute sets.
func (t *ForbiddenTable) Add(tag, attr string) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	attrs, ok := t.rules[tag]
	if !ok {
		attrs = make(map[string]struct{})
		t.rules[tag] = attrs
	}
	attr = strings.ToLower(strings.TrimSpace(attr))
	if attr != "" {
		attrs[attr] = struct{}{}
	}
}

// Contains reports whether tag has any rule at all.
func (t *ForbiddenTable) Contains(tag string) bool {
	if t == nil {
		return false
	}
	_, ok := t.rules[strings.ToLower(tag)]
	return ok
}

// IsForbiddenTag reports whether tag is forbidden regardless of attributes.
func (t *ForbiddenTable) IsForbiddenTag(tag string) bool {
	if t == nil {
		return false
	}
	attrs, ok := t.rules[strings.ToLower(tag)]
	return ok && len(attrs) == 0
}

// IsForbiddenAttribute reports whether attr may not be used on tag.
func (t *ForbiddenTable) IsForbiddenAttribute(tag, attr string) bool {
	if t == nil {
		return false
	}
	attrs, ok := t.rules[strings.ToLower(tag)]
	if !ok {
		return false
	}
	_, ok = attrs[strings.ToLower(attr)]
	return ok
}

// Len returns the number of tags with rules.
func (t *ForbiddenTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rules)
}

// Rule is one tag with its forbidden attributes, as listed by Rules.
type Rule struct {
	Tag        string   `yaml:"tag" json:"tag"`
	Attributes []string `yaml:"attributes,omitempty" json:"attributes,omitempty"`
}

// Rules lists the table sorted by tag, attributes sorted within each rule.
func (t *ForbiddenTable) Rules() []Rule {
	if t == nil {
		return nil
	}
	rules := make([]Rule, 0, len(t.rules))
	for tag, attrs := range t.rules {
		r := Rule{Tag: tag}
		for a := range attrs {
			r.Attributes = append(r.Attributes, a)
		}
		slices.Sort(r.Attributes)
		rules = append(rules, r)
	}
	slices.SortFunc(rules, func(a, b Rule) int { return strings.Compare(a.Tag, b.Tag) })
	return rules
}
