package policy

import (
	"slices"
	"strings"

	"github.com/conneroisu/taglint/internal/markup"
)

// PrefixTable is an allow-list of literal prefixes. Entries are compared
// case-sensitively, exactly as written.
type PrefixTable struct {
	entries map[string]struct{}
	ordered []string
}

// NewPrefixTable returns a table holding the given entries.
func NewPrefixTable(entries ...string) *PrefixTable {
	t := &PrefixTable{entries: make(map[string]struct{})}
	for _, e := range entries {
		t.Add(e)
	}
	return t
}

// Add registers a trimmed entry. Blank entries are ignored.
func (t *PrefixTable) Add(entry string) {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return
	}
	if _, ok := t.entries[entry]; ok {
		return
	}
	t.entries[entry] = struct{}{}
	t.ordered = append(t.ordered, entry)
}

// IsForbidden reports whether name is outside the allow-list. A name without
// the prefix:local shape must be listed literally; a namespaced name is
// allowed when any entry is a prefix of it.
func (t *PrefixTable) IsForbidden(name string) bool {
	if t == nil {
		return false
	}
	if !markup.IsNamespaced(name) {
		_, ok := t.entries[name]
		return !ok
	}
	for _, e := range t.ordered {
		if strings.HasPrefix(name, e) {
			return false
		}
	}
	return true
}

// Entries returns the entries in insertion order.
func (t *PrefixTable) Entries() []string {
	if t == nil {
		return nil
	}
	return slices.Clone(t.ordered)
}

// Len returns the number of entries.
func (t *PrefixTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.ordered)
}
