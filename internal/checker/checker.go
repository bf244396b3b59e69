// Package checker cross-references walked tags against a policy and
// produces ordered violations per file.
package checker

import (
	"cmp"
	"fmt"
	"io"
	"slices"

	"github.com/conneroisu/taglint/internal/errors"
	"github.com/conneroisu/taglint/internal/markup"
	"github.com/conneroisu/taglint/internal/policy"
)

// Violation is one forbidden use found in a file.
type Violation struct {
	Tag       string      `json:"tag" yaml:"tag"`
	Attribute string      `json:"attribute,omitempty" yaml:"attribute,omitempty"`
	Line      int         `json:"line" yaml:"line"`
	Column    int         `json:"column" yaml:"column"`
	Kind      markup.Kind `json:"-" yaml:"-"`
	Label     string      `json:"label" yaml:"label"`
	// Nested is set when the construct was found inside an attribute value.
	Nested bool `json:"nested,omitempty" yaml:"nested,omitempty"`
}

// Message renders the violation the way reports list it.
func (v Violation) Message() string {
	if v.Attribute != "" {
		return fmt.Sprintf("(%s, %s) at line %d column %d is forbidden.", v.Tag, v.Attribute, v.Line, v.Column)
	}
	return fmt.Sprintf("(%s) at line %d column %d is forbidden.", v.Tag, v.Line, v.Column)
}

// FileResult is the outcome of checking one file.
type FileResult struct {
	Path       string      `json:"path" yaml:"path"`
	Violations []Violation `json:"violations" yaml:"violations"`
	Tags       int         `json:"tags" yaml:"tags"`
	Suppressed int         `json:"suppressed" yaml:"suppressed"`
	// Discarded counts tags left open at end of input or abandoned mid-body.
	Discarded int `json:"discarded" yaml:"discarded"`
	// DroppedAttributes counts attribute names without a quoted value.
	DroppedAttributes int `json:"dropped_attributes" yaml:"dropped_attributes"`
}

// Messages returns the rendered violations in order.
func (r *FileResult) Messages() []string {
	msgs := make([]string, len(r.Violations))
	for i, v := range r.Violations {
		msgs[i] = v.Message()
	}
	return msgs
}

// Checker evaluates documents against a policy. It holds no per-file state
// and is safe for concurrent use.
type Checker struct {
	policy *policy.Policy
}

// New creates a checker for p.
func New(p *policy.Policy) *Checker {
	return &Checker{policy: p}
}

// Check returns the violations in doc sorted by line, then column.
func (c *Checker) Check(doc *markup.Document) []Violation {
	var violations []Violation
	for _, tag := range doc.Tags {
		violations = append(violations, c.checkTag(tag)...)
	}
	slices.SortStableFunc(violations, func(a, b Violation) int {
		if n := cmp.Compare(a.Line, b.Line); n != 0 {
			return n
		}
		return cmp.Compare(a.Column, b.Column)
	})
	return violations
}

// CheckReader walks r and checks the result. path is only recorded.
func (c *Checker) CheckReader(path string, r io.Reader) (*FileResult, error) {
	doc, err := markup.Walk(r)
	if err != nil {
		return nil, errors.ErrUnreadable(path, err)
	}
	result := &FileResult{
		Path:              path,
		Violations:        c.Check(doc),
		Tags:              len(doc.Tags),
		Discarded:         doc.Discarded,
		DroppedAttributes: doc.DroppedAttributes,
	}
	for _, tag := range doc.Tags {
		if tag.Suppressed() {
			result.Suppressed++
		}
	}
	return result, nil
}

func (c *Checker) checkTag(tag markup.Tag) []Violation {
	if tag.Suppressed() {
		return nil
	}

	var found []Violation
	tagForbidden := c.policy.IsForbiddenTag(tag.Kind(), tag.Name())
	if tagForbidden {
		found = append(found, Violation{
			Tag:    tag.Name(),
			Line:   tag.Line(),
			Column: tag.Column(),
			Kind:   tag.Kind(),
			Label:  tag.Label(),
		})
	}

	attrs := tag.Attributes()
	// tag-library and directive attributes legitimately carry EL
	skipEL := tag.Kind() == markup.KindDirective || tag.Namespaced()
	for _, attr := range attrs {
		found = append(found, c.checkValue(attr, skipEL)...)
	}

	if tagForbidden {
		return found
	}
	for _, attr := range attrs {
		if c.policy.IsForbiddenAttribute(tag.Name(), attr.Name) {
			found = append(found, Violation{
				Tag:       tag.Name(),
				Attribute: attr.Name,
				Line:      attr.Line,
				Column:    attr.Position,
				Kind:      tag.Kind(),
				Label:     tag.Label(),
			})
		}
	}
	return found
}

// checkValue rescans an attribute value for constructs hidden inside it.
// Expression-language fragments are skipped when skipEL is set. A suppress
// marker inside a value suppresses nothing and is checked as the comment
// block it is.
func (c *Checker) checkValue(attr markup.Attribute, skipEL bool) []Violation {
	var found []Violation
	offset := 0
	for {
		m, ok := markup.Find(attr.Value, offset)
		if !ok {
			return found
		}
		offset = m.Start + 1

		if m.Kind == markup.KindExpression && skipEL {
			continue
		}
		if m.Kind == markup.KindSuppress {
			m.Kind, m.Core, m.Name = markup.KindCore, markup.CoreComment, "<%--"
		}
		if c.policy.IsForbiddenTag(m.Kind, m.Name) {
			found = append(found, Violation{
				Tag:    m.Name,
				Line:   attr.Line,
				Column: attr.Position + m.Column(attr.Value) - 1,
				Kind:   m.Kind,
				Label:  markup.LabelOf(m.Kind, m.Core, m.Name),
				Nested: true,
			})
		}
	}
}
