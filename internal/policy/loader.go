package policy

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/conneroisu/taglint/internal/charset"
	"github.com/conneroisu/taglint/internal/errors"
)

// CommentMarker starts a line that loaders ignore.
const CommentMarker = "--"

// Options locate the policy sources.
type Options struct {
	ForbiddenPath string
	AllowedPath   string
	Charset       string
}

// forbiddenDocument is the YAML form of a forbidden table.
type forbiddenDocument struct {
	Forbidden []Rule `yaml:"forbidden"`
}

// allowedDocument is the YAML form of a prefix-allow table.
type allowedDocument struct {
	Allowed []string `yaml:"allowed"`
}

// Load reads every configured table. At least one path must be set.
func Load(opts Options) (*Policy, error) {
	if opts.ForbiddenPath == "" && opts.AllowedPath == "" {
		return nil, errors.NewConfigError(errors.ErrCodeConfigInvalid,
			"enter configuration path: set policy.forbidden or policy.allowed")
	}

	p := &Policy{}
	if opts.ForbiddenPath != "" {
		t, err := LoadForbidden(opts.ForbiddenPath, opts.Charset)
		if err != nil {
			return nil, err
		}
		p.Forbidden = t
	}
	if opts.AllowedPath != "" {
		t, err := LoadAllowed(opts.AllowedPath, opts.Charset)
		if err != nil {
			return nil, err
		}
		p.Allowed = t
	}
	return p, nil
}

// LoadForbidden reads an exact-match table from path. Files ending in .yml
// or .yaml are parsed as YAML documents, anything else as tag,attr lines.
func LoadForbidden(path, charsetName string) (*ForbiddenTable, error) {
	r, err := charset.Open(path, charsetName)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	if isYAML(path) {
		return ParseForbiddenYAML(r, path)
	}
	return ParseForbidden(r, path)
}

// ParseForbidden reads tag,attr lines. Blank lines and lines starting with
// CommentMarker are skipped. Every other line must split on commas into
// exactly two fields and name a tag; source is used in error messages.
func ParseForbidden(r io.Reader, source string) (*ForbiddenTable, error) {
	t := NewForbiddenTable()
	err := eachLine(r, source, func(lineNo int, line string) error {
		fields := strings.Split(line, ",")
		if len(fields) != 2 {
			return errors.ErrPolicyLine(source, lineNo, "each line must have exactly two elements")
		}
		if strings.TrimSpace(fields[0]) == "" {
			return errors.ErrPolicyLine(source, lineNo, "tag name (1st column) must not be empty")
		}
		t.Add(fields[0], fields[1])
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ParseForbiddenYAML reads a document of the form
//
//	forbidden:
//	  - tag: img
//	    attributes: [onerror, onload]
//	  - tag: page
func ParseForbiddenYAML(r io.Reader, source string) (*ForbiddenTable, error) {
	var doc forbiddenDocument
	if err := decodeYAML(r, source, &doc); err != nil {
		return nil, err
	}
	t := NewForbiddenTable()
	for i, rule := range doc.Forbidden {
		if strings.TrimSpace(rule.Tag) == "" {
			return nil, errors.NewConfigError(errors.ErrCodePolicyMalformed,
				fmt.Sprintf("rule %d: tag name must not be empty", i+1)).WithLocation(source, 0, 0)
		}
		t.Add(rule.Tag, "")
		for _, attr := range rule.Attributes {
			t.Add(rule.Tag, attr)
		}
	}
	return t, nil
}

// LoadAllowed reads a prefix-allow table from path.
func LoadAllowed(path, charsetName string) (*PrefixTable, error) {
	r, err := charset.Open(path, charsetName)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	if isYAML(path) {
		return ParseAllowedYAML(r, path)
	}
	return ParseAllowed(r, path)
}

// ParseAllowed reads one allowed literal per line.
func ParseAllowed(r io.Reader, source string) (*PrefixTable, error) {
	t := NewPrefixTable()
	err := eachLine(r, source, func(_ int, line string) error {
		t.Add(line)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ParseAllowedYAML reads a document with an "allowed" list of literals.
func ParseAllowedYAML(r io.Reader, source string) (*PrefixTable, error) {
	var doc allowedDocument
	if err := decodeYAML(r, source, &doc); err != nil {
		return nil, err
	}
	return NewPrefixTable(doc.Allowed...), nil
}

// eachLine calls fn with the trimmed content of every rule line.
func eachLine(r io.Reader, source string, fn func(lineNo int, line string) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, CommentMarker) {
			continue
		}
		if err := fn(lineNo, line); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return errors.NewIOError(errors.ErrCodeFileUnreadable, "can't read policy file", err).
			WithLocation(source, lineNo+1, 0)
	}
	return nil
}

func decodeYAML(r io.Reader, source string, out any) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && err != io.EOF {
		return &errors.TaglintError{
			Type:     errors.ErrorTypeConfig,
			Code:     errors.ErrCodePolicyMalformed,
			Message:  "invalid policy document",
			Cause:    err,
			FilePath: source,
		}
	}
	return nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return true
	}
	return false
}
