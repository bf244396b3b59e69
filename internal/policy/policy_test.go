package policy

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/taglint/internal/errors"
	"github.com/conneroisu/taglint/internal/markup"
)

func TestForbiddenTable(t *testing.T) {
	table := NewForbiddenTable()
	table.Add("page", "")
	table.Add(" IMG ", " OnError ")
	table.Add("img", "onload")
	table.Add("img", "")

	assert.True(t, table.IsForbiddenTag("page"))
	assert.True(t, table.IsForbiddenTag("PAGE"))
	assert.False(t, table.IsForbiddenTag("img"), "tag with attributes is not forbidden outright")
	assert.False(t, table.IsForbiddenTag("div"))

	assert.True(t, table.IsForbiddenAttribute("img", "onerror"))
	assert.True(t, table.IsForbiddenAttribute("IMG", "ONLOAD"))
	assert.False(t, table.IsForbiddenAttribute("img", "src"))
	assert.False(t, table.IsForbiddenAttribute("page", "import"))
	assert.False(t, table.IsForbiddenAttribute("div", "onerror"))

	assert.Equal(t, 2, table.Len())
	assert.Equal(t, []Rule{
		{Tag: "img", Attributes: []string{"onerror", "onload"}},
		{Tag: "page"},
	}, table.Rules())
}

func TestNilTablesAllowEverything(t *testing.T) {
	var forbidden *ForbiddenTable
	var allowed *PrefixTable

	assert.False(t, forbidden.IsForbiddenTag("page"))
	assert.False(t, forbidden.IsForbiddenAttribute("img", "onerror"))
	assert.False(t, allowed.IsForbidden("c:out"))

	var p *Policy
	assert.False(t, p.IsForbiddenTag(markup.KindDirective, "page"))
}

func TestPrefixTable(t *testing.T) {
	table := NewPrefixTable("app:", "<c:", "${", "  <%--  ", "")

	tests := []struct {
		name      string
		forbidden bool
	}{
		{name: "app:button", forbidden: false},
		{name: "appx:button", forbidden: true},
		{name: "<c:out", forbidden: false},
		{name: "c:out", forbidden: true},
		{name: "${", forbidden: false},
		{name: "<%--", forbidden: false},
		{name: "<%", forbidden: true},
		{name: "<!--", forbidden: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.forbidden, table.IsForbidden(tt.name))
		})
	}

	assert.Equal(t, []string{"app:", "<c:", "${", "<%--"}, table.Entries())
}

func TestPolicyIsForbiddenTag(t *testing.T) {
	forbidden := NewForbiddenTable()
	forbidden.Add("page", "")
	forbidden.Add("img", "onerror")
	allowed := NewPrefixTable("<c:", "<%@ taglib", "${", "<%--")
	p := New(forbidden, allowed)

	tests := []struct {
		name      string
		kind      markup.Kind
		tag       string
		forbidden bool
	}{
		{name: "exact table wins", kind: markup.KindDirective, tag: "page", forbidden: true},
		{name: "directive with opener spelling", kind: markup.KindDirective, tag: "taglib", forbidden: false},
		{name: "directive not allowed", kind: markup.KindDirective, tag: "include", forbidden: true},
		{name: "namespaced element by opener spelling", kind: markup.KindElement, tag: "c:out", forbidden: false},
		{name: "namespaced element not allowed", kind: markup.KindElement, tag: "x:parse", forbidden: true},
		{name: "plain element skips allow table", kind: markup.KindElement, tag: "img", forbidden: false},
		{name: "expression allowed", kind: markup.KindExpression, tag: "${", forbidden: false},
		{name: "jsp comment allowed", kind: markup.KindCore, tag: "<%--", forbidden: false},
		{name: "scriptlet not allowed", kind: markup.KindCore, tag: "<%", forbidden: true},
		{name: "html comment not allowed", kind: markup.KindHTMLComment, tag: "<!--", forbidden: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.forbidden, p.IsForbiddenTag(tt.kind, tt.tag))
		})
	}

	assert.True(t, p.IsForbiddenAttribute("img", "onerror"))
	assert.False(t, p.IsForbiddenAttribute("img", "src"))
}

func TestParseForbidden(t *testing.T) {
	input := strings.Join([]string{
		"-- forbidden tags",
		"",
		"page,",
		"img,onerror",
		"IMG, OnLoad ",
		"   ",
		"script:bad,",
	}, "\n")

	table, err := ParseForbidden(strings.NewReader(input), "forbidden.csv")
	require.NoError(t, err)
	assert.True(t, table.IsForbiddenTag("page"))
	assert.True(t, table.IsForbiddenTag("script:bad"))
	assert.True(t, table.IsForbiddenAttribute("img", "onload"))
	assert.True(t, table.IsForbiddenAttribute("img", "onerror"))
	assert.Equal(t, 3, table.Len())
}

func TestParseForbiddenErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		line    int
		message string
	}{
		{name: "no comma", input: "page,\nimg", line: 2, message: "exactly two elements"},
		{name: "too many fields", input: "a,b,c", line: 1, message: "exactly two elements"},
		{name: "empty tag", input: "-- c\n,onerror", line: 2, message: "must not be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseForbidden(strings.NewReader(tt.input), "rules.csv")
			require.Error(t, err)
			assert.True(t, errors.IsConfigError(err))
			assert.Contains(t, err.Error(), tt.message)

			var te *errors.TaglintError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, tt.line, te.Line)
			assert.Equal(t, "rules.csv", te.FilePath)
		})
	}
}

func TestParseAllowed(t *testing.T) {
	table, err := ParseAllowed(strings.NewReader("-- allowed\n<c:\n\n  ${  \n<%@ page\n"), "allowed.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"<c:", "${", "<%@ page"}, table.Entries())
}

func TestParseYAMLDocuments(t *testing.T) {
	forbidden, err := ParseForbiddenYAML(strings.NewReader(`
forbidden:
  - tag: img
    attributes: [onerror, ONLOAD]
  - tag: Page
`), "forbidden.yml")
	require.NoError(t, err)
	assert.True(t, forbidden.IsForbiddenTag("page"))
	assert.True(t, forbidden.IsForbiddenAttribute("img", "onload"))

	allowed, err := ParseAllowedYAML(strings.NewReader("allowed:\n  - \"<c:\"\n  - \"${\"\n"), "allowed.yml")
	require.NoError(t, err)
	assert.Equal(t, 2, allowed.Len())

	_, err = ParseForbiddenYAML(strings.NewReader("forbidden:\n  - attributes: [x]\n"), "bad.yml")
	require.Error(t, err)
	assert.True(t, errors.IsConfigError(err))

	_, err = ParseForbiddenYAML(strings.NewReader("rules: []\n"), "unknown.yml")
	require.Error(t, err)
	assert.True(t, errors.IsConfigError(err))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	forbiddenPath := filepath.Join(dir, "forbidden.csv")
	allowedPath := filepath.Join(dir, "allowed.yaml")
	require.NoError(t, os.WriteFile(forbiddenPath, []byte("page,\n"), 0o644))
	require.NoError(t, os.WriteFile(allowedPath, []byte("allowed: [\"<c:\"]\n"), 0o644))

	p, err := Load(Options{ForbiddenPath: forbiddenPath, AllowedPath: allowedPath, Charset: "UTF-8"})
	require.NoError(t, err)
	assert.True(t, p.IsForbiddenTag(markup.KindDirective, "page"))
	assert.False(t, p.IsForbiddenTag(markup.KindElement, "c:out"))

	_, err = Load(Options{})
	require.Error(t, err)
	assert.True(t, errors.IsConfigError(err))

	_, err = Load(Options{ForbiddenPath: filepath.Join(dir, "missing.csv")})
	require.Error(t, err)
	assert.True(t, errors.IsIOError(err))
}
