package scanner

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/taglint/internal/checker"
	"github.com/conneroisu/taglint/internal/errors"
	"github.com/conneroisu/taglint/internal/policy"
)

// writeTree creates files relative to root.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func newTestScanner(t *testing.T, opts Options) *Scanner {
	t.Helper()
	forbidden, err := policy.ParseForbidden(strings.NewReader("page,\nimg,onerror"), "test")
	require.NoError(t, err)
	return New(checker.New(policy.New(forbidden, nil)), opts, nil)
}

func relPaths(t *testing.T, root string, paths []string) []string {
	t.Helper()
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		rel, err := filepath.Rel(root, p)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"b.jsp":              "",
		"a.jsp":              "",
		"notes.txt":          "",
		"inc/header.jspf":    "",
		"inc/footer.jsp":     "",
		"tmp/cache.jsp":      "",
		"build/out.jsp":      "",
		"views/deep/x.tag":   "",
		"views/deep/y.jsp":   "",
		".gitignore":         "build/\n",
		"views/deep/old.jsp": "",
	})

	tests := []struct {
		name     string
		opts     Options
		expected []string
	}{
		{
			name:     "default extension, lexical order",
			opts:     Options{},
			expected: []string{"a.jsp", "b.jsp", "build/out.jsp", "inc/footer.jsp", "tmp/cache.jsp", "views/deep/old.jsp", "views/deep/y.jsp"},
		},
		{
			name:     "additional extensions",
			opts:     Options{Extensions: []string{".jspf", ".tag"}},
			expected: []string{"a.jsp", "b.jsp", "build/out.jsp", "inc/footer.jsp", "inc/header.jspf", "tmp/cache.jsp", "views/deep/old.jsp", "views/deep/x.tag", "views/deep/y.jsp"},
		},
		{
			name: "exclude patterns match directories and files",
			opts: Options{Exclude: []*regexp.Regexp{
				regexp.MustCompile(`[/\\]tmp$`),
				regexp.MustCompile(`old\.jsp$`),
			}},
			expected: []string{"a.jsp", "b.jsp", "build/out.jsp", "inc/footer.jsp", "views/deep/y.jsp"},
		},
		{
			name:     "gitignore",
			opts:     Options{RespectGitignore: true},
			expected: []string{"a.jsp", "b.jsp", "inc/footer.jsp", "tmp/cache.jsp", "views/deep/old.jsp", "views/deep/y.jsp"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestScanner(t, tt.opts)
			files, err := s.Discover(context.Background(), []string{root})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, relPaths(t, root, files))
		})
	}
}

func TestDiscoverSingleFile(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"page.html": "<%@ page %>"})
	path := filepath.Join(root, "page.html")

	s := newTestScanner(t, Options{})
	files, err := s.Discover(context.Background(), []string{path})
	require.NoError(t, err)
	assert.Equal(t, []string{path}, files)

	s = newTestScanner(t, Options{Exclude: []*regexp.Regexp{regexp.MustCompile(`\.html$`)}})
	files, err = s.Discover(context.Background(), []string{path})
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestDiscoverMissingPath(t *testing.T) {
	s := newTestScanner(t, Options{})
	_, err := s.Discover(context.Background(), []string{filepath.Join(t.TempDir(), "nope")})
	require.Error(t, err)
	assert.True(t, errors.IsIOError(err))
	assert.Contains(t, err.Error(), "confirm that the path exists")
}

func TestRun(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"clean.jsp":      `<c:out value="${x}"/>`,
		"bad.jsp":        "<%@ page %>\n<img onerror=\"x\">",
		"sub/also.jsp":   "<%@ page %>",
		"sub/ignored.md": "<%@ page %>",
	})

	for _, workers := range []int{1, 4} {
		s := newTestScanner(t, Options{Workers: workers})
		result, err := s.Run(context.Background(), []string{root})
		require.NoError(t, err)
		require.Empty(t, result.Errors)

		assert.Equal(t, []string{"bad.jsp", "clean.jsp", "sub/also.jsp"}, relPaths(t, root, pathsOf(result.Files)))
		assert.Equal(t, 3, result.ViolationCount())

		bad := result.WithViolations()
		require.Len(t, bad, 2)
		assert.Equal(t, []string{
			"(page) at line 1 column 1 is forbidden.",
			"(img, onerror) at line 2 column 15 is forbidden.",
		}, bad[0].Messages())
	}
}

func pathsOf(files []*checker.FileResult) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}

func TestRunCollectsOversizedFiles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"small.jsp": "<%@ page %>",
		"large.jsp": strings.Repeat("x", 200),
	})

	s := newTestScanner(t, Options{MaxFileSize: 100})
	result, err := s.Run(context.Background(), []string{root})
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.True(t, errors.IsIOError(result.Errors[0]))
	assert.Contains(t, result.Errors[0].Error(), "large.jsp")
	require.Len(t, result.Files, 1)
	assert.Equal(t, filepath.Join(root, "small.jsp"), result.Files[0].Path)

	s = newTestScanner(t, Options{MaxFileSize: 100, FailFast: true})
	_, err = s.Run(context.Background(), []string{root})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "large.jsp")
}

func TestRunCancelled(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.jsp": "", "b.jsp": ""})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := newTestScanner(t, Options{})
	_, err := s.Run(ctx, []string{root})
	require.Error(t, err)
}

func TestRunIsDeterministic(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{}
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		files["dir/"+name+".jsp"] = "<img onerror=\"1\">\n<%@ page %>"
	}
	writeTree(t, root, files)

	s := newTestScanner(t, Options{Workers: 8})
	first, err := s.Run(context.Background(), []string{root})
	require.NoError(t, err)
	second, err := s.Run(context.Background(), []string{root})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
