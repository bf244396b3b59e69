package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/conneroisu/taglint/internal/checker"
	"github.com/conneroisu/taglint/internal/policy"
)

// pageTemplates are rotated through when generating a tree; %d is the page number.
var pageTemplates = []string{
	`<%%@ page contentType="text/html" %%>
<html><body>
<c:out value="${user.name}"/>
<img src="logo.png" onerror="alert(%d)">
</body></html>
`,
	`<%%-- page %d --%%>
<div title="<app:tooltip text='x'/>">
<%% if (debug) { %%>
<p>${order.total}</p>
<%% } %%>
</div>
`,
	`<!-- footer %d -->
<%%-- suppress jsp check --%%>
<%%= request.getParameter("q") %%>
<fmt:message key="footer.copy"/>
`,
}

// generateTree writes count pages spread over nested directories.
func generateTree(b *testing.B, count int) string {
	b.Helper()
	root := b.TempDir()
	for i := 0; i < count; i++ {
		dir := filepath.Join(root, fmt.Sprintf("module%d", i%10), fmt.Sprintf("views%d", i%3))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			b.Fatal(err)
		}
		content := fmt.Sprintf(pageTemplates[i%len(pageTemplates)], i)
		path := filepath.Join(dir, fmt.Sprintf("page%d.jsp", i))
		if err := os.WriteFile(path, []byte(strings.Repeat(content, 20)), 0o644); err != nil {
			b.Fatal(err)
		}
	}
	return root
}

func benchmarkRun(b *testing.B, workers int) {
	root := generateTree(b, 200)
	forbidden, err := policy.ParseForbidden(strings.NewReader("page,\nimg,onerror\n<%=,"), "bench")
	if err != nil {
		b.Fatal(err)
	}
	s := New(checker.New(policy.New(forbidden, policy.NewPrefixTable("<c:", "<fmt:"))), Options{Workers: workers}, nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		res, err := s.Run(context.Background(), []string{root})
		if err != nil {
			b.Fatal(err)
		}
		if len(res.Files) != 200 {
			b.Fatalf("checked %d files, want 200", len(res.Files))
		}
	}
}

func BenchmarkRunSequential(b *testing.B) { benchmarkRun(b, 1) }

func BenchmarkRunParallel(b *testing.B) { benchmarkRun(b, 8) }
