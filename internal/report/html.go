package report

import (
	"fmt"
	"html/template"
	"io"
	"os"

	"github.com/conneroisu/taglint/internal/errors"
)

const defaultTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>taglint report</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: 4px 8px; text-align: left; vertical-align: top; }
th { background: #eee; }
.clean { color: #2a7a2a; }
</style>
</head>
<body>
<h1>taglint report</h1>
<p id="summary">{{.ViolationCount}} violation(s) in {{len .Items}} file(s)</p>
{{- if .Items}}
<table id="violations">
<thead><tr><th>No.</th><th>Path</th><th>Errors</th></tr></thead>
<tbody>
{{- range $i, $item := .Items}}
<tr class="item">
<td>{{inc $i}}</td>
<td class="path">{{$item.Path}}</td>
<td><ul>{{range $item.Errors}}<li class="error">{{.}}</li>{{end}}</ul></td>
</tr>
{{- end}}
</tbody>
</table>
{{- else}}
<p class="clean">No forbidden tags found.</p>
{{- end}}
</body>
</html>
`

var templateFuncs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}

// DefaultTemplate returns the built-in report page.
func DefaultTemplate() *template.Template {
	return template.Must(template.New("report").Funcs(templateFuncs).Parse(defaultTemplate))
}

// LoadTemplate parses the template at path, or returns DefaultTemplate when
// path is empty. Templates receive a *Report and may call inc.
func LoadTemplate(path string) (*template.Template, error) {
	if path == "" {
		return DefaultTemplate(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ErrFileNotFound(path)
		}
		return nil, errors.ErrUnreadable(path, err)
	}
	tmpl, err := template.New("report").Funcs(templateFuncs).Parse(string(data))
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeConfigInvalid, "invalid report template").
			WithLocation(path, 0, 0).WithCause(err)
	}
	return tmpl, nil
}

// WriteHTML renders r through tmpl.
func WriteHTML(w io.Writer, r *Report, tmpl *template.Template) error {
	if err := tmpl.Execute(w, r); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	return nil
}
