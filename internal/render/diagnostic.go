package render

import (
	"html/template"
	"io"
)

// Diagnostic is shown in place of the charts when a dashboard run fails.
type Diagnostic struct {
	Title   string
	Class   string
	Message string
	RunID   string
}

var diagnosticTemplate = template.Must(template.New("diagnostic").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 2rem; }
.diagnostic { border-left: 4px solid #ef553b; padding: 0.5rem 1rem; background: #fff4f2; }
.meta { color: #666; font-size: 0.85rem; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<div class="diagnostic">
<h2>Could not load {{.Class}} data</h2>
<p>{{.Message}}</p>
</div>
{{if .RunID}}<p class="meta">run {{.RunID}}</p>{{end}}
</body>
</html>
`))

// ErrorPage renders a diagnostic instead of the charts.
func (r *Renderer) ErrorPage(w io.Writer, d Diagnostic) error {
	if d.Title == "" {
		d.Title = r.Options.Title
	}
	return diagnosticTemplate.Execute(w, d)
}
