// Package routeboard serves an HTML index of the configured rewrite rules at
// the site root.
package routeboard

import (
	"bytes"
	"html/template"
	"net/http"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/getmockd/devserve/pkg/httputil"
	"github.com/getmockd/devserve/pkg/rewrite"
)

// Board renders the rule index.
type Board struct {
	rules func() rewrite.RuleSet
	title string
}

// New creates a board listing the rules returned by rules at request time.
func New(title string, rules func() rewrite.RuleSet) *Board {
	if title == "" {
		title = "devserve routes"
	}
	return &Board{rules: rules, title: title}
}

// Stage returns the board as a pipeline stage.
func (b *Board) Stage() httputil.Stage {
	return b.ServeNext
}

// ServeNext answers GET / from browsers; everything else calls next.
func (b *Board) ServeNext(w http.ResponseWriter, r *http.Request, next httputil.Next) error {
	if r.Method != http.MethodGet || r.URL.Path != "/" || !acceptsHTML(r) {
		return next(w, r)
	}

	caser := cases.Title(language.English)
	var rs rewrite.RuleSet
	if b.rules != nil {
		rs = b.rules()
	}
	rows := make([]row, len(rs))
	for i, rule := range rs {
		rows[i] = row{
			Method:  rule.Method,
			Pattern: rule.Pattern,
			Kind:    caser.String(rule.Target.Kind.String()),
			Detail:  detail(rule.Target),
			Link:    rule.Method != http.MethodPost && !strings.ContainsAny(rule.Pattern, ":*"),
		}
	}

	var buf bytes.Buffer
	if err := boardTmpl.Execute(&buf, board{Title: b.title, Rows: rows}); err != nil {
		return err
	}
	httputil.WriteHTML(w, http.StatusOK, buf.String())
	return nil
}

func acceptsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func detail(t rewrite.Target) string {
	switch t.Kind {
	case rewrite.KindProxy:
		return t.URL
	case rewrite.KindFile:
		return t.File
	case rewrite.KindResponse:
		return http.StatusText(t.Status)
	default:
		return "JSON"
	}
}

type row struct {
	Method  string
	Pattern string
	Kind    string
	Detail  string
	Link    bool
}

type board struct {
	Title string
	Rows  []row
}

var boardTmpl = template.Must(template.New("board").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif; margin: 2em; }
table { border-collapse: collapse; }
td, th { padding: 0.3em 1.2em 0.3em 0; text-align: left; border-bottom: 1px solid #eee; }
code { color: #b31d28; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{- if .Rows}}
<table>
<tr><th>Method</th><th>Path</th><th>Target</th><th></th></tr>
{{- range .Rows}}
<tr><td><code>{{.Method}}</code></td><td>{{if .Link}}<a href="{{.Pattern}}">{{.Pattern}}</a>{{else}}{{.Pattern}}{{end}}</td><td>{{.Kind}}</td><td>{{.Detail}}</td></tr>
{{- end}}
</table>
{{- else}}
<p>No rules configured.</p>
{{- end}}
</body>
</html>
`))
