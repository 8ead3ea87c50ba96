// Package view renders the HTML pages. Handlers pass a flat map of
// named values (current user, article data, per-field error flags,
// echoed form values, the CSRF state token); templates are embedded
// and parsed once at startup.
package view

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

// Data is the flat variable map handed to a template.
type Data map[string]any

type Renderer struct {
	templates *template.Template
}

var funcMap = template.FuncMap{
	"nl2br": func(s string) template.HTML {
		escaped := template.HTMLEscapeString(s)
		return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
	},
	"datetime": func(t time.Time) string {
		return t.Format("January 2, 2006 at 15:04")
	},
}

func NewRenderer() (*Renderer, error) {
	templates, err := template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{templates: templates}, nil
}

// Render writes the named template. Failures never leak detail to the
// visitor: they are logged and answered with the generic error page.
func (r *Renderer) Render(w http.ResponseWriter, name string, data Data) {
	if data == nil {
		data = Data{}
	}
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("template rendering failed", "template", name, "error", err)
		r.Error(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

// Error writes the generic error page with status 500.
func (r *Renderer) Error(w http.ResponseWriter) {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, "error.html", Data{}); err != nil {
		http.Error(w, "Something went wrong.", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	buf.WriteTo(w)
}
