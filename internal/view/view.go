// Package view renders the server-side HTML pages.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

//go:embed templates
var templatesFS embed.FS

// Flash is a one-line notification shown above the page content.
type Flash struct {
	Kind    string // "success" or "error"
	Message string
}

// Success builds a success notification.
func Success(msg string) *Flash { return &Flash{Kind: "success", Message: msg} }

// Failure builds an error notification.
func Failure(msg string) *Flash { return &Flash{Kind: "error", Message: msg} }

// Page is the data every template receives. Body is page specific.
type Page struct {
	Title    string
	UserName string
	Flash    *Flash
	Body     any
}

// Renderer holds one parsed template set per page.
type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"cover": func(images []string) string {
		if len(images) == 0 {
			return ""
		}
		return images[0]
	},
	"kb": func(n int) string {
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	},
	"add": func(a, b int) int { return a + b },
}

// New parses the embedded layout together with each page template.
func New() (*Renderer, error) {
	names, err := fs.Glob(templatesFS, "templates/pages/*.html")
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(names))}
	for _, name := range names {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(templatesFS, "templates/layout.html", name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[strings.TrimSuffix(path.Base(name), ".html")] = t
	}
	return r, nil
}

// Render executes page name into a buffer and writes it with status.
// Nothing is written when execution fails.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, p Page) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("view: unknown page %q", name)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", p); err != nil {
		return fmt.Errorf("view: render %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
