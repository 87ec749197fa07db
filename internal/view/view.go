// Package view renders pages inside the shared layout.
package view

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"storefront/internal/ui"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

const layoutFile = "templates/layout.gohtml"

// ErrResponseWrite marks a failure to copy a rendered page to the client.
// The status line has already been sent when it is returned.
var ErrResponseWrite = errors.New("failed to write response")

// Content is the body a page hands to the layout.
type Content struct {
	Template string
	Title    string
	Status   int
	Data     any
	// Path is the page the navigation bar points at when it differs from
	// the request path, as when an action re-renders the listing.
	Path string
}

// Page is the value the layout template executes with.
type Page struct {
	Title string
	Nav   ui.NavBar
	Data  any
}

// Renderer holds one template set per page, each cloned from the layout.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses the layout and every page template.
func NewRenderer() (*Renderer, error) {
	layout, err := template.New(path.Base(layoutFile)).Funcs(funcs).ParseFS(templateFS, layoutFile)
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	files, err := fs.Glob(templateFS, "templates/*.gohtml")
	if err != nil {
		return nil, err
	}

	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		if file == layoutFile {
			continue
		}
		clone, err := layout.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := clone.ParseFS(templateFS, file); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", file, err)
		}
		pages[strings.TrimSuffix(path.Base(file), ".gohtml")] = clone
	}

	return &Renderer{pages: pages}, nil
}

// Render writes content inside the layout with the given navigation bar.
// The page is rendered to a buffer first so a template error never leaves
// a half-written response.
func (r *Renderer) Render(w http.ResponseWriter, nav ui.NavBar, c *Content) error {
	tmpl, ok := r.pages[c.Template]
	if !ok {
		return fmt.Errorf("unknown page template %q", c.Template)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, path.Base(layoutFile), Page{Title: c.Title, Nav: nav, Data: c.Data}); err != nil {
		return fmt.Errorf("failed to render %s: %w", c.Template, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	status := c.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("%w: %w", ErrResponseWrite, err)
	}
	return nil
}

// Has reports whether a page template exists.
func (r *Renderer) Has(name string) bool {
	_, ok := r.pages[name]
	return ok
}

// StaticHandler serves the embedded stylesheet and images under /static/.
func StaticHandler() http.Handler {
	return http.StripPrefix("/static/", http.FileServer(http.FS(mustSub(staticFS, "static"))))
}

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

var funcs = template.FuncMap{
	"money": func(v float64) string {
		return fmt.Sprintf("$%.2f", v)
	},
	"inc": func(n int) int { return n + 1 },
	"dec": func(n int) int { return n - 1 },
}
