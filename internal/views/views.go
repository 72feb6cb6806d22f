// Package views renders the HTML pages and serves the embedded static assets.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"sync"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const layoutFile = "templates/layout.html"

// Engine implements fiber.Views over html/template. Every page is parsed
// together with the shared layout and defines a "content" block.
type Engine struct {
	mu    sync.RWMutex
	pages map[string]*template.Template
}

// New creates an Engine with all pages parsed.
func New() (*Engine, error) {
	e := &Engine{}
	if err := e.Load(); err != nil {
		return nil, err
	}
	return e, nil
}

var funcs = template.FuncMap{
	"datetime": func(t time.Time) string {
		return t.Format("Jan 2, 2006 15:04")
	},
}

// Load parses the embedded templates.
func (e *Engine) Load() error {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return fmt.Errorf("failed to list templates: %w", err)
	}

	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		if file == layoutFile {
			continue
		}
		tmpl, err := template.New(path.Base(file)).Funcs(funcs).ParseFS(templateFS, layoutFile, file)
		if err != nil {
			return fmt.Errorf("failed to parse template %s: %w", file, err)
		}
		pages[strings.TrimSuffix(path.Base(file), ".html")] = tmpl
	}

	e.mu.Lock()
	e.pages = pages
	e.mu.Unlock()
	return nil
}

// Render writes page name. With a layout argument the page is wrapped in
// that layout; otherwise only its content block is written.
func (e *Engine) Render(w io.Writer, name string, data interface{}, layout ...string) error {
	e.mu.RLock()
	tmpl, ok := e.pages[name]
	e.mu.RUnlock()
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}

	block := "content"
	if len(layout) > 0 && layout[0] != "" {
		block = layout[0]
	}
	if err := tmpl.ExecuteTemplate(w, block, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}
	return nil
}

// Static returns the embedded static assets rooted at their directory.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
