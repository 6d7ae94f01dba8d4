package views

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"path/filepath"
	"sync"

	"github.com/eknkc/pug"
	"github.com/eknkc/pug/compiler"

	"photo-gallery/internal/indexer"
	"photo-gallery/internal/logging"
)

// IndexTemplate is the gallery page template name.
const IndexTemplate = "index"

// Page is the data the gallery page template is executed with.
type Page struct {
	Title   string
	Groups  []indexer.DateGroup
	Total   int
	Empty   bool
	Version string
}

// NewPage builds the page data for an index.
func NewPage(title, version string, index indexer.Index) Page {
	return Page{
		Title:   title,
		Groups:  index.Groups(),
		Total:   index.Len(),
		Empty:   index.Len() == 0,
		Version: version,
	}
}

// Renderer compiles pug templates from a directory and caches them. With
// reload set, every Render recompiles from disk.
type Renderer struct {
	dir    string
	reload bool

	mu        sync.RWMutex
	templates map[string]*template.Template
}

// NewRenderer returns a Renderer reading <dir>/<name>.pug. A relative dir is
// resolved against the working directory.
func NewRenderer(dir string, reload bool) *Renderer {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return &Renderer{
		dir:       dir,
		reload:    reload,
		templates: make(map[string]*template.Template),
	}
}

// Load compiles a template ahead of the first request so a broken view fails
// at startup.
func (r *Renderer) Load(name string) error {
	_, err := r.template(name)
	return err
}

// Render executes the named template. Output is buffered, so w receives
// nothing when execution fails.
func (r *Renderer) Render(w io.Writer, name string, data interface{}) error {
	tmpl, err := r.template(name)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	_, err = buf.WriteTo(w)
	return err
}

func (r *Renderer) template(name string) (*template.Template, error) {
	if !r.reload {
		r.mu.RLock()
		tmpl, ok := r.templates[name]
		r.mu.RUnlock()
		if ok {
			return tmpl, nil
		}
	}

	// pug opens names relative to Dir and refuses paths starting with ".."
	path := filepath.Join(r.dir, name+".pug")
	tmpl, err := pug.CompileFile(name+".pug", pug.Options{Dir: compiler.FsDir(r.dir)})
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", path, err)
	}
	logging.Debug("Compiled template %s", path)

	r.mu.Lock()
	r.templates[name] = tmpl
	r.mu.Unlock()
	return tmpl, nil
}
