package engines

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Engine names accepted by ByName.
const (
	NameVelocity   = "velocity"
	NameFreemarker = "freemarker"
	NameEJS        = "ejs"
)

// Options is the subset of the server configuration the registry needs.
type Options struct {
	// Views is the resolved template root.
	Views string
	// Map assigns extra extensions to engine names (ext -> name).
	Map map[string]string
	// Name selects the engine for Ext in online mode.
	Name string
	// Ext is the extension remapped to Name in online mode.
	Ext string
	// Online enables the single-extension remap.
	Online bool
}

// ByName returns a new renderer for a named engine.
func ByName(name, views string) (Renderer, bool) {
	switch name {
	case NameFreemarker:
		return NewFreemarker(), true
	case NameEJS:
		return NewEJS(), true
	case NameVelocity:
		return NewVelocity(views), true
	}
	return nil, false
}

// Resolve produces the extension -> renderer mapping for opts.
func Resolve(opts Options) map[string]Renderer {
	m := make(map[string]Renderer, len(opts.Map)+3)
	for ext, name := range opts.Map {
		if r, ok := ByName(name, opts.Views); ok {
			m[trimDot(ext)] = r
		}
	}

	m["vm"] = NewVelocity(opts.Views)
	m["ftl"] = NewFreemarker()
	m["ejs"] = NewEJS()

	if opts.Online && opts.Name != "" && opts.Ext != "" {
		if r, ok := ByName(opts.Name, opts.Views); ok {
			m[trimDot(opts.Ext)] = r
		}
	}
	return m
}

func trimDot(ext string) string {
	return strings.TrimPrefix(ext, ".")
}

// Registry holds the renderers registered on an application, keyed by
// extension without the leading dot.
type Registry struct {
	mu        sync.RWMutex
	renderers map[string]Renderer
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{renderers: make(map[string]Renderer)}
}

// Register assigns r to ext, replacing any previous renderer.
func (reg *Registry) Register(ext string, r Renderer) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.renderers[trimDot(ext)] = r
}

// Lookup returns the renderer for ext.
func (reg *Registry) Lookup(ext string) (Renderer, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	r, ok := reg.renderers[trimDot(ext)]
	return r, ok
}

// Extensions returns the registered extensions in sorted order.
func (reg *Registry) Extensions() []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	exts := make([]string, 0, len(reg.renderers))
	for ext := range reg.renderers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Render renders filePath with the renderer registered for its extension.
func (reg *Registry) Render(w io.Writer, filePath string, data any) error {
	ext := filepath.Ext(filePath)
	r, ok := reg.Lookup(ext)
	if !ok {
		return fmt.Errorf("no template engine registered for %q", ext)
	}
	return r.Render(w, filePath, data)
}
