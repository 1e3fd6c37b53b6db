package engines

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ohler55/ojg/jp"
)

// Renderer renders the template at filePath with data into w.
type Renderer interface {
	Render(w io.Writer, filePath string, data any) error
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(w io.Writer, filePath string, data any) error

// Render calls f(w, filePath, data).
func (f RendererFunc) Render(w io.Writer, filePath string, data any) error {
	return f(w, filePath, data)
}

// readTemplate reads filePath, trying each root in order for relative paths.
func readTemplate(filePath string, roots []string) ([]byte, error) {
	if filepath.IsAbs(filePath) || len(roots) == 0 {
		return os.ReadFile(filePath)
	}
	var firstErr error
	for _, root := range roots {
		b, err := os.ReadFile(filepath.Join(root, filePath))
		if err == nil {
			return b, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}

// normalize turns arbitrary template data into plain maps and slices so
// JSONPath and expression lookups behave the same for structs and maps.
func normalize(data any) (map[string]any, error) {
	switch d := data.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return d, nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("template data: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("template data must be an object: %w", err)
	}
	return m, nil
}

// lookup resolves a dotted reference such as user.name or items[0].id.
func lookup(data map[string]any, ref string) (any, bool) {
	x, err := jp.ParseString("$." + ref)
	if err != nil {
		return nil, false
	}
	results := x.Get(data)
	if len(results) == 0 {
		return nil, false
	}
	return results[0], true
}

// stringify formats a resolved value for output.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprint(t)
	default:
		return fmt.Sprint(t)
	}
}
