package engines

import (
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"
)

var (
	freemarkerInterp  = regexp.MustCompile(`\$\{([^}]*)\}`)
	freemarkerComment = regexp.MustCompile(`(?s)<#--.*?-->`)
)

// Freemarker renders FreeMarker-style interpolations: ${ref}, ${ref!"default"},
// ${ref!} and the ?html, ?upper_case, ?lower_case built-ins. A missing
// reference without a default is an error.
type Freemarker struct {
	roots []string
}

// NewFreemarker creates a FreeMarker renderer. Relative template paths are
// resolved against roots when given.
func NewFreemarker(roots ...string) *Freemarker {
	return &Freemarker{roots: roots}
}

// Render implements Renderer.
func (f *Freemarker) Render(w io.Writer, filePath string, data any) error {
	src, err := readTemplate(filePath, f.roots)
	if err != nil {
		return fmt.Errorf("freemarker: %w", err)
	}
	ctx, err := normalize(data)
	if err != nil {
		return fmt.Errorf("freemarker: %w", err)
	}

	src = freemarkerComment.ReplaceAll(src, nil)

	var renderErr error
	out := freemarkerInterp.ReplaceAllFunc(src, func(match []byte) []byte {
		if renderErr != nil {
			return nil
		}
		s, err := evalFreemarker(ctx, string(freemarkerInterp.FindSubmatch(match)[1]))
		if err != nil {
			renderErr = err
			return nil
		}
		return []byte(s)
	})
	if renderErr != nil {
		return fmt.Errorf("freemarker: %s: %w", filePath, renderErr)
	}

	_, err = w.Write(out)
	return err
}

func evalFreemarker(ctx map[string]any, expr string) (string, error) {
	expr = strings.TrimSpace(expr)

	var builtins []string
	if i := strings.Index(expr, "?"); i >= 0 {
		builtins = strings.Split(expr[i+1:], "?")
		expr = strings.TrimSpace(expr[:i])
	}

	ref, def, hasDefault := strings.Cut(expr, "!")
	ref = strings.TrimSpace(ref)

	var s string
	if val, ok := lookup(ctx, ref); ok && val != nil {
		s = stringify(val)
	} else if hasDefault {
		s = strings.Trim(strings.TrimSpace(def), `"'`)
	} else {
		return "", fmt.Errorf("%s is undefined", ref)
	}

	for _, b := range builtins {
		switch strings.TrimSpace(b) {
		case "html":
			s = html.EscapeString(s)
		case "upper_case":
			s = strings.ToUpper(s)
		case "lower_case":
			s = strings.ToLower(s)
		default:
			return "", fmt.Errorf("unknown built-in ?%s", b)
		}
	}
	return s, nil
}
