package engines

import (
	"fmt"
	"io"
	"regexp"
)

var (
	velocityRef          = regexp.MustCompile(`\$(!?)\{([A-Za-z_][\w.\[\]]*)\}|\$(!?)([A-Za-z_]\w*(?:\.[A-Za-z_]\w*|\[\d+\])*)`)
	velocityBlockComment = regexp.MustCompile(`(?s)#\*.*?\*#`)
	velocityLineComment  = regexp.MustCompile(`(?m)##.*$`)
)

// Velocity renders Velocity-style references: $name, ${name}, $!name and
// $!{name}. Unresolved references are written back literally unless quiet.
type Velocity struct {
	roots []string
}

// NewVelocity creates a Velocity renderer that resolves relative template
// paths against roots.
func NewVelocity(roots ...string) *Velocity {
	return &Velocity{roots: roots}
}

// Roots returns the template roots.
func (v *Velocity) Roots() []string {
	return v.roots
}

// Render implements Renderer.
func (v *Velocity) Render(w io.Writer, filePath string, data any) error {
	src, err := readTemplate(filePath, v.roots)
	if err != nil {
		return fmt.Errorf("velocity: %w", err)
	}
	ctx, err := normalize(data)
	if err != nil {
		return fmt.Errorf("velocity: %w", err)
	}

	src = velocityBlockComment.ReplaceAll(src, nil)
	src = velocityLineComment.ReplaceAll(src, nil)

	out := velocityRef.ReplaceAllFunc(src, func(match []byte) []byte {
		m := velocityRef.FindSubmatch(match)
		quiet, ref := m[1], m[2]
		if len(ref) == 0 {
			quiet, ref = m[3], m[4]
		}
		val, ok := lookup(ctx, string(ref))
		if !ok {
			if len(quiet) > 0 {
				return nil
			}
			return match
		}
		return []byte(stringify(val))
	})

	_, err = w.Write(out)
	return err
}
