package engines

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

var ejsTag = regexp.MustCompile(`(?s)<%([=\-#]?)(.*?)-?%>`)

// EJS renders EJS-style tags: <%= expr %> (HTML escaped), <%- expr %> (raw)
// and <%# comment %>. Expressions are evaluated with expr-lang against the
// template data. Scriptlets (<% code %>) are not supported.
type EJS struct {
	roots []string

	mu       sync.RWMutex
	programs map[string]*vm.Program
}

// NewEJS creates an EJS renderer. Relative template paths are resolved
// against roots when given.
func NewEJS(roots ...string) *EJS {
	return &EJS{roots: roots, programs: make(map[string]*vm.Program)}
}

// Render implements Renderer.
func (e *EJS) Render(w io.Writer, filePath string, data any) error {
	src, err := readTemplate(filePath, e.roots)
	if err != nil {
		return fmt.Errorf("ejs: %w", err)
	}
	env, err := normalize(data)
	if err != nil {
		return fmt.Errorf("ejs: %w", err)
	}

	var buf bytes.Buffer
	last := 0
	for _, loc := range ejsTag.FindAllSubmatchIndex(src, -1) {
		buf.Write(src[last:loc[0]])
		last = loc[1]

		kind := string(src[loc[2]:loc[3]])
		code := strings.TrimSpace(string(src[loc[4]:loc[5]]))
		switch kind {
		case "#":
			continue
		case "=", "-":
			val, err := e.eval(code, env)
			if err != nil {
				return fmt.Errorf("ejs: %s: %w", filePath, err)
			}
			s := stringify(val)
			if kind == "=" {
				s = html.EscapeString(s)
			}
			buf.WriteString(s)
		default:
			return fmt.Errorf("ejs: %s: scriptlet %q is not supported", filePath, code)
		}
	}
	buf.Write(src[last:])

	_, err = w.Write(buf.Bytes())
	return err
}

func (e *EJS) eval(code string, env map[string]any) (any, error) {
	program, err := e.compile(code)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", code, err)
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return nil, fmt.Errorf("eval %q: %w", code, err)
	}
	return out, nil
}

func (e *EJS) compile(code string) (*vm.Program, error) {
	e.mu.RLock()
	program, ok := e.programs[code]
	e.mu.RUnlock()
	if ok {
		return program, nil
	}

	program, err := expr.Compile(code)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.programs[code] = program
	e.mu.Unlock()
	return program, nil
}
