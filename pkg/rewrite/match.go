package rewrite

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

type matcher struct {
	all  bool
	deep bool
	segs []string
	glob string
}

func compilePattern(pattern string) matcher {
	if pattern == "*" || pattern == "/**" {
		return matcher{all: true}
	}

	segs := splitPath(pattern)
	m := matcher{segs: segs}
	for _, s := range segs {
		if s == "**" {
			m.deep = true
			break
		}
	}
	if m.deep {
		globSegs := make([]string, len(segs))
		for i, s := range segs {
			if strings.HasPrefix(s, ":") {
				s = "*"
			}
			globSegs[i] = s
		}
		m.glob = strings.Join(globSegs, "/")
	}
	return m
}

// match reports whether path matches and returns captured :name segments.
func (m matcher) match(path string) (map[string]string, bool) {
	if m.all {
		return map[string]string{}, true
	}

	parts := splitPath(path)
	if m.deep {
		ok, err := doublestar.Match(m.glob, strings.Join(parts, "/"))
		if err != nil || !ok {
			return nil, false
		}
		params := map[string]string{}
		for i, s := range m.segs {
			if s == "**" || i >= len(parts) {
				break
			}
			if name, isParam := strings.CutPrefix(s, ":"); isParam {
				params[name] = parts[i]
			}
		}
		return params, true
	}

	if len(parts) != len(m.segs) {
		return nil, false
	}
	params := map[string]string{}
	for i, s := range m.segs {
		if name, isParam := strings.CutPrefix(s, ":"); isParam {
			params[name] = parts[i]
			continue
		}
		ok, err := doublestar.Match(s, parts[i])
		if err != nil || !ok {
			return nil, false
		}
	}
	return params, true
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// expand replaces {name} placeholders with captured params.
func expand(s string, params map[string]string) string {
	if !strings.Contains(s, "{") {
		return s
	}
	for k, v := range params {
		s = strings.ReplaceAll(s, "{"+k+"}", v)
	}
	return s
}

// Covers reports whether rule r would handle a request for route's method and
// pattern. Route parameters are matched as literal segments.
func (r Rule) Covers(method, pattern string) bool {
	if r.Method != MethodAll && r.Method != "" && r.Method != method {
		return false
	}
	_, ok := compilePattern(r.Pattern).match(pattern)
	return ok
}
