// Package parse provides string parsing utilities for CLI commands.
package parse

import (
	"fmt"
	"strings"
)

// KeyValue parses a "key:value" or "key=value" string.
// If delimiters are provided, uses the first one found; otherwise defaults to ':'.
// Returns the key, value, and a boolean indicating success.
func KeyValue(s string, delimiters ...rune) (key, value string, ok bool) {
	if len(delimiters) == 0 {
		delimiters = []rune{':'}
	}

	for i, c := range s {
		for _, d := range delimiters {
			if c == d {
				return s[:i], s[i+1:], true
			}
		}
	}
	return "", "", false
}

// EngineMap parses "ext=engine" pairs into an extension to engine-name map.
// A leading dot on the extension is dropped.
func EngineMap(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		ext, name, ok := KeyValue(p, '=', ':')
		ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
		name = strings.TrimSpace(name)
		if !ok || ext == "" || name == "" {
			return nil, fmt.Errorf("invalid engine mapping %q, expected ext=engine", p)
		}
		out[ext] = strings.ToLower(name)
	}
	return out, nil
}
