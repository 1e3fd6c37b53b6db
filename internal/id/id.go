// Package id provides identifier generation for request correlation.
package id

import (
	"strings"

	"github.com/google/uuid"
)

// UUID generates a random UUID v4 string.
func UUID() string {
	return uuid.NewString()
}

// Request generates a compact request id: a UUID v4 without dashes.
func Request() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Valid reports whether s is a UUID or a request id produced by Request.
func Valid(s string) bool {
	if len(s) == 32 {
		s = s[0:8] + "-" + s[8:12] + "-" + s[12:16] + "-" + s[16:20] + "-" + s[20:]
	}
	_, err := uuid.Parse(s)
	return err == nil && len(s) == 36
}
