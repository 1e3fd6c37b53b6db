package cli

import (
	"errors"
	"io"
	"io/fs"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/getmockd/devserve/pkg/cli/internal/output"
)

// envFiles are loaded from the working directory, highest precedence first.
// Variables already in the environment are never overridden.
var envFiles = []string{".env.local", ".env"}

// loadEnvFiles loads envFiles from dir into the process environment. Broken
// files are reported on w and skipped.
func loadEnvFiles(w io.Writer, dir string) {
	for _, name := range envFiles {
		path := filepath.Join(dir, name)
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			output.Warn(w, "failed to load %s: %v", path, err)
		}
	}
}
