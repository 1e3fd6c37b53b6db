package output

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, map[string]any{"port": 8000}))
	assert.Equal(t, "{\n  \"port\": 8000\n}\n", buf.String())
}

func TestTable(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	tw := Table(&buf)
	fmt.Fprintln(tw, "KEY\tVALUE")
	fmt.Fprintln(tw, "port\t8000")
	require.NoError(t, tw.Flush())
	assert.Equal(t, "KEY   VALUE\nport  8000\n", buf.String())
}

func TestWarn(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	Warn(&buf, "skipping %s", ".env")
	assert.Equal(t, "Warning: skipping .env\n", buf.String())
}
