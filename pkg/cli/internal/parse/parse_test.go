package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in         string
		delims     []rune
		key, value string
		ok         bool
	}{
		{"a:b", nil, "a", "b", true},
		{"a=b", []rune{'='}, "a", "b", true},
		{"a=b:c", []rune{'=', ':'}, "a", "b:c", true},
		{"plain", nil, "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			k, v, ok := KeyValue(tt.in, tt.delims...)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.key, k)
			assert.Equal(t, tt.value, v)
		})
	}
}

func TestEngineMap(t *testing.T) {
	t.Parallel()

	m, err := EngineMap([]string{"html=EJS", ".json:freemarker"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"html": "ejs", "json": "freemarker"}, m)

	m, err = EngineMap(nil)
	require.NoError(t, err)
	assert.Nil(t, m)

	for _, bad := range []string{"html", "=ejs", "html="} {
		_, err := EngineMap([]string{bad})
		assert.Error(t, err, bad)
	}
}
