package engines

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_Baseline(t *testing.T) {
	t.Parallel()

	m := Resolve(Options{Views: "/srv/views"})

	require.Len(t, m, 3)
	assert.IsType(t, &Velocity{}, m["vm"])
	assert.IsType(t, &Freemarker{}, m["ftl"])
	assert.IsType(t, &EJS{}, m["ejs"])
	assert.Equal(t, []string{"/srv/views"}, m["vm"].(*Velocity).Roots())
}

func TestResolve_OnlineExtensionOverride(t *testing.T) {
	t.Parallel()

	m := Resolve(Options{
		Views:  "/srv/views",
		Name:   NameFreemarker,
		Ext:    ".json",
		Online: true,
	})

	assert.IsType(t, &Freemarker{}, m["json"])
	assert.NotContains(t, m, ".json")
	assert.IsType(t, &Velocity{}, m["vm"])
	assert.IsType(t, &Freemarker{}, m["ftl"])
	assert.IsType(t, &EJS{}, m["ejs"])
}

func TestResolve_OverrideReplacesBaseline(t *testing.T) {
	t.Parallel()

	m := Resolve(Options{Name: NameEJS, Ext: "vm", Online: true})
	assert.IsType(t, &EJS{}, m["vm"])
}

func TestResolve_IgnoredWithoutOnline(t *testing.T) {
	t.Parallel()

	m := Resolve(Options{Name: NameFreemarker, Ext: ".json"})
	assert.NotContains(t, m, "json")
}

func TestResolve_UnknownEngineNameIgnored(t *testing.T) {
	t.Parallel()

	m := Resolve(Options{Name: "handlebars", Ext: ".hbs", Online: true})
	assert.Len(t, m, 3)
	assert.NotContains(t, m, "hbs")
}

func TestResolve_UserMapBeforeBaseline(t *testing.T) {
	t.Parallel()

	m := Resolve(Options{Map: map[string]string{
		".html": NameEJS,
		"vm":    NameFreemarker,
		"txt":   "unknown",
	}})

	assert.IsType(t, &EJS{}, m["html"])
	assert.IsType(t, &Velocity{}, m["vm"], "baseline wins over the user map")
	assert.NotContains(t, m, "txt")
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tpl := filepath.Join(dir, "page.ftl")
	require.NoError(t, os.WriteFile(tpl, []byte("Hi ${name}"), 0o600))

	reg := NewRegistry()
	for ext, r := range Resolve(Options{Views: dir}) {
		reg.Register(ext, r)
	}
	reg.Register(".json", NewFreemarker())

	assert.Equal(t, []string{"ejs", "ftl", "json", "vm"}, reg.Extensions())

	_, ok := reg.Lookup(".ftl")
	assert.True(t, ok)

	var buf bytes.Buffer
	require.NoError(t, reg.Render(&buf, tpl, map[string]any{"name": "Ada"}))
	assert.Equal(t, "Hi Ada", buf.String())

	err := reg.Render(&buf, filepath.Join(dir, "page.hbs"), nil)
	assert.ErrorContains(t, err, "no template engine")
}
