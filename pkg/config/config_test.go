package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/devserve/pkg/rewrite"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cwd, err := os.Getwd()
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, 8000, cfg.Port)
	assert.False(t, cfg.HTTPS)
	assert.False(t, cfg.Launch)
	assert.Equal(t, "views", cfg.Views)
	assert.Equal(t, cwd, cfg.Dir)
	assert.False(t, cfg.Rules.IsSet())
	assert.Equal(t, SourceDefault, cfg.Sources["port"])
}

func TestFillDefaults(t *testing.T) {
	t.Parallel()

	cfg := &Configuration{Port: 9000, Online: true, Dir: "/srv/site"}
	require.NoError(t, FillDefaults(cfg))

	assert.Equal(t, 9000, cfg.Port)
	assert.True(t, cfg.Online)
	assert.Equal(t, "/srv/site", cfg.Dir)
	assert.Equal(t, DefaultViews, cfg.Views)

	empty := &Configuration{}
	require.NoError(t, FillDefaults(empty))
	assert.Equal(t, DefaultPort, empty.Port)
}

func TestResolve(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := &Configuration{Dir: dir, Views: "tpl", Rules: Rules{File: "rules.yaml"}}
	require.NoError(t, cfg.Resolve())

	cwd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.Dir)
	assert.Equal(t, filepath.Join(dir, "tpl"), cfg.Views)
	assert.Equal(t, filepath.Join(cwd, "rules.yaml"), cfg.Rules.File)
	assert.True(t, filepath.IsAbs(cfg.Rules.File))
}

func TestResolve_AbsoluteViewsKept(t *testing.T) {
	t.Parallel()

	views := filepath.Join(t.TempDir(), "views")
	cfg := &Configuration{Dir: t.TempDir(), Views: views}
	require.NoError(t, cfg.Resolve())
	assert.Equal(t, views, cfg.Views)
}

func TestClone_IsIndependent(t *testing.T) {
	t.Parallel()

	orig := &Configuration{
		Port:    8000,
		Rules:   Rules{Set: rewrite.RuleSet{{Method: "GET", Pattern: "/a", Target: rewrite.JSON(1)}}},
		Engine:  Engine{Map: map[string]string{"html": "ejs"}},
		Sources: map[string]string{"port": SourceDefault},
	}
	c := orig.Clone()
	c.Port = 9000
	c.Rules.Set[0].Pattern = "/b"
	c.Engine.Map["html"] = "velocity"
	c.Sources["port"] = SourceFlag

	assert.Equal(t, 8000, orig.Port)
	assert.Equal(t, "/a", orig.Rules.Set[0].Pattern)
	assert.Equal(t, "ejs", orig.Engine.Map["html"])
	assert.Equal(t, SourceDefault, orig.Sources["port"])
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     Configuration
		wantErr string
	}{
		{"defaults", *Default(), ""},
		{"ephemeral port", Configuration{Port: 0}, ""},
		{"port too high", Configuration{Port: 70000}, "port 70000 is out of range"},
		{"port negative", Configuration{Port: -1}, "port -1 is out of range"},
		{
			"both rule forms",
			Configuration{Rules: Rules{File: "r.yaml", Set: rewrite.RuleSet{{Pattern: "*"}}}},
			"cannot both be set",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestScheme(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "http", (&Configuration{}).Scheme())
	assert.Equal(t, "https", (&Configuration{HTTPS: true}).Scheme())
}
