package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Tests in this file use t.Setenv and cannot run in parallel.

func TestLoadEnv(t *testing.T) {
	t.Setenv(EnvPort, "9200")
	t.Setenv(EnvOnline, "yes")
	t.Setenv(EnvHTTPS, "0")
	t.Setenv(EnvRules, "/srv/rules.yaml")
	t.Setenv(EnvEngine, "ejs")
	t.Setenv(EnvExt, ".html")
	t.Setenv(EnvLogLevel, "debug")

	cfg := Default()
	cfg.HTTPS = true
	require.NoError(t, LoadEnv(cfg))

	assert.Equal(t, 9200, cfg.Port)
	assert.True(t, cfg.Online)
	assert.False(t, cfg.HTTPS)
	assert.Equal(t, "/srv/rules.yaml", cfg.Rules.File)
	assert.Equal(t, "ejs", cfg.Engine.Name)
	assert.Equal(t, ".html", cfg.Ext)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, SourceEnv, cfg.Sources["port"])
	assert.Equal(t, SourceEnv, cfg.Sources["https"])
	assert.Equal(t, SourceDefault, cfg.Sources["views"])
}

func TestLoadEnv_InvalidPort(t *testing.T) {
	t.Setenv(EnvPort, "eighty")
	assert.ErrorContains(t, LoadEnv(Default()), "invalid port")
}

func TestLoadAll_ExplicitFileAndEnv(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	dir := t.TempDir()
	path := writeFile(t, dir, "devserve.yaml", "port: 9300\nonline: true\nviews: tpl\n")
	t.Setenv(EnvPort, "9301")

	cfg, err := LoadAll(path)
	require.NoError(t, err)

	assert.Equal(t, 9301, cfg.Port)
	assert.Equal(t, SourceEnv, cfg.Sources["port"])
	assert.True(t, cfg.Online)
	assert.Equal(t, SourceFile, cfg.Sources["online"])
	assert.Equal(t, "tpl", cfg.Views)
}

func TestLoadAll_ExplicitFileMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	_, err := LoadAll(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
