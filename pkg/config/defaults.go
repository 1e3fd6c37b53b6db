package config

import (
	"fmt"
	"os"
	"path/filepath"

	"dario.cat/mergo"
)

// DefaultPort is the default HTTP port.
const DefaultPort = 8000

// DefaultViews is the default template directory, relative to Dir.
const DefaultViews = "views"

// Default returns a Configuration with default values. Dir is the current
// working directory.
func Default() *Configuration {
	cfg := &Configuration{
		Port:    DefaultPort,
		Views:   DefaultViews,
		Sources: make(map[string]string),
	}
	if cwd, err := os.Getwd(); err == nil {
		cfg.Dir = cwd
	}

	// Mark all as default source
	for _, k := range []string{"port", "https", "online", "launch", "dir", "views"} {
		cfg.Sources[k] = SourceDefault
	}
	return cfg
}

// FillDefaults sets every zero-valued field of cfg to its default. Configs
// built in code rather than by LoadAll rely on this.
func FillDefaults(cfg *Configuration) error {
	defaults := Default()
	defaults.Sources = nil
	if err := mergo.Merge(cfg, *defaults); err != nil {
		return fmt.Errorf("fill defaults: %w", err)
	}
	return nil
}

// Resolve makes Dir and a rule file path absolute and roots Views under Dir.
func (c *Configuration) Resolve() error {
	if c.Dir == "" {
		c.Dir = "."
	}
	dir, err := filepath.Abs(c.Dir)
	if err != nil {
		return fmt.Errorf("resolve dir: %w", err)
	}
	c.Dir = dir

	if c.Rules.File != "" {
		rules, err := filepath.Abs(c.Rules.File)
		if err != nil {
			return fmt.Errorf("resolve rules: %w", err)
		}
		c.Rules.File = rules
	}

	if c.Views == "" {
		c.Views = DefaultViews
	}
	if !filepath.IsAbs(c.Views) {
		c.Views = filepath.Join(c.Dir, c.Views)
	}
	return nil
}
