package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"
)

// GlobalConfigDir is the directory under the user config dir.
const GlobalConfigDir = "devserve"

// LocalConfigFileNames are the names to search for local config (in order).
var LocalConfigFileNames = []string{".devserverc.yaml", ".devserverc.yml", ".devserverc.json"}

// GlobalConfigFileNames are the names to search for global config (in order).
var GlobalConfigFileNames = []string{"config.yaml", "config.yml"}

// ConfigError is a configuration file error with location info.
type ConfigError struct {
	Path    string
	Line    int
	Column  int
	Message string
}

func (e *ConfigError) Error() string {
	if e.Line > 0 {
		if e.Column > 0 {
			return fmt.Sprintf("%s (line %d, column %d): %s", e.Path, e.Line, e.Column, e.Message)
		}
		return fmt.Sprintf("%s (line %d): %s", e.Path, e.Line, e.Message)
	}
	return e.Path + ": " + e.Message
}

var yamlLine = regexp.MustCompile(`line (\d+)(?:, column (\d+))?:\s*`)

func newConfigError(path string, err error) *ConfigError {
	ce := &ConfigError{Path: path, Message: err.Error()}
	if m := yamlLine.FindStringSubmatch(ce.Message); m != nil {
		ce.Line, _ = strconv.Atoi(m[1])
		if m[2] != "" {
			ce.Column, _ = strconv.Atoi(m[2])
		}
		ce.Message = yamlLine.ReplaceAllString(ce.Message, "")
	}
	return ce
}

// FindLocalConfig searches dir for a local config file. It returns "" when
// none exists.
func FindLocalConfig(dir string) string {
	for _, name := range LocalConfigFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// FindGlobalConfig returns the path to the global config file, or "".
func FindGlobalConfig() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	for _, name := range GlobalConfigFileNames {
		path := filepath.Join(configDir, GlobalConfigDir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// LoadFile loads a Configuration from a YAML or JSON file. Relative dir and
// rules paths are resolved against the file's directory.
func LoadFile(path string) (*Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, newConfigError(path, err)
	}

	cfg := &Configuration{
		Sources:   make(map[string]string),
		SetFields: make(map[string]bool),
	}
	if len(doc.Content) == 0 {
		return cfg, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, &ConfigError{Path: path, Line: root.Line, Column: root.Column, Message: "expected a mapping"}
	}
	if err := root.Decode(cfg); err != nil {
		return nil, newConfigError(path, err)
	}
	for i := 0; i < len(root.Content); i += 2 {
		cfg.SetFields[root.Content[i].Value] = true
	}

	base := filepath.Dir(path)
	if cfg.Dir != "" && !filepath.IsAbs(cfg.Dir) {
		cfg.Dir = filepath.Join(base, cfg.Dir)
	}
	if cfg.Rules.File != "" && !filepath.IsAbs(cfg.Rules.File) {
		cfg.Rules.File = filepath.Join(base, cfg.Rules.File)
	}
	return cfg, nil
}

// LoadAll loads configuration from all sources and merges them.
// Precedence: env > explicit or local config > global config > defaults.
// Flags are merged by the caller.
func LoadAll(explicitPath string) (*Configuration, error) {
	cfg := Default()

	if globalPath := FindGlobalConfig(); globalPath != "" {
		globalCfg, err := LoadFile(globalPath)
		if err != nil {
			return nil, err
		}
		Merge(cfg, globalCfg, SourceGlobal)
	}

	path, source := explicitPath, SourceFile
	if path == "" {
		path, source = FindLocalConfig(cfg.Dir), SourceLocal
	}
	if path != "" {
		fileCfg, err := LoadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) && source == SourceLocal {
				return cfg, nil
			}
			return nil, err
		}
		Merge(cfg, fileCfg, source)
	}

	if err := LoadEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
