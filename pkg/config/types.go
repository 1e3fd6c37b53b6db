package config

import (
	"fmt"
	"maps"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/getmockd/devserve/pkg/rewrite"
)

// Configuration is the complete devserve server configuration.
type Configuration struct {
	Port   int    `yaml:"port" json:"port"`
	HTTPS  bool   `yaml:"https" json:"https"`
	Host   string `yaml:"host,omitempty" json:"host,omitempty"`
	Rules  Rules  `yaml:"rules,omitempty" json:"rules,omitempty"`
	Online bool   `yaml:"online" json:"online"`
	Dir    string `yaml:"dir,omitempty" json:"dir,omitempty"`
	Views  string `yaml:"views,omitempty" json:"views,omitempty"`
	Engine Engine `yaml:"engine,omitempty" json:"engine,omitempty"`
	Ext    string `yaml:"ext,omitempty" json:"ext,omitempty"`
	Launch bool   `yaml:"launch" json:"launch"`

	// Spec is a path or URL of the OpenAPI document describing the mocked
	// API. It is only consulted when Online is set.
	Spec string `yaml:"spec,omitempty" json:"spec,omitempty"`

	LogLevel  string `yaml:"logLevel,omitempty" json:"logLevel,omitempty"`
	LogFormat string `yaml:"logFormat,omitempty" json:"logFormat,omitempty"`

	// Sources tracks where each value came from (for debugging)
	Sources map[string]string `yaml:"-" json:"-"`

	// SetFields records the keys present in a loaded file so explicit false
	// booleans can be told apart from absent ones.
	SetFields map[string]bool `yaml:"-" json:"-"`
}

// Source identifies where a config value originated.
const (
	SourceDefault = "default"
	SourceGlobal  = "global"
	SourceLocal   = "local"
	SourceFile    = "file"
	SourceEnv     = "env"
	SourceFlag    = "flag"
	SourceReset   = "reset"
)

// Clone returns a deep copy of c. Collaborators always receive clones.
func (c *Configuration) Clone() *Configuration {
	if c == nil {
		return nil
	}
	out := *c
	out.Rules = c.Rules.clone()
	out.Engine.Map = maps.Clone(c.Engine.Map)
	out.Sources = maps.Clone(c.Sources)
	out.SetFields = maps.Clone(c.SetFields)
	return &out
}

// Scheme returns "https" or "http".
func (c *Configuration) Scheme() string {
	if c.HTTPS {
		return "https"
	}
	return "http"
}

// Validate checks value ranges.
func (c *Configuration) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d is out of range (0-65535)", c.Port)
	}
	if c.Rules.File != "" && len(c.Rules.Set) > 0 {
		return fmt.Errorf("rules: a rule file and inline rules cannot both be set")
	}
	return nil
}

// Rules is either a path to a rule file or an inline rule set.
type Rules struct {
	File string
	Set  rewrite.RuleSet
}

// IsSet reports whether any rules are configured.
func (r Rules) IsSet() bool {
	return r.File != "" || len(r.Set) > 0
}

// IsZero lets omitempty drop unset rules.
func (r Rules) IsZero() bool { return !r.IsSet() }

func (r Rules) clone() Rules {
	return Rules{File: r.File, Set: slices.Clone(r.Set)}
}

// UnmarshalYAML accepts a file path scalar or an ordered mapping of rules.
func (r *Rules) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			*r = Rules{}
			return nil
		}
		*r = Rules{File: n.Value}
		return nil
	case yaml.MappingNode:
		set, err := rewrite.FromNode(n)
		if err != nil {
			return err
		}
		*r = Rules{Set: set}
		return nil
	default:
		return fmt.Errorf("line %d: rules must be a file path or a mapping", n.Line)
	}
}

// MarshalYAML writes the file path, or the rule keys when inline.
func (r Rules) MarshalYAML() (any, error) {
	if r.File != "" {
		return r.File, nil
	}
	return r.Set.Patterns(), nil
}

// Engine is either a single engine name, used with Ext when online, or a
// mapping of extension to engine name.
type Engine struct {
	Name string
	Map  map[string]string
}

// IsZero lets omitempty drop an unset engine.
func (e Engine) IsZero() bool { return e.Name == "" && len(e.Map) == 0 }

// UnmarshalYAML accepts an engine name or an extension mapping.
func (e *Engine) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		*e = Engine{Name: n.Value}
		return nil
	case yaml.MappingNode:
		m := map[string]string{}
		if err := n.Decode(&m); err != nil {
			return err
		}
		*e = Engine{Map: m}
		return nil
	default:
		return fmt.Errorf("line %d: engine must be a name or a mapping", n.Line)
	}
}

// MarshalYAML writes the name or the mapping.
func (e Engine) MarshalYAML() (any, error) {
	if e.Name != "" {
		return e.Name, nil
	}
	return e.Map, nil
}
