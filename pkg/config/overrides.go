package config

import "maps"

// Overrides is a partial configuration applied on reset. Nil fields leave the
// current value alone; set fields win.
type Overrides struct {
	Port   *int
	HTTPS  *bool
	Host   *string
	Rules  *Rules
	Online *bool
	Dir    *string
	Views  *string
	Engine *Engine
	Ext    *string
	Launch *bool
	Spec   *string
}

// Apply writes the set fields of o into cfg.
func (o Overrides) Apply(cfg *Configuration) {
	if cfg.Sources == nil {
		cfg.Sources = make(map[string]string)
	}
	set := func(key string) { cfg.Sources[key] = SourceReset }

	if o.Port != nil {
		cfg.Port = *o.Port
		set("port")
	}
	if o.HTTPS != nil {
		cfg.HTTPS = *o.HTTPS
		set("https")
	}
	if o.Host != nil {
		cfg.Host = *o.Host
		set("host")
	}
	if o.Rules != nil {
		cfg.Rules = o.Rules.clone()
		set("rules")
	}
	if o.Online != nil {
		cfg.Online = *o.Online
		set("online")
	}
	if o.Dir != nil {
		cfg.Dir = *o.Dir
		set("dir")
	}
	if o.Views != nil {
		cfg.Views = *o.Views
		set("views")
	}
	if o.Engine != nil {
		cfg.Engine = Engine{Name: o.Engine.Name, Map: maps.Clone(o.Engine.Map)}
		set("engine")
	}
	if o.Ext != nil {
		cfg.Ext = *o.Ext
		set("ext")
	}
	if o.Launch != nil {
		cfg.Launch = *o.Launch
		set("launch")
	}
	if o.Spec != nil {
		cfg.Spec = *o.Spec
		set("spec")
	}
}

// OverridesFrom returns overrides that replace every field with cfg's value.
// A reloaded configuration is handed to a reset this way.
func OverridesFrom(cfg *Configuration) Overrides {
	c := cfg.Clone()
	return Overrides{
		Port:   &c.Port,
		HTTPS:  &c.HTTPS,
		Host:   &c.Host,
		Rules:  &c.Rules,
		Online: &c.Online,
		Dir:    &c.Dir,
		Views:  &c.Views,
		Engine: &c.Engine,
		Ext:    &c.Ext,
		Launch: &c.Launch,
		Spec:   &c.Spec,
	}
}
