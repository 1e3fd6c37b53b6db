package config

import "maps"

// Merge merges source into target, updating source tracking.
// Only non-zero values from source are applied.
func Merge(target, source *Configuration, sourceType string) {
	if source == nil {
		return
	}
	if target.Sources == nil {
		target.Sources = make(map[string]string)
	}

	if source.Port != 0 {
		target.Port = source.Port
		target.Sources["port"] = sourceType
	}
	if source.Host != "" {
		target.Host = source.Host
		target.Sources["host"] = sourceType
	}
	if source.Rules.IsSet() {
		target.Rules = source.Rules.clone()
		target.Sources["rules"] = sourceType
	}
	if source.Dir != "" {
		target.Dir = source.Dir
		target.Sources["dir"] = sourceType
	}
	if source.Views != "" {
		target.Views = source.Views
		target.Sources["views"] = sourceType
	}
	if !source.Engine.IsZero() {
		target.Engine = Engine{Name: source.Engine.Name, Map: maps.Clone(source.Engine.Map)}
		target.Sources["engine"] = sourceType
	}
	if source.Ext != "" {
		target.Ext = source.Ext
		target.Sources["ext"] = sourceType
	}
	if source.Spec != "" {
		target.Spec = source.Spec
		target.Sources["spec"] = sourceType
	}
	if source.LogLevel != "" {
		target.LogLevel = source.LogLevel
		target.Sources["logLevel"] = sourceType
	}
	if source.LogFormat != "" {
		target.LogFormat = source.LogFormat
		target.Sources["logFormat"] = sourceType
	}

	// For booleans, checking `if source.X` cannot detect an explicit false.
	// SetFields (populated during file loading) records whether the key was
	// present; without it only true values are merged.
	if boolIsSet(source, "https") {
		target.HTTPS = source.HTTPS
		target.Sources["https"] = sourceType
	}
	if boolIsSet(source, "online") {
		target.Online = source.Online
		target.Sources["online"] = sourceType
	}
	if boolIsSet(source, "launch") {
		target.Launch = source.Launch
		target.Sources["launch"] = sourceType
	}
}

func boolIsSet(cfg *Configuration, yamlKey string) bool {
	if cfg.SetFields != nil {
		return cfg.SetFields[yamlKey]
	}
	switch yamlKey {
	case "https":
		return cfg.HTTPS
	case "online":
		return cfg.Online
	case "launch":
		return cfg.Launch
	}
	return false
}
