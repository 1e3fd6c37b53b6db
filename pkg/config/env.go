package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Environment variable names
const (
	EnvPort      = "DEVSERVE_PORT"
	EnvHTTPS     = "DEVSERVE_HTTPS"
	EnvHost      = "DEVSERVE_HOST"
	EnvRules     = "DEVSERVE_RULES"
	EnvOnline    = "DEVSERVE_ONLINE"
	EnvDir       = "DEVSERVE_DIR"
	EnvViews     = "DEVSERVE_VIEWS"
	EnvEngine    = "DEVSERVE_ENGINE"
	EnvExt       = "DEVSERVE_EXT"
	EnvLaunch    = "DEVSERVE_LAUNCH"
	EnvSpec      = "DEVSERVE_SPEC"
	EnvLogLevel  = "DEVSERVE_LOG_LEVEL"
	EnvLogFormat = "DEVSERVE_LOG_FORMAT"
	EnvConfig    = "DEVSERVE_CONFIG"
)

// LoadEnv applies DEVSERVE_* environment variables to cfg. Only variables
// that are present are applied.
func LoadEnv(cfg *Configuration) error {
	if cfg.Sources == nil {
		cfg.Sources = make(map[string]string)
	}

	if v, ok := os.LookupEnv(EnvPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: invalid port %q", EnvPort, v)
		}
		cfg.Port = port
		cfg.Sources["port"] = SourceEnv
	}

	strs := []struct {
		env string
		key string
		dst *string
	}{
		{EnvHost, "host", &cfg.Host},
		{EnvDir, "dir", &cfg.Dir},
		{EnvViews, "views", &cfg.Views},
		{EnvExt, "ext", &cfg.Ext},
		{EnvSpec, "spec", &cfg.Spec},
		{EnvLogLevel, "logLevel", &cfg.LogLevel},
		{EnvLogFormat, "logFormat", &cfg.LogFormat},
	}
	for _, s := range strs {
		if v, ok := os.LookupEnv(s.env); ok && v != "" {
			*s.dst = v
			cfg.Sources[s.key] = SourceEnv
		}
	}

	if v, ok := os.LookupEnv(EnvRules); ok && v != "" {
		cfg.Rules = Rules{File: v}
		cfg.Sources["rules"] = SourceEnv
	}
	if v, ok := os.LookupEnv(EnvEngine); ok && v != "" {
		cfg.Engine = Engine{Name: v}
		cfg.Sources["engine"] = SourceEnv
	}

	bools := []struct {
		env string
		key string
		dst *bool
	}{
		{EnvHTTPS, "https", &cfg.HTTPS},
		{EnvOnline, "online", &cfg.Online},
		{EnvLaunch, "launch", &cfg.Launch},
	}
	for _, b := range bools {
		if v, ok := os.LookupEnv(b.env); ok && v != "" {
			*b.dst = parseBool(v)
			cfg.Sources[b.key] = SourceEnv
		}
	}
	return nil
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}
