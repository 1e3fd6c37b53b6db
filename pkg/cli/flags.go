package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/getmockd/devserve/pkg/cli/internal/flags"
	"github.com/getmockd/devserve/pkg/cli/internal/parse"
	"github.com/getmockd/devserve/pkg/config"
)

// flagValues is bound to the persistent flags of the root command.
type flagValues struct {
	configPath string
	port       int
	https      bool
	host       string
	rules      string
	online     bool
	dir        string
	views      string
	engine     string
	engineMap  flags.StringSlice
	ext        string
	launch     bool
	spec       string
	logLevel   string
	logFormat  string
	watch      bool
}

func (f *flagValues) register(cmd *cobra.Command) {
	fs := cmd.PersistentFlags()
	fs.StringVarP(&f.configPath, "config", "c", "", "Path to a config file (default: ./.devserverc.yaml)")
	fs.IntVarP(&f.port, "port", "p", config.DefaultPort, "Port to listen on; the next free port is used when taken")
	fs.BoolVar(&f.https, "https", false, "Serve over HTTPS with the bundled localhost certificate")
	fs.StringVar(&f.host, "host", "", "Host to bind (default: all interfaces)")
	fs.StringVarP(&f.rules, "rules", "r", "", "Rewrite rules file (YAML or JSON)")
	fs.BoolVar(&f.online, "online", false, "Answer unmatched requests from the described API")
	fs.StringVarP(&f.dir, "dir", "d", "", "Directory to serve (default: current directory)")
	fs.StringVar(&f.views, "views", config.DefaultViews, "Template directory, relative to --dir")
	fs.StringVar(&f.engine, "engine", "", "Engine for --ext in online mode (velocity, freemarker, ejs)")
	fs.Var(&f.engineMap, "engine-map", "Extension to engine mapping, e.g. html=ejs (repeatable)")
	fs.StringVar(&f.ext, "ext", "", "Extension rendered by --engine in online mode")
	fs.BoolVarP(&f.launch, "launch", "l", false, "Open the browser once listening")
	fs.StringVar(&f.spec, "spec", "", "OpenAPI document (path or URL) describing the API")
	fs.StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.logFormat, "log-format", "", "Log format (text, json)")
	fs.BoolVar(&f.watch, "watch", true, "Reset the server when the rules or config file changes")
}

// configuration returns a Configuration holding only the flags given on the
// command line.
func (f *flagValues) configuration(cmd *cobra.Command) (*config.Configuration, error) {
	fs := cmd.Flags()
	cfg := &config.Configuration{SetFields: make(map[string]bool)}

	if fs.Changed("port") {
		cfg.Port = f.port
	}
	if fs.Changed("host") {
		cfg.Host = f.host
	}
	if fs.Changed("rules") {
		cfg.Rules = config.Rules{File: f.rules}
	}
	if fs.Changed("dir") {
		cfg.Dir = f.dir
	}
	if fs.Changed("views") {
		cfg.Views = f.views
	}
	if fs.Changed("engine") || fs.Changed("engine-map") {
		m, err := parse.EngineMap(f.engineMap)
		if err != nil {
			return nil, err
		}
		cfg.Engine = config.Engine{Name: f.engine, Map: m}
	}
	if fs.Changed("ext") {
		cfg.Ext = f.ext
	}
	if fs.Changed("spec") {
		cfg.Spec = f.spec
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if fs.Changed("log-format") {
		cfg.LogFormat = f.logFormat
	}

	bools := []struct {
		flag string
		key  string
		val  bool
		dst  *bool
	}{
		{"https", "https", f.https, &cfg.HTTPS},
		{"online", "online", f.online, &cfg.Online},
		{"launch", "launch", f.launch, &cfg.Launch},
	}
	for _, b := range bools {
		if fs.Changed(b.flag) {
			*b.dst = b.val
			cfg.SetFields[b.key] = true
		}
	}
	return cfg, nil
}

// configFile returns the config file the current flags and environment select.
func (f *flagValues) configFile() string {
	if f.configPath != "" {
		return f.configPath
	}
	return os.Getenv(config.EnvConfig)
}

// loadConfiguration merges every configuration source, flags last.
func loadConfiguration(cmd *cobra.Command, f *flagValues) (*config.Configuration, error) {
	cfg, err := config.LoadAll(f.configFile())
	if err != nil {
		return nil, err
	}
	fc, err := f.configuration(cmd)
	if err != nil {
		return nil, err
	}
	config.Merge(cfg, fc, config.SourceFlag)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
