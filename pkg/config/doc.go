// Package config defines the devserve configuration and loads it from layered
// sources.
//
// Values are resolved with the following precedence, highest first:
//
//  1. Command-line flags
//  2. Environment variables (DEVSERVE_*)
//  3. Local config file (.devserverc.yaml in the working directory)
//  4. Global config file (<user config dir>/devserve/config.yaml)
//  5. Defaults
//
// Every merged value records where it came from in Configuration.Sources.
// Reset overrides are applied on top with Overrides.Apply.
//
// A config file looks like:
//
//	port: 8000
//	dir: ./public
//	views: views
//	rules: ./mock/rules.yaml
//	online: true
//	engine: freemarker
//	ext: .json
//
// rules may also be given inline as an ordered mapping of rule keys to targets,
// and engine as a mapping of extension to engine name.
package config
