// Package cli provides the command-line interface for devserve.
//
// The root command serves a directory:
//   - static files and directory listings under --dir
//   - rewrite rules from --rules (proxy, file, template and inline targets)
//   - described API routes for unmatched requests when --online is set
//
// Configuration is layered: flags, then DEVSERVE_* environment variables
// (.env and .env.local are loaded first), then ./.devserverc.yaml or --config,
// then the global config file, then defaults.
//
// While running, SIGHUP or a change to the rules or config file (with --watch)
// reloads the configuration and resets the server in place. SIGINT and SIGTERM
// shut it down.
//
// Usage:
//
//	devserve
//	devserve ./public --port 3000 --launch
//	devserve --rules rules.yaml --online --spec openapi.yaml
//	devserve config
//	devserve version --json
package cli
