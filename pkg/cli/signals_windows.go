//go:build windows

package cli

import "os"

// Signals for Windows systems
// Windows has no SIGHUP; reloads come from the file watcher only.
var (
	stopSignals   = []os.Signal{os.Interrupt}
	reloadSignals []os.Signal
)
