package cli

import (
	"os"
	"os/signal"
	"slices"
)

// notifySignals subscribes to the stop and reload signals.
func notifySignals() (<-chan os.Signal, func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, slices.Concat(stopSignals, reloadSignals)...)
	return ch, func() { signal.Stop(ch) }
}

func isStopSignal(sig os.Signal) bool {
	return slices.Contains(stopSignals, sig)
}
