package server

import "errors"

var (
	// ErrResetFailed is fatal: the transport could not be closed during a
	// reset and the server must be restarted manually.
	ErrResetFailed = errors.New("reset failed, restart manually")

	// ErrTooManyRetries is fatal: the port stayed in use for every retry.
	ErrTooManyRetries = errors.New("too many port retries")

	// ErrNotListening is reported by a transport closed before it listened.
	ErrNotListening = errors.New("server is not listening")

	// ErrAddrInUse marks a listen failure caused by an occupied port.
	// Transports may wrap it; platform errors are recognized as well.
	ErrAddrInUse = errors.New("address already in use")

	// ErrClosed is returned by Manager methods after shutdown or a fatal error.
	ErrClosed = errors.New("server manager is closed")
)

func isAddrInUse(err error) bool {
	return errors.Is(err, ErrAddrInUse) || isPlatformAddrInUse(err)
}
