package server

import (
	"log/slog"
	"time"
)

// DefaultRetryDelay is the wait before listening again on the next port.
const DefaultRetryDelay = time.Second

// MaxRetries is the number of port retries before giving up.
const MaxRetries = 10

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the operational logger.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// WithRetryDelay overrides DefaultRetryDelay.
func WithRetryDelay(d time.Duration) Option {
	return func(m *Manager) {
		m.retryDelay = d
	}
}

// WithBrowserOpener sets the function used to open the server URL when the
// configuration asks for launch.
func WithBrowserOpener(open func(url string) error) Option {
	return func(m *Manager) {
		if open != nil {
			m.openBrowser = open
		}
	}
}

// WithTransportFactory replaces the net/http transport.
func WithTransportFactory(f TransportFactory) Option {
	return func(m *Manager) {
		if f != nil {
			m.newTransport = f
		}
	}
}

// WithCollaborators replaces pipeline collaborators.
func WithCollaborators(c Collaborators) Option {
	return func(m *Manager) {
		m.collab = c
	}
}
