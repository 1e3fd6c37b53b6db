package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/getmockd/devserve/pkg/config"
	"github.com/getmockd/devserve/pkg/logging"
)

// Manager owns the server endpoint and its configuration for the life of the
// process. Methods are safe for concurrent use; every state change happens on
// the Manager's event loop.
type Manager struct {
	log          *slog.Logger
	retryDelay   time.Duration
	openBrowser  func(string) error
	newTransport TransportFactory
	collab       Collaborators

	cmds    chan func()
	events  chan Event
	fatal   chan error
	done    chan struct{}
	stopped chan struct{}

	// Owned by the event loop. cfg keeps paths as given; resolved is the
	// copy the current application was built from.
	cfg        *config.Configuration
	resolved   *config.Configuration
	previous   *config.Configuration
	state      State
	app        *App
	transport  Transport
	gen        uint64
	conns      []net.Conn
	retries    int
	retryTimer *time.Timer
	addr       net.Addr
	quit       bool
}

// New creates a Manager and builds the application for cfg. The caller's cfg
// is cloned; later changes to it have no effect.
func New(cfg *config.Configuration, opts ...Option) (*Manager, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	cfg = cfg.Clone()
	if err := config.FillDefaults(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &Manager{
		log:          logging.Nop(),
		retryDelay:   DefaultRetryDelay,
		openBrowser:  OpenBrowser,
		newTransport: NewHTTPTransport,
		cmds:         make(chan func()),
		events:       make(chan Event),
		fatal:        make(chan error, 1),
		done:         make(chan struct{}),
		stopped:      make(chan struct{}),
		cfg:          cfg,
	}
	for _, opt := range opts {
		opt(m)
	}

	if err := m.init(); err != nil {
		return nil, err
	}
	go m.run()
	return m, nil
}

// Start begins listening on the configured port. Progress is reported
// through State and Fatal.
func (m *Manager) Start() error {
	var err error
	if derr := m.do(func() {
		switch m.state {
		case StateBuilt:
			m.retries = 0
			m.start()
		case StateClosed:
			err = ErrClosed
		default:
			err = fmt.Errorf("cannot start while %s", m.state)
		}
	}); derr != nil {
		return derr
	}
	return err
}

// Reset merges o into the configuration (o wins), disables launch,
// destroys every live connection and closes the transport. The application is
// rebuilt and started again once the transport reports it closed. The
// connection registry is empty when Reset returns.
func (m *Manager) Reset(o config.Overrides) error {
	var err error
	if derr := m.do(func() {
		switch m.state {
		case StateClosed:
			err = ErrClosed
			return
		case StateResetRequested, StateResetInProgress:
			m.merge(o)
			m.log.Debug("reset already pending, merged options")
			return
		}

		m.previous = m.cfg.Clone()
		m.merge(o)
		m.log.Info("resetting server", "url", m.url())
		m.stopRetry()
		m.state = StateResetRequested
		m.destroyConnections()
		m.transport.Close()
	}); derr != nil {
		return derr
	}
	return err
}

// Shutdown closes the transport and waits for it to finish, or for ctx.
// In-flight requests are given until ctx is done before their connections
// are destroyed.
func (m *Manager) Shutdown(ctx context.Context) error {
	if err := m.do(func() {
		if m.state == StateClosed {
			return
		}
		m.stopRetry()
		m.state = StateClosed
		m.transport.Close()
	}); err != nil {
		return nil
	}

	select {
	case <-m.stopped:
		return nil
	case <-ctx.Done():
		_ = m.do(m.destroyConnections)
		return ctx.Err()
	}
}

// Fatal delivers the error that stopped the Manager: ErrResetFailed or
// ErrTooManyRetries. At most one error is sent.
func (m *Manager) Fatal() <-chan error {
	return m.fatal
}

// Done is closed when the Manager has stopped.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	var s State
	m.query(func() { s = m.state })
	return s
}

// Port returns the bound port while listening, else the configured port.
func (m *Manager) Port() int {
	var p int
	m.query(func() { p = m.port() })
	return p
}

// URL returns scheme://localhost:port.
func (m *Manager) URL() string {
	var u string
	m.query(func() { u = m.url() })
	return u
}

// Connections returns the number of tracked live connections.
func (m *Manager) Connections() int {
	var n int
	m.query(func() { n = len(m.conns) })
	return n
}

// Config returns a copy of the current configuration.
func (m *Manager) Config() *config.Configuration {
	var c *config.Configuration
	m.query(func() { c = m.cfg.Clone() })
	return c
}

// App returns the current application.
func (m *Manager) App() *App {
	var a *App
	m.query(func() { a = m.app })
	return a
}

func (m *Manager) run() {
	defer close(m.done)
	for !m.quit {
		select {
		case fn := <-m.cmds:
			fn()
		case ev := <-m.events:
			m.handle(ev)
		}
	}
}

// do runs fn on the event loop and waits for it.
func (m *Manager) do(fn func()) error {
	finished := make(chan struct{})
	select {
	case m.cmds <- func() { defer close(finished); fn() }:
		<-finished
		return nil
	case <-m.done:
		return ErrClosed
	}
}

// query runs a read-only fn on the event loop, or directly once the loop has
// exited and nothing mutates state any more.
func (m *Manager) query(fn func()) {
	if err := m.do(fn); err != nil {
		fn()
	}
}

func (m *Manager) emitter(gen uint64) func(Event) {
	return func(ev Event) {
		ev.gen = gen
		select {
		case m.events <- ev:
		case <-m.done:
		}
	}
}

// init builds the application and a transport for the current configuration.
func (m *Manager) init() error {
	resolved := m.cfg.Clone()
	if err := resolved.Resolve(); err != nil {
		return err
	}
	app, err := Build(context.Background(), resolved.Clone(), m.collab, m.log)
	if err != nil {
		return err
	}

	var tlsCfg *tls.Config
	if m.cfg.HTTPS {
		if tlsCfg, err = TLSConfig(); err != nil {
			return err
		}
	}

	m.gen++
	m.app = app
	m.resolved = resolved
	m.addr = nil
	m.transport = m.newTransport(TransportConfig{
		Handler: app,
		TLS:     tlsCfg,
		Emit:    m.emitter(m.gen),
		Log:     m.log,
	})
	m.state = StateBuilt
	return nil
}

func (m *Manager) start() {
	if m.retries >= MaxRetries {
		m.fail(fmt.Errorf("%w: port %d after %d attempts", ErrTooManyRetries, m.cfg.Port, m.retries))
		return
	}
	m.state = StateStarting
	m.transport.Listen(m.cfg.Host, m.cfg.Port)
}

func (m *Manager) handle(ev Event) {
	if ev.gen != m.gen {
		if ev.Kind == EventConnection && ev.Conn != nil {
			_ = destroy(ev.Conn)
		}
		return
	}

	switch ev.Kind {
	case EventError:
		m.onError(ev.Err)
	case EventListening:
		m.onListening(ev.Addr)
	case EventClose:
		m.onClose(ev.Err)
	case EventConnection:
		if m.state == StateResetRequested || m.state == StateResetInProgress {
			_ = destroy(ev.Conn)
			return
		}
		m.conns = append(m.conns, ev.Conn)
	case EventDisconnect:
		m.forget(ev.Conn)
	}
}

func (m *Manager) onError(err error) {
	if isAddrInUse(err) && m.state == StateStarting {
		next := m.cfg.Port + 1
		m.log.Warn("port in use, retrying", "port", m.cfg.Port, "next_port", next, "retry_in", m.retryDelay)
		m.cfg.Port = next
		m.retries++

		gen := m.gen
		m.retryTimer = time.AfterFunc(m.retryDelay, func() {
			_ = m.do(func() {
				if m.gen == gen && m.state == StateStarting {
					m.start()
				}
			})
		})
		return
	}
	m.log.Error("transport error", "error", err)
}

func (m *Manager) onListening(addr net.Addr) {
	if m.state != StateStarting {
		return
	}
	m.state = StateListening
	m.addr = addr
	u := m.url()
	m.log.Info("server listening", "url", u, "dir", m.resolved.Dir, "rules", m.cfg.Rules.IsSet(), "online", m.cfg.Online)

	if m.cfg.Launch {
		open := m.openBrowser
		go func() {
			if err := open(u); err != nil {
				m.log.Warn("failed to open browser", "url", u, "error", err)
			}
		}()
	}
}

func (m *Manager) onClose(err error) {
	switch m.state {
	case StateResetRequested:
		// A transport still retrying its port never listened and has
		// nothing to tear down.
		if err != nil && !errors.Is(err, ErrNotListening) {
			m.fail(fmt.Errorf("%w: %w", ErrResetFailed, err))
			return
		}
		m.state = StateResetInProgress
		if err := m.init(); err != nil {
			m.log.Error("rebuild failed, restoring previous configuration", "error", err)
			m.cfg = m.previous
			m.cfg.Launch = false
			if err := m.init(); err != nil {
				m.fail(fmt.Errorf("%w: %w", ErrResetFailed, err))
				return
			}
		}
		m.previous = nil
		m.retries = 0
		m.start()
	case StateClosed:
		m.log.Info("server closed")
		m.conns = nil
		close(m.stopped)
		m.quit = true
	default:
		m.log.Debug("transport closed", "state", m.state.String())
	}
}

// fail reports a fatal error and stops the event loop.
func (m *Manager) fail(err error) {
	m.log.Error("server stopped", "error", err)
	m.stopRetry()
	m.state = StateClosed
	m.destroyConnections()
	select {
	case m.fatal <- err:
	default:
	}
	m.quit = true
}

func (m *Manager) merge(o config.Overrides) {
	o.Apply(m.cfg)
	m.cfg.Launch = false
}

// destroyConnections closes every tracked connection, most recent first.
func (m *Manager) destroyConnections() {
	for len(m.conns) > 0 {
		c := m.conns[len(m.conns)-1]
		m.conns = m.conns[:len(m.conns)-1]
		_ = destroy(c)
	}
}

func (m *Manager) forget(c net.Conn) {
	for i, tracked := range m.conns {
		if tracked == c {
			m.conns = append(m.conns[:i], m.conns[i+1:]...)
			return
		}
	}
}

func (m *Manager) stopRetry() {
	if m.retryTimer != nil {
		m.retryTimer.Stop()
		m.retryTimer = nil
	}
}

func (m *Manager) port() int {
	if tcp, ok := m.addr.(*net.TCPAddr); ok {
		return tcp.Port
	}
	return m.cfg.Port
}

func (m *Manager) url() string {
	return (&url.URL{
		Scheme: m.cfg.Scheme(),
		Host:   net.JoinHostPort("localhost", strconv.Itoa(m.port())),
	}).String()
}

// destroy closes c abruptly, skipping the TLS close_notify exchange.
func destroy(c net.Conn) error {
	if tc, ok := c.(*tls.Conn); ok {
		return tc.NetConn().Close()
	}
	return c.Close()
}
