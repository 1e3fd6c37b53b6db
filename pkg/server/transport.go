package server

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/getmockd/devserve/pkg/logging"
)

// EventKind identifies a transport event.
type EventKind int

// Transport events.
const (
	EventError EventKind = iota
	EventListening
	EventClose
	EventConnection
	EventDisconnect
)

func (k EventKind) String() string {
	switch k {
	case EventError:
		return "error"
	case EventListening:
		return "listening"
	case EventClose:
		return "close"
	case EventConnection:
		return "connection"
	case EventDisconnect:
		return "disconnect"
	default:
		return "unknown"
	}
}

// Event is emitted by a Transport. Err is set for EventError and, when the
// close failed, for EventClose. Addr is set for EventListening and Conn for
// the connection events.
type Event struct {
	Kind EventKind
	Err  error
	Addr net.Addr
	Conn net.Conn

	gen uint64
}

// Transport is a listening endpoint bound to a handler. Listen and Close
// return immediately; their outcome is reported through events, which a
// transport must emit from its own goroutines.
type Transport interface {
	Listen(host string, port int)
	Close()
}

// TransportConfig is passed to a TransportFactory.
type TransportConfig struct {
	Handler http.Handler
	// TLS is nil for plain HTTP.
	TLS  *tls.Config
	Emit func(Event)
	Log  *slog.Logger
}

// TransportFactory creates a transport.
type TransportFactory func(TransportConfig) Transport

// shutdownTimeout bounds how long Close waits for in-flight requests.
const shutdownTimeout = 5 * time.Second

// NewHTTPTransport creates a transport backed by net/http.
func NewHTTPTransport(cfg TransportConfig) Transport {
	if cfg.Log == nil {
		cfg.Log = logging.Nop()
	}
	t := &httpTransport{cfg: cfg}
	t.srv = &http.Server{
		Handler:           cfg.Handler,
		ReadHeaderTimeout: 30 * time.Second,
		ConnState:         t.connState,
		ErrorLog:          slog.NewLogLogger(cfg.Log.Handler(), slog.LevelDebug),
	}
	return t
}

type httpTransport struct {
	cfg TransportConfig
	srv *http.Server

	mu        sync.Mutex
	listening bool
	closing   bool
}

func (t *httpTransport) Listen(host string, port int) {
	go func() {
		addr := net.JoinHostPort(host, strconv.Itoa(port))
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			t.cfg.Emit(Event{Kind: EventError, Err: err})
			return
		}

		t.mu.Lock()
		if t.closing {
			t.mu.Unlock()
			_ = ln.Close()
			return
		}
		t.listening = true
		t.mu.Unlock()

		if t.cfg.TLS != nil {
			ln = tls.NewListener(ln, t.cfg.TLS)
		}
		t.cfg.Emit(Event{Kind: EventListening, Addr: ln.Addr()})

		if err := t.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.cfg.Emit(Event{Kind: EventError, Err: err})
		}
	}()
}

func (t *httpTransport) Close() {
	t.mu.Lock()
	listening := t.listening
	t.closing = true
	t.mu.Unlock()

	go func() {
		if !listening {
			t.cfg.Emit(Event{Kind: EventClose, Err: ErrNotListening})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := t.srv.Shutdown(ctx)
		if errors.Is(err, context.DeadlineExceeded) {
			err = t.srv.Close()
		}
		t.cfg.Emit(Event{Kind: EventClose, Err: err})
	}()
}

func (t *httpTransport) connState(c net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		t.cfg.Emit(Event{Kind: EventConnection, Conn: c})
	case http.StateClosed, http.StateHijacked:
		t.cfg.Emit(Event{Kind: EventDisconnect, Conn: c})
	}
}
