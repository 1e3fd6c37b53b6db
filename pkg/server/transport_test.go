package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/devserve/pkg/config"
)

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func startReal(t *testing.T, cfg *config.Configuration) *Manager {
	t.Helper()
	cfg.Host = "127.0.0.1"
	if cfg.Port == 0 {
		cfg.Port = freePort(t)
	}
	if cfg.Dir == "" {
		cfg.Dir = staticDir(t)
	}

	m, err := New(cfg, WithRetryDelay(10*time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), waitFor)
		defer cancel()
		_ = m.Shutdown(ctx)
	})

	require.NoError(t, m.Start())
	waitState(t, m, StateListening)
	return m
}

func get(t *testing.T, client *http.Client, url string) (int, string) {
	t.Helper()
	resp, err := client.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func noKeepAlive() *http.Client {
	return &http.Client{
		Timeout:   waitFor,
		Transport: &http.Transport{DisableKeepAlives: true},
	}
}

func TestHTTPTransport_Serves(t *testing.T) {
	t.Parallel()

	m := startReal(t, &config.Configuration{})
	status, body := get(t, noKeepAlive(), fmt.Sprintf("http://127.0.0.1:%d/index.html", m.Port()))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "<h1>home</h1>", body)
	assert.Equal(t, fmt.Sprintf("http://localhost:%d", m.Port()), m.URL())
}

func TestHTTPTransport_ResetServesNewDir(t *testing.T) {
	t.Parallel()

	m := startReal(t, &config.Configuration{})
	base := fmt.Sprintf("http://127.0.0.1:%d/index.html", m.Port())

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>next</h1>"), 0o644))

	require.NoError(t, m.Reset(config.Overrides{Dir: &dir}))
	waitState(t, m, StateListening)

	status, body := get(t, noKeepAlive(), base)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "<h1>next</h1>", body)
}

func TestHTTPTransport_ResetDropsKeepAliveConnections(t *testing.T) {
	t.Parallel()

	m := startReal(t, &config.Configuration{})
	client := &http.Client{Timeout: waitFor}
	get(t, client, fmt.Sprintf("http://127.0.0.1:%d/index.html", m.Port()))

	require.Eventually(t, func() bool { return m.Connections() >= 1 }, waitFor, tick)
	require.NoError(t, m.Reset(config.Overrides{}))
	assert.Equal(t, 0, m.Connections())

	waitState(t, m, StateListening)
	status, _ := get(t, noKeepAlive(), fmt.Sprintf("http://127.0.0.1:%d/index.html", m.Port()))
	assert.Equal(t, http.StatusOK, status)
}

func TestHTTPTransport_PortInUse(t *testing.T) {
	t.Parallel()

	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()
	taken := busy.Addr().(*net.TCPAddr).Port

	m := startReal(t, &config.Configuration{Port: taken})
	assert.Greater(t, m.Port(), taken)

	status, _ := get(t, noKeepAlive(), fmt.Sprintf("http://127.0.0.1:%d/", m.Port()))
	assert.Equal(t, http.StatusOK, status)
}

func TestHTTPTransport_HTTPS(t *testing.T) {
	t.Parallel()

	m := startReal(t, &config.Configuration{HTTPS: true})
	client := &http.Client{
		Timeout: waitFor,
		Transport: &http.Transport{
			DisableKeepAlives: true,
			TLSClientConfig:   &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // bundled self-signed certificate
		},
	}

	status, body := get(t, client, fmt.Sprintf("https://127.0.0.1:%d/index.html", m.Port()))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "<h1>home</h1>", body)
	assert.Equal(t, fmt.Sprintf("https://localhost:%d", m.Port()), m.URL())
}

func TestHTTPTransport_CloseBeforeListen(t *testing.T) {
	t.Parallel()

	events := make(chan Event, 1)
	tr := NewHTTPTransport(TransportConfig{
		Handler: http.NotFoundHandler(),
		Emit:    func(ev Event) { events <- ev },
	})
	tr.Close()

	select {
	case ev := <-events:
		assert.Equal(t, EventClose, ev.Kind)
		assert.ErrorIs(t, ev.Err, ErrNotListening)
	case <-time.After(waitFor):
		t.Fatal("no close event")
	}
}

func TestManager_ShutdownStopsServing(t *testing.T) {
	t.Parallel()

	m := startReal(t, &config.Configuration{})
	port := m.Port()

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	require.NoError(t, m.Shutdown(ctx))

	_, err := noKeepAlive().Get(fmt.Sprintf("http://127.0.0.1:%d/", port))
	assert.Error(t, err)
}
