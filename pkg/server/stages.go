package server

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/getmockd/devserve/internal/id"
	"github.com/getmockd/devserve/pkg/apidesc"
	"github.com/getmockd/devserve/pkg/httputil"
)

// RequestIDHeader carries the request id.
const RequestIDHeader = "X-Request-Id"

type requestIDKey struct{}

// RequestID returns the id assigned to the request carrying ctx.
func RequestID(ctx context.Context) string {
	s, _ := ctx.Value(requestIDKey{}).(string)
	return s
}

// requestIDStage keeps a valid incoming X-Request-Id or assigns a new one.
func requestIDStage(w http.ResponseWriter, r *http.Request, next httputil.Next) error {
	rid := r.Header.Get(RequestIDHeader)
	if !id.Valid(rid) {
		rid = id.Request()
		r.Header.Set(RequestIDHeader, rid)
	}
	return next(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, rid)))
}

// drainStage reads the whole request body before continuing, then hands
// later stages an in-memory copy.
func drainStage(w http.ResponseWriter, r *http.Request, next httputil.Next) error {
	if r.Body == nil || r.Body == http.NoBody {
		return next(w, r)
	}
	body, err := io.ReadAll(r.Body)
	_ = r.Body.Close()
	if err != nil {
		return fmt.Errorf("read request body: %w", err)
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	r.ContentLength = int64(len(body))
	r.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	return next(w, r)
}

// optionsStage answers every OPTIONS request with the describer's headers.
func optionsStage(d apidesc.Describer) httputil.Stage {
	return httputil.Method(http.MethodOptions, func(w http.ResponseWriter, _ *http.Request, _ httputil.Next) error {
		for k, v := range d.Settings().APIResHeaders {
			w.Header().Set(k, v)
		}
		w.WriteHeader(http.StatusOK)
		return nil
	})
}

// staticStage serves files under dir. Unmatched requests call next when
// passThrough is set and get a 404 otherwise.
func staticStage(dir string, passThrough bool) httputil.Stage {
	return func(w http.ResponseWriter, r *http.Request, next httputil.Next) error {
		miss := func() error {
			if passThrough {
				return next(w, r)
			}
			http.NotFound(w, r)
			return nil
		}
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			return miss()
		}

		urlPath := path.Clean("/" + r.URL.Path)
		name := filepath.Join(dir, filepath.FromSlash(urlPath))
		info, err := os.Stat(name)
		if err != nil {
			return miss()
		}
		if info.IsDir() {
			if !strings.HasSuffix(r.URL.Path, "/") {
				target := r.URL.Path + "/"
				if r.URL.RawQuery != "" {
					target += "?" + r.URL.RawQuery
				}
				http.Redirect(w, r, target, http.StatusMovedPermanently)
				return nil
			}
			name = filepath.Join(name, "index.html")
			if info, err = os.Stat(name); err != nil || info.IsDir() {
				return miss()
			}
		}

		f, err := os.Open(name)
		if err != nil {
			return err
		}
		defer f.Close()
		http.ServeContent(w, r, info.Name(), info.ModTime(), f)
		return nil
	}
}
