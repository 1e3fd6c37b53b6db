package rewrite

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	proxyutil "net/http/httputil"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/getmockd/devserve/pkg/httputil"
)

func (rw *Rewriter) serve(w http.ResponseWriter, r *http.Request, t Target, params map[string]string) error {
	if t.Delay > 0 {
		select {
		case <-time.After(t.Delay):
		case <-r.Context().Done():
			return r.Context().Err()
		}
	}

	switch t.Kind {
	case KindProxy:
		return rw.proxy(w, r, expand(t.URL, params))
	case KindFile:
		return rw.file(w, r, t.File, params)
	case KindResponse:
		return writeResponse(w, t)
	default:
		httputil.WriteJSON(w, http.StatusOK, t.Data)
		return nil
	}
}

func (rw *Rewriter) proxy(w http.ResponseWriter, r *http.Request, rawURL string) error {
	target, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("proxy target %q: %w", rawURL, err)
	}

	var proxyErr error
	rp := &proxyutil.ReverseProxy{
		Rewrite: func(pr *proxyutil.ProxyRequest) {
			pr.Out.URL.Scheme = target.Scheme
			pr.Out.URL.Host = target.Host
			if target.Path != "" && target.Path != "/" {
				pr.Out.URL.Path = target.Path
				pr.Out.URL.RawPath = ""
			}
			if target.RawQuery != "" {
				pr.Out.URL.RawQuery = target.RawQuery
			}
			pr.Out.Host = target.Host
			pr.SetXForwarded()
		},
		Transport: rw.opts.Transport,
		ErrorHandler: func(_ http.ResponseWriter, _ *http.Request, err error) {
			proxyErr = err
		},
	}
	rp.ServeHTTP(w, r)

	if proxyErr != nil {
		return fmt.Errorf("proxy to %s: %w", target.Redacted(), proxyErr)
	}
	return nil
}

func (rw *Rewriter) file(w http.ResponseWriter, r *http.Request, target string, params map[string]string) error {
	path := expand(target, params)
	if !filepath.IsAbs(path) {
		path = filepath.Join(rw.opts.Dir, path)
	}
	if root, ok := fileRoot(target, rw.opts.Dir); ok && !within(root, path) {
		httputil.WriteNotFound(w, "file_not_found", "mock file not found: "+filepath.Base(path))
		return nil
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			httputil.WriteNotFound(w, "file_not_found", "mock file not found: "+filepath.Base(path))
			return nil
		}
		return err
	}

	ext := filepath.Ext(path)
	if rw.opts.Engines != nil {
		if renderer, ok := rw.opts.Engines.Lookup(ext); ok {
			data, err := templateData(path, params, r.URL.Query())
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := renderer.Render(&buf, path, data); err != nil {
				return err
			}
			ctype := mime.TypeByExtension(ext)
			if ctype == "" {
				ctype = "text/html; charset=utf-8"
			}
			w.Header().Set("Content-Type", ctype)
			w.WriteHeader(http.StatusOK)
			_, err = w.Write(buf.Bytes())
			return err
		}
	}

	http.ServeFile(w, r, path)
	return nil
}

// fileRoot is the directory a file target may not leave once its
// placeholders are expanded: the static part of the target before the first
// placeholder. Targets without placeholders are used as configured and have
// no root.
func fileRoot(target, dir string) (string, bool) {
	i := strings.Index(target, "{")
	if i < 0 {
		return "", false
	}
	prefix := target[:i] + "x"
	if !filepath.IsAbs(prefix) {
		prefix = filepath.Join(dir, prefix)
	}
	return filepath.Dir(prefix), true
}

func within(root, path string) bool {
	root, path = filepath.Clean(root), filepath.Clean(path)
	return path == root || strings.HasPrefix(path, strings.TrimSuffix(root, string(filepath.Separator))+string(filepath.Separator))
}

// templateData loads the sibling .json data file for a template and adds the
// captured params and query values.
func templateData(path string, params map[string]string, query url.Values) (map[string]any, error) {
	data := map[string]any{}

	dataFile := strings.TrimSuffix(path, filepath.Ext(path)) + ".json"
	if dataFile != path {
		b, err := os.ReadFile(dataFile)
		switch {
		case err == nil:
			if err := json.Unmarshal(b, &data); err != nil {
				return nil, fmt.Errorf("template data %s: %w", dataFile, err)
			}
		case !errors.Is(err, fs.ErrNotExist):
			return nil, err
		}
	}

	if _, ok := data["params"]; !ok {
		p := make(map[string]any, len(params))
		for k, v := range params {
			p[k] = v
		}
		data["params"] = p
	}
	if _, ok := data["query"]; !ok {
		q := make(map[string]any, len(query))
		for k := range query {
			q[k] = query.Get(k)
		}
		data["query"] = q
	}
	return data, nil
}

func writeResponse(w http.ResponseWriter, t Target) error {
	for k, v := range t.Headers {
		w.Header().Set(k, v)
	}
	status := t.Status
	if status == 0 {
		status = http.StatusOK
	}

	switch body := t.Body.(type) {
	case nil:
		w.WriteHeader(status)
	case string:
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		}
		w.WriteHeader(status)
		_, err := w.Write([]byte(body))
		return err
	default:
		if ct := w.Header().Get("Content-Type"); ct != "" {
			b, err := json.Marshal(body)
			if err != nil {
				return err
			}
			w.WriteHeader(status)
			_, err = w.Write(b)
			return err
		}
		httputil.WriteJSON(w, status, body)
	}
	return nil
}
