package rewrite

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/getmockd/devserve/pkg/engines"
	"github.com/getmockd/devserve/pkg/httputil"
	"github.com/getmockd/devserve/pkg/logging"
)

// Renderers resolves template renderers by file extension.
type Renderers interface {
	Lookup(ext string) (engines.Renderer, bool)
}

// Options configures a Rewriter.
type Options struct {
	// Rules is used when File is empty.
	Rules RuleSet
	// File is a rule file; it is re-read whenever its modification time changes.
	File string
	// Dir is the root for relative file targets.
	Dir string
	// Engines renders file targets whose extension has a renderer.
	Engines Renderers
	// Transport is used for proxy targets. Defaults to http.DefaultTransport.
	Transport http.RoundTripper
	// Log receives rule reload and proxy diagnostics.
	Log *slog.Logger
}

type compiledRule struct {
	Rule
	m matcher
}

// Rewriter matches requests against rules and serves their targets.
type Rewriter struct {
	opts Options
	log  *slog.Logger

	mu      sync.RWMutex
	rules   []compiledRule
	modTime time.Time
}

// New creates a Rewriter, loading opts.File when set.
func New(opts Options) (*Rewriter, error) {
	rw := &Rewriter{opts: opts, log: opts.Log}
	if rw.log == nil {
		rw.log = logging.Nop()
	}

	if opts.File == "" {
		rw.rules = compileRules(opts.Rules)
		return rw, nil
	}

	info, err := os.Stat(opts.File)
	if err != nil {
		return nil, fmt.Errorf("rules file: %w", err)
	}
	rs, err := LoadFile(opts.File)
	if err != nil {
		return nil, err
	}
	rw.rules = compileRules(rs)
	rw.modTime = info.ModTime()
	return rw, nil
}

// Stage returns the rewriter as a pipeline stage.
func (rw *Rewriter) Stage() httputil.Stage {
	return rw.ServeNext
}

// Rules returns the rules currently in effect.
func (rw *Rewriter) Rules() RuleSet {
	rw.refresh()
	rw.mu.RLock()
	defer rw.mu.RUnlock()
	rs := make(RuleSet, len(rw.rules))
	for i, cr := range rw.rules {
		rs[i] = cr.Rule
	}
	return rs
}

// ServeNext serves the first matching rule or calls next.
func (rw *Rewriter) ServeNext(w http.ResponseWriter, r *http.Request, next httputil.Next) error {
	rw.refresh()

	rw.mu.RLock()
	rules := rw.rules
	rw.mu.RUnlock()

	for _, cr := range rules {
		if cr.Method != MethodAll && cr.Method != r.Method {
			continue
		}
		params, ok := cr.m.match(r.URL.Path)
		if !ok {
			continue
		}
		rw.log.Debug("rewrite rule matched", "rule", cr.Key(), "path", r.URL.Path, "target", cr.Target.Kind.String())
		return rw.serve(w, r, cr.Target, params)
	}
	return next(w, r)
}

// refresh reloads the rule file when it changed on disk. A file that no
// longer parses keeps the previous rules in effect.
func (rw *Rewriter) refresh() {
	if rw.opts.File == "" {
		return
	}
	info, err := os.Stat(rw.opts.File)
	if err != nil {
		return
	}

	rw.mu.RLock()
	unchanged := info.ModTime().Equal(rw.modTime)
	rw.mu.RUnlock()
	if unchanged {
		return
	}

	rs, err := LoadFile(rw.opts.File)
	if err != nil {
		rw.log.Warn("keeping previous rewrite rules", "file", rw.opts.File, "error", err)
		return
	}

	rw.mu.Lock()
	rw.rules = compileRules(rs)
	rw.modTime = info.ModTime()
	rw.mu.Unlock()
	rw.log.Info("rewrite rules reloaded", "file", rw.opts.File, "count", len(rs))
}

func compileRules(rs RuleSet) []compiledRule {
	out := make([]compiledRule, len(rs))
	for i, r := range rs {
		if r.Method == "" {
			r.Method = MethodAll
		}
		out[i] = compiledRule{Rule: r, m: compilePattern(r.Pattern)}
	}
	return out
}
