// Package folder renders HTML listings for directories under the static root
// that have no index.html.
package folder

import (
	"bytes"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dustin/go-humanize"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/getmockd/devserve/pkg/httputil"
	"github.com/getmockd/devserve/pkg/logging"
)

// DefaultHidden hides dotfiles.
var DefaultHidden = []string{".*"}

// Options configures a Lister.
type Options struct {
	// Dir is the static root.
	Dir string
	// Hidden are doublestar patterns matched against entry names. Nil means
	// DefaultHidden; an empty slice shows everything.
	Hidden []string
	// Index is the file whose presence disables the listing. Defaults to
	// index.html.
	Index string
	Log   *slog.Logger
}

// Lister serves directory listings.
type Lister struct {
	dir    string
	hidden []string
	index  string
	log    *slog.Logger
}

// New creates a Lister rooted at opts.Dir.
func New(opts Options) *Lister {
	l := &Lister{dir: opts.Dir, hidden: opts.Hidden, index: opts.Index, log: opts.Log}
	if l.hidden == nil {
		l.hidden = DefaultHidden
	}
	if l.index == "" {
		l.index = "index.html"
	}
	if l.log == nil {
		l.log = logging.Nop()
	}
	return l
}

// Stage returns the lister as a pipeline stage.
func (l *Lister) Stage() httputil.Stage {
	return l.ServeNext
}

// ServeNext lists the directory the request maps to, or calls next when the
// request is not for a listable directory.
func (l *Lister) ServeNext(w http.ResponseWriter, r *http.Request, next httputil.Next) error {
	if l.dir == "" || (r.Method != http.MethodGet && r.Method != http.MethodHead) {
		return next(w, r)
	}

	urlPath := path.Clean("/" + r.URL.Path)
	abs, ok := l.resolve(urlPath)
	if !ok {
		return next(w, r)
	}

	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return next(w, r)
	}
	if _, err := os.Stat(filepath.Join(abs, l.index)); err == nil {
		return next(w, r)
	}

	if !strings.HasSuffix(r.URL.Path, "/") {
		target := r.URL.Path + "/"
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}
		http.Redirect(w, r, target, http.StatusMovedPermanently)
		return nil
	}

	entries, err := l.entries(abs)
	if err != nil {
		return err
	}

	if urlPath != "/" {
		urlPath += "/"
	}
	var buf bytes.Buffer
	if err := listingTmpl.Execute(&buf, listing{
		Path:    urlPath,
		Parent:  urlPath != "/",
		Entries: entries,
	}); err != nil {
		return err
	}
	httputil.WriteHTML(w, http.StatusOK, buf.String())
	return nil
}

// resolve maps a cleaned URL path into the static root.
func (l *Lister) resolve(urlPath string) (string, bool) {
	base, err := filepath.Abs(l.dir)
	if err != nil {
		return "", false
	}
	abs := filepath.Join(base, filepath.FromSlash(urlPath))
	if abs != base && !strings.HasPrefix(abs, base+string(filepath.Separator)) {
		return "", false
	}
	return abs, true
}

type entry struct {
	Name    string
	Href    string
	IsDir   bool
	Size    string
	ModTime string
}

type listing struct {
	Path    string
	Parent  bool
	Entries []entry
}

func (l *Lister) entries(dir string) ([]entry, error) {
	des, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	out := make([]entry, 0, len(des))
	for _, de := range des {
		if l.isHidden(de.Name()) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			l.log.Debug("skipping unreadable entry", "dir", dir, "name", de.Name(), "error", err)
			continue
		}

		e := entry{
			Name:    de.Name(),
			Href:    (&url.URL{Path: de.Name()}).EscapedPath(),
			IsDir:   de.IsDir(),
			ModTime: humanize.RelTime(info.ModTime(), time.Now(), "ago", "from now"),
		}
		if e.IsDir {
			e.Name += "/"
			e.Href += "/"
			e.Size = "-"
		} else {
			e.Size = humanize.Bytes(uint64(info.Size()))
		}
		out = append(out, e)
	}

	c := collate.New(language.Und, collate.IgnoreCase, collate.Numeric)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsDir != out[j].IsDir {
			return out[i].IsDir
		}
		return c.CompareString(out[i].Name, out[j].Name) < 0
	})
	return out, nil
}

func (l *Lister) isHidden(name string) bool {
	for _, p := range l.hidden {
		if ok, err := doublestar.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}

var listingTmpl = template.Must(template.New("listing").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Index of {{.Path}}</title>
<style>
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif; margin: 2em; }
table { border-collapse: collapse; }
td, th { padding: 0.2em 1.2em 0.2em 0; text-align: left; }
td.size, td.mod { color: #666; }
</style>
</head>
<body>
<h1>Index of {{.Path}}</h1>
<table>
<tr><th>Name</th><th>Size</th><th>Modified</th></tr>
{{- if .Parent}}
<tr><td><a href="../">../</a></td><td class="size">-</td><td class="mod"></td></tr>
{{- end}}
{{- range .Entries}}
<tr><td><a href="{{.Href}}">{{.Name}}</a></td><td class="size">{{.Size}}</td><td class="mod">{{.ModTime}}</td></tr>
{{- end}}
</table>
</body>
</html>
`))
