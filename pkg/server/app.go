package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/getmockd/devserve/pkg/apidesc"
	"github.com/getmockd/devserve/pkg/config"
	"github.com/getmockd/devserve/pkg/engines"
	"github.com/getmockd/devserve/pkg/httputil"
	"github.com/getmockd/devserve/pkg/logging"
	"github.com/getmockd/devserve/pkg/rewrite"
)

// FaultBody is the response body for any request that failed inside the
// pipeline.
const FaultBody = "某些东东跪了ORZ……"

// App is the application object: the template engines and the composed
// request pipeline for one configuration.
type App struct {
	// Engines maps template extensions to renderers.
	Engines *engines.Registry
	// Views is the resolved template root.
	Views string

	describer apidesc.Describer
	rewriter  Rewrite
	pipeline  httputil.Stage
	log       *slog.Logger
}

// Build creates the App for cfg. cfg must already be resolved.
func Build(ctx context.Context, cfg *config.Configuration, collab Collaborators, log *slog.Logger) (*App, error) {
	if log == nil {
		log = logging.Nop()
	}
	collab = collab.withDefaults(log)

	app := &App{
		Engines: engines.NewRegistry(),
		Views:   cfg.Views,
		log:     log,
	}
	for ext, r := range engines.Resolve(engines.Options{
		Views:  cfg.Views,
		Map:    cfg.Engine.Map,
		Name:   cfg.Engine.Name,
		Ext:    cfg.Ext,
		Online: cfg.Online,
	}) {
		app.Engines.Register(ext, r)
	}

	describer, err := collab.Describer(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.describer = describer

	stages := []httputil.Stage{requestIDStage, drainStage}

	if cfg.Rules.IsSet() {
		rw, err := collab.Rewrite(rewrite.Options{
			Rules:   cfg.Rules.Set,
			File:    cfg.Rules.File,
			Dir:     cfg.Dir,
			Engines: app.Engines,
			Log:     log,
		})
		if err != nil {
			return nil, fmt.Errorf("rewrite rules: %w", err)
		}
		app.rewriter = rw
		stages = append(stages, rw.Stage())
	}

	stages = append(stages, optionsStage(describer))

	if cfg.Rules.IsSet() && cfg.Online {
		stages = append(stages, collab.RouteBoard(app.rewriter.Rules))
	}

	stages = append(stages, collab.Folder(cfg.Dir))

	if cfg.Dir != "" {
		stages = append(stages, staticStage(cfg.Dir, cfg.Online))
	}

	if cfg.Online {
		catchAll, err := collab.Rewrite(rewrite.Options{
			Rules:   describer.Routes(rewrite.RuleSet{{Method: rewrite.MethodAll, Pattern: "*"}}),
			Dir:     cfg.Dir,
			Engines: app.Engines,
			Log:     log,
		})
		if err != nil {
			return nil, fmt.Errorf("online routes: %w", err)
		}
		stages = append(stages, catchAll.Stage())
	}

	app.pipeline = httputil.Compose(stages...)
	return app, nil
}

// Describer returns the route-description service the App was built with.
func (a *App) Describer() apidesc.Describer {
	return a.describer
}

// ServeHTTP runs the pipeline. Errors and panics from any stage end in the
// terminal error handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	tw := &trackingWriter{ResponseWriter: w}
	defer func() {
		if v := recover(); v != nil {
			if v == http.ErrAbortHandler {
				panic(v)
			}
			a.fault(tw, r, fmt.Errorf("panic: %v", v))
		}
	}()

	if err := a.pipeline(tw, r, httputil.NotFound); err != nil {
		a.fault(tw, r, err)
	}
}

func (a *App) fault(w *trackingWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
		a.log.Debug("request canceled", "request_id", r.Header.Get(RequestIDHeader), "method", r.Method, "path", r.URL.Path)
		return
	}
	a.log.Error("request failed",
		"request_id", r.Header.Get(RequestIDHeader),
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	if w.wroteHeader {
		return
	}
	httputil.WriteHTML(w, http.StatusInternalServerError, FaultBody)
}

// trackingWriter records whether the response has started.
type trackingWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (w *trackingWriter) WriteHeader(code int) {
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *trackingWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

func (w *trackingWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
