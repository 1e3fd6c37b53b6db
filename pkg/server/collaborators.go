package server

import (
	"context"
	"log/slog"

	"github.com/getmockd/devserve/pkg/apidesc"
	"github.com/getmockd/devserve/pkg/config"
	"github.com/getmockd/devserve/pkg/folder"
	"github.com/getmockd/devserve/pkg/httputil"
	"github.com/getmockd/devserve/pkg/rewrite"
	"github.com/getmockd/devserve/pkg/routeboard"
)

// Rewrite is a rewrite stage that can report its rules.
type Rewrite interface {
	Stage() httputil.Stage
	Rules() rewrite.RuleSet
}

// Collaborators create the pluggable parts of the pipeline. Nil fields use
// the package defaults.
type Collaborators struct {
	Rewrite    func(opts rewrite.Options) (Rewrite, error)
	RouteBoard func(rules func() rewrite.RuleSet) httputil.Stage
	Folder     func(dir string) httputil.Stage
	Describer  func(ctx context.Context, cfg *config.Configuration) (apidesc.Describer, error)
}

func (c Collaborators) withDefaults(log *slog.Logger) Collaborators {
	if c.Rewrite == nil {
		c.Rewrite = func(opts rewrite.Options) (Rewrite, error) {
			return rewrite.New(opts)
		}
	}
	if c.RouteBoard == nil {
		c.RouteBoard = func(rules func() rewrite.RuleSet) httputil.Stage {
			return routeboard.New("", rules).Stage()
		}
	}
	if c.Folder == nil {
		c.Folder = func(dir string) httputil.Stage {
			return folder.New(folder.Options{Dir: dir, Log: log}).Stage()
		}
	}
	if c.Describer == nil {
		c.Describer = func(ctx context.Context, cfg *config.Configuration) (apidesc.Describer, error) {
			if cfg.Spec == "" {
				return apidesc.NewStatic(nil, nil), nil
			}
			return apidesc.LoadOpenAPI(ctx, cfg.Spec)
		}
	}
	return c
}
