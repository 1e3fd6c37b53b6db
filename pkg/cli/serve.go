package cli

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/getmockd/devserve/internal/watch"
	"github.com/getmockd/devserve/pkg/config"
	"github.com/getmockd/devserve/pkg/logging"
	"github.com/getmockd/devserve/pkg/server"
)

// shutdownTimeout is the maximum time to wait for graceful shutdown.
const shutdownTimeout = 10 * time.Second

func runServe(cmd *cobra.Command, f *flagValues, d deps) error {
	loadEnvFiles(cmd.ErrOrStderr(), ".")

	cfg, err := loadConfiguration(cmd, f)
	if err != nil {
		return err
	}

	log := logging.Parse(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())

	opts := append([]server.Option{server.WithLogger(log)}, d.serverOpts...)
	mgr, err := server.New(cfg, opts...)
	if err != nil {
		return err
	}

	sigs, stop := d.signals()
	defer stop()

	if err := mgr.Start(); err != nil {
		return err
	}
	if d.started != nil {
		d.started(mgr)
	}

	s := &session{
		cmd:     cmd,
		flags:   f,
		log:     log,
		mgr:     mgr,
		changes: make(chan string, 1),
	}
	defer s.stopWatching()
	s.watch(cfg)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return s.run(ctx, sigs)
}

// session drives a running manager from signals and file changes.
type session struct {
	cmd     *cobra.Command
	flags   *flagValues
	log     *slog.Logger
	mgr     *server.Manager
	changes chan string
	watcher *watch.Watcher
}

func (s *session) run(ctx context.Context, sigs <-chan os.Signal) error {
	for {
		select {
		case <-ctx.Done():
			return s.shutdown()

		case sig := <-sigs:
			if isStopSignal(sig) {
				s.log.Info("shutting down", "signal", sig.String())
				return s.shutdown()
			}
			s.log.Info("reloading configuration", "signal", sig.String())
			s.reload()

		case path := <-s.changes:
			s.log.Info("reloading configuration", "changed", path)
			s.reload()

		case err := <-s.mgr.Fatal():
			// The process ends normally; the server needs a manual restart.
			s.log.Error("server stopped, restart devserve manually", "error", err)
			return nil
		}
	}
}

// reload re-reads every configuration source and resets the server with it.
// A configuration that fails to load leaves the server untouched.
func (s *session) reload() {
	cfg, err := loadConfiguration(s.cmd, s.flags)
	if err != nil {
		s.log.Error("configuration reload failed, keeping current configuration", "error", err)
		return
	}
	if err := s.mgr.Reset(config.OverridesFrom(cfg)); err != nil {
		s.log.Error("reset failed", "error", err)
		return
	}
	s.watch(cfg)
}

func (s *session) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.mgr.Shutdown(ctx); err != nil {
		s.log.Warn("shutdown timed out, remaining connections destroyed", "error", err)
	}
	return nil
}

// watch (re)starts the file watcher for the files cfg was loaded from.
func (s *session) watch(cfg *config.Configuration) {
	if !s.flags.watch {
		return
	}
	s.stopWatching()

	files := watchedFiles(cfg, s.flags.configFile())
	if len(files) == 0 {
		return
	}
	w, err := watch.New(watch.Options{
		Files: files,
		Log:   s.log,
		OnChange: func(path string) {
			select {
			case s.changes <- path:
			default:
			}
		},
	})
	if err != nil {
		s.log.Warn("file watching disabled", "error", err)
		return
	}
	s.watcher = w
	s.log.Debug("watching files", "files", files)
}

func (s *session) stopWatching() {
	if s.watcher != nil {
		_ = s.watcher.Close()
		s.watcher = nil
	}
}

// watchedFiles lists the rules file and every config file that exists.
func watchedFiles(cfg *config.Configuration, explicit string) []string {
	var files []string
	if cfg.Rules.File != "" {
		files = append(files, cfg.Rules.File)
	}
	if explicit != "" {
		files = append(files, explicit)
	} else if cwd, err := os.Getwd(); err == nil {
		if local := config.FindLocalConfig(cwd); local != "" {
			files = append(files, local)
		}
	}
	if global := config.FindGlobalConfig(); global != "" {
		files = append(files, global)
	}
	return files
}
