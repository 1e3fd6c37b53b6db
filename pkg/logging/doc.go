// Package logging provides structured logging configuration for devserve.
//
// This package wraps log/slog so the lifecycle manager, the request pipeline
// and the command line share one logger shape.
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelInfo,
//	    Format: logging.FormatText,
//	})
//
//	logger.Info("dev server listening", "url", "http://localhost:8000")
//
// Components accept a *slog.Logger through a functional option. When none is
// given they fall back to Nop().
package logging
