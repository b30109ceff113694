// Package logger holds the structured logger shared by every engine package.
// Nothing is logged until SetLogger is called.
package logger

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that discards every record. Enabled reports false so
// callers skip formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(nopHandler{}))
}

// SetLogger configures the logger used by the engine and its sub-packages.
// Passing nil restores the silent default. Safe for concurrent use.
//
// Log levels used by the engine:
//   - slog.LevelDebug: per-frame diagnostics (slot waits, rebuild decisions)
//   - slog.LevelInfo: lifecycle events (adapter selected, swapchain recreated)
//   - slog.LevelWarn: recoverable failures (a frame that failed to flush)
//   - slog.LevelError: failures that stop the render loop
//
// Parameters:
//   - l: the logger to install, or nil to disable logging
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger. Safe for concurrent use.
//
// Returns:
//   - *slog.Logger: the active logger (never nil)
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// With returns the current logger annotated with a "component" attribute.
//
// Parameters:
//   - component: the name of the subsystem emitting records
//
// Returns:
//   - *slog.Logger: a child logger carrying the component attribute
func With(component string) *slog.Logger {
	return Logger().With(slog.String("component", component))
}
