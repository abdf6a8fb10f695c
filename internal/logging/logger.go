// Package logging defines the small structured logging interface used
// across jrelaunch and an adapter that backs it with log/slog.
package logging

import (
	"io"
	"log/slog"
)

// Logger provides structured logging for provisioning operations.
// This interface allows callers to plug in their own logging implementation.
type Logger interface {
	// Debug logs debug-level messages with optional key-value pairs.
	Debug(msg string, keysAndValues ...interface{})

	// Info logs info-level messages with optional key-value pairs.
	Info(msg string, keysAndValues ...interface{})

	// Warn logs warning-level messages with optional key-value pairs.
	Warn(msg string, keysAndValues ...interface{})

	// Error logs error-level messages with optional key-value pairs.
	Error(msg string, keysAndValues ...interface{})
}

// noopLogger is a Logger implementation that does nothing.
type noopLogger struct{}

func (n *noopLogger) Debug(msg string, keysAndValues ...interface{}) {}
func (n *noopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (n *noopLogger) Warn(msg string, keysAndValues ...interface{})  {}
func (n *noopLogger) Error(msg string, keysAndValues ...interface{}) {}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return &noopLogger{}
}

// slogLogger adapts *slog.Logger to Logger.
type slogLogger struct {
	l *slog.Logger
}

func (s *slogLogger) Debug(msg string, keysAndValues ...interface{}) {
	s.l.Debug(msg, keysAndValues...)
}

func (s *slogLogger) Info(msg string, keysAndValues ...interface{}) {
	s.l.Info(msg, keysAndValues...)
}

func (s *slogLogger) Warn(msg string, keysAndValues ...interface{}) {
	s.l.Warn(msg, keysAndValues...)
}

func (s *slogLogger) Error(msg string, keysAndValues ...interface{}) {
	s.l.Error(msg, keysAndValues...)
}

// FromSlog wraps an existing slog logger.
func FromSlog(l *slog.Logger) Logger {
	if l == nil {
		return Nop()
	}
	return &slogLogger{l: l}
}

// New returns a text-format slog-backed Logger writing to w. verbose lowers
// the level to debug.
func New(w io.Writer, verbose bool) Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return FromSlog(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// With returns a Logger that adds keysAndValues to every record. Loggers
// that are not slog-backed are returned unchanged.
func With(l Logger, keysAndValues ...interface{}) Logger {
	if s, ok := l.(*slogLogger); ok {
		return &slogLogger{l: s.l.With(keysAndValues...)}
	}
	return l
}
