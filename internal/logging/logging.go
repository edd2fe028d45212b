// Package logging is a thin layer over logr used by the rest of the module.
// A nil *Logger is valid and discards everything.
package logging

import (
	"github.com/go-logr/logr"
)

// Verbosity levels
const (
	LevelInfo  = 0
	LevelDebug = 1
	LevelTrace = 2
)

// Logger wraps a logr.Logger.
type Logger struct {
	log logr.Logger
}

// New wraps log. A logger without a sink discards.
func New(log logr.Logger) *Logger {
	if log.GetSink() == nil {
		log = logr.Discard()
	}
	return &Logger{log: log}
}

// Discard returns a Logger that drops every record.
func Discard() *Logger {
	return &Logger{log: logr.Discard()}
}

// Logr returns the underlying logr.Logger.
func (l *Logger) Logr() logr.Logger {
	if l == nil {
		return logr.Discard()
	}
	return l.log
}

// WithName returns a Logger with name appended to its name.
func (l *Logger) WithName(name string) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{log: l.log.WithName(name)}
}

// WithValues returns a Logger that adds keysAndValues to every record.
func (l *Logger) WithValues(keysAndValues ...any) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{log: l.log.WithValues(keysAndValues...)}
}

func (l *Logger) Info(msg string, keysAndValues ...any) {
	if l == nil {
		return
	}
	l.log.Info(msg, keysAndValues...)
}

func (l *Logger) Debug(msg string, keysAndValues ...any) {
	if l == nil {
		return
	}
	l.log.V(LevelDebug).Info(msg, keysAndValues...)
}

func (l *Logger) Trace(msg string, keysAndValues ...any) {
	if l == nil {
		return
	}
	l.log.V(LevelTrace).Info(msg, keysAndValues...)
}

func (l *Logger) Error(err error, msg string, keysAndValues ...any) {
	if l == nil {
		return
	}
	l.log.Error(err, msg, keysAndValues...)
}
