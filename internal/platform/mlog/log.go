// Package mlog defines the structured-logging seam every adapter and
// service logs through, so call sites depend on an interface rather than
// a concrete logging library.
package mlog

import (
	"context"
	"fmt"
	"strings"
)

// Logger is the logging interface used throughout this module.
type Logger interface {
	Info(args ...any)
	Infof(format string, args ...any)

	Error(args ...any)
	Errorf(format string, args ...any)

	Warn(args ...any)
	Warnf(format string, args ...any)

	Debug(args ...any)
	Debugf(format string, args ...any)

	WithFields(fields ...any) Logger

	Sync() error
}

// Level represents the severity threshold a Logger is configured to emit at.
type Level int8

const (
	ErrorLevel Level = iota
	WarnLevel
	InfoLevel
	DebugLevel
)

// ParseLevel parses a config string into a Level, defaulting callers to
// InfoLevel on any unrecognized value.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return ErrorLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "info", "":
		return InfoLevel, nil
	case "debug":
		return DebugLevel, nil
	default:
		return InfoLevel, fmt.Errorf("not a valid log level: %q", s)
	}
}

type noneLogger struct{}

// None returns a Logger that discards everything, used as a context default.
func None() Logger { return noneLogger{} }

func (noneLogger) Info(args ...any)                 {}
func (noneLogger) Infof(format string, args ...any) {}
func (noneLogger) Error(args ...any)                {}
func (noneLogger) Errorf(format string, args ...any) {}
func (noneLogger) Warn(args ...any)                  {}
func (noneLogger) Warnf(format string, args ...any)  {}
func (noneLogger) Debug(args ...any)                 {}
func (noneLogger) Debugf(format string, args ...any) {}
func (l noneLogger) WithFields(fields ...any) Logger { return l }
func (noneLogger) Sync() error                       { return nil }

type loggerContextKey struct{}

// FromContext extracts the Logger stored by ContextWithLogger, or None().
func FromContext(ctx context.Context) Logger {
	if v := ctx.Value(loggerContextKey{}); v != nil {
		if l, ok := v.(Logger); ok {
			return l
		}
	}

	return None()
}

// ContextWithLogger returns a context carrying logger as its Logger.
func ContextWithLogger(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, logger)
}
