// Package log provides structured debug logging for fabrica.
// The library is silent by default; hosts that want visibility into
// factory registration and attribute resolution install a zap logger
// with SetLogger (or Init for a quick development logger).
package log

import (
	"go.uber.org/zap"
)

// Category groups related log messages.
type Category string

const (
	CatRegistry Category = "registry" // factory definition, derivation, lookup
	CatFlatten  Category = "flatten"  // stage flattening and trait expansion
	CatResolve  Category = "resolve"  // attribute resolution and dependency ordering
	CatBuild    Category = "build"    // instance construction, hooks, persistence
	CatStub     Category = "stub"     // inferred default attributes
)

var logger = zap.NewNop().Sugar()

// SetLogger installs the logger used by the whole library.
// Passing nil restores the default no-op logger.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger = l.Sugar()
}

// Init installs a zap development logger. Returns a flush function.
func Init() (func(), error) {
	l, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}
	SetLogger(l)
	return func() { _ = l.Sync() }, nil
}

// Debug logs a debug message with key/value pairs.
func Debug(cat Category, msg string, kv ...any) {
	logger.Debugw(msg, append([]any{"category", string(cat)}, kv...)...)
}

// Warn logs a warning with key/value pairs.
func Warn(cat Category, msg string, kv ...any) {
	logger.Warnw(msg, append([]any{"category", string(cat)}, kv...)...)
}

// Error logs an error with key/value pairs.
func Error(cat Category, msg string, err error, kv ...any) {
	logger.Errorw(msg, append([]any{"category", string(cat), "error", err}, kv...)...)
}
