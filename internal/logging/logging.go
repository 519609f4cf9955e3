// Package logging provides the small structured-logging wrapper used
// throughout this module, grounded on the calling convention of
// oasis-core's common/logging package: GetLogger(name) returns a handle
// whose Debug/Info/Warn/Error methods take a message and alternating
// key/value pairs.
package logging

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	baseOnce sync.Once
	base     *zap.Logger
	level    = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

func root() *zap.Logger {
	baseOnce.Do(func() {
		cfg := zap.NewProductionConfig()
		cfg.Encoding = "console"
		cfg.DisableStacktrace = true
		cfg.Level = level
		l, err := cfg.Build()
		if err != nil {
			l = zap.NewNop()
		}
		base = l
	})
	return base
}

// SetDebug raises or lowers the root logger's level between debug and info.
// It affects every Logger returned by GetLogger, including ones already
// handed out, since they all share the same underlying core.
func SetDebug(enabled bool) {
	root() // ensure base/level are initialized before adjusting it
	if enabled {
		level.SetLevel(zapcore.DebugLevel)
	} else {
		level.SetLevel(zapcore.InfoLevel)
	}
}

// Logger is a named, leveled logger.
type Logger struct {
	s *zap.SugaredLogger
}

// GetLogger returns a Logger scoped to the given subsystem name, e.g.
// "runtime/bundle" or "runtime/bundle/extractor".
func GetLogger(name string) *Logger {
	return &Logger{s: root().Sugar().Named(name)}
}

// With returns a Logger with additional structured key/value context
// attached to every subsequent message.
func (l *Logger) With(keyvals ...interface{}) *Logger {
	return &Logger{s: l.s.With(keyvals...)}
}

// Debug logs a debug-level trace message.
func (l *Logger) Debug(msg string, keyvals ...interface{}) {
	l.s.Debugw(msg, keyvals...)
}

// Info logs an informational trace message.
func (l *Logger) Info(msg string, keyvals ...interface{}) {
	l.s.Infow(msg, keyvals...)
}

// Warn logs a warning trace message.
func (l *Logger) Warn(msg string, keyvals ...interface{}) {
	l.s.Warnw(msg, keyvals...)
}

// Error logs an error trace message.
func (l *Logger) Error(msg string, keyvals ...interface{}) {
	l.s.Errorw(msg, keyvals...)
}
