package sagarun

import "go.uber.org/zap"

// Logger is the minimal surface the interpreter needs for its own
// diagnostic logging, which is the uncaught abort of a root saga. It is
// satisfied directly by *zap.Logger
// via Logger's sibling methods on zapLogger below, so a caller already
// using zap can pass their own logger straight through WithLogger.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// Field is a structured logging key/value pair.
type Field = zap.Field

// String, ErrorField and Int re-export the zap field constructors most commonly
// needed when logging from within this package or from caller code wiring
// up WithLogger.
func String(key, val string) Field { return zap.String(key, val) }
func ErrorField(err error) Field    { return zap.Error(err) }
func Int(key string, val int) Field { return zap.Int(key, val) }

type zapLogger struct{ l *zap.Logger }

// NewZapLogger adapts a *zap.Logger to Logger.
func NewZapLogger(l *zap.Logger) Logger { return &zapLogger{l: l} }

func (z *zapLogger) Debug(msg string, fields ...Field) { z.l.Debug(msg, fields...) }
func (z *zapLogger) Info(msg string, fields ...Field)  { z.l.Info(msg, fields...) }
func (z *zapLogger) Warn(msg string, fields ...Field)  { z.l.Warn(msg, fields...) }
func (z *zapLogger) Error(msg string, fields ...Field) { z.l.Error(msg, fields...) }

type noopLogger struct{}

// NewNoopLogger returns a Logger that discards everything — the default
// when no WithLogger option is given.
func NewNoopLogger() Logger { return noopLogger{} }

func (noopLogger) Debug(string, ...Field) {}
func (noopLogger) Info(string, ...Field)  {}
func (noopLogger) Warn(string, ...Field)  {}
func (noopLogger) Error(string, ...Field) {}
