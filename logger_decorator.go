package aspectlog

import (
	"strings"
)

// LoggerDecorator defines the interface for decorating loggers.
// Decorators wrap loggers to add additional functionality without
// modifying the core logger implementation.
type LoggerDecorator interface {
	Logger

	// GetInnerLogger returns the wrapped logger
	GetInnerLogger() Logger
}

// BaseLoggerDecorator provides a foundation for logger decorators.
// It implements LoggerDecorator by forwarding all calls to the wrapped logger.
type BaseLoggerDecorator struct {
	inner Logger
}

// NewBaseLoggerDecorator creates a new base decorator wrapping the given logger.
func NewBaseLoggerDecorator(inner Logger) *BaseLoggerDecorator {
	return &BaseLoggerDecorator{inner: inner}
}

// GetInnerLogger returns the wrapped logger
func (d *BaseLoggerDecorator) GetInnerLogger() Logger {
	return d.inner
}

// Forward all Logger interface methods to the inner logger

func (d *BaseLoggerDecorator) Info(msg string, args ...any) {
	d.inner.Info(msg, args...)
}

func (d *BaseLoggerDecorator) Error(msg string, args ...any) {
	d.inner.Error(msg, args...)
}

func (d *BaseLoggerDecorator) Warn(msg string, args ...any) {
	d.inner.Warn(msg, args...)
}

func (d *BaseLoggerDecorator) Debug(msg string, args ...any) {
	d.inner.Debug(msg, args...)
}

func (d *BaseLoggerDecorator) Trace(msg string, args ...any) {
	LogAt(d.inner, LevelTrace, msg, args...)
}

// ValueInjectionLoggerDecorator automatically injects key-value pairs into all log events.
// Interceptors use it to scope a logger to the type that declares the
// intercepted method.
type ValueInjectionLoggerDecorator struct {
	*BaseLoggerDecorator
	injectedArgs []any
}

// NewValueInjectionLoggerDecorator creates a decorator that automatically injects values into log events.
func NewValueInjectionLoggerDecorator(inner Logger, injectedArgs ...any) *ValueInjectionLoggerDecorator {
	return &ValueInjectionLoggerDecorator{
		BaseLoggerDecorator: NewBaseLoggerDecorator(inner),
		injectedArgs:        injectedArgs,
	}
}

func (d *ValueInjectionLoggerDecorator) combineArgs(originalArgs []any) []any {
	if len(d.injectedArgs) == 0 {
		return originalArgs
	}
	if len(originalArgs) == 0 {
		return d.injectedArgs
	}
	combined := make([]any, 0, len(d.injectedArgs)+len(originalArgs))
	combined = append(combined, d.injectedArgs...)
	combined = append(combined, originalArgs...)
	return combined
}

func (d *ValueInjectionLoggerDecorator) Info(msg string, args ...any) {
	d.inner.Info(msg, d.combineArgs(args)...)
}

func (d *ValueInjectionLoggerDecorator) Error(msg string, args ...any) {
	d.inner.Error(msg, d.combineArgs(args)...)
}

func (d *ValueInjectionLoggerDecorator) Warn(msg string, args ...any) {
	d.inner.Warn(msg, d.combineArgs(args)...)
}

func (d *ValueInjectionLoggerDecorator) Debug(msg string, args ...any) {
	d.inner.Debug(msg, d.combineArgs(args)...)
}

func (d *ValueInjectionLoggerDecorator) Trace(msg string, args ...any) {
	LogAt(d.inner, LevelTrace, msg, d.combineArgs(args)...)
}

// LevelFilterLoggerDecorator drops events below a minimum level.
type LevelFilterLoggerDecorator struct {
	*BaseLoggerDecorator
	min Level
}

// NewLevelFilterLoggerDecorator creates a decorator that only forwards events at
// or above min. A min of LevelUnset forwards everything.
func NewLevelFilterLoggerDecorator(inner Logger, min Level) *LevelFilterLoggerDecorator {
	return &LevelFilterLoggerDecorator{
		BaseLoggerDecorator: NewBaseLoggerDecorator(inner),
		min:                 min,
	}
}

func (d *LevelFilterLoggerDecorator) Info(msg string, args ...any) {
	if LevelInfo.Enabled(d.min) {
		d.inner.Info(msg, args...)
	}
}

func (d *LevelFilterLoggerDecorator) Error(msg string, args ...any) {
	if LevelError.Enabled(d.min) {
		d.inner.Error(msg, args...)
	}
}

func (d *LevelFilterLoggerDecorator) Warn(msg string, args ...any) {
	if LevelWarn.Enabled(d.min) {
		d.inner.Warn(msg, args...)
	}
}

func (d *LevelFilterLoggerDecorator) Debug(msg string, args ...any) {
	if LevelDebug.Enabled(d.min) {
		d.inner.Debug(msg, args...)
	}
}

func (d *LevelFilterLoggerDecorator) Trace(msg string, args ...any) {
	if LevelTrace.Enabled(d.min) {
		LogAt(d.inner, LevelTrace, msg, args...)
	}
}

// PrefixLoggerDecorator adds a prefix to all log messages.
type PrefixLoggerDecorator struct {
	*BaseLoggerDecorator
	prefix string
}

// NewPrefixLoggerDecorator creates a decorator that adds a prefix to log messages.
func NewPrefixLoggerDecorator(inner Logger, prefix string) *PrefixLoggerDecorator {
	return &PrefixLoggerDecorator{
		BaseLoggerDecorator: NewBaseLoggerDecorator(inner),
		prefix:              prefix,
	}
}

func (d *PrefixLoggerDecorator) formatMessage(msg string) string {
	if d.prefix == "" {
		return msg
	}
	var builder strings.Builder
	builder.Grow(len(d.prefix) + len(msg) + 1)
	builder.WriteString(d.prefix)
	builder.WriteString(" ")
	builder.WriteString(msg)
	return builder.String()
}

func (d *PrefixLoggerDecorator) Info(msg string, args ...any) {
	d.inner.Info(d.formatMessage(msg), args...)
}

func (d *PrefixLoggerDecorator) Error(msg string, args ...any) {
	d.inner.Error(d.formatMessage(msg), args...)
}

func (d *PrefixLoggerDecorator) Warn(msg string, args ...any) {
	d.inner.Warn(d.formatMessage(msg), args...)
}

func (d *PrefixLoggerDecorator) Debug(msg string, args ...any) {
	d.inner.Debug(d.formatMessage(msg), args...)
}

func (d *PrefixLoggerDecorator) Trace(msg string, args ...any) {
	LogAt(d.inner, LevelTrace, d.formatMessage(msg), args...)
}

// LoggerFactory returns the logger an interceptor should use for calls
// declared on t.
type LoggerFactory func(t TypeInfo) Logger

// ScopedLoggerFactory returns a LoggerFactory that tags every event with the
// declaring type under the "logger" key.
func ScopedLoggerFactory(base Logger) LoggerFactory {
	return func(t TypeInfo) Logger {
		return NewValueInjectionLoggerDecorator(base, "logger", t.String())
	}
}
