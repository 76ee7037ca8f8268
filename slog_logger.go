package aspectlog

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

// SlogLevelTrace is the slog level Trace events are written at.
const SlogLevelTrace = slog.Level(-8)

// SlogLogger adapts a *slog.Logger to Logger and TraceLogger.
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger wraps an existing slog logger.
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	return &SlogLogger{logger: logger}
}

// NewSlogWriterLogger builds a slog-backed Logger writing to w. Format "json"
// selects the JSON handler; anything else uses the text handler. Events
// below min are dropped.
func NewSlogWriterLogger(w io.Writer, format string, min Level) *SlogLogger {
	opts := &slog.HandlerOptions{
		Level: toSlogLevel(min.Or(LevelInfo)),
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == SlogLevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return &SlogLogger{logger: slog.New(handler)}
}

func (l *SlogLogger) Info(msg string, args ...any) {
	l.logger.Info(msg, args...)
}

func (l *SlogLogger) Error(msg string, args ...any) {
	l.logger.Error(msg, args...)
}

func (l *SlogLogger) Warn(msg string, args ...any) {
	l.logger.Warn(msg, args...)
}

func (l *SlogLogger) Debug(msg string, args ...any) {
	l.logger.Debug(msg, args...)
}

func (l *SlogLogger) Trace(msg string, args ...any) {
	l.logger.Log(context.Background(), SlogLevelTrace, msg, args...)
}

func toSlogLevel(l Level) slog.Level {
	switch l {
	case LevelTrace:
		return SlogLevelTrace
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
