package aspectlog

// Logger is the observability sink interceptors write to.
// It uses variadic key-value pairs for structured context:
//
//	logger.Info("message", "key1", "value1", "key2", "value2")
//
// This shape is compatible with slog, zap's sugared logger, logrus and
// similar libraries. Implementations must be safe for concurrent use because
// interceptors on different goroutines share a logger.
type Logger interface {
	// Info logs an informational message with optional key-value pairs.
	Info(msg string, args ...any)

	// Error logs an error message with optional key-value pairs.
	Error(msg string, args ...any)

	// Warn logs a warning message with optional key-value pairs.
	Warn(msg string, args ...any)

	// Debug logs a debug message with optional key-value pairs.
	Debug(msg string, args ...any)
}

// TraceLogger is implemented by loggers that have a level below Debug.
type TraceLogger interface {
	Trace(msg string, args ...any)
}

// LogAt writes msg to logger at the given level. Trace goes to Trace when the
// logger supports it and to Debug otherwise. LevelUnset logs at Info.
func LogAt(logger Logger, level Level, msg string, args ...any) {
	switch level {
	case LevelTrace:
		if tl, ok := logger.(TraceLogger); ok {
			tl.Trace(msg, args...)
			return
		}
		logger.Debug(msg, args...)
	case LevelDebug:
		logger.Debug(msg, args...)
	case LevelWarn:
		logger.Warn(msg, args...)
	case LevelError:
		logger.Error(msg, args...)
	default:
		logger.Info(msg, args...)
	}
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Info(string, ...any)  {}
func (NopLogger) Error(string, ...any) {}
func (NopLogger) Warn(string, ...any)  {}
func (NopLogger) Debug(string, ...any) {}
func (NopLogger) Trace(string, ...any) {}
