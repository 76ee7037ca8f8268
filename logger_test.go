package aspectlog

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLogger is a test logger that captures log entries for verification.
// It is safe for concurrent use.
type TestLogger struct {
	mu      sync.Mutex
	entries []TestLogEntry
}

type TestLogEntry struct {
	Level   string
	Message string
	Args    []any
}

func NewTestLogger() *TestLogger {
	return &TestLogger{
		entries: make([]TestLogEntry, 0),
	}
}

func (t *TestLogger) record(level, msg string, args []any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, TestLogEntry{Level: level, Message: msg, Args: args})
}

func (t *TestLogger) Info(msg string, args ...any)  { t.record("info", msg, args) }
func (t *TestLogger) Error(msg string, args ...any) { t.record("error", msg, args) }
func (t *TestLogger) Warn(msg string, args ...any)  { t.record("warn", msg, args) }
func (t *TestLogger) Debug(msg string, args ...any) { t.record("debug", msg, args) }
func (t *TestLogger) Trace(msg string, args ...any) { t.record("trace", msg, args) }

func (t *TestLogger) GetEntries() []TestLogEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]TestLogEntry(nil), t.entries...)
}

func (t *TestLogger) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = make([]TestLogEntry, 0)
}

func (t *TestLogger) FindEntry(level, message string) *TestLogEntry {
	for _, entry := range t.GetEntries() {
		if entry.Level == level && strings.Contains(entry.Message, message) {
			return &entry
		}
	}
	return nil
}

func (t *TestLogger) CountEntries(level string) int {
	count := 0
	for _, entry := range t.GetEntries() {
		if entry.Level == level {
			count++
		}
	}
	return count
}

// Helper function to extract key-value pairs from args
func argsToMap(args []any) map[string]any {
	result := make(map[string]any)
	for i := 0; i < len(args)-1; i += 2 {
		if key, ok := args[i].(string); ok {
			result[key] = args[i+1]
		}
	}
	return result
}

func TestLogAt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level Level
		want  string
	}{
		{LevelUnset, "info"},
		{LevelTrace, "trace"},
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
	}
	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			t.Parallel()
			logger := NewTestLogger()
			LogAt(logger, tt.level, "msg", "k", "v")

			entries := logger.GetEntries()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.want, entries[0].Level)
			assert.Equal(t, []any{"k", "v"}, entries[0].Args)
		})
	}
}

func TestLogAtTraceFallsBackToDebug(t *testing.T) {
	t.Parallel()

	inner := NewTestLogger()
	var logger Logger = struct{ Logger }{inner}
	_, isTrace := logger.(TraceLogger)
	require.False(t, isTrace)

	LogAt(logger, LevelTrace, "fine detail")
	assert.NotNil(t, inner.FindEntry("debug", "fine detail"))
	assert.Zero(t, inner.CountEntries("trace"))
}

func TestNopLogger(t *testing.T) {
	t.Parallel()

	var logger Logger = NopLogger{}
	assert.NotPanics(t, func() {
		logger.Info("x")
		logger.Error("x")
		logger.Warn("x")
		logger.Debug("x")
		LogAt(logger, LevelTrace, "x")
	})
}

func TestSlogWriterLogger(t *testing.T) {
	t.Parallel()

	t.Run("text format drops events below the minimum", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger := NewSlogWriterLogger(&buf, "text", LevelWarn)

		logger.Info("quiet")
		logger.Warn("loud", "key", "value")

		out := buf.String()
		assert.NotContains(t, out, "quiet")
		assert.Contains(t, out, "level=WARN")
		assert.Contains(t, out, "msg=loud")
		assert.Contains(t, out, "key=value")
	})

	t.Run("json format", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger := NewSlogWriterLogger(&buf, "JSON", LevelInfo)

		logger.Error("[method:log][threw:IllegalStateException]", "logger", "demo.Testa")

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "ERROR", line["level"])
		assert.Equal(t, "[method:log][threw:IllegalStateException]", line["msg"])
		assert.Equal(t, "demo.Testa", line["logger"])
	})

	t.Run("trace is written with its own level name", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger := NewSlogWriterLogger(&buf, "text", LevelTrace)

		LogAt(logger, LevelTrace, "detail")
		logger.Debug("less detail")

		out := buf.String()
		assert.Contains(t, out, "level=TRACE msg=detail")
		assert.Contains(t, out, "level=DEBUG")
	})

	t.Run("unset minimum behaves as info", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger := NewSlogWriterLogger(&buf, "text", LevelUnset)

		logger.Debug("hidden")
		logger.Info("shown")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})
}
