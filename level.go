package aspectlog

import (
	"fmt"
	"strings"
)

// Level is the severity a marker logs at. The zero value means "unset" and
// lets each marker kind apply its own default.
type Level int

// Severity levels, ordered from least to most severe.
const (
	LevelUnset Level = iota
	LevelTrace
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[Level]string{
	LevelUnset: "",
	LevelTrace: "trace",
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
}

// String returns the lower-case name of the level.
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// Enabled reports whether a message at level l passes a minimum of min.
func (l Level) Enabled(min Level) bool {
	return l >= min
}

// Or returns l, or def when l is unset.
func (l Level) Or(def Level) Level {
	if l == LevelUnset {
		return def
	}
	return l
}

// ParseLevel parses a level name case-insensitively. "warning" is accepted
// as an alias for "warn". An empty string parses to LevelUnset.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return LevelUnset, nil
	case "trace":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelUnset, fmt.Errorf("%w: %q", ErrInvalidLogLevel, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
