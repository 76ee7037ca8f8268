package aspectlog

import (
	"fmt"
	"slices"
	"strings"
)

// MarkerKind discriminates the marker variants.
type MarkerKind int

const (
	MarkerParam MarkerKind = iota + 1
	MarkerReturn
	MarkerThrow
)

func (k MarkerKind) String() string {
	switch k {
	case MarkerParam:
		return "param"
	case MarkerReturn:
		return "return"
	case MarkerThrow:
		return "throw"
	default:
		return fmt.Sprintf("marker(%d)", int(k))
	}
}

// ParseMarkerKind parses "param", "return" or "throw".
func ParseMarkerKind(s string) (MarkerKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "param":
		return MarkerParam, nil
	case "return":
		return MarkerReturn, nil
	case "throw":
		return MarkerThrow, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMarkerKind, s)
	}
}

// Default levels applied when a marker leaves Level unset.
const (
	DefaultReturnLevel = LevelInfo
	DefaultThrowLevel  = LevelError
)

// Marker is implemented by ParamMarker, ReturnMarker and ThrowMarker.
type Marker interface {
	Kind() MarkerKind
}

// ParamMarker carries an integer the ParamInterceptor prints before the call.
type ParamMarker struct {
	Value int
}

func (ParamMarker) Kind() MarkerKind { return MarkerParam }

// ReturnMarker logs Template after a successful call.
type ReturnMarker struct {
	Template string
	Level    Level
}

func (ReturnMarker) Kind() MarkerKind { return MarkerReturn }

// ThrowMarker logs Template when a call fails, unless the failure's exact
// kind is listed in Except. Subtypes, wrapped errors and embedding types do
// not match an excluded kind.
type ThrowMarker struct {
	Template string
	Level    Level
	Except   []ErrorKind
}

func (ThrowMarker) Kind() MarkerKind { return MarkerThrow }

// Excludes reports whether kind is exactly one of the excluded kinds.
func (m ThrowMarker) Excludes(kind ErrorKind) bool {
	return slices.Contains(m.Except, kind)
}
