package aspectlog

import (
	"errors"
	"fmt"
)

// Package errors
var (
	// Marker errors
	ErrMarkerNotFound      = errors.New("no applicable marker")
	ErrMarkerConflict      = errors.New("marker already registered")
	ErrInvalidMarker       = errors.New("invalid marker")
	ErrInvalidLogLevel     = errors.New("invalid log level")
	ErrInvalidErrorKind    = errors.New("invalid error kind")
	ErrInvalidTypeName     = errors.New("invalid type name")
	ErrUnknownMarkerKind   = errors.New("unknown marker kind")
	ErrMarkerFileNil       = errors.New("marker file is nil")
	ErrRegistryNil         = errors.New("marker registry is nil")
	ErrOutcomeAlreadyBound = errors.New("call context already carries an outcome")

	// Watcher errors
	ErrWatcherRunning    = errors.New("marker watcher already running")
	ErrWatcherNotRunning = errors.New("marker watcher not running")

	// Event errors
	ErrObserverNil = errors.New("observer is nil")
)

// MarkerResolutionError is returned by an interceptor that requires a marker
// when neither the method nor its declaring type carries one.
type MarkerResolutionError struct {
	Method MethodID
	Kind   MarkerKind
}

func (e *MarkerResolutionError) Error() string {
	return fmt.Sprintf("%s marker for %s: %v", e.Kind, e.Method, ErrMarkerNotFound)
}

func (e *MarkerResolutionError) Unwrap() error {
	return ErrMarkerNotFound
}

// MarkerConfigError wraps a validation failure for one entry of a marker file.
type MarkerConfigError struct {
	Index int
	Err   error
}

func (e *MarkerConfigError) Error() string {
	return fmt.Sprintf("marker %d: %v", e.Index, e.Err)
}

func (e *MarkerConfigError) Unwrap() error {
	return e.Err
}

// NewMarkerConfigError creates a new MarkerConfigError
func NewMarkerConfigError(index int, err error) *MarkerConfigError {
	return &MarkerConfigError{
		Index: index,
		Err:   err,
	}
}
