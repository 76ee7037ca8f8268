package expr

import (
	"errors"
	"fmt"
)

// Template errors
var (
	// Parse errors
	ErrSyntax             = errors.New("syntax error")
	ErrUnterminatedString = errors.New("unterminated string literal")
	ErrUnexpectedToken    = errors.New("unexpected token")
	ErrEmptyTemplate      = errors.New("empty template")

	// Evaluation errors
	ErrUnboundVariable  = errors.New("variable is not bound")
	ErrIndexOutOfRange  = errors.New("index out of range")
	ErrNotIndexable     = errors.New("value cannot be indexed")
	ErrInvalidIndex     = errors.New("invalid index type")
	ErrNullReference    = errors.New("null reference")
	ErrUnknownProperty  = errors.New("unknown property")
	ErrInvalidOperands  = errors.New("invalid operands for '+'")
	ErrNotAString       = errors.New("template did not evaluate to a string")
	ErrPropertyCallFail = errors.New("property accessor returned an error")
	ErrRenderPanicked   = errors.New("panic while rendering")
)

// TemplateError reports a failure to parse or render a template.
// Pos is the byte offset into Template the failure relates to, or -1.
type TemplateError struct {
	Template string
	Pos      int
	Err      error
}

func (e *TemplateError) Error() string {
	if e.Pos < 0 {
		return fmt.Sprintf("template %q: %v", e.Template, e.Err)
	}
	return fmt.Sprintf("template %q: offset %d: %v", e.Template, e.Pos, e.Err)
}

func (e *TemplateError) Unwrap() error {
	return e.Err
}

func newTemplateError(src string, pos int, err error) *TemplateError {
	return &TemplateError{Template: src, Pos: pos, Err: err}
}
