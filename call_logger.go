package aspectlog

import (
	"context"
	"fmt"

	"github.com/GoCodeAlone/aspectlog/expr"
)

// CallLoggerOption configures a ReturnLogger or ThrowLogger.
type CallLoggerOption func(*callLogger)

// WithLoggerFactory sets how the per-type logger is obtained. The default
// is ScopedLoggerFactory over the base logger.
func WithLoggerFactory(factory LoggerFactory) CallLoggerOption {
	return func(c *callLogger) {
		c.loggers = factory
	}
}

// WithSubject makes the logger emit interception events to subject.
func WithSubject(subject Subject) CallLoggerOption {
	return func(c *callLogger) {
		c.subject = subject
	}
}

// callLogger holds what ReturnLogger and ThrowLogger share.
type callLogger struct {
	registry *MarkerRegistry
	base     Logger
	loggers  LoggerFactory
	subject  Subject
}

func newCallLogger(registry *MarkerRegistry, base Logger, opts []CallLoggerOption) callLogger {
	if base == nil {
		base = NopLogger{}
	}
	c := callLogger{registry: registry, base: base}
	for _, opt := range opts {
		opt(&c)
	}
	if c.loggers == nil {
		c.loggers = ScopedLoggerFactory(base)
	}
	return c
}

// emit renders b's template against cc and writes it at b's level. A render
// failure, including a panic raised while stringifying a value, is written
// as an error line on the same logger instead.
func (c *callLogger) emit(ctx context.Context, call *Call, b *boundMarker, cc *CallContext, errorKind ErrorKind) {
	logger := c.loggers(call.Method.Type)
	data := CallEventData{
		Method:    call.Method.String(),
		Marker:    b.marker.Kind().String(),
		ErrorKind: string(errorKind),
	}

	msg, err := safeRender(b, cc)
	if err != nil {
		logger.Error("Failed to render log template",
			"method", call.Method.String(),
			"marker", b.marker.Kind().String(),
			"template", b.template.String(),
			"error", err)
		data.Error = err.Error()
		emitEvent(ctx, c.subject, c.base, EventTypeTemplateFailed, data)
		return
	}

	LogAt(logger, b.level, msg)
	data.Level = b.level.String()
	data.Message = msg
	emitEvent(ctx, c.subject, c.base, EventTypeCallLogged, data)
}

func safeRender(b *boundMarker, cc *CallContext) (msg string, err error) {
	defer func() {
		if r := recover(); r != nil {
			msg = ""
			err = &expr.TemplateError{
				Template: b.template.String(),
				Pos:      -1,
				Err:      fmt.Errorf("%w: %v", expr.ErrRenderPanicked, r),
			}
		}
	}()
	return b.template.Render(cc)
}

// ReturnLogger logs a ReturnMarker's template after a call completes
// without error. The result is forwarded unchanged.
type ReturnLogger struct {
	callLogger
}

// NewReturnLogger creates a ReturnLogger. Messages go to the logger the
// LoggerFactory returns for the declaring type.
func NewReturnLogger(registry *MarkerRegistry, base Logger, opts ...CallLoggerOption) *ReturnLogger {
	return &ReturnLogger{callLogger: newCallLogger(registry, base, opts)}
}

// Matches implements Matcher.
func (r *ReturnLogger) Matches(call *Call) bool {
	return r.registry.Has(call.Method, MarkerReturn)
}

// Intercept implements Interceptor.
func (r *ReturnLogger) Intercept(ctx context.Context, call *Call, next Invoker) (any, error) {
	b, ok := r.registry.resolve(call.Method, MarkerReturn)
	if !ok {
		return next(ctx, call)
	}

	res, err := next(ctx, call)
	if err != nil {
		return res, err
	}

	cc, cerr := NewCallContext(call).WithReturn(res)
	if cerr == nil {
		r.emit(ctx, call, b, cc, "")
	}
	return res, nil
}

// ThrowLogger logs a ThrowMarker's template when a call returns an error or
// panics. The error is returned unchanged and a panic is re-raised with its
// original value. Nothing is logged when the failure's exact kind is in the
// marker's Except list.
type ThrowLogger struct {
	callLogger
}

// NewThrowLogger creates a ThrowLogger.
func NewThrowLogger(registry *MarkerRegistry, base Logger, opts ...CallLoggerOption) *ThrowLogger {
	return &ThrowLogger{callLogger: newCallLogger(registry, base, opts)}
}

// Matches implements Matcher.
func (t *ThrowLogger) Matches(call *Call) bool {
	return t.registry.Has(call.Method, MarkerThrow)
}

// Intercept implements Interceptor.
func (t *ThrowLogger) Intercept(ctx context.Context, call *Call, next Invoker) (res any, err error) {
	b, ok := t.registry.resolve(call.Method, MarkerThrow)
	if !ok {
		return next(ctx, call)
	}

	defer func() {
		if r := recover(); r != nil {
			t.logThrown(ctx, call, b, r)
			panic(r)
		}
	}()

	res, err = next(ctx, call)
	if err != nil {
		t.logThrown(ctx, call, b, err)
	}
	return res, err
}

func (t *ThrowLogger) logThrown(ctx context.Context, call *Call, b *boundMarker, thrown any) {
	kind := ErrorKindOf(thrown)
	if b.marker.(ThrowMarker).Excludes(kind) {
		emitEvent(ctx, t.subject, t.base, EventTypeCallExcluded, CallEventData{
			Method:    call.Method.String(),
			Marker:    MarkerThrow.String(),
			ErrorKind: string(kind),
		})
		return
	}

	cc, err := NewCallContext(call).WithThrown(thrown)
	if err != nil {
		return
	}
	t.emit(ctx, call, b, cc, kind)
}
