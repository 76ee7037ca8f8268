package aspectlog

import (
	"context"
)

// Invoker runs the intercepted function (or the rest of the chain).
type Invoker func(ctx context.Context, call *Call) (any, error)

// Interceptor runs around an invocation. It must call next exactly once to
// let the call proceed, and should return next's result unchanged.
type Interceptor interface {
	Intercept(ctx context.Context, call *Call, next Invoker) (any, error)
}

// Matcher is implemented by interceptors that only apply to some calls.
// The chain skips an interceptor whose Matches returns false.
type Matcher interface {
	Matches(call *Call) bool
}

// InterceptorFunc adapts a function to Interceptor.
type InterceptorFunc func(ctx context.Context, call *Call, next Invoker) (any, error)

// Intercept implements Interceptor.
func (f InterceptorFunc) Intercept(ctx context.Context, call *Call, next Invoker) (any, error) {
	return f(ctx, call, next)
}

// Chain composes interceptors around target. The first interceptor is the
// outermost. Matchers are evaluated per call, so registry changes take
// effect on the next invocation.
func Chain(target Invoker, interceptors ...Interceptor) Invoker {
	next := target
	for i := len(interceptors) - 1; i >= 0; i-- {
		next = link(interceptors[i], next)
	}
	return next
}

func link(ic Interceptor, next Invoker) Invoker {
	return func(ctx context.Context, call *Call) (any, error) {
		if m, ok := ic.(Matcher); ok && !m.Matches(call) {
			return next(ctx, call)
		}
		return ic.Intercept(ctx, call, next)
	}
}
