package aspectlog

import (
	"context"
	"fmt"
)

// Weaver holds the interceptor chain applied to wrapped functions. Wrapping
// happens at construction time: the Wrap and Do helpers return a function
// with the target's own signature that routes every call through the chain.
type Weaver struct {
	interceptors []Interceptor
}

// NewWeaver creates a Weaver with the given interceptors, outermost first.
func NewWeaver(interceptors ...Interceptor) *Weaver {
	return &Weaver{interceptors: interceptors}
}

// Use appends interceptors to the chain. Functions already wrapped by w pick
// them up on their next call. Use must not run concurrently with wrapped
// calls.
func (w *Weaver) Use(interceptors ...Interceptor) *Weaver {
	w.interceptors = append(w.interceptors, interceptors...)
	return w
}

// Invoker wraps target in the chain.
func (w *Weaver) Invoker(target Invoker) Invoker {
	return Chain(target, append([]Interceptor(nil), w.interceptors...)...)
}

// Invoke runs one call through the chain.
func (w *Weaver) Invoke(ctx context.Context, call *Call, target Invoker) (any, error) {
	return w.Invoker(target)(ctx, call)
}

// Wrap0 wraps a method with no arguments.
func Wrap0[R any](w *Weaver, id MethodID, receiver any, fn func() (R, error)) func() (R, error) {
	return func() (R, error) {
		invoke := w.Invoker(func(context.Context, *Call) (any, error) {
			r, err := fn()
			return r, err
		})
		res, err := invoke(context.Background(), &Call{Method: id, Args: []any{}, Receiver: receiver})
		return resultAs[R](id, res), err
	}
}

// Wrap1 wraps a method with one argument.
func Wrap1[A, R any](w *Weaver, id MethodID, receiver any, fn func(A) (R, error)) func(A) (R, error) {
	return func(a A) (R, error) {
		invoke := w.Invoker(func(context.Context, *Call) (any, error) {
			r, err := fn(a)
			return r, err
		})
		res, err := invoke(context.Background(), &Call{Method: id, Args: []any{a}, Receiver: receiver})
		return resultAs[R](id, res), err
	}
}

// Wrap2 wraps a method with two arguments.
func Wrap2[A, B, R any](w *Weaver, id MethodID, receiver any, fn func(A, B) (R, error)) func(A, B) (R, error) {
	return func(a A, b B) (R, error) {
		invoke := w.Invoker(func(context.Context, *Call) (any, error) {
			r, err := fn(a, b)
			return r, err
		})
		res, err := invoke(context.Background(), &Call{Method: id, Args: []any{a, b}, Receiver: receiver})
		return resultAs[R](id, res), err
	}
}

// Do1 wraps a method with one argument and no result. Return markers see a
// nil #return.
func Do1[A any](w *Weaver, id MethodID, receiver any, fn func(A) error) func(A) error {
	return func(a A) error {
		invoke := w.Invoker(func(context.Context, *Call) (any, error) {
			return nil, fn(a)
		})
		_, err := invoke(context.Background(), &Call{Method: id, Args: []any{a}, Receiver: receiver})
		return err
	}
}

func resultAs[R any](id MethodID, res any) R {
	var zero R
	if res == nil {
		return zero
	}
	r, ok := res.(R)
	if !ok {
		panic(fmt.Sprintf("aspectlog: interceptor on %s replaced a %T result with %T", id, zero, res))
	}
	return r
}
