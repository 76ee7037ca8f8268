package aspectlog

import (
	"context"
	"fmt"
	"io"
	"os"
	"reflect"
	"sync"
)

// ParamInterceptor prints a ParamMarker's value and the call's integer
// argument before the call proceeds. It applies to calls that take exactly
// one integer argument and whose method or declaring type has a ParamMarker.
type ParamInterceptor struct {
	registry *MarkerRegistry
	out      io.Writer
	mu       sync.Mutex
}

// NewParamInterceptor creates a ParamInterceptor writing to out, or to
// standard output when out is nil.
func NewParamInterceptor(registry *MarkerRegistry, out io.Writer) *ParamInterceptor {
	if out == nil {
		out = os.Stdout
	}
	return &ParamInterceptor{registry: registry, out: out}
}

// Matches implements Matcher.
func (p *ParamInterceptor) Matches(call *Call) bool {
	if !singleIntArg(call.Args) {
		return false
	}
	return p.registry.Has(call.Method, MarkerParam)
}

// Intercept implements Interceptor. Invoked directly on a call with no
// resolvable ParamMarker it fails with *MarkerResolutionError and the call
// does not proceed.
func (p *ParamInterceptor) Intercept(ctx context.Context, call *Call, next Invoker) (any, error) {
	marker, ok := p.registry.ParamMarkerFor(call.Method)
	if !ok {
		return nil, &MarkerResolutionError{Method: call.Method, Kind: MarkerParam}
	}

	if singleIntArg(call.Args) {
		p.mu.Lock()
		_, _ = fmt.Fprintln(p.out, marker.Value)
		_, _ = fmt.Fprintln(p.out, call.Args[0])
		p.mu.Unlock()
	}

	return next(ctx, call)
}

// singleIntArg reports whether args is exactly one signed or unsigned
// integer. The argument is printed as passed, so unsigned values keep their
// full range.
func singleIntArg(args []any) bool {
	if len(args) != 1 || args[0] == nil {
		return false
	}
	switch reflect.ValueOf(args[0]).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	default:
		return false
	}
}
