package aspectlog

import (
	"bytes"
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type foo struct {
	calls []int
}

func (f *foo) foo(n int) error {
	f.calls = append(f.calls, n)
	return nil
}

var fooFoo = MethodID{Type: TypeFor[foo](), Name: "foo"}

// TestParamInterceptorPrintsMarkerAndArgument verifies the marker value and argument are printed before the call.
func TestParamInterceptorPrintsMarkerAndArgument(t *testing.T) {
	t.Parallel()

	reg := NewMarkerRegistry(nil)
	reg.MustRegisterType(TypeFor[foo](), ParamMarker{Value: 1})

	var out bytes.Buffer
	f := &foo{}
	call := Do1(NewWeaver(NewParamInterceptor(reg, &out)), fooFoo, f, f.foo)

	require.NoError(t, call(5))
	assert.Equal(t, "1\n5\n", out.String())
	assert.Equal(t, []int{5}, f.calls)
}

// TestParamInterceptorPrintsUnsignedArgumentAsPassed verifies unsigned values are not narrowed.
func TestParamInterceptorPrintsUnsignedArgumentAsPassed(t *testing.T) {
	t.Parallel()

	reg := NewMarkerRegistry(nil)
	reg.MustRegisterType(TypeFor[foo](), ParamMarker{Value: 1})

	var out bytes.Buffer
	call := Do1(NewWeaver(NewParamInterceptor(reg, &out)), fooFoo, nil,
		func(uint64) error { return nil })

	require.NoError(t, call(math.MaxUint64))
	assert.Equal(t, "1\n18446744073709551615\n", out.String())
}

func TestParamInterceptorMethodMarkerWins(t *testing.T) {
	t.Parallel()

	reg := NewMarkerRegistry(nil)
	reg.MustRegisterType(TypeFor[foo](), ParamMarker{Value: 1}).
		MustRegisterMethod(fooFoo, ParamMarker{Value: 7})

	var out bytes.Buffer
	f := &foo{}
	call := Do1(NewWeaver(NewParamInterceptor(reg, &out)), fooFoo, f, f.foo)

	require.NoError(t, call(-3))
	assert.Equal(t, "7\n-3\n", out.String())
}

func TestParamInterceptorMatches(t *testing.T) {
	t.Parallel()

	reg := NewMarkerRegistry(nil)
	reg.MustRegisterType(TypeFor[foo](), ParamMarker{Value: 1})
	p := NewParamInterceptor(reg, &bytes.Buffer{})

	tests := []struct {
		name string
		call *Call
		want bool
	}{
		{"single int", &Call{Method: fooFoo, Args: []any{5}}, true},
		{"single int64", &Call{Method: fooFoo, Args: []any{int64(5)}}, true},
		{"single uint8", &Call{Method: fooFoo, Args: []any{uint8(5)}}, true},
		{"string argument", &Call{Method: fooFoo, Args: []any{"5"}}, false},
		{"two ints", &Call{Method: fooFoo, Args: []any{1, 2}}, false},
		{"no arguments", &Call{Method: fooFoo}, false},
		{"nil argument", &Call{Method: fooFoo, Args: []any{nil}}, false},
		{"unmarked type", &Call{Method: testaLog, Args: []any{5}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Matches(tt.call))
		})
	}
}

func TestParamInterceptorSkipsNonMatchingCalls(t *testing.T) {
	t.Parallel()

	reg := NewMarkerRegistry(nil)
	reg.MustRegisterType(TypeFor[foo](), ParamMarker{Value: 1})

	var out bytes.Buffer
	add := Wrap2(NewWeaver(NewParamInterceptor(reg, &out)), MethodID{Type: TypeFor[foo](), Name: "add"}, nil,
		func(a, b int) (int, error) { return a + b, nil })

	sum, err := add(2, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, sum)
	assert.Empty(t, out.String())
}

// TestParamInterceptorWithoutMarker verifies a direct invocation with no marker fails without proceeding.
func TestParamInterceptorWithoutMarker(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	p := NewParamInterceptor(NewMarkerRegistry(nil), &out)

	proceeded := false
	_, err := p.Intercept(context.Background(), &Call{Method: fooFoo, Args: []any{5}}, func(context.Context, *Call) (any, error) {
		proceeded = true
		return nil, nil
	})

	var resErr *MarkerResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, fooFoo, resErr.Method)
	assert.Equal(t, MarkerParam, resErr.Kind)
	assert.True(t, errors.Is(err, ErrMarkerNotFound))
	assert.Equal(t, "param marker for "+fooFoo.String()+": no applicable marker", err.Error())
	assert.False(t, proceeded)
	assert.Empty(t, out.String())
}

func TestParamInterceptorDefaultsToStdout(t *testing.T) {
	t.Parallel()

	p := NewParamInterceptor(NewMarkerRegistry(nil), nil)
	assert.NotNil(t, p.out)
}
