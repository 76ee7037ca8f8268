package main

import (
	"fmt"
	"io"

	"github.com/GoCodeAlone/aspectlog"
)

const (
	commonTemplate    = "'[method:' + #method + '][key:' + #args[0] + ']'"
	returnTemplate    = commonTemplate + " + '[returned:' + #return + ']'"
	exceptionTemplate = commonTemplate + " + '[threw:' + #exceptionName + ']'"
)

// IllegalStateException is what Testa.Log fails with in failure mode.
type IllegalStateException struct {
	Reason string
}

func (e *IllegalStateException) Error() string {
	return "illegal state: " + e.Reason
}

// Testa echoes its key.
type Testa struct {
	out  io.Writer
	fail bool
}

func (t *Testa) Log(key string) (string, error) {
	if t.fail {
		return "", &IllegalStateException{Reason: "refusing to log " + key}
	}
	_, _ = fmt.Fprintln(t.out, key)
	return key, nil
}

// Foo carries a type-level ParamMarker, so every integer call is announced.
type Foo struct {
	out io.Writer
}

func (f *Foo) Foo(_ int) error {
	_, _ = fmt.Fprintln(f.out, "foo")
	return nil
}

// registerDefaultMarkers declares the markers used when no marker file is
// given.
func registerDefaultMarkers(reg *aspectlog.MarkerRegistry, excludeIllegalState bool) error {
	var except []aspectlog.ErrorKind
	if excludeIllegalState {
		except = append(except, aspectlog.KindFor[*IllegalStateException]())
	}

	logID := aspectlog.MethodID{Type: aspectlog.TypeFor[Testa](), Name: "Log"}
	if err := reg.RegisterMethod(logID, aspectlog.ReturnMarker{Template: returnTemplate, Level: aspectlog.LevelInfo}); err != nil {
		return err
	}
	if err := reg.RegisterMethod(logID, aspectlog.ThrowMarker{Template: exceptionTemplate, Level: aspectlog.LevelWarn, Except: except}); err != nil {
		return err
	}
	return reg.RegisterType(aspectlog.TypeFor[Foo](), aspectlog.ParamMarker{Value: 1})
}

// demo is the wired set of intercepted calls.
type demo struct {
	log func(key string) (string, error)
	foo func(n int) error
}

func newDemo(w *aspectlog.Weaver, out io.Writer, fail bool) *demo {
	testa := &Testa{out: out, fail: fail}
	foo := &Foo{out: out}
	return &demo{
		log: aspectlog.Wrap1(w, aspectlog.MethodOf(testa, "Log"), testa, testa.Log),
		foo: aspectlog.Do1(w, aspectlog.MethodOf(foo, "Foo"), foo, foo.Foo),
	}
}

func (d *demo) run(out io.Writer, key string, n int) {
	if _, err := d.log(key); err != nil {
		_, _ = fmt.Fprintf(out, "log(%q) failed: %v\n", key, err)
	}
	if err := d.foo(n); err != nil {
		_, _ = fmt.Fprintf(out, "foo(%d) failed: %v\n", n, err)
	}
}
