package aspectlog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/GoCodeAlone/aspectlog/expr"
	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	commonTemplate    = "'[method:' + #method + '][key:' + #args[0] + ']'"
	returnTemplate    = commonTemplate + " + '[returned:' + #return + ']'"
	exceptionTemplate = commonTemplate + " + '[threw:' + #exceptionName + ']'"
)

type testa struct {
	fail error
}

func (s *testa) log(key string) (string, error) {
	if s.fail != nil {
		return "", s.fail
	}
	return key, nil
}

type IllegalStateException struct{}

func (*IllegalStateException) Error() string { return "illegal state" }

type IllegalArgumentException struct{}

func (*IllegalArgumentException) Error() string { return "illegal argument" }

var testaLog = MethodID{Type: TypeFor[testa](), Name: "log"}

// recordingSubject collects events delivered synchronously.
type recordingSubject struct {
	*EventBus
	mu     sync.Mutex
	events []cloudevents.Event
}

func newRecordingSubject(t *testing.T) *recordingSubject {
	t.Helper()
	s := &recordingSubject{EventBus: NewEventBus(nil)}
	require.NoError(t, s.RegisterObserver(NewFunctionalObserver("recorder", func(_ context.Context, e cloudevents.Event) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.events = append(s.events, e)
		return nil
	})))
	return s
}

func (s *recordingSubject) NotifyObservers(ctx context.Context, e cloudevents.Event) error {
	return s.EventBus.NotifyObservers(WithSynchronousNotification(ctx), e)
}

func (s *recordingSubject) types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, e := range s.events {
		out = append(out, e.Type())
	}
	return out
}

func (s *recordingSubject) data(t *testing.T, i int) CallEventData {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	var d CallEventData
	require.NoError(t, s.events[i].DataAs(&d))
	return d
}

type loggingFixture struct {
	logger  *TestLogger
	subject *recordingSubject
	log     func(string) (string, error)
}

func newLoggingFixture(t *testing.T, svc *testa, markers ...Marker) *loggingFixture {
	t.Helper()
	reg := NewMarkerRegistry(nil)
	for _, m := range markers {
		require.NoError(t, reg.RegisterMethod(testaLog, m))
	}
	f := &loggingFixture{logger: NewTestLogger(), subject: newRecordingSubject(t)}
	w := NewWeaver(
		NewThrowLogger(reg, f.logger, WithSubject(f.subject)),
		NewReturnLogger(reg, f.logger, WithSubject(f.subject)),
	)
	f.log = Wrap1(w, testaLog, svc, svc.log)
	return f
}

// TestReturnLoggerLogsRenderedTemplate verifies a successful call is logged at the marker's level.
func TestReturnLoggerLogsRenderedTemplate(t *testing.T) {
	t.Parallel()

	f := newLoggingFixture(t, &testa{},
		ReturnMarker{Template: returnTemplate, Level: LevelInfo},
		ThrowMarker{Template: exceptionTemplate, Level: LevelWarn},
	)

	res, err := f.log("hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", res)

	entries := f.logger.GetEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, "info", entries[0].Level)
	assert.Equal(t, "[method:log][key:hello][returned:hello]", entries[0].Message)
	assert.Equal(t, testaLog.Type.String(), argsToMap(entries[0].Args)["logger"])

	assert.Equal(t, []string{EventTypeCallLogged}, f.subject.types())
	d := f.subject.data(t, 0)
	assert.Equal(t, "return", d.Marker)
	assert.Equal(t, "info", d.Level)
	assert.Equal(t, "[method:log][key:hello][returned:hello]", d.Message)
}

// TestThrowLoggerLogsRenderedTemplate verifies a failed call is logged and the error passes through.
func TestThrowLoggerLogsRenderedTemplate(t *testing.T) {
	t.Parallel()

	thrown := &IllegalStateException{}
	f := newLoggingFixture(t, &testa{fail: thrown},
		ReturnMarker{Template: returnTemplate, Level: LevelInfo},
		ThrowMarker{Template: exceptionTemplate, Level: LevelWarn},
	)

	_, err := f.log("hello")
	require.Error(t, err)
	assert.Same(t, thrown, err)

	entries := f.logger.GetEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, "warn", entries[0].Level)
	assert.Equal(t, "[method:log][key:hello][threw:IllegalStateException]", entries[0].Message)

	d := f.subject.data(t, 0)
	assert.Equal(t, "throw", d.Marker)
	assert.Equal(t, string(KindFor[*IllegalStateException]()), d.ErrorKind)
}

// TestThrowLoggerSkipsExcludedKind verifies an excluded kind produces no log line.
func TestThrowLoggerSkipsExcludedKind(t *testing.T) {
	t.Parallel()

	thrown := &IllegalStateException{}
	f := newLoggingFixture(t, &testa{fail: thrown},
		ThrowMarker{Template: exceptionTemplate, Except: []ErrorKind{KindFor[*IllegalStateException]()}},
	)

	_, err := f.log("hello")
	assert.Same(t, thrown, err)
	assert.Empty(t, f.logger.GetEntries())
	assert.Equal(t, []string{EventTypeCallExcluded}, f.subject.types())
}

// TestThrowLoggerExclusionIsExact verifies wrapped and other kinds are still logged.
func TestThrowLoggerExclusionIsExact(t *testing.T) {
	t.Parallel()

	marker := ThrowMarker{Template: exceptionTemplate, Except: []ErrorKind{KindFor[*IllegalStateException]()}}

	t.Run("other kind", func(t *testing.T) {
		f := newLoggingFixture(t, &testa{fail: &IllegalArgumentException{}}, marker)
		_, _ = f.log("k")
		assert.NotNil(t, f.logger.FindEntry("error", "[threw:IllegalArgumentException]"))
	})

	t.Run("wrapped excluded kind", func(t *testing.T) {
		wrapped := fmt.Errorf("context: %w", &IllegalStateException{})
		f := newLoggingFixture(t, &testa{fail: wrapped}, marker)
		_, err := f.log("k")
		assert.ErrorIs(t, err, wrapped)
		assert.Equal(t, 1, f.logger.CountEntries("error"))
		assert.NotNil(t, f.logger.FindEntry("error", "[threw:wrapError]"))
	})
}

func TestThrowLoggerDefaultLevelIsError(t *testing.T) {
	t.Parallel()

	f := newLoggingFixture(t, &testa{fail: errors.New("x")}, ThrowMarker{Template: "'failed: ' + #exception.Error"})
	_, _ = f.log("k")

	entry := f.logger.FindEntry("error", "failed: x")
	require.NotNil(t, entry)
}

func TestReturnLoggerNotCalledOnError(t *testing.T) {
	t.Parallel()

	f := newLoggingFixture(t, &testa{fail: errors.New("x")}, ReturnMarker{Template: returnTemplate})
	_, err := f.log("k")
	require.Error(t, err)
	assert.Empty(t, f.logger.GetEntries())
}

func TestThrowLoggerNotCalledOnSuccess(t *testing.T) {
	t.Parallel()

	f := newLoggingFixture(t, &testa{}, ThrowMarker{Template: exceptionTemplate})
	res, err := f.log("k")
	require.NoError(t, err)
	assert.Equal(t, "k", res)
	assert.Empty(t, f.logger.GetEntries())
}

// TestTemplateFailureDoesNotChangeResult verifies a render failure becomes an error line.
func TestTemplateFailureDoesNotChangeResult(t *testing.T) {
	t.Parallel()

	reg := NewMarkerRegistry(nil)
	id := MethodID{Type: TypeFor[testa](), Name: "ping"}
	reg.MustRegisterMethod(id, ReturnMarker{Template: returnTemplate})
	logger := NewTestLogger()
	subject := newRecordingSubject(t)

	ping := Wrap0(NewWeaver(NewReturnLogger(reg, logger, WithSubject(subject))), id, &testa{}, func() (string, error) {
		return "pong", nil
	})

	res, err := ping()
	require.NoError(t, err)
	assert.Equal(t, "pong", res)

	entries := logger.GetEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, "error", entries[0].Level)
	assert.Equal(t, "Failed to render log template", entries[0].Message)
	args := argsToMap(entries[0].Args)
	assert.Equal(t, id.String(), args["method"])
	assert.Equal(t, "return", args["marker"])
	assert.Contains(t, fmt.Sprint(args["error"]), "index out of range")

	assert.Equal(t, []string{EventTypeTemplateFailed}, subject.types())
}

type brokenStringer struct{}

func (brokenStringer) String() string { panic("no string for you") }

func TestTemplatePanicIsReportedAsRenderFailure(t *testing.T) {
	t.Parallel()

	reg := NewMarkerRegistry(nil)
	id := MethodID{Type: TypeFor[testa](), Name: "broken"}
	reg.MustRegisterMethod(id, ReturnMarker{Template: "'got ' + #return"})
	logger := NewTestLogger()

	call := Wrap0(NewWeaver(NewReturnLogger(reg, logger)), id, nil, func() (brokenStringer, error) {
		return brokenStringer{}, nil
	})

	assert.NotPanics(t, func() {
		_, err := call()
		assert.NoError(t, err)
	})
	entry := logger.FindEntry("error", "Failed to render log template")
	require.NotNil(t, entry)
	assert.Contains(t, fmt.Sprint(argsToMap(entry.Args)["error"]), "no string for you")

	err, ok := argsToMap(entry.Args)["error"].(error)
	require.True(t, ok)
	assert.True(t, expr.IsTemplateError(err))
	assert.ErrorIs(t, err, expr.ErrRenderPanicked)
}

// TestThrowLoggerPanicIsLoggedAndReraised verifies panics are logged then re-raised with the same value.
func TestThrowLoggerPanicIsLoggedAndReraised(t *testing.T) {
	t.Parallel()

	reg := NewMarkerRegistry(nil)
	id := MethodID{Type: TypeFor[testa](), Name: "explode"}
	reg.MustRegisterMethod(id, ThrowMarker{Template: "'[threw:' + #exceptionName + '][' + #exception + ']'", Level: LevelWarn})
	logger := NewTestLogger()

	value := &IllegalStateException{}
	explode := Wrap0(NewWeaver(NewThrowLogger(reg, logger)), id, nil, func() (int, error) {
		panic(value)
	})

	defer func() {
		r := recover()
		assert.Same(t, value, r)
		assert.NotNil(t, logger.FindEntry("warn", "[threw:IllegalStateException][illegal state]"))
	}()
	_, _ = explode()
	t.Fatal("panic was swallowed")
}

func TestThrowLoggerExcludedPanicIsStillReraised(t *testing.T) {
	t.Parallel()

	reg := NewMarkerRegistry(nil)
	id := MethodID{Type: TypeFor[testa](), Name: "explode"}
	reg.MustRegisterMethod(id, ThrowMarker{Template: "'x'", Except: []ErrorKind{"string"}})
	logger := NewTestLogger()

	explode := Wrap0(NewWeaver(NewThrowLogger(reg, logger)), id, nil, func() (int, error) {
		panic("boom")
	})

	assert.PanicsWithValue(t, "boom", func() { _, _ = explode() })
	assert.Empty(t, logger.GetEntries())
}

func TestCallLoggerWithLoggerFactory(t *testing.T) {
	t.Parallel()

	reg := NewMarkerRegistry(nil)
	reg.MustRegisterMethod(testaLog, ReturnMarker{Template: "'ok'", Level: LevelDebug})

	base := NewTestLogger()
	scoped := NewTestLogger()
	var seen TypeInfo
	factory := func(t TypeInfo) Logger {
		seen = t
		return scoped
	}

	svc := &testa{}
	log := Wrap1(NewWeaver(NewReturnLogger(reg, base, WithLoggerFactory(factory))), testaLog, svc, svc.log)
	_, err := log("k")
	require.NoError(t, err)

	assert.Equal(t, testaLog.Type, seen)
	assert.Empty(t, base.GetEntries())
	assert.NotNil(t, scoped.FindEntry("debug", "ok"))
}

func TestCallLoggersIgnoreUnmarkedMethods(t *testing.T) {
	t.Parallel()

	reg := NewMarkerRegistry(nil)
	logger := NewTestLogger()
	rl := NewReturnLogger(reg, logger)
	tl := NewThrowLogger(reg, logger)

	call := &Call{Method: testaLog, Args: []any{"k"}}
	assert.False(t, rl.Matches(call))
	assert.False(t, tl.Matches(call))

	next := func(context.Context, *Call) (any, error) { return "direct", nil }
	res, err := rl.Intercept(context.Background(), call, next)
	require.NoError(t, err)
	assert.Equal(t, "direct", res)
	res, err = tl.Intercept(context.Background(), call, next)
	require.NoError(t, err)
	assert.Equal(t, "direct", res)
	assert.Empty(t, logger.GetEntries())
}

func TestCallLoggerTypeLevelMarker(t *testing.T) {
	t.Parallel()

	reg := NewMarkerRegistry(nil)
	reg.MustRegisterType(TypeFor[testa](), ReturnMarker{Template: "#className + '.' + #method"})
	logger := NewTestLogger()

	svc := &testa{}
	log := Wrap1(NewWeaver(NewReturnLogger(reg, logger)), testaLog, svc, svc.log)
	_, err := log("k")
	require.NoError(t, err)
	assert.NotNil(t, logger.FindEntry("info", "testa.log"))
}
