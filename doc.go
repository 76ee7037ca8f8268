// Package aspectlog adds declarative, template-driven logging around
// ordinary Go functions.
//
// Markers are attached to methods or types in a MarkerRegistry, either in
// code or from a marker file. Functions are then wrapped once, at
// construction time, so every call runs through an interceptor chain:
//
//	reg := aspectlog.NewMarkerRegistry(logger)
//	reg.MustRegisterMethod(aspectlog.MethodOf(svc, "Log"), aspectlog.ReturnMarker{
//		Template: "'[method:' + #method + '][key:' + #args[0] + '][returned:' + #return + ']'",
//	})
//
//	weaver := aspectlog.NewWeaver(
//		aspectlog.NewThrowLogger(reg, logger),
//		aspectlog.NewReturnLogger(reg, logger),
//	)
//	logFn := aspectlog.Wrap1(weaver, aspectlog.MethodOf(svc, "Log"), svc, svc.Log)
//
// Three interceptors are provided:
//
//   - ParamInterceptor prints a ParamMarker value and the call's integer
//     argument before the call runs.
//   - ReturnLogger renders a ReturnMarker template after a successful call.
//   - ThrowLogger renders a ThrowMarker template after a failed or panicking
//     call, unless the failure's exact kind is excluded.
//
// Templates are written in the expression language of package expr and are
// rendered against a CallContext. Logging never changes what the wrapped
// function returns, and a template that fails to render is reported as an
// error log line rather than as the call's error.
package aspectlog
