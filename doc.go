// Package dispatch selects implementations of a function at call time from a
// set of interchangeable backends grouped by domain.
//
// A Function (multimethod) belongs to one domain. Each call walks the
// candidates of that domain in a fixed order:
//
//   - preferred entries installed with Prefer, in push order; an entry marked
//     only or coerce ends the search even when it declines
//   - the global backend set with SetGlobalBackend
//   - registered backends, in registration order
//
// Backends installed with Skip are passed over in every tier. The first
// backend that handles the call wins; when none does, the default
// implementation runs, and without one the call fails with
// ErrBackendNotImplemented.
//
// Global state lives in a Registry. Prefer and Skip state lives in an
// Overrides store carried by context.Context:
//
//	ctx, _ := dispatch.Attach(ctx)
//	scope, err := dispatch.Prefer(ctx, backend, dispatch.WithOnly(true))
//	if err != nil {
//		return err
//	}
//	defer scope.Close()
//	out, err := fn.Call(ctx, args, kwargs)
//
// Backends expose Dispatch and optionally Convert. Convert receives the
// Dispatchable markers found by the function's extractor and returns their
// replacements, which the function's replacer writes back into the call.
// Either hook declines by returning an error matching ErrNotImplemented.
package dispatch
