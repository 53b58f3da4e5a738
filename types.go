package dispatch

import "context"

// Args holds positional call arguments.
type Args []any

// Kwargs holds keyword call arguments.
type Kwargs map[string]any

// Clone returns a shallow copy of args.
func (a Args) Clone() Args {
	if a == nil {
		return Args{}
	}
	out := make(Args, len(a))
	copy(out, a)
	return out
}

// Clone returns a shallow copy of kwargs. The result is never nil.
func (k Kwargs) Clone() Kwargs {
	out := make(Kwargs, len(k))
	for key, value := range k {
		out[key] = value
	}
	return out
}

// Backend is a handle to an alternate implementation provider. Handles are
// compared with == for skip checks, so pointer backends give identity
// semantics.
type Backend interface {
	Domain() string
}

// Dispatcher is the hook a backend must expose to be usable. Returning an
// error matching ErrNotImplemented declines the call.
type Dispatcher interface {
	Dispatch(ctx context.Context, fn *Function, args Args, kwargs Kwargs) (any, error)
}

// Converter is the optional hook that converts dispatchables into values the
// backend understands. Returning an error matching ErrNotImplemented declines
// the call. Backends without it receive the raw arguments.
type Converter interface {
	Convert(dispatchables []Dispatchable, coerce bool) ([]any, error)
}

// Named lets a backend report a stable name for logs and traces.
type Named interface {
	Name() string
}

// Extractor returns the dispatchable markers found in a call.
type Extractor func(args Args, kwargs Kwargs) ([]Dispatchable, error)

// Replacer rebuilds the call arguments with converted dispatchables.
type Replacer func(args Args, kwargs Kwargs, replacements []any) (Args, Kwargs, error)

// DefaultFunc is the shape of a default implementation.
type DefaultFunc func(ctx context.Context, args Args, kwargs Kwargs) (any, error)

// BackendOptions is a preferred backend entry.
type BackendOptions struct {
	Backend Backend
	// Coerce asks the conversion hook to convert dispatchables even when the
	// backend does not natively support them. It also ends the search when
	// this entry declines.
	Coerce bool
	// Only ends the search after this entry regardless of outcome.
	Only bool
}
