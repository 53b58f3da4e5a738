package dispatch

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Function is a multimethod: its implementation is selected per call from
// the backends of its domain. A Function is immutable after New returns and
// safe for concurrent use.
type Function struct {
	extractor     Extractor
	replacer      Replacer
	domain        string
	name          string
	defaultArgs   Args
	defaultKwargs Kwargs
	defaultImpl   DefaultFunc
	registry      *Registry
	logger        CallLogger
	tracer        trace.Tracer
}

// FunctionOption configures a Function.
type FunctionOption func(*Function)

// WithDefaultArgs declares the positional defaults used to canonicalize calls.
func WithDefaultArgs(defaults ...any) FunctionOption {
	return func(f *Function) {
		f.defaultArgs = append(Args{}, defaults...)
	}
}

// WithDefaultKwargs declares the keyword defaults used to canonicalize calls.
func WithDefaultKwargs(defaults Kwargs) FunctionOption {
	return func(f *Function) {
		f.defaultKwargs = defaults.Clone()
	}
}

// WithDefault sets the implementation used when no backend handles a call.
func WithDefault(impl DefaultFunc) FunctionOption {
	return func(f *Function) {
		f.defaultImpl = impl
	}
}

// WithName names the multimethod. Script backends key their implementations
// on it.
func WithName(name string) FunctionOption {
	return func(f *Function) {
		f.name = name
	}
}

// WithRegistry binds the function to registry instead of DefaultRegistry.
func WithRegistry(registry *Registry) FunctionOption {
	return func(f *Function) {
		if registry != nil {
			f.registry = registry
		}
	}
}

// WithCallLogger records one event per call.
func WithCallLogger(logger CallLogger) FunctionOption {
	return func(f *Function) {
		if logger == nil {
			f.logger = noopCallLogger{}
			return
		}
		f.logger = logger
	}
}

// WithTracer overrides the tracer used for call spans.
func WithTracer(tracer trace.Tracer) FunctionOption {
	return func(f *Function) {
		if tracer != nil {
			f.tracer = tracer
		}
	}
}

// New builds a multimethod for domain. The extractor is required; the
// replacer may be nil, in which case converted dispatchables become the whole
// positional argument list of the backend call and kwargs are dropped.
func New(extractor Extractor, replacer Replacer, domain string, opts ...FunctionOption) (*Function, error) {
	if extractor == nil {
		return nil, fmt.Errorf("%w: argument extractor must be callable", ErrInvalidFunction)
	}
	if err := validateDomain(domain); err != nil {
		return nil, err
	}
	f := &Function{
		extractor:     extractor,
		replacer:      replacer,
		domain:        domain,
		defaultArgs:   Args{},
		defaultKwargs: Kwargs{},
		registry:      defaultRegistry,
		logger:        noopCallLogger{},
		tracer:        defaultTracer(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f, nil
}

// MustNew is New for package-level declarations; it panics on error.
func MustNew(extractor Extractor, replacer Replacer, domain string, opts ...FunctionOption) *Function {
	f, err := New(extractor, replacer, domain, opts...)
	if err != nil {
		panic(err)
	}
	return f
}

// Name returns the multimethod name, empty when unnamed.
func (f *Function) Name() string {
	if f == nil {
		return ""
	}
	return f.name
}

// Domain returns the domain the multimethod dispatches in.
func (f *Function) Domain() string {
	if f == nil {
		return ""
	}
	return f.domain
}

// DefaultArgs returns a copy of the positional defaults.
func (f *Function) DefaultArgs() Args {
	return f.defaultArgs.Clone()
}

// DefaultKwargs returns a copy of the keyword defaults.
func (f *Function) DefaultKwargs() Kwargs {
	return f.defaultKwargs.Clone()
}

func (f *Function) String() string {
	if f == nil || f.name == "" {
		return "<multimethod>"
	}
	return fmt.Sprintf("<multimethod '%s'>", f.name)
}

// Call dispatches args and kwargs to the first backend that handles them,
// falling back to the default implementation. Overrides attached to ctx
// apply to the call.
func (f *Function) Call(ctx context.Context, args Args, kwargs Kwargs) (any, error) {
	result, _, err := f.CallWithTrace(ctx, args, kwargs)
	return result, err
}

// CallWithTrace behaves like Call and also reports every backend attempt.
func (f *Function) CallWithTrace(ctx context.Context, args Args, kwargs Kwargs) (any, Trace, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	tr := newTrace(f)
	ctx, span := f.startSpan(ctx, tr)

	start := time.Now()
	result, err := f.invoke(ctx, args, kwargs, &tr)
	duration := time.Since(start)

	f.endSpan(span, tr, err)
	f.logger.LogCall(ctx, CallLogEvent{
		CallID:   tr.CallID,
		Function: f.name,
		Domain:   f.domain,
		Backend:  tr.Backend,
		Outcome:  tr.Outcome,
		Attempts: len(tr.Attempts),
		Duration: duration,
		Err:      err,
	})
	if err != nil {
		return nil, tr, err
	}
	return result, tr, nil
}

func (f *Function) invoke(ctx context.Context, args Args, kwargs Kwargs, tr *Trace) (any, error) {
	args = CanonicalizeArgs(args, f.defaultArgs)
	kwargs = CanonicalizeKwargs(kwargs, f.defaultKwargs)

	var (
		result  any
		callErr error
	)
	ret, err := forEachBackend(ctx, f.registry, f.domain, func(backend Backend, coerce bool) loopResult {
		out, attempt, err := f.try(ctx, backend, args, kwargs, coerce)
		tr.record(attempt)
		recordAttemptEvent(ctx, attempt)
		switch attempt.Outcome {
		case OutcomeHandled:
			result = out
			return loopBreak
		case OutcomeError:
			callErr = err
			return loopError
		default:
			return loopContinue
		}
	})
	if err != nil {
		tr.Outcome = OutcomeError
		return nil, err
	}

	switch ret {
	case loopBreak:
		tr.Outcome = OutcomeHandled
		return result, nil
	case loopError:
		tr.Outcome = OutcomeError
		return nil, callErr
	}

	if f.defaultImpl == nil {
		tr.Outcome = OutcomeNotImplemented
		return nil, fmt.Errorf("%w: %s in domain %q", ErrBackendNotImplemented, f, f.domain)
	}
	tr.Outcome = OutcomeDefault
	out, err := f.defaultImpl(ctx, args, kwargs)
	if err != nil {
		tr.Outcome = OutcomeError
		return nil, err
	}
	return out, nil
}

// try runs one backend: convert, dispatch, classify.
func (f *Function) try(ctx context.Context, backend Backend, args Args, kwargs Kwargs, coerce bool) (any, Attempt, error) {
	attempt := Attempt{Backend: backendName(backend), Coerce: coerce}

	newArgs, newKwargs, implemented, err := f.replaceDispatchables(backend, args, kwargs, coerce)
	if err != nil {
		return nil, attempt.failed(err), err
	}
	if !implemented {
		return nil, attempt.declined(StageConvert), nil
	}

	dispatcher, ok := backend.(Dispatcher)
	if !ok {
		err := wrapBackendError(f, backend, StageDispatch, ErrMissingDispatch)
		return nil, attempt.failed(err), err
	}
	out, err := dispatcher.Dispatch(ctx, f, newArgs, newKwargs)
	if err != nil {
		if isNotImplemented(err) {
			return nil, attempt.declined(StageDispatch), nil
		}
		err = wrapBackendError(f, backend, StageDispatch, err)
		return nil, attempt.failed(err), err
	}
	attempt.Outcome = OutcomeHandled
	return out, attempt, nil
}

// BoundFunction is a multimethod with its first positional argument fixed.
type BoundFunction func(ctx context.Context, args Args, kwargs Kwargs) (any, error)

// Bind returns a callable that prepends instance to the positional args.
func (f *Function) Bind(instance any) BoundFunction {
	return func(ctx context.Context, args Args, kwargs Kwargs) (any, error) {
		bound := make(Args, 0, len(args)+1)
		bound = append(bound, instance)
		bound = append(bound, args...)
		return f.Call(ctx, bound, kwargs)
	}
}
