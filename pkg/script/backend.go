package script

import (
	"context"
	"fmt"
	"strings"
	"sync"

	dispatch "github.com/goliatone/go-dispatch"
)

// NotImplemented is bound in every environment. An expression that evaluates
// to it declines the call or conversion.
const NotImplemented = "dispatch:not-implemented"

const notImplementedVar = "NotImplemented"

// BackendOption configures a script backend.
type BackendOption func(*Backend)

// WithBackendName names the backend in logs and traces.
func WithBackendName(name string) BackendOption {
	return func(b *Backend) {
		b.name = strings.TrimSpace(name)
	}
}

// Backend dispatches multimethods to expressions keyed by function name.
// Expressions see args, kwargs and name.
type Backend struct {
	domain string
	name   string
	engine Engine

	mu    sync.RWMutex
	impls map[string]string
}

// ConvertingBackend is a Backend whose dispatchables are converted by an
// expression before dispatch. The expression sees value, kind (the
// dispatch type), coerce and coercible.
type ConvertingBackend struct {
	*Backend
	convert string
}

// NewBackend constructs an empty script backend for domain.
func NewBackend(domain string, engine Engine, opts ...BackendOption) (*Backend, error) {
	if strings.TrimSpace(domain) == "" {
		return nil, fmt.Errorf("%w: domain must not be empty", dispatch.ErrInvalidDomain)
	}
	if engine == nil {
		return nil, fmt.Errorf("%w: script engine is nil", dispatch.ErrInvalidBackend)
	}
	b := &Backend{
		domain: domain,
		engine: engine,
		impls:  map[string]string{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b, nil
}

// NewConvertingBackend constructs a script backend with a conversion
// expression.
func NewConvertingBackend(domain string, engine Engine, convert string, opts ...BackendOption) (*ConvertingBackend, error) {
	if strings.TrimSpace(convert) == "" {
		return nil, fmt.Errorf("%w: %w", dispatch.ErrInvalidBackend, ErrEmptyExpression)
	}
	b, err := NewBackend(domain, engine, opts...)
	if err != nil {
		return nil, err
	}
	return &ConvertingBackend{Backend: b, convert: convert}, nil
}

// Domain implements dispatch.Backend.
func (b *Backend) Domain() string {
	return b.domain
}

// Name implements dispatch.Named.
func (b *Backend) Name() string {
	if b.name != "" {
		return b.name
	}
	return "script:" + b.domain
}

// Implement binds expression to the multimethod named function.
func (b *Backend) Implement(function, expression string) error {
	if strings.TrimSpace(function) == "" {
		return fmt.Errorf("%w: function name must not be empty", dispatch.ErrInvalidFunction)
	}
	if strings.TrimSpace(expression) == "" {
		return ErrEmptyExpression
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.impls[function] = expression
	return nil
}

// Functions returns the names with a bound expression.
func (b *Backend) Functions() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	names := make([]string, 0, len(b.impls))
	for name := range b.impls {
		names = append(names, name)
	}
	return names
}

// Dispatch implements dispatch.Dispatcher.
func (b *Backend) Dispatch(_ context.Context, fn *dispatch.Function, args dispatch.Args, kwargs dispatch.Kwargs) (any, error) {
	b.mu.RLock()
	expression, ok := b.impls[fn.Name()]
	b.mu.RUnlock()
	if !ok {
		return nil, dispatch.ErrNotImplemented
	}
	out, err := b.engine.Evaluate(map[string]any{
		"args":            []any(args.Clone()),
		"kwargs":          map[string]any(kwargs.Clone()),
		"name":            fn.Name(),
		notImplementedVar: NotImplemented,
	}, expression)
	if err != nil {
		return nil, err
	}
	if declined(out) {
		return nil, dispatch.ErrNotImplemented
	}
	return out, nil
}

// Convert implements dispatch.Converter.
func (b *ConvertingBackend) Convert(dispatchables []dispatch.Dispatchable, coerce bool) ([]any, error) {
	out := make([]any, 0, len(dispatchables))
	for _, d := range dispatchables {
		value, err := b.engine.Evaluate(map[string]any{
			"value":           d.Value,
			"kind":            d.Type,
			"coerce":          coerce,
			"coercible":       d.Coercible,
			notImplementedVar: NotImplemented,
		}, b.convert)
		if err != nil {
			return nil, err
		}
		if declined(value) {
			return nil, dispatch.ErrNotImplemented
		}
		out = append(out, value)
	}
	return out, nil
}

// Replacer builds a dispatch.Replacer from an expression over args, kwargs
// and replacements. The expression must produce [args, kwargs].
func Replacer(engine Engine, expression string) (dispatch.Replacer, error) {
	if engine == nil {
		return nil, fmt.Errorf("%w: script engine is nil", dispatch.ErrInvalidFunction)
	}
	if strings.TrimSpace(expression) == "" {
		return nil, ErrEmptyExpression
	}
	return dispatch.DynamicReplacer(func(args dispatch.Args, kwargs dispatch.Kwargs, replacements []any) (any, error) {
		return engine.Evaluate(map[string]any{
			"args":         []any(args),
			"kwargs":       map[string]any(kwargs),
			"replacements": replacements,
		}, expression)
	}), nil
}

func declined(value any) bool {
	marker, ok := value.(string)
	return ok && marker == NotImplemented
}
