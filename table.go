package dispatch

import (
	"context"
	"fmt"
	"sync"
)

// ConvertFunc is the function form of Converter.
type ConvertFunc func(dispatchables []Dispatchable, coerce bool) ([]any, error)

// Table is a backend that maps multimethods to Go implementations. Functions
// without an implementation are declined.
type Table struct {
	domain string
	name   string

	mu    sync.RWMutex
	impls map[*Function]DefaultFunc
}

// ConvertingTable is a Table that also exposes a conversion hook.
type ConvertingTable struct {
	*Table
	convert ConvertFunc
}

// TableOption configures a Table.
type TableOption func(*Table)

// WithTableName names the backend in logs and traces.
func WithTableName(name string) TableOption {
	return func(t *Table) {
		t.name = name
	}
}

// NewTable constructs an empty implementation table for domain.
func NewTable(domain string, opts ...TableOption) (*Table, error) {
	if err := validateDomain(domain); err != nil {
		return nil, err
	}
	t := &Table{
		domain: domain,
		impls:  map[*Function]DefaultFunc{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t, nil
}

// NewConvertingTable constructs a table whose dispatchables pass through
// convert before dispatch.
func NewConvertingTable(domain string, convert ConvertFunc, opts ...TableOption) (*ConvertingTable, error) {
	if convert == nil {
		return nil, fmt.Errorf("%w: convert hook is nil", ErrInvalidBackend)
	}
	table, err := NewTable(domain, opts...)
	if err != nil {
		return nil, err
	}
	return &ConvertingTable{Table: table, convert: convert}, nil
}

// Domain implements Backend.
func (t *Table) Domain() string {
	return t.domain
}

// Name implements Named.
func (t *Table) Name() string {
	if t.name != "" {
		return t.name
	}
	return "table:" + t.domain
}

// Implement registers impl for fn. Functions from other domains are rejected.
func (t *Table) Implement(fn *Function, impl DefaultFunc) error {
	if fn == nil || impl == nil {
		return fmt.Errorf("%w: function and implementation are required", ErrInvalidFunction)
	}
	if fn.Domain() != t.domain {
		return fmt.Errorf("%w: %s belongs to %q, table serves %q", ErrInvalidDomain, fn, fn.Domain(), t.domain)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.impls[fn] = impl
	return nil
}

// Implements reports whether fn has an implementation.
func (t *Table) Implements(fn *Function) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.impls[fn]
	return ok
}

// Dispatch implements Dispatcher.
func (t *Table) Dispatch(ctx context.Context, fn *Function, args Args, kwargs Kwargs) (any, error) {
	t.mu.RLock()
	impl := t.impls[fn]
	t.mu.RUnlock()
	if impl == nil {
		return nil, ErrNotImplemented
	}
	return impl(ctx, args, kwargs)
}

// Convert implements Converter.
func (t *ConvertingTable) Convert(dispatchables []Dispatchable, coerce bool) ([]any, error) {
	return t.convert(dispatchables, coerce)
}
