package dispatch

import (
	"context"
	"fmt"
	"sync"
)

// ScopeKind identifies what a scope installed.
type ScopeKind string

const (
	ScopePrefer ScopeKind = "prefer"
	ScopeSkip   ScopeKind = "skip"
)

// PreferOption configures a prefer scope.
type PreferOption func(*BackendOptions)

// WithCoerce forces conversion of dispatchables for the preferred backend.
// A coerced entry also ends the search when it declines.
func WithCoerce(coerce bool) PreferOption {
	return func(opts *BackendOptions) {
		opts.Coerce = coerce
	}
}

// WithOnly ends the search after the preferred backend.
func WithOnly(only bool) PreferOption {
	return func(opts *BackendOptions) {
		opts.Only = only
	}
}

// Scope is an installed override. Close restores the state that was current
// before the scope was entered.
type Scope struct {
	kind    ScopeKind
	options BackendOptions
	token   RestoreToken
	once    sync.Once
	err     error
}

// Kind reports whether the scope prefers or skips its backend.
func (s *Scope) Kind() ScopeKind {
	return s.kind
}

// Options returns the entry the scope installed. Skip scopes only set Backend.
func (s *Scope) Options() BackendOptions {
	return s.options
}

// Domain returns the domain the scope applies to.
func (s *Scope) Domain() string {
	return s.token.domain
}

// Close releases the scope. Closing twice is a no-op.
func (s *Scope) Close() error {
	if s == nil {
		return nil
	}
	s.once.Do(func() {
		s.err = s.token.overrides.Reset(s.token)
	})
	return s.err
}

// Prefer installs backend as the newest preferred entry of its domain.
func (o *Overrides) Prefer(backend Backend, opts ...PreferOption) (*Scope, error) {
	domain, err := backendDomain(backend)
	if err != nil {
		return nil, err
	}
	entry := BackendOptions{Backend: backend}
	for _, opt := range opts {
		if opt != nil {
			opt(&entry)
		}
	}
	token, err := o.push(domain, func(state *LocalState) {
		state.preferred = append(state.preferred, entry)
	})
	if err != nil {
		return nil, err
	}
	return &Scope{kind: ScopePrefer, options: entry, token: token}, nil
}

// Skip marks backend as skipped in its domain.
func (o *Overrides) Skip(backend Backend) (*Scope, error) {
	domain, err := backendDomain(backend)
	if err != nil {
		return nil, err
	}
	token, err := o.push(domain, func(state *LocalState) {
		state.skipped = append(state.skipped, backend)
	})
	if err != nil {
		return nil, err
	}
	return &Scope{kind: ScopeSkip, options: BackendOptions{Backend: backend}, token: token}, nil
}

// Prefer enters a prefer scope on the store attached to ctx.
func Prefer(ctx context.Context, backend Backend, opts ...PreferOption) (*Scope, error) {
	store, ok := OverridesFrom(ctx)
	if !ok {
		return nil, ErrNoLocalState
	}
	return store.Prefer(backend, opts...)
}

// Skip enters a skip scope on the store attached to ctx.
func Skip(ctx context.Context, backend Backend) (*Scope, error) {
	store, ok := OverridesFrom(ctx)
	if !ok {
		return nil, ErrNoLocalState
	}
	return store.Skip(backend)
}

// WithPreferred runs fn with backend preferred, attaching a store to ctx when
// needed. The scope is released however fn returns.
func WithPreferred(ctx context.Context, backend Backend, fn func(context.Context) error, opts ...PreferOption) (err error) {
	if fn == nil {
		return fmt.Errorf("%w: scope body is nil", ErrInvalidFunction)
	}
	ctx, store := Attach(ctx)
	scope, err := store.Prefer(backend, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := scope.Close(); err == nil {
			err = closeErr
		}
	}()
	return fn(ctx)
}

// WithSkipped runs fn with backend skipped, attaching a store to ctx when
// needed. The scope is released however fn returns.
func WithSkipped(ctx context.Context, backend Backend, fn func(context.Context) error) (err error) {
	if fn == nil {
		return fmt.Errorf("%w: scope body is nil", ErrInvalidFunction)
	}
	ctx, store := Attach(ctx)
	scope, err := store.Skip(backend)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := scope.Close(); err == nil {
			err = closeErr
		}
	}()
	return fn(ctx)
}
