package dispatch

import (
	"context"
	"sync"
)

// LocalState is the override state of one domain inside one execution
// context. Installed values are never mutated; pushes clone them first.
type LocalState struct {
	skipped   []Backend
	preferred []BackendOptions
}

// Skipped returns a copy of the skipped backends.
func (s LocalState) Skipped() []Backend {
	if len(s.skipped) == 0 {
		return nil
	}
	return append([]Backend(nil), s.skipped...)
}

// Preferred returns a copy of the preferred entries in push order.
func (s LocalState) Preferred() []BackendOptions {
	if len(s.preferred) == 0 {
		return nil
	}
	return append([]BackendOptions(nil), s.preferred...)
}

// IsZero reports whether s carries no overrides.
func (s LocalState) IsZero() bool {
	return len(s.skipped) == 0 && len(s.preferred) == 0
}

// Equal reports whether s and other hold the same entries in the same order.
func (s LocalState) Equal(other LocalState) bool {
	if len(s.skipped) != len(other.skipped) || len(s.preferred) != len(other.preferred) {
		return false
	}
	for i := range s.skipped {
		if s.skipped[i] != other.skipped[i] {
			return false
		}
	}
	for i := range s.preferred {
		if s.preferred[i] != other.preferred[i] {
			return false
		}
	}
	return true
}

func (s LocalState) isSkipped(backend Backend) bool {
	return containsBackend(s.skipped, backend)
}

func (s LocalState) clone() LocalState {
	return LocalState{
		skipped:   s.Skipped(),
		preferred: s.Preferred(),
	}
}

// Overrides is the explicit execution-context object that stores the local
// override state of every domain. A store belongs to one goroutine at a
// time; use Fork to hand an independent copy to another goroutine.
type Overrides struct {
	mu      sync.Mutex
	domains map[string]*LocalState
}

// NewOverrides constructs an empty store.
func NewOverrides() *Overrides {
	return &Overrides{domains: map[string]*LocalState{}}
}

// Local returns the current state of domain. Missing domains report an empty
// state.
func (o *Overrides) Local(domain string) (LocalState, error) {
	if o == nil {
		return LocalState{}, ErrNoLocalState
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if current := o.domains[domain]; current != nil {
		return *current, nil
	}
	return LocalState{}, nil
}

// RestoreToken captures the state of one domain before a push. Resetting it
// reinstalls exactly that value regardless of later pushes.
type RestoreToken struct {
	overrides *Overrides
	domain    string
	previous  *LocalState
}

// Domain returns the domain the token belongs to.
func (t RestoreToken) Domain() string {
	return t.domain
}

// push clones the current state of domain, applies mutate to the clone,
// installs it, and returns a token for the previous value.
func (o *Overrides) push(domain string, mutate func(*LocalState)) (RestoreToken, error) {
	if o == nil {
		return RestoreToken{}, ErrNoLocalState
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.domains == nil {
		o.domains = map[string]*LocalState{}
	}

	previous := o.domains[domain]
	next := LocalState{}
	if previous != nil {
		next = previous.clone()
	}
	mutate(&next)
	o.domains[domain] = &next

	return RestoreToken{overrides: o, domain: domain, previous: previous}, nil
}

// Reset reinstalls the state captured by token.
func (o *Overrides) Reset(token RestoreToken) error {
	if o == nil || token.overrides != o {
		return ErrNoLocalState
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if token.previous == nil {
		delete(o.domains, token.domain)
		return nil
	}
	o.domains[token.domain] = token.previous
	return nil
}

// State is a point-in-time copy of every domain in a store.
type State struct {
	domains map[string]*LocalState
}

// Domain returns the captured state of domain.
func (s State) Domain(domain string) LocalState {
	if current := s.domains[domain]; current != nil {
		return *current
	}
	return LocalState{}
}

// Snapshot captures the current state of every domain.
func (o *Overrides) Snapshot() State {
	if o == nil {
		return State{}
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	out := State{domains: make(map[string]*LocalState, len(o.domains))}
	for domain, current := range o.domains {
		out.domains[domain] = current
	}
	return out
}

// Restore replaces the whole store with state. Tokens taken before the call
// keep working.
func (o *Overrides) Restore(state State) error {
	if o == nil {
		return ErrNoLocalState
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.domains = make(map[string]*LocalState, len(state.domains))
	for domain, current := range state.domains {
		o.domains[domain] = current
	}
	return nil
}

// Fork returns an independent store starting from the current state.
func (o *Overrides) Fork() *Overrides {
	forked := NewOverrides()
	_ = forked.Restore(o.Snapshot())
	return forked
}

type overridesKey struct{}

// WithOverrides attaches store to ctx.
func WithOverrides(ctx context.Context, store *Overrides) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, overridesKey{}, store)
}

// OverridesFrom returns the store attached to ctx.
func OverridesFrom(ctx context.Context) (*Overrides, bool) {
	if ctx == nil {
		return nil, false
	}
	store, ok := ctx.Value(overridesKey{}).(*Overrides)
	if !ok || store == nil {
		return nil, false
	}
	return store, true
}

// Attach returns ctx with a store attached, reusing an existing one.
func Attach(ctx context.Context) (context.Context, *Overrides) {
	if store, ok := OverridesFrom(ctx); ok {
		return ctx, store
	}
	store := NewOverrides()
	return WithOverrides(ctx, store), store
}

// localState resolves the state used by a call on ctx. Contexts without a
// store behave as if every domain had an empty state.
func localState(ctx context.Context, domain string) (LocalState, error) {
	store, ok := OverridesFrom(ctx)
	if !ok {
		return LocalState{}, nil
	}
	return store.Local(domain)
}
