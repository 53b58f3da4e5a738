package dispatch

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/goliatone/go-dispatch/pkg/activity"
)

// Registry holds the process-wide backends for each domain: an optional
// global backend and an ordered list of registered backends.
//
// Reads load an immutable snapshot and never lock. Writers serialize on a
// mutex, copy the snapshot, and publish the copy atomically.
type Registry struct {
	mu      sync.Mutex
	snap    atomic.Pointer[registrySnapshot]
	emitter *activity.Emitter
}

type registrySnapshot struct {
	domains map[string]globalState
}

// globalState is never mutated once published.
type globalState struct {
	global     Backend
	registered []Backend
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryActivity emits activity events for registry mutations.
func WithRegistryActivity(emitter *activity.Emitter) RegistryOption {
	return func(r *Registry) {
		r.emitter = emitter
	}
}

// NewRegistry constructs an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	r.snap.Store(&registrySnapshot{domains: map[string]globalState{}})
	return r
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry used by functions that
// were not given one explicitly.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// SetGlobalBackend sets the global backend for domain on the default registry.
func SetGlobalBackend(domain string, backend Backend) error {
	return defaultRegistry.SetGlobalBackend(domain, backend)
}

// RegisterBackend appends backend to domain on the default registry.
func RegisterBackend(domain string, backend Backend) error {
	return defaultRegistry.RegisterBackend(domain, backend)
}

// SetGlobalBackend overwrites the global slot for domain. It does not check
// the registered list for duplicates.
func (r *Registry) SetGlobalBackend(domain string, backend Backend) error {
	if err := checkRegistration(domain, backend); err != nil {
		return err
	}
	r.update(domain, func(state *globalState) {
		state.global = backend
	})
	r.emit(activity.BuildBackendGlobalSetEvent(activity.BackendEventInput{
		Domain:  domain,
		Backend: backendName(backend),
	}))
	return nil
}

// RegisterBackend appends backend to the registered list of domain.
// Duplicates are kept and tried once per registration.
func (r *Registry) RegisterBackend(domain string, backend Backend) error {
	if err := checkRegistration(domain, backend); err != nil {
		return err
	}
	position := 0
	r.update(domain, func(state *globalState) {
		state.registered = append(state.registered, backend)
		position = len(state.registered) - 1
	})
	r.emit(activity.BuildBackendRegisteredEvent(activity.BackendEventInput{
		Domain:   domain,
		Backend:  backendName(backend),
		Position: position,
	}))
	return nil
}

// Global returns the global backend of domain.
func (r *Registry) Global(domain string) (Backend, bool) {
	state := r.load(domain)
	return state.global, state.global != nil
}

// Registered returns a copy of the registered backends of domain.
func (r *Registry) Registered(domain string) []Backend {
	state := r.load(domain)
	if len(state.registered) == 0 {
		return nil
	}
	return append([]Backend(nil), state.registered...)
}

// Domains returns the domains with registry state, sorted.
func (r *Registry) Domains() []string {
	snap := r.snapshot()
	names := make([]string, 0, len(snap.domains))
	for name := range snap.domains {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) load(domain string) globalState {
	return r.snapshot().domains[domain]
}

func (r *Registry) snapshot() *registrySnapshot {
	if r == nil {
		return &registrySnapshot{}
	}
	if snap := r.snap.Load(); snap != nil {
		return snap
	}
	return &registrySnapshot{}
}

func (r *Registry) update(domain string, mutate func(*globalState)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.snapshot()
	next := &registrySnapshot{domains: make(map[string]globalState, len(old.domains)+1)}
	for name, state := range old.domains {
		next.domains[name] = state
	}

	current := old.domains[domain]
	state := globalState{
		global:     current.global,
		registered: append([]Backend(nil), current.registered...),
	}
	mutate(&state)
	next.domains[domain] = state

	r.snap.Store(next)
}

func (r *Registry) emit(event activity.Event) {
	if r.emitter == nil {
		return
	}
	_ = r.emitter.Emit(context.Background(), event)
}

func checkRegistration(domain string, backend Backend) error {
	if err := validateDomain(domain); err != nil {
		return err
	}
	own, err := backendDomain(backend)
	if err != nil {
		return err
	}
	if own != domain {
		return fmt.Errorf("%w: backend %s belongs to %q, not %q", ErrInvalidDomain, backendName(backend), own, domain)
	}
	return nil
}
