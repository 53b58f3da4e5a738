package dispatch

import (
	"context"
	"sync"
)

// callLog records backend names in call order.
type callLog struct {
	mu    sync.Mutex
	names []string
}

func (l *callLog) add(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.names = append(l.names, name)
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.names...)
}

type fakeBackend struct {
	domain  string
	name    string
	decline bool
	err     error
	log     *callLog
	seen    []Args
	kwargs  []Kwargs
}

func newFake(domain, name string, log *callLog) *fakeBackend {
	return &fakeBackend{domain: domain, name: name, log: log}
}

func (b *fakeBackend) Domain() string { return b.domain }
func (b *fakeBackend) Name() string   { return b.name }

func (b *fakeBackend) Dispatch(_ context.Context, _ *Function, args Args, kwargs Kwargs) (any, error) {
	if b.log != nil {
		b.log.add(b.name)
	}
	b.seen = append(b.seen, args.Clone())
	b.kwargs = append(b.kwargs, kwargs.Clone())
	if b.decline {
		return nil, ErrNotImplemented
	}
	if b.err != nil {
		return nil, b.err
	}
	return b.name, nil
}

type convertingBackend struct {
	*fakeBackend
	convert ConvertFunc
	coerced []bool
}

func (b *convertingBackend) Convert(dispatchables []Dispatchable, coerce bool) ([]any, error) {
	b.coerced = append(b.coerced, coerce)
	return b.convert(dispatchables, coerce)
}

// dispatchOnly has no dispatch hook.
type dispatchOnly struct{ domain string }

func (d *dispatchOnly) Domain() string { return d.domain }

func firstArg(args Args, _ Kwargs) ([]any, error) {
	if len(args) == 0 {
		return nil, nil
	}
	return []any{args[0]}, nil
}

func newTestFunction(registry *Registry, opts ...FunctionOption) *Function {
	base := []FunctionOption{WithName("op"), WithRegistry(registry)}
	return MustNew(AllOfType("number", firstArg), nil, "test", append(base, opts...)...)
}

func defaultImpl(value any) FunctionOption {
	return WithDefault(func(context.Context, Args, Kwargs) (any, error) {
		return value, nil
	})
}

func equalNames(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
