package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/goliatone/go-dispatch/pkg/activity"
)

type valueBackend struct{ domain string }

func (v valueBackend) Domain() string { return v.domain }

type sliceBackend []string

func (sliceBackend) Domain() string { return "test" }

// anyBackend has a comparable type whose value may not be.
type anyBackend struct {
	domain string
	extra  any
}

func (a anyBackend) Domain() string { return a.domain }

func TestRegistryGlobalAndRegistered(t *testing.T) {
	registry := NewRegistry()
	g := newFake("test", "g", nil)
	r1 := newFake("test", "r1", nil)
	r2 := newFake("test", "r2", nil)

	if err := registry.SetGlobalBackend("test", g); err != nil {
		t.Fatalf("set global: %v", err)
	}
	for _, backend := range []Backend{r1, r2, r1} {
		if err := registry.RegisterBackend("test", backend); err != nil {
			t.Fatalf("register: %v", err)
		}
	}

	if got, ok := registry.Global("test"); !ok || got != g {
		t.Fatalf("expected global g, got %v", got)
	}
	registered := registry.Registered("test")
	if len(registered) != 3 || registered[0] != r1 || registered[1] != r2 || registered[2] != r1 {
		t.Fatalf("expected duplicates kept in order, got %v", registered)
	}
	registered[0] = r2
	if registry.Registered("test")[0] != r1 {
		t.Fatalf("Registered must return a copy")
	}
	if domains := registry.Domains(); len(domains) != 1 || domains[0] != "test" {
		t.Fatalf("unexpected domains %v", domains)
	}
	if _, ok := registry.Global("other"); ok {
		t.Fatalf("expected no global for unknown domain")
	}
}

func TestRegistrySetGlobalOverwrites(t *testing.T) {
	registry := NewRegistry()
	first := newFake("test", "first", nil)
	second := newFake("test", "second", nil)
	_ = registry.SetGlobalBackend("test", first)
	_ = registry.SetGlobalBackend("test", second)
	if got, _ := registry.Global("test"); got != second {
		t.Fatalf("expected second, got %v", got)
	}
}

func TestRegistryValidation(t *testing.T) {
	registry := NewRegistry()
	var nilFake *fakeBackend

	cases := []struct {
		name    string
		domain  string
		backend Backend
		want    error
	}{
		{"empty domain", "", newFake("test", "b", nil), ErrInvalidDomain},
		{"domain mismatch", "other", newFake("test", "b", nil), ErrInvalidDomain},
		{"backend without domain", "test", newFake("", "b", nil), ErrInvalidDomain},
		{"nil backend", "test", nil, ErrInvalidBackend},
		{"nil pointer backend", "test", nilFake, ErrInvalidBackend},
		{"non comparable backend", "test", sliceBackend{"a"}, ErrInvalidBackend},
		{"non comparable dynamic value", "test", anyBackend{domain: "test", extra: []int{1}}, ErrInvalidBackend},
	}
	for _, tc := range cases {
		if err := registry.SetGlobalBackend(tc.domain, tc.backend); !errors.Is(err, tc.want) {
			t.Fatalf("%s: SetGlobalBackend got %v want %v", tc.name, err, tc.want)
		}
		if err := registry.RegisterBackend(tc.domain, tc.backend); !errors.Is(err, tc.want) {
			t.Fatalf("%s: RegisterBackend got %v want %v", tc.name, err, tc.want)
		}
	}
	if len(registry.Domains()) != 0 {
		t.Fatalf("failed registrations must not create domains")
	}
	if err := registry.RegisterBackend("test", valueBackend{domain: "test"}); err != nil {
		t.Fatalf("comparable value backends are allowed: %v", err)
	}
	if err := registry.RegisterBackend("test", anyBackend{domain: "test", extra: 1}); err != nil {
		t.Fatalf("interface fields holding comparable values are allowed: %v", err)
	}
}

func TestRegistryConcurrentRegistration(t *testing.T) {
	registry := NewRegistry()
	fn := newTestFunction(registry, defaultImpl("default"))
	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = registry.RegisterBackend("test", &valueFake{domain: "test", name: fmt.Sprintf("b%d", i)})
			_ = registry.Registered("test")
		}(i)
		go func() {
			defer wg.Done()
			if _, err := fn.Call(context.Background(), Args{1}, nil); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("call during registration: %v", err)
	}
	if got := len(registry.Registered("test")); got != 32 {
		t.Fatalf("expected 32 registrations, got %d", got)
	}
}

// valueFake is a stateless backend safe to share across goroutines.
type valueFake struct {
	domain string
	name   string
}

func (v *valueFake) Domain() string { return v.domain }
func (v *valueFake) Name() string   { return v.name }

func (v *valueFake) Dispatch(context.Context, *Function, Args, Kwargs) (any, error) {
	return v.name, nil
}

func TestActivityRegistryEmitsEvents(t *testing.T) {
	capture := &activity.CaptureHook{}
	registry := NewActivityRegistry(activity.Hooks{nil, capture}, activity.Config{Enabled: true})

	_ = registry.SetGlobalBackend("test", newFake("test", "g", nil))
	_ = registry.RegisterBackend("test", newFake("test", "r", nil))
	_ = registry.RegisterBackend("other", newFake("test", "bad", nil))

	events := capture.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Verb != activity.VerbBackendGlobalSet || events[0].ObjectID != "test" || events[0].Metadata["backend"] != "g" {
		t.Fatalf("unexpected global event %+v", events[0])
	}
	if events[1].Verb != activity.VerbBackendRegistered || events[1].Metadata["position"] != 0 {
		t.Fatalf("unexpected register event %+v", events[1])
	}
	if events[1].Channel != activity.DefaultChannel {
		t.Fatalf("expected default channel, got %q", events[1].Channel)
	}
}

func TestActivityRegistryWithoutHooksIsSilent(t *testing.T) {
	registry := NewActivityRegistry(nil, activity.Config{Enabled: true})
	if err := registry.SetGlobalBackend("test", newFake("test", "g", nil)); err != nil {
		t.Fatalf("set global: %v", err)
	}
}
