package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	dispatch "github.com/goliatone/go-dispatch"
	"github.com/goliatone/go-dispatch/pkg/activity"
)

type namedBackend struct {
	domain string
	name   string
}

func (b *namedBackend) Domain() string { return b.domain }
func (b *namedBackend) Name() string   { return b.name }

func (b *namedBackend) Dispatch(context.Context, *dispatch.Function, dispatch.Args, dispatch.Kwargs) (any, error) {
	return b.name, nil
}

const sample = `
log_level = "debug"

[activity]
enabled = true
channel = "registry"

[[domain]]
name = "numerics"
global = "numpy"
registered = ["dask", " sparse "]

[[domain]]
name = "strings"
registered = ["ascii"]
`

func TestParseAppliesFileValues(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.LogLevel != "debug" || !cfg.Activity.Enabled || cfg.Activity.Channel != "registry" {
		t.Fatalf("unexpected ambient config: %+v", cfg)
	}
	if len(cfg.Domains) != 2 {
		t.Fatalf("expected 2 domains, got %d", len(cfg.Domains))
	}
	numerics := cfg.Domains[0]
	if numerics.Global != "numpy" || len(numerics.Registered) != 2 || numerics.Registered[1] != "sparse" {
		t.Fatalf("unexpected numerics domain: %+v", numerics)
	}
}

func TestParseDefaultsWhenEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.LogLevel != "info" || cfg.Activity.Channel != activity.DefaultChannel || cfg.Activity.Enabled {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestParseEnvOverrides(t *testing.T) {
	t.Setenv("GO_DISPATCH_LOG_LEVEL", "warn")
	t.Setenv("GO_DISPATCH_ACTIVITY_ENABLED", "false")
	t.Setenv("GO_DISPATCH_ACTOR_ID", "loader")

	cfg, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.LogLevel != "warn" || cfg.Activity.Enabled || cfg.Activity.ActorID != "loader" {
		t.Fatalf("expected env overrides, got %+v", cfg)
	}
}

func TestParseEnvBoolLeavesFileValueWhenUnset(t *testing.T) {
	data := []byte("[activity]\nenabled = true\n")
	t.Setenv("GO_DISPATCH_ACTIVITY_ENABLED", "")
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !cfg.Activity.Enabled {
		t.Fatalf("empty env value must keep file setting")
	}

	t.Setenv("GO_DISPATCH_ACTIVITY_ENABLED", "0")
	cfg, err = Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Activity.Enabled {
		t.Fatalf("expected env to disable activity")
	}
}

func TestParseRejectsBadEnvBool(t *testing.T) {
	t.Setenv("GO_DISPATCH_ACTIVITY_ENABLED", "sometimes")
	if _, err := Parse(nil); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestValidateRejectsInvalidConfig(t *testing.T) {
	cases := map[string]string{
		"unknown key":      "colour = \"red\"\n",
		"bad level":        "log_level = \"loud\"\n",
		"missing name":     "[[domain]]\nglobal = \"numpy\"\n",
		"duplicate domain": "[[domain]]\nname = \"a\"\n[[domain]]\nname = \"a\"\n",
		"empty registered": "[[domain]]\nname = \"a\"\nregistered = [\"\"]\n",
	}
	for name, data := range cases {
		if _, err := Parse([]byte(data)); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%s: expected ErrInvalidConfig, got %v", name, err)
		}
	}
}

func TestLoadReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dispatch.toml")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Domains) != 2 {
		t.Fatalf("expected 2 domains, got %d", len(cfg.Domains))
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestNewRegistryAppliesCatalogAndEmits(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	catalog := Catalog{
		"numpy":  &namedBackend{domain: "numerics", name: "numpy"},
		"dask":   &namedBackend{domain: "numerics", name: "dask"},
		"sparse": &namedBackend{domain: "numerics", name: "sparse"},
		"ascii":  &namedBackend{domain: "strings", name: "ascii"},
	}
	capture := &activity.CaptureHook{}

	registry, err := NewRegistry(cfg, catalog, activity.Hooks{capture})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	if global, ok := registry.Global("numerics"); !ok || global != catalog["numpy"] {
		t.Fatalf("expected numpy global, got %v", global)
	}
	registered := registry.Registered("numerics")
	if len(registered) != 2 || registered[0] != catalog["dask"] || registered[1] != catalog["sparse"] {
		t.Fatalf("unexpected registered order: %v", registered)
	}

	events := capture.Events()
	if len(events) != 4 {
		t.Fatalf("expected 4 activity events, got %d", len(events))
	}
	if events[0].Verb != activity.VerbBackendGlobalSet || events[0].Channel != "registry" {
		t.Fatalf("unexpected first event: %+v", events[0])
	}
}

func TestApplyReportsUnknownAndMismatchedBackends(t *testing.T) {
	cfg := Config{LogLevel: "info", Domains: []DomainConfig{{Name: "numerics", Global: "missing"}}}
	if err := Apply(dispatch.NewRegistry(), cfg, Catalog{}); !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("expected ErrUnknownBackend, got %v", err)
	}

	cfg.Domains[0].Global = "ascii"
	catalog := Catalog{"ascii": &namedBackend{domain: "strings", name: "ascii"}}
	if err := Apply(dispatch.NewRegistry(), cfg, catalog); !errors.Is(err, dispatch.ErrInvalidDomain) {
		t.Fatalf("expected ErrInvalidDomain, got %v", err)
	}
}
