package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	dispatch "github.com/goliatone/go-dispatch"
	"github.com/goliatone/go-dispatch/pkg/activity"
	"github.com/goliatone/go-dispatch/pkg/logging"
)

var (
	// ErrInvalidConfig wraps every validation failure.
	ErrInvalidConfig = errors.New("config: invalid configuration")
	// ErrUnknownBackend reports a backend name missing from the catalog.
	ErrUnknownBackend = errors.New("config: unknown backend")
)

// Config describes registry wiring and ambient settings.
type Config struct {
	LogLevel string
	Activity ActivityConfig
	Domains  []DomainConfig
}

// ActivityConfig controls registry activity emission.
type ActivityConfig struct {
	Enabled bool
	Channel string
	ActorID string
}

// DomainConfig names the backends installed for one domain.
type DomainConfig struct {
	Name       string
	Global     string
	Registered []string
}

// Catalog resolves backend names used in configuration.
type Catalog map[string]dispatch.Backend

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		LogLevel: "info",
		Activity: ActivityConfig{Channel: activity.DefaultChannel},
	}
}

type fileConfig struct {
	LogLevel string       `toml:"log_level"`
	Activity fileActivity `toml:"activity"`
	Domains  []fileDomain `toml:"domain"`
}

type fileActivity struct {
	Enabled bool   `toml:"enabled"`
	Channel string `toml:"channel"`
	ActorID string `toml:"actor_id"`
}

type fileDomain struct {
	Name       string   `toml:"name"`
	Global     string   `toml:"global"`
	Registered []string `toml:"registered"`
}

// Load reads a TOML file, applies GO_DISPATCH_* environment overrides and
// validates the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load dispatch config: %w", err)
	}
	return Parse(data)
}

// Parse decodes TOML data on top of Default, then applies environment
// overrides and validates.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.Decode(string(data), &raw)
	if err != nil {
		return Config{}, fmt.Errorf("decode dispatch config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%w: unknown key %q", ErrInvalidConfig, undecoded[0].String())
	}

	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("activity", "enabled") {
		cfg.Activity.Enabled = raw.Activity.Enabled
	}
	if meta.IsDefined("activity", "channel") {
		cfg.Activity.Channel = strings.TrimSpace(raw.Activity.Channel)
	}
	if meta.IsDefined("activity", "actor_id") {
		cfg.Activity.ActorID = strings.TrimSpace(raw.Activity.ActorID)
	}
	for _, domain := range raw.Domains {
		cfg.Domains = append(cfg.Domains, DomainConfig{
			Name:       strings.TrimSpace(domain.Name),
			Global:     strings.TrimSpace(domain.Global),
			Registered: normalizeNames(domain.Registered),
		})
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks level names and domain entries.
func (c Config) Validate() error {
	if _, ok := logging.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.LogLevel)
	}
	seen := make(map[string]struct{}, len(c.Domains))
	for i, domain := range c.Domains {
		if domain.Name == "" {
			return fmt.Errorf("%w: domain %d has no name", ErrInvalidConfig, i)
		}
		if _, dup := seen[domain.Name]; dup {
			return fmt.Errorf("%w: domain %q declared twice", ErrInvalidConfig, domain.Name)
		}
		seen[domain.Name] = struct{}{}
		for _, name := range domain.Registered {
			if name == "" {
				return fmt.Errorf("%w: domain %q has an empty registered backend", ErrInvalidConfig, domain.Name)
			}
		}
	}
	return nil
}

// ActivityEmitterConfig converts the activity section for activity.NewEmitter.
func (c Config) ActivityEmitterConfig() activity.Config {
	return activity.Config{
		Enabled: c.Activity.Enabled,
		Channel: c.Activity.Channel,
		ActorID: c.Activity.ActorID,
	}
}

// Apply installs the configured backends on registry, resolving names
// through catalog. Domains are applied in declaration order and the first
// failure stops the walk.
func Apply(registry *dispatch.Registry, cfg Config, catalog Catalog) error {
	if registry == nil {
		return fmt.Errorf("%w: registry is nil", ErrInvalidConfig)
	}
	for _, domain := range cfg.Domains {
		if domain.Global != "" {
			backend, err := catalog.lookup(domain.Global)
			if err != nil {
				return err
			}
			if err := registry.SetGlobalBackend(domain.Name, backend); err != nil {
				return fmt.Errorf("domain %q global %q: %w", domain.Name, domain.Global, err)
			}
		}
		for _, name := range domain.Registered {
			backend, err := catalog.lookup(name)
			if err != nil {
				return err
			}
			if err := registry.RegisterBackend(domain.Name, backend); err != nil {
				return fmt.Errorf("domain %q registered %q: %w", domain.Name, name, err)
			}
		}
	}
	return nil
}

// NewRegistry builds a registry reporting to hooks and applies cfg to it.
func NewRegistry(cfg Config, catalog Catalog, hooks activity.Hooks) (*dispatch.Registry, error) {
	registry := dispatch.NewActivityRegistry(hooks, cfg.ActivityEmitterConfig())
	if err := Apply(registry, cfg, catalog); err != nil {
		return nil, err
	}
	return registry, nil
}

func (c Catalog) lookup(name string) (dispatch.Backend, error) {
	backend, ok := c[name]
	if !ok || backend == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
	return backend, nil
}

func normalizeNames(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, name := range in {
		out = append(out, strings.TrimSpace(name))
	}
	return out
}
