package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// envConfig holds GO_DISPATCH_* overrides. Unset or empty values leave the
// file configuration untouched.
type envConfig struct {
	LogLevel        string `env:"GO_DISPATCH_LOG_LEVEL"`
	ActivityEnabled *bool  `env:"GO_DISPATCH_ACTIVITY_ENABLED"`
	ActivityChannel string `env:"GO_DISPATCH_ACTIVITY_CHANNEL"`
	ActorID         string `env:"GO_DISPATCH_ACTOR_ID"`
}

// ParseEnv parses environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	var overrides envConfig
	if err := ParseEnv(&overrides); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if level := strings.TrimSpace(overrides.LogLevel); level != "" {
		c.LogLevel = level
	}
	if overrides.ActivityEnabled != nil {
		c.Activity.Enabled = *overrides.ActivityEnabled
	}
	if channel := strings.TrimSpace(overrides.ActivityChannel); channel != "" {
		c.Activity.Channel = channel
	}
	if actor := strings.TrimSpace(overrides.ActorID); actor != "" {
		c.Activity.ActorID = actor
	}
	return nil
}
