package dispatch

import "github.com/goliatone/go-dispatch/pkg/activity"

// NewActivityRegistry builds a registry that reports mutations to hooks.
// Nil hooks are dropped; an empty set disables emission.
func NewActivityRegistry(hooks activity.Hooks, cfg activity.Config, opts ...RegistryOption) *Registry {
	emitter := activity.NewEmitter(cloneActivityHooks(hooks), cfg)
	return NewRegistry(append([]RegistryOption{WithRegistryActivity(emitter)}, opts...)...)
}

func cloneActivityHooks(hooks activity.Hooks) activity.Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make([]activity.ActivityHook, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		normalized = append(normalized, hook)
	}
	if len(normalized) == 0 {
		return nil
	}
	return activity.Hooks(normalized)
}
