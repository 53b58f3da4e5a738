package script

import "sync"

// ProgramCache stores compiled programs keyed by expression.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// MapCache is an unbounded ProgramCache safe for concurrent use.
type MapCache struct {
	programs sync.Map
}

// NewMapCache constructs an empty cache.
func NewMapCache() *MapCache {
	return &MapCache{}
}

// Get implements ProgramCache.
func (c *MapCache) Get(key string) (any, bool) {
	return c.programs.Load(key)
}

// Set implements ProgramCache.
func (c *MapCache) Set(key string, value any) {
	c.programs.Store(key, value)
}
