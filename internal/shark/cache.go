package shark

import (
	"sync"
	"time"
)

// SettingsCache holds the last settings document fetched from the server.
// The document is any decoded JSON value, null included. Writers replace the
// value whole; fetchedAt never moves backwards.
type SettingsCache struct {
	mu        sync.RWMutex
	value     any
	fetchedAt time.Time
}

// Store replaces the cached document
func (c *SettingsCache) Store(value any, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.value = cloneJSON(value)
	if at.After(c.fetchedAt) {
		c.fetchedAt = at
	}
}

// Snapshot returns a copy of the cached document and when it was fetched.
// A zero time means nothing was fetched yet; a nil value with a non-zero
// time is a fetched JSON null.
func (c *SettingsCache) Snapshot() (any, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneJSON(c.value), c.fetchedAt
}

// FetchedAt returns the time of the last successful fetch, zero if none
func (c *SettingsCache) FetchedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fetchedAt
}

// cloneJSON deep-copies the objects and arrays of a decoded JSON value
func cloneJSON(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneJSON(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneJSON(e)
		}
		return out
	default:
		return v
	}
}
