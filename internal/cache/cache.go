package cache

import (
	"regexp"
	"sync"
	"time"
)

// Cache is an expiring key-value store for upstream API responses.
type Cache interface {
	// Set stores value under key until now+ttl. A non-positive ttl uses the
	// cache's default. An existing entry is overwritten unconditionally.
	Set(key string, value interface{}, ttl time.Duration)

	// Get returns the value for key if it has not expired. An expired entry
	// is evicted and reported as a miss; a value is never returned past its
	// expiry.
	Get(key string) (interface{}, bool)

	// Invalidate removes a single key.
	Invalidate(key string)

	// InvalidateAll removes every entry.
	InvalidateAll()

	// InvalidatePattern removes every key matching the regular expression.
	InvalidatePattern(pattern string) (int, error)
}

type entry struct {
	value     interface{}
	expiresAt time.Time
}

// MemoryCache is an in-process Cache guarded by a mutex so it can be shared
// across concurrent request handlers. Eviction is lazy: expired entries are
// dropped on read, not by a background sweeper.
type MemoryCache struct {
	mu         sync.Mutex
	entries    map[string]entry
	defaultTTL time.Duration
	now        func() time.Time
}

// NewMemoryCache creates a cache with the given default TTL.
func NewMemoryCache(defaultTTL time.Duration) *MemoryCache {
	return &MemoryCache{
		entries:    make(map[string]entry),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// WithClock overrides the time source. Tests use this to step through expiry.
func (c *MemoryCache) WithClock(now func() time.Time) *MemoryCache {
	c.now = now
	return c
}

func (c *MemoryCache) Set(key string, value interface{}, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{
		value:     value,
		expiresAt: c.now().Add(ttl),
	}
}

func (c *MemoryCache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}

	if c.now().After(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}

	return e.value, true
}

func (c *MemoryCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *MemoryCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

func (c *MemoryCache) InvalidatePattern(pattern string) (int, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.entries {
		if re.MatchString(key) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed, nil
}

// Len reports the number of entries currently held, including any expired
// entries not yet lazily evicted.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
