package cache

import (
	"sync"
	"sync/atomic"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt int64
	written   int64
}

func (e entry[V]) expired(now int64) bool {
	return e.expiresAt > 0 && now > e.expiresAt
}

// Options configures a Cache
type Options struct {
	// DefaultExpiration applies to Set; zero means entries never expire
	DefaultExpiration time.Duration
	// CleanupInterval is how often expired entries are purged; zero disables the janitor
	CleanupInterval time.Duration
	// MaxItems bounds the cache size; zero means unbounded
	MaxItems int
}

// Stats is a point-in-time view of cache usage
type Stats struct {
	Hits   uint64
	Misses uint64
	Items  int
}

// Cache is a typed, thread-safe in-memory cache with per-entry expiry.
// When MaxItems is reached the oldest write is evicted.
type Cache[V any] struct {
	mu        sync.RWMutex
	entries   map[string]entry[V]
	ttl       time.Duration
	maxItems  int
	onEvicted func(string, V)
	now       func() time.Time

	hits   atomic.Uint64
	misses atomic.Uint64

	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a cache and starts its janitor if configured
func New[V any](opts Options) *Cache[V] {
	c := &Cache[V]{
		entries:  make(map[string]entry[V]),
		ttl:      opts.DefaultExpiration,
		maxItems: opts.MaxItems,
		now:      time.Now,
		stop:     make(chan struct{}),
	}

	if opts.CleanupInterval > 0 {
		go c.janitor(opts.CleanupInterval)
	}

	return c
}

// Set stores value under key with the default expiration
func (c *Cache[V]) Set(key string, value V) {
	c.SetWithExpiration(key, value, c.ttl)
}

// SetWithExpiration stores value under key for d; d <= 0 never expires
func (c *Cache[V]) SetWithExpiration(key string, value V, d time.Duration) {
	now := c.now().UnixNano()
	var exp int64
	if d > 0 {
		exp = now + int64(d)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && c.maxItems > 0 && len(c.entries) >= c.maxItems {
		c.evictOldest()
	}

	c.entries[key] = entry[V]{value: value, expiresAt: exp, written: now}
}

// Get returns the live value stored under key
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, found := c.entries[key]
	c.mu.RUnlock()

	if !found || e.expired(c.now().UnixNano()) {
		c.misses.Add(1)
		var zero V
		return zero, false
	}

	c.hits.Add(1)
	return e.value, true
}

// Delete removes key
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, found := c.entries[key]; found && c.onEvicted != nil {
		c.onEvicted(key, e.value)
	}
	delete(c.entries, key)
}

// Count returns the number of stored entries, expired ones included
func (c *Cache[V]) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Stats returns hit and miss counters since creation
func (c *Cache[V]) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Items:  c.Count(),
	}
}

// SetOnEvicted registers a callback for deleted, expired and evicted entries
func (c *Cache[V]) SetOnEvicted(f func(string, V)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.onEvicted = f
}

// Close stops the janitor
func (c *Cache[V]) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Cache[V]) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.deleteExpired()
		case <-c.stop:
			return
		}
	}
}

func (c *Cache[V]) deleteExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now().UnixNano()
	for k, e := range c.entries {
		if e.expired(now) {
			if c.onEvicted != nil {
				c.onEvicted(k, e.value)
			}
			delete(c.entries, k)
		}
	}
}

// evictOldest drops the entry with the oldest write. Caller holds the lock.
func (c *Cache[V]) evictOldest() {
	var oldestKey string
	var oldest int64
	first := true

	for k, e := range c.entries {
		if first || e.written < oldest {
			oldestKey = k
			oldest = e.written
			first = false
		}
	}

	if first {
		return
	}

	if c.onEvicted != nil {
		c.onEvicted(oldestKey, c.entries[oldestKey].value)
	}
	delete(c.entries, oldestKey)
}
