package cache

import (
	"sync"
	"time"
)

// Item represents a cached item with expiration
type Item struct {
	Value      any
	Expiration int64
}

// Expired checks if the cache item has expired
func (item Item) Expired() bool {
	if item.Expiration == 0 {
		return false
	}
	return time.Now().UnixNano() > item.Expiration
}

// Cache is a thread-safe in-memory cache with expiration
type Cache struct {
	items             map[string]Item
	mu                sync.RWMutex
	defaultExpiration time.Duration
	cleanupInterval   time.Duration
	maxItems          int
	onEvicted         func(string, any)
	stop              chan struct{}
	stopOnce          sync.Once
}

// NewCache creates a new cache with the given default expiration and cleanup interval.
// maxItems <= 0 means unbounded.
func NewCache(defaultExpiration, cleanupInterval time.Duration, maxItems int) *Cache {
	cache := &Cache{
		items:             make(map[string]Item),
		defaultExpiration: defaultExpiration,
		cleanupInterval:   cleanupInterval,
		maxItems:          maxItems,
		stop:              make(chan struct{}),
	}

	// Start cleanup goroutine if cleanup interval > 0
	if cleanupInterval > 0 {
		go cache.startCleanupTimer()
	}

	return cache
}

// Set adds an item to the cache with the default expiration
func (c *Cache) Set(key string, value any) {
	c.SetWithExpiration(key, value, c.defaultExpiration)
}

// SetWithExpiration adds an item to the cache with a specific expiration time
func (c *Cache) SetWithExpiration(key string, value any, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.set(key, value, d)
}

func (c *Cache) set(key string, value any, d time.Duration) {
	var exp int64
	if d > 0 {
		exp = time.Now().Add(d).UnixNano()
	}

	// Check if we need to evict an item first
	if _, exists := c.items[key]; !exists && c.maxItems > 0 && len(c.items) >= c.maxItems {
		c.evictOldest()
	}

	c.items[key] = Item{
		Value:      value,
		Expiration: exp,
	}
}

// Update replaces the value under key with fn(current) atomically and refreshes
// its expiration. current is nil when the key is absent or expired.
func (c *Cache) Update(key string, fn func(current any) any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var current any
	if item, found := c.items[key]; found && !item.Expired() {
		current = item.Value
	}
	c.set(key, fn(current), c.defaultExpiration)
}

// Get retrieves an item from the cache
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, found := c.items[key]
	if !found {
		return nil, false
	}

	// Check if the item has expired
	if item.Expired() {
		return nil, false
	}

	return item.Value, true
}

// Delete removes an item from the cache
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if item, found := c.items[key]; found && c.onEvicted != nil {
		c.onEvicted(key, item.Value)
	}

	delete(c.items, key)
}

// Count returns the number of items in the cache (including expired items)
func (c *Cache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}

// SetOnEvicted sets the callback to be called when an item is evicted
func (c *Cache) SetOnEvicted(f func(string, any)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.onEvicted = f
}

// Close stops the cleanup goroutine.
func (c *Cache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// startCleanupTimer starts the cleanup ticker
func (c *Cache) startCleanupTimer() {
	ticker := time.NewTicker(c.cleanupInterval)
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

// deleteExpired deletes all expired items from the cache
func (c *Cache) deleteExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UnixNano()
	for k, v := range c.items {
		if v.Expiration > 0 && now > v.Expiration {
			if c.onEvicted != nil {
				c.onEvicted(k, v.Value)
			}

			delete(c.items, k)
		}
	}
}

// evictOldest removes the item closest to expiry. Items without expiration go last.
func (c *Cache) evictOldest() {
	var oldestKey string
	var oldestTime int64

	for k, v := range c.items {
		if oldestKey == "" || (v.Expiration != 0 && (oldestTime == 0 || v.Expiration < oldestTime)) {
			oldestKey = k
			oldestTime = v.Expiration
		}
	}

	if oldestKey == "" {
		return
	}
	if c.onEvicted != nil {
		c.onEvicted(oldestKey, c.items[oldestKey].Value)
	}
	delete(c.items, oldestKey)
}
