// Package cache memoizes listing-source responses keyed by a canonical
// query fingerprint, bounding redundant network calls for repeated
// searches.
package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/flipscout/flipscout/internal/model"
)

// QueryCache is an in-memory LRU cache with a fixed TTL. Entries past the
// TTL are logically absent regardless of recency; entries beyond the
// capacity are evicted least-recently-used first. Safe for concurrent use.
type QueryCache struct {
	maxEntries int
	ttl        time.Duration

	mu    sync.Mutex
	items map[string]*list.Element
	lru   *list.List

	hits   int
	misses int
}

type cacheItem struct {
	key      string
	listings []model.Listing
	storedAt time.Time
}

// NewQueryCache creates a cache holding at most maxEntries responses, each
// valid for ttl after insertion.
func NewQueryCache(maxEntries int, ttl time.Duration) *QueryCache {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &QueryCache{
		maxEntries: maxEntries,
		ttl:        ttl,
		items:      make(map[string]*list.Element),
		lru:        list.New(),
	}
}

// Get returns the cached response for a fingerprint, if present and fresh.
// The returned slice is shared; callers must not mutate it.
func (c *QueryCache) Get(fingerprint string) ([]model.Listing, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	element, ok := c.items[fingerprint]
	if !ok {
		c.misses++
		return nil, false
	}

	item := element.Value.(*cacheItem)
	if time.Since(item.storedAt) >= c.ttl {
		c.removeElement(element)
		c.misses++
		return nil, false
	}

	c.lru.MoveToFront(element)
	c.hits++
	return item.listings, true
}

// Put stores a response under a fingerprint, resetting its TTL and
// evicting the least-recently-used entries beyond capacity.
func (c *QueryCache) Put(fingerprint string, listings []model.Listing) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if element, ok := c.items[fingerprint]; ok {
		item := element.Value.(*cacheItem)
		item.listings = listings
		item.storedAt = now
		c.lru.MoveToFront(element)
		return
	}

	element := c.lru.PushFront(&cacheItem{key: fingerprint, listings: listings, storedAt: now})
	c.items[fingerprint] = element

	for len(c.items) > c.maxEntries {
		oldest := c.lru.Back()
		if oldest == nil {
			break
		}
		c.removeElement(oldest)
	}
}

// Len reports the current entry count, expired entries included until
// their next lookup.
func (c *QueryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Stats reports hit/miss counters since construction.
func (c *QueryCache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func (c *QueryCache) removeElement(element *list.Element) {
	item := element.Value.(*cacheItem)
	delete(c.items, item.key)
	c.lru.Remove(element)
}
