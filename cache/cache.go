// Package cache memoizes (query, scope) search results so repeated picker
// input does not respawn the search subprocess. Entries age out by TTL and
// are evicted least-recently-used at capacity; any filesystem change wipes
// the whole cache, trading extra subprocess calls for never serving stale
// matches.
package cache

import (
	"container/list"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ripscout/ripscout-mcp/ripgrep"
)

// Key identifies a cached search.
type Key struct {
	Query string
	Scope string
}

type entry struct {
	key       Key
	results   []ripgrep.Match
	createdAt time.Time
}

// SearchCache is an LRU + TTL memo of search results. Cached slices are
// treated as immutable; callers must not modify returned results.
type SearchCache struct {
	mu       sync.Mutex
	ttl      time.Duration
	capacity int
	entries  map[Key]*list.Element
	order    *list.List // front = most recently used

	hits   atomic.Int64
	misses atomic.Int64

	now func() time.Time // swapped in tests
}

// New creates a cache with the given TTL and entry capacity.
func New(ttl time.Duration, capacity int) *SearchCache {
	if capacity <= 0 {
		capacity = 64
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &SearchCache{
		ttl:      ttl,
		capacity: capacity,
		entries:  make(map[Key]*list.Element),
		order:    list.New(),
		now:      time.Now,
	}
}

// Get returns the cached results for a key, or ok=false on miss. An entry
// past its TTL is evicted and reported as a miss.
func (c *SearchCache) Get(query string, scope string) ([]ripgrep.Match, bool) {
	key := Key{Query: query, Scope: scope}

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, exists := c.entries[key]
	if !exists {
		c.misses.Add(1)
		return nil, false
	}

	ent := elem.Value.(*entry)
	if c.now().Sub(ent.createdAt) >= c.ttl {
		c.order.Remove(elem)
		delete(c.entries, key)
		c.misses.Add(1)
		return nil, false
	}

	c.order.MoveToFront(elem)
	c.hits.Add(1)
	return ent.results, true
}

// Set stores results for a key, evicting the least-recently-used entry
// first when at capacity.
func (c *SearchCache) Set(query string, scope string, results []ripgrep.Match) {
	key := Key{Query: query, Scope: scope}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, exists := c.entries[key]; exists {
		ent := elem.Value.(*entry)
		ent.results = results
		ent.createdAt = c.now()
		c.order.MoveToFront(elem)
		return
	}

	if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*entry).key)
		}
	}

	c.entries[key] = c.order.PushFront(&entry{
		key:       key,
		results:   results,
		createdAt: c.now(),
	})
}

// Clear drops every entry. Invoked on any filesystem change under the
// workspace, since per-entry staleness cannot otherwise be bounded.
func (c *SearchCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[Key]*list.Element)
	c.order.Init()
}

// Len returns the number of live entries.
func (c *SearchCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats returns cumulative hit and miss counts.
func (c *SearchCache) Stats() (hits int64, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
