// Package cache holds catalogueserver's answer caches. A loaded
// snapshot is immutable until an operator replaces it wholesale, so a
// cached answer carries no per-entry lifetime: every entry stays valid
// until the snapshot is swapped out, at which point ClearAllCaches
// drops the lot. Each cache is bounded so an adversarial stream of
// distinct route queries cannot grow the map without limit.
package cache

import "sync"

// Cache is a bounded key/value store whose entries live as long as the
// snapshot they were computed from. Entries never expire individually;
// they leave either wholesale on snapshot reload or one at a time when
// the bound is hit.
type Cache struct {
	mu     sync.Mutex
	items  map[string]interface{}
	max    int
	hits   uint64
	misses uint64
}

// New returns an empty cache holding at most maxEntries entries. A
// non-positive maxEntries means unbounded.
func New(maxEntries int) *Cache {
	return &Cache{items: make(map[string]interface{}), max: maxEntries}
}

// Get returns the value stored under key and whether it was present.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	value, found := c.items[key]
	if found {
		c.hits++
	} else {
		c.misses++
	}
	return value, found
}

// Set stores value under key. When the cache is at its bound and key is
// new, one arbitrary existing entry is evicted first: with every entry
// equally valid until the next reload, no victim is better than the
// first one map iteration hands back.
func (c *Cache) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && c.max > 0 && len(c.items) >= c.max {
		for victim := range c.items {
			delete(c.items, victim)
			break
		}
	}
	c.items[key] = value
}

// Delete removes key from the cache.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Clear empties the cache, keeping its hit/miss counters.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.items = make(map[string]interface{})
	c.mu.Unlock()
}

// Count returns how many entries are stored.
func (c *Cache) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Stats summarizes a Cache's current contents and lifetime traffic.
type Stats struct {
	Entries    int
	MaxEntries int
	Hits       uint64
	Misses     uint64
}

// GetStats reports the cache's entry count, bound, and hit/miss totals.
func (c *Cache) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Entries:    len(c.items),
		MaxEntries: c.max,
		Hits:       c.hits,
		Misses:     c.misses,
	}
}

// Preset caches for catalogueserver's query surface. ClearAllCaches
// empties all three together; nothing else ever removes a valid answer.

var (
	// StatAnswerCache holds stop/bus lookup answers, one entry per
	// queried name.
	StatAnswerCache *Cache

	// RouteAnswerCache holds itinerary answers keyed by the from/to
	// pair — the one cache a client can feed arbitrary keys into, so
	// its bound matters most.
	RouteAnswerCache *Cache

	// MapCache holds the rendered SVG document. A snapshot has exactly
	// one map, so one entry suffices.
	MapCache *Cache
)

// InitCaches constructs every preset cache. Called once at
// catalogueserver startup.
func InitCaches() {
	StatAnswerCache = New(4096)
	RouteAnswerCache = New(4096)
	MapCache = New(1)
}

// ClearAllCaches empties every preset cache, since every cached answer
// was computed against the snapshot loaded at the time. catalogueserver
// loads its snapshot once at startup and does not call it.
func ClearAllCaches() {
	if StatAnswerCache != nil {
		StatAnswerCache.Clear()
	}
	if RouteAnswerCache != nil {
		RouteAnswerCache.Clear()
	}
	if MapCache != nil {
		MapCache.Clear()
	}
}

// GetAllCacheStats reports stats for every preset cache, keyed by name.
func GetAllCacheStats() map[string]Stats {
	stats := make(map[string]Stats)

	if StatAnswerCache != nil {
		stats["stat_answers"] = StatAnswerCache.GetStats()
	}
	if RouteAnswerCache != nil {
		stats["route_answers"] = RouteAnswerCache.GetStats()
	}
	if MapCache != nil {
		stats["map"] = MapCache.GetStats()
	}

	return stats
}
