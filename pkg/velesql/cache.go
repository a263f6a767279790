package velesql

import (
	"container/list"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
)

// cacheEntry is one slot in the cache's LRU list.
type cacheEntry struct {
	key       uint64
	query     *Query
	expiresAt time.Time
}

// QueryCache is a bounded, thread-safe LRU cache of parsed Query ASTs
// keyed by the hash of their source text, with a per-entry TTL. A
// parse failure is never cached: only a successfully parsed Query
// reaches Put.
type QueryCache struct {
	mu       sync.Mutex
	maxSize  int
	ttl      time.Duration
	ll       *list.List
	index    map[uint64]*list.Element
	hits     atomic.Int64
	misses   atomic.Int64
}

// NewQueryCache returns a QueryCache holding at most maxSize entries,
// each valid for ttl before it is treated as a miss and re-parsed.
// ttl of zero disables expiry.
func NewQueryCache(maxSize int, ttl time.Duration) *QueryCache {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &QueryCache{
		maxSize: maxSize,
		ttl:     ttl,
		ll:      list.New(),
		index:   make(map[uint64]*list.Element),
	}
}

// Key hashes query source text into the cache's lookup key. Parameter
// values are never part of the key: two executions of the same query
// text with different $params share one cached AST.
func Key(source string) uint64 {
	return xxhash.Sum64String(source)
}

// Get returns the cached Query for source, if present and unexpired.
func (c *QueryCache) Get(source string) (*Query, bool) {
	key := Key(source)
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.index[key]
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	entry := el.Value.(*cacheEntry)
	if c.ttl > 0 && time.Now().After(entry.expiresAt) {
		c.ll.Remove(el)
		delete(c.index, key)
		c.misses.Add(1)
		return nil, false
	}
	c.ll.MoveToFront(el)
	c.hits.Add(1)
	return entry.query, true
}

// Put inserts or refreshes the cached Query for source, evicting the
// least-recently-used entry if the cache is at capacity.
func (c *QueryCache) Put(source string, q *Query) {
	key := Key(source)
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := time.Time{}
	if c.ttl > 0 {
		expiresAt = time.Now().Add(c.ttl)
	}

	if el, ok := c.index[key]; ok {
		el.Value.(*cacheEntry).query = q
		el.Value.(*cacheEntry).expiresAt = expiresAt
		c.ll.MoveToFront(el)
		return
	}

	el := c.ll.PushFront(&cacheEntry{key: key, query: q, expiresAt: expiresAt})
	c.index[key] = el

	for c.ll.Len() > c.maxSize {
		oldest := c.ll.Back()
		if oldest == nil {
			break
		}
		c.ll.Remove(oldest)
		delete(c.index, oldest.Value.(*cacheEntry).key)
	}
}

// Len returns the current number of cached entries.
func (c *QueryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// HitRate returns the fraction of Get calls that were cache hits, or 0
// if Get has never been called.
func (c *QueryCache) HitRate() float64 {
	hits := c.hits.Load()
	misses := c.misses.Load()
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// ParseCached parses source, consulting and populating cache so
// repeated executions of identical query text skip re-parsing.
func ParseCached(cache *QueryCache, source string) (*Query, error) {
	if cache == nil {
		return ParseQuery(source)
	}
	if q, ok := cache.Get(source); ok {
		return q, nil
	}
	q, err := ParseQuery(source)
	if err != nil {
		return nil, err
	}
	cache.Put(source, q)
	return q, nil
}
