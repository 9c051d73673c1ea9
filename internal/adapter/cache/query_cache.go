package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"sprintrag/internal/domain"
)

// QueryCache is an LRU of search results with a TTL. Entries written before
// the last Invalidate are never served.
type QueryCache struct {
	mu         sync.RWMutex
	entries    map[string]*cacheEntry
	order      []string
	maxSize    int
	ttl        time.Duration
	generation uint64
	now        func() time.Time
}

type cacheEntry struct {
	results    []domain.SearchResult
	timestamp  time.Time
	generation uint64
}

func NewQueryCache(maxSize int, ttl time.Duration) *QueryCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &QueryCache{
		entries: make(map[string]*cacheEntry),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

func cacheKey(query string, topK int) string {
	data := []byte(strings.TrimSpace(query))
	data = append(data, 0, byte(topK>>8), byte(topK))
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:16])
}

func (c *QueryCache) Get(query string, topK int) ([]domain.SearchResult, bool) {
	key := cacheKey(query, topK)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		return nil, false
	}
	if c.now().Sub(entry.timestamp) > c.ttl || entry.generation != c.generation {
		delete(c.entries, key)
		c.removeFromOrder(key)
		return nil, false
	}
	c.moveToEnd(key)
	return entry.results, true
}

func (c *QueryCache) Put(query string, topK int, results []domain.SearchResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(query, topK)
	entry := &cacheEntry{
		results:    results,
		timestamp:  c.now(),
		generation: c.generation,
	}

	if _, exists := c.entries[key]; exists {
		c.entries[key] = entry
		c.moveToEnd(key)
		return
	}
	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}
	c.entries[key] = entry
	c.order = append(c.order, key)
}

// Invalidate drops every entry.
func (c *QueryCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.order = c.order[:0]
	c.generation++
}

func (c *QueryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *QueryCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *QueryCache) moveToEnd(key string) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *QueryCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// Source is a searcher whose collection can be rebuilt underneath it.
type Source interface {
	Search(ctx context.Context, query string, topK int) ([]domain.SearchResult, error)
	// Refresh re-acquires the collection and reports whether it was rebuilt.
	Refresh(ctx context.Context) (bool, error)
}

// CachedRetriever serves repeated searches from a QueryCache and drops the
// cache whenever the underlying collection has been rebuilt.
type CachedRetriever struct {
	source Source
	cache  *QueryCache
}

func NewCachedRetriever(source Source, cache *QueryCache) *CachedRetriever {
	return &CachedRetriever{
		source: source,
		cache:  cache,
	}
}

func (r *CachedRetriever) Search(ctx context.Context, query string, topK int) ([]domain.SearchResult, error) {
	rebuilt, err := r.source.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	if rebuilt {
		r.cache.Invalidate()
	}

	if results, hit := r.cache.Get(query, topK); hit {
		return results, nil
	}

	results, err := r.source.Search(ctx, query, topK)
	if err != nil {
		return nil, err
	}
	// An empty result may come from a transient embedding failure.
	if len(results) > 0 {
		r.cache.Put(query, topK, results)
	}
	return results, nil
}
