package labelmap

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Memo cache defaults. A single run rarely produces more than a few hundred
// distinct raw labels, so the bound is generous.
const (
	DefaultCacheSize = 1024
	DefaultCacheTTL  = 5 * time.Minute
)

type cacheEntry struct {
	rankings []Ranking
	expires  time.Time
}

// resultCache memoizes zero-shot rankings per (query, candidate-set) key so
// repeat labels within a run do not hit the classifier again. Entries expire
// after a TTL; when the cache is full, expired entries are swept and, if it
// is still full, new entries are simply not admitted until space frees up.
type resultCache struct {
	mu      sync.Mutex
	clock   clock.Clock
	ttl     time.Duration
	limit   int
	entries map[string]cacheEntry
}

func newResultCache(limit int, ttl time.Duration, clk clock.Clock) *resultCache {
	if limit <= 0 {
		limit = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &resultCache{
		clock:   clk,
		ttl:     ttl,
		limit:   limit,
		entries: map[string]cacheEntry{},
	}
}

// cacheKey identifies a (query, candidate-set) pair; candidate order does not
// matter.
func cacheKey(query string, candidates []string) string {
	sorted := make([]string, len(candidates))
	copy(sorted, candidates)
	sort.Strings(sorted)
	return query + "\x00" + strings.Join(sorted, "\x1f")
}

func (c *resultCache) get(key string) ([]Ranking, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.clock.Now().After(entry.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return entry.rankings, true
}

func (c *resultCache) put(key string, rankings []Ranking) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= c.limit {
		now := c.clock.Now()
		for k, entry := range c.entries {
			if now.After(entry.expires) {
				delete(c.entries, k)
			}
		}
		if len(c.entries) >= c.limit {
			return
		}
	}
	c.entries[key] = cacheEntry{rankings: rankings, expires: c.clock.Now().Add(c.ttl)}
}
