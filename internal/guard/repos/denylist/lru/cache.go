package lru

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/haukened/callguard/internal/guard/repos/denylist"
)

// newLRU is the constructor seam used by New; tests replace it to force errors.
var newLRU = func(size int, onEvict func(string, denylist.Decision)) (*lru.Cache[string, denylist.Decision], error) {
	return lru.NewWithEvict(size, onEvict)
}

// decisionCache is an LRU-backed implementation of denylist.DecisionCache.
// It tracks basic metrics: hits, misses, and evictions.
type decisionCache struct {
	lru       *lru.Cache[string, denylist.Decision]
	hits      uint64
	misses    uint64
	evictions uint64
}

// disabledCache is a no-op DecisionCache used when size <= 0.
type disabledCache struct{}

// New creates a new DecisionCache with the given capacity. If size <= 0, a
// disabled no-op cache is returned that always misses and tracks no metrics.
func New(size int) (denylist.DecisionCache, error) {
	if size <= 0 {
		return &disabledCache{}, nil
	}

	dc := &decisionCache{}
	// NewWithEvict observes evictions, including Purge-induced ones.
	cache, err := newLRU(size, func(_ string, _ denylist.Decision) {
		atomic.AddUint64(&dc.evictions, 1)
	})
	if err != nil {
		return nil, err
	}
	dc.lru = cache
	return dc, nil
}

// Get looks up a decision by normalized number. When found, increments hits; otherwise misses.
func (c *decisionCache) Get(number string) (denylist.Decision, bool) {
	if val, ok := c.lru.Get(number); ok {
		atomic.AddUint64(&c.hits, 1)
		return val, true
	}
	atomic.AddUint64(&c.misses, 1)
	return denylist.Decision{}, false
}

// Put stores a decision by normalized number.
func (c *decisionCache) Put(number string, d denylist.Decision) {
	c.lru.Add(number, d)
}

// Len returns the number of entries in the cache.
func (c *decisionCache) Len() int { return c.lru.Len() }

// Purge clears all entries. Evictions are counted via the eviction callback.
func (c *decisionCache) Purge() { c.lru.Purge() }

// Stats returns cumulative hit/miss/eviction counters.
func (c *decisionCache) Stats() (hits, misses, evictions uint64) {
	return atomic.LoadUint64(&c.hits), atomic.LoadUint64(&c.misses), atomic.LoadUint64(&c.evictions)
}

// disabledCache implementation

func (d *disabledCache) Get(string) (denylist.Decision, bool) {
	return denylist.Decision{}, false
}

func (d *disabledCache) Put(string, denylist.Decision) {}

func (d *disabledCache) Len() int { return 0 }

func (d *disabledCache) Purge() {}

func (d *disabledCache) Stats() (uint64, uint64, uint64) { return 0, 0, 0 }

var _ denylist.DecisionCache = (*decisionCache)(nil)
var _ denylist.DecisionCache = (*disabledCache)(nil)
