package denylist

import "github.com/haukened/callguard/internal/guard/domain"

// BloomSizer computes Bloom filter parameters from capacity (n) and target FP rate (p).
// It returns m (number of bits) and k (number of hash functions).
type BloomSizer interface {
	Size(n uint64, p float64) (m uint64, k uint8)
}

// BloomFilter is the minimal interface the store needs from Bloom filters.
type BloomFilter interface {
	Add(key []byte)
	MightContain(key []byte) bool
	Clear()
}

// BloomFactory builds a filter sized for a snapshot of capacity entries.
type BloomFactory interface {
	New(capacity uint64, fpRate float64) BloomFilter
}

// Decision is the cached outcome of an authority-list lookup for one normalized number.
type Decision struct {
	Listed bool
	Entry  domain.ListedNumber
}

// DecisionCache caches lookup decisions by normalized number with basic metrics.
type DecisionCache interface {
	Get(number string) (Decision, bool)
	Put(number string, d Decision)
	Len() int
	Purge()
	Stats() (hits, misses, evictions uint64)
}

// Stats exposes store-level counters.
type Stats struct {
	AuthorityCount  int
	AIDetectedCount int
	Version         uint64
	UpdatedUnix     int64 // seconds since epoch, 0 before the first snapshot
	CacheHits       uint64
	CacheMisses     uint64
	CacheEvictions  uint64
}
