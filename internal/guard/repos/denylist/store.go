package denylist

import (
	"slices"
	"sync"
	"time"

	"github.com/haukened/callguard/internal/guard/common/log"
	"github.com/haukened/callguard/internal/guard/common/utils"
	"github.com/haukened/callguard/internal/guard/domain"
)

// DefaultFPRate is the Bloom false-positive target used when none is configured.
const DefaultFPRate = 0.01

// Store holds the authority-provided list and the engine's AI-detected list.
//
// Authority lookups run a bloom → cache → index pipeline. Only the authority list
// participates in IsListed; AI detections are an informational log.
type Store struct {
	mu        sync.RWMutex
	authority []domain.ListedNumber
	index     map[string]int        // normalized number → position in authority
	detected  []domain.ListedNumber // oldest first; snapshots reverse it
	bloom     BloomFilter
	cache     DecisionCache
	factory   BloomFactory
	fpRate    float64
	version   uint64
	updatedAt time.Time
	logger    log.Logger
}

// Options configures a Store. Cache and Factory are optional: without a cache every
// lookup goes to the index, and without a factory the bloom stage is skipped.
type Options struct {
	Cache   DecisionCache
	Factory BloomFactory
	FPRate  float64
	Logger  log.Logger
}

// New constructs an empty Store.
func New(opts Options) *Store {
	s := &Store{
		index:   make(map[string]int),
		cache:   opts.Cache,
		factory: opts.Factory,
		fpRate:  opts.FPRate,
		logger:  opts.Logger,
	}
	if s.cache == nil {
		s.cache = nopCache{}
	}
	if !(s.fpRate > 0 && s.fpRate < 1) {
		s.fpRate = DefaultFPRate
	}
	if s.logger == nil {
		s.logger = log.NewNoopLogger()
	}
	return s
}

// IsListed reports whether number matches an authority-list entry once normalized.
func (s *Store) IsListed(number string) bool {
	_, ok := s.Lookup(number)
	return ok
}

// Lookup returns the authority entry matching number, if any.
func (s *Store) Lookup(number string) (domain.ListedNumber, bool) {
	cn := utils.NormalizeNumber(number)

	s.mu.RLock()
	defer s.mu.RUnlock()

	// 1) bloom: early-miss if definitively negative
	if s.bloom != nil && !s.bloom.MightContain([]byte(cn)) {
		return domain.ListedNumber{}, false
	}
	// 2) cache
	if d, ok := s.cache.Get(cn); ok {
		return d.Entry, d.Listed
	}
	// 3) index
	var d Decision
	if i, ok := s.index[cn]; ok {
		d = Decision{Listed: true, Entry: s.authority[i]}
	}
	s.cache.Put(cn, d)
	return d.Entry, d.Listed
}

// RecordDetection prepends an AI-detected entry. The same number may be recorded
// any number of times.
func (s *Store) RecordDetection(number, label string, international bool, at time.Time) domain.ListedNumber {
	n := domain.NewDetectedNumber(number, label, international, at)
	s.mu.Lock()
	s.detected = append(s.detected, n)
	s.mu.Unlock()
	s.logger.Debug(map[string]any{"number": n.Number, "international": international}, "detection_recorded")
	return n
}

// ReplaceAuthority swaps in a new authority snapshot, rebuilding the Bloom filter
// and purging cached decisions. Invalid, non-authority and duplicate entries are
// skipped; the number of accepted entries is returned.
func (s *Store) ReplaceAuthority(entries []domain.ListedNumber, at time.Time) int {
	accepted := make([]domain.ListedNumber, 0, len(entries))
	index := make(map[string]int, len(entries))
	for _, e := range entries {
		if err := e.Validate(); err != nil || e.Source != domain.SourceAuthorityList {
			s.logger.Debug(map[string]any{"number": e.Display, "source": e.Source.String()}, "skip_invalid_entry")
			continue
		}
		if _, dup := index[e.Number]; dup {
			s.logger.Debug(map[string]any{"number": e.Number}, "skip_duplicate")
			continue
		}
		index[e.Number] = len(accepted)
		accepted = append(accepted, e)
	}

	var bf BloomFilter
	if s.factory != nil {
		bf = s.factory.New(uint64(len(accepted)), s.fpRate)
		for _, e := range accepted {
			bf.Add([]byte(e.Number))
		}
	}

	s.mu.Lock()
	s.authority = accepted
	s.index = index
	s.bloom = bf
	s.cache.Purge()
	s.version++
	s.updatedAt = at
	s.mu.Unlock()

	s.logger.Info(map[string]any{"count": len(accepted), "skipped": len(entries) - len(accepted)}, "authority list replaced")
	return len(accepted)
}

// Authority returns a copy of the authority list in supplier order.
func (s *Store) Authority() []domain.ListedNumber {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.authority)
}

// AIDetected returns a copy of the AI-detected list, most recent first.
func (s *Store) AIDetected() []domain.ListedNumber {
	s.mu.RLock()
	out := slices.Clone(s.detected)
	s.mu.RUnlock()
	slices.Reverse(out)
	return out
}

// Stats returns a snapshot of store counters.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hits, misses, evictions := s.cache.Stats()
	st := Stats{
		AuthorityCount:  len(s.authority),
		AIDetectedCount: len(s.detected),
		Version:         s.version,
		CacheHits:       hits,
		CacheMisses:     misses,
		CacheEvictions:  evictions,
	}
	if !s.updatedAt.IsZero() {
		st.UpdatedUnix = s.updatedAt.Unix()
	}
	return st
}

// nopCache is used when no DecisionCache is configured.
type nopCache struct{}

func (nopCache) Get(string) (Decision, bool)     { return Decision{}, false }
func (nopCache) Put(string, Decision)            {}
func (nopCache) Len() int                        { return 0 }
func (nopCache) Purge()                          {}
func (nopCache) Stats() (uint64, uint64, uint64) { return 0, 0, 0 }
