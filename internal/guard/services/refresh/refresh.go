// Package refresh swaps in a fresh authority list snapshot and rotates the
// security advisory. A failed fetch never clears the current list.
package refresh

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/haukened/callguard/internal/guard/common/clock"
	"github.com/haukened/callguard/internal/guard/common/log"
	"github.com/haukened/callguard/internal/guard/domain"
)

// Supplier fetches the authority list. A supplier that falls back to an older
// snapshot returns those entries together with a non-nil error.
type Supplier interface {
	Fetch(ctx context.Context) ([]domain.ListedNumber, error)
}

type Authority interface {
	ReplaceAuthority(entries []domain.ListedNumber, at time.Time) int
}

type Advisory interface {
	Refresh() string
}

type Metrics interface {
	ObserveRefresh(ok bool, entries int)
}

// Notice reports the outcome of a refresh. A failed refresh is not fatal: the
// previous snapshot stays in place and Message says why. Stale is set when the
// list in use came from a fallback snapshot rather than a fresh fetch.
type Notice struct {
	OK       bool      `json:"ok"`
	Stale    bool      `json:"stale,omitempty"`
	Accepted int       `json:"accepted"`
	Message  string    `json:"message"`
	Advisory string    `json:"advisory,omitempty"`
	At       time.Time `json:"at"`
}

type Refresher struct {
	mu       sync.Mutex
	supplier Supplier
	store    Authority
	advisory Advisory
	clock    clock.Clock
	logger   log.Logger
	metrics  Metrics
	loaded   bool
}

type Options struct {
	Supplier Supplier
	Store    Authority
	Advisory Advisory
	Clock    clock.Clock
	Logger   log.Logger
	Metrics  Metrics
}

func New(opts Options) *Refresher {
	r := &Refresher{
		supplier: opts.Supplier,
		store:    opts.Store,
		advisory: opts.Advisory,
		clock:    opts.Clock,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}
	if r.clock == nil {
		r.clock = clock.RealClock{}
	}
	if r.logger == nil {
		r.logger = log.NewNoopLogger()
	}
	return r
}

// Refresh fetches the authority list and replaces the store's snapshot. The
// advisory is rotated whether or not the fetch succeeds. Concurrent calls are
// serialized.
func (r *Refresher) Refresh(ctx context.Context) Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refresh(ctx, true)
}

// Seed loads the initial snapshot without rotating the advisory.
func (r *Refresher) Seed(ctx context.Context) Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refresh(ctx, false)
}

func (r *Refresher) refresh(ctx context.Context, rotate bool) Notice {
	now := r.clock.Now()
	notice := Notice{At: now}
	if rotate && r.advisory != nil {
		notice.Advisory = r.advisory.Refresh()
	}

	entries, err := r.supplier.Fetch(ctx)
	if err != nil {
		r.observe(false, 0)
		notice.Stale = len(entries) > 0
		if notice.Stale && !r.loaded {
			// A fallback snapshot is installed only while no list is loaded.
			notice.Accepted = r.store.ReplaceAuthority(entries, latestUpdate(entries))
			r.loaded = true
			notice.Message = fmt.Sprintf("authority feed unavailable, using stale list of %d entries: %v", notice.Accepted, err)
			r.logger.Warn(map[string]any{"error": err.Error(), "accepted": notice.Accepted}, "authority list loaded from stale snapshot")
			return notice
		}
		notice.Message = fmt.Sprintf("authority list refresh failed, keeping previous list: %v", err)
		r.logger.Warn(map[string]any{"error": err.Error()}, "authority list refresh failed")
		return notice
	}

	notice.OK = true
	notice.Accepted = r.store.ReplaceAuthority(entries, now)
	r.loaded = true
	notice.Message = fmt.Sprintf("authority list updated: %d entries", notice.Accepted)
	r.logger.Info(map[string]any{
		"fetched":  len(entries),
		"accepted": notice.Accepted,
	}, "authority list refreshed")
	r.observe(true, notice.Accepted)
	return notice
}

func (r *Refresher) observe(ok bool, entries int) {
	if r.metrics != nil {
		r.metrics.ObserveRefresh(ok, entries)
	}
}

// latestUpdate returns the newest UpdatedAt among entries.
func latestUpdate(entries []domain.ListedNumber) time.Time {
	var latest time.Time
	for _, e := range entries {
		if e.UpdatedAt.After(latest) {
			latest = e.UpdatedAt
		}
	}
	return latest
}
