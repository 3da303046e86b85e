package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/haukened/callguard/internal/guard/common/clock"
	"github.com/haukened/callguard/internal/guard/common/log"
	"github.com/haukened/callguard/internal/guard/domain"
	"github.com/haukened/callguard/internal/guard/gateways/feed/bolt"
)

// ErrServedStale is wrapped into the error Mirror returns alongside a
// previously stored snapshot when the primary supplier failed.
var ErrServedStale = errors.New("serving mirrored snapshot")

// SnapshotStore persists the last good snapshot.
type SnapshotStore interface {
	RebuildAll(entries []domain.ListedNumber, version uint64, updatedUnix int64) error
	Load() ([]domain.ListedNumber, error)
	Stats() bolt.StoreStats
}

// Mirror wraps a primary supplier. Each good fetch is written to the store; when
// the primary fails, the last stored snapshot is returned together with an
// error wrapping ErrServedStale and the primary's failure.
type Mirror struct {
	mu      sync.Mutex
	primary Supplier
	store   SnapshotStore
	clock   clock.Clock
	logger  log.Logger
	version uint64
}

type MirrorOptions struct {
	Primary Supplier
	Store   SnapshotStore
	Clock   clock.Clock
	Logger  log.Logger
}

func NewMirror(opts MirrorOptions) *Mirror {
	m := &Mirror{
		primary: opts.Primary,
		store:   opts.Store,
		clock:   opts.Clock,
		logger:  opts.Logger,
	}
	if m.clock == nil {
		m.clock = clock.RealClock{}
	}
	if m.logger == nil {
		m.logger = log.NewNoopLogger()
	}
	// Continue the stored version sequence across restarts.
	m.version = m.store.Stats().Version
	return m
}

func (m *Mirror) Fetch(ctx context.Context) ([]domain.ListedNumber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries, err := m.primary.Fetch(ctx)
	if err == nil {
		m.version++
		if serr := m.store.RebuildAll(entries, m.version, m.clock.Now().Unix()); serr != nil {
			m.logger.Warn(map[string]any{"error": serr.Error()}, "failed to mirror authority snapshot")
		}
		return entries, nil
	}

	stale, lerr := m.store.Load()
	if lerr != nil {
		return nil, fmt.Errorf("primary feed: %w; mirror: %v", err, lerr)
	}
	if len(stale) == 0 {
		return nil, fmt.Errorf("primary feed: %w; mirror: %w", err, ErrNoSnapshot)
	}
	m.logger.Warn(map[string]any{
		"error":   err.Error(),
		"entries": len(stale),
	}, "primary feed failed, serving mirrored snapshot")
	return stale, fmt.Errorf("%w: %w", ErrServedStale, err)
}

var _ Supplier = (*Mirror)(nil)
