// Package reportqueue holds the append-only log of anonymous reports produced by
// blocked or warned calls when auto-reporting is enabled.
package reportqueue

import (
	"slices"
	"sync"

	"github.com/haukened/callguard/internal/guard/common/log"
)

// Queue is an unbounded, append-only, ordered sequence of report strings.
// Entries are never removed.
type Queue struct {
	mu      sync.RWMutex
	entries []string
	logger  log.Logger
}

// New returns an empty Queue. Every append is logged at info level so queued
// reports are visible even before anything consumes the queue.
func New(logger log.Logger) *Queue {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Queue{logger: logger}
}

// Append adds a report to the end of the queue and returns the new length.
func (q *Queue) Append(report string) int {
	q.mu.Lock()
	q.entries = append(q.entries, report)
	n := len(q.entries)
	q.mu.Unlock()

	q.logger.Info(map[string]any{"report": report, "queued": n}, "report queued")
	return n
}

// Snapshot returns a copy of the queue in insertion order.
func (q *Queue) Snapshot() []string {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return slices.Clone(q.entries)
}

// Len returns the number of queued reports.
func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.entries)
}
