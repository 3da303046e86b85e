// Package eventlog keeps the small most-recent-first log of risk events shown on
// the dashboard, paired with a running detection counter.
package eventlog

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/haukened/callguard/internal/guard/common/log"
	"github.com/haukened/callguard/internal/guard/domain"
)

// DefaultCapacity is how many recent events the dashboard keeps.
const DefaultCapacity = 5

// Snapshot is a consistent view of the log: Count and Events are read together.
type Snapshot struct {
	Count  uint64             `json:"count"`
	Events []domain.RiskEvent `json:"events"`
}

// Metrics counts recorded risk events by origin.
type Metrics interface {
	IncrementRiskEvents(origin string)
}

// Options configures a Log.
type Options struct {
	Capacity int
	Logger   log.Logger
	Metrics  Metrics
}

// Log is a capacity-bounded, most-recent-first event log with a monotonic
// insertion counter. The counter and events only change together.
type Log struct {
	mu       sync.RWMutex
	events   []domain.RiskEvent // newest first
	count    uint64
	capacity int
	logger   log.Logger
	metrics  Metrics
}

// New creates a Log. A capacity below 1 falls back to DefaultCapacity.
func New(opts Options) *Log {
	l := &Log{
		capacity: opts.Capacity,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}
	if l.capacity < 1 {
		l.capacity = DefaultCapacity
	}
	if l.logger == nil {
		l.logger = log.NewNoopLogger()
	}
	l.events = make([]domain.RiskEvent, 0, l.capacity)
	return l
}

// Insert adds ev at the front, evicting the oldest event beyond capacity, and
// increments the counter.
func (l *Log) Insert(ev domain.RiskEvent) {
	l.mu.Lock()
	l.events = slices.Insert(l.events, 0, ev)
	if len(l.events) > l.capacity {
		l.events = l.events[:l.capacity]
	}
	l.count++
	count := l.count
	l.mu.Unlock()

	l.logger.Debug(map[string]any{"id": ev.ID, "count": count}, "risk_event_recorded")
}

// Record builds a RiskEvent from message and inserts it.
func (l *Log) Record(message string, at time.Time) domain.RiskEvent {
	ev := domain.NewRiskEvent(message, at)
	l.Insert(ev)
	return ev
}

// Snapshot returns the counter and a copy of the events under a single read lock.
func (l *Log) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return Snapshot{Count: l.count, Events: slices.Clone(l.events)}
}

// Reset clears the events and zeroes the counter in one step.
func (l *Log) Reset() {
	l.mu.Lock()
	l.events = l.events[:0]
	l.count = 0
	l.mu.Unlock()

	l.logger.Info(nil, "risk event log reset")
}

// Capacity returns the configured maximum number of retained events.
func (l *Log) Capacity() int { return l.capacity }

// Observe turns every non-ALLOW evaluation into a risk event. It satisfies the
// evaluation engine's observer contract and is called synchronously in
// evaluation order.
func (l *Log) Observe(number string, result domain.CallEvaluationResult) {
	if result.IsAllowed() {
		return
	}
	reasons := result.Reasons()
	msg := fmt.Sprintf("%s call from %s: %s", result.Action(), number, reasons[0])
	l.Record(msg, result.EvaluatedAt())
	if l.metrics != nil {
		l.metrics.IncrementRiskEvents("evaluation")
	}
}
