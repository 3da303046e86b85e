// Package detector runs the background detection feed that stands in for a real
// telephony integration. It writes directly into the recent event log and never
// touches the evaluation engine.
package detector

import (
	"context"
	"time"

	"github.com/haukened/callguard/internal/guard/common/clock"
	"github.com/haukened/callguard/internal/guard/common/log"
	"github.com/haukened/callguard/internal/guard/domain"
)

// DefaultInterval is the period between simulated detections.
const DefaultInterval = 20 * time.Second

const (
	// StartupMessage is emitted once, immediately on Run.
	StartupMessage = "AI検知で不審な国際電話を警告しました"
	// TickMessage is emitted on every interval.
	TickMessage = "疑わしい発信を検知し、遮断候補に追加"
)

// Sink receives simulated risk events.
type Sink interface {
	Record(message string, at time.Time) domain.RiskEvent
}

// Metrics counts emitted events.
type Metrics interface {
	IncrementRiskEvents(origin string)
}

type Simulator struct {
	sink     Sink
	interval time.Duration
	clock    clock.Clock
	logger   log.Logger
	metrics  Metrics
}

type SimulatorOptions struct {
	Sink     Sink
	Interval time.Duration
	Clock    clock.Clock
	Logger   log.Logger
	Metrics  Metrics
}

func NewSimulator(opts SimulatorOptions) *Simulator {
	s := &Simulator{
		sink:     opts.Sink,
		interval: opts.Interval,
		clock:    opts.Clock,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}
	if s.interval <= 0 {
		s.interval = DefaultInterval
	}
	if s.clock == nil {
		s.clock = clock.RealClock{}
	}
	if s.logger == nil {
		s.logger = log.NewNoopLogger()
	}
	return s
}

// Run emits one event immediately and then one per interval until ctx is done.
// It blocks; callers start it in its own goroutine.
func (s *Simulator) Run(ctx context.Context) {
	s.logger.Info(map[string]any{"interval": s.interval.String()}, "detection simulator started")
	s.emit(StartupMessage)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info(nil, "detection simulator stopped")
			return
		case <-ticker.C:
			s.emit(TickMessage)
		}
	}
}

func (s *Simulator) emit(message string) {
	ev := s.sink.Record(message, s.clock.Now())
	if s.metrics != nil {
		s.metrics.IncrementRiskEvents("simulator")
	}
	s.logger.Debug(map[string]any{"id": ev.ID, "message": ev.Message}, "simulated_detection")
}
