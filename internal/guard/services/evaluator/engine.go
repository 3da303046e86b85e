// Package evaluator classifies a single call as ALLOW, WARN or BLOCK.
package evaluator

import (
	"fmt"
	"sync"
	"time"

	"github.com/haukened/callguard/internal/guard/common/clock"
	"github.com/haukened/callguard/internal/guard/common/log"
	"github.com/haukened/callguard/internal/guard/domain"
)

// Engine applies the evaluation rules in a fixed order. Evaluations are
// serialized so denylist and report queue mutations never interleave.
type Engine struct {
	mu        sync.Mutex
	denylist  Denylist
	scorer    Scorer
	reports   ReportQueue
	clock     clock.Clock
	logger    log.Logger
	metrics   Metrics
	observers []Observer
}

type EngineOptions struct {
	Denylist  Denylist
	Scorer    Scorer
	Reports   ReportQueue
	Clock     clock.Clock
	Logger    log.Logger
	Metrics   Metrics
	Observers []Observer
}

func NewEngine(opts EngineOptions) *Engine {
	e := &Engine{
		denylist:  opts.Denylist,
		scorer:    opts.Scorer,
		reports:   opts.Reports,
		clock:     opts.Clock,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		observers: append([]Observer(nil), opts.Observers...),
	}
	if e.clock == nil {
		e.clock = clock.RealClock{}
	}
	if e.logger == nil {
		e.logger = log.NewNoopLogger()
	}
	if e.metrics == nil {
		e.metrics = nopMetrics{}
	}
	return e
}

// KeywordReason renders the reason recorded when transcript scoring fires.
func KeywordReason(m domain.RiskMatch) string {
	return fmt.Sprintf("AI detection: suspicious keyword %q (%dx)", m.Keyword, m.Count)
}

// ReportLine renders the entry appended to the report queue.
func ReportLine(number string, action domain.Action) string {
	return fmt.Sprintf("%s %s and shared anonymously with authorities", number, action)
}

// Evaluate classifies a call. It never fails: empty numbers and transcripts are
// valid inputs.
func (e *Engine) Evaluate(number string, international bool, transcript string, opts domain.Options) domain.CallEvaluationResult {
	start := time.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	action := domain.ActionAllow
	var reasons, notifications []string

	if opts.BlockInternational && international {
		reasons = append(reasons, domain.ReasonInternationalBlocked)
		action = domain.ActionBlock
	}

	if opts.BlockAuthorityList && e.denylist.IsListed(number) {
		reasons = append(reasons, domain.ReasonAuthorityListMatch)
		action = domain.ActionBlock
	}

	if opts.EnableAIDetection {
		if match, ok := e.scorer.Score(transcript); ok {
			reason := KeywordReason(match)
			reasons = append(reasons, reason)
			if match.Count > 1 {
				action = domain.ActionBlock
			} else {
				action = action.Escalate(domain.ActionWarn)
			}
			e.denylist.RecordDetection(number, reason, international, now)
			e.metrics.IncrementDetections()
		}
	}

	// A domestic call with nothing triggered stays ALLOW even with warnings on.
	if action == domain.ActionAllow && opts.ShowWarnings && (international || len(reasons) > 0) {
		action = domain.ActionWarn
		if len(reasons) == 0 {
			reasons = append(reasons, domain.ReasonInternationalNotice)
		}
	}

	if action != domain.ActionAllow && opts.AutoReport {
		e.reports.Append(ReportLine(number, action))
		notifications = append(notifications, domain.NotificationReportQueued)
		e.metrics.IncrementReports()
	}

	if len(reasons) == 0 {
		reasons = append(reasons, domain.ReasonNoRisk)
	}

	result := domain.NewCallEvaluationResult(action, reasons, notifications, now)

	e.logger.Debug(map[string]any{
		"number":        number,
		"international": international,
		"action":        action.String(),
		"reasons":       result.Reasons(),
	}, "call_evaluated")

	for _, o := range e.observers {
		o.Observe(number, result)
	}
	e.metrics.ObserveEvaluation(action.String(), time.Since(start))
	return result
}

type nopMetrics struct{}

func (nopMetrics) ObserveEvaluation(string, time.Duration) {}
func (nopMetrics) IncrementDetections()                    {}
func (nopMetrics) IncrementReports()                       {}
