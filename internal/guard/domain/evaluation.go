package domain

import (
	"encoding/json"
	"slices"
	"time"
)

// Canonical reason and notification strings produced by the evaluation engine.
const (
	ReasonInternationalBlocked = "international numbers are blocked by policy"
	ReasonAuthorityListMatch   = "matches authority-provided list"
	ReasonInternationalNotice  = "attention advised for international numbers"
	ReasonNoRisk               = "no risk detected"

	NotificationReportQueued = "added to auto-report queue"
)

// RiskMatch is the strongest keyword hit found in a transcript.
type RiskMatch struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

// CallEvaluationResult is the engine's single output per call.
// It is immutable: accessors hand out copies of the underlying slices.
type CallEvaluationResult struct {
	action        Action
	reasons       []string
	notifications []string
	evaluatedAt   time.Time
}

// NewCallEvaluationResult builds a result, copying the provided slices.
// An empty reasons list is replaced by the canonical no-risk reason.
func NewCallEvaluationResult(action Action, reasons, notifications []string, evaluatedAt time.Time) CallEvaluationResult {
	rs := slices.Clone(reasons)
	if len(rs) == 0 {
		rs = []string{ReasonNoRisk}
	}
	ns := slices.Clone(notifications)
	if ns == nil {
		ns = []string{}
	}
	return CallEvaluationResult{
		action:        action,
		reasons:       rs,
		notifications: ns,
		evaluatedAt:   evaluatedAt,
	}
}

// Action returns the final classification.
func (r CallEvaluationResult) Action() Action { return r.action }

// Reasons returns the reasons in evaluation order.
func (r CallEvaluationResult) Reasons() []string { return slices.Clone(r.reasons) }

// Notifications returns side-effect confirmations in the order they happened.
func (r CallEvaluationResult) Notifications() []string { return slices.Clone(r.notifications) }

// EvaluatedAt returns the evaluation timestamp.
func (r CallEvaluationResult) EvaluatedAt() time.Time { return r.evaluatedAt }

// IsAllowed is a convenience accessor.
func (r CallEvaluationResult) IsAllowed() bool { return r.action == ActionAllow }

type evaluationJSON struct {
	Action        Action    `json:"action"`
	Reasons       []string  `json:"reasons"`
	Notifications []string  `json:"notifications"`
	EvaluatedAt   time.Time `json:"evaluated_at"`
}

// MarshalJSON exposes the result to presentation clients.
func (r CallEvaluationResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(evaluationJSON{
		Action:        r.action,
		Reasons:       r.reasons,
		Notifications: r.notifications,
		EvaluatedAt:   r.evaluatedAt,
	})
}
