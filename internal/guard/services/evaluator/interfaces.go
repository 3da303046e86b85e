package evaluator

import (
	"time"

	"github.com/haukened/callguard/internal/guard/domain"
)

// Denylist is the subset of the denylist store the engine reads and mutates.
type Denylist interface {
	// IsListed reports whether number is on the authority list. AI-detected
	// entries are never consulted.
	IsListed(number string) bool

	// RecordDetection prepends an AI-detected entry for number.
	RecordDetection(number, label string, international bool, at time.Time) domain.ListedNumber
}

// Scorer finds the highest-scoring risk keyword in a transcript.
type Scorer interface {
	Score(transcript string) (domain.RiskMatch, bool)
}

// ReportQueue receives anonymous reports for blocked or warned calls.
type ReportQueue interface {
	Append(report string) int
}

// Observer is notified synchronously after every evaluation, in evaluation order.
// Observe runs while the engine holds its evaluation lock, so it must not call
// back into Engine.Evaluate; doing so deadlocks.
type Observer interface {
	Observe(number string, result domain.CallEvaluationResult)
}

// Metrics records evaluation outcomes.
type Metrics interface {
	ObserveEvaluation(action string, d time.Duration)
	IncrementDetections()
	IncrementReports()
}
