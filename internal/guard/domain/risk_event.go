package domain

import (
	"time"

	"github.com/google/uuid"
)

// RiskEvent is one notable detection surfaced to the user.
type RiskEvent struct {
	ID         string    `json:"id"`
	OccurredAt time.Time `json:"occurred_at"`
	Message    string    `json:"message"`
}

// NewRiskEvent stamps a message with a fresh identifier.
func NewRiskEvent(message string, occurredAt time.Time) RiskEvent {
	return RiskEvent{
		ID:         uuid.NewString(),
		OccurredAt: occurredAt,
		Message:    message,
	}
}
