package domain

import (
	"fmt"
	"strings"
)

// Action is the classification assigned to a call.
//
// Values are ordered by severity so a decision can only be escalated:
// ActionAllow < ActionWarn < ActionBlock.
type Action uint8

const (
	// ActionAllow lets the call through without intervention.
	ActionAllow Action = iota
	// ActionWarn lets the call through but surfaces a warning to the user.
	ActionWarn
	// ActionBlock rejects the call.
	ActionBlock
)

// String returns a stable string representation of the action.
func (a Action) String() string {
	switch a {
	case ActionAllow:
		return "ALLOW"
	case ActionWarn:
		return "WARN"
	case ActionBlock:
		return "BLOCK"
	default:
		return fmt.Sprintf("Action(%d)", a)
	}
}

// ParseAction converts a string into an Action (case-insensitive).
func ParseAction(s string) (Action, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ALLOW":
		return ActionAllow, nil
	case "WARN":
		return ActionWarn, nil
	case "BLOCK":
		return ActionBlock, nil
	default:
		return 0, fmt.Errorf("unsupported Action: %q", s)
	}
}

// Escalate returns the more severe of a and to. It never lowers severity.
func (a Action) Escalate(to Action) Action {
	if to > a {
		return to
	}
	return a
}

// MarshalText encodes the action by name.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText decodes an action name.
func (a *Action) UnmarshalText(b []byte) error {
	parsed, err := ParseAction(string(b))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
