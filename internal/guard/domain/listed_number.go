package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/haukened/callguard/internal/guard/common/utils"
)

// ListSource identifies which collection a listed number belongs to.
type ListSource uint8

const (
	// SourceAuthorityList marks entries supplied by the authority feed.
	SourceAuthorityList ListSource = iota
	// SourceAIDetected marks entries recorded by transcript keyword detection.
	SourceAIDetected
)

// String returns a stable string representation of the source.
func (s ListSource) String() string {
	switch s {
	case SourceAuthorityList:
		return "AUTHORITY_LIST"
	case SourceAIDetected:
		return "AI_DETECTED"
	default:
		return fmt.Sprintf("ListSource(%d)", s)
	}
}

// ParseListSource converts a string into a ListSource (case-insensitive).
func ParseListSource(s string) (ListSource, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "AUTHORITY_LIST":
		return SourceAuthorityList, nil
	case "AI_DETECTED":
		return SourceAIDetected, nil
	default:
		return 0, fmt.Errorf("unsupported ListSource: %q", s)
	}
}

// MarshalText encodes the source by name.
func (s ListSource) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a source name produced by MarshalText.
func (s *ListSource) UnmarshalText(b []byte) error {
	v, err := ParseListSource(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// UpdatedLayout is the short month/day time layout shown next to list entries.
const UpdatedLayout = "01/02 15:04"

// ListedNumber is one denylisted or AI-flagged number.
//
// Notes:
// - Number is the normalized comparison key; Display keeps the form it was supplied in.
// - UpdatedAt is when the entry was published (authority) or detected (AI).
type ListedNumber struct {
	Number        string     `json:"number"`
	Display       string     `json:"display"`
	Label         string     `json:"label"`
	Source        ListSource `json:"source"`
	International bool       `json:"international"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// NewListedNumber constructs a ListedNumber, normalizing the number and validating fields.
func NewListedNumber(number, label string, source ListSource, international bool, updatedAt time.Time) (ListedNumber, error) {
	n := ListedNumber{
		Number:        utils.NormalizeNumber(number),
		Display:       strings.TrimSpace(number),
		Label:         strings.TrimSpace(label),
		Source:        source,
		International: international,
		UpdatedAt:     updatedAt,
	}
	if err := n.Validate(); err != nil {
		return ListedNumber{}, err
	}
	return n, nil
}

// NewAuthorityNumber convenience constructor for an authority-list entry.
func NewAuthorityNumber(number, label string, international bool, updatedAt time.Time) (ListedNumber, error) {
	return NewListedNumber(number, label, SourceAuthorityList, international, updatedAt)
}

// NewDetectedNumber builds an AI-detected entry. Detection records any number the
// engine evaluated, including the empty string, so no validation is applied.
func NewDetectedNumber(number, label string, international bool, detectedAt time.Time) ListedNumber {
	return ListedNumber{
		Number:        utils.NormalizeNumber(number),
		Display:       strings.TrimSpace(number),
		Label:         label,
		Source:        SourceAIDetected,
		International: international,
		UpdatedAt:     detectedAt,
	}
}

// Validate checks the ListedNumber for required fields and supported values.
func (n ListedNumber) Validate() error {
	if n.Number == "" {
		return fmt.Errorf("listed number must not be empty")
	}
	if n.UpdatedAt.IsZero() {
		return fmt.Errorf("listed number updatedAt must be set")
	}
	switch n.Source {
	case SourceAuthorityList, SourceAIDetected:
		// ok
	default:
		return fmt.Errorf("unsupported ListSource: %d", n.Source)
	}
	return nil
}

// UpdatedLabel renders UpdatedAt in the short list layout, e.g. "11/11 09:00".
func (n ListedNumber) UpdatedLabel() string {
	if n.UpdatedAt.IsZero() {
		return ""
	}
	return n.UpdatedAt.Format(UpdatedLayout)
}

// Matches reports whether the raw number normalizes to this entry.
func (n ListedNumber) Matches(raw string) bool {
	return n.Number == utils.NormalizeNumber(raw)
}
