package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

// formatting lists the separator runes dialers and published lists put between digit groups.
var formatting = map[rune]struct{}{
	'-': {}, '‐': {}, '‑': {}, '‒': {}, '–': {}, '—': {}, '−': {},
	'(': {}, ')': {}, '.': {}, '/': {},
}

// NormalizeNumber returns a phone number in canonical comparison form:
// - Full-width digits and symbols folded to their ASCII forms
// - Whitespace and digit-group separators removed
// - A single leading "+" preserved; any later "+" dropped
// Every input, including the empty string, has a normalized form.
func NormalizeNumber(raw string) string {
	folded := width.Fold.String(raw)

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsSpace(r) {
			continue
		}
		if _, ok := formatting[r]; ok {
			continue
		}
		if r == '+' && b.Len() > 0 {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// IsInternationalNumber reports whether the number is written in international
// ("+" country code) form once normalized.
func IsInternationalNumber(raw string) bool {
	return strings.HasPrefix(NormalizeNumber(raw), "+")
}
