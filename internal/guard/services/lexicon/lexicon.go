// Package lexicon scores call transcripts against an ordered list of scam keywords.
package lexicon

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/width"

	"github.com/haukened/callguard/internal/guard/domain"
)

// DefaultKeywords are the phrases that most often appear in refund, transfer and
// impersonation scams: refund, remittance, bank account, one-time (password),
// verification code, identity document, urgent.
var DefaultKeywords = []string{"還付", "送金", "口座", "ワンタイム", "確認コード", "身分証", "至急"}

type keyword struct {
	raw    string
	folded string
}

// Scorer finds the keyword with the most occurrences in a transcript.
// It is immutable after construction and safe for concurrent use.
type Scorer struct {
	keywords []keyword
}

// New builds a Scorer over keywords in the given order. Blank keywords are dropped.
func New(keywords []string) *Scorer {
	s := &Scorer{keywords: make([]keyword, 0, len(keywords))}
	for _, k := range keywords {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		s.keywords = append(s.keywords, keyword{raw: k, folded: fold(k)})
	}
	return s
}

// Keywords returns the keywords in iteration order.
func (s *Scorer) Keywords() []string {
	out := make([]string, 0, len(s.keywords))
	for _, k := range s.keywords {
		out = append(out, k.raw)
	}
	return slices.Clip(out)
}

// Score counts non-overlapping, case-insensitive occurrences of every keyword and
// returns the one with the strictly highest count. On equal counts the earlier
// keyword wins. ok is false when no keyword occurs at all.
func (s *Scorer) Score(transcript string) (match domain.RiskMatch, ok bool) {
	if transcript == "" || len(s.keywords) == 0 {
		return domain.RiskMatch{}, false
	}
	text := fold(transcript)
	for _, k := range s.keywords {
		count := strings.Count(text, k.folded)
		if count == 0 {
			continue
		}
		if !ok || count > match.Count {
			match = domain.RiskMatch{Keyword: k.raw, Count: count}
			ok = true
		}
	}
	return match, ok
}

// fold width-folds then case-folds s, so half-width katakana and full-width
// Latin match their canonical forms. A Caser carries state, so one is made per call.
func fold(s string) string {
	return cases.Fold().String(width.Fold.String(s))
}
