// Package match holds the pure text normalization and per-field comparison
// functions used to score a watchlist candidate against a screening query.
//
// Every comparator has the shape (query, candidate, weight) -> score and
// guarantees 0 <= score <= weight. Comparators never fail: malformed or empty
// input simply scores 0.
package match

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lowercases, applies compatibility decomposition and strips
// diacritics, replaces every rune that is not a letter or digit with a space,
// collapses whitespace and trims.
// Normalize(Normalize(s)) == Normalize(s) for every s.
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	// Transform chains carry state, so each call builds its own.
	stripped, _, err := transform.String(
		transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		s,
	)
	if err != nil {
		stripped = s
	}

	var b strings.Builder
	b.Grow(len(stripped))
	pendingSpace := false
	for _, r := range stripped {
		if !unicode.IsLetter(r) && !unicode.IsNumber(r) {
			pendingSpace = b.Len() > 0
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
