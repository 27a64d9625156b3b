// Package textmatch implements the token-overlap text similarity shared by
// lexical search scoring and duplicate detection.
package textmatch

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// minTokenLen excludes short stop-word-like tokens to reduce false positives.
const minTokenLen = 4

// Terms splits raw text into lowercased search terms. Unlike TokenSet it
// keeps every term regardless of length and preserves order; the retriever
// matches these against titles and descriptions.
func Terms(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	terms := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, f)
	}
	return terms
}

// TokenSet tokenizes text for similarity comparison: lowercased tokens of
// length >= 4 (shorter tokens behave like stop words and inflate overlap).
func TokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range Terms(text) {
		if utf8.RuneCountInString(t) < minTokenLen {
			continue
		}
		set[t] = struct{}{}
	}
	return set
}

// Overlap computes |a ∩ b| / max(|a|, |b|, 1), a containment-safe variant of
// Jaccard similarity: a short title fully contained in a long one does not
// score 1.0.
func Overlap(a, b map[string]struct{}) float64 {
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	shared := 0
	for t := range small {
		if _, ok := large[t]; ok {
			shared++
		}
	}
	denom := len(large)
	if denom < 1 {
		denom = 1
	}
	return float64(shared) / float64(denom)
}

// TermCoverage scores how well a document's text covers the query terms:
// matched terms / total terms. Used as the lexical search score; it is a
// ratio in [0,1], never a vector distance.
func TermCoverage(terms []string, text string) float64 {
	if len(terms) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	matched := 0
	for _, t := range terms {
		if strings.Contains(lower, t) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}
