// Package suggest implements the did-you-mean attachment on empty Query
// Engine results (SPEC_FULL.md §12, additive): nearest-name suggestions by
// edit distance over stemmed tokens. This is kept deliberately separate
// from internal/query so its fuzzy ranking can never leak into and
// perturb the exact integer scoring spec.md §4.3 mandates for find().
package suggest

import (
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"
	"github.com/surgebase/porter2"
)

// maxSuggestions bounds how many candidates are surfaced alongside a
// "symbol not found" result.
const maxSuggestions = 5

// Suggestion is one nearest-name candidate for a failed lookup.
type Suggestion struct {
	Name     string
	Distance int
}

// Nearest returns up to maxSuggestions names from candidates ordered by
// ascending Levenshtein distance to query, after both sides are
// Porter2-stemmed so "Resolve" and "Resolving" are treated as close even
// though their raw edit distance is 3.
func Nearest(query string, candidates []string) []Suggestion {
	if query == "" || len(candidates) == 0 {
		return nil
	}

	stemmedQuery := stem(query)
	seen := make(map[string]bool, len(candidates))
	out := make([]Suggestion, 0, len(candidates))

	for _, c := range candidates {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, Suggestion{
			Name:     c,
			Distance: edlib.LevenshteinDistance(stemmedQuery, stem(c)),
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}

// Similarity reports the Jaro-Winkler similarity (0..1, higher is closer)
// between two raw names, used when a caller wants a ranking score rather
// than a raw edit distance.
func Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	score, err := edlib.StringsSimilarity(a, b, edlib.JaroWinkler)
	if err != nil {
		return 0
	}
	return float64(score)
}

// stem lowercases and Porter2-stems every identifier-ish word in s, then
// rejoins them, so camelCase/snake_case names compare on their word roots.
func stem(s string) string {
	words := splitWords(s)
	stemmed := make([]string, len(words))
	for i, w := range words {
		stemmed[i] = porter2.Stem(strings.ToLower(w))
	}
	return strings.Join(stemmed, "")
}

// splitWords breaks a camelCase or snake_case identifier into its
// constituent words.
func splitWords(s string) []string {
	var words []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}
	runes := []rune(s)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == '.':
			flush()
		case i > 0 && isUpper(r) && !isUpper(runes[i-1]):
			flush()
			cur.WriteRune(r)
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return words
}

func isUpper(r rune) bool {
	return r >= 'A' && r <= 'Z'
}
