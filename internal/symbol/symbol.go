// Package symbol implements the symbol-identifier grammar shared by every
// component that reads or writes a Symbol string: descriptor suffix class,
// short-name extraction, and the handful of path heuristics (test
// detection, depth) the Query Engine scores against.
package symbol

import "strings"

// Suffix is the descriptor class encoded by the last meaningful character
// of a symbol string.
type Suffix byte

const (
	SuffixUnknown   Suffix = 0
	SuffixNamespace Suffix = '/'
	SuffixType      Suffix = '#'
	SuffixTerm      Suffix = '.'
	SuffixMeta      Suffix = ':'
	SuffixMacro     Suffix = '!'
)

func isSuffixByte(b byte) bool {
	switch Suffix(b) {
	case SuffixNamespace, SuffixType, SuffixTerm, SuffixMeta, SuffixMacro:
		return true
	default:
		return false
	}
}

// DescriptorSuffix returns the trailing descriptor class of a symbol, or
// SuffixUnknown if the symbol does not end in one of the recognized
// descriptor suffix characters.
func DescriptorSuffix(sym string) Suffix {
	if sym == "" {
		return SuffixUnknown
	}
	last := sym[len(sym)-1]
	if isSuffixByte(last) {
		return Suffix(last)
	}
	return SuffixUnknown
}

// ShortName extracts the short display identifier from a symbol string by
// scanning backward from the descriptor suffix. Method-form descriptors
// ("name(...).") are handled specially: the matching '(' is located and the
// name is taken from before it, skipping the parameter list and
// disambiguator entirely.
func ShortName(sym string) string {
	if sym == "" {
		return sym
	}

	end := len(sym)
	suffix := DescriptorSuffix(sym)
	if suffix != SuffixUnknown {
		end--
	}
	if end <= 0 {
		return sym
	}

	// Method form: "...name(disambiguator)." — suffix is '.', and a
	// matching '(' precedes a ')' right before the suffix.
	if suffix == SuffixTerm && end > 0 && sym[end-1] == ')' {
		if open := strings.LastIndexByte(sym[:end-1], '('); open >= 0 {
			end = open
		}
	}

	start := end
	for start > 0 {
		c := sym[start-1]
		if isIdentByte(c) {
			start--
			continue
		}
		break
	}
	if start == end {
		// No identifier characters found immediately before the cut point
		// (e.g. an empty descriptor name) — fall back to the segment
		// after the last namespace/type separator.
		if idx := lastSeparator(sym[:end]); idx >= 0 {
			start = idx + 1
		} else {
			start = 0
		}
	}
	return sym[start:end]
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func lastSeparator(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		switch s[i] {
		case '/', '#', '.', ':', '!':
			return i
		}
	}
	return -1
}

var testSuffixes = []string{
	".test.js", ".test.ts", ".spec.js", ".spec.ts", "_test.go", "_test.py",
}

// IsTestPath reports whether path looks like a test file, per the
// substring-or-suffix heuristic in spec.md §4.3. This intentionally also
// matches paths that merely contain "test" as a substring (e.g.
// "src/contest/foo.go") — documented spec behavior, not a bug.
func IsTestPath(path string) bool {
	lower := strings.ToLower(path)
	if strings.Contains(lower, "test") || strings.Contains(lower, "__tests__") || strings.Contains(lower, "spec") {
		return true
	}
	for _, suf := range testSuffixes {
		if strings.HasSuffix(lower, suf) {
			return true
		}
	}
	return false
}

// PathDepth counts the '/' separators in path, ignoring leading and
// trailing ones ("src/pkg/a.go" is 2), used by the Query Engine's
// shallow-path scoring bonus.
func PathDepth(path string) int {
	return strings.Count(strings.Trim(path, "/"), "/")
}
