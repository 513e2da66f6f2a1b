// Package glob implements the bespoke path-glob matcher required by
// spec.md §4.2: it must match patterns across platforms without pulling in
// an external glob dependency, because these patterns are user-facing and
// the exact backtracking semantics (notably "**" spanning path separators)
// are part of the system's contract, not an implementation detail that a
// third-party matcher happens to share.
package glob

import "strings"

// Match reports whether path matches pattern under the following rules:
//   - '?' matches exactly one non-'/' character.
//   - '*' matches zero or more non-'/' characters.
//   - "**" matches zero or more path segments, including '/'; a trailing
//     '/' immediately after "**" is consumed as part of the wildcard.
//   - On mismatch, backtrack to the last '*' (single or double) and advance
//     the path cursor by one character, failing if that would cross a '/'
//     for a plain '*' (a "**" may freely cross '/').
func Match(pattern, path string) bool {
	return match([]byte(pattern), []byte(path))
}

type starMark struct {
	patIdx    int // index in pattern just after the '*' (or "**/")
	pathIdx   int // index in path where the star started consuming
	isDouble  bool
}

func match(pat, path []byte) bool {
	pi, si := 0, 0
	var stars []starMark

	for si < len(path) {
		if pi < len(pat) {
			switch pat[pi] {
			case '?':
				if path[si] != '/' {
					pi++
					si++
					continue
				}
			case '*':
				isDouble := pi+1 < len(pat) && pat[pi+1] == '*'
				advance := 1
				if isDouble {
					advance = 2
					// Consume a trailing '/' right after "**".
					if pi+2 < len(pat) && pat[pi+2] == '/' {
						advance = 3
					}
				}
				stars = append(stars, starMark{patIdx: pi + advance, pathIdx: si, isDouble: isDouble})
				pi += advance
				continue
			default:
				if pat[pi] == path[si] {
					pi++
					si++
					continue
				}
			}
		}
		// Mismatch (or pattern exhausted): backtrack to the last star.
		if len(stars) == 0 {
			return false
		}
		last := &stars[len(stars)-1]
		if last.pathIdx >= len(path) {
			stars = stars[:len(stars)-1]
			continue
		}
		if !last.isDouble && path[last.pathIdx] == '/' {
			stars = stars[:len(stars)-1]
			continue
		}
		last.pathIdx++
		pi = last.patIdx
		si = last.pathIdx
	}

	// Path exhausted: trailing pattern must be all stars that can match
	// zero characters.
	for pi < len(pat) {
		if pat[pi] == '*' {
			pi++
			if pi < len(pat) && pat[pi] == '*' {
				pi++
				if pi < len(pat) && pat[pi] == '/' {
					pi++
				}
			}
			continue
		}
		return false
	}
	return true
}

// Prefix extracts the literal directory portion of pattern up to (but not
// including) the last '/' before the first wildcard character, used to
// bound the filesystem walk. Returns "." if pattern has no leading literal
// directory.
func Prefix(pattern string) string {
	wildcard := strings.IndexAny(pattern, "*?")
	literal := pattern
	if wildcard >= 0 {
		literal = pattern[:wildcard]
	}
	idx := strings.LastIndexByte(literal, '/')
	if idx < 0 {
		return "."
	}
	if idx == 0 {
		return "/"
	}
	return literal[:idx]
}

var skipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"target":       true,
	"dist":         true,
	"build":        true,
}

// SkipDir reports whether a directory name should be excluded from the
// indexing/watch walk: hidden directories and the fixed skip list (two
// common build-output names alongside node_modules/vendor/target).
func SkipDir(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	if strings.HasPrefix(name, ".") {
		return true
	}
	return skipDirs[name]
}

// NameGlob matches name-style patterns (used by the Query Engine's `find`):
// '*' matches any substring (including '/'), '?' matches exactly one
// character, case-insensitively, with no path-separator semantics at all.
// This is intentionally a different algorithm from Match: NameGlob("*init*",
// "src/init") is true, while Match("*init*", "src/init") is false, because a
// single '*' in Match cannot cross '/'.
func NameGlob(pattern, name string) bool {
	return nameGlob([]rune(strings.ToLower(pattern)), []rune(strings.ToLower(name)))
}

func nameGlob(pat, name []rune) bool {
	pi, ni := 0, 0
	starPat, starName := -1, -1

	for ni < len(name) {
		if pi < len(pat) && (pat[pi] == '?' || pat[pi] == name[ni]) {
			pi++
			ni++
			continue
		}
		if pi < len(pat) && pat[pi] == '*' {
			starPat = pi
			starName = ni
			pi++
			continue
		}
		if starPat >= 0 {
			starName++
			ni = starName
			pi = starPat + 1
			continue
		}
		return false
	}
	for pi < len(pat) && pat[pi] == '*' {
		pi++
	}
	return pi == len(pat)
}

// IsGlob reports whether s contains any glob metacharacter ('*' or '?').
func IsGlob(s string) bool {
	return strings.ContainsAny(s, "*?")
}
