// Package query is the Query Engine (spec.md §4.3): scored name lookup
// over the decoded index, reference listing, and per-file symbol listing.
// The scoring formula is a closed set of integer additions specified
// exactly; nothing here may perturb it with fuzzy logic — that lives
// separately in internal/suggest.
package query

import (
	"sort"
	"strings"

	"github.com/sourcegraph/scip/bindings/go/scip"

	"github.com/standardbeagle/cog/internal/glob"
	"github.com/standardbeagle/cog/internal/scipindex"
	"github.com/standardbeagle/cog/internal/symbol"
)

// KindName returns the closed-enumeration name of a kind code (see
// internal/symbol.KindName).
func KindName(kind int32) string {
	return symbol.KindName(kind)
}

// Score constants, spec.md §4.3.
const (
	scoreExactMatch  = 100
	scoreGlobMatch   = 80
	scoreNotTestPath = 50
	scoreShallowPath = 10
)

// shallowPathDepth is the inclusive upper bound of '/'-segments a path may
// have to earn the shallow-path scoring bonus.
const shallowPathDepth = 2

// Match is one scored candidate returned by Find.
type Match struct {
	Symbol string
	Def    scipindex.SymbolDef
	Score  int
}

func kindMatches(kind int32, wantKindName string) bool {
	if wantKindName == "" {
		return true
	}
	return strings.EqualFold(KindName(kind), wantKindName)
}

// fileMatches implements spec.md §4.3's file filter: match if either path
// ends with the other or they are equal.
func fileMatches(path, wantFile string) bool {
	if wantFile == "" {
		return true
	}
	if path == wantFile {
		return true
	}
	return strings.HasSuffix(path, wantFile) || strings.HasSuffix(wantFile, path)
}

// nameMatches reports whether name's base candidacy test against shortName
// and displayName succeeds, and whether that success was a case-sensitive
// exact match (only meaningful for non-glob queries, per the scoring
// rule).
func nameMatches(name, shortName, displayName string) (matched, exact bool) {
	if glob.IsGlob(name) {
		return glob.NameGlob(name, shortName) || glob.NameGlob(name, displayName), false
	}
	if name == shortName || name == displayName {
		return true, true
	}
	if strings.EqualFold(name, shortName) || strings.EqualFold(name, displayName) {
		return true, false
	}
	return false, false
}

// Find performs the scored name lookup over idx.SymbolToDef. kind and file
// are optional filters ("" disables them). Results are sorted
// stable-descending by score; an empty result is not an error.
func Find(idx *scipindex.CodeIndex, name, kind, file string) []Match {
	isGlob := glob.IsGlob(name)
	var out []Match

	for sym, def := range idx.SymbolToDef {
		if !kindMatches(def.Kind, kind) {
			continue
		}
		if !fileMatches(def.Path, file) {
			continue
		}

		shortName := symbol.ShortName(sym)
		matched, exact := nameMatches(name, shortName, def.DisplayName)
		if !matched {
			continue
		}

		score := 0
		switch {
		case exact && !isGlob:
			score += scoreExactMatch
		case isGlob:
			score += scoreGlobMatch
		}
		if !symbol.IsTestPath(def.Path) {
			score += scoreNotTestPath
		}
		if symbol.PathDepth(def.Path) <= shallowPathDepth {
			score += scoreShallowPath
		}

		out = append(out, Match{Symbol: sym, Def: def, Score: score})
	}

	sortMatchesDescending(out)
	return out
}

// sortMatchesDescending stable-sorts by descending score. Result lists are
// small, so this is a plain insertion sort rather than reaching for a
// generic algorithm with higher constant overhead.
func sortMatchesDescending(matches []Match) {
	for i := 1; i < len(matches); i++ {
		cur := matches[i]
		j := i - 1
		for j >= 0 && matches[j].Score < cur.Score {
			matches[j+1] = matches[j]
			j--
		}
		matches[j+1] = cur
	}
}

// RefsResult is the outcome of a refs lookup: the resolved definition and
// every recorded occurrence.
type RefsResult struct {
	Symbol string
	Def    scipindex.SymbolDef
	Refs   []scipindex.RefEntry
}

// Refs resolves name as Find does, takes the top-scored match, and returns
// its definition plus every entry in symbol_to_refs. The kind filter
// applies only to resolving name — not to filtering the returned
// references themselves, matching spec.md §4.3's documented (if
// surprising) observed behavior.
func Refs(idx *scipindex.CodeIndex, name, kind string) (RefsResult, bool) {
	matches := Find(idx, name, kind, "")
	if len(matches) == 0 {
		return RefsResult{}, false
	}
	top := matches[0]
	return RefsResult{
		Symbol: top.Symbol,
		Def:    top.Def,
		Refs:   idx.SymbolToRefs[top.Symbol],
	}, true
}

// SymbolEntry is one symbol listed in a file, with the definition line
// resolved by scanning occurrences (spec.md §4.3).
type SymbolEntry struct {
	Info *scip.SymbolInformation
	Line int
}

// Symbols locates file (exact, then suffix match on path_to_doc_index) and
// returns every SymbolInformation declared in its document, filtered by
// kind if given, with each entry's definition line resolved from the
// document's occurrences.
func Symbols(idx *scipindex.CodeIndex, file, kind string) ([]SymbolEntry, string, bool) {
	doc, resolvedPath, ok := resolveDocument(idx, file)
	if !ok {
		return nil, "", false
	}

	out := make([]SymbolEntry, 0, len(doc.Symbols))
	for _, info := range doc.Symbols {
		if !kindMatches(int32(info.Kind), kind) {
			continue
		}
		out = append(out, SymbolEntry{Info: info, Line: definitionLine(doc, info.Symbol)})
	}
	return out, resolvedPath, true
}

// resolveDocument locates a document by exact path match first, falling
// back to a suffix match (either direction) against every known path.
func resolveDocument(idx *scipindex.CodeIndex, file string) (*scip.Document, string, bool) {
	if doc, _, ok := idx.DocumentByPath(file); ok {
		return doc, file, true
	}

	paths := make([]string, 0, len(idx.PathToDocIdx))
	for p := range idx.PathToDocIdx {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		if strings.HasSuffix(p, file) || strings.HasSuffix(file, p) {
			doc, _, ok := idx.DocumentByPath(p)
			if ok {
				return doc, p, true
			}
		}
	}
	return nil, "", false
}

// definitionLine scans doc's occurrences for the first one whose symbol
// matches sym and whose role set contains Definition, returning its start
// line, or 0 if none is found.
func definitionLine(doc *scip.Document, sym string) int {
	for _, occ := range doc.Occurrences {
		if occ.Symbol != sym {
			continue
		}
		if !scipindex.HasRole(occ.SymbolRoles, scipindex.RoleDefinition) {
			continue
		}
		return scipindex.RangeStartLine(occ.Range)
	}
	return 0
}
