// Package disambiguate is the Disambiguation Engine (spec.md §4.4): given N
// name queries and their Query Engine candidate lists, it picks one
// candidate per query so the chosen set clusters into the same or
// neighboring files. The four-phase algorithm and its integer scoring are
// specified exactly and have no teacher equivalent — the teacher resolves
// ambiguity through ranked search, not anchor/floater pair-linking — so
// this package is original logic written in the teacher's idiom (small
// structs, table-driven scoring, early returns) rather than adapted code.
package disambiguate

import (
	"path"

	"github.com/standardbeagle/cog/internal/query"
	"github.com/standardbeagle/cog/internal/scipindex"
)

// Scoring constants, spec.md §4.4.
const (
	scoreSameFile      = 50
	scoreSymbolInFile  = 30
	scoreSameDirectory = 10
)

// Query is one name lookup to disambiguate against the others in the same
// call.
type Query struct {
	Name string
	Kind string
}

// Selection is the chosen candidate for one Query, or a nil Candidate if
// the Query Engine found nothing for it.
type Selection struct {
	Query     Query
	Candidate *query.Match
}

// Resolve runs the four-phase algorithm over queries and their
// corresponding candidate lists (candidateLists[i] is the Find() result
// for queries[i]).
func Resolve(idx *scipindex.CodeIndex, queries []Query, candidateLists [][]query.Match) []Selection {
	n := len(queries)
	selections := make([]Selection, n)

	type anchor struct {
		queryIdx  int
		candidate *query.Match
		fileSet   map[string]bool
	}
	var anchors []anchor
	var floaters []int // query indices with >1 candidate, still unresolved

	// Phase 1: classify.
	for i, candidates := range candidateLists {
		selections[i].Query = queries[i]
		switch len(candidates) {
		case 0:
			selections[i].Candidate = nil
		case 1:
			c := candidates[0]
			selections[i].Candidate = &c
			anchors = append(anchors, anchor{queryIdx: i, candidate: &c, fileSet: fileOccurrenceSet(idx, c.Def.Path)})
		default:
			floaters = append(floaters, i)
		}
	}

	// Phase 2: short-circuit.
	if len(floaters) == 0 {
		return selections
	}

	// Phase 3: pair-link fallback, only with zero anchors and >=2 floaters.
	if len(anchors) == 0 && len(floaters) >= 2 {
		type pairPick struct {
			fi, fj     int // indices into floaters
			ci, cj     int // indices into each query's candidate list
			score      int
		}
		best := pairPick{score: -1}

		for a := 0; a < len(floaters); a++ {
			qi := floaters[a]
			for b := a + 1; b < len(floaters); b++ {
				qj := floaters[b]
				for ci, candI := range candidateLists[qi] {
					iFileSet := fileOccurrenceSet(idx, candI.Def.Path)
					for cj, candJ := range candidateLists[qj] {
						score := 0
						if candI.Def.Path != "" && candI.Def.Path == candJ.Def.Path {
							score += scoreSameFile
						}
						jFileSet := fileOccurrenceSet(idx, candJ.Def.Path)
						if jFileSet[candI.Symbol] {
							score += scoreSymbolInFile
						}
						if iFileSet[candJ.Symbol] {
							score += scoreSymbolInFile
						}
						if sameDirectory(candI.Def.Path, candJ.Def.Path) {
							score += scoreSameDirectory
						}
						if score > best.score {
							best = pairPick{fi: a, fj: b, ci: ci, cj: cj, score: score}
						}
					}
				}
			}
		}

		if best.score >= 0 {
			qi, qj := floaters[best.fi], floaters[best.fj]
			candI := candidateLists[qi][best.ci]
			candJ := candidateLists[qj][best.cj]
			selections[qi].Candidate = &candI
			selections[qj].Candidate = &candJ
			anchors = append(anchors,
				anchor{queryIdx: qi, candidate: &candI, fileSet: fileOccurrenceSet(idx, candI.Def.Path)},
				anchor{queryIdx: qj, candidate: &candJ, fileSet: fileOccurrenceSet(idx, candJ.Def.Path)},
			)
			floaters = removeIndices(floaters, best.fi, best.fj)
		}
	}

	// Phase 4: resolve remaining floaters against the anchor set.
	for _, qi := range floaters {
		candidates := candidateLists[qi]
		bestIdx := -1
		bestScore := 0
		for ci, cand := range candidates {
			score := cand.Score
			candFileSet := fileOccurrenceSet(idx, cand.Def.Path)
			for _, a := range anchors {
				if cand.Def.Path != "" && cand.Def.Path == a.candidate.Def.Path {
					score += scoreSameFile
				}
				if a.fileSet[cand.Symbol] {
					score += scoreSymbolInFile
				}
				if candFileSet[a.candidate.Symbol] {
					score += scoreSymbolInFile
				}
				if sameDirectory(cand.Def.Path, a.candidate.Def.Path) {
					score += scoreSameDirectory
				}
			}
			if bestIdx == -1 || score > bestScore {
				bestIdx = ci
				bestScore = score
			}
		}
		if bestIdx >= 0 {
			chosen := candidates[bestIdx]
			selections[qi].Candidate = &chosen
		}
	}

	return selections
}

// fileOccurrenceSet returns the set of every symbol string that occurs
// (any role) in filePath's document, per spec.md §4.4's "file-occurrence-
// set" definition. External definitions (filePath == "") have no
// document and return an empty set.
func fileOccurrenceSet(idx *scipindex.CodeIndex, filePath string) map[string]bool {
	set := map[string]bool{}
	if filePath == "" {
		return set
	}
	doc, _, ok := idx.DocumentByPath(filePath)
	if !ok {
		return set
	}
	for _, occ := range doc.Occurrences {
		set[occ.Symbol] = true
	}
	return set
}

func sameDirectory(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return path.Dir(a) == path.Dir(b)
}

// removeIndices drops the elements at positions i and j (i<j) from
// floaters, preserving order of the rest.
func removeIndices(floaters []int, i, j int) []int {
	out := make([]int, 0, len(floaters)-2)
	for idx, v := range floaters {
		if idx == i || idx == j {
			continue
		}
		out = append(out, v)
	}
	return out
}
