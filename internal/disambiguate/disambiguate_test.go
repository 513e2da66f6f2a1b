package disambiguate

import (
	"testing"

	"github.com/sourcegraph/scip/bindings/go/scip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/cog/internal/query"
	"github.com/standardbeagle/cog/internal/scipindex"
)

func matchAt(symbol, path string, score int) query.Match {
	return query.Match{Symbol: symbol, Score: score, Def: scipindex.SymbolDef{Symbol: symbol, Path: path}}
}

func indexWithDocs(docs ...*scip.Document) *scipindex.CodeIndex {
	idx := &scip.Index{Documents: docs}
	pathToIdx := map[string]int{}
	for i, d := range docs {
		pathToIdx[d.RelativePath] = i
	}
	return &scipindex.CodeIndex{Raw: idx, PathToDocIdx: pathToIdx}
}

func TestResolveNoFloatersReturnsAnchorsUnchanged(t *testing.T) {
	idx := indexWithDocs(&scip.Document{RelativePath: "a.go"})
	queries := []Query{{Name: "Foo"}}
	candidates := [][]query.Match{{matchAt("Foo#", "a.go", 100)}}

	selections := Resolve(idx, queries, candidates)
	require.Len(t, selections, 1)
	require.NotNil(t, selections[0].Candidate)
	assert.Equal(t, "Foo#", selections[0].Candidate.Symbol)
}

func TestResolveEmptyCandidatesStaysNone(t *testing.T) {
	idx := indexWithDocs()
	queries := []Query{{Name: "Nope"}}
	candidates := [][]query.Match{{}}

	selections := Resolve(idx, queries, candidates)
	require.Len(t, selections, 1)
	assert.Nil(t, selections[0].Candidate)
}

func TestResolveFloaterPicksCandidateInAnchorFile(t *testing.T) {
	// Anchor "Settings" unambiguously in a.go, which also references Bar#.
	doc := &scip.Document{
		RelativePath: "a.go",
		Occurrences: []*scip.Occurrence{
			{Symbol: "Settings#"},
			{Symbol: "Bar#"},
		},
	}
	other := &scip.Document{RelativePath: "z.go"}
	idx := indexWithDocs(doc, other)

	queries := []Query{{Name: "Settings"}, {Name: "Bar"}}
	candidates := [][]query.Match{
		{matchAt("Settings#", "a.go", 100)},
		{matchAt("Bar#", "a.go", 50), matchAt("Bar#", "z.go", 50)},
	}

	selections := Resolve(idx, queries, candidates)
	require.NotNil(t, selections[1].Candidate)
	assert.Equal(t, "a.go", selections[1].Candidate.Def.Path)
}

func TestResolvePairLinkFallbackPicksBestScoringPair(t *testing.T) {
	// Zero anchors, two floaters: one candidate pair shares a file, the
	// other doesn't. The shared-file pair should win.
	idx := indexWithDocs(
		&scip.Document{RelativePath: "same.go"},
		&scip.Document{RelativePath: "other1.go"},
		&scip.Document{RelativePath: "other2.go"},
	)

	queries := []Query{{Name: "Foo"}, {Name: "Bar"}}
	candidates := [][]query.Match{
		{matchAt("Foo#1", "same.go", 10), matchAt("Foo#2", "other1.go", 10)},
		{matchAt("Bar#1", "same.go", 10), matchAt("Bar#2", "other2.go", 10)},
	}

	selections := Resolve(idx, queries, candidates)
	require.NotNil(t, selections[0].Candidate)
	require.NotNil(t, selections[1].Candidate)
	assert.Equal(t, "same.go", selections[0].Candidate.Def.Path)
	assert.Equal(t, "same.go", selections[1].Candidate.Def.Path)
}

func TestResolveFloaterTieBreaksOnLowestIndex(t *testing.T) {
	idx := indexWithDocs(&scip.Document{RelativePath: "anchor.go"})
	queries := []Query{{Name: "Anchor"}, {Name: "Ambiguous"}}
	candidates := [][]query.Match{
		{matchAt("Anchor#", "anchor.go", 100)},
		{matchAt("Amb#1", "unrelated1.go", 50), matchAt("Amb#2", "unrelated2.go", 50)},
	}

	selections := Resolve(idx, queries, candidates)
	require.NotNil(t, selections[1].Candidate)
	assert.Equal(t, "Amb#1", selections[1].Candidate.Symbol)
}
