package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/cog/internal/scipindex"
	"github.com/standardbeagle/cog/internal/symbol"
)

func testIndex() *scipindex.CodeIndex {
	return &scipindex.CodeIndex{
		SymbolToDef: map[string]scipindex.SymbolDef{
			"local src/settings/settings.go Settings#": {
				Symbol: "local src/settings/settings.go Settings#", Path: "src/settings/settings.go",
				Line: 2, EndLine: 9, Kind: int32(symbol.KindStruct), DisplayName: "Settings",
			},
			"local src/commands/init_test.go init().": {
				Symbol: "local src/commands/init_test.go init().", Path: "src/commands/init_test.go",
				Line: 4, Kind: int32(symbol.KindFunction), DisplayName: "init",
			},
			"local deep/a/b/c/helper.go helper().": {
				Symbol: "local deep/a/b/c/helper.go helper().", Path: "deep/a/b/c/helper.go",
				Line: 1, Kind: int32(symbol.KindFunction), DisplayName: "helper",
			},
		},
		SymbolToRefs: map[string][]scipindex.RefEntry{
			"local src/settings/settings.go Settings#": {
				{Path: "src/settings/settings.go", Line: 2, RoleLabel: "definition"},
				{Path: "src/commands/init_test.go", Line: 9, RoleLabel: "read"},
			},
		},
		PathToDocIdx: map[string]int{
			"src/settings/settings.go":  0,
			"src/commands/init_test.go": 1,
		},
		Raw: nil,
	}
}

func TestFindExactMatchScoring(t *testing.T) {
	idx := testIndex()
	matches := Find(idx, "Settings", "", "")
	require.Len(t, matches, 1)
	// exact(100) + not-test-path(50) + shallow-path(10, depth=2) = 160
	assert.Equal(t, 160, matches[0].Score)
}

func TestFindTestPathLosesBonus(t *testing.T) {
	idx := testIndex()
	matches := Find(idx, "init", "", "")
	require.Len(t, matches, 1)
	// exact(100) + shallow-path(10, depth=2); no not-test-path bonus
	assert.Equal(t, 110, matches[0].Score)
}

func TestFindDeepPathLosesShallowBonus(t *testing.T) {
	idx := testIndex()
	matches := Find(idx, "helper", "", "")
	require.Len(t, matches, 1)
	// exact(100) + not-test-path(50); depth=4, no shallow bonus
	assert.Equal(t, 150, matches[0].Score)
}

func TestFindGlobMatchScoring(t *testing.T) {
	idx := testIndex()
	matches := Find(idx, "*ttings*", "", "")
	require.Len(t, matches, 1)
	// glob(80) + not-test-path(50) + shallow-path(10) = 140, never +100
	assert.Equal(t, 140, matches[0].Score)
}

func TestFindCaseInsensitiveNonGlobNoExactBonus(t *testing.T) {
	idx := testIndex()
	matches := Find(idx, "settings", "", "")
	require.Len(t, matches, 1)
	// case-insensitive match but not case-sensitive exact: no +100
	assert.Equal(t, 60, matches[0].Score)
}

func TestFindKindFilter(t *testing.T) {
	idx := testIndex()
	settingsKind := KindName(idx.SymbolToDef["local src/settings/settings.go Settings#"].Kind)
	initKind := KindName(idx.SymbolToDef["local src/commands/init_test.go init()."].Kind)
	require.NotEqual(t, settingsKind, initKind)

	matches := Find(idx, "Settings", settingsKind, "")
	require.Len(t, matches, 1)

	matches = Find(idx, "Settings", initKind, "")
	assert.Empty(t, matches)
}

func TestFindFileFilterSuffixMatch(t *testing.T) {
	idx := testIndex()
	matches := Find(idx, "Settings", "", "settings.go")
	require.Len(t, matches, 1)

	matches = Find(idx, "Settings", "", "nope.go")
	assert.Empty(t, matches)
}

func TestFindNoMatchesReturnsEmptyNotError(t *testing.T) {
	idx := testIndex()
	matches := Find(idx, "DoesNotExist", "", "")
	assert.Empty(t, matches)
}

func TestRefsResolvesTopMatchAndReturnsAllOccurrences(t *testing.T) {
	idx := testIndex()
	result, ok := Refs(idx, "Settings", "")
	require.True(t, ok)
	assert.Equal(t, "local src/settings/settings.go Settings#", result.Symbol)
	assert.Len(t, result.Refs, 2)
}

func TestRefsMissingReturnsFalse(t *testing.T) {
	idx := testIndex()
	_, ok := Refs(idx, "Nope", "")
	assert.False(t, ok)
}

func TestKindNameMatchesClosedEnumTable(t *testing.T) {
	assert.Equal(t, "struct", KindName(int32(symbol.KindStruct)))
}
