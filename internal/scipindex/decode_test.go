package scipindex

import (
	"testing"

	"github.com/sourcegraph/scip/bindings/go/scip"
	"github.com/stretchr/testify/require"
)

func buildTestIndex() *scip.Index {
	return &scip.Index{
		Metadata: &scip.Metadata{ProjectRoot: "/proj"},
		Documents: []*scip.Document{
			{
				RelativePath: "src/settings/settings.go",
				Language:     "go",
				Symbols: []*scip.SymbolInformation{
					{Symbol: "scip-go gomod . settings/Settings#", DisplayName: "Settings", Kind: 80},
				},
				Occurrences: []*scip.Occurrence{
					{
						Range:          NewSingleLineRange(2, 5, 13),
						Symbol:         "scip-go gomod . settings/Settings#",
						SymbolRoles:    int32(RoleDefinition),
						EnclosingRange: NewRange(2, 0, 9, 1),
					},
				},
			},
			{
				RelativePath: "src/commands/init.go",
				Language:     "go",
				Symbols: []*scip.SymbolInformation{
					{Symbol: "scip-go gomod . commands/init().", DisplayName: "init", Kind: 26},
				},
				Occurrences: []*scip.Occurrence{
					{Range: NewSingleLineRange(4, 0, 4), Symbol: "scip-go gomod . commands/init().", SymbolRoles: int32(RoleDefinition)},
					{Range: NewSingleLineRange(9, 2, 19), Symbol: "scip-go gomod . settings/Settings#", SymbolRoles: int32(RoleRead)},
				},
			},
		},
		ExternalSymbols: []*scip.SymbolInformation{
			{Symbol: "scip-go gomod stdlib . fmt/Println().", DisplayName: "Println", Kind: 26},
		},
	}
}

func TestDecodeSymbolToDef(t *testing.T) {
	c := Decode(buildTestIndex())

	def, ok := c.SymbolToDef["scip-go gomod . settings/Settings#"]
	require.True(t, ok)
	require.Equal(t, "src/settings/settings.go", def.Path)
	require.Equal(t, 2, def.Line)
	require.Equal(t, 9, def.EndLine)
	require.Equal(t, "Settings", def.DisplayName)
	require.False(t, def.IsExternal())

	ext, ok := c.SymbolToDef["scip-go gomod stdlib . fmt/Println()."]
	require.True(t, ok)
	require.True(t, ext.IsExternal())
	require.Equal(t, 0, ext.Line)
}

func TestDecodeSymbolToRefsOrdering(t *testing.T) {
	c := Decode(buildTestIndex())

	refs := c.SymbolToRefs["scip-go gomod . settings/Settings#"]
	require.Len(t, refs, 2)
	require.Equal(t, "src/settings/settings.go", refs[0].Path)
	require.Equal(t, "definition", refs[0].RoleLabel)
	require.Equal(t, "src/commands/init.go", refs[1].Path)
	require.Equal(t, "read", refs[1].RoleLabel)
}

func TestDecodePathToDocIdx(t *testing.T) {
	c := Decode(buildTestIndex())
	idx, ok := c.PathToDocIdx["src/commands/init.go"]
	require.True(t, ok)
	require.Equal(t, 1, idx)
	doc, _, ok := c.DocumentByPath("src/commands/init.go")
	require.True(t, ok)
	require.Equal(t, "src/commands/init.go", doc.RelativePath)
}

func TestDecodeFirstWinsByDocumentOrder(t *testing.T) {
	idx := &scip.Index{
		Documents: []*scip.Document{
			{RelativePath: "a.go", Occurrences: []*scip.Occurrence{
				{Range: NewSingleLineRange(1, 0, 1), Symbol: "dup#", SymbolRoles: int32(RoleDefinition)},
			}},
			{RelativePath: "b.go", Occurrences: []*scip.Occurrence{
				{Range: NewSingleLineRange(9, 0, 1), Symbol: "dup#", SymbolRoles: int32(RoleDefinition)},
			}},
		},
	}
	c := Decode(idx)
	def := c.SymbolToDef["dup#"]
	require.Equal(t, "a.go", def.Path)
	require.Equal(t, 1, def.Line)
}

func TestDecodeNilIndex(t *testing.T) {
	c := Decode(nil)
	require.NotNil(t, c.SymbolToDef)
	require.Empty(t, c.SymbolToDef)
}
