package explore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sourcegraph/scip/bindings/go/scip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/cog/internal/scipindex"
	"github.com/standardbeagle/cog/internal/symbol"
)

func writeSourceFile(t *testing.T, dir, relPath, content string) {
	t.Helper()
	full := filepath.Join(dir, relPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestRunResolvesSingleCandidateAndReadsBody(t *testing.T) {
	dir := t.TempDir()
	source := "package demo\n\n// Settings holds configuration.\nfunc Settings() {\n\treturn\n}\n"
	writeSourceFile(t, dir, "settings.go", source)

	doc := &scip.Document{
		RelativePath: "settings.go",
		Symbols: []*scip.SymbolInformation{
			{Symbol: "Settings().", DisplayName: "Settings", Kind: int32(symbol.KindFunction)},
		},
		Occurrences: []*scip.Occurrence{
			{Range: scipindex.NewSingleLineRange(3, 5, 13), Symbol: "Settings().", SymbolRoles: int32(scipindex.RoleDefinition)},
		},
	}
	idx := &scipindex.CodeIndex{
		Raw:          &scip.Index{Documents: []*scip.Document{doc}},
		SymbolToDef:  map[string]scipindex.SymbolDef{"Settings().": {Symbol: "Settings().", Path: "settings.go", Line: 3, DisplayName: "Settings", Kind: int32(symbol.KindFunction)}},
		SymbolToRefs: map[string][]scipindex.RefEntry{},
		PathToDocIdx: map[string]int{"settings.go": 0},
	}

	out := Run(idx, dir, []Query{{Name: "Settings"}}, 2)
	require.Len(t, out.Results, 1)
	result := out.Results[0]
	assert.Empty(t, result.Error)
	assert.Equal(t, 2, result.StartLine) // walked back over the doc comment
	assert.Contains(t, result.Body, "func Settings()")
}

func TestRunMissingSymbolReportsError(t *testing.T) {
	idx := &scipindex.CodeIndex{
		Raw:          &scip.Index{},
		SymbolToDef:  map[string]scipindex.SymbolDef{},
		SymbolToRefs: map[string][]scipindex.RefEntry{},
		PathToDocIdx: map[string]int{},
	}
	out := Run(idx, t.TempDir(), []Query{{Name: "Nope"}}, 5)
	require.Len(t, out.Results, 1)
	assert.Equal(t, "Symbol not found", out.Results[0].Error)
}

func TestRunExternalSymbolReportsError(t *testing.T) {
	idx := &scipindex.CodeIndex{
		Raw: &scip.Index{},
		SymbolToDef: map[string]scipindex.SymbolDef{
			"fmt/Println().": {Symbol: "fmt/Println().", Path: "", DisplayName: "Println"},
		},
		SymbolToRefs: map[string][]scipindex.RefEntry{},
		PathToDocIdx: map[string]int{},
	}
	out := Run(idx, t.TempDir(), []Query{{Name: "Println"}}, 5)
	require.Len(t, out.Results, 1)
	assert.Equal(t, "Symbol is external (no source file)", out.Results[0].Error)
}

func TestRunCapsQueriesAtMax(t *testing.T) {
	idx := &scipindex.CodeIndex{
		Raw:          &scip.Index{},
		SymbolToDef:  map[string]scipindex.SymbolDef{},
		SymbolToRefs: map[string][]scipindex.RefEntry{},
		PathToDocIdx: map[string]int{},
	}
	queries := make([]Query, 40)
	for i := range queries {
		queries[i] = Query{Name: "x"}
	}
	out := Run(idx, t.TempDir(), queries, 5)
	assert.Len(t, out.Results, MaxQueries)
}

func TestRunBuildsTOCExcludingChosenAndSpacedNames(t *testing.T) {
	dir := t.TempDir()
	writeSourceFile(t, dir, "a.go", "package demo\n\nfunc Foo() {}\n\nfunc Bar() {}\n")

	doc := &scip.Document{
		RelativePath: "a.go",
		Symbols: []*scip.SymbolInformation{
			{Symbol: "Foo().", DisplayName: "Foo", Kind: int32(symbol.KindFunction)},
			{Symbol: "Bar().", DisplayName: "Bar", Kind: int32(symbol.KindFunction)},
			{Symbol: "Test case().", DisplayName: "Test case", Kind: int32(symbol.KindFunction)},
		},
		Occurrences: []*scip.Occurrence{
			{Range: scipindex.NewSingleLineRange(2, 5, 8), Symbol: "Foo().", SymbolRoles: int32(scipindex.RoleDefinition)},
			{Range: scipindex.NewSingleLineRange(4, 5, 8), Symbol: "Bar().", SymbolRoles: int32(scipindex.RoleDefinition)},
		},
	}
	idx := &scipindex.CodeIndex{
		Raw:          &scip.Index{Documents: []*scip.Document{doc}},
		SymbolToDef:  map[string]scipindex.SymbolDef{"Foo().": {Symbol: "Foo().", Path: "a.go", Line: 2, DisplayName: "Foo", Kind: int32(symbol.KindFunction)}},
		SymbolToRefs: map[string][]scipindex.RefEntry{},
		PathToDocIdx: map[string]int{"a.go": 0},
	}

	out := Run(idx, dir, []Query{{Name: "Foo"}}, 2)
	require.Len(t, out.TOCs, 1)
	names := map[string]bool{}
	for _, e := range out.TOCs[0].Entries {
		names[e.Name] = true
	}
	assert.False(t, names["Foo"], "chosen candidate excluded from its own file's TOC")
	assert.True(t, names["Bar"])
	assert.False(t, names["Test case"], "space-containing names excluded")
}
