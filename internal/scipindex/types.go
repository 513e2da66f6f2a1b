// Package scipindex is the Document Store (spec.md §4.1) and the decoded
// in-memory view (spec.md §3 "Decoded in-memory view (CodeIndex)"). The
// on-disk representation is a single serialized github.com/sourcegraph/scip
// Index protobuf message, chosen so that index.scip stays congruent with a
// third-party SCIP consumer per spec.md §6.
package scipindex

import (
	"github.com/sourcegraph/scip/bindings/go/scip"
)

// Role mirrors the bit flags spec.md §3 requires of every Occurrence's role
// set. Values match github.com/sourcegraph/scip's SymbolRole so that
// occurrences written by this package are readable by any SCIP consumer.
type Role int32

const (
	RoleDefinition Role = int32(scip.SymbolRole_Definition)
	RoleImport     Role = int32(scip.SymbolRole_Import)
	RoleWrite      Role = int32(scip.SymbolRole_WriteAccess)
	RoleRead       Role = int32(scip.SymbolRole_ReadAccess)
)

// RoleLabel renders the dominant role of a roles bitset as a short label,
// used by Query Engine's refs() output ("path/line/role_label").
func RoleLabel(roles int32) string {
	switch {
	case roles&int32(RoleDefinition) != 0:
		return "definition"
	case roles&int32(RoleWrite) != 0:
		return "write"
	case roles&int32(RoleImport) != 0:
		return "import"
	case roles&int32(RoleRead) != 0:
		return "read"
	default:
		return "reference"
	}
}

// HasRole reports whether roles contains r.
func HasRole(roles int32, r Role) bool {
	return roles&int32(r) != 0
}

// SymbolDef is the value type of symbol_to_def: the first Definition
// occurrence of a symbol, by document order, plus the SymbolInformation
// fields carried alongside it.
type SymbolDef struct {
	Symbol        string
	Path          string // "" for external symbols
	Line          int    // 0-based
	EndLine       int    // 0 if no enclosing_range was supplied
	Kind          int32
	DisplayName   string
	Documentation []string
}

// RefEntry is one element of symbol_to_refs: a single Occurrence of the
// symbol, reduced to what the Query Engine's refs() operation emits.
type RefEntry struct {
	Path      string
	Line      int
	RoleLabel string
}

// CodeIndex is the decoded in-memory view derived from an Index on load,
// kept consistent with it per spec.md §3's invariants. Documents and
// ExternalSymbols are borrowed from the underlying *scip.Index (Raw) and
// never copied, preserving the Index's own backing allocation.
type CodeIndex struct {
	Raw *scip.Index

	SymbolToDef   map[string]SymbolDef
	SymbolToRefs  map[string][]RefEntry
	PathToDocIdx  map[string]int
}

// Document is a convenience accessor for Raw.Documents[i].
func (c *CodeIndex) Document(i int) *scip.Document {
	if i < 0 || i >= len(c.Raw.Documents) {
		return nil
	}
	return c.Raw.Documents[i]
}

// DocumentByPath locates a document by exact relative_path match.
func (c *CodeIndex) DocumentByPath(path string) (*scip.Document, int, bool) {
	idx, ok := c.PathToDocIdx[path]
	if !ok {
		return nil, 0, false
	}
	return c.Document(idx), idx, true
}
