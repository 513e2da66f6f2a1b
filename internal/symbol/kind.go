package symbol

import (
	"strings"

	"github.com/sourcegraph/scip/bindings/go/scip"
)

// Kind is the real SCIP SymbolInformation.Kind enum, not a self-assigned
// numbering: an ExternalBinaryConfig backend (internal/indexer's scip-python
// etc. path) reads back SCIP documents produced by third-party indexers, and
// those documents' Kind fields are scip.SymbolInformation_Kind integers. A
// parallel, independently-numbered table would silently mis-name every kind
// read from a real SCIP file while only working correctly for cog's own
// tree-sitter-produced documents. Aliasing to the real type keeps every
// producer (internal/indexer) and consumer (internal/query,
// internal/explore) of Kind values on the one wire-compatible enum, per
// spec.md §6's requirement that the on-disk index stay a third-party-SCIP-
// consumer-compatible format.
type Kind = scip.SymbolInformation_Kind

// Kind constants used by this system, aliased from the real enum so call
// sites read the same as before this was wired to scip.SymbolInformation_Kind
// directly.
const (
	KindUnspecified = scip.SymbolInformation_UnspecifiedKind
	KindClass       = scip.SymbolInformation_Class
	KindConstant    = scip.SymbolInformation_Constant
	KindConstructor = scip.SymbolInformation_Constructor
	KindEnum        = scip.SymbolInformation_Enum
	KindEnumMember  = scip.SymbolInformation_EnumMember
	KindField       = scip.SymbolInformation_Field
	KindFunction    = scip.SymbolInformation_Function
	KindInterface   = scip.SymbolInformation_Interface
	KindMacro       = scip.SymbolInformation_Macro
	KindMethod      = scip.SymbolInformation_Method
	KindModule      = scip.SymbolInformation_Module
	KindNamespace   = scip.SymbolInformation_Namespace
	KindParameter   = scip.SymbolInformation_Parameter
	KindProperty    = scip.SymbolInformation_Property
	KindStruct      = scip.SymbolInformation_Struct
	KindTrait       = scip.SymbolInformation_Trait
	KindType        = scip.SymbolInformation_Type
	KindTypeAlias   = scip.SymbolInformation_TypeAlias
	KindUnion       = scip.SymbolInformation_Union
	KindVariable    = scip.SymbolInformation_Variable
)

// kindNames maps the subset of the real enum this system names explicitly
// (the Query Engine's kind filter and the Explore Engine's TOC only ever
// need the language-agnostic structural kinds, not SCIP's full ~80-entry
// table of literal/value kinds like String or Boolean) to the lowercase,
// underscore-separated name surfaced to MCP tool callers.
var kindNames = map[Kind]string{
	KindUnspecified: "unspecified",
	KindClass:       "class",
	KindConstant:    "constant",
	KindConstructor: "constructor",
	KindEnum:        "enum",
	KindEnumMember:  "enum_member",
	KindField:       "field",
	KindFunction:    "function",
	KindInterface:   "interface",
	KindMacro:       "macro",
	KindMethod:      "method",
	KindModule:      "module",
	KindNamespace:   "namespace",
	KindParameter:   "parameter",
	KindProperty:    "property",
	KindStruct:      "struct",
	KindTrait:       "trait",
	KindType:        "type",
	KindTypeAlias:   "type_alias",
	KindUnion:       "union",
	KindVariable:    "variable",
}

var namesToKind = func() map[string]Kind {
	out := make(map[string]Kind, len(kindNames))
	for k, name := range kindNames {
		out[name] = k
	}
	return out
}()

// KindName returns the lowercase name of a kind code, or "unspecified" for
// a code outside this system's named subset — either SCIP's zero value, or
// one of the ~60 literal/value kinds (String, Boolean, Array, ...) that the
// Query Engine's kind filter and Explore Engine TOC never need to
// distinguish by name.
func KindName(kind int32) string {
	name, ok := kindNames[Kind(kind)]
	if !ok {
		return "unspecified"
	}
	return name
}

// KindByName resolves a case-insensitive kind name back to its code,
// reporting false if unrecognized.
func KindByName(name string) (Kind, bool) {
	k, ok := namesToKind[strings.ToLower(strings.TrimSpace(name))]
	return k, ok
}

// TOCKinds is the fixed table-of-contents kind set, spec.md §4.5 step 6,
// keyed on the real scip.SymbolInformation_Kind values.
var TOCKinds = map[Kind]bool{
	KindClass:       true,
	KindConstant:    true,
	KindConstructor: true,
	KindEnum:        true,
	KindEnumMember:  true,
	KindFunction:    true,
	KindInterface:   true,
	KindMacro:       true,
	KindMethod:      true,
	KindModule:      true,
	KindStruct:      true,
	KindTrait:       true,
	KindType:        true,
	KindTypeAlias:   true,
	KindUnion:       true,
}
