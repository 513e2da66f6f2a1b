package scipindex

import "github.com/sourcegraph/scip/bindings/go/scip"

// Decode builds the CodeIndex decoded view from a raw *scip.Index, per
// spec.md §3's rules for symbol_to_def, symbol_to_refs, and
// path_to_doc_index.
func Decode(raw *scip.Index) *CodeIndex {
	if raw == nil {
		raw = &scip.Index{}
	}
	c := &CodeIndex{
		Raw:          raw,
		SymbolToDef:  make(map[string]SymbolDef),
		SymbolToRefs: make(map[string][]RefEntry),
		PathToDocIdx: make(map[string]int, len(raw.Documents)),
	}

	for i, doc := range raw.Documents {
		if doc == nil {
			continue
		}
		c.PathToDocIdx[doc.RelativePath] = i

		infoBySymbol := make(map[string]*scip.SymbolInformation, len(doc.Symbols))
		for _, si := range doc.Symbols {
			if si != nil {
				infoBySymbol[si.Symbol] = si
			}
		}

		for _, occ := range doc.Occurrences {
			if occ == nil {
				continue
			}
			c.SymbolToRefs[occ.Symbol] = append(c.SymbolToRefs[occ.Symbol], RefEntry{
				Path:      doc.RelativePath,
				Line:      RangeStartLine(occ.Range),
				RoleLabel: RoleLabel(occ.SymbolRoles),
			})

			if !HasRole(occ.SymbolRoles, RoleDefinition) {
				continue
			}
			if _, exists := c.SymbolToDef[occ.Symbol]; exists {
				continue // first-wins by document order
			}

			def := SymbolDef{
				Symbol: occ.Symbol,
				Path:   doc.RelativePath,
				Line:   RangeStartLine(occ.Range),
			}
			if len(occ.EnclosingRange) > 0 {
				def.EndLine = RangeEndLine(occ.EnclosingRange)
			}
			if si := infoBySymbol[occ.Symbol]; si != nil {
				def.Kind = int32(si.Kind)
				def.DisplayName = si.DisplayName
				def.Documentation = si.Documentation
			}
			c.SymbolToDef[occ.Symbol] = def
		}
	}

	for _, si := range raw.ExternalSymbols {
		if si == nil {
			continue
		}
		if _, exists := c.SymbolToDef[si.Symbol]; exists {
			continue
		}
		c.SymbolToDef[si.Symbol] = SymbolDef{
			Symbol:        si.Symbol,
			Path:          "",
			Line:          0,
			Kind:          int32(si.Kind),
			DisplayName:   si.DisplayName,
			Documentation: si.Documentation,
		}
	}

	return c
}

// IsExternal reports whether a SymbolDef resolved from ExternalSymbols
// rather than a local document (spec.md §3: "path = \"\" and line = 0").
func (d SymbolDef) IsExternal() bool {
	return d.Path == ""
}
