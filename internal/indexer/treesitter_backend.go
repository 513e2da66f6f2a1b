package indexer

import (
	"fmt"
	"strconv"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"github.com/sourcegraph/scip/bindings/go/scip"

	"github.com/standardbeagle/cog/internal/debuglog"
	"github.com/standardbeagle/cog/internal/symbol"
)

// GoConfig, JavaScriptConfig, and PythonConfig are the reference
// TreeSitterConfig values this module ships, grounded on the teacher's
// internal/parser/parser_language_setup.go query shapes. The backend
// interface itself is generic over any tree_sitter.Language, so adding a
// grammar is a one-line config entry, not an architectural change.
var (
	GoConfig = &TreeSitterConfig{
		Language: "go",
		NewLang:  func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_go.Language()) },
		Query: `
			(function_declaration name: (identifier) @function.name) @function
			(method_declaration
				name: (field_identifier) @method.name) @method
			(type_spec name: (type_identifier) @type.name) @type
		`,
	}

	JavaScriptConfig = &TreeSitterConfig{
		Language: "javascript",
		NewLang:  func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_javascript.Language()) },
		Query: `
			(function_declaration name: (identifier) @function.name) @function
			(class_declaration name: (identifier) @class.name) @class
			(method_definition name: (property_identifier) @method.name) @method
		`,
	}

	PythonConfig = &TreeSitterConfig{
		Language: "python",
		NewLang:  func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_python.Language()) },
		Query: `
			(function_definition name: (identifier) @function.name) @function
			(class_definition name: (identifier) @class.name) @class
		`,
	}
)

func captureKind(captureName string) (int32, bool) {
	switch {
	case strings.HasPrefix(captureName, "function"):
		return int32(symbol.KindFunction), true
	case strings.HasPrefix(captureName, "method"):
		return int32(symbol.KindMethod), true
	case strings.HasPrefix(captureName, "class"):
		return int32(symbol.KindClass), true
	case strings.HasPrefix(captureName, "type"):
		return int32(symbol.KindType), true
	default:
		return 0, false
	}
}

// indexWithTreeSitter parses source with the configured grammar and query,
// producing a Document whose symbol strings are synthesized from the
// relative path and the captured definition name (there is no real package
// manager resolution at this layer — that is exactly the kind of semantic
// type inference spec.md's Non-goals place out of scope).
func indexWithTreeSitter(cfg *TreeSitterConfig, path string, source []byte) (*scip.Document, error) {
	parser := tree_sitter.NewParser()
	defer parser.Close()

	language := cfg.NewLang()
	if err := parser.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("indexer: set language for %s: %w", path, err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("indexer: parse failed for %s", path)
	}
	defer tree.Close()

	query, queryErr := tree_sitter.NewQuery(language, cfg.Query)
	if query == nil || queryErr != nil {
		return nil, fmt.Errorf("indexer: compile query for %s: %w", path, queryErr)
	}
	defer query.Close()

	cursor := tree_sitter.NewQueryCursor()
	defer cursor.Close()

	matches := cursor.Matches(query, tree.RootNode(), source)
	captureNames := query.CaptureNames()

	doc := &scip.Document{
		RelativePath: path,
		Language:     cfg.Language,
		Occurrences:  []*scip.Occurrence{},
		Symbols:      []*scip.SymbolInformation{},
	}

	seenName := map[string]int{} // disambiguate repeated names within one file
	for {
		match := matches.Next()
		if match == nil {
			break
		}

		var nameNode *tree_sitter.Node
		var nameCapture string
		var mainNode *tree_sitter.Node
		var mainCapture string

		for _, c := range match.Captures {
			cname := captureNames[c.Index]
			node := c.Node
			if strings.HasSuffix(cname, ".name") {
				nameNode = &node
				nameCapture = cname
				continue
			}
			if _, ok := captureKind(cname); ok {
				mainNode = &node
				mainCapture = cname
			}
		}
		if nameNode == nil || mainNode == nil {
			continue
		}

		kind, _ := captureKind(mainCapture)
		_ = nameCapture

		name := string(source[nameNode.StartByte():nameNode.EndByte()])
		disambiguator := ""
		if n := seenName[name]; n > 0 {
			disambiguator = strconv.Itoa(n)
		}
		seenName[name]++

		symbol := synthesizeSymbol(path, name, kind, disambiguator)

		startLine := int32(mainNode.StartPosition().Row)
		startCol := int32(mainNode.StartPosition().Column)
		endLine := int32(mainNode.EndPosition().Row)
		endCol := int32(mainNode.EndPosition().Column)

		nameStartLine := int32(nameNode.StartPosition().Row)
		nameStartCol := int32(nameNode.StartPosition().Column)
		nameEndCol := int32(nameNode.EndPosition().Column)

		doc.Occurrences = append(doc.Occurrences, &scip.Occurrence{
			Range:          newRangeForOccurrence(nameStartLine, nameStartCol, nameEndCol),
			Symbol:         symbol,
			SymbolRoles:    int32(scip.SymbolRole_Definition),
			EnclosingRange: newEnclosingRange(startLine, startCol, endLine, endCol),
		})
		doc.Symbols = append(doc.Symbols, &scip.SymbolInformation{
			Symbol:      symbol,
			DisplayName: name,
			Kind:        scip.SymbolInformation_Kind(kind),
		})
	}

	if len(doc.Occurrences) == 0 {
		debuglog.Printf("indexer: tree-sitter found no definitions in %s", path)
	}
	return doc, nil
}

func newRangeForOccurrence(line, startCol, endCol int32) []int32 {
	return []int32{line, startCol, endCol}
}

func newEnclosingRange(startLine, startCol, endLine, endCol int32) []int32 {
	if startLine == endLine {
		return []int32{startLine, startCol, endCol}
	}
	return []int32{startLine, startCol, endLine, endCol}
}

// synthesizeSymbol builds a symbol string matching spec.md §3's descriptor
// grammar: a namespace segment derived from the file path, followed by the
// short name and a trailing descriptor-suffix character. Classes, structs
// and types use the "name#" type suffix; functions and methods use the
// "name(disambiguator)." term form, where the disambiguator is empty for
// the first definition of a name in the file. Both suffixes are from the
// set {'/', '#', '.', ':', '!'}.
func synthesizeSymbol(path, name string, kind int32, disambiguator string) string {
	namespace := strings.TrimSuffix(path, pathExt(path))
	switch symbol.Kind(kind) {
	case symbol.KindClass, symbol.KindStruct, symbol.KindType:
		return fmt.Sprintf("local %s %s#", namespace, name)
	default:
		return fmt.Sprintf("local %s %s(%s).", namespace, name, disambiguator)
	}
}

func pathExt(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i:]
	}
	return ""
}
