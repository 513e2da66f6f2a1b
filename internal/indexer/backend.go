// Package indexer is the Indexer Pipeline (spec.md §4.2): it expands glob
// patterns into file lists, dispatches each file to its backend, and merges
// the resulting Documents into the master Index.
package indexer

import (
	"fmt"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/sourcegraph/scip/bindings/go/scip"

	"github.com/standardbeagle/cog/internal/debuglog"
	cogerrors "github.com/standardbeagle/cog/internal/errors"
)

// TreeSitterConfig is one variant of the backend tagged union (spec.md §9
// "Dynamic dispatch of backends"): a tree-sitter grammar plus the query
// used to extract symbols and occurrences from its parse tree.
type TreeSitterConfig struct {
	Language string // human-readable language tag, stored on the Document
	Query    string
	NewLang  func() *tree_sitter.Language
}

// ExternalBinaryConfig is the other variant of the backend tagged union: an
// external command template with {file}/{output} substitutions, invoked
// per file, whose produced SCIP document is read back in.
type ExternalBinaryConfig struct {
	CommandTemplate []string // e.g. {"scip-python", "index", "--file", "{file}", "--output", "{output}"}
}

// Backend is the tagged variant the Pipeline dispatches on. Exactly one of
// TreeSitter or External is set.
type Backend struct {
	Extensions []string
	TreeSitter *TreeSitterConfig
	External   *ExternalBinaryConfig
}

// StubDocument returns an empty-symbols, empty-occurrences Document for
// path, inserted when a backend fails so the file still appears in
// path_to_doc_index (spec.md §4.2, "Stub document").
func StubDocument(path, language string) *scip.Document {
	return &scip.Document{
		RelativePath: path,
		Language:     language,
		Occurrences:  []*scip.Occurrence{},
		Symbols:      []*scip.SymbolInformation{},
	}
}

// processFile dispatches a single file to its backend and returns the
// resulting Document, falling back to a stub on any backend error.
func processFile(b Backend, path string, source []byte) *scip.Document {
	switch {
	case b.TreeSitter != nil:
		doc, err := indexWithTreeSitter(b.TreeSitter, path, source)
		if err != nil {
			backendErr := cogerrors.NewIndexError("index", err).WithType(cogerrors.ErrorTypeIndexerBackend).WithPath(path)
			debuglog.Printf("indexer: %s, using stub document", backendErr.Error())
			return StubDocument(path, b.TreeSitter.Language)
		}
		return doc
	case b.External != nil:
		doc, err := indexWithExternalBinary(b.External, path)
		if err != nil {
			backendErr := cogerrors.NewIndexError("index", err).WithType(cogerrors.ErrorTypeIndexerBackend).WithPath(path)
			debuglog.Printf("indexer: %s, using stub document", backendErr.Error())
			return StubDocument(path, "")
		}
		return doc
	default:
		return StubDocument(path, "")
	}
}

var errNoBackend = fmt.Errorf("indexer: no backend registered for extension")
