package indexer

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/sourcegraph/scip/bindings/go/scip"
	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/cog/internal/debuglog"
	"github.com/standardbeagle/cog/internal/glob"
	"github.com/standardbeagle/cog/internal/scipindex"
)

// maxConcurrentFiles bounds the Pipeline's dispatch fan-out (spec.md §4.2,
// "bounded concurrency"), grounded on the teacher's pipeline worker-pool
// sizing.
const maxConcurrentFiles = 8

// Registry maps a file extension (including the leading dot) to the
// Backend responsible for it. Populated by the caller (typically
// cmd/cog/main.go) with GoConfig/JavaScriptConfig/PythonConfig wrapped in
// Backend values, plus any ExternalBinaryConfig entries for languages with
// a standalone indexer.
type Registry map[string]Backend

// Pipeline is the Indexer Pipeline (spec.md §4.2): it expands glob
// patterns into a bounded file list, dispatches each file to its backend
// concurrently, merges the resulting Documents into the master Index by
// path, and persists the result.
type Pipeline struct {
	ProjectRoot string
	Registry    Registry
	Exclude     []string // glob patterns; a path matching any is skipped

	// fingerprints tracks the last-indexed content hash per path so
	// ReindexFileAndSave can skip unchanged files (spec.md §4.2, "content
	// fingerprinting to avoid redundant reindex work").
	mu           sync.Mutex
	fingerprints map[string]uint64
}

// NewPipeline constructs a Pipeline rooted at projectRoot.
func NewPipeline(projectRoot string, registry Registry, exclude []string) *Pipeline {
	return &Pipeline{
		ProjectRoot:  projectRoot,
		Registry:     registry,
		Exclude:      exclude,
		fingerprints: map[string]uint64{},
	}
}

func (p *Pipeline) backendFor(path string) (Backend, bool) {
	ext := filepath.Ext(path)
	b, ok := p.Registry[ext]
	return b, ok
}

func (p *Pipeline) isExcluded(relPath string) bool {
	for _, pattern := range p.Exclude {
		if glob.Match(pattern, relPath) {
			return true
		}
	}
	return false
}

// ExpandPatterns walks the project root, bounded by each pattern's literal
// prefix directory (glob.Prefix), and returns the sorted, deduplicated set
// of relative paths matching at least one pattern and no exclude pattern,
// skipping directories glob.SkipDir flags.
func (p *Pipeline) ExpandPatterns(patterns []string) ([]string, error) {
	seen := map[string]bool{}
	var out []string

	for _, pattern := range patterns {
		prefix := glob.Prefix(pattern)
		root := filepath.Join(p.ProjectRoot, prefix)

		walkErr := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				if os.IsNotExist(err) {
					return nil
				}
				return err
			}
			rel, relErr := filepath.Rel(p.ProjectRoot, path)
			if relErr != nil {
				return relErr
			}
			rel = filepath.ToSlash(rel)

			if d.IsDir() {
				if rel != "." && glob.SkipDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if !glob.Match(pattern, rel) {
				return nil
			}
			if p.isExcluded(rel) {
				return nil
			}
			if seen[rel] {
				return nil
			}
			seen[rel] = true
			out = append(out, rel)
			return nil
		})
		if walkErr != nil {
			return nil, walkErr
		}
	}

	sort.Strings(out)
	return out, nil
}

// processResult pairs a path with its indexed Document for merge ordering.
type processResult struct {
	path string
	doc  *scip.Document
}

// IndexAll expands patterns, dispatches every matched file to its backend
// with bounded concurrency, and returns the resulting Documents in
// deterministic path order. It does no locking and no I/O against
// index.scip itself — callers that want the full
// lock-load-mutate-save-unlock sequence use IndexAllAndSave.
func (p *Pipeline) IndexAll(ctx context.Context, patterns []string) ([]*scip.Document, error) {
	paths, err := p.ExpandPatterns(patterns)
	if err != nil {
		return nil, err
	}

	results := make([]processResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFiles)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			doc := p.indexOnePath(path)
			results[i] = processResult{path: path, doc: doc}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	docs := make([]*scip.Document, len(results))
	for i, r := range results {
		docs[i] = r.doc
	}
	return docs, nil
}

// indexOnePath reads path's content and dispatches it to its registered
// backend, falling back to a stub document when no backend is registered
// for its extension or the read fails.
func (p *Pipeline) indexOnePath(relPath string) *scip.Document {
	backend, ok := p.backendFor(relPath)
	if !ok {
		debuglog.Printf("indexer: %v: %s", errNoBackend, relPath)
		return StubDocument(relPath, "")
	}

	absPath := filepath.Join(p.ProjectRoot, relPath)
	source, err := os.ReadFile(absPath)
	if err != nil {
		debuglog.Printf("indexer: read %s failed: %v", relPath, err)
		return StubDocument(relPath, "")
	}

	p.recordFingerprint(relPath, source)
	return processFile(backend, relPath, source)
}

func (p *Pipeline) recordFingerprint(path string, content []byte) {
	sum := xxhash.Sum64(content)
	p.mu.Lock()
	p.fingerprints[path] = sum
	p.mu.Unlock()
}

// unchanged reports whether content's fingerprint matches the last one
// recorded for path, meaning a reindex of this file would be redundant.
func (p *Pipeline) unchanged(path string, content []byte) bool {
	sum := xxhash.Sum64(content)
	p.mu.Lock()
	prior, ok := p.fingerprints[path]
	p.mu.Unlock()
	return ok && prior == sum
}

// MergeDocument replaces any existing Document in idx with the same
// RelativePath as doc, or appends doc if no such Document exists. This is
// a pure function: no I/O, no locking, safe to call while already holding
// the advisory file lock (spec.md §4.6.3's write-through sequencing calls
// this directly rather than through a convenience wrapper, to avoid
// acquiring the same lock twice in one mutation).
func MergeDocument(idx *scip.Index, doc *scip.Document) {
	for i, existing := range idx.Documents {
		if existing.RelativePath == doc.RelativePath {
			idx.Documents[i] = doc
			return
		}
	}
	idx.Documents = append(idx.Documents, doc)
}

// RemoveDocument deletes the Document at path from idx, if present. Pure
// function, same reentrancy rationale as MergeDocument.
func RemoveDocument(idx *scip.Index, path string) {
	for i, existing := range idx.Documents {
		if existing.RelativePath == path {
			idx.Documents = append(idx.Documents[:i], idx.Documents[i+1:]...)
			return
		}
	}
}

// RenameDocument removes the Document at oldPath and merges newDoc, which
// the caller has already indexed at the new path. Per spec.md §4.6.3 a
// rename is handled as remove-then-reindex at the Document level: no
// Occurrence or SymbolInformation string is rewritten, because symbol
// strings may or may not embed the path depending on backend.
func RenameDocument(idx *scip.Index, oldPath string, newDoc *scip.Document) {
	RemoveDocument(idx, oldPath)
	MergeDocument(idx, newDoc)
}

// cogDir returns the .cog directory under the project root.
func (p *Pipeline) cogDir() string {
	return filepath.Join(p.ProjectRoot, ".cog")
}

func (p *Pipeline) indexPath() string {
	return filepath.Join(p.cogDir(), scipindex.IndexFileName)
}

// IndexAllAndSave runs the full lock-load-index-merge-save-unlock sequence
// for a complete reindex of patterns, the convenience entrypoint for
// standalone (non-runtime) full-index runs (spec.md §4.2's top-level
// "index" operation). The Runtime's write-through layer does NOT call
// this: it holds its own lock across a read-modify-write it controls and
// calls IndexAll + MergeDocument directly (see internal/runtime/writethrough.go)
// to avoid acquiring index.lock twice in one logical mutation.
func (p *Pipeline) IndexAllAndSave(ctx context.Context, patterns []string) (*scip.Index, error) {
	var result *scip.Index
	err := scipindex.WithExclusiveLock(p.cogDir(), func() error {
		existing, _, loadErr := scipindex.Load(p.indexPath())
		if loadErr != nil {
			return loadErr
		}
		if existing.Metadata == nil {
			existing = scipindex.NewEmptyIndex(p.ProjectRoot, "cog", "dev")
		}

		docs, indexErr := p.IndexAll(ctx, patterns)
		if indexErr != nil {
			return indexErr
		}
		for _, doc := range docs {
			MergeDocument(existing, doc)
		}

		if saveErr := scipindex.Save(p.indexPath(), existing); saveErr != nil {
			return saveErr
		}
		result = existing
		return nil
	})
	return result, err
}

// ReindexFileAndSave locks, loads, reindexes a single file, merges, saves,
// and unlocks — the convenience path used outside the runtime's
// write-through sequencing (e.g. a standalone "reindex this file" CLI
// invocation). Skips the backend dispatch entirely and reuses the prior
// Document when the file's content fingerprint is unchanged.
func (p *Pipeline) ReindexFileAndSave(relPath string) (*scip.Document, error) {
	var result *scip.Document
	err := scipindex.WithExclusiveLock(p.cogDir(), func() error {
		existing, _, loadErr := scipindex.Load(p.indexPath())
		if loadErr != nil {
			return loadErr
		}
		if existing.Metadata == nil {
			existing = scipindex.NewEmptyIndex(p.ProjectRoot, "cog", "dev")
		}

		absPath := filepath.Join(p.ProjectRoot, relPath)
		source, readErr := os.ReadFile(absPath)
		if readErr != nil {
			return readErr
		}

		if p.unchanged(relPath, source) {
			for _, d := range existing.Documents {
				if d.RelativePath == relPath {
					result = d
					return nil
				}
			}
		}

		backend, ok := p.backendFor(relPath)
		var doc *scip.Document
		if ok {
			doc = processFile(backend, relPath, source)
		} else {
			doc = StubDocument(relPath, "")
		}
		p.recordFingerprint(relPath, source)

		MergeDocument(existing, doc)
		if saveErr := scipindex.Save(p.indexPath(), existing); saveErr != nil {
			return saveErr
		}
		result = doc
		return nil
	})
	return result, err
}

// RemoveFileAndSave locks, loads, removes relPath's Document, saves, and
// unlocks.
func (p *Pipeline) RemoveFileAndSave(relPath string) error {
	return scipindex.WithExclusiveLock(p.cogDir(), func() error {
		existing, _, loadErr := scipindex.Load(p.indexPath())
		if loadErr != nil {
			return loadErr
		}
		RemoveDocument(existing, relPath)

		p.mu.Lock()
		delete(p.fingerprints, relPath)
		p.mu.Unlock()

		return scipindex.Save(p.indexPath(), existing)
	})
}

// RelPath converts an absolute path under the project root to the
// slash-separated relative form used throughout the index.
func (p *Pipeline) RelPath(absPath string) (string, error) {
	rel, err := filepath.Rel(p.ProjectRoot, absPath)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// IsSourcePath reports whether relPath has an extension registered in the
// pipeline's Registry and is not excluded — the watcher uses this to
// decide whether a filesystem event is worth reacting to at all.
func (p *Pipeline) IsSourcePath(relPath string) bool {
	if p.isExcluded(relPath) {
		return false
	}
	_, ok := p.backendFor(relPath)
	return ok
}
