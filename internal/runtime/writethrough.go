package runtime

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/sourcegraph/scip/bindings/go/scip"

	cogerrors "github.com/standardbeagle/cog/internal/errors"
	"github.com/standardbeagle/cog/internal/indexer"
	"github.com/standardbeagle/cog/internal/scipindex"
)

// mutate runs f under the project's advisory exclusive lock against the
// current on-disk Index, saves the result, and refreshes the cached
// decoded view — the write-through sequence of spec.md §4.6.3. f mutates
// idx in place; the Runtime never goes through the Pipeline's
// locking convenience wrappers here, since those would acquire
// index.lock a second time within one logical mutation.
func (s *Server) mutate(f func(idx *scip.Index) error) error {
	return scipindex.WithExclusiveLock(s.CogDir, func() error {
		raw, _, err := scipindex.Load(s.indexPath())
		if err != nil {
			return err
		}
		if raw.Metadata == nil {
			raw = scipindex.NewEmptyIndex(s.ProjectRoot, ServerName, ServerVersion)
		}
		if err := f(raw); err != nil {
			return err
		}
		if err := scipindex.Save(s.indexPath(), raw); err != nil {
			return err
		}
		s.Reload()
		return nil
	})
}

// reindexPathLocked runs the Indexer Pipeline over exactly one relative
// path and merges the resulting Document into idx. Called from inside an
// already-held mutate() lock.
func (s *Server) reindexPathLocked(ctx context.Context, idx *scip.Index, relPath string) error {
	docs, err := s.Pipeline.IndexAll(ctx, []string{relPath})
	if err != nil {
		return err
	}
	for _, doc := range docs {
		indexer.MergeDocument(idx, doc)
	}
	return nil
}

// reindexFile applies the write-through sequence to reindex a single
// already-on-disk path — used by the watcher when a save is observed
// outside of any MCP write tool call.
func (s *Server) reindexFile(relPath string) error {
	return s.mutate(func(idx *scip.Index) error {
		return s.reindexPathLocked(context.Background(), idx, relPath)
	})
}

// removeFile applies the write-through sequence to remove a path's
// document — used by the watcher when a file disappears outside of any
// MCP write tool call.
func (s *Server) removeFile(relPath string) error {
	return s.mutate(func(idx *scip.Index) error {
		indexer.RemoveDocument(idx, relPath)
		return nil
	})
}

func (s *Server) toolEdit(args map[string]any) callToolResult {
	relPath := stringArg(args, "file")
	oldText := stringArg(args, "old_text")
	newText := stringArg(args, "new_text")
	if relPath == "" || oldText == "" {
		return errorResult("file and old_text are required")
	}

	absPath := filepath.Join(s.ProjectRoot, relPath)
	data, err := os.ReadFile(absPath)
	if err != nil {
		return errorResult("File not found in index")
	}
	content := string(data)

	count := strings.Count(content, oldText)
	switch count {
	case 0:
		err := cogerrors.NewWriteThroughError("edit", nil).WithType(cogerrors.ErrorTypeExactNotFound).WithFile(relPath)
		return errorResult("%s", err.Error())
	case 1:
		// exact, unique match — proceed
	default:
		err := cogerrors.NewWriteThroughError("edit", nil).WithType(cogerrors.ErrorTypeAmbiguousEdit).WithFile(relPath).WithOccurrences(count)
		return errorResult("%s", err.Error())
	}

	updated := strings.Replace(content, oldText, newText, 1)
	if err := os.WriteFile(absPath, []byte(updated), 0o644); err != nil {
		return errorResult("%s", cogerrors.NewWriteThroughError("write", err).WithFile(relPath).Error())
	}

	mutateErr := s.mutate(func(idx *scip.Index) error {
		return s.reindexPathLocked(context.Background(), idx, relPath)
	})
	if mutateErr != nil {
		return errorResult("%s", cogerrors.NewWriteThroughError("reindex", mutateErr).WithFile(relPath).Error())
	}
	return textResult(map[string]any{"file": relPath, "status": "edited"})
}

func (s *Server) toolCreate(args map[string]any) callToolResult {
	relPath := stringArg(args, "file")
	content := stringArg(args, "content")
	if relPath == "" {
		return errorResult("file is required")
	}

	absPath := filepath.Join(s.ProjectRoot, relPath)
	if _, err := os.Stat(absPath); err == nil {
		return errorResult("%s already exists", relPath)
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return errorResult("%s", cogerrors.NewWriteThroughError("create parent directories", err).WithFile(relPath).Error())
	}
	if err := os.WriteFile(absPath, []byte(content), 0o644); err != nil {
		return errorResult("%s", cogerrors.NewWriteThroughError("write", err).WithFile(relPath).Error())
	}

	mutateErr := s.mutate(func(idx *scip.Index) error {
		return s.reindexPathLocked(context.Background(), idx, relPath)
	})
	if mutateErr != nil {
		return errorResult("%s", cogerrors.NewWriteThroughError("reindex", mutateErr).WithFile(relPath).Error())
	}
	return textResult(map[string]any{"file": relPath, "status": "created"})
}

func (s *Server) toolDelete(args map[string]any) callToolResult {
	relPath := stringArg(args, "file")
	if relPath == "" {
		return errorResult("file is required")
	}

	absPath := filepath.Join(s.ProjectRoot, relPath)
	if err := os.Remove(absPath); err != nil {
		return errorResult("%s", cogerrors.NewWriteThroughError("delete", err).WithFile(relPath).Error())
	}

	mutateErr := s.mutate(func(idx *scip.Index) error {
		indexer.RemoveDocument(idx, relPath)
		return nil
	})
	if mutateErr != nil {
		return errorResult("%s", cogerrors.NewWriteThroughError("index update", mutateErr).WithFile(relPath).Error())
	}
	return textResult(map[string]any{"file": relPath, "status": "deleted"})
}

func (s *Server) toolRename(args map[string]any) callToolResult {
	fromPath := stringArg(args, "from")
	toPath := stringArg(args, "to")
	if fromPath == "" || toPath == "" {
		return errorResult("from and to are required")
	}

	absFrom := filepath.Join(s.ProjectRoot, fromPath)
	absTo := filepath.Join(s.ProjectRoot, toPath)
	if err := os.MkdirAll(filepath.Dir(absTo), 0o755); err != nil {
		return errorResult("%s", cogerrors.NewWriteThroughError("create parent directories", err).WithFile(toPath).Error())
	}
	if err := os.Rename(absFrom, absTo); err != nil {
		return errorResult("%s", cogerrors.NewWriteThroughError("rename", err).WithFile(fromPath).Error())
	}

	mutateErr := s.mutate(func(idx *scip.Index) error {
		indexer.RemoveDocument(idx, fromPath)
		return s.reindexPathLocked(context.Background(), idx, toPath)
	})
	if mutateErr != nil {
		return errorResult("%s", cogerrors.NewWriteThroughError("reindex", mutateErr).WithFile(toPath).Error())
	}
	return textResult(map[string]any{"from": fromPath, "to": toPath, "status": "renamed"})
}
