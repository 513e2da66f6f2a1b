package scipindex

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/sourcegraph/scip/bindings/go/scip"
	"google.golang.org/protobuf/proto"

	"github.com/standardbeagle/cog/internal/debuglog"
	cogerrors "github.com/standardbeagle/cog/internal/errors"
)

// IndexFileName is the on-disk name of the serialized Index within the
// project's .cog directory (spec.md §6).
const IndexFileName = "index.scip"

// LockFileName is the advisory lock file within .cog (spec.md §6).
const LockFileName = "index.lock"

// Load decodes the Index at path. A missing file is not an error: it
// returns an empty Index. A file that fails to parse is soft-failed the
// same way, per spec.md §4.1 ("On parse failure, returns an empty Index").
//
// Go's garbage-collected strings mean the decoded CodeIndex does not
// literally borrow bytes from the returned raw buffer the way a
// manual-memory implementation would; the raw bytes are still returned so
// callers that want to reason about the on-disk snapshot (or extend this
// store toward a zero-copy decoder later) have them available, and so the
// caller controls the buffer's lifetime exactly as spec.md describes.
func Load(path string) (*scip.Index, []byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &scip.Index{}, nil, nil
	}
	if err != nil {
		debuglog.Printf("scipindex: read %s failed: %v", path, err)
		return &scip.Index{}, nil, nil
	}

	idx := &scip.Index{}
	if err := proto.Unmarshal(data, idx); err != nil {
		parseErr := cogerrors.NewIndexError("parse", err).WithPath(path)
		debuglog.Printf("scipindex: %s, returning empty index", parseErr.Error())
		return &scip.Index{}, nil, nil
	}
	return idx, data, nil
}

// Save serializes idx and writes it atomically to path: write to a
// monotonic-nanosecond-suffixed temp file in the same directory, fsync,
// rename into place, and delete the temp file on any failure before the
// rename succeeds (spec.md §4.1).
func Save(path string, idx *scip.Index) error {
	data, err := proto.Marshal(idx)
	if err != nil {
		return cogerrors.NewWriteThroughError("marshal index", err).WithFile(path)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return cogerrors.NewWriteThroughError("create index dir", err).WithFile(dir)
	}

	tmpPath := filepath.Join(dir, fmt.Sprintf("%s.tmp-%d", filepath.Base(path), time.Now().UnixNano()))

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return cogerrors.NewWriteThroughError("create temp file", err).WithFile(tmpPath)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return cogerrors.NewWriteThroughError("write temp file", err).WithFile(tmpPath)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return cogerrors.NewWriteThroughError("fsync temp file", err).WithFile(tmpPath)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return cogerrors.NewWriteThroughError("close temp file", err).WithFile(tmpPath)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return cogerrors.NewWriteThroughError("rename temp file into place", err).WithFile(path)
	}
	return nil
}

// WithExclusiveLock acquires an advisory exclusive lock on
// <cogDir>/index.lock (created RW, mode 0644, never unlinked), runs f, and
// releases the lock on every exit path, per spec.md §4.1.
func WithExclusiveLock(cogDir string, f func() error) error {
	if err := os.MkdirAll(cogDir, 0o755); err != nil {
		return cogerrors.NewLockError("create .cog dir", err).WithPath(cogDir)
	}
	lockPath := filepath.Join(cogDir, LockFileName)

	// flock.New opens the file lazily on first Lock()/TryLock() call with
	// mode 0644, matching the teacher's flock idiom.
	fl := flock.New(lockPath)
	if err := fl.Lock(); err != nil {
		return cogerrors.NewLockError("acquire exclusive lock", err).WithPath(lockPath)
	}
	defer func() {
		_ = fl.Unlock()
	}()

	return f()
}

// NewEmptyIndex builds a fresh Index with the given project root, used
// when no index.scip exists yet.
func NewEmptyIndex(projectRoot, toolName, toolVersion string) *scip.Index {
	return &scip.Index{
		Metadata: &scip.Metadata{
			Version:     0,
			ToolInfo:    &scip.ToolInfo{Name: toolName, Version: toolVersion},
			ProjectRoot: projectRoot,
		},
		Documents:       []*scip.Document{},
		ExternalSymbols: []*scip.SymbolInformation{},
	}
}
