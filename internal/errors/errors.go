// Package errors is the typed-error family spec.md §7's error taxonomy is
// built from: IndexError, LockError, and WriteThroughError, each carrying
// an ErrorType, the operation that failed, and the underlying cause.
// Grounded on the teacher's internal/errors package (NewIndexingError/
// NewParseError-style constructors, chainable With* setters, Unwrap for
// errors.Is/As compatibility), narrowed to the three error families the
// Document Store, Runtime lock, and write-through boundaries actually
// produce.
package errors

import "fmt"

// ErrorType classifies an error by its spec.md §7 taxonomy row. It is a
// plain string rather than an iota so debuglog output and any future
// structured logging carry a stable, greppable tag.
type ErrorType string

const (
	ErrorTypeParse           ErrorType = "parse"
	ErrorTypeIndexerBackend  ErrorType = "indexer_backend_failure"
	ErrorTypeLockAcquire     ErrorType = "lock_acquire_failure"
	ErrorTypeWriteFailure    ErrorType = "write_failure"
	ErrorTypeAmbiguousEdit   ErrorType = "ambiguous_edit"
	ErrorTypeExactNotFound   ErrorType = "exact_not_found"
	ErrorTypeRemoteTransport ErrorType = "remote_transport"
)

// IndexError represents a failure at the Document Store's soft-fail
// boundaries: a malformed on-disk index (ErrorTypeParse) or a backend
// that failed to produce a Document for one file (ErrorTypeIndexerBackend).
// Both are recovered by the caller (empty index, stub document) rather than
// propagated, per spec.md §7's propagation policy — this type exists so the
// recovery path still logs a structured, chainable error instead of an ad
// hoc string.
type IndexError struct {
	Type       ErrorType
	Op         string
	Path       string
	Underlying error
}

// NewIndexError creates an IndexError defaulting to ErrorTypeParse; callers
// at the indexer backend boundary override it with .WithType(ErrorTypeIndexerBackend).
func NewIndexError(op string, err error) *IndexError {
	return &IndexError{Type: ErrorTypeParse, Op: op, Underlying: err}
}

// WithType overrides the default error type.
func (e *IndexError) WithType(t ErrorType) *IndexError {
	e.Type = t
	return e
}

// WithPath attaches the file or index path the failure occurred on.
func (e *IndexError) WithPath(path string) *IndexError {
	e.Path = path
	return e
}

func (e *IndexError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s %s: %v", e.Type, e.Op, e.Path, e.Underlying)
	}
	return fmt.Sprintf("%s: %s: %v", e.Type, e.Op, e.Underlying)
}

// Unwrap exposes the underlying cause to errors.Is/errors.As.
func (e *IndexError) Unwrap() error {
	return e.Underlying
}

// LockError represents a failure to acquire or hold the advisory exclusive
// lock on .cog/index.lock (spec.md §7's LockAcquireFailure: "fail the
// write, keep index untouched").
type LockError struct {
	Type       ErrorType
	Op         string
	Path       string
	Underlying error
}

// NewLockError creates a LockError with ErrorTypeLockAcquire.
func NewLockError(op string, err error) *LockError {
	return &LockError{Type: ErrorTypeLockAcquire, Op: op, Underlying: err}
}

// WithPath attaches the lock file path.
func (e *LockError) WithPath(path string) *LockError {
	e.Path = path
	return e
}

func (e *LockError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s %s: %v", e.Type, e.Op, e.Path, e.Underlying)
	}
	return fmt.Sprintf("%s: %s: %v", e.Type, e.Op, e.Underlying)
}

// Unwrap exposes the underlying cause to errors.Is/errors.As.
func (e *LockError) Unwrap() error {
	return e.Underlying
}

// WriteThroughError represents a failure in the Runtime's write-through
// mutation path: the atomic index save (ErrorTypeWriteFailure), an edit
// whose old_text is not unique (ErrorTypeAmbiguousEdit) or absent
// (ErrorTypeExactNotFound), or a remote memory-proxy call
// (ErrorTypeRemoteTransport) — the four non-lock, non-parse rows of
// spec.md §7's taxonomy that surface to the caller rather than being
// recovered silently.
type WriteThroughError struct {
	Type        ErrorType
	Op          string
	File        string
	Occurrences int
	Underlying  error
}

// NewWriteThroughError creates a WriteThroughError with ErrorTypeWriteFailure.
func NewWriteThroughError(op string, err error) *WriteThroughError {
	return &WriteThroughError{Type: ErrorTypeWriteFailure, Op: op, Underlying: err}
}

// WithType overrides the default error type.
func (e *WriteThroughError) WithType(t ErrorType) *WriteThroughError {
	e.Type = t
	return e
}

// WithFile attaches the relative file path the mutation targeted.
func (e *WriteThroughError) WithFile(file string) *WriteThroughError {
	e.File = file
	return e
}

// WithOccurrences records how many times old_text matched, for
// ErrorTypeAmbiguousEdit.
func (e *WriteThroughError) WithOccurrences(n int) *WriteThroughError {
	e.Occurrences = n
	return e
}

func (e *WriteThroughError) Error() string {
	switch e.Type {
	case ErrorTypeAmbiguousEdit:
		return fmt.Sprintf("old_text appears %d times in %s, must be unique", e.Occurrences, e.File)
	case ErrorTypeExactNotFound:
		return fmt.Sprintf("old_text not found in %s", e.File)
	default:
		if e.File != "" {
			return fmt.Sprintf("%s: %s %s: %v", e.Type, e.Op, e.File, e.Underlying)
		}
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Op, e.Underlying)
	}
}

// Unwrap exposes the underlying cause to errors.Is/errors.As.
func (e *WriteThroughError) Unwrap() error {
	return e.Underlying
}
