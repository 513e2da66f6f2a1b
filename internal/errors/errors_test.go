package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIndexErrorUnwrapsAndFormats(t *testing.T) {
	underlying := errors.New("unexpected EOF")
	err := NewIndexError("load", underlying).WithPath(".cog/index.scip")

	require.Equal(t, ErrorTypeParse, err.Type)
	require.True(t, errors.Is(err, underlying))
	require.Equal(t, "parse: load .cog/index.scip: unexpected EOF", err.Error())
}

func TestIndexErrorWithTypeOverridesDefault(t *testing.T) {
	underlying := errors.New("exit status 1")
	err := NewIndexError("process file", underlying).WithType(ErrorTypeIndexerBackend)
	require.Equal(t, ErrorTypeIndexerBackend, err.Type)
}

func TestLockErrorUnwrapsAndFormats(t *testing.T) {
	underlying := errors.New("resource temporarily unavailable")
	err := NewLockError("acquire exclusive lock", underlying).WithPath(".cog/index.lock")

	require.Equal(t, ErrorTypeLockAcquire, err.Type)
	require.True(t, errors.Is(err, underlying))
	require.Equal(t, "lock_acquire_failure: acquire exclusive lock .cog/index.lock: resource temporarily unavailable", err.Error())
}

func TestWriteThroughErrorAmbiguousEditMessage(t *testing.T) {
	err := NewWriteThroughError("edit", nil).
		WithType(ErrorTypeAmbiguousEdit).
		WithFile("main.go").
		WithOccurrences(3)

	require.Equal(t, "old_text appears 3 times in main.go, must be unique", err.Error())
}

func TestWriteThroughErrorExactNotFoundMessage(t *testing.T) {
	err := NewWriteThroughError("edit", nil).
		WithType(ErrorTypeExactNotFound).
		WithFile("main.go")

	require.Equal(t, "old_text not found in main.go", err.Error())
}

func TestWriteThroughErrorWriteFailureUnwraps(t *testing.T) {
	underlying := errors.New("no space left on device")
	err := NewWriteThroughError("save", underlying).WithFile(".cog/index.scip")

	require.Equal(t, ErrorTypeWriteFailure, err.Type)
	require.True(t, errors.Is(err, underlying))
}

func TestWriteThroughErrorRemoteTransportType(t *testing.T) {
	underlying := errors.New("connection refused")
	err := NewWriteThroughError("memory call", underlying).WithType(ErrorTypeRemoteTransport)
	require.Equal(t, ErrorTypeRemoteTransport, err.Type)
	require.True(t, errors.Is(err, underlying))
}
