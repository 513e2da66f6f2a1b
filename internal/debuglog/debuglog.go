// Package debuglog is the system's one diagnostic sink. Grounded on the
// teacher's internal/debug package: stdout/stderr are the JSON-RPC wire
// while a session is active, so nothing in this process ever writes a log
// line there. Output goes to an explicit writer (tests) or an optional log
// file under the OS temp directory.
package debuglog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	mu     sync.Mutex
	output io.Writer
	file   *os.File
)

// SetOutput sets the writer debug lines are sent to. Pass nil to disable
// output entirely (the default).
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// InitLogFile opens a debug log file under
// os.TempDir()/cog-debug-logs/<pid>-<unixnano>.log and routes subsequent
// Printf calls there. Returns the path, or an error if the file could not
// be created.
func InitLogFile() (string, error) {
	mu.Lock()
	defer mu.Unlock()

	dir := filepath.Join(os.TempDir(), "cog-debug-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("debuglog: create log dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("cog-%d-%d.log", os.Getpid(), time.Now().UnixNano()))

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return "", fmt.Errorf("debuglog: open log file: %w", err)
	}
	file = f
	output = f
	return path, nil
}

// Close closes the log file opened by InitLogFile, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	output = nil
	return err
}

// Printf writes a single terse line to the configured output, if any. It is
// a silent no-op when no output has been configured, which is the default
// in an MCP session unless the operator opted into debug logging.
func Printf(format string, args ...any) {
	mu.Lock()
	w := output
	mu.Unlock()
	if w == nil {
		return
	}
	ts := time.Now().Format(time.RFC3339)
	fmt.Fprintf(w, "%s "+format+"\n", append([]any{ts}, args...)...)
}
