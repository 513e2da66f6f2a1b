package runtime

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/cog/internal/debuglog"
	"github.com/standardbeagle/cog/internal/glob"
)

// watchDebounce batches filesystem events before acting on them, matching
// the teacher's watcher debounce window; spec.md §4.6.3 leaves the exact
// interval unspecified, so this mirrors the teacher's default.
const watchDebounce = 300 * time.Millisecond

// Watcher is the Runtime's single background thread (spec.md §5): it
// recursively watches the project root, debounces batches of filesystem
// events, and applies reindex_file/remove_file per changed path, grounded
// on the teacher's internal/indexing/watcher.go fsnotify+debounce shape.
type Watcher struct {
	server  *Server
	fsw     *fsnotify.Watcher
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu      sync.Mutex
	pending map[string]bool // relative path -> exists (false means removed)
	timer   *time.Timer
}

// NewWatcher builds a Watcher over server's project root, not yet started.
func NewWatcher(server *Server) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		server:  server,
		fsw:     fsw,
		ctx:     ctx,
		cancel:  cancel,
		pending: map[string]bool{},
	}, nil
}

// Start recursively adds watches under the project root and begins
// draining events.
func (w *Watcher) Start() error {
	if err := w.addWatches(w.server.ProjectRoot); err != nil {
		return err
	}
	w.wg.Add(1)
	go w.loop()
	return nil
}

// Stop cancels the watcher's context, closes the underlying fsnotify
// watcher, and waits for the event loop to exit. Pending debounced events
// are dropped rather than flushed, matching the teacher's rationale: the
// index is being torn down anyway, and flushing during shutdown risks
// contending with it for the advisory lock.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pending = map[string]bool{}
	w.mu.Unlock()

	w.cancel()
	_ = w.fsw.Close()
	w.wg.Wait()
}

func (w *Watcher) addWatches(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && glob.SkipDir(d.Name()) {
			return filepath.SkipDir
		}
		if addErr := w.fsw.Add(path); addErr != nil {
			debuglog.Printf("runtime: watch %s failed: %v", path, addErr)
		}
		return nil
	})
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			debuglog.Printf("runtime: watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	info, statErr := os.Stat(event.Name)
	if statErr == nil && info.IsDir() {
		if event.Op&fsnotify.Create != 0 && !glob.SkipDir(info.Name()) {
			if addErr := w.fsw.Add(event.Name); addErr != nil {
				debuglog.Printf("runtime: watch new dir %s failed: %v", event.Name, addErr)
			}
		}
		return
	}

	relPath, relErr := w.server.Pipeline.RelPath(event.Name)
	if relErr != nil || !w.server.Pipeline.IsSourcePath(relPath) {
		return
	}

	exists := statErr == nil
	w.schedule(relPath, exists)
}

func (w *Watcher) schedule(relPath string, exists bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[relPath] = exists
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(watchDebounce, w.flush)
}

// flush applies every pending path's reindex or removal against the
// shared on-disk index, one mutate() call per path so a failure on one
// path does not block the rest.
func (w *Watcher) flush() {
	w.mu.Lock()
	batch := w.pending
	w.pending = map[string]bool{}
	w.mu.Unlock()

	if len(batch) == 0 {
		return
	}
	debuglog.Printf("runtime: watcher flushing %d events", len(batch))

	for relPath, exists := range batch {
		w.applyOne(relPath, exists)
	}
}

func (w *Watcher) applyOne(relPath string, exists bool) {
	if exists {
		if err := w.server.reindexFile(relPath); err != nil {
			debuglog.Printf("runtime: watcher reindex %s failed: %v", relPath, err)
		}
		return
	}
	if err := w.server.removeFile(relPath); err != nil {
		debuglog.Printf("runtime: watcher remove %s failed: %v", relPath, err)
	}
}
