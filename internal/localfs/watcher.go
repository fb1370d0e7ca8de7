package localfs

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/veldtlabs/fsdrill/internal/constants"
)

// ChangeCallback is called when files under a watched root change.
// root is the watched directory the changes occurred under.
type ChangeCallback func(root string, changedPaths []string)

// Watcher monitors directory trees for file changes. Rapid bursts of
// events are debounced and delivered as one batch per root.
type Watcher struct {
	watcher  *fsnotify.Watcher
	callback ChangeCallback
	debounce time.Duration

	// Track watched roots
	roots map[string]struct{}

	// Debounce state - track by root
	pendingByRoot map[string]map[string]struct{}
	timer         *time.Timer
	mu            sync.Mutex

	cancel context.CancelFunc
}

// NewWatcher creates a watcher that reports batched changes through callback.
func NewWatcher(callback ChangeCallback) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:       watcher,
		callback:      callback,
		debounce:      constants.WatchDebounce,
		roots:         make(map[string]struct{}),
		pendingByRoot: make(map[string]map[string]struct{}),
	}

	return w, nil
}

// AddRoot starts watching a directory tree.
func (w *Watcher) AddRoot(root string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	if _, exists := w.roots[abs]; exists {
		return nil // Already watching
	}

	if _, err := os.Stat(abs); err != nil {
		return wrapPathError("watch", root, err)
	}

	// Add the root and all subdirectories
	err = filepath.Walk(abs, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if info.IsDir() {
			return w.watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	w.roots[abs] = struct{}{}
	return nil
}

// RemoveRoot stops watching a directory tree.
func (w *Watcher) RemoveRoot(root string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	abs, err := filepath.Abs(root)
	if err != nil {
		return
	}

	if _, exists := w.roots[abs]; !exists {
		return
	}

	// Remove all watches under this root
	filepath.Walk(abs, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			w.watcher.Remove(path)
		}
		return nil
	})

	delete(w.roots, abs)
	delete(w.pendingByRoot, abs)
}

// Start begins watching for file changes until ctx is cancelled or
// Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				w.handleEvent(event)
			case _, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				// Keep watching after transient errors
			}
		}
	}()
}

// Stop stops watching for file changes.
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.watcher.Close()
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	// Directories created under a watched root need their own watch so
	// changes inside them are seen too.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.watcher.Add(event.Name)
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	// Find which root this path belongs to
	root := w.findRoot(event.Name)
	if root == "" {
		return // Not under a watched root
	}

	// Add to pending paths for this root
	if w.pendingByRoot[root] == nil {
		w.pendingByRoot[root] = make(map[string]struct{})
	}
	w.pendingByRoot[root][event.Name] = struct{}{}

	// Reset or start debounce timer
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

// findRoot returns the watched root that contains the given path.
// The match is component-aware so sibling roots like run-ab and
// run-abcd never claim each other's events.
func (w *Watcher) findRoot(path string) string {
	for root := range w.roots {
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return root
		}
	}
	return ""
}

func (w *Watcher) flush() {
	w.mu.Lock()
	// Copy pending state and clear
	pending := w.pendingByRoot
	w.pendingByRoot = make(map[string]map[string]struct{})
	w.mu.Unlock()

	if w.callback == nil {
		return
	}

	// Deliver one sorted batch per root
	for root, pathSet := range pending {
		paths := make([]string, 0, len(pathSet))
		for p := range pathSet {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		if len(paths) > 0 {
			w.callback(root, paths)
		}
	}
}

// SetDebounce sets the debounce duration for batching file changes.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.debounce = d
}
