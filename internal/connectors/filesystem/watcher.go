package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/studesprit/libsearch/internal/logger"
)

// ErrClosed is returned when a closed watcher is used.
var ErrClosed = errors.New("filesystem: watcher closed")

// ChangeType describes what happened to a file.
type ChangeType int

const (
	// ChangeCreated is a new file.
	ChangeCreated ChangeType = iota
	// ChangeUpdated is a modified file.
	ChangeUpdated
	// ChangeDeleted is a removed or renamed-away file.
	ChangeDeleted
)

// String returns the change type name.
func (c ChangeType) String() string {
	switch c {
	case ChangeCreated:
		return "created"
	case ChangeUpdated:
		return "updated"
	case ChangeDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Change is a single file event.
type Change struct {
	Type ChangeType

	// Path is the absolute file path.
	Path string

	// Content and Fingerprint are empty for deletions.
	Content     []byte
	Fingerprint string
}

// Filter reports whether a file should be watched.
type Filter func(path string) bool

// Watcher reports changes to the files under a root directory.
type Watcher struct {
	rootPath string
	filter   Filter

	mu      sync.Mutex
	closed  bool
	watcher *fsnotify.Watcher
}

// New creates a watcher for rootPath. A nil filter accepts every file.
func New(rootPath string, filter Filter) *Watcher {
	if filter == nil {
		filter = func(string) bool { return true }
	}
	return &Watcher{
		rootPath: rootPath,
		filter:   filter,
	}
}

// Root returns the watched directory.
func (w *Watcher) Root() string {
	return w.rootPath
}

// Scan walks the root and reports every accepted file as created.
func (w *Watcher) Scan(ctx context.Context) ([]Change, error) {
	if err := w.checkRoot(); err != nil {
		return nil, err
	}

	var changes []Change
	err := filepath.WalkDir(w.rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("watch: skipping %s: %v", path, err)
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path != w.rootPath && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !w.filter(path) {
			return nil
		}

		change, err := readChange(path, ChangeCreated)
		if err != nil {
			logger.Warn("watch: reading %s: %v", path, err)
			return nil
		}
		changes = append(changes, *change)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return changes, nil
}

// Watch starts watching the root and its subdirectories. The returned
// channel is closed when ctx is cancelled or the watcher is closed.
func (w *Watcher) Watch(ctx context.Context) (<-chan Change, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, ErrClosed
	}
	if err := w.checkRoot(); err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := addTree(fsw, w.rootPath); err != nil {
		fsw.Close()
		return nil, err
	}
	w.watcher = fsw

	changes := make(chan Change)
	go w.loop(ctx, fsw, changes)

	return changes, nil
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, out chan<- Change) {
	defer close(out)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !isHidden(filepath.Base(event.Name)) {
					if err := addTree(fsw, event.Name); err != nil {
						logger.Warn("watch: %v", err)
					}
				}
			}

			change := w.handleFsEvent(event)
			if change == nil {
				continue
			}
			select {
			case out <- *change:
			case <-ctx.Done():
				return
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("watch: %v", err)
		}
	}
}

// handleFsEvent converts an fsnotify event into a Change, or nil when the
// event is irrelevant.
func (w *Watcher) handleFsEvent(event fsnotify.Event) *Change {
	if w.hidden(event.Name) {
		return nil
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		if !w.filter(event.Name) {
			return nil
		}
		return &Change{Type: ChangeDeleted, Path: event.Name}

	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil || info.IsDir() || !w.filter(event.Name) {
			return nil
		}

		changeType := ChangeUpdated
		if event.Has(fsnotify.Create) {
			changeType = ChangeCreated
		}
		change, err := readChange(event.Name, changeType)
		if err != nil {
			logger.Warn("watch: reading %s: %v", event.Name, err)
			return nil
		}
		return change

	default:
		return nil
	}
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if w.watcher != nil {
		return w.watcher.Close()
	}
	return nil
}

func (w *Watcher) checkRoot() error {
	info, err := os.Stat(w.rootPath)
	if err != nil {
		return fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root path error: %s is not a directory", w.rootPath)
	}
	return nil
}

func readChange(path string, changeType ChangeType) (*Change, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &Change{
		Type:        changeType,
		Path:        path,
		Content:     content,
		Fingerprint: Fingerprint(content),
	}, nil
}

// hidden checks path relative to the root so a root inside a dot
// directory is still watched.
func (w *Watcher) hidden(path string) bool {
	if rel, err := filepath.Rel(w.rootPath, path); err == nil {
		return isHidden(rel)
	}
	return isHidden(path)
}

// addTree registers dir and every non-hidden subdirectory.
func addTree(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "" || part == "." || part == ".." {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
