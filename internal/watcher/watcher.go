// Package watcher reports file changes under a directory tree.
package watcher

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/notebook-cli/internal/logger"
)

// DefaultDebounce is how long a path must be quiet before its change is
// reported. Editors often write a file several times in a row.
const DefaultDebounce = 500 * time.Millisecond

// Change is a settled modification of one file.
type Change struct {
	// Path is the absolute file path.
	Path string

	// Deleted is true when the file was removed or renamed away.
	Deleted bool
}

// Config configures a Watcher.
type Config struct {
	// Dir is the directory to watch recursively.
	Dir string

	// Include lists doublestar patterns, relative to Dir, a file must
	// match. Empty defers to Accept.
	Include []string

	// Accept filters files when Include is empty. Nil accepts everything.
	Accept func(path string) bool

	// Debounce overrides DefaultDebounce.
	Debounce time.Duration
}

// Watcher watches a directory tree with fsnotify.
type Watcher struct {
	root     string
	include  []string
	accept   func(string) bool
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// New validates cfg and creates a Watcher.
func New(cfg Config) (*Watcher, error) {
	root, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.New("watch target is not a directory: " + root)
	}
	for _, p := range cfg.Include {
		if !doublestar.ValidatePattern(p) {
			return nil, errors.New("invalid include pattern: " + p)
		}
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		root:     root,
		include:  cfg.Include,
		accept:   cfg.Accept,
		debounce: debounce,
		pending:  make(map[string]*time.Timer),
	}, nil
}

// Root returns the absolute watched directory.
func (w *Watcher) Root() string {
	return w.root
}

// Run watches until ctx is done, calling handle once per settled change.
// handle is never called concurrently for the same path.
func (w *Watcher) Run(ctx context.Context, handle func(context.Context, Change)) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := w.addTree(fsw, w.root); err != nil {
		return err
	}
	logger.Info("watching %s", w.root)

	changes := make(chan Change, 64)
	stop := make(chan struct{})
	var handlers sync.WaitGroup
	handlers.Add(1)
	go func() {
		defer handlers.Done()
		for {
			select {
			case c := <-changes:
				handle(ctx, c)
			case <-stop:
				return
			}
		}
	}()
	defer func() {
		w.stopTimers()
		close(stop)
		handlers.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error: %v", err)
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) && isDir(event.Name) && !isHidden(w.rel(event.Name)) {
				if err := w.addTree(fsw, event.Name); err != nil {
					logger.Warn("watch %s: %v", event.Name, err)
				}
				continue
			}
			if change, ok := w.handleEvent(event); ok {
				w.schedule(change, changes, stop)
			}
		}
	}
}

// handleEvent maps an fsnotify event to a change, skipping directories,
// hidden paths, chmod-only events and files that do not match.
func (w *Watcher) handleEvent(event fsnotify.Event) (Change, bool) {
	rel := w.rel(event.Name)
	if isHidden(rel) || !w.matches(rel) {
		return Change{}, false
	}
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return Change{Path: event.Name, Deleted: true}, true
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		if isDir(event.Name) {
			return Change{}, false
		}
		return Change{Path: event.Name}, true
	default:
		return Change{}, false
	}
}

// schedule reports change after the path has been quiet for the debounce
// interval. A later change to the same path replaces an earlier one.
func (w *Watcher) schedule(change Change, out chan<- Change, stop <-chan struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[change.Path]; ok {
		t.Stop()
	}
	w.pending[change.Path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, change.Path)
		w.mu.Unlock()

		// A file removed and recreated within the window is an update.
		if change.Deleted && fileExists(change.Path) {
			change.Deleted = false
		}
		select {
		case out <- change:
		case <-stop:
		}
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}

// Scan returns every existing file the watcher would report.
func (w *Watcher) Scan() ([]string, error) {
	var files []string
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel := w.rel(path)
		if isHidden(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && w.matches(rel) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func (w *Watcher) addTree(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if isHidden(w.rel(path)) {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
}

func (w *Watcher) matches(rel string) bool {
	if len(w.include) == 0 {
		return w.accept == nil || w.accept(rel)
	}
	for _, p := range w.include {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

func (w *Watcher) rel(path string) string {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// isHidden reports whether any element of a slash-separated relative path
// starts with a dot. "." and ".." are not hidden.
func isHidden(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if len(part) > 1 && part[0] == '.' && part != ".." {
			return true
		}
	}
	return false
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
