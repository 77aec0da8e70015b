// Package watch re-analyzes templates as they change on disk.
package watch

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"

	"github.com/panbanda/deadroute/internal/scanner"
	"github.com/panbanda/deadroute/pkg/config"
)

// DefaultDebounce is how long a template must stay unchanged before its
// change is reported.
const DefaultDebounce = 500 * time.Millisecond

// Event is a settled change to one template.
type Event struct {
	Path    string
	Removed bool
}

type pendingChange struct {
	at      time.Time
	removed bool
}

// Watcher monitors a template tree for changes.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	scanner   *scanner.Scanner
	config    *config.Config
	debounce  time.Duration
	path      string
	out       io.Writer
	callback  func(Event)
	mu        sync.Mutex
	pending   map[string]pendingChange
}

// NewWatcher creates a watcher for the template tree at path.
func NewWatcher(path string, cfg *config.Config, debounce time.Duration) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		fsWatcher: fsWatcher,
		scanner:   scanner.NewScanner(cfg),
		config:    cfg,
		debounce:  debounce,
		path:      path,
		out:       os.Stdout,
		pending:   make(map[string]pendingChange),
	}, nil
}

// SetCallback sets the function to call when a template settles.
func (w *Watcher) SetCallback(cb func(Event)) {
	w.callback = cb
}

// SetOutput redirects status messages; nil silences them.
func (w *Watcher) SetOutput(out io.Writer) {
	if out == nil {
		out = io.Discard
	}
	w.out = out
}

// Start watches until ctx is done. The root must be an existing directory.
func (w *Watcher) Start(ctx context.Context) error {
	// Validates the root and loads the exclusion rules.
	if _, err := w.scanner.ScanDir(w.path); err != nil {
		return err
	}

	err := filepath.WalkDir(w.path, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		return w.addDir(path)
	})
	if err != nil {
		return err
	}

	w.status(color.FgCyan, "Watching for changes in %s...", w.path)
	w.status(color.FgCyan, "Press Ctrl+C to stop")
	fmt.Fprintln(w.out)

	go w.processDebounced(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.status(color.FgRed, "Watch error: %v", err)
		}
	}
}

// addDir watches dir unless it is excluded. Excluded subtrees are skipped.
func (w *Watcher) addDir(dir string) error {
	if w.scanner.Excluded(w.rel(dir), true) {
		return filepath.SkipDir
	}
	return w.fsWatcher.Add(dir)
}

// handleEvent records a template change, or starts watching a new directory.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			_ = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
				if err != nil {
					return nil
				}
				if d.IsDir() {
					return w.addDir(p)
				}
				// Templates written before the watch was added.
				if w.accepts(p) {
					w.mark(p, false)
				}
				return nil
			})
			return
		}
	}

	if !w.accepts(path) {
		return
	}

	switch {
	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		w.mark(path, true)
	case event.Op.Has(fsnotify.Write), event.Op.Has(fsnotify.Create):
		w.mark(path, false)
	}
}

func (w *Watcher) accepts(path string) bool {
	return w.config.IsTemplate(path) && !w.scanner.Excluded(w.rel(path), false)
}

func (w *Watcher) mark(path string, removed bool) {
	w.mu.Lock()
	w.pending[path] = pendingChange{at: time.Now(), removed: removed}
	w.mu.Unlock()
}

// processDebounced processes pending changes after debounce period.
func (w *Watcher) processDebounced(ctx context.Context) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processPending()
		}
	}
}

// processPending reports templates that have been stable for the debounce
// period, in path order, one at a time.
func (w *Watcher) processPending() {
	w.mu.Lock()
	now := time.Now()
	var ready []Event
	for path, change := range w.pending {
		if now.Sub(change.at) >= w.debounce {
			// A rename away followed by a write back is a change, not a removal.
			removed := change.removed
			if removed {
				if _, err := os.Stat(path); err == nil {
					removed = false
				}
			}
			ready = append(ready, Event{Path: path, Removed: removed})
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	sort.Slice(ready, func(i, j int) bool { return ready[i].Path < ready[j].Path })
	for _, ev := range ready {
		if w.callback != nil {
			w.runCallback(ev)
		}
	}
}

// runCallback executes the callback for a settled template.
func (w *Watcher) runCallback(ev Event) {
	verb := "changed"
	if ev.Removed {
		verb = "removed"
	}
	w.status(color.FgYellow, "\nTemplate %s: %s", verb, w.rel(ev.Path))
	fmt.Fprintln(w.out, strings.Repeat("-", 40))

	w.callback(ev)

	fmt.Fprintln(w.out)
}

func (w *Watcher) rel(path string) string {
	rel, err := filepath.Rel(w.path, path)
	if err != nil {
		return path
	}
	return rel
}

func (w *Watcher) status(attr color.Attribute, format string, args ...any) {
	color.New(attr).Fprintf(w.out, format+"\n", args...)
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.fsWatcher.Close()
}

// WatchedDirs returns the directories being watched.
func (w *Watcher) WatchedDirs() []string {
	dirs := w.fsWatcher.WatchList()
	sort.Strings(dirs)
	return dirs
}
