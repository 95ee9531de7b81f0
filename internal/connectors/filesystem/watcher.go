package filesystem

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/vectorlite-cli/internal/logger"
)

// DefaultDebounce is how long a file must be quiet before it is reported.
const DefaultDebounce = 500 * time.Millisecond

// EventType classifies a change in the watched directory.
type EventType string

const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventRemoved EventType = "removed"
)

// Event is a settled change to one file.
type Event struct {
	Type EventType
	Path string
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet interval. Zero or less reports every event
// immediately.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithFilter restricts events to paths for which keep returns true.
func WithFilter(keep func(path string) bool) Option {
	return func(w *Watcher) {
		w.filter = keep
	}
}

// Watcher reports files added to or changed in a directory.
type Watcher struct {
	rootPath string
	debounce time.Duration
	filter   func(path string) bool

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	closed  bool
}

// New creates a watcher for rootPath. The directory is not opened until
// Watch or Scan is called.
func New(rootPath string, opts ...Option) *Watcher {
	w := &Watcher{
		rootPath: rootPath,
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Root returns the watched directory.
func (w *Watcher) Root() string {
	return w.rootPath
}

// Validate checks that the root exists and is a directory.
func (w *Watcher) Validate() error {
	info, err := os.Stat(w.rootPath)
	if err != nil {
		return fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root path error: %s is not a directory", w.rootPath)
	}
	return nil
}

// Scan lists the files already present in the root, sorted by name.
func (w *Watcher) Scan() ([]string, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(w.rootPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", w.rootPath, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || isHidden(e.Name()) {
			continue
		}
		path := filepath.Join(w.rootPath, e.Name())
		if w.filter != nil && !w.filter(path) {
			continue
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// Watch starts watching the root. The returned channel is closed when ctx
// is cancelled or the watcher is closed.
func (w *Watcher) Watch(ctx context.Context) (<-chan Event, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, errors.New("watcher is closed")
	}
	if w.watcher != nil {
		return nil, errors.New("already watching")
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fw.Add(w.rootPath); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watching %s: %w", w.rootPath, err)
	}
	w.watcher = fw

	out := make(chan Event, 16)
	go w.loop(ctx, fw, out)

	logger.Debug("Watching %s (debounce %s)", w.rootPath, w.debounce)
	return out, nil
}

type pendingEvent struct {
	event Event
	seen  time.Time
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher, out chan<- Event) {
	defer close(out)

	pending := make(map[string]pendingEvent)
	var tick <-chan time.Time
	if w.debounce > 0 {
		ticker := time.NewTicker(max(w.debounce/2, 10*time.Millisecond))
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return

		case fsEvent, ok := <-fw.Events:
			if !ok {
				return
			}
			ev := w.handleFsEvent(fsEvent)
			if ev == nil {
				continue
			}
			if w.debounce <= 0 {
				if !send(ctx, out, *ev) {
					return
				}
				continue
			}
			// a write right after a create is still a new file
			if prev, ok := pending[ev.Path]; ok && prev.event.Type == EventCreated && ev.Type == EventUpdated {
				ev.Type = EventCreated
			}
			pending[ev.Path] = pendingEvent{event: *ev, seen: time.Now()}

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			logger.Warn("Watch error on %s: %v", w.rootPath, err)

		case now := <-tick:
			ready := make([]string, 0, len(pending))
			for path, p := range pending {
				if now.Sub(p.seen) >= w.debounce {
					ready = append(ready, path)
				}
			}
			sort.Strings(ready)
			for _, path := range ready {
				ev := pending[path].event
				delete(pending, path)
				if !send(ctx, out, ev) {
					return
				}
			}
		}
	}
}

func send(ctx context.Context, out chan<- Event, ev Event) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// handleFsEvent converts a raw notification into an Event, or nil when
// it should be ignored.
func (w *Watcher) handleFsEvent(event fsnotify.Event) *Event {
	rel, err := filepath.Rel(w.rootPath, event.Name)
	if err != nil {
		rel = filepath.Base(event.Name)
	}
	if isHidden(rel) {
		return nil
	}
	if w.filter != nil && !w.filter(event.Name) {
		return nil
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return &Event{Type: EventRemoved, Path: event.Name}

	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil || info.IsDir() {
			return nil
		}
		t := EventUpdated
		if event.Has(fsnotify.Create) {
			t = EventCreated
		}
		return &Event{Type: t, Path: event.Name}
	}
	return nil
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	if w.watcher == nil {
		return nil
	}
	return w.watcher.Close()
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
