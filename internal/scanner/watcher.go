package scanner

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Event signals that something under the projects root changed and a
// rescan is warranted.
type Event struct {
	// Path is the file or directory that changed.
	Path string
}

// Watcher emits an Event whenever a markdown file or project directory
// under the root changes. It uses fsnotify for cross-platform file system
// monitoring; consumers coalesce events by rescanning.
type Watcher struct {
	watcher *fsnotify.Watcher
	events  chan Event
	errors  chan error
	done    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
	root    string
}

// NewWatcher creates a Watcher for the given root. It must be started
// with Start before it emits events.
func NewWatcher(root string) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		watcher: watcher,
		events:  make(chan Event, 100),
		errors:  make(chan error, 10),
		done:    make(chan struct{}),
		root:    root,
	}, nil
}

// Events returns the channel change notifications arrive on.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the channel watch errors arrive on.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Start begins watching the root and its direct subdirectories.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return fmt.Errorf("watcher already running")
	}

	if err := w.watcher.Add(w.root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.root, err)
	}

	matches, err := filepath.Glob(filepath.Join(w.root, "*"))
	if err == nil {
		for _, match := range matches {
			// Best effort; a vanished directory surfaces later as an event.
			_ = w.watcher.Add(match)
		}
	}

	w.running = true
	w.wg.Add(1)
	go w.loop()
	return nil
}

// Stop shuts the watcher down and closes its channels.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	w.running = false

	close(w.done)
	w.watcher.Close()
	w.wg.Wait()
	close(w.events)
	close(w.errors)
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				// A new project directory needs its own watch.
				_ = w.watcher.Add(event.Name)
			}
			select {
			case w.events <- Event{Path: event.Name}:
			case <-w.done:
				return
			default:
				// Queue full; the pending events already force a rescan.
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			case <-w.done:
				return
			default:
			}
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	if strings.EqualFold(filepath.Ext(base), ".md") {
		return true
	}
	// Directory-level create/remove/rename changes the project set.
	return event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0
}
