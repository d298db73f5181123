// Package watch implements the file-event-to-upload pipeline: a directory
// watcher feeding creation events to per-file handlers, wrapped in a
// start/stop monitoring session.
package watch

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Event is a single file creation notification.
type Event struct {
	Path       string
	ObservedAt time.Time
}

// DirWatcher owns the OS watch subscription on exactly one directory,
// non-recursive. Creation events for regular files are delivered on a
// bounded channel; directory creations are filtered out.
type DirWatcher struct {
	fw       *fsnotify.Watcher
	events   chan Event
	done     chan struct{}
	stopOnce sync.Once
}

// NewDirWatcher subscribes to creation notifications for dir and starts the
// event loop. A missing or inaccessible directory is a startup error.
func NewDirWatcher(dir string) (*DirWatcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("watch directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch path %s is not a directory", dir)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch directory %s: %w", dir, err)
	}

	w := &DirWatcher{
		fw:     fw,
		events: make(chan Event, 64),
		done:   make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Events returns the channel of creation events. It is closed after Stop.
func (w *DirWatcher) Events() <-chan Event {
	return w.events
}

func (w *DirWatcher) loop() {
	defer close(w.done)
	defer close(w.events)

	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Create) {
				continue
			}
			// Timestamp before any queueing or delay so total upload
			// time reflects true end-to-end latency.
			observed := time.Now()
			if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
				continue
			}
			w.events <- Event{Path: ev.Name, ObservedAt: observed}

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			slog.Warn("watch error", "error", err)
		}
	}
}

// Stop terminates the watch subscription. It is idempotent and blocks until
// the event loop has fully exited, so no event is delivered after it returns.
func (w *DirWatcher) Stop() {
	w.stopOnce.Do(func() {
		w.fw.Close()
	})
	<-w.done
}
