package watch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mhoffm/shotrelay/internal/config"
)

// Session ties a directory watcher to per-file handlers for one monitoring
// run. At most one watcher is active per session; starting again stops the
// previous one first. All log lines pass through a single ordered sink so a
// frontend can display them as they happen.
type Session struct {
	uploader Uploader
	results  ResultWriter
	sink     func(string)

	delay atomic.Int64 // nanoseconds, read fresh per event

	mu      sync.Mutex
	watcher *DirWatcher
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSession creates a session. results may be nil when upload attempts
// should not be recorded.
func NewSession(uploader Uploader, results ResultWriter, sink func(string)) *Session {
	if sink == nil {
		sink = func(string) {}
	}
	return &Session{
		uploader: uploader,
		results:  results,
		sink:     sink,
	}
}

// Start validates the config and begins watching on a background goroutine.
// Validation and watch-subscription failures are returned to the caller; the
// session is simply not started.
func (s *Session) Start(cfg *config.Config) error {
	if cfg.WebhookURL == "" {
		return fmt.Errorf("no webhook URL configured")
	}
	if cfg.WatchDirectory == "" {
		return fmt.Errorf("no watch directory configured")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.watcher != nil {
		s.stopLocked()
	}

	w, err := NewDirWatcher(cfg.WatchDirectory)
	if err != nil {
		return err
	}

	s.delay.Store(int64(config.ClampDelay(cfg.UploadDelay)) * int64(time.Second))

	h := &Handler{
		uploader:    s.uploader,
		webhookURL:  cfg.WebhookURL,
		deleteAfter: cfg.DeleteAfterUpload,
		log:         s.sink,
		results:     s.results,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.watcher = w
	s.cancel = cancel
	s.done = done

	go s.run(ctx, w, h, done)

	s.sink(fmt.Sprintf("Monitoring started: %s", cfg.WatchDirectory))
	slog.Info("monitoring started",
		"directory", cfg.WatchDirectory,
		"upload_delay", cfg.UploadDelay,
		"delete_after_upload", cfg.DeleteAfterUpload,
	)
	return nil
}

// run drains the watcher's event queue and dispatches one handler goroutine
// per created file. Events are independent and touch distinct files, so a
// slow upload or delay never blocks newly arriving events.
func (s *Session) run(ctx context.Context, w *DirWatcher, h *Handler, done chan struct{}) {
	defer close(done)

	for ev := range w.Events() {
		if ctx.Err() != nil {
			// Session is stopping; keep draining so the watcher can
			// shut down, but start no new handlers.
			continue
		}
		delay := time.Duration(s.delay.Load())
		go h.HandleCreated(ctx, ev, delay)
	}
}

// Stop ends the monitoring run. It is a no-op when not running and safe to
// call repeatedly. It returns only after the watch subscription has fully
// terminated; handlers already processing a file are allowed to finish.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Session) stopLocked() {
	if s.watcher == nil {
		return
	}
	s.cancel()
	s.watcher.Stop()
	<-s.done
	s.watcher = nil
	s.cancel = nil
	s.done = nil
	s.sink("Monitoring stopped.")
	slog.Info("monitoring stopped")
}

// Running reports whether a watcher is currently active.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watcher != nil
}

// UpdateDelay changes the delay applied to subsequently arriving events.
// A delay wait already in progress is unaffected. Last write wins.
func (s *Session) UpdateDelay(seconds int) {
	seconds = config.ClampDelay(seconds)
	s.delay.Store(int64(seconds) * int64(time.Second))
	s.sink(fmt.Sprintf("Updated upload delay to %d seconds.", seconds))
}

// Delay returns the currently configured delay in seconds.
func (s *Session) Delay() int {
	return int(time.Duration(s.delay.Load()) / time.Second)
}
