package aspectlog

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// MarkerWatcher reloads a marker file into a registry whenever the file is
// written or replaced. A file that fails to load or validate leaves the
// registry untouched.
type MarkerWatcher struct {
	path     string
	registry *MarkerRegistry
	logger   Logger
	subject  Subject

	// OnReload, when set, is called after every reload attempt.
	OnReload func(err error)

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewMarkerWatcher creates a watcher for path. subject may be nil.
func NewMarkerWatcher(path string, registry *MarkerRegistry, logger Logger, subject Subject) *MarkerWatcher {
	if logger == nil {
		logger = NopLogger{}
	}
	return &MarkerWatcher{
		path:     filepath.Clean(path),
		registry: registry,
		logger:   logger,
		subject:  subject,
	}
}

// Reload loads the file once and swaps it into the registry.
func (w *MarkerWatcher) Reload(ctx context.Context) error {
	err := w.reload()
	if err != nil {
		w.logger.Error("Marker reload failed", "path", w.path, "error", err)
		emitEvent(ctx, w.subject, w.logger, EventTypeReloadFailed, ReloadEventData{Path: w.path, Error: err.Error()})
	} else {
		n := w.registry.Len()
		w.logger.Info("Markers reloaded", "path", w.path, "markers", n)
		emitEvent(ctx, w.subject, w.logger, EventTypeMarkersReloaded, ReloadEventData{Path: w.path, Markers: n})
	}
	if w.OnReload != nil {
		w.OnReload(err)
	}
	return err
}

func (w *MarkerWatcher) reload() error {
	mf, err := LoadMarkerFile(w.path)
	if err != nil {
		return err
	}
	fresh, err := mf.Build(w.logger)
	if err != nil {
		return err
	}
	return w.registry.ReplaceWith(fresh)
}

// Start begins watching. The directory is watched rather than the file so
// editors that save by rename are picked up. Watching stops when ctx is
// cancelled or Stop is called.
func (w *MarkerWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.watcher != nil {
		return ErrWatcherRunning
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	w.watcher = watcher
	w.done = make(chan struct{})
	go w.loop(ctx, watcher, w.done)

	w.logger.Debug("Watching marker file", "path", w.path)
	return nil
}

// Stop stops watching and waits for the event loop to exit.
func (w *MarkerWatcher) Stop() error {
	w.mu.Lock()
	watcher, done := w.watcher, w.done
	w.watcher, w.done = nil, nil
	w.mu.Unlock()

	if watcher == nil {
		return ErrWatcherNotRunning
	}
	err := watcher.Close()
	<-done
	return err
}

func (w *MarkerWatcher) loop(ctx context.Context, watcher *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			_ = watcher.Close()
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				_ = w.Reload(ctx)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Marker watcher error", "path", w.path, "error", err)
		}
	}
}
