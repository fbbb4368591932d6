package config

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches a configuration file and notifies typed handlers when it
// changes. The file is re-loaded fresh on every change so handlers never
// see stale data; rapid write bursts (editors, atomic saves) are debounced.
type Watcher[T any] struct {
	path     string
	debounce time.Duration
	loader   func(path string) (T, error)
	logger   *slog.Logger

	mu       sync.RWMutex
	handlers []func(T)

	watcher *fsnotify.Watcher
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewWatcher creates a debounced file watcher. loader is called on each
// settled change.
func NewWatcher[T any](path string, loader func(path string) (T, error), logger *slog.Logger) *Watcher[T] {
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher[T]{
		path:     path,
		debounce: 1500 * time.Millisecond,
		loader:   loader,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// OnReload registers a handler called with freshly loaded config.
func (w *Watcher[T]) OnReload(handler func(T)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, handler)
}

// Start begins watching the file.
func (w *Watcher[T]) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(w.path); err != nil {
		watcher.Close()
		return err
	}
	w.watcher = watcher
	w.logger.Info("Config watcher started", "path", w.path, "debounce", w.debounce)
	go w.watch()
	return nil
}

// Stop stops watching and releases the fsnotify handle.
func (w *Watcher[T]) Stop() error {
	w.cancel()
	if w.watcher != nil {
		return w.watcher.Close()
	}
	return nil
}

func (w *Watcher[T]) watch() {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Config watcher error", "error", err)
		}
	}
}

func (w *Watcher[T]) reload() {
	value, err := w.loader(w.path)
	if err != nil {
		w.logger.Warn("Config reload failed", "path", w.path, "error", err)
		return
	}
	w.logger.Info("Config reloaded", "path", w.path)

	w.mu.RLock()
	handlers := append(([]func(T))(nil), w.handlers...)
	w.mu.RUnlock()
	for _, handler := range handlers {
		handler(value)
	}
}
