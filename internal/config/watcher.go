package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads the configuration file when it changes on disk and
// hands the result to a callback. Reload failures keep the old config.
type Watcher struct {
	logger  *zap.Logger
	path    string
	watcher *fsnotify.Watcher

	mu      sync.Mutex
	running bool

	// Editors fire several write events per save; coalesce them.
	debounce time.Duration
	timer    *time.Timer

	stop chan struct{}
	done chan struct{}
}

// NewWatcher creates a new configuration watcher.
func NewWatcher(logger *zap.Logger, path string) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &Watcher{
		logger:   logger,
		path:     path,
		watcher:  watcher,
		debounce: time.Second,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching; onChange receives each successfully reloaded config.
func (w *Watcher) Start(onChange func(*Config)) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("config watcher already running")
	}

	if err := w.watcher.Add(w.path); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.path, err)
	}
	w.running = true

	go w.run(onChange)

	w.logger.Info("Config watcher started", zap.String("path", w.path))
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stop)
	<-w.done
	w.watcher.Close()

	w.logger.Info("Config watcher stopped")
}

func (w *Watcher) run(onChange func(*Config)) {
	defer close(w.done)

	for {
		select {
		case <-w.stop:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.scheduleReload(onChange)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Config watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) scheduleReload(onChange func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		cfg, err := Load(w.path)
		if err != nil {
			w.logger.Error("Config reload failed, keeping previous config",
				zap.String("path", w.path),
				zap.Error(err),
			)
			return
		}

		w.logger.Info("Config reloaded", zap.String("path", w.path))
		onChange(cfg)
	})
}
