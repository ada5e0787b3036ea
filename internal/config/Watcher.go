package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

const DefaultDebounce = 200 * time.Millisecond

// Watcher reloads the config file whenever it changes on disk and keeps
// the last valid version. A file that fails to load is logged and ignored.
type Watcher struct {
	path     string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	current  atomic.Pointer[File]
	logger   *log.Logger

	mu        sync.Mutex
	listeners []func(*File)
}

func NewWatcher(path string, initial *File) (*Watcher, error) {
	if path == "" {
		return nil, errors.New("no configuration file to watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		path:     filepath.Clean(path),
		debounce: DefaultDebounce,
		watcher:  watcher,
		logger:   log.WithPrefix("config"),
	}
	w.current.Store(initial)
	return w, nil
}

func (w *Watcher) Current() *File {
	return w.current.Load()
}

// OnChange registers fn to be called with every successfully reloaded file.
func (w *Watcher) OnChange(fn func(*File)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, fn)
}

// Run watches until ctx is done. The parent directory is watched rather
// than the file so editors that replace the file on save are still seen.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.path, err)
	}
	w.logger.Info("Watching configuration", "path", w.path, "debounce", w.debounce)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if filepath.Clean(event.Name) != w.path || event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Debug("Configuration file event", "op", event.Op.String())

			if timer == nil {
				timer = time.AfterFunc(w.debounce, w.reload)
			} else {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			w.logger.Error("File watcher error", "error", err)
		}
	}
}

func (w *Watcher) reload() {
	next, err := Load(w.path)
	if err != nil {
		w.logger.Error("Configuration reload failed, keeping the previous one", "error", err)
		return
	}

	w.current.Store(next)
	w.logger.Info("Configuration reloaded", "time_budget_ms", next.Engine.TimeBudgetMS, "log_level", next.LogLevel)

	w.mu.Lock()
	listeners := append([]func(*File){}, w.listeners...)
	w.mu.Unlock()
	for _, fn := range listeners {
		fn(next)
	}
}
