package mustache

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ----------------------------- Template Reload Manager -----------------------------

// ReloadCallback is called with the name of a template file that changed, or
// with a watch error.
type ReloadCallback func(filename string, err error)

// ReloadManager watches template directories and reports changed files to its
// callbacks. Bursts of events are coalesced over the debounce interval.
type ReloadManager struct {
	mu        sync.RWMutex
	watcher   *fsnotify.Watcher
	exts      map[string]bool
	files     map[string]bool
	callbacks []ReloadCallback
	debounce  time.Duration
	logger    *slog.Logger

	stopOnce sync.Once
	stopChan chan struct{}
	done     chan struct{}
	started  bool
}

// NewReloadManager creates a reload manager. A zero debounce defaults to
// 100ms.
func NewReloadManager(debounce time.Duration, logger *slog.Logger) (*ReloadManager, error) {
	if debounce <= 0 {
		debounce = 100 * time.Millisecond
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	return &ReloadManager{
		watcher:  w,
		exts:     make(map[string]bool),
		files:    make(map[string]bool),
		debounce: debounce,
		logger:   logger,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// WatchFile watches a single file.
func (rm *ReloadManager) WatchFile(filename string) error {
	abs, err := filepath.Abs(filename)
	if err != nil {
		return err
	}
	if err := rm.watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching file %q: %w", filename, err)
	}
	rm.mu.Lock()
	rm.files[abs] = true
	rm.mu.Unlock()
	return nil
}

// WatchDirectory watches dir and its subdirectories for files ending in ext.
func (rm *ReloadManager) WatchDirectory(dir, ext string) error {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		return rm.watcher.Add(abs)
	})
	if err != nil {
		return fmt.Errorf("watching directory %q: %w", dir, err)
	}
	rm.mu.Lock()
	rm.exts[ext] = true
	rm.mu.Unlock()
	return nil
}

// AddCallback adds a callback to be called when watched files change.
func (rm *ReloadManager) AddCallback(callback ReloadCallback) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.callbacks = append(rm.callbacks, callback)
}

// Start begins delivering change notifications until ctx is done or Stop is
// called.
func (rm *ReloadManager) Start(ctx context.Context) {
	rm.mu.Lock()
	if rm.started {
		rm.mu.Unlock()
		return
	}
	rm.started = true
	rm.mu.Unlock()
	go rm.watchLoop(ctx)
}

// Stop stops watching and waits for the watch loop to exit. It is safe to
// call more than once.
func (rm *ReloadManager) Stop() error {
	var err error
	rm.stopOnce.Do(func() {
		close(rm.stopChan)
		err = rm.watcher.Close()
		rm.mu.RLock()
		started := rm.started
		rm.mu.RUnlock()
		if started {
			<-rm.done
		}
	})
	return err
}

func (rm *ReloadManager) matches(name string) bool {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	if rm.files[name] {
		return true
	}
	for ext := range rm.exts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

func (rm *ReloadManager) notify(filename string, err error) {
	rm.mu.RLock()
	callbacks := append([]ReloadCallback(nil), rm.callbacks...)
	rm.mu.RUnlock()
	for _, cb := range callbacks {
		cb(filename, err)
	}
}

// watchLoop runs the file watching loop
func (rm *ReloadManager) watchLoop(ctx context.Context) {
	defer close(rm.done)

	pending := make(map[string]struct{})
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	const changed = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename
	for {
		select {
		case <-ctx.Done():
			return
		case <-rm.stopChan:
			return
		case ev, ok := <-rm.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&changed == 0 || !rm.matches(ev.Name) {
				continue
			}
			pending[ev.Name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(rm.debounce)
				fire = timer.C
			}
		case <-fire:
			timer, fire = nil, nil
			for name := range pending {
				rm.logger.Debug("template changed", "file", name)
				rm.notify(name, nil)
			}
			clear(pending)
		case err, ok := <-rm.watcher.Errors:
			if !ok {
				return
			}
			rm.logger.Warn("template watch error", "error", err)
			rm.notify("", err)
		}
	}
}
