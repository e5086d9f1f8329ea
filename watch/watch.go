// Package watch reports debounced changes to a single file.
//
// Editors and copy tools often produce bursts of write and create events for
// one logical change; the watcher coalesces each burst into one callback
// after a quiet period.
package watch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/teranos/resonance/errors"
	"github.com/teranos/resonance/logger"
)

// DefaultDebounce is the quiet period before a change is reported.
const DefaultDebounce = 200 * time.Millisecond

// ChangeCallback is called with the watched path after a change settles.
type ChangeCallback func(path string) error

// FileWatcher watches one file for changes and triggers callbacks
type FileWatcher struct {
	path           string
	watcher        *fsnotify.Watcher
	callbacks      []ChangeCallback
	mu             sync.RWMutex
	debounceTimer  *time.Timer
	debouncePeriod time.Duration
	log            *zap.SugaredLogger
	done           chan struct{}
}

// New creates a watcher for path. The parent directory is watched so that
// editors that replace the file by rename are still observed.
func New(path string, debounce time.Duration, log *zap.SugaredLogger) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve %s", path)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, errors.Wrapf(err, "failed to watch %s", filepath.Dir(abs))
	}

	return &FileWatcher{
		path:           abs,
		watcher:        w,
		debouncePeriod: debounce,
		log:            logger.Or(log).With(logger.FieldPath, abs),
		done:           make(chan struct{}),
	}, nil
}

// Path returns the absolute path being watched.
func (fw *FileWatcher) Path() string {
	return fw.path
}

// OnChange registers a callback to be called when the file changes
func (fw *FileWatcher) OnChange(callback ChangeCallback) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	fw.callbacks = append(fw.callbacks, callback)
}

// Run watches until ctx is cancelled, then closes the underlying watcher.
func (fw *FileWatcher) Run(ctx context.Context) error {
	defer close(fw.done)
	defer fw.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			fw.stopTimer()
			return nil

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != fw.path {
				continue
			}
			// Only react to Write or Create events
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			fw.log.Debugw("File change detected", "op", event.Op.String())
			fw.scheduleNotify()

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return nil
			}
			fw.log.Warnw("File watcher error", logger.FieldError, err)
		}
	}
}

// Done is closed once Run has returned.
func (fw *FileWatcher) Done() <-chan struct{} {
	return fw.done
}

// scheduleNotify debounces rapid file changes and triggers callbacks
func (fw *FileWatcher) scheduleNotify() {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.debounceTimer != nil {
		fw.debounceTimer.Stop()
	}
	fw.debounceTimer = time.AfterFunc(fw.debouncePeriod, fw.notify)
}

func (fw *FileWatcher) stopTimer() {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.debounceTimer != nil {
		fw.debounceTimer.Stop()
	}
}

// notify calls every registered callback; a failing callback does not stop the rest
func (fw *FileWatcher) notify() {
	fw.mu.RLock()
	callbacks := make([]ChangeCallback, len(fw.callbacks))
	copy(callbacks, fw.callbacks)
	fw.mu.RUnlock()

	for _, cb := range callbacks {
		if err := cb(fw.path); err != nil {
			fw.log.Warnw("Change callback error", logger.FieldError, err)
		}
	}
}
