// Package watch reports documents dropped into a folder
package watch

import (
	"context"
	"os"
	"time"

	"github.com/andrew/doc-chat/pkg/models"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultSettle is how long a new file must go without writes before it is reported
const DefaultSettle = 500 * time.Millisecond

// Option configures a Watcher
type Option func(*Watcher)

// WithSettle sets the quiet period after the last create or write of a file
func WithSettle(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.settle = d
		}
	}
}

// Watcher emits the paths of new files whose type is accepted for upload.
// A file is reported once it has content and no writes for the settle period.
type Watcher struct {
	watcher *fsnotify.Watcher
	logger  *zap.Logger
	settle  time.Duration
}

// settled is sent by a path's timer; gen identifies the timer that fired
type settled struct {
	path string
	gen  int
}

// New creates a watcher. Call Close when done.
func New(logger *zap.Logger, opts ...Option) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	watcher := &Watcher{watcher: w, logger: logger.Named("watch"), settle: DefaultSettle}
	for _, opt := range opts {
		opt(watcher)
	}
	return watcher, nil
}

// Watch starts monitoring dir. The returned channel is closed when ctx is
// done or the watcher is closed.
func (w *Watcher) Watch(ctx context.Context, dir string) (<-chan string, error) {
	if err := w.watcher.Add(dir); err != nil {
		return nil, err
	}

	paths := make(chan string, 16)

	go func() {
		done := make(chan struct{})
		ready := make(chan settled)
		// tracked holds files created since the watch began that were not yet reported
		tracked := make(map[string]int)
		timers := make(map[string]*time.Timer)

		defer func() {
			close(done)
			for _, t := range timers {
				t.Stop()
			}
			close(paths)
		}()

		arm := func(path string) {
			tracked[path]++
			gen := tracked[path]
			if t, ok := timers[path]; ok {
				t.Stop()
			}
			timers[path] = time.AfterFunc(w.settle, func() {
				select {
				case ready <- settled{path: path, gen: gen}:
				case <-done:
				}
			})
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !models.IsAcceptedType(event.Name) {
					continue
				}
				_, known := tracked[event.Name]
				switch {
				case event.Has(fsnotify.Create):
					arm(event.Name)
				case event.Has(fsnotify.Write) && known:
					arm(event.Name)
				case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
					if t, ok := timers[event.Name]; ok {
						t.Stop()
					}
					delete(timers, event.Name)
					delete(tracked, event.Name)
				}
			case s := <-ready:
				if tracked[s.path] != s.gen {
					continue
				}
				delete(timers, s.path)
				info, err := os.Stat(s.path)
				if err != nil || info.Size() == 0 {
					// keep tracking so the next write re-arms it
					w.logger.Debug("file not ready", zap.String("path", s.path))
					continue
				}
				delete(tracked, s.path)
				select {
				case paths <- s.path:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("watch error", zap.String("dir", dir), zap.Error(err))
			}
		}
	}()

	w.logger.Info("watching folder", zap.String("dir", dir), zap.Duration("settle", w.settle))
	return paths, nil
}

// Close stops the watcher
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
