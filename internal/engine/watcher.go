package engine

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow batches bursts of filesystem events (editors write,
// rename and chmod in quick succession) into one reload.
const debounceWindow = 2 * time.Second

// Watcher reloads the manager when files under the corpus root change.
// Reload failures are logged and the previous state keeps serving.
type Watcher struct {
	root    string
	manager *Manager
	logger  *slog.Logger
	fw      *fsnotify.Watcher
}

// NewWatcher creates a watcher over root and registers every existing
// subdirectory. New subdirectories are picked up as create events
// arrive.
func NewWatcher(root string, manager *Manager, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating filesystem watcher: %w", err)
	}

	w := &Watcher{root: root, manager: manager, logger: logger, fw: fw}
	if err := w.addRecursive(root); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if name := d.Name(); path != root && strings.HasPrefix(name, ".") {
			return filepath.SkipDir
		}
		if err := w.fw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

// Run blocks until ctx is done, reloading after each debounced batch of
// events. Call it from its own goroutine.
func (w *Watcher) Run(ctx context.Context) {
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if event.Op == fsnotify.Chmod {
				continue
			}
			if event.Op.Has(fsnotify.Create) {
				// A new subdirectory needs its own watch.
				if err := w.addRecursive(event.Name); err != nil {
					w.logger.Debug("watch add skipped", "path", event.Name, "error", err)
				}
			}
			w.logger.Debug("corpus change observed", "path", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounceWindow)
			}
			fire = timer.C

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("filesystem watcher error", "error", err)

		case <-fire:
			fire = nil
			w.logger.Info("corpus changed, reloading")
			if err := w.manager.Reload(ctx, false); err != nil {
				w.logger.Error("reload after corpus change failed", "error", err)
			}
		}
	}
}

// Close releases the underlying filesystem watcher.
func (w *Watcher) Close() error {
	return w.fw.Close()
}
