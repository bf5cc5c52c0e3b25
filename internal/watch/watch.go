// Package watch re-runs a job whenever the corpus changes on disk.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last change before the job
// runs again.
const DefaultDebounce = 300 * time.Millisecond

// Job is the work repeated on change.
type Job func(ctx context.Context) error

// Filter reports whether a slash-separated path relative to the root is
// relevant. A nil Filter accepts everything.
type Filter func(rel string) bool

// Watch runs job once, then again after every debounced burst of relevant
// changes under root, until ctx is cancelled. Job errors are logged and do
// not stop the loop. New directories are added to the watch list as they
// appear.
func Watch(ctx context.Context, root string, filter Filter, debounce time.Duration, logger *slog.Logger, job Job) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: create watcher: %w", err)
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return fmt.Errorf("watch: add %s: %w", root, err)
	}

	logger.Info("watcher: started", slog.String("root", root))
	runJob(ctx, logger, job)

	var timer *time.Timer
	var fire <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			fire = timer.C
			return
		}
		timer.Reset(debounce)
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-fire:
			timer, fire = nil, nil
			runJob(ctx, logger, job)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					schedule()
					continue
				}
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
			rel, relErr := filepath.Rel(root, ev.Name)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)
			if filter != nil && !filter(rel) {
				continue
			}
			logger.Debug("watcher: change", slog.String("path", rel), slog.String("op", ev.Op.String()))
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func runJob(ctx context.Context, logger *slog.Logger, job Job) {
	if err := job(ctx); err != nil {
		logger.Error("watcher: run failed", slog.String("error", err.Error()))
	}
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
