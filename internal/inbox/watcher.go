package inbox

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DebounceDelay is how long the watcher waits after the last event for a
// path before ingesting it. Editors usually emit several writes per save.
const DebounceDelay = 200 * time.Millisecond

// Watch runs an initial Sync and then ingests files as they are created or
// written until ctx is cancelled. New directories are added to the watch
// list. Removing a file forgets its seen state; the backend note stays.
func (s *Syncer) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	root := s.src.Root()
	if err := addDirsRecursive(w, root); err != nil {
		return err
	}
	s.logger.Info("watcher: started", slog.String("root", root))

	if _, err := s.Sync(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	pending := make(map[string]struct{})
	var timer *time.Timer
	var timerCh <-chan time.Time
	schedule := func(rel string) {
		pending[rel] = struct{}{}
		if timer == nil {
			timer = time.NewTimer(DebounceDelay)
			timerCh = timer.C
		} else {
			timer.Reset(DebounceDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			s.logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			s.flush(ctx, pending)
			pending = make(map[string]struct{})

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						s.logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
						continue
					}
					s.scheduleDir(ev.Name, schedule)
					continue
				}
			}

			if !Supported(ev.Name) || strings.HasPrefix(filepath.Base(ev.Name), ".") {
				continue
			}
			rel, relErr := s.src.Rel(ev.Name)
			if relErr != nil {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				schedule(rel)
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				s.Forget(rel)
				delete(pending, rel)
				s.logger.Debug("watcher: forgot", slog.String("path", rel))
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// flush ingests pending paths in a stable order.
func (s *Syncer) flush(ctx context.Context, pending map[string]struct{}) {
	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		if ctx.Err() != nil {
			return
		}
		if _, _, err := s.IngestPath(ctx, p); err != nil {
			s.logger.Warn("watcher: ingest failed", slog.String("path", p), slog.String("error", err.Error()))
		}
	}
}

// scheduleDir queues the supported files already present in a new directory.
func (s *Syncer) scheduleDir(dir string, schedule func(string)) {
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !Supported(p) {
			return nil
		}
		if rel, relErr := s.src.Rel(p); relErr == nil {
			schedule(rel)
		}
		return nil
	})
}

// addDirsRecursive adds root and all its non-hidden subdirectories to the
// watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(p)
	})
}
