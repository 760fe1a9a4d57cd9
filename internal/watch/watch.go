// Package watch reruns a function whenever files under a directory change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce groups bursts of saves into one run.
const DefaultDebounce = 300 * time.Millisecond

// Watcher watches a directory tree recursively.
type Watcher struct {
	Root     string
	Debounce time.Duration
	// Match selects which changed paths trigger a run. Nil accepts every
	// path without a hidden element.
	Match  func(path string) bool
	Logger *zap.Logger
}

// New returns a Watcher over root with the default debounce.
func New(root string, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{Root: root, Debounce: DefaultDebounce, Logger: logger}
}

// Run calls fn once, then again after every debounced batch of matching
// changes, until ctx is done. An error from fn stops the loop and is returned.
func (w *Watcher) Run(ctx context.Context, fn func(context.Context) error) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer fw.Close()

	if err := w.addTree(fw, w.Root); err != nil {
		return err
	}
	if err := fn(ctx); err != nil {
		return err
	}

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.addTree(fw, ev.Name); err != nil {
						w.Logger.Warn("watching new directory", zap.String("dir", ev.Name), zap.Error(err))
					}
				}
			}
			if ev.Op == fsnotify.Chmod || !w.matches(ev.Name) {
				continue
			}
			w.Logger.Debug("change", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
			pending = true
			timer.Reset(debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.Logger.Warn("watch error", zap.Error(err))

		case <-timer.C:
			if !pending {
				continue
			}
			pending = false
			if err := fn(ctx); err != nil {
				return err
			}
		}
	}
}

func (w *Watcher) matches(path string) bool {
	if w.Match != nil {
		return w.Match(path)
	}
	return !hidden(path, w.Root)
}

// addTree watches dir and every non-hidden directory below it.
func (w *Watcher) addTree(fw *fsnotify.Watcher, dir string) error {
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return fw.Add(p)
	})
	if err != nil && !errors.Is(err, fs.SkipAll) {
		return fmt.Errorf("watch: %s: %w", dir, err)
	}
	return nil
}

// hidden reports whether any element of path below root starts with a dot.
func hidden(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	for _, seg := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(seg, ".") && seg != "." && seg != ".." {
			return true
		}
	}
	return false
}
