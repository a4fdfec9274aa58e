// Package watch re-runs a callback when files under a set of paths change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for more events before
// firing.
const DefaultDebounce = 100 * time.Millisecond

// Watcher watches files and directories recursively.
type Watcher struct {
	// Paths are the files and directories to watch. Files are watched
	// through their parent directory.
	Paths []string
	// Extensions limits which file changes fire the callback (e.g. ".css").
	// Empty means every file.
	Extensions []string
	// Debounce coalesces bursts of events; zero means DefaultDebounce.
	Debounce time.Duration
	// Skip drops paths that must never fire, such as generated reports.
	Skip func(path string) bool
	// Logger receives watcher errors and change notices.
	Logger *slog.Logger

	ready func() // test hook, called once the watches are registered
}

// Run blocks until ctx is done, calling onChange with the sorted list of
// changed files after each debounced burst. onChange runs on the Run
// goroutine, so calls never overlap.
func (w *Watcher) Run(ctx context.Context, onChange func(changed []string)) error {
	logger := w.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = fsw.Close() }()

	files := make(map[string]bool)
	for _, p := range w.Paths {
		info, err := os.Stat(p)
		if err != nil {
			return fmt.Errorf("failed to watch %s: %w", p, err)
		}
		if !info.IsDir() {
			abs, _ := filepath.Abs(p)
			files[abs] = true
			if err := fsw.Add(filepath.Dir(p)); err != nil {
				return fmt.Errorf("failed to watch %s: %w", p, err)
			}
			continue
		}
		if err := watchDir(fsw, p); err != nil {
			return fmt.Errorf("failed to watch %s: %w", p, err)
		}
	}
	if w.ready != nil {
		w.ready()
	}

	var (
		pending = make(map[string]bool)
		timer   *time.Timer
		fire    = make(chan struct{}, 1)
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if skipName(filepath.Base(event.Name)) || (w.Skip != nil && w.Skip(event.Name)) {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				// New directories are watched too.
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := watchDir(fsw, event.Name); err != nil {
						logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
					}
					continue
				}
			}
			if !w.relevant(event.Name, files) {
				continue
			}

			pending[event.Name] = true

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case <-fire:
			changed := make([]string, 0, len(pending))
			for name := range pending {
				changed = append(changed, name)
			}
			pending = make(map[string]bool)
			if len(changed) == 0 {
				continue
			}
			sort.Strings(changed)
			logger.Info("change detected", "files", len(changed), "first", filepath.Base(changed[0]))
			onChange(changed)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "error", err)
		}
	}
}

// relevant reports whether a change to name should fire the callback.
// Files watched individually only fire for themselves.
func (w *Watcher) relevant(name string, files map[string]bool) bool {
	if len(w.Extensions) > 0 && !slices.Contains(w.Extensions, strings.ToLower(filepath.Ext(name))) {
		return false
	}
	if len(files) == 0 {
		return true
	}
	abs, _ := filepath.Abs(name)
	if files[abs] {
		return true
	}
	// A directory target may share a parent with a file target.
	for _, p := range w.Paths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			dir, _ := filepath.Abs(p)
			if rel, err := filepath.Rel(dir, abs); err == nil && !strings.HasPrefix(rel, "..") {
				return true
			}
		}
	}
	return false
}

// watchDir recursively adds a directory to the watcher.
func watchDir(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && skipName(d.Name()) {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
}

// skipName matches node_modules and hidden entries.
func skipName(name string) bool {
	return name == "node_modules" || (strings.HasPrefix(name, ".") && name != "." && name != "..")
}
