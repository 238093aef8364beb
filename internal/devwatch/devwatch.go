// Package devwatch watches a content directory and reports batches of changed
// files, debounced, so derived data can be recomputed during development.
package devwatch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/folio-blog/folio/kit/colorlog"
	"github.com/fsnotify/fsnotify"
)

var Log = colorlog.New("dev watcher")

const DefaultDebounce = 150 * time.Millisecond

// Editor swap files and dotfiles never trigger a change.
var defaultIgnore = []string{
	"**/.*",
	"**/.*/**",
	"**/*~",
	"**/*.swp",
	"**/*.tmp",
}

type Options struct {
	// Root is the directory watched recursively.
	Root string
	// Match reports whether a slash-separated path relative to Root is
	// interesting. Nil matches everything not ignored.
	Match func(relPath string) bool
	// Ignore adds doublestar patterns to the built-in ignore list.
	Ignore   []string
	Debounce time.Duration
	// OnChange receives the sorted, de-duplicated relative paths of one
	// debounced batch. It runs on the watcher goroutine.
	OnChange func(ctx context.Context, relPaths []string)
}

type Watcher struct {
	opts    Options
	ignore  []string
	fsw     *fsnotify.Watcher
	pending map[string]struct{}
}

func New(opts Options) (*Watcher, error) {
	if opts.OnChange == nil {
		return nil, fmt.Errorf("devwatch: OnChange is required")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("error resolving %s: %w", opts.Root, err)
	}
	opts.Root = root

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("error creating file watcher: %w", err)
	}

	w := &Watcher{
		opts:    opts,
		ignore:  append(slices.Clone(defaultIgnore), opts.Ignore...),
		fsw:     fsw,
		pending: make(map[string]struct{}),
	}
	if _, err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run processes events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	timer := time.NewTimer(w.opts.Debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if w.handle(evt) {
				timer.Reset(w.opts.Debounce)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			Log.Error("watcher error", "error", err)

		case <-timer.C:
			w.flush(ctx)
		}
	}
}

// handle records evt and reports whether it belongs in the next batch.
func (w *Watcher) handle(evt fsnotify.Event) bool {
	if evt.Name == "" || isChmodOnly(evt) {
		return false
	}

	if evt.Has(fsnotify.Create) {
		if info, err := os.Stat(evt.Name); err == nil && info.IsDir() {
			// A directory can arrive already populated (moved in, checked
			// out), in which case its files never produce events of their own.
			found, err := w.addTree(evt.Name)
			if err != nil {
				Log.Error("error watching new directory", "dir", evt.Name, "error", err)
			}
			for _, rel := range found {
				Log.Debug("change", "path", rel, "op", "CREATE (in new directory)")
				w.pending[rel] = struct{}{}
			}
			return len(found) > 0
		}
	}

	rel, ok := w.relevant(evt.Name)
	if !ok {
		return false
	}
	Log.Debug("change", "path", rel, "op", evt.Op.String())
	w.pending[rel] = struct{}{}
	return true
}

func (w *Watcher) relevant(name string) (string, bool) {
	rel, err := filepath.Rel(w.opts.Root, name)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range w.ignore {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return "", false
		}
	}
	if w.opts.Match != nil && !w.opts.Match(rel) {
		return "", false
	}
	return rel, true
}

func (w *Watcher) flush(ctx context.Context) {
	if len(w.pending) == 0 {
		return
	}
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	clear(w.pending)
	slices.Sort(paths)
	w.opts.OnChange(ctx, paths)
}

// addTree watches root and every directory below it, and returns the
// relevant files it already contains.
func (w *Watcher) addTree(root string) ([]string, error) {
	var found []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			if rel, ok := w.relevant(path); ok {
				found = append(found, rel)
			}
			return nil
		}
		if rel, _ := filepath.Rel(w.opts.Root, path); rel != "." && d.Name()[0] == '.' {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("error watching %s: %w", path, err)
		}
		return nil
	})
	return found, err
}

func isChmodOnly(evt fsnotify.Event) bool {
	return !evt.Has(fsnotify.Write) && !evt.Has(fsnotify.Create) && !evt.Has(fsnotify.Remove) && !evt.Has(fsnotify.Rename)
}
