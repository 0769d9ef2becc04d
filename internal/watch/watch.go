// Package watch re-runs ingestion when documents change on disk.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"

	"github.com/54b3r/docrag/internal/loader"
	"github.com/54b3r/docrag/internal/logging"
)

// DefaultDebounce is the quiet period after the last event before the
// handler runs.
const DefaultDebounce = 500 * time.Millisecond

// Handler receives the changed files, sorted, once per quiet period.
type Handler func(ctx context.Context, paths []string)

// Options configures a Watcher.
type Options struct {
	// Debounce defaults to DefaultDebounce if zero.
	Debounce time.Duration
	// Match is a glob applied to paths relative to a watched directory.
	Match string
}

// Watcher watches a file, or a directory tree, for supported documents being
// written or created.
type Watcher struct {
	root     string
	file     bool
	match    glob.Glob
	debounce time.Duration
	handle   Handler
}

// New returns a Watcher for root, which may be a file or a directory.
func New(root string, opts Options, handle Handler) (*Watcher, error) {
	if handle == nil {
		return nil, fmt.Errorf("watch: handler must not be nil")
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}

	w := &Watcher{
		root:     filepath.Clean(root),
		file:     !info.IsDir(),
		debounce: opts.Debounce,
		handle:   handle,
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if opts.Match != "" && !w.file {
		w.match, err = glob.Compile(opts.Match, '/')
		if err != nil {
			return nil, fmt.Errorf("watch: invalid match pattern %q: %w", opts.Match, err)
		}
	}
	return w, nil
}

// Run blocks until ctx is cancelled, invoking the handler after each burst
// of relevant events. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	log := logging.FromContext(ctx)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: create watcher: %w", err)
	}
	defer fw.Close()

	if w.file {
		// The parent is watched so renames over the file are still seen.
		err = fw.Add(filepath.Dir(w.root))
	} else {
		err = w.addTree(fw, w.root)
	}
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	log.Info("watch: started", slog.String("path", w.root), slog.Duration("debounce", w.debounce))

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) && !w.file {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() && !hidden(ev.Name) {
					if err := w.addTree(fw, ev.Name); err != nil {
						log.Warn("watch: add directory failed", slog.String("path", ev.Name), slog.String("error", err.Error()))
					}
					continue
				}
			}
			if !w.relevant(ev) {
				continue
			}
			pending[ev.Name] = struct{}{}
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch: watcher error", slog.String("error", err.Error()))

		case <-timer.C:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			clear(pending)
			slices.Sort(paths)
			w.handle(ctx, paths)
		}
	}
}

// relevant reports whether ev should trigger ingestion.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return false
	}
	name := filepath.Clean(ev.Name)
	if w.file {
		return name == w.root
	}
	if hidden(name) || !loader.Supported(name) {
		return false
	}
	if w.match != nil {
		rel, err := filepath.Rel(w.root, name)
		if err != nil || !w.match.Match(filepath.ToSlash(rel)) {
			return false
		}
	}
	return true
}

// addTree watches dir and every non-hidden directory below it.
func (w *Watcher) addTree(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && hidden(path) {
			return filepath.SkipDir
		}
		return fw.Add(path)
	})
}

func hidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
