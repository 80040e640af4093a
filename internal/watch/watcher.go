// Package watch re-annotates a built site while its generator rewrites it.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/karrick/godirwalk"
	"github.com/nao1215/extlink/internal/model"
	"github.com/nao1215/extlink/internal/pipeline"
	"github.com/nao1215/extlink/internal/site"
)

// DefaultDebounce is the quiet period used when WithDebounce is not given.
const DefaultDebounce = 300 * time.Millisecond

// maxTick bounds how often pending changes are checked.
const maxTick = 100 * time.Millisecond

// ErrNoRoots is returned by New when no root is given.
var ErrNoRoots = errors.New("no paths to watch")

// Stats counts what a Watcher has seen and done.
type Stats struct {
	Events         int
	Batches        int
	FilesProcessed int
	FilesChanged   int
	Errors         int
	LastBatch      time.Time
}

// Watcher runs a BatchProcessor over HTML files as they change on disk.
type Watcher struct {
	mu sync.Mutex

	roots     []string
	fileRoots map[string]bool
	finder    *site.Finder
	processor *pipeline.BatchProcessor

	debounce time.Duration
	dryRun   bool
	logger   *slog.Logger
	onBatch  func(*model.RunReport)

	// onStart is called once every root is being watched.
	onStart func()

	// pending maps a changed path to the time of its last event.
	pending map[string]time.Time

	// checksums holds the content hash each file had after the last batch.
	checksums map[string]string

	stats Stats
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long a file must stay quiet before it is processed.
// Non-positive values are ignored.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithDryRun marks batch reports as dry runs. The processor decides
// whether files are written.
func WithDryRun(dryRun bool) Option {
	return func(w *Watcher) {
		w.dryRun = dryRun
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// WithOnBatch sets a callback invoked with the report of every batch.
func WithOnBatch(fn func(*model.RunReport)) Option {
	return func(w *Watcher) {
		w.onBatch = fn
	}
}

// New creates a Watcher over roots. Files are selected with finder, the
// same way site discovery selects them, and processed with processor.
func New(roots []string, finder *site.Finder, processor *pipeline.BatchProcessor, opts ...Option) (*Watcher, error) {
	if len(roots) == 0 {
		return nil, ErrNoRoots
	}

	w := &Watcher{
		fileRoots: make(map[string]bool),
		finder:    finder,
		processor: processor,
		debounce:  DefaultDebounce,
		pending:   make(map[string]time.Time),
		checksums: make(map[string]string),
	}
	for _, root := range roots {
		w.roots = append(w.roots, filepath.Clean(root))
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	return w, nil
}

// Stats returns a snapshot of the watcher counters.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

// Remember records the checksums of already processed pages, so that a
// following event with identical content does not trigger a new batch.
func (w *Watcher) Remember(pages []*model.PageResult) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, p := range pages {
		if p != nil && p.Checksum != "" {
			w.checksums[filepath.Clean(p.Path)] = p.Checksum
		}
	}
}

// Run watches the roots until ctx is cancelled. It returns nil on
// cancellation and an error when the watch could not be set up.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		if err := fsw.Close(); err != nil {
			w.logger.Warn("failed to close watcher", "error", err)
		}
	}()

	for _, root := range w.roots {
		if err := w.addRoot(fsw, root); err != nil {
			return err
		}
	}
	w.logger.Info("watching for changes", "roots", w.roots, "debounce", w.debounce)
	if w.onStart != nil {
		w.onStart()
	}

	tick := min(max(w.debounce/2, time.Millisecond), maxTick)
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watch stopped")
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fsw, event)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch error", "error", err)
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

// addRoot watches a directory tree, or the parent directory of a file root.
func (w *Watcher) addRoot(fsw *fsnotify.Watcher, root string) error {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", site.ErrRootNotFound, root)
		}
		return err
	}
	if !info.IsDir() {
		w.fileRoots[root] = true
		return fsw.Add(filepath.Dir(root))
	}
	return w.addTree(fsw, root)
}

// addTree watches dir and every directory below it.
func (w *Watcher) addTree(fsw *fsnotify.Watcher, dir string) error {
	return godirwalk.Walk(dir, &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if !de.IsDir() {
				return nil
			}
			if err := fsw.Add(path); err != nil {
				return fmt.Errorf("failed to watch %s: %w", path, err)
			}
			w.logger.Debug("watching directory", "path", path)
			return nil
		},
	})
}

func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, event fsnotify.Event) {
	path := filepath.Clean(event.Name)

	switch {
	case event.Has(fsnotify.Create):
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if w.rootOf(path) == "" {
				return
			}
			if err := w.addTree(fsw, path); err != nil {
				w.logger.Warn("failed to watch new directory", "path", path, "error", err)
			}
			w.enqueueTree(path)
			return
		}
		w.enqueue(path)
	case event.Has(fsnotify.Write):
		w.enqueue(path)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.mu.Lock()
		delete(w.pending, path)
		delete(w.checksums, path)
		w.mu.Unlock()
	}
}

// enqueueTree schedules the files already present in a new directory.
func (w *Watcher) enqueueTree(dir string) {
	files, err := w.finder.Find([]string{dir})
	if err != nil {
		w.logger.Warn("failed to list new directory", "path", dir, "error", err)
		return
	}
	for _, f := range files {
		w.enqueue(f)
	}
}

func (w *Watcher) enqueue(path string) {
	if !w.selected(path) {
		return
	}
	w.logger.Debug("change detected", "path", path)

	w.mu.Lock()
	w.pending[path] = time.Now()
	w.stats.Events++
	w.mu.Unlock()
}

// selected reports whether path is a file root or is selected by the
// finder under the root that contains it.
func (w *Watcher) selected(path string) bool {
	if w.fileRoots[path] {
		return true
	}
	root := w.rootOf(path)
	return root != "" && w.finder.Match(root, path)
}

// rootOf returns the directory root containing path, or "".
func (w *Watcher) rootOf(path string) string {
	for _, root := range w.roots {
		if w.fileRoots[root] {
			continue
		}
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return root
		}
	}
	return ""
}

// ready removes and returns the pending paths that have been quiet for the
// debounce period and whose content differs from the last batch.
func (w *Watcher) ready(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	paths := make([]string, 0)
	for path, at := range w.pending {
		if now.Sub(at) < w.debounce {
			continue
		}
		delete(w.pending, path)

		if sum, ok := w.checksums[path]; ok {
			data, err := os.ReadFile(path) //nolint:gosec // path comes from a watched root
			if err == nil && model.Checksum(data) == sum {
				continue
			}
		}
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

func (w *Watcher) flush(ctx context.Context) {
	paths := w.ready(time.Now())
	if len(paths) == 0 {
		return
	}

	w.logger.Info("processing changed files", "files", len(paths))

	report := model.NewRunReport(w.roots, w.dryRun)
	if err := w.processor.Run(ctx, report, paths); err != nil && ctx.Err() == nil {
		w.logger.Error("batch failed", "error", err)
	}
	w.Remember(report.Pages)

	summary := report.Summary()
	w.mu.Lock()
	w.stats.Batches++
	w.stats.FilesProcessed += summary.Files
	w.stats.FilesChanged += summary.FilesChanged
	w.stats.Errors += summary.FilesFailed
	w.stats.LastBatch = time.Now()
	w.mu.Unlock()

	if w.onBatch != nil {
		w.onBatch(report)
	}
}
