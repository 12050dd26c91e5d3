// Package reload watches files on disk and re-applies them when they change.
//
// The Watcher watches the directory that contains its target file rather
// than the file itself, so editors that save by writing a temp file and
// renaming it over the original are still noticed. Bursts of events are
// debounced into a single apply call.
package reload

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Iron-Ham/lockable/internal/config"
	"github.com/Iron-Ham/lockable/internal/logging"
	"github.com/Iron-Ham/lockable/internal/registry"
)

// DefaultDebounce is used when New is given a non-positive debounce.
const DefaultDebounce = 100 * time.Millisecond

// ApplyFunc is called after the watched file settled.
type ApplyFunc func() error

// Watcher invokes an ApplyFunc whenever its target file changes.
type Watcher struct {
	path     string
	debounce time.Duration
	apply    ApplyFunc
	logger   *logging.Logger
	watcher  *fsnotify.Watcher
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger used for apply failures and watch errors.
func WithLogger(l *logging.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// New creates a Watcher for path. The containing directory must exist.
func New(path string, debounce time.Duration, apply ApplyFunc, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve watch path: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	w := &Watcher{
		path:     abs,
		debounce: debounce,
		apply:    apply,
		logger:   logging.NopLogger(),
		watcher:  fw,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With("watch_path", abs)
	return w, nil
}

// Path returns the absolute path of the watched file.
func (w *Watcher) Path() string {
	return w.path
}

// Run processes file events until ctx is done. Apply failures are logged
// and do not stop the watcher. The underlying watcher is closed on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.watcher.Close() }()

	debounceTimer := time.NewTimer(w.debounce)
	if !debounceTimer.Stop() {
		<-debounceTimer.C
	}
	defer debounceTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			debounceTimer.Reset(w.debounce)

		case <-debounceTimer.C:
			if err := w.apply(); err != nil {
				w.logger.Error("reload failed, keeping previous state", "error", err)
				continue
			}
			w.logger.Debug("reload applied")

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// Reloader is the part of the registry a definitions reload needs.
type Reloader interface {
	Reload(defs []config.ResourceDef) (registry.ReloadSummary, error)
}

// Definitions returns an ApplyFunc that re-reads the resource definitions
// file at path and hands it to reg. Invalid files are rejected before the
// registry is touched.
func Definitions(reg Reloader, path string, logger *logging.Logger) ApplyFunc {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return func() error {
		defs, err := config.LoadDefinitions(path)
		if err != nil {
			return err
		}
		summary, err := reg.Reload(defs)
		if err != nil {
			return fmt.Errorf("reload registry: %w", err)
		}
		if !summary.Empty() {
			logger.Info("resource definitions reloaded",
				"added", summary.Added,
				"removed", summary.Removed,
				"updated", summary.Updated,
			)
		}
		return nil
	}
}
