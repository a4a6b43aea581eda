package app

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
	"github.com/rs/zerolog"
)

// Syncer runs a catalog sync.
type Syncer interface {
	Sync(ctx context.Context) (SyncResult, error)
}

// TemplateWatcher re-runs the catalog sync when files under the template
// root change. Bursts of events collapse into one sync after the debounce
// interval.
type TemplateWatcher struct {
	root     string
	syncer   Syncer
	debounce time.Duration
	logger   zerolog.Logger
	watcher  *fsnotify.Watcher
	done     chan struct{}
}

// NewTemplateWatcher creates a watcher over every directory below root.
func NewTemplateWatcher(root string, syncer Syncer, debounce time.Duration, logger zerolog.Logger) (*TemplateWatcher, error) {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &TemplateWatcher{
		root:     root,
		syncer:   syncer,
		debounce: debounce,
		logger:   logger.With().Str("service", "template-watcher").Logger(),
		watcher:  watcher,
		done:     make(chan struct{}),
	}
	if err := w.addTree(root); err != nil {
		watcher.Close()
		return nil, err
	}
	return w, nil
}

// Run processes events until ctx is done. A final pending sync is dropped
// on shutdown.
func (w *TemplateWatcher) Run(ctx context.Context) {
	defer close(w.done)
	defer w.watcher.Close()

	timer := time.NewTimer(w.debounce)
	timer.Stop()

	w.logger.Info().Str("root", w.root).Msg("watching templates for changes")

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.ignored(event.Name) {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						w.logger.Warn().Err(err).Str("dir", event.Name).Msg("could not watch new directory")
					}
				}
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Debug().Str("event", event.Op.String()).Str("file", event.Name).Msg("template changed")
			timer.Reset(w.debounce)

		case <-timer.C:
			if _, err := w.syncer.Sync(ctx); err != nil {
				if errors.Is(err, ErrSyncInProgress) {
					timer.Reset(w.debounce)
					continue
				}
				if ctx.Err() == nil {
					w.logger.Error().Err(err).Msg("catalog sync after template change failed")
				}
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("template watcher error")
		}
	}
}

// Done is closed once Run has returned.
func (w *TemplateWatcher) Done() <-chan struct{} { return w.done }

func (w *TemplateWatcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == dir {
				return fmt.Errorf("watch %s: %w", dir, err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		return nil
	})
}

// editorSuffixes mark backup, swap and temp files written by editors.
var editorSuffixes = []string{"~", ".swp", ".tmp"}

// ignored filters editor temp and hidden files.
func (w *TemplateWatcher) ignored(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") {
		return true
	}
	for _, suffix := range editorSuffixes {
		if strings.HasSuffix(base, suffix) {
			return true
		}
	}
	return false
}
