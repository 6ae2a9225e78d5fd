// Package watcher reloads the registry when the snapshot file is edited on disk.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/autopeer-io/fleethub/pkg/log"
)

// Reloader is satisfied by the hub.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Watcher watches the directory holding the snapshot, since editors and the
// hub itself replace the file instead of writing it in place.
type Watcher struct {
	path     string
	debounce time.Duration
	reloader Reloader
}

func New(path string, debounce time.Duration, reloader Reloader) *Watcher {
	return &Watcher{
		path:     filepath.Clean(path),
		debounce: debounce,
		reloader: reloader,
	}
}

// Start blocks until ctx is canceled. Bursts of events closer than the
// debounce interval trigger a single reload.
func (w *Watcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	log.Info("Watching snapshot for changes", "path", w.path, "debounce", w.debounce)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			timer.Reset(w.debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Error(err, "Snapshot watcher error", "path", w.path)
		case <-timer.C:
			if err := w.reloader.Reload(ctx); err != nil {
				log.Error(err, "Failed to reload snapshot", "path", w.path)
			}
		case <-ctx.Done():
			return nil
		}
	}
}
