package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 500 * time.Millisecond

// watchConfigSource reloads routes whenever the config file changes on disk.
// The containing directory is watched rather than the file itself, so that
// editors and orchestrators that replace the file are picked up.
type watchConfigSource struct {
	*fileConfigSource
	watcher *fsnotify.Watcher
}

func newWatchConfigSource() *watchConfigSource {
	return &watchConfigSource{
		fileConfigSource: newFileConfigSource(),
	}
}

func (w *watchConfigSource) Start(updateRoutes routeUpdater, errChan chan<- error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(*configPath)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch config directory: %w", err)
	}

	w.watcher = watcher
	go w.watch()
	return w.fileConfigSource.Start(updateRoutes, errChan)
}

func (w *watchConfigSource) Stop(ctx context.Context) {
	if w.watcher != nil {
		w.watcher.Close()
	}
	w.fileConfigSource.Stop(ctx)
}

func (w *watchConfigSource) watch() {
	var debounce *time.Timer

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if filepath.Base(event.Name) != filepath.Base(*configPath) {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			// Debounce: editors and atomic renames produce bursts of events.
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(watchDebounce, func() {
				slog.Info("Config file changed, updating routes...", "path", *configPath)
				w.Reload()
			})
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Config watcher error", "error", err)
		}
	}
}
