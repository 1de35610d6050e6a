package config

import (
	"context"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// WatchAndReload watches path for writes and calls ReloadConfig(path)
// on each one, logging the outcome. It runs until ctx is cancelled.
// Editors that replace the file (write-rename) emit a Remove event
// immediately followed by a Create; both are treated as a reload
// trigger, same as a plain Write.
func WatchAndReload(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	logger := slog.Default().With("component", "config.watch")
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove) == 0 {
				continue
			}
			if event.Op&fsnotify.Remove != 0 {
				// Editors that write-via-rename drop the watch on the
				// old inode; re-add it so the following Create still
				// triggers a reload.
				_ = watcher.Add(path)
			}
			if err := ReloadConfig(path); err != nil {
				logger.Warn("config reload failed, keeping previous configuration", "error", err)
				continue
			}
			logger.Info("configuration reloaded", "path", path, "generation", Generation())
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config watcher error", "error", werr)
		}
	}
}
