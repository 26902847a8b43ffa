package draft

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce coalesces the burst of events a single atomic save produces.
const DefaultWatchDebounce = 150 * time.Millisecond

// Watch calls fn whenever the draft file at path is created, rewritten or
// removed by another process. It watches the parent directory because atomic
// saves replace the file. Watch blocks until ctx is cancelled.
func Watch(ctx context.Context, path string, debounce time.Duration, log *slog.Logger, fn func()) error {
	if log == nil {
		log = slog.Default()
	}
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	log.Debug("watching draft", "path", path)

	target := filepath.Clean(path)
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			log.Debug("draft changed", "op", event.Op.String())
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("draft watcher error", "error", err)

		case <-timer.C:
			fn()
		}
	}
}
