package icsdir

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const settleDelay = 250 * time.Millisecond

// Watch emits a value whenever a calendar file under the root changes.
// Bursts of writes are coalesced into one notification. The channel closes
// when ctx is done or the watcher fails.
func (s *Source) Watch(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	dirs, err := s.watchedDirs()
	if err != nil {
		_ = watcher.Close()
		return nil, err
	}
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	changes := make(chan struct{}, 1)
	go func() {
		defer close(changes)
		defer func() {
			_ = watcher.Close()
		}()

		timer := time.NewTimer(settleDelay)
		if !timer.Stop() {
			<-timer.C
		}
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("calendar watcher error", "err", err)
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if evt.Op&fsnotify.Create == fsnotify.Create && filepath.Dir(evt.Name) == s.root {
					if info, statErr := os.Stat(evt.Name); statErr == nil && info.IsDir() {
						if addErr := watcher.Add(evt.Name); addErr != nil {
							s.logger.Warn("watch new owner directory", "path", evt.Name, "err", addErr)
						}
					}
				}
				timer.Reset(settleDelay)
			case <-timer.C:
				select {
				case changes <- struct{}{}:
				default:
				}
			}
		}
	}()

	return changes, nil
}

func (s *Source) watchedDirs() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("read ics dir: %w", err)
	}
	dirs := []string{s.root}
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, filepath.Join(s.root, entry.Name()))
		}
	}
	return dirs, nil
}
