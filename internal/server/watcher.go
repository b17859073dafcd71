package server

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

const refreshDelay = 500 * time.Millisecond

const albumsRefreshKey = "\x00albums"

// debouncer runs the last action scheduled per key once things go quiet
type debouncer struct {
	mu     sync.Mutex
	delay  time.Duration
	timers map[string]*time.Timer
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{delay: delay, timers: make(map[string]*time.Timer)}
}

func (d *debouncer) schedule(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if timer, ok := d.timers[key]; ok {
		timer.Stop()
	}
	d.timers[key] = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		delete(d.timers, key)
		d.mu.Unlock()
		fn()
	})
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for key, timer := range d.timers {
		timer.Stop()
		delete(d.timers, key)
	}
}

// startFileWatcher initializes fsnotify watcher for recursive songs dir monitoring.
func (ms *MusicServer) startFileWatcher(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	ms.watcher = watcher
	ms.refresh = newDebouncer(refreshDelay)

	// Add the songs directory to the watcher
	if err := ms.addDirectoryToWatcher(ms.config.SongsPath()); err != nil {
		watcher.Close()
		return err
	}

	// Start monitoring in a goroutine
	go ms.watchFiles(ctx)

	ms.logger.WithField("songs_path", ms.config.SongsPath()).Info("File watcher started")
	return nil
}

// addDirectoryToWatcher recursively walks and adds subdirectories to watcher.
func (ms *MusicServer) addDirectoryToWatcher(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return ms.watcher.Add(path)
		}
		return nil
	})
}

// watchFiles selects on watcher channels and dispatches events.
func (ms *MusicServer) watchFiles(ctx context.Context) {
	defer ms.stopFileWatcher()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-ms.watcher.Events:
			if !ok {
				return
			}
			ms.handleFileEvent(ctx, event)

		case err, ok := <-ms.watcher.Errors:
			if !ok {
				return
			}
			ms.logger.WithError(err).Error("File watcher error")
		}
	}
}

// handleFileEvent drops cached listings touched by event and schedules a
// refresh of the album list or the open playlist.
func (ms *MusicServer) handleFileEvent(ctx context.Context, event fsnotify.Event) {
	// Ignore temporary files and hidden files
	fileName := filepath.Base(event.Name)
	if strings.HasPrefix(fileName, ".") || strings.HasSuffix(fileName, ".tmp") {
		return
	}
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := ms.addDirectoryToWatcher(event.Name); err != nil {
				ms.logger.WithError(err).WithField("directory", event.Name).Warn("Could not watch new directory")
			} else {
				ms.logger.WithField("directory", event.Name).Info("Watching new directory")
			}
		}
	}

	folder, ok := ms.libraryFolder(filepath.Dir(event.Name))
	if !ok {
		return
	}
	songsDir := strings.Trim(ms.config.Library.SongsDir, "/")

	logger := ms.logger.WithFields(logrus.Fields{
		"file_path": event.Name,
		"op":        event.Op.String(),
	})

	if cached, ok := ms.catalog.(cacheInvalidator); ok {
		if folder == songsDir {
			cached.Invalidate()
		} else {
			cached.InvalidateFolder(folder)
		}
	}

	// album added, removed or re-described
	if folder == songsDir || fileName == "info.json" {
		logger.Debug("Album list changed")
		ms.refresh.schedule(albumsRefreshKey, func() {
			if _, err := ms.controller.LoadAlbums(ctx); err != nil {
				ms.logger.WithError(err).Debug("Album refresh skipped")
			}
		})
		return
	}

	current, _ := ms.controller.Playlist()
	if folder == current && ms.extractor.IsAudioFile(event.Name) {
		logger.Info("Open folder changed, refreshing playlist")
		ms.refresh.schedule(folder, func() {
			if _, err := ms.controller.OpenFolder(ctx, folder); err != nil {
				ms.logger.WithError(err).Debug("Playlist refresh skipped")
			}
		})
	}
}

// libraryFolder converts a directory below the library root into a
// library-relative folder such as "songs/ncs"
func (ms *MusicServer) libraryFolder(dir string) (string, bool) {
	absRoot, err := filepath.Abs(ms.config.Library.Path)
	if err != nil {
		return "", false
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(absRoot, absDir)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// stopFileWatcher closes the watcher (idempotent).
func (ms *MusicServer) stopFileWatcher() {
	if ms.refresh != nil {
		ms.refresh.stop()
	}
	if ms.watcher != nil {
		ms.watcher.Close()
	}
}
