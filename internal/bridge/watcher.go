// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package bridge

import (
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher publishes storage-changed notifications when the persisted
// documents change on disk. Cross-process writes are not locked out; the
// watcher surfaces them so the UI can refresh instead of going stale.
type Watcher struct {
	fsw     *fsnotify.Watcher
	hub     *Hub
	watched map[string]bool
	done    chan struct{}
}

// NewWatcher watches the given document files and publishes to hub.
// Parent directories are registered with fsnotify because atomic
// rename-over-file replaces the inode the path points at.
func NewWatcher(hub *Hub, paths ...string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:     fsw,
		hub:     hub,
		watched: make(map[string]bool, len(paths)),
		done:    make(chan struct{}),
	}

	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fsw.Close()
			return nil, err
		}
		w.watched[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, err
		}
	}

	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !w.watched[abs] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			log.Printf("STORAGE_CHANGED | path=%s op=%s", abs, event.Op)
			w.hub.Publish(ChannelStorageChanged, map[string]string{
				"path": abs,
				"file": filepath.Base(abs),
			})
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("WATCHER_ERROR | error=%v", err)
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
