// events.go implements fsnotify event handling for config and session file changes.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

func (w *Watcher) start(ctx context.Context) error {
	dirs := map[string]struct{}{}
	if w.configPath != "" {
		dirs[filepath.Dir(w.configPath)] = struct{}{}
	}
	if w.sessionPath != "" {
		sessionDir := filepath.Dir(w.sessionPath)
		if errMkdir := os.MkdirAll(sessionDir, 0o700); errMkdir != nil {
			log.Warnf("failed to create session directory %s: %v", sessionDir, errMkdir)
		}
		dirs[sessionDir] = struct{}{}
	}
	// Directories are watched instead of files so editors that save by rename keep working.
	for dir := range dirs {
		if errAdd := w.watcher.Add(dir); errAdd != nil {
			log.Errorf("failed to watch directory %s: %v", dir, errAdd)
			return errAdd
		}
		log.Debugf("watching directory: %s", dir)
	}
	if sum, err := fileHash(w.sessionPath); err == nil {
		w.mu.Lock()
		w.lastSessionSum = sum
		w.mu.Unlock()
	}

	go w.processEvents(ctx)
	return nil
}

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case errWatch, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Errorf("file watcher error: %v", errWatch)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	name := normalizePath(event.Name)
	switch {
	case w.configPath != "" && name == normalizePath(w.configPath):
		if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
			log.Debugf("config file event: %s", event.Op)
			w.scheduleConfigReload()
		}
	case w.sessionPath != "" && name == normalizePath(w.sessionPath):
		if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
			log.Debugf("session file event: %s", event.Op)
			w.scheduleSessionCheck()
		}
	}
}

func normalizePath(path string) string {
	p := filepath.Clean(path)
	if runtime.GOOS == "windows" {
		p = strings.ToLower(p)
	}
	return p
}
