// Package watcher watches the config file and the persisted session file and triggers
// hot reloads. It supports cross-platform fsnotify event handling.
package watcher

import (
	"context"
	"sync"
	"time"

	"github.com/anurestate/restate/internal/config"
	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

const (
	configReloadDebounce  = 150 * time.Millisecond
	sessionChangeDebounce = 250 * time.Millisecond
)

// Watcher manages file watching for the configuration and session files.
type Watcher struct {
	configPath  string
	sessionPath string

	mu             sync.Mutex
	config         *config.Config
	lastConfigHash string
	lastSessionSum string
	configTimer    *time.Timer
	sessionTimer   *time.Timer

	onConfig  func(*config.Config)
	onSession func()
	watcher   *fsnotify.Watcher
}

// NewWatcher creates a watcher. onConfig receives every successfully reloaded config;
// onSession is called when the session file is written or removed by another process.
// Either callback may be nil.
func NewWatcher(configPath, sessionPath string, onConfig func(*config.Config), onSession func()) (*Watcher, error) {
	fw, errNewWatcher := fsnotify.NewWatcher()
	if errNewWatcher != nil {
		return nil, errNewWatcher
	}
	return &Watcher{
		configPath:  configPath,
		sessionPath: sessionPath,
		onConfig:    onConfig,
		onSession:   onSession,
		watcher:     fw,
	}, nil
}

// SetConfig records the configuration currently in use so an unchanged file is not reloaded.
func (w *Watcher) SetConfig(cfg *config.Config) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.config = cfg
	if hash, err := fileHash(w.configPath); err == nil {
		w.lastConfigHash = hash
	}
}

// Config returns the most recently loaded configuration.
func (w *Watcher) Config() *config.Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.config
}

// Start begins watching. Events are processed until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	return w.start(ctx)
}

// Stop stops the file watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	for _, timer := range []*time.Timer{w.configTimer, w.sessionTimer} {
		if timer != nil {
			timer.Stop()
		}
	}
	w.configTimer, w.sessionTimer = nil, nil
	w.mu.Unlock()
	log.Debug("watcher stopped")
	return w.watcher.Close()
}
