// config_reload.go implements debounced configuration hot reload and session file
// change detection.
package watcher

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/anurestate/restate/internal/config"
	"github.com/anurestate/restate/internal/util"
	log "github.com/sirupsen/logrus"
)

// fileHash returns the sha256 of path, or "" when the file does not exist.
func fileHash(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func (w *Watcher) debounce(timer **time.Timer, delay time.Duration, fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if *timer != nil {
		(*timer).Stop()
	}
	*timer = time.AfterFunc(delay, fn)
}

func (w *Watcher) scheduleConfigReload() {
	w.debounce(&w.configTimer, configReloadDebounce, w.reloadConfigIfChanged)
}

func (w *Watcher) scheduleSessionCheck() {
	w.debounce(&w.sessionTimer, sessionChangeDebounce, w.notifySessionIfChanged)
}

func (w *Watcher) reloadConfigIfChanged() {
	data, err := os.ReadFile(w.configPath)
	if err != nil {
		log.Errorf("failed to read config file for hash check: %v", err)
		return
	}
	if len(data) == 0 {
		log.Debugf("ignoring empty config file write event")
		return
	}
	sum := sha256.Sum256(data)
	newHash := hex.EncodeToString(sum[:])

	w.mu.Lock()
	unchanged := w.lastConfigHash != "" && w.lastConfigHash == newHash
	w.mu.Unlock()
	if unchanged {
		log.Debugf("config file content unchanged (hash match), skipping reload")
		return
	}

	log.Infof("config file changed, reloading: %s", w.configPath)
	newConfig, errLoad := config.LoadConfig(w.configPath)
	if errLoad != nil {
		log.Errorf("failed to reload config: %v", errLoad)
		return
	}

	w.mu.Lock()
	oldConfig := w.config
	w.config = newConfig
	w.lastConfigHash = newHash
	w.mu.Unlock()

	util.SetLogLevel(newConfig)
	if oldConfig != nil {
		for _, change := range describeChanges(oldConfig, newConfig) {
			log.Debugf("  %s", change)
		}
	}
	if w.onConfig != nil {
		w.onConfig(newConfig)
	}
}

func (w *Watcher) notifySessionIfChanged() {
	sum, err := fileHash(w.sessionPath)
	if err != nil {
		log.Errorf("failed to read session file: %v", err)
		return
	}
	w.mu.Lock()
	changed := sum != w.lastSessionSum
	w.lastSessionSum = sum
	w.mu.Unlock()
	if !changed {
		return
	}
	log.Info("session file changed, refreshing session")
	if w.onSession != nil {
		w.onSession()
	}
}

// describeChanges lists the settings that differ between two configs. Secrets are not
// part of the config, so values are printed as is.
func describeChanges(oldCfg, newCfg *config.Config) []string {
	var changes []string
	add := func(name string, oldValue, newValue any) {
		if oldValue != newValue {
			changes = append(changes, fmt.Sprintf("%s: %v -> %v", name, oldValue, newValue))
		}
	}
	add("endpoint", oldCfg.Endpoint, newCfg.Endpoint)
	add("project-id", oldCfg.ProjectID, newCfg.ProjectID)
	add("database-id", oldCfg.DatabaseID, newCfg.DatabaseID)
	add("oauth-provider", oldCfg.OAuthProvider, newCfg.OAuthProvider)
	add("redirect-url", oldCfg.RedirectURL, newCfg.RedirectURL)
	add("proxy-url", oldCfg.ProxyURL, newCfg.ProxyURL)
	add("debug", oldCfg.Debug, newCfg.Debug)
	add("realtime", oldCfg.Realtime, newCfg.Realtime)
	add("require-auth", oldCfg.Guard.RequiresAuth(), newCfg.Guard.RequiresAuth())
	return changes
}
