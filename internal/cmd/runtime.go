// Package cmd implements the restate command modes: login, logout, whoami, property
// listing and the interactive terminal client. Every mode shares one Runtime and one
// session provider per process.
package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/anurestate/restate/internal/appwrite"
	"github.com/anurestate/restate/internal/auth"
	"github.com/anurestate/restate/internal/browser"
	"github.com/anurestate/restate/internal/config"
	"github.com/anurestate/restate/internal/properties"
	"github.com/anurestate/restate/internal/session"
	"github.com/anurestate/restate/internal/util"
	"github.com/anurestate/restate/internal/watcher"
	log "github.com/sirupsen/logrus"
)

// sessionFileName is the file under the auth directory holding the session secret.
const sessionFileName = "session.json"

const httpTimeout = 30 * time.Second

// LoginOptions contains options for the login processes.
type LoginOptions struct {
	// NoBrowser indicates whether to skip opening the browser automatically.
	NoBrowser bool

	// Timeout ends a browser session that never returns. Zero waits until interrupted.
	Timeout time.Duration
}

// Runtime holds the clients and services every command mode uses.
type Runtime struct {
	Config      *config.Config
	Client      *appwrite.Client
	Browser     *browser.Loopback
	Accessor    *session.Accessor
	Coordinator *auth.Coordinator
	Properties  *properties.Service
	SessionPath string
}

// NewRuntime builds the runtime for cfg. The session secret is persisted under the
// configured auth directory.
func NewRuntime(cfg *config.Config, options *LoginOptions) (*Runtime, error) {
	if options == nil {
		options = &LoginOptions{}
	}
	authDir, err := util.ResolveAuthDir(cfg.AuthDir)
	if err != nil {
		return nil, err
	}
	if authDir == "" {
		return nil, fmt.Errorf("auth-dir is not configured")
	}
	sessionPath := filepath.Join(authDir, sessionFileName)

	client := appwrite.NewClient(appwrite.Options{
		Endpoint:   cfg.Endpoint,
		ProjectID:  cfg.ProjectID,
		Platform:   cfg.Platform,
		HTTPClient: util.NewHTTPClient(cfg.ProxyURL, httpTimeout),
		Store:      appwrite.NewFileStore(sessionPath),
	})
	loopback := browser.NewLoopback(browser.Options{
		NoBrowser: options.NoBrowser || cfg.NoBrowser,
		Timeout:   options.Timeout,
	})

	return &Runtime{
		Config:   cfg,
		Client:   client,
		Browser:  loopback,
		Accessor: session.NewAccessor(client),
		Coordinator: &auth.Coordinator{
			Client:       client,
			Browser:      loopback,
			Provider:     cfg.OAuthProvider,
			RedirectBase: cfg.RedirectURL,
		},
		Properties:  properties.NewService(client, cfg),
		SessionPath: sessionPath,
	}, nil
}

// StartBackground keeps the provider in sync with changes made outside this process:
// edits to the config file, the session file being rewritten by another restate process,
// and, when enabled, account events from the realtime channel. It runs until ctx is done.
func (rt *Runtime) StartBackground(ctx context.Context, configPath string, provider *session.Provider) {
	refetch := func() {
		if errRefetch := provider.Refetch(ctx, nil); errRefetch != nil {
			log.WithError(errRefetch).Debug("session refresh skipped")
		}
	}

	if w, errWatcher := watcher.NewWatcher(configPath, rt.SessionPath, func(newCfg *config.Config) {
		if newCfg.Endpoint != rt.Config.Endpoint || newCfg.ProjectID != rt.Config.ProjectID {
			log.Warn("backend endpoint or project changed; restart restate to apply it")
		}
	}, refetch); errWatcher != nil {
		log.WithError(errWatcher).Warn("file watcher unavailable")
	} else {
		w.SetConfig(rt.Config)
		if errStart := w.Start(ctx); errStart != nil {
			log.WithError(errStart).Warn("failed to start file watcher")
		} else {
			go func() {
				<-ctx.Done()
				if errStop := w.Stop(); errStop != nil {
					log.WithError(errStop).Debug("failed to stop file watcher")
				}
			}()
		}
	}

	if rt.Config.Realtime {
		subscription := rt.Client.Realtime(util.NewWebsocketDialer(rt.Config.ProxyURL), provider.HandleAccountEvent)
		go func() {
			if errRun := subscription.Run(ctx); errRun != nil && ctx.Err() == nil {
				log.WithError(errRun).Warn("realtime subscription stopped")
			}
		}()
	}
}
