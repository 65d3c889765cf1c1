// Package main provides the entry point for restate, a terminal client for the ReState
// property listings backend. It signs users in through the browser, keeps the session
// between runs, and browses listings from the command line or an interactive UI.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/anurestate/restate/internal/buildinfo"
	"github.com/anurestate/restate/internal/cmd"
	"github.com/anurestate/restate/internal/config"
	"github.com/anurestate/restate/internal/logging"
	"github.com/anurestate/restate/internal/properties"
	"github.com/anurestate/restate/internal/session"
	"github.com/anurestate/restate/internal/util"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

var (
	Version           = "dev"
	Commit            = "none"
	BuildDate         = "unknown"
	DefaultConfigPath = ""
)

// init initializes the shared logger setup.
func init() {
	logging.SetupBaseLogger()
	buildinfo.Version = Version
	buildinfo.Commit = Commit
	buildinfo.BuildDate = BuildDate
}

// main is the entry point of the application.
// It parses command-line flags, loads configuration, and runs the selected mode.
// Without a mode flag the interactive terminal client starts.
func main() {
	os.Exit(run())
}

func run() int {
	var login bool
	var logout bool
	var whoami bool
	var listProperties bool
	var propertyID string
	var filter string
	var query string
	var limit int
	var noBrowser bool
	var loginTimeout time.Duration
	var configPath string
	var tuiMode bool
	var showVersion bool

	flag.BoolVar(&login, "login", false, "Sign in with the configured OAuth provider")
	flag.BoolVar(&logout, "logout", false, "Sign out and delete the current session")
	flag.BoolVar(&whoami, "whoami", false, "Print the signed-in user")
	flag.BoolVar(&listProperties, "properties", false, "List property listings")
	flag.StringVar(&propertyID, "id", "", "With -properties, show a single listing")
	flag.StringVar(&filter, "filter", properties.AllFilter, "With -properties, property type to list")
	flag.StringVar(&query, "query", "", "With -properties, search name, address and type")
	flag.IntVar(&limit, "limit", 0, "With -properties, maximum number of listings")
	flag.BoolVar(&noBrowser, "no-browser", false, "Don't open browser automatically for OAuth")
	flag.DurationVar(&loginTimeout, "login-timeout", 5*time.Minute, "Give up on a browser sign in after this long")
	flag.StringVar(&configPath, "config", DefaultConfigPath, "Configure File Path")
	flag.BoolVar(&tuiMode, "tui", false, "Start the interactive terminal client (default)")
	flag.BoolVar(&showVersion, "version", false, "Print version information")
	flag.Parse()

	if showVersion {
		fmt.Printf("restate Version: %s, Commit: %s, BuiltAt: %s\n", buildinfo.Version, buildinfo.Commit, buildinfo.BuildDate)
		return 0
	}

	modes := 0
	for _, set := range []bool{login, logout, whoami, listProperties, tuiMode} {
		if set {
			modes++
		}
	}
	if modes > 1 {
		fmt.Fprintln(os.Stderr, "choose only one of -login, -logout, -whoami, -properties, -tui")
		return 2
	}

	wd, err := os.Getwd()
	if err != nil {
		log.Errorf("failed to get working directory: %v", err)
		return 1
	}

	// Load environment variables from .env if present.
	if errLoad := godotenv.Load(filepath.Join(wd, ".env")); errLoad != nil {
		if !errors.Is(errLoad, os.ErrNotExist) {
			log.WithError(errLoad).Warn("failed to load .env file")
		}
	}

	if strings.TrimSpace(configPath) == "" {
		configPath = filepath.Join(wd, "config.yaml")
	}
	if _, errEnsure := config.EnsureConfigFile(configPath); errEnsure != nil {
		log.WithError(errEnsure).Warn("continuing without a config file")
	}
	cfg, err := config.LoadConfigOptional(configPath, true)
	if err != nil {
		log.Errorf("failed to load config: %v", err)
		return 1
	}

	if err = logging.ConfigureLogOutput(cfg); err != nil {
		log.Errorf("failed to configure log output: %v", err)
		return 1
	}
	defer logging.Close()
	util.SetLogLevel(cfg)
	log.Debugf("restate Version: %s, Commit: %s, BuiltAt: %s", buildinfo.Version, buildinfo.Commit, buildinfo.BuildDate)

	if missing := cfg.Validate(); len(missing) > 0 {
		log.Warnf("configuration incomplete, missing: %s", strings.Join(missing, ", "))
	}

	rt, err := cmd.NewRuntime(cfg, &cmd.LoginOptions{NoBrowser: noBrowser, Timeout: loginTimeout})
	if err != nil {
		log.Errorf("failed to initialize: %v", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The one session provider for this process.
	provider := session.NewProvider(rt.Accessor)
	defer provider.Close()
	ctx = session.WithProvider(ctx, provider)

	ok := true
	switch {
	case login:
		ok = cmd.DoLogin(ctx, rt, os.Stdout)
	case logout:
		ok = cmd.DoLogout(ctx, rt, os.Stdout)
	case whoami:
		ok = cmd.DoWhoami(ctx, rt, os.Stdout)
	case listProperties:
		ok = cmd.DoProperties(ctx, rt, properties.Filter{Filter: filter, Query: query, Limit: limit}, propertyID, os.Stdout)
	default:
		rt.StartBackground(ctx, configPath, provider)
		if errRun := cmd.RunTUI(ctx, rt); errRun != nil {
			fmt.Fprintf(os.Stderr, "TUI error: %v\n", errRun)
			ok = false
		}
	}
	if !ok {
		return 1
	}
	return 0
}
