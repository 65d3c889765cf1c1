package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// ResultType is the outcome of an auth session.
type ResultType string

const (
	// ResultSuccess means the browser was redirected back to the application.
	ResultSuccess ResultType = "success"
	// ResultCancel means the caller gave up (context cancelled).
	ResultCancel ResultType = "cancel"
	// ResultDismiss means the session timed out without a redirect.
	ResultDismiss ResultType = "dismiss"
)

// Result is what an auth session returns. URL is set only for ResultSuccess.
type Result struct {
	Type ResultType
	URL  string
}

// AuthSession opens authURL and waits for the browser to come back to redirectURI.
type AuthSession interface {
	Open(ctx context.Context, authURL, redirectURI string) (Result, error)
}

// Options configures a Loopback session.
type Options struct {
	// ShowInRecents asks the platform to list the session in its recent activity. Desktop
	// browsers have no such list; the flag is only logged.
	ShowInRecents bool
	// NoBrowser prints the URL instead of launching a browser.
	NoBrowser bool
	// Timeout ends the session with ResultDismiss. Zero waits until ctx is done.
	Timeout time.Duration
	// Out receives the URL when it has to be opened by hand. Defaults to stdout.
	Out io.Writer
	// Opener launches the browser. Defaults to OpenURL.
	Opener func(url string) error
}

// Loopback serves the redirect URI on its host and port for the duration of one session.
type Loopback struct {
	Options Options
}

// NewLoopback creates a loopback auth session.
func NewLoopback(opts Options) *Loopback {
	return &Loopback{Options: opts}
}

const successPage = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Signed in</title></head>
<body style="font-family:sans-serif;text-align:center;padding-top:4em">
<h2>You are signed in</h2><p>You can close this window and return to restate.</p>
</body></html>`

// Open implements AuthSession.
func (l *Loopback) Open(ctx context.Context, authURL, redirectURI string) (Result, error) {
	redirect, err := url.Parse(redirectURI)
	if err != nil || redirect.Scheme != "http" || redirect.Host == "" {
		return Result{}, fmt.Errorf("browser: redirect URI %q must be an http loopback address", redirectURI)
	}
	path := redirect.Path
	if path == "" {
		path = "/"
	}

	results := make(chan Result, 1)
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET(path, func(c *gin.Context) {
		full := (&url.URL{Scheme: redirect.Scheme, Host: redirect.Host, Path: c.Request.URL.Path, RawQuery: c.Request.URL.RawQuery}).String()
		select {
		case results <- Result{Type: ResultSuccess, URL: full}:
			log.Debug("browser: redirect received")
		default:
			log.Warn("browser: duplicate redirect ignored")
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(successPage))
	})

	listener, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return Result{}, fmt.Errorf("browser: failed to listen on %s: %w", redirect.Host, err)
	}
	server := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}
	serveErr := make(chan error, 1)
	go func() {
		if errServe := server.Serve(listener); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			serveErr <- errServe
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
			log.WithError(errShutdown).Debug("browser: listener shutdown")
		}
	}()

	log.WithField("step", "browser").Debugf("auth session listening on %s (show-in-recents=%t)", redirect.Host, l.Options.ShowInRecents)
	l.launch(authURL)

	var timeout <-chan time.Time
	if l.Options.Timeout > 0 {
		timer := time.NewTimer(l.Options.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case result := <-results:
		return result, nil
	case errServe := <-serveErr:
		return Result{}, fmt.Errorf("browser: listener failed: %w", errServe)
	case <-ctx.Done():
		return Result{Type: ResultCancel}, nil
	case <-timeout:
		return Result{Type: ResultDismiss}, nil
	}
}

// launch opens the browser, or prints and copies the URL when that is not possible.
func (l *Loopback) launch(authURL string) {
	out := l.Options.Out
	if out == nil {
		out = os.Stdout
	}
	opener := l.Options.Opener
	if opener == nil {
		if l.Options.NoBrowser || !IsAvailable() {
			printURL(out, authURL)
			return
		}
		opener = OpenURL
	} else if l.Options.NoBrowser {
		printURL(out, authURL)
		return
	}
	if err := opener(authURL); err != nil {
		log.WithError(err).Warn("browser: failed to open browser")
		printURL(out, authURL)
	}
}

func printURL(out io.Writer, authURL string) {
	_, _ = fmt.Fprintf(out, "Open this URL in your browser to sign in:\n\n  %s\n\n", strings.TrimSpace(authURL))
	if err := clipboard.WriteAll(authURL); err != nil {
		log.WithError(err).Debug("browser: clipboard unavailable")
		return
	}
	_, _ = fmt.Fprintln(out, "(copied to clipboard)")
}
