// Package appwrite is a small REST client for the Appwrite account, avatars and databases
// services, plus the realtime account channel. It holds the session secret issued by the
// OAuth token exchange and classifies every failure into a typed Kind.
package appwrite

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"runtime"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	// ResponseFormat pins the JSON shapes this client parses.
	ResponseFormat = "1.5.0"

	defaultTimeout = 30 * time.Second
)

// Options configures a Client.
type Options struct {
	// Endpoint is the API base, e.g. "https://cloud.appwrite.io/v1".
	Endpoint string
	// ProjectID identifies the backend project.
	ProjectID string
	// Platform is the application bundle identifier sent in the Origin header.
	Platform string
	// HTTPClient performs requests. Defaults to a client with a 30s timeout.
	HTTPClient *http.Client
	// Store persists the session secret. Defaults to an in-memory store.
	Store SessionStore
}

// Client talks to one Appwrite project.
type Client struct {
	endpoint   string
	projectID  string
	platform   string
	httpClient *http.Client
	store      SessionStore

	listenMu     sync.Mutex
	listeners    map[int]func()
	nextListener int
}

// NewClient creates a client for the given options.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	store := opts.Store
	if store == nil {
		store = NewMemoryStore()
	}
	return &Client{
		endpoint:   strings.TrimRight(strings.TrimSpace(opts.Endpoint), "/"),
		projectID:  strings.TrimSpace(opts.ProjectID),
		platform:   strings.TrimSpace(opts.Platform),
		httpClient: httpClient,
		store:      store,
	}
}

// Endpoint returns the configured API base.
func (c *Client) Endpoint() string { return c.endpoint }

// ProjectID returns the configured project identifier.
func (c *Client) ProjectID() string { return c.projectID }

// Store returns the session store backing this client.
func (c *Client) Store() SessionStore { return c.store }

// HasSession reports whether a session secret is currently held.
func (c *Client) HasSession() bool {
	secret, err := c.store.Load()
	return err == nil && secret != ""
}

func (c *Client) origin() string {
	return fmt.Sprintf("appwrite-%s://%s", runtime.GOOS, c.platform)
}

// do performs one API call and returns the decoded body of a 2xx response.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader) ([]byte, *http.Response, error) {
	if c.endpoint == "" {
		return nil, nil, &Error{Kind: KindUnknown, Message: "endpoint is not configured"}
	}
	target := c.endpoint + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, nil, &Error{Kind: KindUnknown, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("X-Appwrite-Project", c.projectID)
	req.Header.Set("X-Appwrite-Response-Format", ResponseFormat)
	req.Header.Set("Origin", c.origin())
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", acceptEncoding)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if secret, errLoad := c.store.Load(); errLoad != nil {
		log.WithError(errLoad).Warn("appwrite: failed to load session secret")
	} else if secret != "" {
		req.Header.Set("X-Appwrite-Session", secret)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, errorFromTransport(fmt.Sprintf("%s %s failed", method, path), err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := readBody(resp)
	if err != nil {
		return nil, resp, &Error{Kind: KindNetwork, Code: resp.StatusCode, Message: "failed to read response", Cause: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := errorFromResponse(resp.StatusCode, data)
		log.Debugf("appwrite: %s %s -> %d %s", method, path, resp.StatusCode, apiErr.Type)
		return nil, resp, apiErr
	}
	return data, resp, nil
}

// OnSessionChange registers fn to run after this client stores a new session secret.
// fn runs on the goroutine that created the session and must not block.
func (c *Client) OnSessionChange(fn func()) (cancel func()) {
	c.listenMu.Lock()
	defer c.listenMu.Unlock()
	if c.listeners == nil {
		c.listeners = make(map[int]func())
	}
	id := c.nextListener
	c.nextListener++
	c.listeners[id] = fn
	return func() {
		c.listenMu.Lock()
		delete(c.listeners, id)
		c.listenMu.Unlock()
	}
}

func (c *Client) sessionChanged() {
	c.listenMu.Lock()
	fns := make([]func(), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.listenMu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
