package appwrite

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// AccountChannel delivers events about the authenticated account and its sessions.
const AccountChannel = "account"

const (
	realtimeHeartbeat  = 20 * time.Second
	realtimeMinBackoff = time.Second
	realtimeMaxBackoff = 30 * time.Second
)

// Event is one realtime event.
type Event struct {
	Events    []string
	Channels  []string
	Timestamp string
	Payload   []byte
}

// HasEvent reports whether any event name contains fragment, e.g. ".sessions.".
func (e Event) HasEvent(fragment string) bool {
	for _, name := range e.Events {
		if strings.Contains(name, fragment) {
			return true
		}
	}
	return false
}

// Realtime keeps a websocket subscription open and reconnects until its context ends.
type Realtime struct {
	client   *Client
	dialer   *websocket.Dialer
	channels []string
	onEvent  func(Event)

	heartbeat  time.Duration
	minBackoff time.Duration
	maxBackoff time.Duration

	reauth chan struct{}
}

// Realtime returns a subscription to channels. onEvent runs on the subscription goroutine.
// A nil dialer uses websocket.DefaultDialer.
func (c *Client) Realtime(dialer *websocket.Dialer, onEvent func(Event), channels ...string) *Realtime {
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	if len(channels) == 0 {
		channels = []string{AccountChannel}
	}
	return &Realtime{
		client:     c,
		dialer:     dialer,
		channels:   channels,
		onEvent:    onEvent,
		heartbeat:  realtimeHeartbeat,
		minBackoff: realtimeMinBackoff,
		maxBackoff: realtimeMaxBackoff,
		reauth:     make(chan struct{}, 1),
	}
}

// Reauthenticate asks the open connection to send the stored session secret again. Run
// calls it whenever the client creates a new session.
func (r *Realtime) Reauthenticate() {
	select {
	case r.reauth <- struct{}{}:
	default:
	}
}

// URL returns the websocket address for the subscription.
func (r *Realtime) URL() (string, error) {
	parsed, err := url.Parse(r.client.endpoint)
	if err != nil || parsed.Host == "" {
		return "", fmt.Errorf("realtime: invalid endpoint %q", r.client.endpoint)
	}
	switch parsed.Scheme {
	case "https":
		parsed.Scheme = "wss"
	default:
		parsed.Scheme = "ws"
	}
	parsed.Path = strings.TrimRight(parsed.Path, "/") + "/realtime"
	params := url.Values{}
	params.Set("project", r.client.projectID)
	for _, ch := range r.channels {
		params.Add("channels[]", ch)
	}
	parsed.RawQuery = params.Encode()
	return parsed.String(), nil
}

// Run blocks, delivering events, until ctx is done. Dropped connections are retried with
// exponential backoff.
func (r *Realtime) Run(ctx context.Context) error {
	stopListening := r.client.OnSessionChange(r.Reauthenticate)
	defer stopListening()

	backoff := r.minBackoff
	for {
		connected, err := r.runOnce(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if connected {
			backoff = r.minBackoff
		}
		log.WithError(err).Debugf("realtime: connection ended, retrying in %s", backoff)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		backoff = min(backoff*2, r.maxBackoff)
	}
}

// runOnce serves one connection. connected reports whether the handshake succeeded.
func (r *Realtime) runOnce(ctx context.Context) (connected bool, err error) {
	target, err := r.URL()
	if err != nil {
		return false, err
	}
	conn, _, err := r.dialer.DialContext(ctx, target, nil)
	if err != nil {
		return false, fmt.Errorf("realtime: dial failed: %w", err)
	}

	var writeMu sync.Mutex
	write := func(payload string) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteMessage(websocket.TextMessage, []byte(payload))
	}

	// authenticate sends the stored secret unless it was already sent on this connection.
	var authMu sync.Mutex
	var sentSecret string
	authenticate := func() error {
		authMu.Lock()
		defer authMu.Unlock()
		secret, errLoad := r.client.store.Load()
		if errLoad != nil {
			log.WithError(errLoad).Debug("realtime: failed to load session secret")
			return nil
		}
		if secret == "" || secret == sentSecret {
			return nil
		}
		frame, _ := sjson.Set(`{"type":"authentication"}`, "data.session", secret)
		if errWrite := write(frame); errWrite != nil {
			return errWrite
		}
		sentSecret = secret
		return nil
	}
	var ready atomic.Bool

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(r.heartbeat)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = conn.Close()
				return
			case <-done:
				_ = conn.Close()
				return
			case <-ticker.C:
				if errPing := write(`{"type":"ping"}`); errPing != nil {
					log.WithError(errPing).Debug("realtime: heartbeat failed")
				}
			case <-r.reauth:
				if !ready.Load() {
					continue
				}
				if errAuth := authenticate(); errAuth != nil {
					log.WithError(errAuth).Debug("realtime: reauthentication failed")
				}
			}
		}
	}()

	for {
		_, payload, errRead := conn.ReadMessage()
		if errRead != nil {
			return connected, errRead
		}
		msg := gjson.ParseBytes(payload)
		switch msg.Get("type").String() {
		case "connected":
			connected = true
			ready.Store(true)
			if errAuth := authenticate(); errAuth != nil {
				return connected, fmt.Errorf("realtime: authentication failed: %w", errAuth)
			}
		case "event":
			if r.onEvent != nil {
				r.onEvent(eventFrom(msg.Get("data")))
			}
		case "error":
			log.Warnf("realtime: server error %d: %s", msg.Get("data.code").Int(), msg.Get("data.message").String())
			if msg.Get("data.code").Int() == 1008 {
				return connected, errors.New("realtime: policy violation")
			}
		}
	}
}

func eventFrom(data gjson.Result) Event {
	evt := Event{
		Timestamp: data.Get("timestamp").String(),
		Payload:   []byte(data.Get("payload").Raw),
	}
	for _, e := range data.Get("events").Array() {
		evt.Events = append(evt.Events, e.String())
	}
	for _, ch := range data.Get("channels").Array() {
		evt.Channels = append(evt.Channels, ch.String())
	}
	return evt
}
