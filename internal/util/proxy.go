package util

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/proxy"
)

// NewHTTPClient returns an HTTP client for backend calls, routed through proxyURL when set.
func NewHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	return SetProxy(proxyURL, &http.Client{Timeout: timeout})
}

// SetProxy configures the provided HTTP client with the given proxy URL.
// It supports SOCKS5, HTTP, and HTTPS proxies. Unparseable or unsupported URLs leave
// the client untouched.
func SetProxy(proxyURL string, httpClient *http.Client) *http.Client {
	if strings.TrimSpace(proxyURL) == "" {
		return httpClient
	}
	var transport *http.Transport
	parsed, errParse := url.Parse(proxyURL)
	if errParse != nil {
		log.Errorf("parse proxy url failed: %v", errParse)
		return httpClient
	}
	switch parsed.Scheme {
	case "socks5":
		var proxyAuth *proxy.Auth
		if parsed.User != nil {
			username := parsed.User.Username()
			password, _ := parsed.User.Password()
			proxyAuth = &proxy.Auth{User: username, Password: password}
		}
		dialer, errSOCKS5 := proxy.SOCKS5("tcp", parsed.Host, proxyAuth, proxy.Direct)
		if errSOCKS5 != nil {
			log.Errorf("create SOCKS5 dialer failed: %v", errSOCKS5)
			return httpClient
		}
		transport = &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			},
		}
	case "http", "https":
		transport = &http.Transport{Proxy: http.ProxyURL(parsed)}
	default:
		log.Warnf("unsupported proxy scheme %q, using direct connection", parsed.Scheme)
	}
	if transport != nil {
		httpClient.Transport = transport
	}
	return httpClient
}

// NewWebsocketDialer returns a websocket dialer that honours the same proxy settings as
// NewHTTPClient.
func NewWebsocketDialer(proxyURL string) *websocket.Dialer {
	dialer := &websocket.Dialer{
		Proxy:             http.ProxyFromEnvironment,
		HandshakeTimeout:  15 * time.Second,
		EnableCompression: true,
		NetDialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}
	if strings.TrimSpace(proxyURL) == "" {
		return dialer
	}
	parsed, errParse := url.Parse(proxyURL)
	if errParse != nil {
		log.Errorf("websocket dialer: parse proxy URL failed: %v", errParse)
		return dialer
	}
	switch parsed.Scheme {
	case "socks5":
		var proxyAuth *proxy.Auth
		if parsed.User != nil {
			username := parsed.User.Username()
			password, _ := parsed.User.Password()
			proxyAuth = &proxy.Auth{User: username, Password: password}
		}
		socksDialer, errSOCKS5 := proxy.SOCKS5("tcp", parsed.Host, proxyAuth, proxy.Direct)
		if errSOCKS5 != nil {
			log.Errorf("websocket dialer: create SOCKS5 dialer failed: %v", errSOCKS5)
			return dialer
		}
		dialer.Proxy = nil
		dialer.NetDialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
			return socksDialer.Dial(network, addr)
		}
	case "http", "https":
		dialer.Proxy = http.ProxyURL(parsed)
	default:
		log.Errorf("websocket dialer: unsupported proxy scheme: %s", parsed.Scheme)
	}
	return dialer
}
