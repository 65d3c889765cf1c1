package appwrite

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// CurrentSession selects the session the request is authenticated with.
const CurrentSession = "current"

// Account is the account record of the authenticated user.
type Account struct {
	ID     string
	Name   string
	Email  string
	Status bool
	// Raw holds the full JSON record.
	Raw []byte
}

// Session is a backend session created from an OAuth token.
type Session struct {
	ID       string
	UserID   string
	Provider string
	Expire   string
	// Secret is the credential presented on later requests. It may come from the body,
	// the session cookie or the fallback cookie header.
	Secret string
}

// CreateOAuth2Token returns the provider authorization URL for the token flow. The URL is
// assembled locally; the backend redirects to success with userId and secret once the
// user has consented.
func (c *Client) CreateOAuth2Token(ctx context.Context, provider, success, failure string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	provider = strings.TrimSpace(provider)
	if c.endpoint == "" || c.projectID == "" || provider == "" {
		return "", &Error{Kind: KindUnknown, Message: "endpoint, project and provider are required for oauth2 token"}
	}
	params := url.Values{}
	if success != "" {
		params.Set("success", success)
	}
	if failure != "" {
		params.Set("failure", failure)
	}
	params.Set("project", c.projectID)
	return fmt.Sprintf("%s/account/tokens/oauth2/%s?%s", c.endpoint, url.PathEscape(provider), params.Encode()), nil
}

// CreateSession exchanges a token pair for a session and keeps its secret in the store.
func (c *Client) CreateSession(ctx context.Context, userID, secret string) (*Session, error) {
	body, _ := sjson.Set(`{}`, "userId", userID)
	body, _ = sjson.Set(body, "secret", secret)

	data, resp, err := c.do(ctx, http.MethodPost, "/account/sessions/token", nil, bytes.NewBufferString(body))
	if err != nil {
		return nil, err
	}
	parsed := gjson.ParseBytes(data)
	if !parsed.Get("$id").Exists() {
		return nil, nil
	}
	session := &Session{
		ID:       parsed.Get("$id").String(),
		UserID:   parsed.Get("userId").String(),
		Provider: parsed.Get("provider").String(),
		Expire:   parsed.Get("expire").String(),
		Secret:   parsed.Get("secret").String(),
	}
	if session.Secret == "" {
		session.Secret = c.sessionSecretFromResponse(resp)
	}
	if session.Secret != "" {
		if errSave := c.store.Save(session.Secret); errSave != nil {
			log.WithError(errSave).Warn("appwrite: failed to persist session secret")
		}
		c.sessionChanged()
	}
	return session, nil
}

// sessionSecretFromResponse reads the secret from the a_session_<project> cookie or the
// X-Fallback-Cookies header used by clients without a cookie jar.
func (c *Client) sessionSecretFromResponse(resp *http.Response) string {
	if resp == nil {
		return ""
	}
	name := "a_session_" + c.projectID
	for _, cookie := range resp.Cookies() {
		if cookie.Name == name && cookie.Value != "" {
			return cookie.Value
		}
	}
	if fallback := resp.Header.Get("X-Fallback-Cookies"); fallback != "" && gjson.Valid(fallback) {
		return gjson.Get(fallback, gjson.Escape(name)).String()
	}
	return ""
}

// DeleteSession deletes a session; use CurrentSession for the one in use. The stored secret
// is dropped on success and when the backend reports there is no session.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		sessionID = CurrentSession
	}
	_, _, err := c.do(ctx, http.MethodDelete, "/account/sessions/"+url.PathEscape(sessionID), nil, nil)
	if err == nil || IsUnauthenticated(err) {
		if sessionID == CurrentSession {
			if errClear := c.store.Clear(); errClear != nil {
				log.WithError(errClear).Warn("appwrite: failed to clear session secret")
			}
		}
	}
	return err
}

// GetAccount fetches the account of the current session.
func (c *Client) GetAccount(ctx context.Context) (*Account, error) {
	data, _, err := c.do(ctx, http.MethodGet, "/account", nil, nil)
	if err != nil {
		return nil, err
	}
	parsed := gjson.ParseBytes(data)
	return &Account{
		ID:     parsed.Get("$id").String(),
		Name:   parsed.Get("name").String(),
		Email:  parsed.Get("email").String(),
		Status: parsed.Get("status").Bool(),
		Raw:    data,
	}, nil
}

// AvatarInitials returns the URL of an initials avatar for name. The URL depends only on
// name and the project.
func (c *Client) AvatarInitials(name string) string {
	params := url.Values{}
	if name != "" {
		params.Set("name", name)
	}
	params.Set("project", c.projectID)
	return fmt.Sprintf("%s/avatars/initials?%s", c.endpoint, params.Encode())
}
