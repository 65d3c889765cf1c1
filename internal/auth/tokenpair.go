package auth

import (
	"fmt"
	"net/url"
	"strings"
)

// TokenPair is the one-time credential carried by the OAuth redirect. It lives only for
// the duration of one handshake.
type TokenPair struct {
	UserID string
	Secret string
}

// ParseTokenPair extracts userId and secret from a redirect URL. Query parameters are read
// first; a fragment of the form "#userId=..&secret=.." is accepted as a fallback.
func ParseTokenPair(rawURL string) (TokenPair, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return TokenPair{}, fmt.Errorf("invalid redirect URL: %w", err)
	}
	values := u.Query()
	pair := TokenPair{UserID: values.Get("userId"), Secret: values.Get("secret")}

	if (pair.UserID == "" || pair.Secret == "") && u.Fragment != "" {
		if fragment, errFrag := url.ParseQuery(u.Fragment); errFrag == nil {
			if pair.UserID == "" {
				pair.UserID = fragment.Get("userId")
			}
			if pair.Secret == "" {
				pair.Secret = fragment.Get("secret")
			}
		}
	}

	if pair.UserID == "" || pair.Secret == "" {
		if errParam := values.Get("error"); errParam != "" {
			return pair, fmt.Errorf("provider returned error: %s", errParam)
		}
		return pair, fmt.Errorf("secret present: %t, userId present: %t", pair.Secret != "", pair.UserID != "")
	}
	return pair, nil
}
