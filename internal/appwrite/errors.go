package appwrite

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// Kind classifies a backend failure so callers can branch without reading message text.
type Kind int

const (
	// KindUnknown covers every failure that is neither an absent session nor a transport problem.
	KindUnknown Kind = iota
	// KindUnauthenticated means the request carried no usable session ("missing scope").
	KindUnauthenticated
	// KindNetwork means the backend could not be reached or answered with a gateway failure.
	KindNetwork
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// Backend error types that mean "there is no session to act on".
var unauthenticatedTypes = map[string]struct{}{
	"general_unauthorized_scope": {},
	"user_unauthorized":          {},
	"user_session_not_found":     {},
	"user_jwt_invalid":           {},
}

// Error is returned by every Client call that fails.
type Error struct {
	// Kind is the classified failure category.
	Kind Kind
	// Code is the HTTP status code, zero for transport failures.
	Code int
	// Type is the backend error type, e.g. "general_unauthorized_scope".
	Type string
	// Message is the backend or transport message.
	Message string
	// Cause is the underlying error, if any.
	Cause error
}

// Error returns a string representation of the backend error.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("appwrite ")
	b.WriteString(e.Kind.String())
	if e.Code != 0 {
		fmt.Fprintf(&b, " (%d", e.Code)
		if e.Type != "" {
			b.WriteString(" ")
			b.WriteString(e.Type)
		}
		b.WriteString(")")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, " (caused by: %v)", e.Cause)
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// KindOf returns the classification of err. Errors that did not come from the client are KindUnknown.
func KindOf(err error) Kind {
	if apiErr, ok := errors.AsType[*Error](err); ok {
		return apiErr.Kind
	}
	return KindUnknown
}

// IsUnauthenticated reports whether err means there is no active session.
func IsUnauthenticated(err error) bool {
	return err != nil && KindOf(err) == KindUnauthenticated
}

// errorFromResponse builds an Error from a non-2xx response body.
func errorFromResponse(status int, body []byte) *Error {
	errType := ""
	message := ""
	if gjson.ValidBytes(body) {
		parsed := gjson.ParseBytes(body)
		errType = parsed.Get("type").String()
		message = parsed.Get("message").String()
	}
	if message == "" {
		message = strings.TrimSpace(http.StatusText(status))
	}

	kind := KindUnknown
	switch {
	case status == http.StatusUnauthorized:
		kind = KindUnauthenticated
	case errType != "":
		if _, ok := unauthenticatedTypes[errType]; ok {
			kind = KindUnauthenticated
		}
	}
	if kind == KindUnknown {
		switch status {
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			kind = KindNetwork
		}
	}
	return &Error{Kind: kind, Code: status, Type: errType, Message: message}
}

// errorFromTransport wraps a failure that happened before a response was read.
func errorFromTransport(op string, err error) *Error {
	kind := KindUnknown
	if _, ok := errors.AsType[net.Error](err); ok || errors.Is(err, context.DeadlineExceeded) {
		kind = KindNetwork
	}
	return &Error{Kind: kind, Message: op, Cause: err}
}
