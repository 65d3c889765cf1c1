// Package auth drives the OAuth redirect handshake against the backend: token creation,
// the browser round trip, token pair extraction and the session exchange.
package auth

import (
	"errors"
	"fmt"

	"github.com/anurestate/restate/internal/appwrite"
)

// HandshakeError reports which handshake step failed.
type HandshakeError struct {
	// Step names the failed step, e.g. "token_creation".
	Step string
	// Message is a human-readable description of the failure.
	Message string
	// Cause is the underlying error, if any.
	Cause error
}

// Error returns a string representation of the handshake error.
func (e *HandshakeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Step, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Step, e.Message)
}

// Unwrap returns the underlying cause.
func (e *HandshakeError) Unwrap() error {
	return e.Cause
}

// Is matches handshake errors of the same step, so errors.Is(err, ErrSessionExchange) works
// on errors built with NewHandshakeError.
func (e *HandshakeError) Is(target error) bool {
	t, ok := target.(*HandshakeError)
	return ok && t.Step == e.Step
}

// Handshake failure steps.
var (
	// ErrTokenCreation means no authorization URL was obtained.
	ErrTokenCreation = &HandshakeError{
		Step:    "token_creation",
		Message: "OAuth token creation failed",
	}

	// ErrBrowserSession means the browser did not return to the application.
	ErrBrowserSession = &HandshakeError{
		Step:    "browser",
		Message: "Browser authentication failed",
	}

	// ErrMissingParams means the redirect lacked userId or secret.
	ErrMissingParams = &HandshakeError{
		Step:    "parse_redirect",
		Message: "Missing authentication parameters",
	}

	// ErrSessionExchange means the token pair was not exchanged for a session.
	ErrSessionExchange = &HandshakeError{
		Step:    "session_exchange",
		Message: "Failed to create session",
	}
)

// NewHandshakeError creates a handshake error with a cause based on a base error.
func NewHandshakeError(base *HandshakeError, cause error) *HandshakeError {
	return &HandshakeError{
		Step:    base.Step,
		Message: base.Message,
		Cause:   cause,
	}
}

// UserFriendlyMessage returns a message suitable for the terminal.
func UserFriendlyMessage(err error) string {
	if err == nil {
		return ""
	}
	if appwrite.KindOf(err) == appwrite.KindNetwork {
		return "Could not reach the server. Check your connection and try again."
	}
	handshakeErr, ok := errors.AsType[*HandshakeError](err)
	if !ok {
		return "An unexpected error occurred. Please try again."
	}
	switch handshakeErr.Step {
	case ErrTokenCreation.Step:
		return "Could not start sign-in. Check the endpoint and project settings."
	case ErrBrowserSession.Step:
		return "Sign-in was cancelled or the browser window was closed."
	case ErrMissingParams.Step:
		return "Sign-in did not complete. The provider returned without credentials."
	case ErrSessionExchange.Step:
		return "Sign-in was accepted but no session could be created. Please try again."
	default:
		return "Authentication failed. Please try again."
	}
}
