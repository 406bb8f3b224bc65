// internal/hubspot/errors.go
package hubspot

import (
	"errors"
	"fmt"
)

var (
	// ErrStateMismatch is the fixed rejection for a missing or non-matching
	// state token. The message never carries detail; a mismatch is treated
	// as a possible forgery attempt.
	ErrStateMismatch = errors.New("state does not match")

	// ErrCredentialsNotFound means no credential bundle is stored for the
	// identity (never produced, already consumed, or expired).
	ErrCredentialsNotFound = errors.New("no credentials found")

	// ErrInvalidCredentials means the supplied bundle has no usable access token.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ProviderError carries an error the provider signalled during the redirect,
// passed through verbatim.
type ProviderError struct {
	Detail string
}

func (e *ProviderError) Error() string { return "provider error: " + e.Detail }

// UpstreamError is a non-success status from a provider API call.
type UpstreamError struct {
	Op     string
	Status int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s failed with status %d", e.Op, e.Status)
}
