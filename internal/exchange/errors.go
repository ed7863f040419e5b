package exchange

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNetwork reports that the credential server could not be reached or
	// did not answer. Transport failures are surfaced verbatim and never
	// retried here; retry policy belongs to the caller.
	ErrNetwork = errors.New("server unavailable")

	// ErrAuthenticationFailed covers both a server-side 401 and a local
	// cryptographic finalization failure. A wrong password and a malformed
	// response are deliberately indistinguishable.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrRegistrationFailed reports that the server rejected the
	// registration upload, which is how an already-taken identifier
	// manifests. Resolution (the existence probe) happens in the caller.
	ErrRegistrationFailed = errors.New("registration failed")

	// ErrRateLimited is the sentinel matched by RateLimitedError.
	ErrRateLimited = errors.New("rate limited")

	// ErrServer is the sentinel matched by ServerError.
	ErrServer = errors.New("server error")
)

// RateLimitedError is returned on HTTP 429, carrying the server-suggested
// wait when a Retry-After header was present.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
	}
	return "rate limited"
}

func (e *RateLimitedError) Is(target error) bool { return target == ErrRateLimited }

// ServerError is returned for any unexpected HTTP status, carrying the
// status code for diagnostics.
type ServerError struct {
	Status int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error: status %d", e.Status)
}

func (e *ServerError) Is(target error) bool { return target == ErrServer }
