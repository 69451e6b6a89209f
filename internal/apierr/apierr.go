// Package apierr defines the error taxonomy shared by every external adapter.
//
// Adapters translate wire-level failures into these kinds so handlers can
// match every arm with errors.Is/As instead of inspecting status codes or
// message strings.
package apierr

import (
	"errors"
	"fmt"
	"net"
)

var (
	// ErrNotFound reports that the remote service had no data for the query.
	ErrNotFound = errors.New("not found")
	// ErrRateLimited reports an HTTP 429 style per-call rate limit.
	// Callers should skip the remaining calls of the same batch.
	ErrRateLimited = errors.New("rate limited")
	// ErrQuotaExceeded reports an exhausted daily API quota. The affected
	// handler should yield for the rest of the day.
	ErrQuotaExceeded = errors.New("api quota exhausted")
)

// TransportError wraps a network-level failure reaching an adapter's service.
type TransportError struct {
	Service string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport error: %v", e.Service, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransport wraps err as a TransportError for the named service.
func NewTransport(service string, err error) *TransportError {
	return &TransportError{Service: service, Err: err}
}

// IsTransport reports whether err is (or wraps) a transport failure.
// Plain net errors count as well since adapters may surface them unwrapped.
func IsTransport(err error) bool {
	if err == nil {
		return false
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// Recoverable reports whether err is one of the kinds a handler recovers from
// with a spoken apology (as opposed to an unexpected failure that only the
// agent loop catches).
func Recoverable(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrQuotaExceeded) ||
		IsTransport(err)
}
