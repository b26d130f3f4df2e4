package fetch

import (
	"context"
	"fmt"
	"net"

	"github.com/cockroachdb/errors"
)

// ErrOffline is returned when the offline probe reports no connectivity.
// Offline requests are abandoned immediately, never retried.
var ErrOffline = errors.New("client is offline")

// StatusError is returned when the remote server responds with a non-2xx status.
type StatusError struct {
	URL        string
	Status     string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status response from %s: %s", e.URL, e.Status)
}

// ExhaustedError reports that all retry attempts failed; it unwraps to the
// last attempt's error.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("no more retries after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Retryable reports whether an error is worth another attempt: a retryable
// HTTP status (408, 429, 5xx gateway-class), a timeout, or a connection-level
// failure. Cancellation and offline are terminal.
func Retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrOffline) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case 408, 429, 500, 502, 503, 504:
			return true
		}
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
