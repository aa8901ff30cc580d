package resilience

import (
	"context"
	"errors"
	"net"
	"net/http"
	"syscall"

	"github.com/rotisserie/eris"
)

// TransientError marks a failure that is safe to retry, such as a 429, a 5xx,
// or a network timeout.
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err, or any error it wraps, is a TransientError,
// a network timeout, or a reset or refused connection. Context cancellation is
// never transient.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED)
}

// TransientStatus reports whether an HTTP status is worth retrying.
func TransientStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// StatusError reports an unexpected HTTP status from service, marked
// transient when TransientStatus says so.
func StatusError(service string, code int) error {
	err := eris.Errorf("%s returned status %d", service, code)
	if TransientStatus(code) {
		return &TransientError{Err: err, StatusCode: code}
	}
	return err
}
