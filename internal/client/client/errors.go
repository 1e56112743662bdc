package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnavailable     = errors.New("server unavailable")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrNotFound        = errors.New("not found")
	ErrRejected        = errors.New("rejected by server")
	ErrInvalidResponse = errors.New("invalid response")
)

// mapStatus converts a non-2xx status into a sentinel error. msg is the
// server message, if any.
func mapStatus(code int, msg string) error {
	switch {
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return ErrUnauthorized
	case code == http.StatusNotFound:
		return ErrNotFound
	case code >= 500, code == http.StatusRequestTimeout, code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d", ErrUnavailable, code)
	default:
		return rejected(msg, code)
	}
}

func rejected(msg string, code int) error {
	if msg == "" {
		msg = http.StatusText(code)
	}
	return fmt.Errorf("%w: %s", ErrRejected, msg)
}

// IsTransient reports whether err means the request may succeed later
// without user action.
func IsTransient(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
