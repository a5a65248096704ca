package outbox

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

// ErrOffline is returned by submitters when the device is known to be
// disconnected before a request is even attempted.
var ErrOffline = errors.New("device is offline")

// APIError is a response from the server with a non-success status code.
// It is an application failure: the request reached the server, so it must
// never be queued for replay.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Body)
}

// IsConnectivityError reports whether an error means the request never got
// a server response, i.e. the action is safe to queue and replay later.
func IsConnectivityError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return false
	}

	if errors.Is(err, ErrOffline) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
