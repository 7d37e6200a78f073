package api

import (
	"errors"
	"fmt"
)

// ErrSessionExpired is returned after a 401 has torn down the local session.
var ErrSessionExpired = errors.New("session expired")

// HTTPError is a non-2xx response other than 401.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Status)
}

// TransportError means no usable response was received.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
