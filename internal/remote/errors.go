package remote

import (
	"errors"
	"fmt"
)

// TransportError means the request never produced an HTTP response.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("remote %s: transport: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ServerError is a 5xx response.
type ServerError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("remote %s: server error %d: %s", e.Op, e.StatusCode, e.Body)
}

// StatusError is any other non-2xx response.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote %s: unexpected status %d: %s", e.Op, e.StatusCode, e.Body)
}

// IsUnavailable reports whether err means the service could not be reached or
// failed on its side. Only these failures are eligible for the mock fallback.
func IsUnavailable(err error) bool {
	var transport *TransportError
	var server *ServerError
	return errors.As(err, &transport) || errors.As(err, &server)
}
