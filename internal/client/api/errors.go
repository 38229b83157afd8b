package api

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated is returned when no usable session exists: the access
// token is missing or expired and the refresh attempt failed. The token
// store has already been cleared when this error surfaces.
var ErrUnauthenticated = errors.New("unauthenticated")

// RequestError is a non-2xx response carrying the server-supplied message
// when one was present in the body.
type RequestError struct {
	// Status is the HTTP status code of the response.
	Status int
	// Message is the server's error text, or a generic description.
	Message string
}

func (e *RequestError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// NetworkError is a transport-level failure: the request never produced an
// HTTP response.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ValidationError is a client-side rejection raised before any HTTP call,
// e.g. an empty chat message.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
