package shared

import (
	"errors"
	"fmt"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrNoToken          = fmt.Errorf("no token available")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest = fmt.Errorf("API request failed")
	ErrNetwork    = fmt.Errorf("network error")
	ErrServer     = fmt.Errorf("server error")
	ErrPlayback   = fmt.Errorf("playback failed")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// NetworkError is a transport-level failure: the request never produced a response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() []error { return []error{ErrNetwork, e.Err} }

// ServerError is a non-2xx response. Message carries the response body text.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Status, e.Message)
}

func (e *ServerError) Unwrap() error { return ErrServer }

// PlaybackError reports a preview that could not start or pause.
type PlaybackError struct {
	URL string
	Err error
}

func (e *PlaybackError) Error() string {
	return fmt.Sprintf("preview %s: %v", e.URL, e.Err)
}

func (e *PlaybackError) Unwrap() []error { return []error{ErrPlayback, e.Err} }

// StatusCode extracts the HTTP status from a [ServerError] in err's chain, or 0.
func StatusCode(err error) int {
	var se *ServerError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}
