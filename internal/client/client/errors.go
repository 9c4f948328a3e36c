package client

import (
	"errors"
	"fmt"
)

// Error kinds returned by the gateway. Match them with errors.Is.
var (
	// ErrAuthRequired: the endpoint needs a token and none is held. No
	// request was sent.
	ErrAuthRequired = errors.New("authentication required")
	// ErrAuthFailed: the backend answered 401 and the session was cleared.
	ErrAuthFailed = errors.New("authentication failed")
	// ErrNetwork: the request could not be completed or the reply could not
	// be read.
	ErrNetwork = errors.New("network error")
	// ErrAPI: any other non-2xx answer.
	ErrAPI = errors.New("api error")
)

// Messages the gateway reports when the backend gives none.
const (
	CodeAuthRequired = "Authentication required"
	CodeAuthFailed   = "Authentication failed"
	CodeNetwork      = "Network Error"
	CodeAPI          = "API Error"

	MessageNetwork = "Network error"
)

// APIError is the normalized {error, message} shape of every failed call.
type APIError struct {
	Kind    error
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" || e.Message == e.Code {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error { return e.Kind }

// Text returns the best human-readable message for a banner.
func (e *APIError) Text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

// AsAPIError extracts the *APIError from err, if any.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}
