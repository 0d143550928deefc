package granola

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrInvalidResponse is returned when the API answers without a docs list.
var ErrInvalidResponse = errors.New("granola: invalid API response format")

// ErrorKind classifies API failures.
type ErrorKind string

const (
	KindUnauthorized ErrorKind = "unauthorized"
	KindForbidden    ErrorKind = "forbidden"
	KindNotFound     ErrorKind = "endpoint_not_found"
	KindServer       ErrorKind = "server_error"
	KindRequest      ErrorKind = "request_failed"
)

// APIError is a failed API call.
type APIError struct {
	Kind   ErrorKind
	Status int
	Err    error
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("granola: %s (HTTP %d)", e.Kind, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("granola: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("granola: %s", e.Kind)
}

func (e *APIError) Unwrap() error { return e.Err }

// Message is the user-facing explanation.
func (e *APIError) Message() string {
	switch e.Kind {
	case KindUnauthorized:
		return "Authentication failed. Your access token may have expired. Please update your credentials file."
	case KindForbidden:
		return "Access forbidden. Please check your permissions."
	case KindNotFound:
		return "API endpoint not found. Please check for updates."
	case KindServer:
		return "Granola API server error. Please try again later."
	default:
		return "Failed to fetch documents from Granola API. Please check your internet connection."
	}
}

func statusError(status int) *APIError {
	kind := KindRequest
	switch {
	case status == http.StatusUnauthorized:
		kind = KindUnauthorized
	case status == http.StatusForbidden:
		kind = KindForbidden
	case status == http.StatusNotFound:
		kind = KindNotFound
	case status >= 500:
		kind = KindServer
	}
	return &APIError{Kind: kind, Status: status}
}
