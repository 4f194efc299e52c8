package backend

import (
	"fmt"
	"net/http"

	"github.com/starford/brainboard/internal/apperr"
)

// NetworkError means no HTTP response was received: the connection failed, the
// request timed out or the context was cancelled.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("backend: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Is matches apperr.ErrNetwork.
func (e *NetworkError) Is(target error) bool {
	return target == apperr.ErrNetwork
}

// HTTPError is a response with a non-2xx status. Body is the raw response text.
type HTTPError struct {
	Method string
	URL    string
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("backend: %s %s returned status %d", e.Method, e.URL, e.Status)
}

// StatusCode returns the HTTP status.
func (e *HTTPError) StatusCode() int { return e.Status }

// Is matches apperr.ErrHTTP, and apperr.ErrNotFound for 404 responses.
func (e *HTTPError) Is(target error) bool {
	switch target {
	case apperr.ErrHTTP:
		return true
	case apperr.ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// MalformedResponseError is a 2xx response whose body is not valid JSON.
type MalformedResponseError struct {
	Method string
	URL    string
	Status int
	Err    error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("backend: %s %s: malformed response: %v", e.Method, e.URL, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// Is matches apperr.ErrMalformedResponse.
func (e *MalformedResponseError) Is(target error) bool {
	return target == apperr.ErrMalformedResponse
}

func invalidRequest(op string, err error) error {
	return fmt.Errorf("backend: %s: %w: %w", op, apperr.ErrInvalidRequest, err)
}
