package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusCoder is implemented by errors that carry an HTTP status.
type StatusCoder interface {
	StatusCode() int
}

// UserMessage turns any error into a message fit for display. It never exposes
// backend payloads.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidRequest):
		return "The request is incomplete or malformed: " + err.Error()
	case errors.Is(err, ErrNetwork):
		return "Could not reach the backend. Check that it is running and try again."
	case errors.Is(err, ErrNotFound):
		return "The requested item was not found."
	case errors.Is(err, ErrHTTP):
		var sc StatusCoder
		if errors.As(err, &sc) {
			return httpMessage(sc.StatusCode())
		}
		return "The backend rejected the request."
	case errors.Is(err, ErrMalformedResponse), errors.Is(err, ErrSchemaValidation):
		return "The backend sent an unexpected response. Please report this problem."
	default:
		return "Something went wrong. Please try again."
	}
}

func httpMessage(status int) string {
	switch {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return fmt.Sprintf("The backend rejected the input (HTTP %d).", status)
	case status == http.StatusTooManyRequests:
		return "The backend is busy. Wait a moment and try again."
	case status >= 500:
		return fmt.Sprintf("The backend failed to process the request (HTTP %d). Try again later.", status)
	default:
		return fmt.Sprintf("The backend rejected the request (HTTP %d).", status)
	}
}
