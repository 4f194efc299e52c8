// Package apperr defines the error kinds shared across brainboard.
//
// Concrete errors (backend.NetworkError, backend.HTTPError, ...) match these
// sentinels with errors.Is so callers can branch on the kind without knowing
// the concrete type.
package apperr

import "errors"

var (
	ErrNetwork           = errors.New("backend unreachable")
	ErrHTTP              = errors.New("backend rejected request")
	ErrMalformedResponse = errors.New("malformed backend response")
	ErrSchemaValidation  = errors.New("backend response failed validation")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrNotFound          = errors.New("not found")
)
