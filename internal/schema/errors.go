package schema

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/brainboard/internal/apperr"
)

// RootPath names the payload itself in a FieldError.
const RootPath = "$"

// FieldError is one non-conforming field.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError reports that a payload did not match a schema.
type ValidationError struct {
	Schema string       `json:"schema"`
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Path + ": " + f.Message
	}
	return "schema: " + e.Schema + ": " + strings.Join(parts, "; ")
}

// Is makes every ValidationError match apperr.ErrSchemaValidation.
func (e *ValidationError) Is(target error) bool {
	return target == apperr.ErrSchemaValidation
}

// Paths returns the offending field paths in order.
func (e *ValidationError) Paths() []string {
	out := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		out[i] = f.Path
	}
	return out
}

// HasPath reports whether path is among the offending fields.
func (e *ValidationError) HasPath(path string) bool {
	for _, f := range e.Fields {
		if f.Path == path {
			return true
		}
	}
	return false
}

func newValidationError(name string, err error) *ValidationError {
	ve := &ValidationError{Schema: name}
	flatten("", err, &ve.Fields)
	return ve
}

// flatten walks nested validation.Errors and emits one FieldError per leaf,
// with keys joined by dots. Keys are visited in sorted order, array indices
// numerically.
func flatten(prefix string, err error, out *[]FieldError) {
	var errs validation.Errors
	if errors.As(err, &errs) {
		keys := make([]string, 0, len(errs))
		for k := range errs {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			a, errA := strconv.Atoi(keys[i])
			b, errB := strconv.Atoi(keys[j])
			if errA == nil && errB == nil {
				return a < b
			}
			return keys[i] < keys[j]
		})
		for _, k := range keys {
			path := k
			if prefix != "" {
				path = prefix + "." + k
			}
			flatten(path, errs[k], out)
		}
		return
	}
	if prefix == "" {
		prefix = RootPath
	}
	*out = append(*out, FieldError{Path: prefix, Message: err.Error()})
}
