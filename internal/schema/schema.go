// Package schema validates loosely-typed backend payloads (decoded JSON) and
// turns them into typed entities.
//
// A payload is untrusted until a Schema accepts it. Validation is built from
// ozzo-validation map, key and each rules; a rejected payload yields a
// *ValidationError naming every offending field path.
package schema

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Schema describes the shape of one entity and how to build it once the shape
// has been checked.
type Schema[T any] struct {
	name  string
	rules []validation.Rule
	build func(value any) T
}

// New creates a schema. build is only ever called with values that passed rules.
func New[T any](name string, build func(value any) T, rules ...validation.Rule) *Schema[T] {
	return &Schema[T]{name: name, rules: rules, build: build}
}

// Name returns the schema name used in error messages.
func (s *Schema[T]) Name() string {
	return s.name
}

// Validate checks value against the schema and returns the typed entity.
func (s *Schema[T]) Validate(value any) (T, error) {
	var zero T
	if err := validation.Validate(value, s.rules...); err != nil {
		return zero, newValidationError(s.name, err)
	}
	return s.build(value), nil
}

// ListOf returns a schema for a JSON array whose elements all match item.
func ListOf[T any](item *Schema[T]) *Schema[[]T] {
	return New("[]"+item.name, func(value any) []T {
		raw, _ := value.([]any)
		out := make([]T, len(raw))
		for i, v := range raw {
			out[i] = item.build(v)
		}
		return out
	}, Array(item.rules...))
}
