package models

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

const canonicalIDLen = 36

// IsCanonicalID reports whether s is a UUID in its canonical 8-4-4-4-12 form.
// uuid.Parse alone also accepts urn:uuid:, braced and unhyphenated forms.
func IsCanonicalID(s string) bool {
	if len(s) != canonicalIDLen {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// ErrInvalidID is the validation message for malformed identifiers.
var ErrInvalidID = validation.NewError("validation_is_uuid", "must be a canonical UUID")

// CanonicalID is a validation rule for canonical UUID strings. Empty values are
// left to validation.Required.
var CanonicalID = validation.By(func(value any) error {
	s, ok := value.(string)
	if !ok {
		if p, isPtr := value.(*string); isPtr {
			if p == nil {
				return nil
			}
			s = *p
		} else {
			return errors.New("must be a string")
		}
	}
	if s == "" || IsCanonicalID(s) {
		return nil
	}
	return ErrInvalidID
})
