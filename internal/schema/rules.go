package schema

import (
	"encoding/json"
	"math"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/brainboard/internal/models"
)

var (
	errString  = validation.NewError("schema_string", "must be a string")
	errBool    = validation.NewError("schema_bool", "must be a boolean")
	errNumber  = validation.NewError("schema_number", "must be a number")
	errInteger = validation.NewError("schema_integer", "must be an integer")
	errRange   = validation.NewError("schema_integer_range", "is out of range")
	errObject  = validation.NewError("schema_object", "must be an object")
	errArray   = validation.NewError("schema_array", "must be an array")
	errID      = validation.NewError("schema_id", "must be a canonical UUID string")
)

// String accepts JSON strings, including the empty string.
var String = validation.By(func(value any) error {
	if _, ok := value.(string); !ok {
		return errString
	}
	return nil
})

// Bool accepts JSON booleans.
var Bool = validation.By(func(value any) error {
	if _, ok := value.(bool); !ok {
		return errBool
	}
	return nil
})

// Number accepts any JSON number.
var Number = validation.By(func(value any) error {
	if _, ok := toFloat(value); !ok {
		return errNumber
	}
	return nil
})

// Integer accepts JSON numbers with no fractional part that fit in an int.
var Integer = validation.By(func(value any) error {
	f, ok := toFloat(value)
	if !ok {
		return errNumber
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return errInteger
	}
	if f < math.MinInt || f >= math.MaxInt {
		return errRange
	}
	return nil
})

// ID accepts canonical UUID strings only.
var ID = validation.By(func(value any) error {
	s, ok := value.(string)
	if !ok {
		return errString
	}
	if !models.IsCanonicalID(s) {
		return errID
	}
	return nil
})

// AnyObject accepts any JSON object without looking at its keys.
var AnyObject = validation.By(func(value any) error {
	if _, ok := value.(map[string]any); !ok {
		return errObject
	}
	return nil
})

// StringMap accepts a JSON object whose values are all strings.
var StringMap validation.Rule = objectOf{rules: []validation.Rule{String}}

// Nullable lets null through and applies rules to anything else.
func Nullable(rules ...validation.Rule) validation.Rule {
	return nullable(rules)
}

type nullable []validation.Rule

func (r nullable) Validate(value any) error {
	if value == nil {
		return nil
	}
	return validation.Validate(value, r...)
}

// Object requires a JSON object with the given keys. Unknown keys are ignored.
func Object(keys ...*validation.KeyRules) validation.Rule {
	return object{m: validation.Map(keys...).AllowExtraKeys()}
}

type object struct {
	m validation.MapRule
}

func (r object) Validate(value any) error {
	if _, ok := value.(map[string]any); !ok {
		return errObject
	}
	return r.m.Validate(value)
}

// Array requires a JSON array whose elements all satisfy rules.
func Array(rules ...validation.Rule) validation.Rule {
	return array{each: validation.Each(rules...)}
}

type array struct {
	each validation.EachRule
}

func (r array) Validate(value any) error {
	if _, ok := value.([]any); !ok {
		return errArray
	}
	return r.each.Validate(value)
}

type objectOf struct {
	rules []validation.Rule
}

func (r objectOf) Validate(value any) error {
	if _, ok := value.(map[string]any); !ok {
		return errObject
	}
	return validation.Each(r.rules...).Validate(value)
}

func toFloat(value any) (float64, bool) {
	switch n := value.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
