// Package validation collects field-level violations as code strings ("required",
// "must_be_positive", ...) keyed by field path.
package validation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Add records a violation unless the field already has one.
func (v Violations) Add(field, code string) {
	if _, ok := v[field]; !ok {
		v[field] = code
	}
}

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, "required")
	}
}

func PositiveInt(field string, val int, v Violations) {
	if val <= 0 {
		v.Add(field, "must_be_positive")
	}
}

func NonNegativeInt(field string, val int, v Violations) {
	if val < 0 {
		v.Add(field, "must_not_be_negative")
	}
}

func PositiveID(field string, val uint, v Violations) {
	if val == 0 {
		v.Add(field, "required")
	}
}

func NonNegativeDecimal(field string, val decimal.Decimal, v Violations) {
	if val.IsNegative() {
		v.Add(field, "must_not_be_negative")
	}
}

// OneOf checks that value is one of the allowed values.
func OneOf[T ~string](field string, value T, allowed []T, v Violations) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v.Add(field, "invalid")
}

// Item builds the field path for a property of a list element, e.g. items[2].quantity.
func Item(list string, index int, field string) string {
	return fmt.Sprintf("%s[%d].%s", list, index, field)
}
