package contract

import "strings"

// DType is a semantic column type tag. It deliberately stays coarser than any
// physical storage type: loaders map int32/int64/etc. onto the same tag.
type DType string

// Supported semantic types.
const (
	Integer     DType = "integer"
	Float       DType = "float"
	String      DType = "string"
	Boolean     DType = "boolean"
	Datetime    DType = "datetime"
	Categorical DType = "categorical"
)

// Ordered reports whether values of this type have a total order usable by
// bound rules and quantile sketches.
func (d DType) Ordered() bool {
	switch d {
	case Integer, Float, Datetime:
		return true
	default:
		return false
	}
}

// Numeric reports whether the type coerces to float64 for evaluation.
func (d DType) Numeric() bool {
	return d == Integer || d == Float
}

// Textual reports whether the type is evaluated as a string (enum, pattern
// and length rules).
func (d DType) Textual() bool {
	return d == String || d == Categorical
}

// Valid reports whether d is one of the supported tags.
func (d DType) Valid() bool {
	switch d {
	case Integer, Float, String, Boolean, Datetime, Categorical:
		return true
	default:
		return false
	}
}

// ParseDType converts a string to a DType.
// Returns the type and true if valid, or String and false if not.
func ParseDType(s string) (DType, bool) {
	d := DType(strings.ToLower(strings.TrimSpace(s)))
	if d.Valid() {
		return d, true
	}
	return String, false
}

// Compatible reports whether a dataset column observed as actual may be
// evaluated against a contract column declared as expected. Integer data is
// accepted where float is declared, and string data where categorical is
// declared (and vice versa); everything else requires an exact match.
func Compatible(actual, expected DType) bool {
	if actual == expected {
		return true
	}
	if expected == Float && actual == Integer {
		return true
	}
	if expected.Textual() && actual.Textual() {
		return true
	}
	return false
}
