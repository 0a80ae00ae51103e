package helpers

import "strings"

// Ptr returns a pointer to a copy of val. Handy for optional request fields.
func Ptr[T any](val T) *T {
	return &val
}

// Value dereferences val, yielding the zero value for nil.
func Value[T any](val *T) T {
	var zero T
	return ValueOr(val, zero)
}

// ValueOr dereferences val, yielding fallback for nil.
func ValueOr[T any](val *T, fallback T) T {
	if val == nil {
		return fallback
	}
	return *val
}

// Trimmed dereferences an optional string and strips surrounding space.
func Trimmed(val *string) string {
	return strings.TrimSpace(Value(val))
}
