package errors

import "math"

// MaxColumns bounds the column count accepted from documents and requests.
const MaxColumns = 64

// ValidateLength rejects NaN, negative and, unless allowInf is set,
// infinite lengths.
func ValidateLength(name string, v float64, allowInf bool) error {
	switch {
	case math.IsNaN(v):
		return New(ErrCodeInvalidDocument, "%s is not a number", name)
	case math.IsInf(v, 0) && !allowInf:
		return New(ErrCodeInvalidDocument, "%s must be finite", name)
	case v < 0:
		return New(ErrCodeInvalidDocument, "%s cannot be negative (got %g)", name, v)
	}
	return nil
}

// ValidateColumns rejects column counts outside [1, MaxColumns].
func ValidateColumns(n int) error {
	if n < 1 || n > MaxColumns {
		return New(ErrCodeInvalidDocument, "column count must be between 1 and %d (got %d)", MaxColumns, n)
	}
	return nil
}
