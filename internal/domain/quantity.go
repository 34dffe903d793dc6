package domain

import "math"

// Quantity counts physical units. Values entering the engine are
// validated with PositiveQuantity or NonNegativeQuantity; stored values
// may still be negative after a bad legacy write and are clamped on read.
type Quantity int64

// PositiveQuantity validates a requested unit count (> 0)
func PositiveQuantity(field string, n int64) (Quantity, error) {
	if n <= 0 {
		return 0, NewValidationError(field, "must be a positive whole number")
	}
	return Quantity(n), nil
}

// NonNegativeQuantity validates a counter value (>= 0)
func NonNegativeQuantity(field string, n int64) (Quantity, error) {
	if n < 0 {
		return 0, NewValidationError(field, "cannot be negative")
	}
	return Quantity(n), nil
}

// QuantityFromFloat validates a JSON number as a whole positive quantity
func QuantityFromFloat(field string, f float64) (Quantity, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, NewValidationError(field, "must be a whole number")
	}
	if f > math.MaxInt32 {
		return 0, NewValidationError(field, "is too large")
	}
	return PositiveQuantity(field, int64(f))
}

func clamp(q Quantity) Quantity {
	if q < 0 {
		return 0
	}
	return q
}
