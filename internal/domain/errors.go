package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrBusy              = errors.New("equipment is busy, try again")
	ErrValidation        = errors.New("validation error")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// InsufficientStockError reports the true remaining count so the caller
// can offer a reduced quantity.
type InsufficientStockError struct {
	EquipmentID string
	Requested   Quantity
	Available   Quantity
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, only %d available", e.EquipmentID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// ValidationError is returned for malformed input rejected at the boundary
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError builds a ValidationError
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsRetryable reports whether the same request may succeed if retried.
// Only lock contention qualifies.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrBusy)
}

// AvailableFrom extracts the remaining count from an insufficient stock error
func AvailableFrom(err error) (Quantity, bool) {
	var ise *InsufficientStockError
	if errors.As(err, &ise) {
		return ise.Available, true
	}
	return 0, false
}
