package models

import (
	"errors"
	"fmt"
)

// ErrInsufficientFunds is returned when a debit would take a balance negative
var ErrInsufficientFunds = errors.New("insufficient funds")

// ValidationError is a synchronous caller-facing rejection; nothing was mutated
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// NewValidationError creates a ValidationError with a formatted reason
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// LiabilityError rejects a bet that would overcommit the pool. MaxAdditional
// is the advisory maximum extra wager that would still fit; it is a hint,
// not a guarantee of acceptance.
type LiabilityError struct {
	MaxAdditional int64
}

func (e *LiabilityError) Error() string {
	return fmt.Sprintf("bet would exceed pool liability; at most %d more can be wagered", e.MaxAdditional)
}
