package errors

import (
	"errors"
	"fmt"
)

var (
	// Catalog errors
	ErrProductNotFound   = errors.New("product not found")
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrInsufficientStock = errors.New("insufficient stock")

	// Order errors
	ErrOrderNotFound = errors.New("order not found")
	ErrEmptyOrder    = errors.New("order must contain at least one item")

	// Payment errors
	ErrPaymentNotFound        = errors.New("payment not found")
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// Outbox errors
	ErrEventNotFound       = errors.New("outbox event not found")
	ErrEventNotRequeueable = errors.New("only dead events can be requeued")

	// Idempotency errors
	ErrRequestInFlight       = errors.New("request already in progress")
	ErrLockAcquisitionFailed = errors.New("failed to acquire lock")
	ErrLockNotHeld           = errors.New("lock not held")
)

// DomainError wraps errors with additional context
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// OutOfStockError is a ValidationError specialization carrying the offending
// product, so API clients can tell which line item failed.
type OutOfStockError struct {
	ProductID   int64
	ProductName string
	Requested   int
	Available   int
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("not enough stock for %s: requested %d, available %d",
		e.ProductName, e.Requested, e.Available)
}

func (e *OutOfStockError) Unwrap() error {
	return ErrInsufficientStock
}
