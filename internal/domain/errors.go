package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across layers.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate natural key")
)

// ValidationError rejects a query parameter before it reaches the store, with
// enough detail for the caller to correct the request.
type ValidationError struct {
	Param  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %s", e.Param, e.Reason)
}

// NewValidationError builds a ValidationError for one offending parameter.
func NewValidationError(param, reason string) *ValidationError {
	return &ValidationError{Param: param, Reason: reason}
}
