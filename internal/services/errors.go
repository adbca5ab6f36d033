package services

import (
	"errors"
)

var (
	ErrNotFound      = errors.New("declaration not found")
	ErrNotPermitted  = errors.New("operation not permitted on this declaration")
	ErrInvalidStatus = errors.New("invalid status")
	ErrValidation    = errors.New("validation failed")
)

// ValidationError is returned before any backend call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
