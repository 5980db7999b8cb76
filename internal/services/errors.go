package services

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by a service matches exactly one of these
// with errors.Is; handlers translate them into HTTP statuses.
var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrConflict        = errors.New("conflict")
	ErrStoreFailure    = errors.New("store failure")
	ErrUnavailable     = errors.New("feature unavailable")
)

// ValidationError reports a user-correctable problem with one input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError names the kind of entity that is missing.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return e.Entity + " not found"
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ForbiddenError is the ownership guard's DENY.
type ForbiddenError struct {
	Entity string
}

func (e *ForbiddenError) Error() string {
	return "you do not have access to this " + e.Entity
}

func (e *ForbiddenError) Is(target error) bool {
	return target == ErrForbidden
}

func storeFailure(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreFailure, err)
}
