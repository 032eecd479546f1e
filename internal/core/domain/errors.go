package domain

import (
	"errors"
	"fmt"
)

// Error categories. Every error returned by the core wraps exactly one of
// these; the HTTP layer maps categories to status codes.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("access forbidden")
	ErrValidation   = errors.New("validation failed")
)

var (
	ErrUserNotFound       = fmt.Errorf("user %w", ErrNotFound)
	ErrInvalidCredentials = fmt.Errorf("invalid email or password: %w", ErrUnauthorized)
	ErrWrongPassword      = fmt.Errorf("invalid credentials: %w", ErrConflict)
	ErrInvalidToken       = fmt.Errorf("invalid authorization token: %w", ErrUnauthorized)
	ErrMissingToken       = fmt.Errorf("missing authorization token: %w", ErrUnauthorized)
	ErrInvalidAPIKey      = fmt.Errorf("invalid api key: %w", ErrUnauthorized)
	ErrInvalidRole        = fmt.Errorf("%w: unknown role", ErrValidation)
)

// ConflictError reports which unique field a write collided on.
type ConflictError struct {
	Field string
	Value string
}

func (e *ConflictError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("user with this %s already exists", e.Field)
	}
	return fmt.Sprintf("user with %s '%s' already exists", e.Field, e.Value)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// Conflict fields, in the order they are reported when several collide.
const (
	FieldEmail    = "email"
	FieldUsername = "username"
	FieldAPIKey   = "apiKey"
)

// ValidationError wraps a human-readable validation message.
func ValidationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}
