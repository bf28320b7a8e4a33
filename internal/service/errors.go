package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrRelationNotFound   = errors.New("relation does not exist")
	ErrSelfReference      = errors.New("cannot reference yourself")
	ErrForbidden          = errors.New("forbidden")
	ErrEmptyCart          = errors.New("shopping cart is empty")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// translate maps store errors onto the service sentinels and wraps anything
// else with the failed action.
func translate(action string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrAlreadyExists
	default:
		return fmt.Errorf("failed to %s: %w", action, err)
	}
}
