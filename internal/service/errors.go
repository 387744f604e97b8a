package service

import (
	"errors"
	"fmt"

	"financas/internal/repository"
)

var (
	// ErrNotMember is returned when the caller does not belong to the requested space.
	ErrNotMember = errors.New("user is not a member of the space")
	// ErrForbidden is returned when a member lacks the role an operation needs.
	ErrForbidden = errors.New("operation not allowed for this member")
	// ErrNotFound is returned when a scoped record does not exist in the space.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a record with the same identity already exists.
	ErrConflict = errors.New("record already exists")
)

// ValidationError carries a client-facing message describing invalid input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func NewValidationError(msg string) error {
	return &ValidationError{Msg: msg}
}

func IsValidationError(err error) bool {
	var validationError *ValidationError
	return errors.As(err, &validationError)
}

// translate maps repository sentinels onto service sentinels and leaves
// everything else wrapped with the operation name.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return ErrConflict
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
