package campaign

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a campaign definition, or an entity inside one, does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalid is matched by every *ValidationError.
	ErrInvalid = errors.New("invalid campaign")
)

// ValidationError identifies the field of a campaign definition that failed validation.
// Field is a dotted path such as "rooms.crypt.traps.needle.difficulty_class".
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid campaign: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
