package course

import (
	"errors"
	"fmt"
)

// ErrNotFound is the base class for nested-path lookup misses. Wrap it with
// NotFoundError so callers can both errors.Is(err, ErrNotFound) and report
// which entity on the path was missing.
var ErrNotFound = errors.New("not found")

type NotFoundError struct {
	Entity string // "course" | "unit" | "lesson" | "assessment" | "entry requirement"
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Entity + " not found"
	}
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

func notFound(entity, id string) error { return &NotFoundError{Entity: entity, ID: id} }

// ErrValidation marks structurally invalid authoring payloads.
var ErrValidation = errors.New("validation failed")
