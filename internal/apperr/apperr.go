// Package apperr holds the error kinds shared by the store, the repositories
// and the services built on top of them. Callers match kinds with errors.Is.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrIntegrity          = errors.New("integrity violation")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrMigration          = errors.New("migration failed")
)

// Reason is one field-level validation failure.
type Reason struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

type ValidationError struct {
	Entity  string
	Reasons []Reason
}

func Invalid(entity string, reasons ...Reason) *ValidationError {
	return &ValidationError{Entity: entity, Reasons: reasons}
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Reasons))
	for i, r := range e.Reasons {
		parts[i] = r.Field + ": " + r.Message
	}

	return fmt.Sprintf("invalid %s: %s", e.Entity, strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

type NotFoundError struct {
	Entity string
	ID     string
}

func NotFound(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// IntegrityError reports an operation refused because it would break a
// relationship between stored entities.
type IntegrityError struct {
	Op     string
	Reason string
}

func Integrity(op, reason string) *IntegrityError {
	return &IntegrityError{Op: op, Reason: reason}
}

func (e *IntegrityError) Error() string {
	return e.Op + ": " + e.Reason
}

func (e *IntegrityError) Is(target error) bool { return target == ErrIntegrity }

type StorageError struct {
	Op  string
	Err error
}

func Storage(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage unavailable: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorageUnavailable }

type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

type MigrationError struct {
	Version   int
	Direction Direction
	Err       error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("migration v%d %s: %v", e.Version, e.Direction, e.Err)
}

func (e *MigrationError) Unwrap() error { return e.Err }

func (e *MigrationError) Is(target error) bool { return target == ErrMigration }
