package entity

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain layer operations.
var (
	// ErrNotFound indicates that a requested entity was not found
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrValidationFailed indicates that validation checks have failed
	ErrValidationFailed = errors.New("validation failed")

	// ErrLinkExists indicates a put_article call targeted a link already persisted.
	ErrLinkExists = errors.New("article link already exists")

	// ErrInsufficientSources indicates a group fell below MinSources after source selection.
	ErrInsufficientSources = errors.New("insufficient sources")

	// ErrGroupNotFound indicates a referenced group_id has no backing NeutralGroup.
	ErrGroupNotFound = errors.New("neutral group not found")
)

// ValidationError represents a validation error with detailed field information.
// It implements the error interface and provides context about which field failed validation.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns a formatted error message for the validation error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}
