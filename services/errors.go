package services

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateEmail means the address is already on the waitlist.
	// Duplicate signups are rejected, never merged.
	ErrDuplicateEmail = errors.New("email already registered on the waitlist")

	// ErrCodeGenerationExhausted means every generation attempt collided
	// with an existing referral code.
	ErrCodeGenerationExhausted = errors.New("failed to generate a unique referral code")

	// ErrEntryNotFound means no waitlist entry matched the lookup.
	ErrEntryNotFound = errors.New("waitlist entry not found")
)

// FieldError reports which signup field failed validation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewFieldError creates a validation error for a specific field
func NewFieldError(field, message string) *FieldError {
	return &FieldError{Field: field, Message: message}
}
