// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import "errors"

// ErrorType represents the semantic category of an error
type ErrorType int

const (
	ErrorTypeValidation  ErrorType = iota // Malformed input (bad window, bad interval, bad edit)
	ErrorTypeNotFound                     // Session or entry not found
	ErrorTypeConflict                     // Concurrent modification, locked session, limits reached
	ErrorTypeInternal                     // Store or encoding failures
	ErrorTypeUnavailable                  // Store or provider not configured
)

// String returns the name used in reply envelopes.
func (t ErrorType) String() string {
	switch t {
	case ErrorTypeValidation:
		return "validation"
	case ErrorTypeNotFound:
		return "not_found"
	case ErrorTypeConflict:
		return "conflict"
	case ErrorTypeUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// Sentinel errors. They are wrapped in a DomainError when returned so callers
// can use both errors.Is and GetErrorType.
var (
	// ErrInvalidWindow is returned when a window starts after it ends.
	ErrInvalidWindow = errors.New("invalid window")
	// ErrInvalidInterval is returned when a busy event starts after it ends.
	ErrInvalidInterval = errors.New("invalid interval")
	// ErrSessionNotFound is returned when no session exists for a UID or code.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionLocked is returned for structural edits on a locked session.
	ErrSessionLocked = errors.New("session locked")
	// ErrNotPermitted is returned when the actor's role does not allow an action.
	ErrNotPermitted = errors.New("action not permitted")
	// ErrConfirmationRequired is returned when a destructive action was not confirmed.
	ErrConfirmationRequired = errors.New("confirmation required")
)

// DomainError represents an error with semantic type information
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error // underlying error for wrapping
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// GetErrorType returns the semantic type of an error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ErrorTypeInternal // default fallback
}

// Error constructors for different types
func NewValidationError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeValidation, Message: message, Err: errors.Join(err...)}
}

func NewNotFoundError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeNotFound, Message: message, Err: errors.Join(err...)}
}

func NewConflictError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeConflict, Message: message, Err: errors.Join(err...)}
}

func NewInternalError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeInternal, Message: message, Err: errors.Join(err...)}
}

func NewUnavailableError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeUnavailable, Message: message, Err: errors.Join(err...)}
}
