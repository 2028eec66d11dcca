package core

import (
	"errors"
	"fmt"
)

// Standard sentinel errors for comparison using errors.Is()
// These are generic errors that can be wrapped with additional context
var (
	// Lifecycle errors
	ErrNotInitialized = errors.New("not initialized")
	ErrAlreadyStarted = errors.New("already started")
	ErrClosed         = errors.New("closed")

	// Store-context errors
	ErrStoreFixedByRole = errors.New("store is fixed by the principal's role")
	ErrNoStoreSelected  = errors.New("no retail store selected")

	// Checkout errors
	ErrEmptyCart = errors.New("cart is empty")

	// Configuration errors
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrMissingConfiguration = errors.New("missing required configuration")

	// External collaborator errors
	ErrArchiveUnavailable = errors.New("archive store unavailable")
	ErrConnectionFailed   = errors.New("connection failed")
)

// StateError provides structured error information with context.
// It implements the error interface and supports error wrapping.
type StateError struct {
	Op      string // Operation that failed (e.g., "cart.AddItem")
	Kind    string // Error kind (e.g., "cart", "archive", "config")
	ID      string // Optional ID of the entity involved
	Message string // Human-readable message
	Err     error  // Underlying error for wrapping
}

// Error returns the string representation of the error
func (e *StateError) Error() string {
	if e.Op != "" && e.Err != nil {
		if e.ID != "" {
			return fmt.Sprintf("%s [%s]: %v", e.Op, e.ID, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s error", e.Kind)
}

// Unwrap returns the underlying error for use with errors.Is/As
func (e *StateError) Unwrap() error {
	return e.Err
}

// NewStateError creates a new StateError
func NewStateError(op, kind string, err error) *StateError {
	return &StateError{
		Op:   op,
		Kind: kind,
		Err:  err,
	}
}

// IsNotInitialized checks whether an error means a mutation arrived before
// the owning state machine finished rehydrating for the current principal.
func IsNotInitialized(err error) bool {
	return errors.Is(err, ErrNotInitialized)
}

// IsConfigurationError checks if an error is configuration-related
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration) ||
		errors.Is(err, ErrMissingConfiguration)
}

// IsRetryable checks if an error is a transient availability issue. Budget
// suspensions are not errors at all and never appear here.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrArchiveUnavailable) ||
		errors.Is(err, ErrConnectionFailed)
}
