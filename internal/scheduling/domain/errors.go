package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrFamilyNotFound is returned when a family id does not exist.
	ErrFamilyNotFound = errors.New("family not found")
	// ErrInstanceNotFound is returned when an appointment id does not exist,
	// or exists but is not in the state the requested transition expects.
	ErrInstanceNotFound = errors.New("appointment instance not found")
	// ErrFamilyNotStopped guards restart and delete, which require a stopped family.
	ErrFamilyNotStopped = errors.New("family is not stopped")
	// ErrFamilyNotActive guards transitions that require an active family.
	ErrFamilyNotActive = errors.New("family is not active")
	// ErrInstanceNotRescheduled is returned when a reattach names an old
	// instance that no reschedule ever superseded.
	ErrInstanceNotRescheduled = errors.New("instance was not superseded by a reschedule")
)

// ValidationError reports a missing or malformed required field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError creates a ValidationError for a field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// ConflictError reports a half-day slot double-booking. It always carries the
// offending staff IDs so the caller can surface which assignments must change.
type ConflictError struct {
	Date     string
	Slot     Slot
	StaffIDs []uuid.UUID
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%d staff already booked in the %s slot on %s", len(e.StaffIDs), e.Slot, e.Date)
}

// DeprecatedOperationError rejects legacy single-appointment recurring
// endpoints that the family engine supersedes.
type DeprecatedOperationError struct {
	Operation   string
	Replacement string
}

func (e *DeprecatedOperationError) Error() string {
	return fmt.Sprintf("%s is no longer supported; use %s", e.Operation, e.Replacement)
}
