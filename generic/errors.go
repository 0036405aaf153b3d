/*
errors.go - Centralized error types for the timesheet engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Every error here is a recoverable, user-facing outcome: none of them
  should ever take the process down.

ERROR CATEGORIES:
  1. Validation errors - A cell edit was rejected (daily cap, frozen day)
  2. Submit errors - The week is under its target
  3. Persistence errors - The storage collaborator failed
  4. Lookup/permission errors - Not found, locked, forbidden

USAGE:
  if errors.Is(err, generic.ErrValidationRejected) {
      var rej *generic.RejectionError
      errors.As(err, &rej) // rej.Remaining holds the headroom
  }

SEE ALSO:
  - timesheet/validator.go: Produces RejectionError
  - timesheet/sheet.go: Produces SubmitBlockedError
  - api/handlers.go: Maps these errors onto HTTP statuses
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidationRejected is returned when a cell edit breaks a business rule.
	// The attempted edit is discarded and prior state is unchanged.
	ErrValidationRejected = errors.New("validation rejected")

	// ErrSubmitBlocked is returned when the week total is under the weekly target.
	ErrSubmitBlocked = errors.New("submit blocked")

	// ErrPersistence is returned when the storage collaborator fails.
	ErrPersistence = errors.New("persistence failure")

	// ErrNotFound is returned when a referenced profile, project or week doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrWeekLocked is returned when writing a week that is submitted or approved.
	ErrWeekLocked = errors.New("week is locked")

	// ErrInvalidTransition is returned when a review action does not apply to the week's status.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrForbidden is returned when the caller's role does not allow the action.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidPolicy is returned when timesheet rules are inconsistent.
	ErrInvalidPolicy = errors.New("invalid timesheet policy")

	// ErrCommentTooLong is returned when a comment exceeds MaxCommentLength.
	ErrCommentTooLong = errors.New("comment too long")

	// ErrDuplicate is returned when a unique key (employee code, holiday) already exists.
	ErrDuplicate = errors.New("duplicate record")
)

// MaxCommentLength is the character cap on the week comment.
const MaxCommentLength = 255

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// RejectionReason identifies why a cell edit was refused.
type RejectionReason string

const (
	ReasonDayFrozen       RejectionReason = "day_frozen"
	ReasonDailyLimit      RejectionReason = "daily_limit_exceeded"
	ReasonWeeklyLimit     RejectionReason = "weekly_limit_exceeded"
	ReasonUnknownCategory RejectionReason = "unknown_category"
	ReasonReadOnly        RejectionReason = "read_only"
)

// RejectionError describes a refused cell edit.
type RejectionError struct {
	Reason    RejectionReason
	Category  Category
	Day       string
	Cap       Hours // effective cap that was hit (limits only)
	Current   Hours // hours already booked against the cap, excluding the edited cell
	Requested Hours
	Remaining Hours // headroom still available under the cap
}

func (e *RejectionError) Error() string {
	switch e.Reason {
	case ReasonDayFrozen:
		return fmt.Sprintf("day frozen: %s is on leave or a public holiday", e.Day)
	case ReasonDailyLimit:
		return fmt.Sprintf("daily limit exceeded: cannot exceed %s hours on %s (current %s, maximum you can add %s)",
			e.Cap, e.Day, e.Current, e.Remaining)
	case ReasonWeeklyLimit:
		return fmt.Sprintf("weekly limit exceeded: cannot exceed %s hours per week (maximum you can add %s)",
			e.Cap, e.Remaining)
	case ReasonUnknownCategory:
		return fmt.Sprintf("unknown category %q", e.Category)
	case ReasonReadOnly:
		return "timesheet is read-only"
	}
	return string(e.Reason)
}

func (e *RejectionError) Unwrap() error {
	return ErrValidationRejected
}

// SubmitBlockedError provides details about a week under target.
type SubmitBlockedError struct {
	Target    Hours
	Total     Hours
	Shortfall Hours
}

func (e *SubmitBlockedError) Error() string {
	return fmt.Sprintf("submit blocked: weekly total %s is under target %s (shortfall %s)",
		e.Total, e.Target, e.Shortfall)
}

func (e *SubmitBlockedError) Unwrap() error {
	return ErrSubmitBlocked
}

// PersistenceError wraps a storage failure with the operation that failed.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap exposes both the sentinel and the cause.
func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}

// Persistence wraps err unless it is nil or already a client-facing error.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsClientError(err) || IsNotFound(err) || errors.Is(err, ErrPersistence) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input or state.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidationRejected) ||
		errors.Is(err, ErrSubmitBlocked) ||
		errors.Is(err, ErrWeekLocked) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrInvalidPolicy) ||
		errors.Is(err, ErrCommentTooLong) ||
		errors.Is(err, ErrDuplicate) ||
		errors.Is(err, ErrForbidden)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
