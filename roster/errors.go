package roster

import (
	"errors"
	"fmt"

	"github.com/warp/shift-engine/worktime"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	ErrEmployeeNotFound  = errors.New("employee not found")
	ErrDuplicateEmployee = errors.New("employee number already registered")
	ErrInvalidPeriod     = errors.New("invalid period: end before start")
	ErrDateOutOfRange    = errors.New("date outside request period")
	ErrInvalidDate       = errors.New("invalid date (use YYYY-MM-DD)")
	ErrLocationRequired  = errors.New("store location is required for a working shift")
	ErrNoSchedule        = errors.New("no final schedule for date")
	ErrRequestNotFound   = errors.New("shift request not found")
	ErrShiftFinalized    = errors.New("shift already on the final schedule")
	ErrIdentityMismatch  = errors.New("employee number and name do not match")

	ErrEmployeeFieldsRequired = errors.New("employee number and name are required")
)

// FieldError ties a workflow error to a row of the input.
type FieldError struct {
	Row   int
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("row %d: %s: %v", e.Row, e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return worktime.IsValidationError(err) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrDateOutOfRange) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrLocationRequired) ||
		errors.Is(err, ErrEmployeeFieldsRequired)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound) || errors.Is(err, ErrNoSchedule) ||
		errors.Is(err, ErrRequestNotFound)
}

// IsConflict returns true for uniqueness violations and edits to
// finalized shifts.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateEmployee) || errors.Is(err, ErrShiftFinalized)
}

// IsForbidden returns true when the caller's identity could not be confirmed.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrIdentityMismatch)
}
