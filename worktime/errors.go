/*
errors.go - Error types for the work-time calculator

PURPOSE:
  The calculator has exactly one failure mode: a time string that does not
  parse as HH:MM. Everything else (missing endpoints, zero-length shifts,
  breaks longer than the shift, wrapping bands) is a defined zero result.

USAGE:
  m, err := worktime.MinutesSinceMidnight("9:75")
  var verr *worktime.ValidationError
  if errors.As(err, &verr) {
      // verr.Field == "time", verr.Value == "9:75"
  }
  if errors.Is(err, worktime.ErrMalformedTime) { ... }

SEE ALSO:
  - clock.go: Parsing that produces these errors
  - roster/errors.go: Workflow errors that wrap these
*/
package worktime

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMalformedTime is returned when a time string is not HH:MM with
	// hours in [0,23] and minutes in [0,59].
	ErrMalformedTime = errors.New("malformed time")

	// ErrNegativeBreak is returned when break minutes are below zero.
	ErrNegativeBreak = errors.New("break minutes must not be negative")

	// ErrEmptyLabel is returned when a band has no label.
	ErrEmptyLabel = errors.New("band label is required")

	// ErrMalformedBand is returned when a band spec is not label=HH:MM-HH:MM.
	ErrMalformedBand = errors.New("band must be label=HH:MM-HH:MM")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ValidationError carries the offending field and raw value.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(field, value string, err error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Err: err}
}

// IsValidationError reports whether err came from input validation.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
