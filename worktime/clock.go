/*
Package worktime computes worked minutes for shifts and apportions them into
reporting bands.

PURPOSE:
  Every screen of the scheduling app needs the same clock arithmetic: how long
  did a shift last once the break is taken out, and how much of it fell into
  the "morning" or "night" window. This package is the single home for that
  arithmetic. It is pure: no I/O, no state, safe for any number of goroutines.

KEY CONCEPTS IN THIS FILE (clock.go):
  - TimeOfDay: wall-clock time, hours [0,23], minutes [0,59], wire form "HH:MM"
  - MinutesSinceMidnight: "HH:MM" -> minutes from 00:00
  - Extended notation: "25:30" style display times, converted at the boundary

CROSS-MIDNIGHT MODEL:
  Times are always canonical (hour < 24). A span whose end is earlier than its
  start is taken to run into the next day. The "extended hour" notation used
  by schedule displays (hours up to 47) is NOT a storage format; use
  ParseExtended/FormatExtended when talking to such a display.

SEE ALSO:
  - interval.go: ShiftInterval and WorkedMinutes
  - band.go: Band and AllocateToBands
  - summary.go: Aggregation across attendance records
*/
package worktime

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	MinutesPerHour = 60
	MinutesPerDay  = 24 * MinutesPerHour

	// maxExtendedHour bounds extended display notation to the next day.
	maxExtendedHour = 47
)

// =============================================================================
// TIME OF DAY
// =============================================================================

// TimeOfDay is a wall-clock time within a single day.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// NewTimeOfDay builds a canonical time, rejecting out-of-range parts.
func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return TimeOfDay{}, invalid("time", fmt.Sprintf("%d:%d", hour, minute), ErrMalformedTime)
	}
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// MustTimeOfDay parses s and panics on error. Intended for literals.
func MustTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseTimeOfDay parses "HH:MM". A one-digit hour is accepted.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	h, m, err := splitClock(s)
	if err != nil {
		return TimeOfDay{}, err
	}
	t, err := NewTimeOfDay(h, m)
	if err != nil {
		return TimeOfDay{}, invalid("time", s, ErrMalformedTime)
	}
	return t, nil
}

// Minutes returns minutes since 00:00.
func (t TimeOfDay) Minutes() int { return t.Hour*MinutesPerHour + t.Minute }

func (t TimeOfDay) String() string { return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute) }

func (t TimeOfDay) Before(other TimeOfDay) bool { return t.Minutes() < other.Minutes() }

func (t TimeOfDay) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	parsed, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MinutesSinceMidnight converts "HH:MM" to minutes from 00:00.
// Empty input yields 0 by convention; callers should treat a missing start or
// end as "no shift", not as midnight.
func MinutesSinceMidnight(s string) (int, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	t, err := ParseTimeOfDay(s)
	if err != nil {
		return 0, err
	}
	return t.Minutes(), nil
}

// =============================================================================
// EXTENDED NOTATION - display boundary only
// =============================================================================

// ParseExtended parses display notation where hours may run past 23 to mean
// the following day ("25:30" is 01:30 the next day). It returns the canonical
// time and the day offset (0 or 1).
func ParseExtended(s string) (TimeOfDay, int, error) {
	h, m, err := splitClock(s)
	if err != nil {
		return TimeOfDay{}, 0, err
	}
	if h > maxExtendedHour {
		return TimeOfDay{}, 0, invalid("time", s, ErrMalformedTime)
	}
	t, err := NewTimeOfDay(h%24, m)
	if err != nil {
		return TimeOfDay{}, 0, invalid("time", s, ErrMalformedTime)
	}
	return t, h / 24, nil
}

// FormatExtended renders a start/end pair for a schedule display. When the
// span crosses midnight the end is written with hours past 24.
//
//	FormatExtended(18:00, 02:00) == "18:00-26:00"
func FormatExtended(start, end TimeOfDay) string {
	if end.Before(start) {
		return fmt.Sprintf("%s-%02d:%02d", start, end.Hour+24, end.Minute)
	}
	return start.String() + "-" + end.String()
}

func splitClock(s string) (int, int, error) {
	raw := s
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, invalid("time", raw, ErrMalformedTime)
	}
	if len(parts[0]) < 1 || len(parts[0]) > 2 || len(parts[1]) != 2 {
		return 0, 0, invalid("time", raw, ErrMalformedTime)
	}
	h, err := atoiDigits(parts[0])
	if err != nil {
		return 0, 0, invalid("time", raw, ErrMalformedTime)
	}
	m, err := atoiDigits(parts[1])
	if err != nil || m > 59 {
		return 0, 0, invalid("time", raw, ErrMalformedTime)
	}
	return h, m, nil
}

// atoiDigits rejects signs and spaces that strconv.Atoi would accept.
func atoiDigits(s string) (int, error) {
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.Atoi(s)
}
