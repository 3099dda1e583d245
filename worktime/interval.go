package worktime

import (
	"fmt"
	"strconv"
	"strings"
)

// =============================================================================
// SHIFT INTERVAL - one worked stretch
// =============================================================================

// ShiftInterval is one worked stretch. A nil Start or End means there was no
// shift and the interval contributes zero minutes.
type ShiftInterval struct {
	Start        *TimeOfDay
	End          *TimeOfDay
	BreakMinutes int
}

// NewShiftInterval builds an interval from raw record fields. Empty start or
// end strings become nil.
func NewShiftInterval(start, end string, breakMinutes int) (ShiftInterval, error) {
	if breakMinutes < 0 {
		return ShiftInterval{}, &ValidationError{Field: "break_minutes", Value: strconv.Itoa(breakMinutes), Err: ErrNegativeBreak}
	}
	s, err := optionalTime(start)
	if err != nil {
		return ShiftInterval{}, err
	}
	e, err := optionalTime(end)
	if err != nil {
		return ShiftInterval{}, err
	}
	return ShiftInterval{Start: s, End: e, BreakMinutes: breakMinutes}, nil
}

// Interval is a shorthand for tests and literals.
func Interval(start, end string, breakMinutes int) ShiftInterval {
	iv, err := NewShiftInterval(start, end, breakMinutes)
	if err != nil {
		panic(err)
	}
	return iv
}

// IsEmpty reports whether the interval has a missing endpoint.
func (iv ShiftInterval) IsEmpty() bool { return iv.Start == nil || iv.End == nil }

// span returns [s, e) in minutes with e pushed past 1440 for overnight shifts.
func (iv ShiftInterval) span() (s, e int, ok bool) {
	if iv.IsEmpty() {
		return 0, 0, false
	}
	s, e = iv.Start.Minutes(), iv.End.Minutes()
	if e < s {
		e += MinutesPerDay
	}
	return s, e, true
}

// WorkedMinutes returns the net minutes for the interval: the clock span,
// wrapped past midnight when end < start, minus the break, floored at zero.
func WorkedMinutes(iv ShiftInterval) int {
	s, e, ok := iv.span()
	if !ok {
		return 0
	}
	worked := e - s - iv.BreakMinutes
	if worked < 0 {
		return 0
	}
	return worked
}

// ComputeWorkedMinutes parses raw record fields and returns WorkedMinutes.
func ComputeWorkedMinutes(start, end string, breakMinutes int) (int, error) {
	iv, err := NewShiftInterval(start, end, breakMinutes)
	if err != nil {
		return 0, err
	}
	return WorkedMinutes(iv), nil
}

func optionalTime(s string) (*TimeOfDay, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := ParseTimeOfDay(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// =============================================================================
// COVERAGE - who is on shift at a given hour
// =============================================================================

// CoverageHours is the length of a schedule timeline in hours. Hours 24-35
// are the following morning in extended notation.
const CoverageHours = 36

// WorkingAt reports whether t falls inside the shift. For an overnight shift
// a time before the start is read as the next morning, so 22:00-02:00 is
// working at 01:00.
func WorkingAt(iv ShiftInterval, t TimeOfDay) bool {
	return workingAtMinute(iv, t.Minutes())
}

func workingAtMinute(iv ShiftInterval, m int) bool {
	s, e, ok := iv.span()
	if !ok {
		return false
	}
	if m < s && e >= MinutesPerDay {
		m += MinutesPerDay
	}
	return m >= s && m < e
}

// CoverageSlot is one hour of a schedule timeline.
type CoverageSlot struct {
	Hour  int    // extended hour, 0-35
	Label string // "25:00"
	// Working holds indexes into the shifts passed to Coverage.
	Working []int
}

// Coverage marks, for every hour of the timeline, which shifts are working
// at the top of that hour.
func Coverage(shifts []ShiftInterval) []CoverageSlot {
	slots := make([]CoverageSlot, CoverageHours)
	for h := range slots {
		slot := CoverageSlot{Hour: h, Label: fmt.Sprintf("%02d:00", h), Working: []int{}}
		for i, iv := range shifts {
			if workingAtMinute(iv, h*MinutesPerHour) {
				slot.Working = append(slot.Working, i)
			}
		}
		slots[h] = slot
	}
	return slots
}
