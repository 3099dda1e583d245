/*
Package roster implements the scheduling and attendance workflows.

PURPOSE:
  Staff submit the shifts they would like, a manager writes the final
  schedule, clock-in/out times are recorded against it, and work-hour
  summaries are produced for payroll. This package owns those workflows; the
  clock arithmetic lives in worktime and persistence behind the Store
  interface.

KEY CONCEPTS IN THIS FILE (types.go):
  - Employee:       a staff member identified by their employee number
  - ShiftRequest:   a desired shift submitted by staff, editable until
                    its date is on the final schedule
  - FinalShift:     the manager's schedule, one row per (date, employee)
  - Attendance:     actual times worked, one row per (date, employee)

DATES:
  Dates are "YYYY-MM-DD" strings, the form used by every client and by the
  store. Times are worktime.TimeOfDay, nil when absent.

CONCURRENT EDITS:
  Schedule and attendance writes are upserts keyed on (date, employee). Two
  managers editing the same day will see the last save win.

SEE ALSO:
  - service.go: Workflows
  - store.go: Persistence interface
  - store/sqlite/sqlite.go: Implementation
*/
package roster

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/shift-engine/worktime"
)

const DateLayout = "2006-01-02"

// Employee is a staff member.
type Employee struct {
	ID        string
	Number    string
	Name      string
	CreatedAt time.Time
}

// ShiftRequest is one desired shift. Empty times mean "no preference".
type ShiftRequest struct {
	ID             string
	EmployeeNumber string
	Date           string
	Start          *worktime.TimeOfDay
	End            *worktime.TimeOfDay
	Location       string
	Remarks        string
	CreatedAt      time.Time
}

// DesiredShift is the staff input for one day of a request period.
type DesiredShift struct {
	Date     string
	Start    string
	End      string
	Location string
	Remarks  string
}

// ShiftRequestEdit changes the times and location of a submitted request.
type ShiftRequestEdit struct {
	ID       string
	Start    string
	End      string
	Location string
}

// FinalShift is the scheduled shift for an employee on a date.
type FinalShift struct {
	Date           string
	EmployeeNumber string
	Start          *worktime.TimeOfDay
	End            *worktime.TimeOfDay
	Location       string
	IsOff          bool
	UpdatedAt      time.Time
}

// Off reports whether the shift is a day off. A shift with no times, or with
// 00:00-00:00, counts as off as well.
func (f FinalShift) Off() bool {
	if f.IsOff || f.Start == nil || f.End == nil {
		return true
	}
	return f.Start.Minutes() == 0 && f.End.Minutes() == 0
}

// Attendance is what was actually worked.
type Attendance struct {
	ID             string
	Date           string
	EmployeeNumber string
	ActualStart    *worktime.TimeOfDay
	ActualEnd      *worktime.TimeOfDay
	BreakMinutes   int
	WorkMinutes    int
	Location       string
	Salary         decimal.Decimal
	UpdatedAt      time.Time
}

// Interval returns the attendance as a worktime interval.
func (a Attendance) Interval() worktime.ShiftInterval {
	return worktime.ShiftInterval{Start: a.ActualStart, End: a.ActualEnd, BreakMinutes: a.BreakMinutes}
}

// Record converts to the summary input.
func (a Attendance) Record() worktime.Record {
	return worktime.Record{
		EmployeeNumber: a.EmployeeNumber,
		Date:           a.Date,
		Interval:       a.Interval(),
		WorkMinutes:    a.WorkMinutes,
		Salary:         a.Salary,
	}
}

// AttendanceEntry is one row of a manager's attendance sheet. Empty times
// fall back to the scheduled shift.
type AttendanceEntry struct {
	EmployeeNumber string
	ActualStart    string
	ActualEnd      string
	BreakMinutes   int
	Location       string
	Salary         decimal.Decimal
}

// SheetRow merges the schedule and attendance for one employee on one day.
type SheetRow struct {
	EmployeeNumber string
	Name           string
	ScheduledStart *worktime.TimeOfDay
	ScheduledEnd   *worktime.TimeOfDay
	ActualStart    *worktime.TimeOfDay
	ActualEnd      *worktime.TimeOfDay
	BreakMinutes   int
	WorkMinutes    int
	Location       string
	IsOff          bool
	AttendanceID   string
}

// Filter selects attendance for a summary.
type Filter struct {
	// Period is "YYYY-MM" for a month or "YYYY-MM-DD" for a day.
	Period string
	// EmployeeNumber restricts to one employee when set.
	EmployeeNumber string
}

// SummaryRow is one employee's line in the manager summary.
type SummaryRow struct {
	worktime.EmployeeSummary
	Name string
}
