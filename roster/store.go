/*
store.go - Persistence interface for the roster workflows

PURPOSE:
  Defines what the workflows need from the database. The service never
  talks SQL; the sqlite package implements this interface and tests use the
  same implementation opened on ":memory:".

WRITE SEMANTICS:
  - Shift requests are appended. Resubmitting a period adds new rows;
    existing rows change only through UpdateShiftRequests.
  - Final shifts and attendance are upserted on (date, employee number).
  - Bands are replaced as a whole list.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go
  - store/memory/memory.go

SEE ALSO:
  - service.go: Uses Store
*/
package roster

import (
	"context"
	"time"

	"github.com/warp/shift-engine/worktime"
)

// Store handles persistence for employees, schedules and attendance.
type Store interface {
	// Employees. GetEmployee returns (nil, nil) when not found.
	SaveEmployee(ctx context.Context, emp Employee) error
	GetEmployee(ctx context.Context, number string) (*Employee, error)
	ListEmployees(ctx context.Context) ([]Employee, error)
	DeleteEmployee(ctx context.Context, number string) error

	// Shift requests. Range bounds are inclusive dates. GetShiftRequest
	// returns (nil, nil) when not found.
	AppendShiftRequests(ctx context.Context, reqs []ShiftRequest) error
	ListShiftRequests(ctx context.Context, from, to string) ([]ShiftRequest, error)
	GetShiftRequest(ctx context.Context, id string) (*ShiftRequest, error)
	// ListPendingShiftRequests returns an employee's requests for dates that
	// have no final shift for that employee, ordered by date.
	ListPendingShiftRequests(ctx context.Context, employeeNumber string) ([]ShiftRequest, error)
	// UpdateShiftRequests rewrites start, end and location by ID, all or
	// nothing. An unknown ID fails with ErrRequestNotFound.
	UpdateShiftRequests(ctx context.Context, reqs []ShiftRequest) error

	// Final schedule, upserted on (date, employee).
	UpsertFinalShifts(ctx context.Context, shifts []FinalShift) error
	ListFinalShifts(ctx context.Context, date string) ([]FinalShift, error)
	ScheduledDates(ctx context.Context) ([]string, error)

	// Attendance, upserted on (date, employee).
	UpsertAttendance(ctx context.Context, recs []Attendance) error
	ListAttendanceByDate(ctx context.Context, date string) ([]Attendance, error)
	// ListAttendance returns rows whose date starts with prefix ("" = all),
	// optionally for one employee, newest first.
	ListAttendance(ctx context.Context, prefix, employeeNumber string) ([]Attendance, error)

	// Reporting bands, replaced as a list.
	SaveBands(ctx context.Context, bands []worktime.Band) error
	ListBands(ctx context.Context) ([]worktime.Band, error)

	// PurgeBefore deletes requests, schedules and attendance dated before
	// cutoff and returns the number of rows removed.
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
