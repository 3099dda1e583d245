/*
service_test.go - Workflow tests against the SQLite store

Tests for:
- Employee registration and duplicates
- Shift request submission, period checks and editing before finalization
- Hourly staffing coverage
- Final schedule upserts and off days
- Attendance defaults from the schedule
- Summaries and per-employee hour reports
- Retention purge
*/
package roster_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/shift-engine/roster"
	"github.com/warp/shift-engine/store/sqlite"
	"github.com/warp/shift-engine/worktime"
)

func newService(t *testing.T) *roster.Service {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return roster.NewService(store)
}

func tod(s string) *worktime.TimeOfDay {
	t := worktime.MustTimeOfDay(s)
	return &t
}

func seedEmployees(t *testing.T, svc *roster.Service) {
	t.Helper()
	ctx := context.Background()
	_, err := svc.RegisterEmployee(ctx, "101", "Sato")
	require.NoError(t, err)
	_, err = svc.RegisterEmployee(ctx, "102", "Suzuki")
	require.NoError(t, err)
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestRegisterEmployee(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	emp, err := svc.RegisterEmployee(ctx, " 101 ", "Sato")
	require.NoError(t, err)
	assert.Equal(t, "101", emp.Number)
	assert.NotEmpty(t, emp.ID)

	_, err = svc.RegisterEmployee(ctx, "101", "Other")
	assert.ErrorIs(t, err, roster.ErrDuplicateEmployee)
	assert.True(t, roster.IsConflict(err))

	_, err = svc.RegisterEmployee(ctx, "", "Nobody")
	assert.True(t, roster.IsClientError(err))
}

func TestRemoveEmployee(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	seedEmployees(t, svc)

	require.NoError(t, svc.RemoveEmployee(ctx, "101"))
	_, err := svc.Employee(ctx, "101")
	assert.True(t, roster.IsNotFound(err))

	err = svc.RemoveEmployee(ctx, "999")
	assert.ErrorIs(t, err, roster.ErrEmployeeNotFound)
}

// =============================================================================
// SHIFT REQUESTS
// =============================================================================

func TestPeriodDates(t *testing.T) {
	dates, err := roster.PeriodDates("2025-02-27", "2025-03-02")
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-02-27", "2025-02-28", "2025-03-01", "2025-03-02"}, dates)

	_, err = roster.PeriodDates("2025-03-02", "2025-03-01")
	assert.ErrorIs(t, err, roster.ErrInvalidPeriod)

	_, err = roster.PeriodDates("2025/03/01", "2025-03-02")
	assert.ErrorIs(t, err, roster.ErrInvalidDate)
}

func TestSubmitShiftRequests(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	seedEmployees(t, svc)

	// GIVEN: a request period of one week
	shifts := []roster.DesiredShift{
		{Date: "2025-03-03", Start: "09:00", End: "17:00"},
		{Date: "2025-03-04", Start: "22:00", End: "06:00", Remarks: " night ok "},
		{Date: "2025-03-05"},
	}

	// WHEN
	reqs, err := svc.SubmitShiftRequests(ctx, "101", "2025-03-03", "2025-03-09", shifts)

	// THEN
	require.NoError(t, err)
	require.Len(t, reqs, 3)
	assert.Equal(t, "night ok", reqs[1].Remarks)
	assert.Nil(t, reqs[2].Start)

	listed, err := svc.ShiftRequests(ctx, "2025-03-01", "2025-03-31")
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, "22:00", listed[1].Start.String())
	assert.Equal(t, "06:00", listed[1].End.String())
}

func TestSubmitShiftRequests_Rejects(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	seedEmployees(t, svc)

	tests := []struct {
		name   string
		number string
		shift  roster.DesiredShift
		want   error
	}{
		{"unknown employee", "999", roster.DesiredShift{Date: "2025-03-03"}, roster.ErrEmployeeNotFound},
		{"outside period", "101", roster.DesiredShift{Date: "2025-03-20"}, roster.ErrDateOutOfRange},
		{"bad date", "101", roster.DesiredShift{Date: "03/03"}, roster.ErrInvalidDate},
		{"bad time", "101", roster.DesiredShift{Date: "2025-03-03", Start: "9"}, worktime.ErrMalformedTime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SubmitShiftRequests(ctx, tt.number, "2025-03-03", "2025-03-09", []roster.DesiredShift{tt.shift})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEditShiftRequests(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	seedEmployees(t, svc)

	// GIVEN: two requested days, the first already on the final schedule
	reqs, err := svc.SubmitShiftRequests(ctx, "101", "2025-03-03", "2025-03-09", []roster.DesiredShift{
		{Date: "2025-03-03", Start: "09:00", End: "17:00", Location: "A"},
		{Date: "2025-03-04", Start: "09:00", End: "17:00", Location: "A"},
	})
	require.NoError(t, err)
	listed, err := svc.ShiftRequests(ctx, "2025-03-03", "2025-03-09")
	require.NoError(t, err)
	require.Len(t, listed, 2)
	finalized, open := listed[0], listed[1]
	assert.Equal(t, "A", reqs[0].Location)

	_, err = svc.FinalizeSchedule(ctx, []roster.FinalShift{
		{Date: "2025-03-03", EmployeeNumber: "101", Start: tod("09:00"), End: tod("17:00"), Location: "A"},
	})
	require.NoError(t, err)

	pending, err := svc.PendingShiftRequests(ctx, "101", "Sato")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, open.ID, pending[0].ID)

	// WHEN: the pending day is edited
	edited, err := svc.EditShiftRequests(ctx, "101", " Sato ", []roster.ShiftRequestEdit{
		{ID: open.ID, Start: "22:00", End: "02:00", Location: " B "},
	})

	// THEN
	require.NoError(t, err)
	require.Len(t, edited, 1)
	after, err := svc.ShiftRequests(ctx, "2025-03-04", "2025-03-04")
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, "22:00", after[0].Start.String())
	assert.Equal(t, "02:00", after[0].End.String())
	assert.Equal(t, "B", after[0].Location)

	// AND: the finalized day is refused without touching the other edit
	_, err = svc.EditShiftRequests(ctx, "101", "Sato", []roster.ShiftRequestEdit{
		{ID: open.ID, Start: "10:00", End: "11:00"},
		{ID: finalized.ID, Start: "10:00", End: "11:00"},
	})
	assert.ErrorIs(t, err, roster.ErrShiftFinalized)
	assert.True(t, roster.IsConflict(err))
	after, err = svc.ShiftRequests(ctx, "2025-03-04", "2025-03-04")
	require.NoError(t, err)
	assert.Equal(t, "22:00", after[0].Start.String())
}

func TestEditShiftRequests_Rejects(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	seedEmployees(t, svc)

	_, err := svc.SubmitShiftRequests(ctx, "102", "2025-03-03", "2025-03-09", []roster.DesiredShift{
		{Date: "2025-03-05", Start: "09:00", End: "17:00"},
	})
	require.NoError(t, err)
	theirs, err := svc.ShiftRequests(ctx, "2025-03-05", "2025-03-05")
	require.NoError(t, err)
	require.Len(t, theirs, 1)

	_, err = svc.EditShiftRequests(ctx, "102", "Sato", nil)
	assert.ErrorIs(t, err, roster.ErrIdentityMismatch)
	assert.True(t, roster.IsForbidden(err))

	_, err = svc.PendingShiftRequests(ctx, "999", "Sato")
	assert.ErrorIs(t, err, roster.ErrIdentityMismatch)

	_, err = svc.EditShiftRequests(ctx, "101", "Sato", []roster.ShiftRequestEdit{{ID: theirs[0].ID}})
	assert.ErrorIs(t, err, roster.ErrRequestNotFound, "another employee's request")

	_, err = svc.EditShiftRequests(ctx, "102", "Suzuki", []roster.ShiftRequestEdit{{ID: "unknown"}})
	assert.ErrorIs(t, err, roster.ErrRequestNotFound)

	_, err = svc.EditShiftRequests(ctx, "102", "Suzuki", []roster.ShiftRequestEdit{
		{ID: theirs[0].ID, Start: "25:00", End: "26:00"},
	})
	assert.ErrorIs(t, err, worktime.ErrMalformedTime)
}

// =============================================================================
// FINAL SCHEDULE
// =============================================================================

func TestFinalizeSchedule_Upserts(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	seedEmployees(t, svc)

	_, err := svc.FinalizeSchedule(ctx, []roster.FinalShift{
		{Date: "2025-03-03", EmployeeNumber: "101", Start: tod("09:00"), End: tod("17:00"), Location: "A"},
		{Date: "2025-03-03", EmployeeNumber: "102", Start: tod("00:00"), End: tod("00:00")},
	})
	require.NoError(t, err)

	// WHEN: the manager edits 101's shift again
	_, err = svc.FinalizeSchedule(ctx, []roster.FinalShift{
		{Date: "2025-03-03", EmployeeNumber: "101", Start: tod("10:00"), End: tod("18:00"), Location: "B"},
	})
	require.NoError(t, err)

	// THEN: one row each, last save wins, 00:00-00:00 stored as off
	shifts, err := svc.Schedule(ctx, "2025-03-03")
	require.NoError(t, err)
	require.Len(t, shifts, 2)
	assert.Equal(t, "10:00", shifts[0].Start.String())
	assert.Equal(t, "B", shifts[0].Location)
	assert.True(t, shifts[1].IsOff)
	assert.Nil(t, shifts[1].Start)

	dates, err := svc.ScheduledDates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-03-03"}, dates)
}

func TestFinalizeSchedule_RequiresLocation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	seedEmployees(t, svc)

	_, err := svc.FinalizeSchedule(ctx, []roster.FinalShift{
		{Date: "2025-03-03", EmployeeNumber: "101", Start: tod("09:00"), End: tod("17:00")},
	})
	assert.ErrorIs(t, err, roster.ErrLocationRequired)

	var fe *roster.FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "store", fe.Field)
}

func TestCoverage(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	seedEmployees(t, svc)

	_, err := svc.FinalizeSchedule(ctx, []roster.FinalShift{
		{Date: "2025-03-03", EmployeeNumber: "101", Start: tod("22:00"), End: tod("02:00"), Location: "A"},
		{Date: "2025-03-03", EmployeeNumber: "102", IsOff: true},
	})
	require.NoError(t, err)

	hours, err := svc.Coverage(ctx, "2025-03-03")
	require.NoError(t, err)
	require.Len(t, hours, worktime.CoverageHours)
	assert.Equal(t, "25:00", hours[25].Label)
	assert.Equal(t, []string{"101"}, hours[25].EmployeeNumbers)
	assert.Equal(t, []string{"101"}, hours[23].EmployeeNumbers)
	assert.Empty(t, hours[12].EmployeeNumbers, "off days never count")

	_, err = svc.Coverage(ctx, "tomorrow")
	assert.ErrorIs(t, err, roster.ErrInvalidDate)
}

// =============================================================================
// ATTENDANCE
// =============================================================================

func scheduleDay(t *testing.T, svc *roster.Service) {
	t.Helper()
	_, err := svc.FinalizeSchedule(context.Background(), []roster.FinalShift{
		{Date: "2025-03-03", EmployeeNumber: "101", Start: tod("22:00"), End: tod("06:00"), Location: "A"},
		{Date: "2025-03-03", EmployeeNumber: "102", IsOff: true},
	})
	require.NoError(t, err)
}

func TestRecordAttendance_DefaultsToSchedule(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	seedEmployees(t, svc)
	scheduleDay(t, svc)

	// WHEN: only the break is entered for the overnight shift
	recs, err := svc.RecordAttendance(ctx, "2025-03-03", []roster.AttendanceEntry{
		{EmployeeNumber: "101", BreakMinutes: 60},
		{EmployeeNumber: "102"},
	})

	// THEN: scheduled times are used, the off row is skipped
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 420, recs[0].WorkMinutes)
	assert.Equal(t, "A", recs[0].Location)

	sheet, err := svc.AttendanceSheet(ctx, "2025-03-03")
	require.NoError(t, err)
	require.Len(t, sheet, 2)
	assert.Equal(t, "Sato", sheet[0].Name)
	assert.Equal(t, 420, sheet[0].WorkMinutes)
	assert.NotEmpty(t, sheet[0].AttendanceID)
	assert.True(t, sheet[1].IsOff, "off rows sort last")
}

func TestRecordAttendance_OverridesAndResaves(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	seedEmployees(t, svc)
	scheduleDay(t, svc)

	_, err := svc.RecordAttendance(ctx, "2025-03-03", []roster.AttendanceEntry{
		{EmployeeNumber: "101", ActualStart: "22:30", BreakMinutes: 30},
	})
	require.NoError(t, err)
	_, err = svc.RecordAttendance(ctx, "2025-03-03", []roster.AttendanceEntry{
		{EmployeeNumber: "101", ActualStart: "23:00", ActualEnd: "05:00", Location: "B"},
	})
	require.NoError(t, err)

	sheet, err := svc.AttendanceSheet(ctx, "2025-03-03")
	require.NoError(t, err)
	assert.Equal(t, "23:00", sheet[0].ActualStart.String())
	assert.Equal(t, "22:00", sheet[0].ScheduledStart.String())
	assert.Equal(t, 360, sheet[0].WorkMinutes)
	assert.Equal(t, "B", sheet[0].Location)
}

func TestRecordAttendance_SingleEndpoint(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	seedEmployees(t, svc)
	scheduleDay(t, svc)

	// GIVEN: an off day with only a clock-in, nothing saved yet
	recs, err := svc.RecordAttendance(ctx, "2025-03-03", []roster.AttendanceEntry{
		{EmployeeNumber: "102", ActualStart: "09:00"},
	})
	require.NoError(t, err)
	assert.Empty(t, recs, "a new row needs both endpoints")

	// WHEN: a full row is saved, then edited down to one endpoint
	_, err = svc.RecordAttendance(ctx, "2025-03-03", []roster.AttendanceEntry{
		{EmployeeNumber: "102", ActualStart: "09:00", ActualEnd: "12:00", Salary: decimal.NewFromInt(3000)},
	})
	require.NoError(t, err)
	recs, err = svc.RecordAttendance(ctx, "2025-03-03", []roster.AttendanceEntry{
		{EmployeeNumber: "102", ActualStart: "10:00"},
	})

	// THEN: the existing row is updated
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Zero(t, recs[0].WorkMinutes)
	assert.Nil(t, recs[0].ActualEnd)
}

func TestRecordAttendance_Rejects(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	seedEmployees(t, svc)

	_, err := svc.RecordAttendance(ctx, "2025-03-03", []roster.AttendanceEntry{{EmployeeNumber: "101"}})
	assert.ErrorIs(t, err, roster.ErrNoSchedule)

	scheduleDay(t, svc)

	_, err = svc.RecordAttendance(ctx, "2025-03-03", []roster.AttendanceEntry{{EmployeeNumber: "999"}})
	assert.ErrorIs(t, err, roster.ErrNoSchedule)

	_, err = svc.RecordAttendance(ctx, "2025-03-03", []roster.AttendanceEntry{{EmployeeNumber: "101", BreakMinutes: -5}})
	assert.ErrorIs(t, err, worktime.ErrNegativeBreak)
	assert.True(t, roster.IsClientError(err))
}

// =============================================================================
// SUMMARIES
// =============================================================================

func seedMonth(t *testing.T, svc *roster.Service) {
	t.Helper()
	ctx := context.Background()
	days := []struct {
		date, start, end string
		brk              int
	}{
		{"2025-03-03", "09:00", "17:00", 60},
		{"2025-03-04", "18:00", "23:00", 0},
		{"2025-04-01", "12:00", "15:00", 0},
	}
	for _, d := range days {
		_, err := svc.FinalizeSchedule(ctx, []roster.FinalShift{
			{Date: d.date, EmployeeNumber: "101", Start: tod(d.start), End: tod(d.end), Location: "A"},
		})
		require.NoError(t, err)
		_, err = svc.RecordAttendance(ctx, d.date, []roster.AttendanceEntry{
			{EmployeeNumber: "101", BreakMinutes: d.brk},
		})
		require.NoError(t, err)
	}
}

func TestSummary_DefaultBands(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	seedEmployees(t, svc)
	seedMonth(t, svc)

	rows, bands, err := svc.Summary(ctx, roster.Filter{Period: "2025-03"})
	require.NoError(t, err)
	assert.Equal(t, worktime.DefaultReportBands(), bands)
	require.Len(t, rows, 1)
	assert.Equal(t, "Sato", rows[0].Name)
	assert.Equal(t, 720, rows[0].TotalMinutes)
	assert.Equal(t, 2, rows[0].Workdays)
	assert.Equal(t, 158, rows[0].Bands["morning"])
	assert.Equal(t, 263, rows[0].Bands["afternoon"])
	assert.Equal(t, 300, rows[0].Bands["night"])

	day, _, err := svc.Summary(ctx, roster.Filter{Period: "2025-03-04"})
	require.NoError(t, err)
	require.Len(t, day, 1)
	assert.Equal(t, 300, day[0].TotalMinutes)

	_, _, err = svc.Summary(ctx, roster.Filter{Period: "March"})
	assert.ErrorIs(t, err, roster.ErrInvalidDate)
}

func TestSummary_CustomBands(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	seedEmployees(t, svc)
	seedMonth(t, svc)

	// GIVEN: bands saved out of order
	night, err := worktime.ParseBand("late", "17:00", "09:00")
	require.NoError(t, err)
	day, err := worktime.ParseBand("day", "09:00", "17:00")
	require.NoError(t, err)
	saved, err := svc.SaveBands(ctx, []worktime.Band{night, day})
	require.NoError(t, err)
	assert.Equal(t, "day", saved[0].Label)

	rows, bands, err := svc.Summary(ctx, roster.Filter{Period: "2025-03", EmployeeNumber: "101"})
	require.NoError(t, err)
	require.Len(t, bands, 2)
	require.Len(t, rows, 1)
	assert.Equal(t, 420, rows[0].Bands["day"])
	assert.Equal(t, 300, rows[0].Bands["late"])

	_, err = svc.SaveBands(ctx, []worktime.Band{{Label: " ", Start: day.Start, End: day.End}})
	assert.ErrorIs(t, err, worktime.ErrEmptyLabel)
}

func TestEmployeeHours(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	seedEmployees(t, svc)
	seedMonth(t, svc)

	report, err := svc.EmployeeHours(ctx, "101", 2025, 3, worktime.GroupDaily, nil)
	require.NoError(t, err)
	assert.Equal(t, 720, report.TotalMinutes)
	assert.Equal(t, 2, report.Workdays)
	require.Len(t, report.Groups, 2)
	assert.Equal(t, "2025-03-04 (Tue)", report.Groups[0].Key)

	year, err := svc.EmployeeHours(ctx, "101", 2025, 0, worktime.GroupMonthly, nil)
	require.NoError(t, err)
	require.Len(t, year.Groups, 2)
	assert.Equal(t, "2025-04", year.Groups[0].Key)
	assert.Equal(t, 900, year.TotalMinutes)

	_, err = svc.EmployeeHours(ctx, "101", 2025, 13, worktime.GroupMonthly, nil)
	assert.ErrorIs(t, err, roster.ErrInvalidDate)

	_, err = svc.EmployeeHours(ctx, "999", 2025, 3, worktime.GroupMonthly, nil)
	assert.ErrorIs(t, err, roster.ErrEmployeeNotFound)
}

func TestEmployeeHours_CustomSlotsAndSalary(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	seedEmployees(t, svc)

	for _, d := range []struct{ date, start, end string }{
		{"2025-03-03", "09:00", "17:00"},
		{"2025-03-04", "18:00", "23:00"},
	} {
		_, err := svc.FinalizeSchedule(ctx, []roster.FinalShift{
			{Date: d.date, EmployeeNumber: "101", Start: tod(d.start), End: tod(d.end), Location: "A"},
		})
		require.NoError(t, err)
		_, err = svc.RecordAttendance(ctx, d.date, []roster.AttendanceEntry{
			{EmployeeNumber: "101", Salary: decimal.NewFromInt(5000)},
		})
		require.NoError(t, err)
	}

	early, err := worktime.ParseBandSpec("early=05:00-15:00")
	require.NoError(t, err)
	late, err := worktime.ParseBandSpec("late=15:00-05:00")
	require.NoError(t, err)

	report, err := svc.EmployeeHours(ctx, "101", 2025, 3, worktime.GroupSlot, []worktime.Band{early, late})
	require.NoError(t, err)
	require.Len(t, report.Groups, 2)
	assert.Equal(t, "early (05:00-15:00)", report.Groups[0].Key)
	assert.Equal(t, "late (15:00-05:00)", report.Groups[1].Key)
	assert.True(t, report.TotalSalary.Equal(decimal.NewFromInt(10000)), report.TotalSalary.String())
	assert.True(t, report.Groups[1].TotalSalary.Equal(decimal.NewFromInt(5000)))

	defaults, err := svc.EmployeeHours(ctx, "101", 2025, 3, worktime.GroupSlot, nil)
	require.NoError(t, err)
	require.Len(t, defaults.Groups, 2)
	assert.Equal(t, "morning (06:00-12:00)", defaults.Groups[0].Key)
	assert.Equal(t, "evening (17:00-22:00)", defaults.Groups[1].Key)
}

// =============================================================================
// RETENTION
// =============================================================================

func TestPurgeOlderThan(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	seedEmployees(t, svc)

	old := time.Now().AddDate(-2, 0, 0).Format(roster.DateLayout)
	recent := time.Now().AddDate(0, -1, 0).Format(roster.DateLayout)
	for _, date := range []string{old, recent} {
		_, err := svc.FinalizeSchedule(ctx, []roster.FinalShift{
			{Date: date, EmployeeNumber: "101", Start: tod("09:00"), End: tod("12:00"), Location: "A"},
		})
		require.NoError(t, err)
		_, err = svc.RecordAttendance(ctx, date, []roster.AttendanceEntry{{EmployeeNumber: "101"}})
		require.NoError(t, err)
	}

	removed, err := svc.PurgeOlderThan(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed, "one schedule row and one attendance row")

	dates, err := svc.ScheduledDates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{recent}, dates)
}
