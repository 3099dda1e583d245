package sqlite

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/shift-engine/roster"
	"github.com/warp/shift-engine/worktime"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func tp(s string) *worktime.TimeOfDay {
	t := worktime.MustTimeOfDay(s)
	return &t
}

func TestEmployees(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	missing, err := s.GetEmployee(ctx, "101")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, s.SaveEmployee(ctx, roster.Employee{Number: "101", Name: "Sato"}))
	require.NoError(t, s.SaveEmployee(ctx, roster.Employee{Number: "102", Name: "Abe"}))
	require.NoError(t, s.SaveEmployee(ctx, roster.Employee{Number: "101", Name: "Sato Taro"}))

	got, err := s.GetEmployee(ctx, "101")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Sato Taro", got.Name, "save on an existing number renames")
	assert.NotEmpty(t, got.ID)

	all, err := s.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Abe", all[0].Name)

	require.NoError(t, s.DeleteEmployee(ctx, "102"))
	all, err = s.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestShiftRequests_RangeAndNullTimes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AppendShiftRequests(ctx, []roster.ShiftRequest{
		{EmployeeNumber: "101", Date: "2025-03-01", Start: tp("09:00"), End: tp("17:00")},
		{EmployeeNumber: "101", Date: "2025-03-02", Remarks: "any"},
		{EmployeeNumber: "101", Date: "2025-04-01", Start: tp("09:00"), End: tp("12:00")},
	}))

	reqs, err := s.ListShiftRequests(ctx, "2025-03-01", "2025-03-31")
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.Equal(t, "17:00", reqs[0].End.String())
	assert.Nil(t, reqs[1].Start)
	assert.Equal(t, "any", reqs[1].Remarks)
}

func TestShiftRequests_PendingAndUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AppendShiftRequests(ctx, []roster.ShiftRequest{
		{ID: "r1", EmployeeNumber: "101", Date: "2025-03-01", Start: tp("09:00"), End: tp("17:00"), Location: "A"},
		{ID: "r2", EmployeeNumber: "101", Date: "2025-03-02", Start: tp("09:00"), End: tp("17:00")},
		{ID: "r3", EmployeeNumber: "102", Date: "2025-03-02"},
	}))
	// 102 is scheduled on the 1st, which must not hide 101's request.
	require.NoError(t, s.UpsertFinalShifts(ctx, []roster.FinalShift{
		{Date: "2025-03-01", EmployeeNumber: "102", IsOff: true},
		{Date: "2025-03-02", EmployeeNumber: "101", IsOff: true},
	}))

	pending, err := s.ListPendingShiftRequests(ctx, "101")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "r1", pending[0].ID)
	assert.Equal(t, "A", pending[0].Location)

	require.NoError(t, s.UpdateShiftRequests(ctx, []roster.ShiftRequest{
		{ID: "r1", Start: tp("22:00"), End: tp("02:00"), Location: "B"},
	}))
	got, err := s.GetShiftRequest(ctx, "r1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "22:00", got.Start.String())
	assert.Equal(t, "B", got.Location)
	assert.Equal(t, "101", got.EmployeeNumber, "owner is not rewritten")

	// An unknown ID rolls back the whole batch.
	err = s.UpdateShiftRequests(ctx, []roster.ShiftRequest{
		{ID: "r1", Start: tp("10:00"), End: tp("11:00")},
		{ID: "missing"},
	})
	assert.ErrorIs(t, err, roster.ErrRequestNotFound)
	got, err = s.GetShiftRequest(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "22:00", got.Start.String())

	missing, err := s.GetShiftRequest(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAttendance_Salary(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertAttendance(ctx, []roster.Attendance{
		{Date: "2025-03-01", EmployeeNumber: "101", ActualStart: tp("09:00"), ActualEnd: tp("17:00"), WorkMinutes: 480, Salary: decimal.RequireFromString("9600.50")},
		{Date: "2025-03-02", EmployeeNumber: "101", ActualStart: tp("09:00"), ActualEnd: tp("12:00"), WorkMinutes: 180},
	}))

	recs, err := s.ListAttendance(ctx, "2025-03", "101")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.True(t, recs[0].Salary.IsZero())
	assert.Equal(t, "9600.5", recs[1].Salary.String())
}

func TestFinalShifts_UpsertOnDateAndEmployee(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertFinalShifts(ctx, []roster.FinalShift{
		{Date: "2025-03-01", EmployeeNumber: "101", Start: tp("09:00"), End: tp("17:00"), Location: "A"},
	}))
	require.NoError(t, s.UpsertFinalShifts(ctx, []roster.FinalShift{
		{Date: "2025-03-01", EmployeeNumber: "101", IsOff: true},
		{Date: "2025-03-02", EmployeeNumber: "101", Start: tp("22:00"), End: tp("06:00"), Location: "B"},
	}))

	day, err := s.ListFinalShifts(ctx, "2025-03-01")
	require.NoError(t, err)
	require.Len(t, day, 1)
	assert.True(t, day[0].IsOff)
	assert.Nil(t, day[0].Start)

	dates, err := s.ScheduledDates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-03-01", "2025-03-02"}, dates)
}

func TestAttendance_PrefixQuery(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertAttendance(ctx, []roster.Attendance{
		{Date: "2025-03-01", EmployeeNumber: "101", ActualStart: tp("09:00"), ActualEnd: tp("17:00"), BreakMinutes: 60, WorkMinutes: 420},
		{Date: "2025-03-02", EmployeeNumber: "101", ActualStart: tp("09:00"), ActualEnd: tp("12:00"), WorkMinutes: 180},
		{Date: "2025-03-02", EmployeeNumber: "102", ActualStart: tp("12:00"), ActualEnd: tp("15:00"), WorkMinutes: 180},
		{Date: "2025-04-01", EmployeeNumber: "101", ActualStart: tp("09:00"), ActualEnd: tp("10:00"), WorkMinutes: 60},
	}))
	// Second save for the same day replaces the first.
	require.NoError(t, s.UpsertAttendance(ctx, []roster.Attendance{
		{Date: "2025-03-02", EmployeeNumber: "101", ActualStart: tp("10:00"), ActualEnd: tp("12:00"), WorkMinutes: 120},
	}))

	march, err := s.ListAttendance(ctx, "2025-03", "")
	require.NoError(t, err)
	require.Len(t, march, 3)
	assert.Equal(t, "2025-03-02", march[0].Date, "newest first")
	assert.Equal(t, 120, march[0].WorkMinutes)

	mine, err := s.ListAttendance(ctx, "2025", "101")
	require.NoError(t, err)
	assert.Len(t, mine, 3)

	// LIKE wildcards in the prefix are literal.
	none, err := s.ListAttendance(ctx, "2025_03", "")
	require.NoError(t, err)
	assert.Empty(t, none)

	byDate, err := s.ListAttendanceByDate(ctx, "2025-03-02")
	require.NoError(t, err)
	require.Len(t, byDate, 2)
	assert.Equal(t, "10:00", byDate[0].ActualStart.String())
}

func TestBands_ReplaceInOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	empty, err := s.ListBands(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, s.SaveBands(ctx, worktime.DefaultReportBands()))
	require.NoError(t, s.SaveBands(ctx, worktime.DefaultSlotBands()))

	bands, err := s.ListBands(ctx)
	require.NoError(t, err)
	assert.Equal(t, worktime.DefaultSlotBands(), bands)
}

func TestPurgeBefore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AppendShiftRequests(ctx, []roster.ShiftRequest{
		{EmployeeNumber: "101", Date: "2023-01-10"},
	}))
	require.NoError(t, s.UpsertFinalShifts(ctx, []roster.FinalShift{
		{Date: "2023-01-10", EmployeeNumber: "101", IsOff: true},
		{Date: "2025-01-10", EmployeeNumber: "101", IsOff: true},
	}))
	require.NoError(t, s.UpsertAttendance(ctx, []roster.Attendance{
		{Date: "2023-01-10", EmployeeNumber: "101", ActualStart: tp("09:00"), ActualEnd: tp("10:00"), WorkMinutes: 60},
	}))

	removed, err := s.PurgeBefore(ctx, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	dates, err := s.ScheduledDates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-01-10"}, dates)
}

func TestReset(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveEmployee(ctx, roster.Employee{Number: "101", Name: "Sato"}))
	require.NoError(t, s.Reset(ctx))

	all, err := s.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestScanTime_AcceptsSeconds(t *testing.T) {
	got, err := scanTime(sql.NullString{String: "09:30:00", Valid: true})
	require.NoError(t, err)
	assert.Equal(t, "09:30", got.String())
}
