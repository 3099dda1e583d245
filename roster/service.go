/*
service.go - Scheduling and attendance workflows

PURPOSE:
  The operations behind every screen: register staff, submit desired shifts,
  finalize the schedule, record attendance against it, and summarize hours.
  Every worked-minute figure is computed by the worktime package; this file
  never does clock arithmetic itself.

REQUEST FLOW:
  1. Validate input (dates, times, employee exists)
  2. Build domain rows
  3. Persist through Store
  4. Return what was written

SEE ALSO:
  - types.go: Domain types
  - store.go: Persistence interface
  - worktime/: Clock arithmetic
*/
package roster

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/shift-engine/worktime"
)

// DefaultRetentionMonths is how long schedules and attendance are kept.
const DefaultRetentionMonths = 18

// Service runs the roster workflows against a Store.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a service backed by store.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// RegisterEmployee adds a staff member. Employee numbers are unique.
func (s *Service) RegisterEmployee(ctx context.Context, number, name string) (Employee, error) {
	number, name = strings.TrimSpace(number), strings.TrimSpace(name)
	if number == "" || name == "" {
		return Employee{}, ErrEmployeeFieldsRequired
	}

	existing, err := s.store.GetEmployee(ctx, number)
	if err != nil {
		return Employee{}, err
	}
	if existing != nil {
		return Employee{}, ErrDuplicateEmployee
	}

	emp := Employee{Number: number, Name: name, CreatedAt: s.now().UTC()}
	if err := s.store.SaveEmployee(ctx, emp); err != nil {
		return Employee{}, err
	}
	saved, err := s.store.GetEmployee(ctx, number)
	if err != nil {
		return Employee{}, err
	}
	if saved == nil {
		return emp, nil
	}
	return *saved, nil
}

// Employee looks up a staff member by number.
func (s *Service) Employee(ctx context.Context, number string) (Employee, error) {
	emp, err := s.store.GetEmployee(ctx, number)
	if err != nil {
		return Employee{}, err
	}
	if emp == nil {
		return Employee{}, ErrEmployeeNotFound
	}
	return *emp, nil
}

func (s *Service) Employees(ctx context.Context) ([]Employee, error) {
	return s.store.ListEmployees(ctx)
}

func (s *Service) RemoveEmployee(ctx context.Context, number string) error {
	if _, err := s.Employee(ctx, number); err != nil {
		return err
	}
	return s.store.DeleteEmployee(ctx, number)
}

// =============================================================================
// SHIFT REQUESTS
// =============================================================================

// PeriodDates lists every date in [from, to].
func PeriodDates(from, to string) ([]string, error) {
	start, err := parseDate(from)
	if err != nil {
		return nil, err
	}
	end, err := parseDate(to)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, ErrInvalidPeriod
	}
	var dates []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(DateLayout))
	}
	return dates, nil
}

// SubmitShiftRequests records an employee's desired shifts for a period.
// Each shift must fall inside [from, to]; empty times mean no preference.
func (s *Service) SubmitShiftRequests(ctx context.Context, number, from, to string, shifts []DesiredShift) ([]ShiftRequest, error) {
	if _, err := s.Employee(ctx, number); err != nil {
		return nil, err
	}
	dates, err := PeriodDates(from, to)
	if err != nil {
		return nil, err
	}
	inPeriod := make(map[string]bool, len(dates))
	for _, d := range dates {
		inPeriod[d] = true
	}

	now := s.now().UTC()
	reqs := make([]ShiftRequest, 0, len(shifts))
	for i, sh := range shifts {
		if _, err := parseDate(sh.Date); err != nil {
			return nil, &FieldError{Row: i, Field: "date", Err: err}
		}
		if !inPeriod[sh.Date] {
			return nil, &FieldError{Row: i, Field: "date", Err: ErrDateOutOfRange}
		}
		iv, err := worktime.NewShiftInterval(sh.Start, sh.End, 0)
		if err != nil {
			return nil, &FieldError{Row: i, Field: "time", Err: err}
		}
		reqs = append(reqs, ShiftRequest{
			EmployeeNumber: number,
			Date:           sh.Date,
			Start:          iv.Start,
			End:            iv.End,
			Location:       strings.TrimSpace(sh.Location),
			Remarks:        strings.TrimSpace(sh.Remarks),
			CreatedAt:      now,
		})
	}

	if err := s.store.AppendShiftRequests(ctx, reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}

// ShiftRequests lists requests submitted for dates in [from, to].
func (s *Service) ShiftRequests(ctx context.Context, from, to string) ([]ShiftRequest, error) {
	if _, err := PeriodDates(from, to); err != nil {
		return nil, err
	}
	return s.store.ListShiftRequests(ctx, from, to)
}

// PendingShiftRequests lists the requests an employee can still edit: those
// whose date has no final shift for them yet. name must match the registered
// name.
func (s *Service) PendingShiftRequests(ctx context.Context, number, name string) ([]ShiftRequest, error) {
	number = strings.TrimSpace(number)
	if err := s.confirmIdentity(ctx, number, name); err != nil {
		return nil, err
	}
	return s.store.ListPendingShiftRequests(ctx, number)
}

// EditShiftRequests changes the times and location of pending requests. The
// whole batch is refused if any request is unknown, belongs to someone else
// or is already on the final schedule.
func (s *Service) EditShiftRequests(ctx context.Context, number, name string, edits []ShiftRequestEdit) ([]ShiftRequest, error) {
	number = strings.TrimSpace(number)
	if err := s.confirmIdentity(ctx, number, name); err != nil {
		return nil, err
	}
	pending, err := s.store.ListPendingShiftRequests(ctx, number)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]ShiftRequest, len(pending))
	for _, r := range pending {
		byID[r.ID] = r
	}

	out := make([]ShiftRequest, 0, len(edits))
	for i, e := range edits {
		req, ok := byID[e.ID]
		if !ok {
			return nil, &FieldError{Row: i, Field: "id", Err: s.notEditable(ctx, number, e.ID)}
		}
		iv, err := worktime.NewShiftInterval(e.Start, e.End, 0)
		if err != nil {
			return nil, &FieldError{Row: i, Field: "time", Err: err}
		}
		req.Start, req.End = iv.Start, iv.End
		req.Location = strings.TrimSpace(e.Location)
		out = append(out, req)
	}

	if err := s.store.UpdateShiftRequests(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// notEditable explains why id is not among the pending requests.
func (s *Service) notEditable(ctx context.Context, number, id string) error {
	req, err := s.store.GetShiftRequest(ctx, id)
	if err != nil {
		return err
	}
	if req == nil || req.EmployeeNumber != number {
		return ErrRequestNotFound
	}
	return ErrShiftFinalized
}

// confirmIdentity checks that number and name belong to the same employee.
// An unknown number reads as a mismatch.
func (s *Service) confirmIdentity(ctx context.Context, number, name string) error {
	emp, err := s.store.GetEmployee(ctx, number)
	if err != nil {
		return err
	}
	if emp == nil || emp.Name != strings.TrimSpace(name) {
		return ErrIdentityMismatch
	}
	return nil
}

// =============================================================================
// FINAL SCHEDULE
// =============================================================================

// FinalizeSchedule writes the manager's schedule. Rows are upserted on
// (date, employee); the last save wins. Off days are stored without times.
func (s *Service) FinalizeSchedule(ctx context.Context, shifts []FinalShift) ([]FinalShift, error) {
	now := s.now().UTC()
	out := make([]FinalShift, 0, len(shifts))

	for i, f := range shifts {
		if _, err := parseDate(f.Date); err != nil {
			return nil, &FieldError{Row: i, Field: "date", Err: err}
		}
		if _, err := s.Employee(ctx, f.EmployeeNumber); err != nil {
			return nil, &FieldError{Row: i, Field: "employee_number", Err: err}
		}
		f.Location = strings.TrimSpace(f.Location)
		if f.Off() {
			f.IsOff, f.Start, f.End = true, nil, nil
		} else if f.Location == "" {
			return nil, &FieldError{Row: i, Field: "store", Err: ErrLocationRequired}
		}
		f.UpdatedAt = now
		out = append(out, f)
	}

	if err := s.store.UpsertFinalShifts(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Schedule returns the final shifts for a date.
func (s *Service) Schedule(ctx context.Context, date string) ([]FinalShift, error) {
	if _, err := parseDate(date); err != nil {
		return nil, err
	}
	return s.store.ListFinalShifts(ctx, date)
}

// HourCoverage is one hour of a day's staffing timeline.
type HourCoverage struct {
	Hour            int
	Label           string
	EmployeeNumbers []string
}

// Coverage lists who is working at each hour of a date's schedule, hours
// past 23 being the next morning. Off days never count.
func (s *Service) Coverage(ctx context.Context, date string) ([]HourCoverage, error) {
	schedule, err := s.Schedule(ctx, date)
	if err != nil {
		return nil, err
	}
	var (
		numbers   []string
		intervals []worktime.ShiftInterval
	)
	for _, f := range schedule {
		if f.Off() {
			continue
		}
		numbers = append(numbers, f.EmployeeNumber)
		intervals = append(intervals, worktime.ShiftInterval{Start: f.Start, End: f.End})
	}

	slots := worktime.Coverage(intervals)
	out := make([]HourCoverage, len(slots))
	for i, slot := range slots {
		hc := HourCoverage{Hour: slot.Hour, Label: slot.Label, EmployeeNumbers: make([]string, len(slot.Working))}
		for j, idx := range slot.Working {
			hc.EmployeeNumbers[j] = numbers[idx]
		}
		out[i] = hc
	}
	return out, nil
}

// ScheduledDates lists dates that have a final schedule, ascending.
func (s *Service) ScheduledDates(ctx context.Context) ([]string, error) {
	return s.store.ScheduledDates(ctx)
}

// =============================================================================
// ATTENDANCE
// =============================================================================

// RecordAttendance saves actual times for a scheduled date. Missing actual
// times fall back to the scheduled shift; an entry that still has neither
// start nor end is skipped, and one with a single endpoint only updates a row
// saved earlier. Work minutes are computed on save.
func (s *Service) RecordAttendance(ctx context.Context, date string, entries []AttendanceEntry) ([]Attendance, error) {
	if _, err := parseDate(date); err != nil {
		return nil, err
	}
	schedule, err := s.store.ListFinalShifts(ctx, date)
	if err != nil {
		return nil, err
	}
	if len(schedule) == 0 {
		return nil, ErrNoSchedule
	}
	byEmployee := make(map[string]FinalShift, len(schedule))
	for _, f := range schedule {
		byEmployee[f.EmployeeNumber] = f
	}
	saved, err := s.store.ListAttendanceByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	hasRow := make(map[string]bool, len(saved))
	for _, a := range saved {
		hasRow[a.EmployeeNumber] = true
	}

	now := s.now().UTC()
	var recs []Attendance
	for i, e := range entries {
		sched, ok := byEmployee[e.EmployeeNumber]
		if !ok {
			return nil, &FieldError{Row: i, Field: "employee_number", Err: ErrNoSchedule}
		}
		start, end := e.ActualStart, e.ActualEnd
		if !sched.Off() {
			if start == "" {
				start = sched.Start.String()
			}
			if end == "" {
				end = sched.End.String()
			}
		}
		iv, err := worktime.NewShiftInterval(start, end, e.BreakMinutes)
		if err != nil {
			return nil, &FieldError{Row: i, Field: "time", Err: err}
		}
		if iv.Start == nil && iv.End == nil {
			continue
		}
		if iv.IsEmpty() && !hasRow[e.EmployeeNumber] {
			continue
		}
		location := strings.TrimSpace(e.Location)
		if location == "" {
			location = sched.Location
		}
		recs = append(recs, Attendance{
			Date:           date,
			EmployeeNumber: e.EmployeeNumber,
			ActualStart:    iv.Start,
			ActualEnd:      iv.End,
			BreakMinutes:   iv.BreakMinutes,
			WorkMinutes:    worktime.WorkedMinutes(iv),
			Location:       location,
			Salary:         e.Salary,
			UpdatedAt:      now,
		})
	}

	if err := s.store.UpsertAttendance(ctx, recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// AttendanceSheet merges the schedule and saved attendance for a date.
// Working rows come first, off rows last.
func (s *Service) AttendanceSheet(ctx context.Context, date string) ([]SheetRow, error) {
	schedule, err := s.Schedule(ctx, date)
	if err != nil {
		return nil, err
	}
	saved, err := s.store.ListAttendanceByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	names, err := s.names(ctx)
	if err != nil {
		return nil, err
	}

	byEmployee := make(map[string]Attendance, len(saved))
	for _, a := range saved {
		byEmployee[a.EmployeeNumber] = a
	}

	rows := make([]SheetRow, 0, len(schedule))
	for _, f := range schedule {
		row := SheetRow{
			EmployeeNumber: f.EmployeeNumber,
			Name:           names.lookup(f.EmployeeNumber),
			ScheduledStart: f.Start,
			ScheduledEnd:   f.End,
			ActualStart:    f.Start,
			ActualEnd:      f.End,
			Location:       f.Location,
			IsOff:          f.Off(),
		}
		if a, ok := byEmployee[f.EmployeeNumber]; ok {
			if a.ActualStart != nil {
				row.ActualStart = a.ActualStart
			}
			if a.ActualEnd != nil {
				row.ActualEnd = a.ActualEnd
			}
			row.BreakMinutes = a.BreakMinutes
			row.WorkMinutes = a.WorkMinutes
			row.AttendanceID = a.ID
			if a.Location != "" {
				row.Location = a.Location
			}
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool { return !rows[i].IsOff && rows[j].IsOff })
	return rows, nil
}

// =============================================================================
// BANDS & SUMMARIES
// =============================================================================

// Bands returns the configured reporting bands, or the defaults.
func (s *Service) Bands(ctx context.Context) ([]worktime.Band, error) {
	bands, err := s.store.ListBands(ctx)
	if err != nil {
		return nil, err
	}
	if len(bands) == 0 {
		return worktime.DefaultReportBands(), nil
	}
	return bands, nil
}

// SaveBands replaces the band configuration, sorted by start time.
func (s *Service) SaveBands(ctx context.Context, bands []worktime.Band) ([]worktime.Band, error) {
	sorted := make([]worktime.Band, len(bands))
	for i, b := range bands {
		b.Label = strings.TrimSpace(b.Label)
		if b.Label == "" {
			return nil, &FieldError{Row: i, Field: "label", Err: worktime.ErrEmptyLabel}
		}
		sorted[i] = b
	}
	worktime.SortBands(sorted)
	if err := s.store.SaveBands(ctx, sorted); err != nil {
		return nil, err
	}
	return sorted, nil
}

// Summary totals attendance per employee for a month or a day.
func (s *Service) Summary(ctx context.Context, f Filter) ([]SummaryRow, []worktime.Band, error) {
	if err := validatePeriod(f.Period); err != nil {
		return nil, nil, err
	}
	bands, err := s.Bands(ctx)
	if err != nil {
		return nil, nil, err
	}
	atts, err := s.store.ListAttendance(ctx, f.Period, f.EmployeeNumber)
	if err != nil {
		return nil, nil, err
	}
	names, err := s.names(ctx)
	if err != nil {
		return nil, nil, err
	}

	records := make([]worktime.Record, len(atts))
	for i, a := range atts {
		records[i] = a.Record()
	}

	sums := worktime.Summarize(records, bands)
	rows := make([]SummaryRow, len(sums))
	for i, sum := range sums {
		rows[i] = SummaryRow{EmployeeSummary: sum, Name: names.lookup(sum.EmployeeNumber)}
	}
	return rows, bands, nil
}

// HoursReport is an employee's own view of their hours.
type HoursReport struct {
	Employee     Employee
	Groups       []worktime.RecordGroup
	TotalMinutes int
	TotalSalary  decimal.Decimal
	Workdays     int
}

// EmployeeHours groups one employee's attendance for a month. month == 0
// covers the whole year. slots drives GroupSlot; nil uses the default slots.
func (s *Service) EmployeeHours(ctx context.Context, number string, year, month int, mode worktime.GroupMode, slots []worktime.Band) (*HoursReport, error) {
	emp, err := s.Employee(ctx, number)
	if err != nil {
		return nil, err
	}
	if year < 1 || month < 0 || month > 12 {
		return nil, ErrInvalidDate
	}
	prefix := fmt.Sprintf("%04d", year)
	if month > 0 {
		prefix = fmt.Sprintf("%04d-%02d", year, month)
	}

	atts, err := s.store.ListAttendance(ctx, prefix, number)
	if err != nil {
		return nil, err
	}
	report := &HoursReport{Employee: emp}
	records := make([]worktime.Record, len(atts))
	for i, a := range atts {
		records[i] = a.Record()
		report.TotalSalary = report.TotalSalary.Add(a.Salary)
		if a.WorkMinutes > 0 {
			report.TotalMinutes += a.WorkMinutes
			report.Workdays++
		}
	}

	if len(slots) == 0 {
		slots = worktime.DefaultSlotBands()
	}
	report.Groups, err = worktime.Group(records, mode, slots)
	if err != nil {
		return nil, err
	}
	return report, nil
}

// =============================================================================
// RETENTION
// =============================================================================

// PurgeOlderThan removes schedules, requests and attendance older than the
// given number of months.
func (s *Service) PurgeOlderThan(ctx context.Context, months int) (int64, error) {
	if months <= 0 {
		months = DefaultRetentionMonths
	}
	cutoff := s.now().UTC().AddDate(0, -months, 0)
	return s.store.PurgeBefore(ctx, cutoff)
}

// =============================================================================
// HELPERS
// =============================================================================

type nameIndex map[string]string

func (n nameIndex) lookup(number string) string {
	if name, ok := n[number]; ok && name != "" {
		return name
	}
	return "#" + number
}

func (s *Service) names(ctx context.Context) (nameIndex, error) {
	emps, err := s.store.ListEmployees(ctx)
	if err != nil {
		return nil, err
	}
	idx := make(nameIndex, len(emps))
	for _, e := range emps {
		idx[e.Number] = e.Name
	}
	return idx, nil
}

func parseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return d, nil
}

func validatePeriod(p string) error {
	if _, err := time.Parse("2006-01", p); err == nil {
		return nil
	}
	if _, err := time.Parse(DateLayout, p); err == nil {
		return nil
	}
	return fmt.Errorf("%w: period %q", ErrInvalidDate, p)
}
