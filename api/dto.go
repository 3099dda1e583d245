/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the roster and worktime types from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TIMES:
  Times of day are "HH:MM" strings, "" when absent. Dates are "YYYY-MM-DD".
  The location of a shift is exposed as "store" to match existing clients.

VALIDATION:
  Validation is done by roster and worktime, not in DTOs. DTOs are pure data
  carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/shift-engine/roster"
	"github.com/warp/shift-engine/worktime"
)

// =============================================================================
// CALCULATOR
// =============================================================================

// CalcRequest is the body of the calculator endpoints.
type CalcRequest struct {
	Start        string    `json:"start"`
	End          string    `json:"end"`
	BreakMinutes int       `json:"break_minutes"`
	Bands        []BandDTO `json:"bands,omitempty"`
}

// WorkedResponse is the result of POST /api/calc/worked.
type WorkedResponse struct {
	WorkedMinutes int    `json:"worked_minutes"`
	Hours         string `json:"hours"`
	Display       string `json:"display"`
	Extended      string `json:"extended,omitempty"`
}

// AllocationDTO is the minutes attributed to one band.
type AllocationDTO struct {
	BandDTO
	Minutes int `json:"minutes"`
}

// AllocateResponse is the result of POST /api/calc/allocate.
type AllocateResponse struct {
	WorkedMinutes int             `json:"worked_minutes"`
	Allocated     int             `json:"allocated_minutes"`
	Bands         []AllocationDTO `json:"bands"`
}

// BandDTO is a reporting band.
type BandDTO struct {
	Label string `json:"label"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID        string `json:"id"`
	Number    string `json:"number"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at,omitempty"`
}

// CreateEmployeeRequest is the request to register an employee.
type CreateEmployeeRequest struct {
	Number string `json:"number"`
	Name   string `json:"name"`
}

// =============================================================================
// SHIFT REQUESTS
// =============================================================================

// DesiredShiftDTO is one desired day in a submission.
type DesiredShiftDTO struct {
	Date    string `json:"date"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Store   string `json:"store,omitempty"`
	Remarks string `json:"remarks,omitempty"`
}

// SubmitShiftRequestsRequest submits desired shifts for a period.
type SubmitShiftRequestsRequest struct {
	EmployeeNumber string            `json:"employee_number"`
	From           string            `json:"from"`
	To             string            `json:"to"`
	Shifts         []DesiredShiftDTO `json:"shifts"`
}

// ShiftRequestDTO represents a stored shift request.
type ShiftRequestDTO struct {
	ID             string `json:"id,omitempty"`
	EmployeeNumber string `json:"employee_number"`
	Date           string `json:"date"`
	Start          string `json:"start"`
	End            string `json:"end"`
	Store          string `json:"store,omitempty"`
	Remarks        string `json:"remarks,omitempty"`
	CreatedAt      string `json:"created_at"`
}

// ShiftRequestEditDTO changes one submitted request.
type ShiftRequestEditDTO struct {
	ID    string `json:"id"`
	Start string `json:"start"`
	End   string `json:"end"`
	Store string `json:"store"`
}

// EditShiftRequestsRequest edits requests not yet on the final schedule.
// Number and name must match the registered employee.
type EditShiftRequestsRequest struct {
	EmployeeNumber string                `json:"employee_number"`
	Name           string                `json:"name"`
	Shifts         []ShiftRequestEditDTO `json:"shifts"`
}

// =============================================================================
// SCHEDULE & ATTENDANCE
// =============================================================================

// FinalShiftDTO is one scheduled shift.
type FinalShiftDTO struct {
	Date           string `json:"date"`
	EmployeeNumber string `json:"employee_number"`
	Start          string `json:"start"`
	End            string `json:"end"`
	Store          string `json:"store"`
	IsOff          bool   `json:"is_off"`
	UpdatedAt      string `json:"updated_at,omitempty"`
}

// CoverageDTO is one hour of the staffing timeline.
type CoverageDTO struct {
	Hour            int      `json:"hour"`
	Label           string   `json:"label"`
	Working         int      `json:"working"`
	EmployeeNumbers []string `json:"employee_numbers"`
}

// ScheduleResponse is GET /api/schedule with ?coverage=1.
type ScheduleResponse struct {
	Date     string          `json:"date"`
	Shifts   []FinalShiftDTO `json:"shifts"`
	Coverage []CoverageDTO   `json:"coverage"`
}

// FinalizeScheduleRequest writes the final schedule.
type FinalizeScheduleRequest struct {
	Shifts []FinalShiftDTO `json:"shifts"`
}

// AttendanceEntryDTO is one sheet row from the manager.
type AttendanceEntryDTO struct {
	EmployeeNumber string `json:"employee_number"`
	ActualStart    string `json:"actual_start"`
	ActualEnd      string `json:"actual_end"`
	BreakMinutes   int    `json:"break_minutes"`
	Store          string `json:"store"`
	// Salary accepts a JSON number or string.
	Salary decimal.Decimal `json:"salary"`
}

// RecordAttendanceRequest saves the attendance sheet for a date.
type RecordAttendanceRequest struct {
	Date    string               `json:"date"`
	Entries []AttendanceEntryDTO `json:"entries"`
}

// AttendanceDTO is a saved attendance row.
type AttendanceDTO struct {
	ID             string `json:"id,omitempty"`
	Date           string `json:"date"`
	EmployeeNumber string `json:"employee_number"`
	ActualStart    string `json:"actual_start"`
	ActualEnd      string `json:"actual_end"`
	BreakMinutes   int    `json:"break_minutes"`
	WorkMinutes    int    `json:"work_minutes"`
	Store          string `json:"store"`
	Salary         string `json:"salary,omitempty"`
}

// SheetRowDTO merges schedule and attendance for one employee.
type SheetRowDTO struct {
	EmployeeNumber string `json:"employee_number"`
	Name           string `json:"name"`
	ScheduledStart string `json:"scheduled_start"`
	ScheduledEnd   string `json:"scheduled_end"`
	ActualStart    string `json:"actual_start"`
	ActualEnd      string `json:"actual_end"`
	BreakMinutes   int    `json:"break_minutes"`
	WorkMinutes    int    `json:"work_minutes"`
	Store          string `json:"store"`
	IsOff          bool   `json:"is_off"`
	AttendanceID   string `json:"attendance_id,omitempty"`
}

// =============================================================================
// SUMMARIES
// =============================================================================

// SummaryRowDTO is one employee's totals.
type SummaryRowDTO struct {
	EmployeeNumber string         `json:"employee_number"`
	Name           string         `json:"name"`
	TotalMinutes   int            `json:"total_minutes"`
	TotalHours     string         `json:"total_hours"`
	Workdays       int            `json:"workdays"`
	Bands          map[string]int `json:"bands"`
}

// SummaryResponse is the manager summary for a period.
type SummaryResponse struct {
	Period string          `json:"period"`
	Bands  []BandDTO       `json:"bands"`
	Rows   []SummaryRowDTO `json:"rows"`
}

// RecordDTO is one worked day inside a group.
type RecordDTO struct {
	Date         string `json:"date"`
	Start        string `json:"start"`
	End          string `json:"end"`
	BreakMinutes int    `json:"break_minutes"`
	WorkMinutes  int    `json:"work_minutes"`
	Salary       string `json:"salary,omitempty"`
}

// GroupDTO is one bucket of an hours report.
type GroupDTO struct {
	Key          string      `json:"key"`
	TotalMinutes int         `json:"total_minutes"`
	Display      string      `json:"display"`
	TotalSalary  string      `json:"total_salary,omitempty"`
	Workdays     int         `json:"workdays"`
	Records      []RecordDTO `json:"records"`
}

// HoursReportDTO is an employee's view of their hours.
type HoursReportDTO struct {
	Employee     EmployeeDTO `json:"employee"`
	Year         int         `json:"year"`
	Month        int         `json:"month,omitempty"`
	Mode         string      `json:"mode"`
	TotalMinutes int         `json:"total_minutes"`
	TotalHours   string      `json:"total_hours"`
	TotalSalary  string      `json:"total_salary,omitempty"`
	Workdays     int         `json:"workdays"`
	Groups       []GroupDTO  `json:"groups"`
}

// PurgeResponse reports a retention purge.
type PurgeResponse struct {
	Removed         int64 `json:"removed"`
	RetentionMonths int   `json:"retention_months"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func clock(t *worktime.TimeOfDay) string {
	if t == nil {
		return ""
	}
	return t.String()
}

// salary renders an amount, "" when none was recorded.
func salary(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

func toEmployeeDTO(e roster.Employee) EmployeeDTO {
	dto := EmployeeDTO{ID: e.ID, Number: e.Number, Name: e.Name}
	if !e.CreatedAt.IsZero() {
		dto.CreatedAt = e.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

func toBandDTOs(bands []worktime.Band) []BandDTO {
	out := make([]BandDTO, len(bands))
	for i, b := range bands {
		out[i] = BandDTO{Label: b.Label, Start: b.Start.String(), End: b.End.String()}
	}
	return out
}

func fromBandDTOs(dtos []BandDTO) ([]worktime.Band, error) {
	out := make([]worktime.Band, len(dtos))
	for i, d := range dtos {
		b, err := worktime.ParseBand(d.Label, d.Start, d.End)
		if err != nil {
			return nil, &roster.FieldError{Row: i, Field: "bands", Err: err}
		}
		out[i] = b
	}
	return out, nil
}

func toShiftRequestDTO(r roster.ShiftRequest) ShiftRequestDTO {
	return ShiftRequestDTO{
		ID:             r.ID,
		EmployeeNumber: r.EmployeeNumber,
		Date:           r.Date,
		Start:          clock(r.Start),
		End:            clock(r.End),
		Store:          r.Location,
		Remarks:        r.Remarks,
		CreatedAt:      r.CreatedAt.Format(time.RFC3339),
	}
}

func toShiftRequestDTOs(reqs []roster.ShiftRequest) []ShiftRequestDTO {
	out := make([]ShiftRequestDTO, len(reqs))
	for i, r := range reqs {
		out[i] = toShiftRequestDTO(r)
	}
	return out
}

func toFinalShiftDTO(f roster.FinalShift) FinalShiftDTO {
	dto := FinalShiftDTO{
		Date:           f.Date,
		EmployeeNumber: f.EmployeeNumber,
		Start:          clock(f.Start),
		End:            clock(f.End),
		Store:          f.Location,
		IsOff:          f.IsOff,
	}
	if !f.UpdatedAt.IsZero() {
		dto.UpdatedAt = f.UpdatedAt.Format(time.RFC3339)
	}
	return dto
}

func fromFinalShiftDTO(row int, d FinalShiftDTO) (roster.FinalShift, error) {
	iv, err := worktime.NewShiftInterval(d.Start, d.End, 0)
	if err != nil {
		return roster.FinalShift{}, &roster.FieldError{Row: row, Field: "time", Err: err}
	}
	return roster.FinalShift{
		Date:           d.Date,
		EmployeeNumber: d.EmployeeNumber,
		Start:          iv.Start,
		End:            iv.End,
		Location:       d.Store,
		IsOff:          d.IsOff,
	}, nil
}

func toAttendanceDTO(a roster.Attendance) AttendanceDTO {
	return AttendanceDTO{
		ID:             a.ID,
		Date:           a.Date,
		EmployeeNumber: a.EmployeeNumber,
		ActualStart:    clock(a.ActualStart),
		ActualEnd:      clock(a.ActualEnd),
		BreakMinutes:   a.BreakMinutes,
		WorkMinutes:    a.WorkMinutes,
		Store:          a.Location,
		Salary:         salary(a.Salary),
	}
}

func toSheetRowDTO(r roster.SheetRow) SheetRowDTO {
	return SheetRowDTO{
		EmployeeNumber: r.EmployeeNumber,
		Name:           r.Name,
		ScheduledStart: clock(r.ScheduledStart),
		ScheduledEnd:   clock(r.ScheduledEnd),
		ActualStart:    clock(r.ActualStart),
		ActualEnd:      clock(r.ActualEnd),
		BreakMinutes:   r.BreakMinutes,
		WorkMinutes:    r.WorkMinutes,
		Store:          r.Location,
		IsOff:          r.IsOff,
		AttendanceID:   r.AttendanceID,
	}
}

func toGroupDTO(g worktime.RecordGroup) GroupDTO {
	dto := GroupDTO{
		Key:          g.Key,
		TotalMinutes: g.TotalMinutes,
		Display:      worktime.FormatMinutes(g.TotalMinutes),
		TotalSalary:  salary(g.TotalSalary),
		Workdays:     g.Workdays,
		Records:      make([]RecordDTO, len(g.Records)),
	}
	for i, r := range g.Records {
		dto.Records[i] = RecordDTO{
			Date:         r.Date,
			Start:        clock(r.Interval.Start),
			End:          clock(r.Interval.End),
			BreakMinutes: r.Interval.BreakMinutes,
			WorkMinutes:  r.WorkMinutes,
			Salary:       salary(r.Salary),
		}
	}
	return dto
}

func toCoverageDTOs(hours []roster.HourCoverage) []CoverageDTO {
	out := make([]CoverageDTO, len(hours))
	for i, h := range hours {
		out[i] = CoverageDTO{Hour: h.Hour, Label: h.Label, Working: len(h.EmployeeNumbers), EmployeeNumbers: h.EmployeeNumbers}
	}
	return out
}
