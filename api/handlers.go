/*
handlers.go - HTTP API handlers for shift scheduling and attendance

PURPOSE:
  Exposes the roster workflows and the worktime calculator via REST API.
  Handles HTTP request/response, JSON serialization, and delegates to
  roster.Service.

ENDPOINTS:
  Calculator:
    POST   /api/calc/worked                 Worked minutes for one shift
    POST   /api/calc/allocate               Minutes per reporting band

  Staff:
    POST   /api/shift-requests              Submit desired shifts
    PUT    /api/shift-requests              Edit requests not yet scheduled
    GET    /api/employees/{number}/shift-requests?name=
                                            Requests still editable
    GET    /api/employees/{number}/hours    Own hours (?year=&month=&mode=&slot=)
    GET    /api/schedule?date=              Final schedule of a day
                                            (&coverage=1 adds hourly staffing)

  Manager (basic auth):
    GET    /api/admin/employees             List staff
    POST   /api/admin/employees             Register staff
    DELETE /api/admin/employees/{number}    Remove staff
    GET    /api/admin/shift-requests        Desired shifts (?from=&to=)
    PUT    /api/admin/schedule              Finalize schedule
    GET    /api/admin/attendance?date=      Attendance sheet
    PUT    /api/admin/attendance            Save attendance sheet
    GET    /api/admin/bands                 Reporting bands
    PUT    /api/admin/bands                 Replace reporting bands
    GET    /api/admin/summary               Totals (?period=&employee=)
    POST   /api/admin/purge                 Run retention now

REQUEST FLOW:
  1. Parse HTTP request
  2. Call roster.Service (validation happens there)
  3. Serialize response
  4. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 403: Employee number and name do not match
  - 404: Resource not found
  - 409: Conflict (duplicate employee number, shift already finalized)
  - 500: Internal errors (logged)

SEE ALSO:
  - dto.go: Request/response data structures
  - auth.go: Manager authentication
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/warp/shift-engine/roster"
	"github.com/warp/shift-engine/worktime"
	"go.uber.org/zap"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service         *roster.Service
	Log             *zap.Logger
	RetentionMonths int

	now func() time.Time
}

// NewHandler creates a new handler around the roster service.
func NewHandler(svc *roster.Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		Service:         svc,
		Log:             log,
		RetentionMonths: roster.DefaultRetentionMonths,
		now:             time.Now,
	}
}

// =============================================================================
// CALCULATOR HANDLERS
// =============================================================================

// CalcWorked returns worked minutes for a single shift.
func (h *Handler) CalcWorked(w http.ResponseWriter, r *http.Request) {
	var req CalcRequest
	if !decode(w, r, &req) {
		return
	}

	iv, err := worktime.NewShiftInterval(req.Start, req.End, req.BreakMinutes)
	if err != nil {
		h.writeServiceError(w, r, "Invalid shift", err)
		return
	}

	worked := worktime.WorkedMinutes(iv)
	resp := WorkedResponse{
		WorkedMinutes: worked,
		Hours:         worktime.Hours(worked).StringFixed(2),
		Display:       worktime.FormatMinutes(worked),
	}
	if !iv.IsEmpty() {
		resp.Extended = worktime.FormatExtended(*iv.Start, *iv.End)
	}
	writeJSON(w, http.StatusOK, resp)
}

// CalcAllocate splits a shift across bands. Without bands in the body the
// configured reporting bands are used.
func (h *Handler) CalcAllocate(w http.ResponseWriter, r *http.Request) {
	var req CalcRequest
	if !decode(w, r, &req) {
		return
	}

	iv, err := worktime.NewShiftInterval(req.Start, req.End, req.BreakMinutes)
	if err != nil {
		h.writeServiceError(w, r, "Invalid shift", err)
		return
	}

	var bands []worktime.Band
	if len(req.Bands) > 0 {
		bands, err = fromBandDTOs(req.Bands)
	} else {
		bands, err = h.Service.Bands(r.Context())
	}
	if err != nil {
		h.writeServiceError(w, r, "Invalid bands", err)
		return
	}

	alloc := worktime.AllocateToBands(iv, bands)
	resp := AllocateResponse{
		WorkedMinutes: worktime.WorkedMinutes(iv),
		Allocated:     alloc.Total(),
		Bands:         make([]AllocationDTO, len(bands)),
	}
	for i, b := range toBandDTOs(bands) {
		resp.Bands[i] = AllocationDTO{BandDTO: b, Minutes: alloc[b.Label]}
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// STAFF HANDLERS
// =============================================================================

// SubmitShiftRequests records desired shifts for a period.
func (h *Handler) SubmitShiftRequests(w http.ResponseWriter, r *http.Request) {
	var req SubmitShiftRequestsRequest
	if !decode(w, r, &req) {
		return
	}

	shifts := make([]roster.DesiredShift, len(req.Shifts))
	for i, s := range req.Shifts {
		shifts[i] = roster.DesiredShift{Date: s.Date, Start: s.Start, End: s.End, Location: s.Store, Remarks: s.Remarks}
	}

	saved, err := h.Service.SubmitShiftRequests(r.Context(), req.EmployeeNumber, req.From, req.To, shifts)
	if err != nil {
		h.writeServiceError(w, r, "Failed to submit shift requests", err)
		return
	}
	writeJSON(w, http.StatusCreated, toShiftRequestDTOs(saved))
}

// ListPendingShiftRequests returns the caller's requests that can still be
// edited. ?name= must match the employee.
func (h *Handler) ListPendingShiftRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.Service.PendingShiftRequests(r.Context(), chi.URLParam(r, "number"), r.URL.Query().Get("name"))
	if err != nil {
		h.writeServiceError(w, r, "Failed to list shift requests", err)
		return
	}
	writeJSON(w, http.StatusOK, toShiftRequestDTOs(reqs))
}

// EditShiftRequests changes times and store of requests not yet scheduled.
func (h *Handler) EditShiftRequests(w http.ResponseWriter, r *http.Request) {
	var req EditShiftRequestsRequest
	if !decode(w, r, &req) {
		return
	}

	edits := make([]roster.ShiftRequestEdit, len(req.Shifts))
	for i, s := range req.Shifts {
		edits[i] = roster.ShiftRequestEdit{ID: s.ID, Start: s.Start, End: s.End, Location: s.Store}
	}

	saved, err := h.Service.EditShiftRequests(r.Context(), req.EmployeeNumber, req.Name, edits)
	if err != nil {
		h.writeServiceError(w, r, "Failed to edit shift requests", err)
		return
	}
	writeJSON(w, http.StatusOK, toShiftRequestDTOs(saved))
}

// GetEmployeeHours returns an employee's grouped hours. year and month
// default to the current month; month=0 covers the whole year. Repeated
// ?slot=label=HH:MM-HH:MM replaces the default time slots.
func (h *Handler) GetEmployeeHours(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	now := h.now()

	year, err := intParam(r, "year", now.Year())
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}
	month, err := intParam(r, "month", int(now.Month()))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month", err)
		return
	}
	mode, err := worktime.ParseGroupMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid mode", err)
		return
	}

	var slots []worktime.Band
	for _, spec := range r.URL.Query()["slot"] {
		b, err := worktime.ParseBandSpec(spec)
		if err != nil {
			h.writeServiceError(w, r, "Invalid slot", err)
			return
		}
		slots = append(slots, b)
	}

	report, err := h.Service.EmployeeHours(r.Context(), number, year, month, mode, slots)
	if err != nil {
		h.writeServiceError(w, r, "Failed to load hours", err)
		return
	}

	dto := HoursReportDTO{
		Employee:     toEmployeeDTO(report.Employee),
		Year:         year,
		Month:        month,
		Mode:         string(mode),
		TotalMinutes: report.TotalMinutes,
		TotalHours:   worktime.Hours(report.TotalMinutes).StringFixed(2),
		TotalSalary:  salary(report.TotalSalary),
		Workdays:     report.Workdays,
		Groups:       make([]GroupDTO, len(report.Groups)),
	}
	for i, g := range report.Groups {
		dto.Groups[i] = toGroupDTO(g)
	}
	writeJSON(w, http.StatusOK, dto)
}

// GetSchedule returns the final schedule for ?date=. With ?coverage=1 the
// response is a ScheduleResponse carrying the hourly staffing timeline.
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	shifts, err := h.Service.Schedule(r.Context(), date)
	if err != nil {
		h.writeServiceError(w, r, "Failed to load schedule", err)
		return
	}

	dtos := make([]FinalShiftDTO, len(shifts))
	for i, f := range shifts {
		dtos[i] = toFinalShiftDTO(f)
	}
	if r.URL.Query().Get("coverage") != "1" {
		writeJSON(w, http.StatusOK, dtos)
		return
	}

	hours, err := h.Service.Coverage(r.Context(), date)
	if err != nil {
		h.writeServiceError(w, r, "Failed to build coverage", err)
		return
	}
	writeJSON(w, http.StatusOK, ScheduleResponse{Date: date, Shifts: dtos, Coverage: toCoverageDTOs(hours)})
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Service.Employees(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateEmployee registers a new employee.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if !decode(w, r, &req) {
		return
	}

	emp, err := h.Service.RegisterEmployee(r.Context(), req.Number, req.Name)
	if err != nil {
		h.writeServiceError(w, r, "Failed to create employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// DeleteEmployee removes an employee by number.
func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.RemoveEmployee(r.Context(), chi.URLParam(r, "number")); err != nil {
		h.writeServiceError(w, r, "Failed to delete employee", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// SCHEDULE HANDLERS
// =============================================================================

// ListShiftRequests returns desired shifts for ?from=&to=.
func (h *Handler) ListShiftRequests(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	reqs, err := h.Service.ShiftRequests(r.Context(), q.Get("from"), q.Get("to"))
	if err != nil {
		h.writeServiceError(w, r, "Failed to list shift requests", err)
		return
	}
	writeJSON(w, http.StatusOK, toShiftRequestDTOs(reqs))
}

// FinalizeSchedule upserts the final schedule.
func (h *Handler) FinalizeSchedule(w http.ResponseWriter, r *http.Request) {
	var req FinalizeScheduleRequest
	if !decode(w, r, &req) {
		return
	}

	shifts := make([]roster.FinalShift, len(req.Shifts))
	for i, d := range req.Shifts {
		f, err := fromFinalShiftDTO(i, d)
		if err != nil {
			h.writeServiceError(w, r, "Invalid shift", err)
			return
		}
		shifts[i] = f
	}

	saved, err := h.Service.FinalizeSchedule(r.Context(), shifts)
	if err != nil {
		h.writeServiceError(w, r, "Failed to save schedule", err)
		return
	}

	dtos := make([]FinalShiftDTO, len(saved))
	for i, f := range saved {
		dtos[i] = toFinalShiftDTO(f)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// ATTENDANCE HANDLERS
// =============================================================================

// GetAttendanceSheet returns the merged sheet for ?date=.
func (h *Handler) GetAttendanceSheet(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Service.AttendanceSheet(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		h.writeServiceError(w, r, "Failed to load attendance", err)
		return
	}

	dtos := make([]SheetRowDTO, len(rows))
	for i, row := range rows {
		dtos[i] = toSheetRowDTO(row)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// RecordAttendance saves the attendance sheet for a date.
func (h *Handler) RecordAttendance(w http.ResponseWriter, r *http.Request) {
	var req RecordAttendanceRequest
	if !decode(w, r, &req) {
		return
	}

	entries := make([]roster.AttendanceEntry, len(req.Entries))
	for i, e := range req.Entries {
		entries[i] = roster.AttendanceEntry{
			EmployeeNumber: e.EmployeeNumber,
			ActualStart:    e.ActualStart,
			ActualEnd:      e.ActualEnd,
			BreakMinutes:   e.BreakMinutes,
			Location:       e.Store,
			Salary:         e.Salary,
		}
	}

	saved, err := h.Service.RecordAttendance(r.Context(), req.Date, entries)
	if err != nil {
		h.writeServiceError(w, r, "Failed to save attendance", err)
		return
	}

	dtos := make([]AttendanceDTO, len(saved))
	for i, a := range saved {
		dtos[i] = toAttendanceDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// BAND & SUMMARY HANDLERS
// =============================================================================

// GetBands returns the reporting bands.
func (h *Handler) GetBands(w http.ResponseWriter, r *http.Request) {
	bands, err := h.Service.Bands(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "Failed to load bands", err)
		return
	}
	writeJSON(w, http.StatusOK, toBandDTOs(bands))
}

// SaveBands replaces the reporting bands.
func (h *Handler) SaveBands(w http.ResponseWriter, r *http.Request) {
	var req []BandDTO
	if !decode(w, r, &req) {
		return
	}

	bands, err := fromBandDTOs(req)
	if err != nil {
		h.writeServiceError(w, r, "Invalid bands", err)
		return
	}
	saved, err := h.Service.SaveBands(r.Context(), bands)
	if err != nil {
		h.writeServiceError(w, r, "Failed to save bands", err)
		return
	}
	writeJSON(w, http.StatusOK, toBandDTOs(saved))
}

// GetSummary totals attendance for ?period= (YYYY-MM or YYYY-MM-DD,
// default the current month) and optional ?employee=.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	period := q.Get("period")
	if period == "" {
		period = h.now().Format("2006-01")
	}

	rows, bands, err := h.Service.Summary(r.Context(), roster.Filter{
		Period:         period,
		EmployeeNumber: q.Get("employee"),
	})
	if err != nil {
		h.writeServiceError(w, r, "Failed to build summary", err)
		return
	}

	resp := SummaryResponse{
		Period: period,
		Bands:  toBandDTOs(bands),
		Rows:   make([]SummaryRowDTO, len(rows)),
	}
	for i, row := range rows {
		resp.Rows[i] = SummaryRowDTO{
			EmployeeNumber: row.EmployeeNumber,
			Name:           row.Name,
			TotalMinutes:   row.TotalMinutes,
			TotalHours:     worktime.Hours(row.TotalMinutes).StringFixed(2),
			Workdays:       row.Workdays,
			Bands:          row.Bands,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Purge runs the retention purge immediately.
func (h *Handler) Purge(w http.ResponseWriter, r *http.Request) {
	removed, err := h.Service.PurgeOlderThan(r.Context(), h.RetentionMonths)
	if err != nil {
		h.writeServiceError(w, r, "Failed to purge", err)
		return
	}
	h.Log.Info("manual purge", zap.Int64("removed", removed), zap.Int("retention_months", h.RetentionMonths))
	writeJSON(w, http.StatusOK, PurgeResponse{Removed: removed, RetentionMonths: h.RetentionMonths})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeServiceError maps roster and worktime errors to a status code.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, message string, err error) {
	switch {
	case roster.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	case roster.IsForbidden(err):
		writeError(w, http.StatusForbidden, message, err)
	case roster.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case roster.IsConflict(err):
		writeError(w, http.StatusConflict, message, err)
	default:
		h.Log.Error(message,
			zap.Error(err),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
		writeError(w, http.StatusInternalServerError, message, nil)
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
