/*
Package sqlite provides a SQLite-backed implementation of roster.Store.

PURPOSE:
  Persists employees, desired shifts, the final schedule, attendance and the
  reporting band configuration. The same schema runs on a file database in
  production and on ":memory:" in tests.

KEY TABLES:
  employees:       staff, unique employee number
  shift_requests:  desired shifts, times and location editable
  final_shifts:    schedule, UNIQUE(date, employee_number)
  attendance:      actual times, UNIQUE(date, employee_number)
  bands:           reporting bands, ordered by position

TIME COLUMNS:
  Times are stored as "HH:MM" TEXT, NULL when absent. Dates are "YYYY-MM-DD"
  TEXT so range and prefix queries work on plain string comparison.

UPSERTS:
  final_shifts and attendance use ON CONFLICT(date, employee_number) DO
  UPDATE. There is no version column; the last write wins.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of SQLite's own locking.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) so readers don't block
  the single writer.

USAGE:
  store, err := sqlite.New("./data/shifts.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()
  svc := roster.NewService(store)

SEE ALSO:
  - roster/store.go: Interface definition
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/shift-engine/roster"
	"github.com/warp/shift-engine/worktime"
)

// Store implements roster.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ roster.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Each new connection to :memory: is a separate, empty database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		number TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Desired shifts (append-only)
	CREATE TABLE IF NOT EXISTS shift_requests (
		id TEXT PRIMARY KEY,
		employee_number TEXT NOT NULL,
		date TEXT NOT NULL,
		start_time TEXT,
		end_time TEXT,
		location TEXT NOT NULL DEFAULT '',
		remarks TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_shift_requests_date
		ON shift_requests(date, employee_number);

	-- Final schedule: one row per employee per day
	CREATE TABLE IF NOT EXISTS final_shifts (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		employee_number TEXT NOT NULL,
		start_time TEXT,
		end_time TEXT,
		location TEXT NOT NULL DEFAULT '',
		is_off BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at TEXT NOT NULL,
		UNIQUE(date, employee_number)
	);

	-- Attendance: one row per employee per day
	CREATE TABLE IF NOT EXISTS attendance (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		employee_number TEXT NOT NULL,
		actual_start TEXT,
		actual_end TEXT,
		break_minutes INTEGER NOT NULL DEFAULT 0,
		work_minutes INTEGER NOT NULL DEFAULT 0,
		location TEXT NOT NULL DEFAULT '',
		salary TEXT NOT NULL DEFAULT '0',
		updated_at TEXT NOT NULL,
		UNIQUE(date, employee_number)
	);

	CREATE INDEX IF NOT EXISTS idx_attendance_employee_date
		ON attendance(employee_number, date DESC);

	-- Reporting bands
	CREATE TABLE IF NOT EXISTS bands (
		position INTEGER PRIMARY KEY,
		label TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// SaveEmployee inserts or renames an employee.
func (s *Store) SaveEmployee(ctx context.Context, emp roster.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if emp.ID == "" {
		emp.ID = uuid.NewString()
	}
	if emp.CreatedAt.IsZero() {
		emp.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO employees (id, number, name, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(number) DO UPDATE SET
			name = excluded.name
	`
	_, err := s.db.ExecContext(ctx, query, emp.ID, emp.Number, emp.Name, emp.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}

// GetEmployee retrieves an employee by number. Returns (nil, nil) if missing.
func (s *Store) GetEmployee(ctx context.Context, number string) (*roster.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var emp roster.Employee
	var createdAt string

	err := s.db.QueryRowContext(ctx,
		"SELECT id, number, name, created_at FROM employees WHERE number = ?",
		number,
	).Scan(&emp.ID, &emp.Number, &emp.Name, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	emp.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &emp, nil
}

// ListEmployees returns all employees ordered by name.
func (s *Store) ListEmployees(ctx context.Context) ([]roster.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, number, name, created_at FROM employees ORDER BY name, number",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []roster.Employee
	for rows.Next() {
		var emp roster.Employee
		var createdAt string
		if err := rows.Scan(&emp.ID, &emp.Number, &emp.Name, &createdAt); err != nil {
			return nil, err
		}
		emp.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

// DeleteEmployee removes an employee. Their schedule and attendance are kept.
func (s *Store) DeleteEmployee(ctx context.Context, number string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM employees WHERE number = ?", number)
	return err
}

// =============================================================================
// SHIFT REQUESTS
// =============================================================================

// AppendShiftRequests inserts requests atomically.
func (s *Store) AppendShiftRequests(ctx context.Context, reqs []roster.ShiftRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inTx(ctx, func(tx execer) error {
		for _, r := range reqs {
			if r.ID == "" {
				r.ID = uuid.NewString()
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO shift_requests (id, employee_number, date, start_time, end_time, location, remarks, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`, r.ID, r.EmployeeNumber, r.Date, nullTime(r.Start), nullTime(r.End), r.Location, r.Remarks, formatTimestamp(r.CreatedAt))
			if err != nil {
				return fmt.Errorf("failed to append shift request: %w", err)
			}
		}
		return nil
	})
}

const shiftRequestColumns = `id, employee_number, date, start_time, end_time, location, remarks, created_at`

// ListShiftRequests returns requests dated within [from, to].
func (s *Store) ListShiftRequests(ctx context.Context, from, to string) ([]roster.ShiftRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryShiftRequests(ctx, `
		SELECT `+shiftRequestColumns+`
		FROM shift_requests
		WHERE date >= ? AND date <= ?
		ORDER BY date ASC, employee_number ASC, created_at ASC
	`, from, to)
}

// GetShiftRequest retrieves a request by ID. Returns (nil, nil) if missing.
func (s *Store) GetShiftRequest(ctx context.Context, id string) (*roster.ShiftRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reqs, err := s.queryShiftRequests(ctx, "SELECT "+shiftRequestColumns+" FROM shift_requests WHERE id = ?", id)
	if err != nil || len(reqs) == 0 {
		return nil, err
	}
	return &reqs[0], nil
}

// ListPendingShiftRequests returns an employee's requests for dates that have
// no final shift for them.
func (s *Store) ListPendingShiftRequests(ctx context.Context, employeeNumber string) ([]roster.ShiftRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryShiftRequests(ctx, `
		SELECT `+shiftRequestColumns+`
		FROM shift_requests r
		WHERE r.employee_number = ?
		  AND NOT EXISTS (
			SELECT 1 FROM final_shifts f
			WHERE f.date = r.date AND f.employee_number = r.employee_number
		  )
		ORDER BY r.date ASC, r.created_at ASC
	`, employeeNumber)
}

// UpdateShiftRequests rewrites times and location atomically.
func (s *Store) UpdateShiftRequests(ctx context.Context, reqs []roster.ShiftRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inTx(ctx, func(tx execer) error {
		for _, r := range reqs {
			res, err := tx.ExecContext(ctx,
				"UPDATE shift_requests SET start_time = ?, end_time = ?, location = ? WHERE id = ?",
				nullTime(r.Start), nullTime(r.End), r.Location, r.ID)
			if err != nil {
				return fmt.Errorf("failed to update shift request: %w", err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return fmt.Errorf("%w: %s", roster.ErrRequestNotFound, r.ID)
			}
		}
		return nil
	})
}

func (s *Store) queryShiftRequests(ctx context.Context, query string, args ...any) ([]roster.ShiftRequest, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query shift requests: %w", err)
	}
	defer rows.Close()

	var out []roster.ShiftRequest
	for rows.Next() {
		var (
			r          roster.ShiftRequest
			start, end sql.NullString
			remarks    sql.NullString
			createdAt  string
		)
		if err := rows.Scan(&r.ID, &r.EmployeeNumber, &r.Date, &start, &end, &r.Location, &remarks, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan shift request: %w", err)
		}
		if r.Start, err = scanTime(start); err != nil {
			return nil, err
		}
		if r.End, err = scanTime(end); err != nil {
			return nil, err
		}
		r.Remarks = remarks.String
		r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, r)
	}
	return out, rows.Err()
}

// =============================================================================
// FINAL SCHEDULE
// =============================================================================

// UpsertFinalShifts writes schedule rows atomically.
func (s *Store) UpsertFinalShifts(ctx context.Context, shifts []roster.FinalShift) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO final_shifts (id, date, employee_number, start_time, end_time, location, is_off, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date, employee_number) DO UPDATE SET
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			location = excluded.location,
			is_off = excluded.is_off,
			updated_at = excluded.updated_at
	`

	return s.inTx(ctx, func(tx execer) error {
		for _, f := range shifts {
			_, err := tx.ExecContext(ctx, query,
				uuid.NewString(), f.Date, f.EmployeeNumber,
				nullTime(f.Start), nullTime(f.End),
				f.Location, f.IsOff, formatTimestamp(f.UpdatedAt),
			)
			if err != nil {
				return fmt.Errorf("failed to upsert final shift: %w", err)
			}
		}
		return nil
	})
}

// ListFinalShifts returns the schedule for a date ordered by employee number.
func (s *Store) ListFinalShifts(ctx context.Context, date string) ([]roster.FinalShift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT date, employee_number, start_time, end_time, location, is_off, updated_at
		FROM final_shifts
		WHERE date = ?
		ORDER BY employee_number
	`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query final shifts: %w", err)
	}
	defer rows.Close()

	var out []roster.FinalShift
	for rows.Next() {
		var (
			f          roster.FinalShift
			start, end sql.NullString
			updatedAt  string
		)
		if err := rows.Scan(&f.Date, &f.EmployeeNumber, &start, &end, &f.Location, &f.IsOff, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan final shift: %w", err)
		}
		if f.Start, err = scanTime(start); err != nil {
			return nil, err
		}
		if f.End, err = scanTime(end); err != nil {
			return nil, err
		}
		f.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		out = append(out, f)
	}
	return out, rows.Err()
}

// ScheduledDates returns distinct dates with a final schedule, ascending.
func (s *Store) ScheduledDates(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT date FROM final_shifts ORDER BY date")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// =============================================================================
// ATTENDANCE
// =============================================================================

// UpsertAttendance writes attendance rows atomically.
func (s *Store) UpsertAttendance(ctx context.Context, recs []roster.Attendance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO attendance (id, date, employee_number, actual_start, actual_end,
			break_minutes, work_minutes, location, salary, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date, employee_number) DO UPDATE SET
			actual_start = excluded.actual_start,
			actual_end = excluded.actual_end,
			break_minutes = excluded.break_minutes,
			work_minutes = excluded.work_minutes,
			location = excluded.location,
			salary = excluded.salary,
			updated_at = excluded.updated_at
	`

	return s.inTx(ctx, func(tx execer) error {
		for _, a := range recs {
			if a.ID == "" {
				a.ID = uuid.NewString()
			}
			_, err := tx.ExecContext(ctx, query,
				a.ID, a.Date, a.EmployeeNumber,
				nullTime(a.ActualStart), nullTime(a.ActualEnd),
				a.BreakMinutes, a.WorkMinutes, a.Location, a.Salary.String(), formatTimestamp(a.UpdatedAt),
			)
			if err != nil {
				return fmt.Errorf("failed to upsert attendance: %w", err)
			}
		}
		return nil
	})
}

const attendanceColumns = `id, date, employee_number, actual_start, actual_end,
	break_minutes, work_minutes, location, salary, updated_at`

// ListAttendanceByDate returns attendance for one date.
func (s *Store) ListAttendanceByDate(ctx context.Context, date string) ([]roster.Attendance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryAttendance(ctx,
		"SELECT "+attendanceColumns+" FROM attendance WHERE date = ? ORDER BY employee_number",
		date)
}

// ListAttendance returns attendance whose date starts with prefix, newest first.
func (s *Store) ListAttendance(ctx context.Context, prefix, employeeNumber string) ([]roster.Attendance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT " + attendanceColumns + " FROM attendance WHERE date LIKE ? ESCAPE '\\'"
	args := []any{escapeLike(prefix) + "%"}
	if employeeNumber != "" {
		query += " AND employee_number = ?"
		args = append(args, employeeNumber)
	}
	query += " ORDER BY date DESC, employee_number ASC"

	return s.queryAttendance(ctx, query, args...)
}

func (s *Store) queryAttendance(ctx context.Context, query string, args ...any) ([]roster.Attendance, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance: %w", err)
	}
	defer rows.Close()

	var out []roster.Attendance
	for rows.Next() {
		var (
			a          roster.Attendance
			start, end sql.NullString
			salary     string
			updatedAt  string
		)
		err := rows.Scan(&a.ID, &a.Date, &a.EmployeeNumber, &start, &end,
			&a.BreakMinutes, &a.WorkMinutes, &a.Location, &salary, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		if a.Salary, err = decimal.NewFromString(salary); err != nil {
			return nil, fmt.Errorf("corrupt salary %q: %w", salary, err)
		}
		if a.ActualStart, err = scanTime(start); err != nil {
			return nil, err
		}
		if a.ActualEnd, err = scanTime(end); err != nil {
			return nil, err
		}
		a.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		out = append(out, a)
	}
	return out, rows.Err()
}

// =============================================================================
// BANDS
// =============================================================================

// SaveBands replaces the band list.
func (s *Store) SaveBands(ctx context.Context, bands []worktime.Band) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inTx(ctx, func(tx execer) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM bands"); err != nil {
			return err
		}
		for i, b := range bands {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO bands (position, label, start_time, end_time) VALUES (?, ?, ?, ?)",
				i, b.Label, b.Start.String(), b.End.String())
			if err != nil {
				return fmt.Errorf("failed to save band: %w", err)
			}
		}
		return nil
	})
}

// ListBands returns bands in saved order.
func (s *Store) ListBands(ctx context.Context) ([]worktime.Band, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT label, start_time, end_time FROM bands ORDER BY position")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bands []worktime.Band
	for rows.Next() {
		var label, start, end string
		if err := rows.Scan(&label, &start, &end); err != nil {
			return nil, err
		}
		b, err := worktime.ParseBand(label, start, end)
		if err != nil {
			return nil, fmt.Errorf("corrupt band row %q: %w", label, err)
		}
		bands = append(bands, b)
	}
	return bands, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// PurgeBefore deletes dated rows older than cutoff.
func (s *Store) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	day := cutoff.Format(roster.DateLayout)
	var removed int64
	err := s.inTx(ctx, func(tx execer) error {
		for _, table := range []string{"shift_requests", "final_shifts", "attendance"} {
			res, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE date < ?", day)
			if err != nil {
				return fmt.Errorf("failed to purge %s: %w", table, err)
			}
			n, _ := res.RowsAffected()
			removed += n
		}
		return nil
	})
	return removed, err
}

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"attendance", "final_shifts", "shift_requests", "bands", "employees"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// inTx runs fn in a database transaction. Caller holds the write lock.
func (s *Store) inTx(ctx context.Context, fn func(tx execer) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(sqlTx); err != nil {
		return err
	}
	return sqlTx.Commit()
}

func nullTime(t *worktime.TimeOfDay) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.String(), Valid: true}
}

// scanTime accepts "HH:MM" and the "HH:MM:SS" form older rows may carry.
func scanTime(ns sql.NullString) (*worktime.TimeOfDay, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	raw := ns.String
	if len(raw) == len("15:04:05") {
		raw = raw[:5]
	}
	t, err := worktime.ParseTimeOfDay(raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
