// Package memory provides an in-memory roster.Store (for testing/dev).
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/warp/shift-engine/roster"
	"github.com/warp/shift-engine/worktime"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Store struct {
	mu         sync.RWMutex
	employees  map[string]roster.Employee
	requests   []roster.ShiftRequest
	final      map[dayKey]roster.FinalShift
	attendance map[dayKey]roster.Attendance
	bands      []worktime.Band
}

type dayKey struct {
	Date           string
	EmployeeNumber string
}

var _ roster.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		employees:  make(map[string]roster.Employee),
		final:      make(map[dayKey]roster.FinalShift),
		attendance: make(map[dayKey]roster.Attendance),
	}
}

func (m *Store) SaveEmployee(_ context.Context, emp roster.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.employees[emp.Number]; ok {
		existing.Name = emp.Name
		m.employees[emp.Number] = existing
		return nil
	}
	if emp.ID == "" {
		emp.ID = uuid.NewString()
	}
	if emp.CreatedAt.IsZero() {
		emp.CreatedAt = time.Now().UTC()
	}
	m.employees[emp.Number] = emp
	return nil
}

func (m *Store) GetEmployee(_ context.Context, number string) (*roster.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	emp, ok := m.employees[number]
	if !ok {
		return nil, nil
	}
	return &emp, nil
}

func (m *Store) ListEmployees(_ context.Context) ([]roster.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]roster.Employee, 0, len(m.employees))
	for _, e := range m.employees {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Number < out[j].Number
	})
	return out, nil
}

func (m *Store) DeleteEmployee(_ context.Context, number string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.employees, number)
	return nil
}

// AppendShiftRequests keeps requests ordered by date.
func (m *Store) AppendShiftRequests(_ context.Context, reqs []roster.ShiftRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range reqs {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		// Insert after every request with an earlier or equal (date, employee).
		i := sort.Search(len(m.requests), func(i int) bool {
			x := m.requests[i]
			if x.Date != r.Date {
				return x.Date > r.Date
			}
			return x.EmployeeNumber > r.EmployeeNumber
		})
		m.requests = append(m.requests, roster.ShiftRequest{})
		copy(m.requests[i+1:], m.requests[i:])
		m.requests[i] = r
	}
	return nil
}

func (m *Store) ListShiftRequests(_ context.Context, from, to string) ([]roster.ShiftRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []roster.ShiftRequest
	for _, r := range m.requests {
		if r.Date >= from && r.Date <= to {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *Store) GetShiftRequest(_ context.Context, id string) (*roster.ShiftRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.requests {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, nil
}

func (m *Store) ListPendingShiftRequests(_ context.Context, employeeNumber string) ([]roster.ShiftRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []roster.ShiftRequest
	for _, r := range m.requests {
		if r.EmployeeNumber != employeeNumber {
			continue
		}
		if _, final := m.final[dayKey{r.Date, employeeNumber}]; final {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// UpdateShiftRequests checks every ID before changing anything.
func (m *Store) UpdateShiftRequests(_ context.Context, reqs []roster.ShiftRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	index := make(map[string]int, len(m.requests))
	for i, r := range m.requests {
		index[r.ID] = i
	}
	for _, r := range reqs {
		if _, ok := index[r.ID]; !ok {
			return roster.ErrRequestNotFound
		}
	}
	for _, r := range reqs {
		stored := &m.requests[index[r.ID]]
		stored.Start, stored.End, stored.Location = r.Start, r.End, r.Location
	}
	return nil
}

func (m *Store) UpsertFinalShifts(_ context.Context, shifts []roster.FinalShift) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, f := range shifts {
		m.final[dayKey{f.Date, f.EmployeeNumber}] = f
	}
	return nil
}

func (m *Store) ListFinalShifts(_ context.Context, date string) ([]roster.FinalShift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []roster.FinalShift
	for k, f := range m.final {
		if k.Date == date {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeNumber < out[j].EmployeeNumber })
	return out, nil
}

func (m *Store) ScheduledDates(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	var dates []string
	for k := range m.final {
		if !seen[k.Date] {
			seen[k.Date] = true
			dates = append(dates, k.Date)
		}
	}
	sort.Strings(dates)
	return dates, nil
}

// UpsertAttendance keeps the row ID of an existing (date, employee).
func (m *Store) UpsertAttendance(_ context.Context, recs []roster.Attendance) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range recs {
		k := dayKey{a.Date, a.EmployeeNumber}
		if existing, ok := m.attendance[k]; ok {
			a.ID = existing.ID
		} else if a.ID == "" {
			a.ID = uuid.NewString()
		}
		m.attendance[k] = a
	}
	return nil
}

func (m *Store) ListAttendanceByDate(_ context.Context, date string) ([]roster.Attendance, error) {
	return m.filterAttendance(func(a roster.Attendance) bool { return a.Date == date }), nil
}

func (m *Store) ListAttendance(_ context.Context, prefix, employeeNumber string) ([]roster.Attendance, error) {
	out := m.filterAttendance(func(a roster.Attendance) bool {
		return strings.HasPrefix(a.Date, prefix) &&
			(employeeNumber == "" || a.EmployeeNumber == employeeNumber)
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

// filterAttendance returns matches ordered by employee number.
func (m *Store) filterAttendance(keep func(roster.Attendance) bool) []roster.Attendance {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []roster.Attendance
	for _, a := range m.attendance {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EmployeeNumber != out[j].EmployeeNumber {
			return out[i].EmployeeNumber < out[j].EmployeeNumber
		}
		return out[i].Date < out[j].Date
	})
	return out
}

func (m *Store) SaveBands(_ context.Context, bands []worktime.Band) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bands = append([]worktime.Band(nil), bands...)
	return nil
}

func (m *Store) ListBands(_ context.Context) ([]worktime.Band, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]worktime.Band(nil), m.bands...), nil
}

func (m *Store) PurgeBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	day := cutoff.Format(roster.DateLayout)
	var removed int64

	kept := m.requests[:0]
	for _, r := range m.requests {
		if r.Date < day {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	m.requests = kept

	for k := range m.final {
		if k.Date < day {
			delete(m.final, k)
			removed++
		}
	}
	for k := range m.attendance {
		if k.Date < day {
			delete(m.attendance, k)
			removed++
		}
	}
	return removed, nil
}
