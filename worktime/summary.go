/*
summary.go - Aggregation of attendance records

PURPOSE:
  Turns a list of attendance records into the numbers the manager and staff
  screens show: per-employee totals with a band breakdown, and records grouped
  by day, week, month or time slot.

TOTALS:
  Totals use the WorkMinutes stored on each record (what was saved at
  clock-out), not a recomputation. Band breakdowns are recomputed from the
  record's interval with AllocateToBands, so bands reflect the current band
  configuration even for old records.

SEE ALSO:
  - band.go: AllocateToBands, ClassifyStart
  - roster/service.go: Loads records from the store and calls these
*/
package worktime

import (
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// Record is one saved attendance row.
type Record struct {
	EmployeeNumber string
	Date           string // YYYY-MM-DD
	Interval       ShiftInterval
	WorkMinutes    int
	Salary         decimal.Decimal // zero when not recorded
}

// EmployeeSummary is one row of the manager summary.
type EmployeeSummary struct {
	EmployeeNumber string
	TotalMinutes   int
	Workdays       int
	Bands          BandAllocation
}

// Summarize totals records per employee. Records with no worked minutes are
// ignored. Rows are sorted by total descending, then employee number.
func Summarize(records []Record, bands []Band) []EmployeeSummary {
	byEmployee := make(map[string]*EmployeeSummary)

	for _, r := range records {
		if r.WorkMinutes <= 0 {
			continue
		}
		sum, ok := byEmployee[r.EmployeeNumber]
		if !ok {
			sum = &EmployeeSummary{EmployeeNumber: r.EmployeeNumber, Bands: AllocateToBands(ShiftInterval{}, bands)}
			byEmployee[r.EmployeeNumber] = sum
		}
		sum.TotalMinutes += r.WorkMinutes
		sum.Workdays++
		sum.Bands.Add(AllocateToBands(r.Interval, bands))
	}

	out := make([]EmployeeSummary, 0, len(byEmployee))
	for _, s := range byEmployee {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalMinutes != out[j].TotalMinutes {
			return out[i].TotalMinutes > out[j].TotalMinutes
		}
		return out[i].EmployeeNumber < out[j].EmployeeNumber
	})
	return out
}

// =============================================================================
// GROUPING
// =============================================================================

// GroupMode selects how records are bucketed.
type GroupMode string

const (
	GroupAll     GroupMode = "all"
	GroupDaily   GroupMode = "daily"
	GroupWeekly  GroupMode = "weekly"
	GroupMonthly GroupMode = "monthly"
	GroupSlot    GroupMode = "slot"
)

// Unclassified is the slot key for records matching no band.
const Unclassified = "unclassified"

// ParseGroupMode defaults to monthly for an empty string.
func ParseGroupMode(s string) (GroupMode, error) {
	switch m := GroupMode(s); m {
	case "":
		return GroupMonthly, nil
	case GroupAll, GroupDaily, GroupWeekly, GroupMonthly, GroupSlot:
		return m, nil
	default:
		return "", invalid("mode", s, fmt.Errorf("unknown group mode"))
	}
}

// RecordGroup is one bucket of records.
type RecordGroup struct {
	Key          string
	Records      []Record
	TotalMinutes int
	TotalSalary  decimal.Decimal
	Workdays     int
}

type groupKey struct {
	key   string
	order int // larger sorts first
}

// Group buckets records. slotBands is only used for GroupSlot.
func Group(records []Record, mode GroupMode, slotBands []Band) ([]RecordGroup, error) {
	index := make(map[string]int)
	var groups []RecordGroup
	var keys []groupKey

	for _, r := range records {
		k, err := keyFor(r, mode, slotBands)
		if err != nil {
			return nil, err
		}
		i, ok := index[k.key]
		if !ok {
			i = len(groups)
			index[k.key] = i
			groups = append(groups, RecordGroup{Key: k.key})
			keys = append(keys, k)
		}
		g := &groups[i]
		g.Records = append(g.Records, r)
		g.TotalMinutes += max(r.WorkMinutes, 0)
		g.TotalSalary = g.TotalSalary.Add(r.Salary)
		g.Workdays++
	}

	perm := make([]int, len(groups))
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(a, b int) bool {
		ka, kb := keys[perm[a]], keys[perm[b]]
		if ka.order != kb.order {
			return ka.order > kb.order
		}
		if mode == GroupSlot {
			return false
		}
		return ka.key > kb.key
	})

	out := make([]RecordGroup, len(groups))
	for i, p := range perm {
		out[i] = groups[p]
	}
	return out, nil
}

func keyFor(r Record, mode GroupMode, slotBands []Band) (groupKey, error) {
	if mode == GroupAll {
		return groupKey{key: string(GroupAll)}, nil
	}
	if mode == GroupSlot {
		if r.Interval.Start == nil {
			return groupKey{key: Unclassified, order: -len(slotBands) - 1}, nil
		}
		b, ok := ClassifyStart(*r.Interval.Start, slotBands)
		if !ok {
			return groupKey{key: Unclassified, order: -len(slotBands) - 1}, nil
		}
		return groupKey{key: b.String(), order: -slices.Index(slotBands, b)}, nil
	}

	d, err := time.Parse(dateLayout, r.Date)
	if err != nil {
		return groupKey{}, invalid("date", r.Date, err)
	}
	switch mode {
	case GroupDaily:
		return groupKey{key: d.Format("2006-01-02 (Mon)")}, nil
	case GroupWeekly:
		week := WeekOfMonth(d)
		return groupKey{key: fmt.Sprintf("%s W%d", d.Format("2006-01"), week), order: week}, nil
	default:
		return groupKey{key: d.Format("2006-01")}, nil
	}
}

// WeekOfMonth numbers weeks Sunday-first, week 1 containing the 1st.
func WeekOfMonth(d time.Time) int {
	first := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, d.Location())
	return (d.Day()+int(first.Weekday())-1)/7 + 1
}

// =============================================================================
// FORMATTING
// =============================================================================

// FormatMinutes renders minutes as "8h30m". Negative values render as "0h0m".
func FormatMinutes(m int) string {
	if m < 0 {
		return "0h0m"
	}
	return fmt.Sprintf("%dh%dm", m/MinutesPerHour, m%MinutesPerHour)
}

// Hours converts minutes to decimal hours rounded to two places.
func Hours(m int) decimal.Decimal {
	return decimal.NewFromInt(int64(m)).Div(decimal.NewFromInt(MinutesPerHour)).Round(2)
}
