/*
band.go - Reporting bands and proportional allocation

PURPOSE:
  Managers want to know not just how long someone worked but when: how many
  of the month's minutes were night hours, how many were mornings. A Band is
  a named window of the day; AllocateToBands splits one shift across a set of
  bands.

WRAPPING BANDS:
  A band whose end is at or before its start runs past midnight. "18:00-00:00"
  is 18:00 to the end of the day; "22:00-05:00" is 22:00 to 05:00 next morning.

BREAK DEDUCTION:
  The record only says how long the break was, not when. For reporting the
  break is spread evenly over the shift: each band loses
  overlap * break / span minutes. Per-band results are rounded half-up, so
  the band sum can differ from WorkedMinutes by rounding.

OVERLAPPING BANDS:
  Bands are independent. If a configuration overlaps two bands, the shared
  minutes are counted in both. That is the caller's configuration to fix.

SEE ALSO:
  - interval.go: ShiftInterval
  - summary.go: Summaries that sum allocations over many records
*/
package worktime

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Band is a named sub-day window used to bucket worked minutes.
type Band struct {
	Label string    `json:"label"`
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
}

// BandAllocation maps band labels to minutes.
type BandAllocation map[string]int

// ParseBand validates raw band fields.
func ParseBand(label, start, end string) (Band, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return Band{}, invalid("label", label, ErrEmptyLabel)
	}
	s, err := ParseTimeOfDay(start)
	if err != nil {
		return Band{}, err
	}
	e, err := ParseTimeOfDay(end)
	if err != nil {
		return Band{}, err
	}
	return Band{Label: label, Start: s, End: e}, nil
}

// ParseBandSpec parses the compact "label=HH:MM-HH:MM" form used by flags
// and query parameters.
func ParseBandSpec(spec string) (Band, error) {
	label, window, ok := strings.Cut(spec, "=")
	if !ok {
		return Band{}, invalid("band", spec, ErrMalformedBand)
	}
	start, end, ok := strings.Cut(window, "-")
	if !ok {
		return Band{}, invalid("band", spec, ErrMalformedBand)
	}
	return ParseBand(label, start, end)
}

// Wraps reports whether the band runs past midnight.
func (b Band) Wraps() bool { return b.End.Minutes() <= b.Start.Minutes() }

func (b Band) String() string { return b.Label + " (" + b.Start.String() + "-" + b.End.String() + ")" }

// window returns [start, end) in minutes, end pushed past 1440 when wrapping.
func (b Band) window() (int, int) {
	start, end := b.Start.Minutes(), b.End.Minutes()
	if end <= start {
		end += MinutesPerDay
	}
	return start, end
}

// Contains reports whether t falls inside the band, wrap-aware.
func (b Band) Contains(t TimeOfDay) bool {
	start, end := b.window()
	m := t.Minutes()
	if m < start {
		m += MinutesPerDay
	}
	return m >= start && m < end
}

// Total sums all bands in the allocation.
func (a BandAllocation) Total() int {
	total := 0
	for _, m := range a {
		total += m
	}
	return total
}

// Add merges other into a.
func (a BandAllocation) Add(other BandAllocation) {
	for label, m := range other {
		a[label] += m
	}
}

// =============================================================================
// ALLOCATION
// =============================================================================

// AllocateToBands splits the interval's worked time across bands. Every band
// label appears in the result. The shift span and each band window are
// intersected as given; an overnight shift is compared against band windows
// anchored on its start day.
func AllocateToBands(iv ShiftInterval, bands []Band) BandAllocation {
	out := make(BandAllocation, len(bands))
	for _, b := range bands {
		out[b.Label] += 0
	}

	s, e, ok := iv.span()
	if !ok {
		return out
	}
	span := e - s

	for _, b := range bands {
		bandStart, bandEnd := b.window()
		overlapStart := max(s, bandStart)
		overlapEnd := min(e, bandEnd)
		if overlapEnd <= overlapStart {
			continue
		}
		out[b.Label] += deductBreak(overlapEnd-overlapStart, span, iv.BreakMinutes)
	}
	return out
}

// deductBreak removes the band's share of the break and rounds half-up.
func deductBreak(overlap, span, breakMinutes int) int {
	worked := decimal.NewFromInt(int64(overlap))
	if span > 0 && breakMinutes > 0 {
		share := worked.Mul(decimal.NewFromInt(int64(breakMinutes))).Div(decimal.NewFromInt(int64(span)))
		worked = worked.Sub(share)
	}
	rounded := worked.Round(0).IntPart()
	if rounded < 0 {
		return 0
	}
	return int(rounded)
}

// =============================================================================
// CLASSIFICATION & PRESETS
// =============================================================================

// ClassifyStart returns the first band containing start.
func ClassifyStart(start TimeOfDay, bands []Band) (Band, bool) {
	for _, b := range bands {
		if b.Contains(start) {
			return b, true
		}
	}
	return Band{}, false
}

// SortBands orders bands by start time, stable for equal starts.
func SortBands(bands []Band) {
	sort.SliceStable(bands, func(i, j int) bool {
		return bands[i].Start.Minutes() < bands[j].Start.Minutes()
	})
}

// Labels returns band labels in order.
func Labels(bands []Band) []string {
	labels := make([]string, len(bands))
	for i, b := range bands {
		labels[i] = b.Label
	}
	return labels
}

// DefaultReportBands are the manager summary defaults.
func DefaultReportBands() []Band {
	return []Band{
		{Label: "morning", Start: TimeOfDay{0, 0}, End: TimeOfDay{12, 0}},
		{Label: "afternoon", Start: TimeOfDay{12, 0}, End: TimeOfDay{18, 0}},
		{Label: "night", Start: TimeOfDay{18, 0}, End: TimeOfDay{0, 0}},
	}
}

// DefaultSlotBands are the staff-view time slots used to classify shifts by
// their start time.
func DefaultSlotBands() []Band {
	return []Band{
		{Label: "morning", Start: TimeOfDay{6, 0}, End: TimeOfDay{12, 0}},
		{Label: "daytime", Start: TimeOfDay{12, 0}, End: TimeOfDay{17, 0}},
		{Label: "evening", Start: TimeOfDay{17, 0}, End: TimeOfDay{22, 0}},
		{Label: "late-night", Start: TimeOfDay{22, 0}, End: TimeOfDay{6, 0}},
	}
}
