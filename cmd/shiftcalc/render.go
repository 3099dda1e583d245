package main

import (
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shopspring/decimal"
	"github.com/warp/shift-engine/roster"
	"github.com/warp/shift-engine/worktime"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	return t
}

func renderAllocation(w io.Writer, iv worktime.ShiftInterval, bands []worktime.Band, alloc worktime.BandAllocation) {
	t := newTable(w)
	t.SetTitle(worktime.FormatExtended(*iv.Start, *iv.End))
	t.AppendHeader(table.Row{"Band", "Window", "Minutes", "Time"})
	for _, b := range bands {
		m := alloc[b.Label]
		t.AppendRow(table.Row{b.Label, b.Start.String() + "-" + b.End.String(), m, worktime.FormatMinutes(m)})
	}
	worked := worktime.WorkedMinutes(iv)
	t.AppendFooter(table.Row{"", "Worked", worked, worktime.FormatMinutes(worked)})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	t.Render()
}

func renderSummary(w io.Writer, period string, rows []roster.SummaryRow, bands []worktime.Band) {
	labels := worktime.Labels(bands)

	t := newTable(w)
	t.SetTitle("Summary " + period)
	header := table.Row{"No.", "Name", "Days", "Total", "Hours"}
	for _, l := range labels {
		header = append(header, l)
	}
	t.AppendHeader(header)

	total, days := 0, 0
	for _, r := range rows {
		row := table.Row{r.EmployeeNumber, r.Name, r.Workdays, worktime.FormatMinutes(r.TotalMinutes), worktime.Hours(r.TotalMinutes).StringFixed(2)}
		for _, l := range labels {
			row = append(row, worktime.FormatMinutes(r.Bands[l]))
		}
		t.AppendRow(row)
		total += r.TotalMinutes
		days += r.Workdays
	}

	footer := table.Row{"", "Total", days, worktime.FormatMinutes(total), worktime.Hours(total).StringFixed(2)}
	for range labels {
		footer = append(footer, "")
	}
	t.AppendFooter(footer)
	t.Render()
}

func renderHours(w io.Writer, report *roster.HoursReport) {
	t := newTable(w)
	t.SetTitle(report.Employee.Name + " (" + report.Employee.Number + ")")
	t.AppendHeader(table.Row{"Group", "Date", "Shift", "Break", "Worked", "Salary"})
	for _, g := range report.Groups {
		for i, r := range g.Records {
			key := ""
			if i == 0 {
				key = g.Key
			}
			shift := ""
			if !r.Interval.IsEmpty() {
				shift = worktime.FormatExtended(*r.Interval.Start, *r.Interval.End)
			}
			t.AppendRow(table.Row{key, r.Date, shift, r.Interval.BreakMinutes, worktime.FormatMinutes(r.WorkMinutes), amount(r.Salary)})
		}
		t.AppendRow(table.Row{"", "", "", "subtotal", worktime.FormatMinutes(g.TotalMinutes), amount(g.TotalSalary)})
		t.AppendSeparator()
	}
	t.AppendFooter(table.Row{"", "", "", report.Workdays, worktime.FormatMinutes(report.TotalMinutes), amount(report.TotalSalary)})
	t.Render()
}

func renderCoverage(w io.Writer, date string, hours []roster.HourCoverage) {
	t := newTable(w)
	t.SetTitle("Coverage " + date)
	t.AppendHeader(table.Row{"Hour", "Working", "Staff"})
	for _, h := range hours {
		t.AppendRow(table.Row{h.Label, len(h.EmployeeNumbers), strings.Join(h.EmployeeNumbers, ", ")})
	}
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	t.Render()
}

func amount(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return d.StringFixed(0)
}
