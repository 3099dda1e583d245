package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/warp/shift-engine/api"
	"github.com/warp/shift-engine/roster"
	"github.com/warp/shift-engine/store/sqlite"
	"github.com/warp/shift-engine/worktime"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "shiftcalc",
		Short:         "Shift work-time calculator and report viewer",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.Version = appVersion
	root.SetVersionTemplate("shiftcalc v{{.Version}}\n")

	root.AddCommand(
		newWorkedCmd(),
		newAllocateCmd(),
		newExtendedCmd(),
		newReportCmd(),
		newHoursCmd(),
		newCoverageCmd(),
		newHashPasswordCmd(),
	)
	return root
}

// shiftFlags are shared by worked and allocate.
type shiftFlags struct {
	start, end string
	breakMin   int
}

func (f *shiftFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.start, "start", "", "Shift start HH:MM")
	cmd.Flags().StringVar(&f.end, "end", "", "Shift end HH:MM (earlier than start means next day)")
	cmd.Flags().IntVar(&f.breakMin, "break", 0, "Break minutes")
}

func (f *shiftFlags) interval() (worktime.ShiftInterval, error) {
	if strings.TrimSpace(f.start) == "" || strings.TrimSpace(f.end) == "" {
		return worktime.ShiftInterval{}, fmt.Errorf("--start and --end are required")
	}
	return worktime.NewShiftInterval(f.start, f.end, f.breakMin)
}

func newWorkedCmd() *cobra.Command {
	var f shiftFlags
	cmd := &cobra.Command{
		Use:   "worked",
		Short: "Print worked minutes for a shift",
		RunE: func(cmd *cobra.Command, args []string) error {
			iv, err := f.interval()
			if err != nil {
				return err
			}
			m := worktime.WorkedMinutes(iv)
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %d min  %s (%s h)\n",
				worktime.FormatExtended(*iv.Start, *iv.End), m,
				worktime.FormatMinutes(m), worktime.Hours(m).StringFixed(2))
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newAllocateCmd() *cobra.Command {
	var (
		f        shiftFlags
		bandArgs []string
	)
	cmd := &cobra.Command{
		Use:   "allocate",
		Short: "Split a shift's worked minutes across time bands",
		RunE: func(cmd *cobra.Command, args []string) error {
			iv, err := f.interval()
			if err != nil {
				return err
			}
			bands, err := parseBands(bandArgs)
			if err != nil {
				return err
			}
			if len(bands) == 0 {
				bands = worktime.DefaultReportBands()
			}
			renderAllocation(cmd.OutOrStdout(), iv, bands, worktime.AllocateToBands(iv, bands))
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().StringArrayVar(&bandArgs, "band", nil, "Band as label=HH:MM-HH:MM (repeatable, default morning/afternoon/night)")
	return cmd
}

func newExtendedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extended START [END]",
		Short: "Convert extended notation: one arg normalizes, two args format a span",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 1 {
				t, day, err := worktime.ParseExtended(args[0])
				if err != nil {
					return err
				}
				suffix := ""
				if day > 0 {
					suffix = " (+1 day)"
				}
				fmt.Fprintf(out, "%s%s\n", t, suffix)
				return nil
			}

			start, err := worktime.ParseTimeOfDay(args[0])
			if err != nil {
				return err
			}
			end, _, err := worktime.ParseExtended(args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(out, worktime.FormatExtended(start, end))
			return nil
		},
	}
}

func openService(dbPath string) (*roster.Service, func(), error) {
	store, err := sqlite.New(dbPath)
	if err != nil {
		return nil, nil, err
	}
	return roster.NewService(store), func() { store.Close() }, nil
}

func newReportCmd() *cobra.Command {
	var dbPath, period, employee string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the manager summary for a month or day",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := openService(dbPath)
			if err != nil {
				return err
			}
			defer closeFn()

			rows, bands, err := svc.Summary(context.Background(), roster.Filter{Period: period, EmployeeNumber: employee})
			if err != nil {
				return err
			}
			renderSummary(cmd.OutOrStdout(), period, rows, bands)
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "shifts.db", "SQLite database path")
	cmd.Flags().StringVar(&period, "period", "", "YYYY-MM or YYYY-MM-DD")
	cmd.Flags().StringVar(&employee, "employee", "", "Restrict to one employee number")
	cmd.MarkFlagRequired("period")
	return cmd
}

func newHoursCmd() *cobra.Command {
	var (
		dbPath, employee, mode string
		year, month            int
		slotArgs               []string
	)
	cmd := &cobra.Command{
		Use:   "hours",
		Short: "Print one employee's hours grouped by day, week, month or slot",
		RunE: func(cmd *cobra.Command, args []string) error {
			gm, err := worktime.ParseGroupMode(mode)
			if err != nil {
				return err
			}
			slots, err := parseBands(slotArgs)
			if err != nil {
				return err
			}
			svc, closeFn, err := openService(dbPath)
			if err != nil {
				return err
			}
			defer closeFn()

			report, err := svc.EmployeeHours(context.Background(), employee, year, month, gm, slots)
			if err != nil {
				return err
			}
			renderHours(cmd.OutOrStdout(), report)
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "shifts.db", "SQLite database path")
	cmd.Flags().StringVar(&employee, "employee", "", "Employee number")
	cmd.Flags().IntVar(&year, "year", 0, "Year")
	cmd.Flags().IntVar(&month, "month", 0, "Month (0 = whole year)")
	cmd.Flags().StringVar(&mode, "mode", "monthly", "all, daily, weekly, monthly or slot")
	cmd.Flags().StringArrayVar(&slotArgs, "slot", nil, "Slot as label=HH:MM-HH:MM for --mode slot (repeatable)")
	cmd.MarkFlagRequired("employee")
	cmd.MarkFlagRequired("year")
	return cmd
}

func newCoverageCmd() *cobra.Command {
	var dbPath, date string
	cmd := &cobra.Command{
		Use:   "coverage",
		Short: "Print who is working at each hour of a day's schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := openService(dbPath)
			if err != nil {
				return err
			}
			defer closeFn()

			hours, err := svc.Coverage(context.Background(), date)
			if err != nil {
				return err
			}
			renderCoverage(cmd.OutOrStdout(), date, hours)
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "shifts.db", "SQLite database path")
	cmd.Flags().StringVar(&date, "date", "", "YYYY-MM-DD")
	cmd.MarkFlagRequired("date")
	return cmd
}

// parseBands parses repeated label=HH:MM-HH:MM flags; none yields nil.
func parseBands(args []string) ([]worktime.Band, error) {
	var bands []worktime.Band
	for _, a := range args {
		b, err := worktime.ParseBandSpec(a)
		if err != nil {
			return nil, err
		}
		bands = append(bands, b)
	}
	return bands, nil
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password",
		Short: "Read a password from stdin and print its bcrypt hash",
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readLine(cmd.InOrStdin())
			if err != nil {
				return err
			}
			if password == "" {
				return fmt.Errorf("empty password")
			}
			hash, err := api.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
