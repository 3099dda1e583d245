/*
main.go - Command-line shift calculator

PURPOSE:
  Runs the worktime calculations from a terminal and prints stored
  summaries as tables. Useful for checking payroll figures without the UI.

COMMANDS:
  worked         Worked minutes for one shift
  allocate       Minutes per band for one shift
  extended       Convert to or from extended ("25:30") notation
  report         Manager summary for a period from a database
  hours          One employee's grouped hours from a database
  hash-password  bcrypt hash for MANAGER_PASSWORD_HASH

EXAMPLES:
  shiftcalc worked --start 22:00 --end 06:00 --break 60
  shiftcalc allocate --start 09:00 --end 17:00 --break 60 \
      --band day=09:00-17:00 --band night=17:00-09:00
  shiftcalc report --db shifts.db --period 2025-03
  shiftcalc hours --db shifts.db --employee 101 --year 2025 --month 3 --mode weekly
*/
package main

import (
	"fmt"
	"os"
)

const appVersion = "1.0.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
