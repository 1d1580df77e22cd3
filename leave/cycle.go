/*
cycle.go - Annual leave accrual cycle

PURPOSE:
  Annual leave accrues over a 12-month cycle anchored to the joining month.
  This file answers three questions for a reference date:
    1. Which cycle are we in?          (CycleWindow)
    2. How much has accrued so far?    (Allowed)
    3. How much of it is left?         (Remaining)

CYCLE WINDOW:
  Joining 2021-07-20, reference 2024-03-10:
    cycle start = July 2023, cycle = [2023-07-01, 2024-06-30]
    months elapsed = 8 (Jul -> Mar)
    allowed = floor(14 / 12 * 8) = 9

  A record (year, month) belongs to the cycle when:
    year == startYear   && month >= startMonth, or
    year == startYear+1 && month <  startMonth

PRECISION:
  The accrual rate is annual/12, which isn't representable in binary
  floating point. Multiplying first and dividing with decimal.Decimal keeps
  floor(10/12*6) at 5 instead of 4.

SEE ALSO:
  - generic/period.go: PeriodConfig.PeriodFor does the window math
  - distribute.go: Uses Remaining for annual requests and fallback
*/
package leave

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/leave-engine/generic"
)

var twelve = decimal.NewFromInt(12)

// CycleWindow returns the first month of the accrual cycle that contains
// asOf, anchored on the joining month.
func CycleWindow(joiningDate, asOf time.Time) (int, time.Month) {
	c := cycleFor(generic.PeriodAnniversary, joiningDate, generic.DateOf(asOf))
	return c.StartYear, c.StartMonth
}

// Cycle is one 12-month accrual window and the annual balance inside it.
type Cycle struct {
	StartYear     int            `json:"start_year"`
	StartMonth    time.Month     `json:"start_month"`
	Period        generic.Period `json:"-"`
	MonthsElapsed int            `json:"months_elapsed"`
	Allowed       int            `json:"allowed"`
	Taken         int            `json:"taken"`
}

// Remaining is the unused accrued balance, never negative.
func (c Cycle) Remaining() int { return max(c.Allowed-c.Taken, 0) }

// Contains reports whether a (year, month) record falls inside the cycle.
func (c Cycle) Contains(year int, month time.Month) bool {
	return (year == c.StartYear && month >= c.StartMonth) ||
		(year == c.StartYear+1 && month < c.StartMonth)
}

func cycleFor(basis generic.PeriodType, joiningDate time.Time, asOf generic.Date) Cycle {
	pc := generic.PeriodConfig{Type: basis, AnchorDate: generic.DateOf(joiningDate)}
	period := pc.PeriodFor(asOf)
	return Cycle{
		StartYear:     period.Start.Year(),
		StartMonth:    period.Start.Month(),
		Period:        period,
		MonthsElapsed: generic.MonthsBetween(period.Start, asOf),
	}
}

// Cycle returns the annual cycle of ledger that contains asOf and its
// balance at that date.
func (c *Calculator) Cycle(ledger *Ledger, asOf generic.Date) (Cycle, error) {
	if ledger == nil || ledger.JoiningDate.IsZero() {
		return Cycle{}, fmt.Errorf("%w: joining date is required", generic.ErrInvalidLedger)
	}
	if asOf.IsZero() {
		return Cycle{}, fmt.Errorf("%w: reference date is required", generic.ErrInvalidRange)
	}
	if generic.DateOf(ledger.JoiningDate).After(asOf) {
		return Cycle{}, fmt.Errorf("%w: no cycle before joining date %s",
			generic.ErrInvalidLedger, generic.DateOf(ledger.JoiningDate))
	}
	return c.annualCycle(ledger.JoiningDate, ledger, asOf), nil
}

// annualCycle evaluates the annual balance of ledger as of asOf.
func (c *Calculator) annualCycle(joiningDate time.Time, ledger *Ledger, asOf generic.Date) Cycle {
	cycle := cycleFor(c.cycleBasis(), joiningDate, asOf)

	cycle.Allowed = accrued(c.annualAllowed(ledger), cycle.MonthsElapsed)

	if ledger != nil {
		cycle.Taken = sumRecords(ledger.AnnualRecords, func(r Record) bool {
			return cycle.Contains(r.Year, r.Month)
		})
	}
	return cycle
}

// accrued returns floor(annual / 12 * months).
func accrued(annual, months int) int {
	if months <= 0 {
		return 0
	}
	earned := decimal.NewFromInt(int64(annual)).Mul(decimal.NewFromInt(int64(months)))
	return int(earned.Div(twelve).Floor().IntPart())
}
