/*
distribute.go - Per-day leave distribution

PURPOSE:
  Given a leave request and the employee's ledger, decide for every day in
  [Start, End] whether it is paid and, if paid, whether it draws from the
  monthly quota or the annual quota. Pure: no I/O, no shared state, the
  same input always produces the same output.

ANNUAL REQUESTS:
  paid = min(days, remaining annual balance as of End)
  The first `paid` days are paid+annual, the rest unpaid.

CASUAL / SICK REQUESTS:
  Each calendar month the request touches is a segment, prorated against
  that month's monthly record:

    remaining = max(monthlyAllowed - taken, 0)
    paid      = min(segmentDays, remaining)
    unpaid    = segmentDays - paid

  Unpaid days may fall back to annual leave. The fallback budget is the
  annual balance (as of Start for single-month requests, as of End for
  multi-month ones) and is shared: segments consume it in chronological
  order, so January's unpaid days are covered before February's.

  Within a segment days come out as: monthly-paid, annual-paid, unpaid.

  Jan 30 - Feb 2, 1 monthly day left in each month, 1 annual day:
    Jan 30 paid      Feb 1 paid
    Jan 31 annual    Feb 2 unpaid

DAY COUNT:
  Start and End are truncated to their calendar day. A request whose Start
  and End are the same instant is always exactly one day.

SEE ALSO:
  - cycle.go: Annual balance
  - summary.go: Folding an allocation back into ledger usage
  - request.go: The workflow that persists allocations
*/
package leave

import (
	"fmt"
	"time"

	"github.com/warp/leave-engine/generic"
)

// =============================================================================
// CALCULATOR
// =============================================================================

// Calculator holds the defaults applied when a ledger leaves a value unset.
// The zero value is usable: anniversary cycles, DefaultAnnualLeaves, no
// default monthly quota.
type Calculator struct {
	// DefaultAnnualLeaves is the annual quota when the ledger has none.
	// Zero or negative means the package DefaultAnnualLeaves.
	DefaultAnnualLeaves int

	// DefaultMonthlyLeaves is the monthly quota when the ledger has none.
	DefaultMonthlyLeaves int

	// CycleBasis anchors the annual cycle. Empty means anniversary.
	CycleBasis generic.PeriodType
}

// NewCalculator returns a calculator with the standard defaults.
func NewCalculator() *Calculator {
	return &Calculator{CycleBasis: generic.PeriodAnniversary}
}

var defaultCalculator = NewCalculator()

// Distribute runs the default calculator.
func Distribute(in Input) ([]DayAllocation, error) {
	return defaultCalculator.Distribute(in)
}

func (c *Calculator) cycleBasis() generic.PeriodType {
	if c.CycleBasis == "" {
		return generic.PeriodAnniversary
	}
	return c.CycleBasis
}

func (c *Calculator) annualAllowed(ledger *Ledger) int {
	switch {
	case ledger != nil && ledger.AnnualLeavesAllowed > 0:
		return ledger.AnnualLeavesAllowed
	case c.DefaultAnnualLeaves > 0:
		return c.DefaultAnnualLeaves
	default:
		return DefaultAnnualLeaves
	}
}

func (c *Calculator) monthlyAllowed(ledger *Ledger) int {
	if ledger != nil && ledger.MonthlyLeavesAllowed > 0 {
		return ledger.MonthlyLeavesAllowed
	}
	return c.DefaultMonthlyLeaves
}

// Distribute allocates every day of the request. The result has one entry
// per day, in ascending date order.
func (c *Calculator) Distribute(in Input) ([]DayAllocation, error) {
	period, err := in.period()
	if err != nil {
		return nil, err
	}

	joining := in.joiningDate()
	if joining.IsZero() {
		return nil, fmt.Errorf("%w: joining date is required", generic.ErrInvalidLedger)
	}
	if generic.DateOf(joining).After(period.Start) {
		return nil, fmt.Errorf("%w: joining date %s is after leave start %s",
			generic.ErrInvalidLedger, generic.DateOf(joining), period.Start)
	}

	switch {
	case in.Type == TypeAnnual:
		return c.distributeAnnual(period, joining, in.Ledger), nil
	case in.Type.IsMonthly():
		return c.distributeMonthly(period, joining, in.Ledger, in.allowAnnual()), nil
	default:
		return nil, fmt.Errorf("%w: %q", generic.ErrUnknownLeaveType, in.Type)
	}
}

// period truncates the request to calendar days and validates it.
func (in Input) period() (generic.Period, error) {
	if in.Start.IsZero() || in.End.IsZero() {
		return generic.Period{}, fmt.Errorf("%w: start and end are required", generic.ErrInvalidRange)
	}
	start := generic.DateOf(in.Start)
	if in.Start.Equal(in.End) {
		return generic.Period{Start: start, End: start}, nil
	}
	end := generic.DateOf(in.End)
	p, err := generic.NewPeriod(start, end)
	if err != nil {
		return generic.Period{}, fmt.Errorf("%w: %s is before %s", generic.ErrInvalidRange, end, start)
	}
	return p, nil
}

// =============================================================================
// ANNUAL
// =============================================================================

func (c *Calculator) distributeAnnual(period generic.Period, joining time.Time, ledger *Ledger) []DayAllocation {
	cycle := c.annualCycle(joining, ledger, period.End)
	paid := min(period.Len(), cycle.Remaining())

	days := period.Days()
	out := make([]DayAllocation, len(days))
	for i, d := range days {
		out[i] = DayAllocation{Date: d, IsPaid: i < paid, IsAnnual: i < paid}
	}
	return out
}

// =============================================================================
// CASUAL / SICK
// =============================================================================

func (c *Calculator) distributeMonthly(period generic.Period, joining time.Time, ledger *Ledger, allowAnnual bool) []DayAllocation {
	segments := period.SplitByMonth()
	allowed := c.monthlyAllowed(ledger)

	// Annual fallback is evaluated at Start for a single month and at End
	// when the request crosses a month boundary.
	budget := 0
	if allowAnnual {
		asOf := period.Start
		if len(segments) > 1 {
			asOf = period.End
		}
		budget = c.annualCycle(joining, ledger, asOf).Remaining()
	}

	out := make([]DayAllocation, 0, period.Len())
	for _, seg := range segments {
		taken := ledger.monthlyTaken(seg.Start.Year(), seg.Start.Month())
		total := seg.Len()
		paid := min(total, max(allowed-taken, 0))
		annual := min(total-paid, budget)
		budget -= annual

		for i, d := range seg.Days() {
			out = append(out, DayAllocation{
				Date:     d,
				IsPaid:   i < paid+annual,
				IsAnnual: i >= paid && i < paid+annual,
			})
		}
	}
	return out
}
