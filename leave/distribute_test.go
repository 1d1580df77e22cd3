package leave_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

type flags struct{ paid, annual bool }

func pattern(days []leave.DayAllocation) []flags {
	out := make([]flags, len(days))
	for i, d := range days {
		out[i] = flags{d.IsPaid, d.IsAnnual}
	}
	return out
}

var (
	monthlyPaid = flags{paid: true}
	annualPaid  = flags{paid: true, annual: true}
	unpaid      = flags{}
)

// checkInvariants asserts the properties every allocation must have.
func checkInvariants(t *testing.T, in leave.Input, days []leave.DayAllocation) {
	t.Helper()
	start := generic.DateOf(in.Start)
	want := generic.DaysBetween(start, generic.DateOf(in.End)) + 1
	if in.Start.Equal(in.End) {
		want = 1
	}
	require.Len(t, days, want)

	for i, d := range days {
		assert.True(t, d.Date.Equal(start.AddDays(i)), "day %d is %s", i, d.Date)
		if d.IsAnnual {
			assert.True(t, d.IsPaid, "annual day %s must be paid", d.Date)
		}
	}
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestDistribute_AnnualMidCycle(t *testing.T) {
	// GIVEN: Joined Jan 15, 14 days a year, nothing taken
	in := leave.Input{
		Type:  leave.TypeAnnual,
		Start: day(2024, time.June, 1),
		End:   day(2024, time.June, 3),
		Ledger: &leave.Ledger{
			JoiningDate:         day(2024, time.January, 15),
			AnnualLeavesAllowed: 14,
		},
	}

	// WHEN: Requesting 3 annual days in June (5 months accrued = 5 days)
	days, err := leave.Distribute(in)

	// THEN: All 3 are paid from annual
	require.NoError(t, err)
	checkInvariants(t, in, days)
	assert.Equal(t, []flags{annualPaid, annualPaid, annualPaid}, pattern(days))
}

func TestDistribute_CasualExceedsMonthlyQuota(t *testing.T) {
	// GIVEN: 2 casual days a month, enough annual balance
	in := leave.Input{
		Type:  leave.TypeCasual,
		Start: day(2024, time.June, 10),
		End:   day(2024, time.June, 13),
		Ledger: &leave.Ledger{
			JoiningDate:          day(2023, time.January, 1),
			AnnualLeavesAllowed:  14,
			MonthlyLeavesAllowed: 2,
		},
		AllowAnnual: leave.Bool(true),
	}

	// WHEN: Requesting 4 casual days
	days, err := leave.Distribute(in)

	// THEN: 2 monthly, then 2 from annual fallback
	require.NoError(t, err)
	checkInvariants(t, in, days)
	assert.Equal(t, []flags{monthlyPaid, monthlyPaid, annualPaid, annualPaid}, pattern(days))
}

func TestDistribute_CasualNoAnnualFallback(t *testing.T) {
	in := leave.Input{
		Type:  leave.TypeCasual,
		Start: day(2024, time.June, 10),
		End:   day(2024, time.June, 13),
		Ledger: &leave.Ledger{
			JoiningDate:          day(2023, time.January, 1),
			AnnualLeavesAllowed:  14,
			MonthlyLeavesAllowed: 2,
		},
		AllowAnnual: leave.Bool(false),
	}

	days, err := leave.Distribute(in)

	require.NoError(t, err)
	checkInvariants(t, in, days)
	assert.Equal(t, []flags{monthlyPaid, monthlyPaid, unpaid, unpaid}, pattern(days))
}

func TestDistribute_SameDayDifferentTimes(t *testing.T) {
	ledger := &leave.Ledger{JoiningDate: day(2023, time.January, 1), MonthlyLeavesAllowed: 1}

	tests := []struct {
		name       string
		start, end time.Time
	}{
		{"different times", time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), time.Date(2024, 3, 1, 17, 0, 0, 0, time.UTC)},
		{"same instant", time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := leave.Input{Type: leave.TypeSick, Start: tt.start, End: tt.end, Ledger: ledger}

			days, err := leave.Distribute(in)

			require.NoError(t, err)
			require.Len(t, days, 1)
			assert.Equal(t, "2024-03-01", days[0].Date.String())
			assert.Equal(t, monthlyPaid, pattern(days)[0])
		})
	}
}

func TestDistribute_CrossMonthSharesAnnualBudget(t *testing.T) {
	// GIVEN: 1 monthly day per month, and exactly 1 annual day left
	// (12/yr, joined Jan 2024, 1 month elapsed by Feb 2)
	in := leave.Input{
		Type:  leave.TypeCasual,
		Start: day(2024, time.January, 30),
		End:   day(2024, time.February, 2),
		Ledger: &leave.Ledger{
			JoiningDate:          day(2024, time.January, 2),
			AnnualLeavesAllowed:  12,
			MonthlyLeavesAllowed: 1,
		},
	}

	days, err := leave.Distribute(in)

	// THEN: January's tail consumes the annual day before February's head
	require.NoError(t, err)
	checkInvariants(t, in, days)
	assert.Equal(t, []flags{monthlyPaid, annualPaid, monthlyPaid, unpaid}, pattern(days))
}

func TestDistribute_CrossMonthUsesEachMonthsRecord(t *testing.T) {
	// GIVEN: January's monthly quota is already used, February's is not
	in := leave.Input{
		Type:  leave.TypeSick,
		Start: day(2024, time.January, 30),
		End:   day(2024, time.February, 2),
		Ledger: &leave.Ledger{
			JoiningDate:          day(2023, time.March, 1),
			MonthlyLeavesAllowed: 2,
			MonthlyRecords: []leave.Record{
				{Year: 2024, Month: time.January, PaidLeaves: 2},
			},
		},
		AllowAnnual: leave.Bool(false),
	}

	days, err := leave.Distribute(in)

	require.NoError(t, err)
	checkInvariants(t, in, days)
	assert.Equal(t, []flags{unpaid, unpaid, monthlyPaid, monthlyPaid}, pattern(days))
}

func TestDistribute_SpansThreeMonths(t *testing.T) {
	// GIVEN: 1 monthly day, no annual fallback
	in := leave.Input{
		Type:        leave.TypeCasual,
		Start:       day(2024, time.January, 31),
		End:         day(2024, time.March, 1),
		Ledger:      &leave.Ledger{JoiningDate: day(2023, time.January, 1), MonthlyLeavesAllowed: 1},
		AllowAnnual: leave.Bool(false),
	}

	days, err := leave.Distribute(in)

	// THEN: Every day is allocated and each month pays exactly one day
	require.NoError(t, err)
	checkInvariants(t, in, days)
	require.Len(t, days, 31)

	paidByMonth := map[time.Month]int{}
	for _, d := range days {
		if d.IsPaid {
			paidByMonth[d.Date.Month()]++
		}
	}
	assert.Equal(t, map[time.Month]int{time.January: 1, time.February: 1, time.March: 1}, paidByMonth)
	assert.Equal(t, monthlyPaid, pattern(days)[1], "Feb 1 is paid from February's quota")
	assert.Equal(t, unpaid, pattern(days)[2])
}

// =============================================================================
// ANNUAL BALANCE
// =============================================================================

func TestDistribute_AnnualPriorUsage(t *testing.T) {
	// GIVEN: Cycle Jul 2023 - Jun 2024, 8 months in by Mar 10 => floor(14*8/12) = 9,
	// with 7 taken inside the cycle and 5 taken in the previous one
	in := leave.Input{
		Type:  leave.TypeAnnual,
		Start: day(2024, time.March, 6),
		End:   day(2024, time.March, 10),
		Ledger: &leave.Ledger{
			JoiningDate:         day(2021, time.July, 20),
			AnnualLeavesAllowed: 14,
			AnnualRecords: []leave.Record{
				{Year: 2023, Month: time.June, PaidLeaves: 5},
				{Year: 2023, Month: time.July, PaidLeaves: 3},
				{Year: 2024, Month: time.February, PaidLeaves: 4},
			},
		},
	}

	days, err := leave.Distribute(in)

	// THEN: 2 remaining, so 2 paid and 3 unpaid
	require.NoError(t, err)
	checkInvariants(t, in, days)
	assert.Equal(t, []flags{annualPaid, annualPaid, unpaid, unpaid, unpaid}, pattern(days))
}

func TestDistribute_AnnualOverdrawnLedger(t *testing.T) {
	// GIVEN: More taken than accrued
	in := leave.Input{
		Type:  leave.TypeAnnual,
		Start: day(2024, time.March, 4),
		End:   day(2024, time.March, 5),
		Ledger: &leave.Ledger{
			JoiningDate:   day(2024, time.January, 1),
			AnnualRecords: []leave.Record{{Year: 2024, Month: time.February, PaidLeaves: 10}},
		},
	}

	days, err := leave.Distribute(in)

	// THEN: Nothing is paid, and nothing goes negative
	require.NoError(t, err)
	assert.Equal(t, []flags{unpaid, unpaid}, pattern(days))
}

func TestDistribute_AccrualPrecision(t *testing.T) {
	// GIVEN: 10 a year, 6 months in => exactly 5 (not 4.999...)
	in := leave.Input{
		Type:  leave.TypeAnnual,
		Start: day(2024, time.July, 1),
		End:   day(2024, time.July, 6),
		Ledger: &leave.Ledger{
			JoiningDate:         day(2024, time.January, 20),
			AnnualLeavesAllowed: 10,
		},
	}

	days, err := leave.Distribute(in)

	require.NoError(t, err)
	assert.Equal(t, 5, leave.Summarize(days).AnnualDays)
}

func TestDistribute_NoLedgerUsesDefaults(t *testing.T) {
	// GIVEN: Only a joining date; annual defaults to 14, monthly to 0
	in := leave.Input{
		Type:        leave.TypeCasual,
		Start:       day(2024, time.July, 1),
		End:         day(2024, time.July, 10),
		JoiningDate: day(2024, time.January, 1),
	}

	days, err := leave.Distribute(in)

	// THEN: floor(14*6/12) = 7 days covered from annual, 3 unpaid
	require.NoError(t, err)
	s := leave.Summarize(days)
	assert.Equal(t, 7, s.AnnualDays)
	assert.Equal(t, 3, s.UnpaidDays)
}

func TestCalculator_Defaults(t *testing.T) {
	calc := &leave.Calculator{DefaultAnnualLeaves: 24, DefaultMonthlyLeaves: 1}
	in := leave.Input{
		Type:        leave.TypeCasual,
		Start:       day(2024, time.July, 1),
		End:         day(2024, time.July, 5),
		JoiningDate: day(2024, time.January, 1),
	}

	days, err := calc.Distribute(in)

	// THEN: 1 monthly, floor(24*6/12) = 12 annual available, 4 used
	require.NoError(t, err)
	assert.Equal(t, []flags{monthlyPaid, annualPaid, annualPaid, annualPaid, annualPaid}, pattern(days))
}

func TestCalculator_CalendarYearBasis(t *testing.T) {
	// GIVEN: Joined in July, but cycles run Jan - Dec
	calc := &leave.Calculator{CycleBasis: generic.PeriodCalendarYear}
	ledger := &leave.Ledger{
		JoiningDate:         day(2021, time.July, 20),
		AnnualLeavesAllowed: 12,
		// Outside the calendar-year cycle, inside the anniversary one.
		AnnualRecords: []leave.Record{{Year: 2023, Month: time.December, PaidLeaves: 2}},
	}

	cycle, err := calc.Cycle(ledger, generic.NewDate(2024, time.April, 15))

	require.NoError(t, err)
	assert.Equal(t, 2024, cycle.StartYear)
	assert.Equal(t, time.January, cycle.StartMonth)
	assert.Equal(t, 3, cycle.MonthsElapsed)
	assert.Equal(t, 3, cycle.Allowed)
	assert.Equal(t, 0, cycle.Taken)
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestDistribute_Rejects(t *testing.T) {
	ledger := &leave.Ledger{JoiningDate: day(2024, time.January, 1)}

	tests := []struct {
		name string
		in   leave.Input
		err  error
	}{
		{
			name: "end before start",
			in:   leave.Input{Type: leave.TypeCasual, Start: day(2024, 3, 5), End: day(2024, 3, 4), Ledger: ledger},
			err:  generic.ErrInvalidRange,
		},
		{
			name: "missing end",
			in:   leave.Input{Type: leave.TypeCasual, Start: day(2024, 3, 5), Ledger: ledger},
			err:  generic.ErrInvalidRange,
		},
		{
			name: "no joining date",
			in:   leave.Input{Type: leave.TypeAnnual, Start: day(2024, 3, 4), End: day(2024, 3, 5)},
			err:  generic.ErrInvalidLedger,
		},
		{
			name: "joined after start",
			in:   leave.Input{Type: leave.TypeAnnual, Start: day(2023, 12, 30), End: day(2024, 1, 2), Ledger: ledger},
			err:  generic.ErrInvalidLedger,
		},
		{
			name: "unknown type",
			in:   leave.Input{Type: "vacation", Start: day(2024, 3, 4), End: day(2024, 3, 5), Ledger: ledger},
			err:  generic.ErrUnknownLeaveType,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := leave.Distribute(tt.in)
			assert.ErrorIs(t, err, tt.err)
			assert.True(t, generic.IsClientError(err))
		})
	}
}

func TestDistribute_Idempotent(t *testing.T) {
	ledger := &leave.Ledger{
		JoiningDate:          day(2023, time.May, 3),
		AnnualLeavesAllowed:  14,
		MonthlyLeavesAllowed: 1,
		MonthlyRecords:       []leave.Record{{Year: 2024, Month: time.May, PaidLeaves: 1}},
	}
	in := leave.Input{Type: leave.TypeCasual, Start: day(2024, time.April, 28), End: day(2024, time.May, 3), Ledger: ledger}

	first, err := leave.Distribute(in)
	require.NoError(t, err)
	second, err := leave.Distribute(in)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, ledger.MonthlyRecords, 1, "ledger must not be modified")
}

func TestParseType(t *testing.T) {
	typ, err := leave.ParseType(" Sick ")
	require.NoError(t, err)
	assert.Equal(t, leave.TypeSick, typ)

	_, err = leave.ParseType("maternity")
	assert.ErrorIs(t, err, generic.ErrUnknownLeaveType)
}
