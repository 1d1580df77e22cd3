package generic

import "time"

// =============================================================================
// PERIOD - An inclusive range of calendar days
// =============================================================================

// Period is the inclusive range [Start, End].
//
// Examples:
//   - A leave request: Jan 30 - Feb 2
//   - An accrual cycle anchored on a July joining date: Jul 1 - Jun 30
type Period struct {
	Start Date
	End   Date
}

// NewPeriod validates and builds a period.
func NewPeriod(start, end Date) (Period, error) {
	if end.Before(start) {
		return Period{}, ErrInvalidPeriod
	}
	return Period{Start: start, End: end}, nil
}

// Len returns the number of days in the period, both ends included.
func (p Period) Len() int {
	return DaysBetween(p.Start, p.End) + 1
}

// Days returns every day in the period, in ascending order.
func (p Period) Days() []Date {
	days := make([]Date, 0, max(p.Len(), 0))
	for current := p.Start; current.BeforeOrEqual(p.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

// Overlaps reports whether the two periods share at least one day.
func (p Period) Overlaps(other Period) bool {
	return !p.End.Before(other.Start) && !other.End.Before(p.Start)
}

// SplitByMonth cuts the period at month boundaries. The segments are in
// chronological order and together cover the period exactly:
//
//	Jan 30 - Mar 2  =>  [Jan 30, Jan 31] [Feb 1, Feb 29] [Mar 1, Mar 2]
func (p Period) SplitByMonth() []Period {
	var segments []Period
	start := p.Start
	for start.BeforeOrEqual(p.End) {
		end := EndOfMonth(start.Year(), start.Month())
		if end.After(p.End) {
			end = p.End
		}
		segments = append(segments, Period{Start: start, End: end})
		start = end.AddDays(1)
	}
	return segments
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// =============================================================================
// PERIOD CONFIG - How accrual cycles are anchored
// =============================================================================

// PeriodType defines how cycles are calculated.
type PeriodType string

const (
	PeriodCalendarYear PeriodType = "calendar_year" // Jan 1 - Dec 31
	PeriodAnniversary  PeriodType = "anniversary"   // 12 months from the 1st of the anchor month
)

// ParsePeriodType maps a config string onto a PeriodType.
func ParsePeriodType(s string) (PeriodType, bool) {
	switch PeriodType(s) {
	case PeriodCalendarYear, PeriodAnniversary:
		return PeriodType(s), true
	}
	return "", false
}

// PeriodConfig defines how to find the cycle a date falls into.
type PeriodConfig struct {
	Type PeriodType

	// For anniversary: the anchor date (e.g., joining date). Only the year
	// and month are significant; cycles always start on the 1st.
	AnchorDate Date
}

// PeriodFor returns the 12-month cycle that contains date.
func (pc PeriodConfig) PeriodFor(date Date) Period {
	switch pc.Type {
	case PeriodAnniversary:
		if pc.AnchorDate.IsZero() {
			return calendarYear(date.Year())
		}
		return anniversaryMonthPeriod(pc.AnchorDate.Month(), date)
	default:
		return calendarYear(date.Year())
	}
}

func calendarYear(year int) Period {
	return Period{Start: StartOfYear(year), End: EndOfYear(year)}
}

// anniversaryMonthPeriod finds the cycle starting on the 1st of startMonth
// that contains date. A cycle straddles the calendar year unless
// startMonth is January.
func anniversaryMonthPeriod(startMonth time.Month, date Date) Period {
	year := date.Year()
	if date.Month() < startMonth {
		year--
	}
	start := StartOfMonth(year, startMonth)
	return Period{Start: start, End: start.AddYears(1).AddDays(-1)}
}
