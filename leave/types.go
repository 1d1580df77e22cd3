// Package leave implements leave distribution: deciding, for every day of a
// leave request, whether it is paid and which quota it draws from.
package leave

import (
	"fmt"
	"strings"
	"time"

	"github.com/warp/leave-engine/generic"
)

// DefaultAnnualLeaves is the annual quota used when a ledger doesn't set one.
const DefaultAnnualLeaves = 14

// =============================================================================
// LEAVE TYPE
// =============================================================================

// Type is the kind of leave being requested.
type Type string

const (
	TypeCasual Type = "casual"
	TypeSick   Type = "sick"
	TypeAnnual Type = "annual"
)

// ParseType maps a case-insensitive name onto a Type.
func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeCasual, TypeSick, TypeAnnual:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", generic.ErrUnknownLeaveType, s)
}

// IsMonthly reports whether the type draws from the monthly quota.
// Casual and sick leave share the same proration.
func (t Type) IsMonthly() bool { return t == TypeCasual || t == TypeSick }

// =============================================================================
// LEDGER - Accrual and usage history, supplied by the caller
// =============================================================================

// Record is paid usage for one calendar month.
type Record struct {
	Year       int        `json:"year"`
	Month      time.Month `json:"month"`
	PaidLeaves int        `json:"paid_leaves"`
}

// Ledger is an employee's leave history. It is read-only to the calculator.
type Ledger struct {
	JoiningDate time.Time `json:"joining_date"`

	// AnnualLeavesAllowed is the annual quota per 12-month cycle.
	// Zero or negative means DefaultAnnualLeaves.
	AnnualLeavesAllowed int      `json:"annual_leaves_allowed"`
	AnnualRecords       []Record `json:"annual_records"`

	// MonthlyLeavesAllowed is the casual/sick quota per calendar month.
	// Zero or negative means the calculator's default.
	MonthlyLeavesAllowed int      `json:"monthly_leaves_allowed"`
	MonthlyRecords       []Record `json:"monthly_records"`
}

// monthlyTaken returns recorded monthly usage for (year, month).
func (l *Ledger) monthlyTaken(year int, month time.Month) int {
	if l == nil {
		return 0
	}
	return sumRecords(l.MonthlyRecords, func(r Record) bool {
		return r.Year == year && r.Month == month
	})
}

func sumRecords(records []Record, match func(Record) bool) int {
	total := 0
	for _, r := range records {
		if match(r) {
			total += r.PaidLeaves
		}
	}
	return total
}

// =============================================================================
// INPUT / OUTPUT
// =============================================================================

// Input is a single distribution request.
type Input struct {
	Type  Type
	Start time.Time
	End   time.Time

	// JoiningDate anchors the annual accrual cycle. When zero, the ledger's
	// joining date is used.
	JoiningDate time.Time

	// Ledger is optional; nil means no history and default quotas.
	Ledger *Ledger

	// AllowAnnual controls whether unpaid casual/sick days may fall back to
	// the annual quota. Nil means true. Ignored for annual requests.
	AllowAnnual *bool
}

func (in Input) joiningDate() time.Time {
	if !in.JoiningDate.IsZero() || in.Ledger == nil {
		return in.JoiningDate
	}
	return in.Ledger.JoiningDate
}

func (in Input) allowAnnual() bool {
	return in.AllowAnnual == nil || *in.AllowAnnual
}

// DayAllocation is the decision for one day of a request.
// IsAnnual implies IsPaid.
type DayAllocation struct {
	Date     generic.Date `json:"date"`
	IsPaid   bool         `json:"is_paid"`
	IsAnnual bool         `json:"is_annual"`
}

// Bool returns a pointer to b, for Input.AllowAnnual.
func Bool(b bool) *bool { return &b }
