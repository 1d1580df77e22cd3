package leave

import (
	"sort"
	"time"
)

// RecordKind selects which ledger a usage record belongs to.
type RecordKind string

const (
	KindMonthly RecordKind = "monthly"
	KindAnnual  RecordKind = "annual"
)

// Usage is a change to one ledger record.
type Usage struct {
	Kind  RecordKind `json:"kind"`
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Days  int        `json:"days"`
}

// Summary totals an allocation.
type Summary struct {
	TotalDays  int     `json:"total_days"`
	PaidDays   int     `json:"paid_days"`
	AnnualDays int     `json:"annual_days"`
	UnpaidDays int     `json:"unpaid_days"`
	Usage      []Usage `json:"usage"`
}

// Summarize folds an allocation into totals and per-month ledger usage.
// Monthly usage counts paid days that are not annual; annual usage counts
// annual days. Usage is ordered by kind, then year and month.
func Summarize(days []DayAllocation) Summary {
	type key struct {
		kind  RecordKind
		year  int
		month time.Month
	}
	counts := make(map[key]int)

	s := Summary{TotalDays: len(days)}
	for _, d := range days {
		if !d.IsPaid {
			s.UnpaidDays++
			continue
		}
		s.PaidDays++
		kind := KindMonthly
		if d.IsAnnual {
			s.AnnualDays++
			kind = KindAnnual
		}
		counts[key{kind, d.Date.Year(), d.Date.Month()}]++
	}

	for k, n := range counts {
		s.Usage = append(s.Usage, Usage{Kind: k.kind, Year: k.year, Month: k.month, Days: n})
	}
	sort.Slice(s.Usage, func(i, j int) bool {
		a, b := s.Usage[i], s.Usage[j]
		if a.Kind != b.Kind {
			return a.Kind > b.Kind // monthly before annual
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Month < b.Month
	})
	return s
}
