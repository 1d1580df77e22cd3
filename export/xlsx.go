// Package export renders leave allocations as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/warp/leave-engine/leave"
)

const (
	allocationSheet = "Allocation"
	summarySheet    = "Summary"
)

var allocationHeaders = []string{"Date", "Weekday", "Paid", "Quota"}

// WriteRequest writes a workbook with one row per allocated day and a
// summary sheet with totals and ledger usage.
func WriteRequest(w io.Writer, req *leave.Request) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", allocationSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := writeAllocation(f, req.Days); err != nil {
		return err
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to add summary sheet: %w", err)
	}
	if err := writeSummary(f, req); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeAllocation(f *excelize.File, days []leave.DayAllocation) error {
	if err := f.SetSheetRow(allocationSheet, "A1", &allocationHeaders); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i, d := range days {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{d.Date.String(), d.Date.Weekday().String(), yesNo(d.IsPaid), quota(d)}
		if err := f.SetSheetRow(allocationSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	return f.SetColWidth(allocationSheet, "A", "D", 14)
}

func writeSummary(f *excelize.File, req *leave.Request) error {
	s := leave.Summarize(req.Days)
	rows := [][]any{
		{"Request", string(req.ID)},
		{"Employee", string(req.EmployeeID)},
		{"Type", string(req.Type)},
		{"Period", req.Period.String()},
		{"Status", string(req.Status)},
		{"Total days", s.TotalDays},
		{"Paid (monthly)", s.PaidDays - s.AnnualDays},
		{"Paid (annual)", s.AnnualDays},
		{"Unpaid", s.UnpaidDays},
		{},
		{"Ledger", "Year", "Month", "Days"},
	}
	for _, u := range s.Usage {
		rows = append(rows, []any{string(u.Kind), u.Year, u.Month.String(), u.Days})
	}

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary row %d: %w", i+1, err)
		}
	}
	return f.SetColWidth(summarySheet, "A", "B", 18)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func quota(d leave.DayAllocation) string {
	switch {
	case d.IsAnnual:
		return "annual"
	case d.IsPaid:
		return "monthly"
	default:
		return "unpaid"
	}
}
