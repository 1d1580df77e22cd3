package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/warp/leave-engine/export"
	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/leave"
)

var (
	distLedger      ledgerFlags
	distType        string
	distStart       string
	distEnd         string
	distAllowAnnual bool
	distFormat      string
	distOut         string
)

var distributeCmd = &cobra.Command{
	Use:   "distribute",
	Short: "Allocate every day of a leave request",
	Example: `  leavecalc distribute --type casual --start 2024-01-30 --end 2024-02-02 \
      --joining 2023-07-20 --monthly-allowed 1
  leavecalc distribute --type annual --start 2024-03-04 --end 2024-03-08 \
      --ledger alice.json --format xlsx --out alice.xlsx`,
	Args: cobra.NoArgs,
	RunE: runDistribute,
}

func init() {
	distLedger.bind(distributeCmd)
	distributeCmd.Flags().StringVar(&distType, "type", "", "Leave type: casual, sick, annual")
	distributeCmd.Flags().StringVar(&distStart, "start", "", "First day (YYYY-MM-DD)")
	distributeCmd.Flags().StringVar(&distEnd, "end", "", "Last day (YYYY-MM-DD), defaults to --start")
	distributeCmd.Flags().BoolVar(&distAllowAnnual, "allow-annual", true, "Let unpaid casual/sick days fall back to annual leave")
	distributeCmd.Flags().StringVar(&distFormat, "format", "table", "Output format: table, json, xlsx")
	distributeCmd.Flags().StringVar(&distOut, "out", "", "Output file for xlsx (default leave.xlsx)")
	distributeCmd.MarkFlagRequired("type")
	distributeCmd.MarkFlagRequired("start")
}

func runDistribute(cmd *cobra.Command, args []string) error {
	typ, err := leave.ParseType(distType)
	if err != nil {
		return err
	}
	start, err := generic.ParseDate(distStart)
	if err != nil {
		return fmt.Errorf("--start: %w", err)
	}
	end := start
	if distEnd != "" {
		if end, err = generic.ParseDate(distEnd); err != nil {
			return fmt.Errorf("--end: %w", err)
		}
	}

	ledger, err := distLedger.ledger(cmd)
	if err != nil {
		return err
	}
	calc, err := distLedger.calculator()
	if err != nil {
		return err
	}

	days, err := calc.Distribute(leave.Input{
		Type:        typ,
		Start:       start.Time(),
		End:         end.Time(),
		Ledger:      ledger,
		AllowAnnual: leave.Bool(distAllowAnnual),
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch distFormat {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Days    []leave.DayAllocation `json:"days"`
			Summary leave.Summary         `json:"summary"`
		}{days, leave.Summarize(days)})
	case "xlsx":
		path := distOut
		if path == "" {
			path = "leave.xlsx"
		}
		return writeWorkbook(path, typ, days)
	case "table":
		return printAllocation(out, days)
	default:
		return fmt.Errorf("--format: unknown format %q", distFormat)
	}
}

func writeWorkbook(path string, typ leave.Type, days []leave.DayAllocation) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	req := &leave.Request{
		ID:     "preview",
		Type:   typ,
		Period: generic.Period{Start: days[0].Date, End: days[len(days)-1].Date},
		Days:   days,
	}
	if err := export.WriteRequest(f, req); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// printAllocation writes one line per day followed by the totals.
func printAllocation(w io.Writer, days []leave.DayAllocation) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tDAY\tPAID\tQUOTA")
	for _, d := range days {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.Date, d.Date.Weekday().String()[:3], yesNo(d.IsPaid), quotaLabel(d))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	s := leave.Summarize(days)
	_, err := fmt.Fprintf(w, "\n%d days: %d monthly, %d annual, %d unpaid\n",
		s.TotalDays, s.PaidDays-s.AnnualDays, s.AnnualDays, s.UnpaidDays)
	return err
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func quotaLabel(d leave.DayAllocation) string {
	switch {
	case d.IsAnnual:
		return "annual"
	case d.IsPaid:
		return "monthly"
	default:
		return "-"
	}
}
