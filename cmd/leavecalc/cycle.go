package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/warp/leave-engine/generic"
)

var (
	cycleLedger ledgerFlags
	cycleAsOf   string
)

var cycleCmd = &cobra.Command{
	Use:   "cycle",
	Short: "Show the annual cycle and balance on a date",
	Args:  cobra.NoArgs,
	RunE:  runCycle,
}

func init() {
	cycleLedger.bind(cycleCmd)
	cycleCmd.Flags().StringVar(&cycleAsOf, "as-of", "", "Reference date (YYYY-MM-DD), defaults to today")
}

func runCycle(cmd *cobra.Command, args []string) error {
	asOf := generic.Today()
	if cycleAsOf != "" {
		d, err := generic.ParseDate(cycleAsOf)
		if err != nil {
			return fmt.Errorf("--as-of: %w", err)
		}
		asOf = d
	}

	ledger, err := cycleLedger.ledger(cmd)
	if err != nil {
		return err
	}
	calc, err := cycleLedger.calculator()
	if err != nil {
		return err
	}

	c, err := calc.Cycle(ledger, asOf)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "cycle:     %s (%s %d)\n", c.Period, c.StartMonth, c.StartYear)
	fmt.Fprintf(out, "as of:     %s, %d months elapsed\n", asOf, c.MonthsElapsed)
	fmt.Fprintf(out, "accrued:   %d\n", c.Allowed)
	fmt.Fprintf(out, "taken:     %d\n", c.Taken)
	fmt.Fprintf(out, "remaining: %d\n", c.Remaining())
	return nil
}
