package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "leavecalc",
	Short: "Prorate casual, sick and annual leave over month and cycle boundaries",
	Long: `leavecalc decides, for every day of a leave request, whether the day is
paid and whether it draws from the monthly or the annual quota.

The employee's history is read from a JSON ledger file (--ledger) and/or
flags; flags win when both are given.`,
	SilenceUsage: true,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(distributeCmd)
	rootCmd.AddCommand(cycleCmd)
}
