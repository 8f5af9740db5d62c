package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"scalpel/internal/store"
)

var minEfficiency float64

// queryCmd queries the SQLite artifact store.
var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query stored procedures above an efficiency threshold",
	Long: `Queries the SQLite artifact store for procedures above the given
efficiency threshold, most efficient first.

Example:
  scalpel query --min-efficiency 90`,
	RunE: runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	db, err := store.Open(cfg.Data.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	procs, err := db.EfficientProcedures(minEfficiency)
	if err != nil {
		return err
	}

	if len(procs) == 0 {
		fmt.Printf("No procedures with efficiency > %.1f\n", minEfficiency)
		return nil
	}

	fmt.Printf("%-10s  %-28s  %9s  %10s  %6s\n", "ID", "TYPE", "DURATION", "EFFICIENCY", "COMPL")
	for _, p := range procs {
		fmt.Printf("%-10s  %-28s  %7.1fm  %9.1f%%  %6d\n",
			p.ProcedureID, p.ProcedureType, p.DurationMinutes, p.EfficiencyScore, p.Complications)
	}
	fmt.Printf("\n%d procedures\n", len(procs))
	return nil
}
