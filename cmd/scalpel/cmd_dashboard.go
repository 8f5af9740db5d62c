package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"scalpel/internal/loader"
	"scalpel/internal/report"
	"scalpel/internal/viz"
)

// dashboardCmd renders HTML dashboards from the latest analysis results.
var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Render HTML dashboards from analysis results",
	Long: `Reads the raw dataset and the processed analysis results and renders the
dashboard set (efficiency overview, surgical phases, outlier explorer, tool
heatmap, live-stream simulation) as self-contained HTML files.`,
	RunE: runDashboard,
}

func runDashboard(cmd *cobra.Command, args []string) error {
	ds, err := loader.New(cfg.Data.RawDir()).LoadRaw()
	if err != nil {
		return fmt.Errorf("no raw dataset found (run 'scalpel generate' first): %w", err)
	}
	ds = loader.Clean(ds)

	result, err := report.LoadResults(filepath.Join(cfg.Data.ProcessedDir(), resultsFile))
	if err != nil {
		return fmt.Errorf("no analysis results found (run 'scalpel analyze' first): %w", err)
	}

	paths, err := viz.New(cfg.Data.DashboardDir).RenderAll(result, ds)
	if err != nil {
		return err
	}

	for _, p := range paths {
		fmt.Println(p)
	}
	return nil
}
