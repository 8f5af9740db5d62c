package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"scalpel/internal/report"
)

var reportName string

// reportCmd exports the Markdown analysis report.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Export the Markdown analysis report",
	RunE:  runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	result, err := report.LoadResults(filepath.Join(cfg.Data.ProcessedDir(), resultsFile))
	if err != nil {
		return fmt.Errorf("no analysis results found (run 'scalpel analyze' first): %w", err)
	}

	name := reportName
	if name == "" {
		name = report.DefaultReportName(time.Now())
	}
	text, err := report.Export(result, cfg.Data.ReportDir, name)
	if err != nil {
		return err
	}

	fmt.Println(text)
	return nil
}
