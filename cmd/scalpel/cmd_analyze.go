package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"scalpel/internal/analyzer"
	"scalpel/internal/loader"
	"scalpel/internal/report"
)

// analyzeCmd runs the full analysis suite over the raw dataset.
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the analysis suite over the raw dataset",
	Long: `Loads the raw dataset from <data>/raw/, cleans it, and runs phase
detection, correlation analysis, outlier detection, procedure-type pattern
analysis, power analysis and tool wear forecasting. Results are written to
<data>/processed/` + resultsFile + `.`,
	RunE: runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ds, err := loader.New(cfg.Data.RawDir()).LoadRaw()
	if err != nil {
		return fmt.Errorf("no raw dataset found (run 'scalpel generate' first): %w", err)
	}

	result, err := analyzer.New(cfg.Analyzer).Run(cmd.Context(), ds)
	if err != nil {
		return err
	}

	logger.Info("Analysis complete",
		zap.String("run_id", result.RunID),
		zap.Int("correlations", len(result.Correlations)),
		zap.Int("outliers", result.Outliers.TotalOutliers))
	if result.Phases != nil {
		logger.Info("Phase detection",
			zap.Float64("silhouette", result.Phases.SilhouetteScore),
			zap.Int("phases", len(result.Phases.Phases)))
	}

	if err := report.SaveResults(result, cfg.Data.ProcessedDir(), resultsFile); err != nil {
		return err
	}

	fmt.Printf("Analyzed %d procedures: %d correlations, %d outliers (rate %.1f%%)\n",
		result.Stats.TotalProcedures, len(result.Correlations),
		result.Outliers.TotalOutliers, result.Outliers.OutlierRate*100)
	return nil
}
