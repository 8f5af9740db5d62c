// Package main implements the scalpel CLI: a batch pipeline that generates
// synthetic surgical workflow data, analyzes it, and renders dashboards and
// reports.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"scalpel/internal/config"
	"scalpel/internal/logging"
)

var (
	// Global flags
	cfgPath    string
	verbose    bool
	dataRoot   string
	seed       uint64
	procedures int

	// Loaded configuration
	cfg *config.Config

	// Logger
	logger *zap.Logger
)

// resultsFile is the processed result set consumed by dashboard and report.
const resultsFile = "analysis_results.json"

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "scalpel",
	Short: "scalpel - Surgical Workflow Intelligence Platform",
	Long: `scalpel is a batch analytics pipeline for surgical workflow data.

It generates a synthetic procedure cohort (no real clinical data), runs
statistical and ML analysis over it (phase clustering, efficiency
correlations, outlier detection, tool wear forecasting), and renders the
results as interactive dashboards and Markdown reports.

Pipeline order: generate -> analyze -> dashboard / report`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
		if dataRoot != "" {
			cfg.Data.Root = dataRoot
		}
		if cmd.Flags().Changed("seed") {
			cfg.Generator.Seed = seed
		}
		if verbose {
			cfg.Logging.Level = "debug"
		}

		// Initialize logger
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		return logging.Initialize(".", logging.Options{
			DebugMode:  cfg.Logging.DebugMode,
			Level:      cfg.Logging.Level,
			JSONFormat: cfg.Logging.JSONFormat,
			Categories: cfg.Logging.Categories,
		})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "scalpel.yaml", "Config file path")
	rootCmd.PersistentFlags().StringVar(&dataRoot, "data", "", "Data directory (default from config)")
	rootCmd.PersistentFlags().Uint64Var(&seed, "seed", 42, "Generator seed")

	generateCmd.Flags().IntVarP(&procedures, "procedures", "n", 0, "Number of procedures to generate (default from config)")
	queryCmd.Flags().Float64Var(&minEfficiency, "min-efficiency", 80, "Efficiency score threshold")
	reportCmd.Flags().StringVar(&reportName, "out", "", "Report filename (default: timestamped)")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(queryCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
