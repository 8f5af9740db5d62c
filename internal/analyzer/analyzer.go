// Package analyzer computes the statistical and ML results over a surgical
// dataset: phase clustering, tool/outcome correlations, efficiency outliers,
// procedure-type patterns, power analysis and tool wear forecasts.
package analyzer

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"scalpel/internal/config"
	"scalpel/internal/loader"
	"scalpel/internal/logging"
	"scalpel/internal/types"
)

// Analyzer runs the analysis suite over a dataset.
type Analyzer struct {
	cfg config.AnalyzerConfig
}

// New returns an Analyzer with the given thresholds.
func New(cfg config.AnalyzerConfig) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// Run executes all analyses and assembles the result set. The dataset is
// validated as given, so the quality report reflects the raw records, then
// cleaned before analysis. Independent analyses run concurrently; the first
// failure cancels the rest.
func (a *Analyzer) Run(ctx context.Context, ds *types.Dataset) (*types.AnalysisResult, error) {
	timer := logging.StartTimer(logging.CategoryAnalyzer, "Run")
	defer timer.Stop()

	quality := loader.Validate(ds)
	ds = loader.Clean(ds)
	if len(ds.Procedures) == 0 {
		return nil, fmt.Errorf("dataset has no procedures")
	}

	result := &types.AnalysisResult{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Quality:     quality,
		Stats:       ProcedureStatistics(ds.Procedures),
		Power:       a.PowerAnalysis(),
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		result.Correlations, err = a.ToolCorrelations(ds)
		return err
	})
	g.Go(func() error {
		if len(ds.SensorData) == 0 {
			logging.Analyzer("No sensor data; skipping phase detection")
			return nil
		}
		phases, err := a.DetectPhases(ctx, ds)
		if err != nil {
			return err
		}
		result.Phases = phases
		return nil
	})
	g.Go(func() error {
		var err error
		result.Outliers, err = a.EfficiencyOutliers(ds)
		return err
	})
	g.Go(func() error {
		result.TypePatterns = a.TypePatterns(ds)
		return nil
	})
	g.Go(func() error {
		var err error
		result.WearForecast, err = a.WearForecasts(ds)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}

	logging.Analyzer("Run %s complete: %d correlations, %d outliers, %d type patterns",
		result.RunID, len(result.Correlations), result.Outliers.TotalOutliers, len(result.TypePatterns))
	return result, nil
}

// ProcedureStatistics computes cohort-level descriptive statistics.
func ProcedureStatistics(procs []types.Procedure) types.ProcedureStats {
	stats := types.ProcedureStats{
		TotalProcedures: len(procs),
		TypeCounts:      make(map[string]int),
	}
	if len(procs) == 0 {
		return stats
	}

	durations := make([]float64, len(procs))
	efficiencies := make([]float64, len(procs))
	bloodLoss := make([]float64, len(procs))
	experience := make([]float64, len(procs))
	complications := 0
	stats.ExperienceMin = procs[0].SurgeonExperience
	stats.ExperienceMax = procs[0].SurgeonExperience

	for i, p := range procs {
		stats.TypeCounts[p.ProcedureType]++
		durations[i] = p.DurationMinutes
		efficiencies[i] = p.EfficiencyScore
		bloodLoss[i] = p.BloodLossML
		experience[i] = float64(p.SurgeonExperience)
		complications += p.Complications
		if p.SurgeonExperience < stats.ExperienceMin {
			stats.ExperienceMin = p.SurgeonExperience
		}
		if p.SurgeonExperience > stats.ExperienceMax {
			stats.ExperienceMax = p.SurgeonExperience
		}
	}

	stats.AvgDuration = stat.Mean(durations, nil)
	stats.AvgEfficiency = stat.Mean(efficiencies, nil)
	stats.AvgBloodLossML = stat.Mean(bloodLoss, nil)
	stats.ExperienceMean = stat.Mean(experience, nil)
	stats.ComplicationRate = float64(complications) / float64(len(procs))
	return stats
}

// PowerAnalysis estimates required sample sizes for the standard effect
// sizes using the n = 16/d^2 approximation for a two-sample t-test at 80%
// power.
func (a *Analyzer) PowerAnalysis() []types.PowerEstimate {
	effectSizes := []float64{0.2, 0.5, 0.8}
	out := make([]types.PowerEstimate, 0, len(effectSizes))
	for _, d := range effectSizes {
		n := int(16 / (d * d))
		out = append(out, types.PowerEstimate{
			EffectSize:         d,
			RequiredSampleSize: n,
			Interpretation:     fmt.Sprintf("Requires %d procedures to detect %.1f effect size with 80%% power", n, d),
		})
	}
	return out
}

// toolAggregate holds per-procedure rollups of tool metrics.
type toolAggregate struct {
	totalUsage     float64
	meanForce      float64
	meanTemp       float64
	meanRating     float64
	totalSticking  int
	totalActivated int
}

// aggregateTools rolls tool metrics up per procedure: summed usage time and
// sticking incidents, means for the rest.
func aggregateTools(tms []types.ToolMetric) map[string]toolAggregate {
	type acc struct {
		usage, force, temp, rating float64
		sticking, activations, n   int
	}
	accs := make(map[string]*acc)
	for _, tm := range tms {
		a, ok := accs[tm.ProcedureID]
		if !ok {
			a = &acc{}
			accs[tm.ProcedureID] = a
		}
		a.usage += tm.UsageTimeMinutes
		a.force += tm.MaxForceApplied
		a.temp += tm.AvgTemperatureC
		a.rating += tm.EfficiencyRating
		a.sticking += tm.StickingIncidents
		a.activations += tm.ActivationCount
		a.n++
	}

	out := make(map[string]toolAggregate, len(accs))
	for id, a := range accs {
		n := float64(a.n)
		out[id] = toolAggregate{
			totalUsage:     a.usage,
			meanForce:      a.force / n,
			meanTemp:       a.temp / n,
			meanRating:     a.rating / n,
			totalSticking:  a.sticking,
			totalActivated: a.activations,
		}
	}
	return out
}

// sortedProcedureIDs returns the IDs present in the aggregate map in a
// stable order so downstream results are deterministic.
func sortedProcedureIDs(aggs map[string]toolAggregate) []string {
	ids := make([]string, 0, len(aggs))
	for id := range aggs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
