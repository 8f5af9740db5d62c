package analyzer

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"scalpel/internal/logging"
	"scalpel/internal/types"
)

// Feature and metric orderings are fixed so the report is stable run to run.
var (
	toolFeatures = []string{"usage_time_minutes", "max_force_applied", "avg_temperature_c", "efficiency_rating"}
	outcomes     = []string{"duration_minutes", "efficiency_score", "blood_loss_ml", "complications"}
)

// ToolCorrelations merges procedures with per-procedure tool aggregates and
// reports every feature/outcome Pearson correlation above the configured
// floor, with a two-sided p-value.
func (a *Analyzer) ToolCorrelations(ds *types.Dataset) ([]types.Correlation, error) {
	aggs := aggregateTools(ds.ToolMetrics)
	if len(aggs) < 3 {
		return nil, fmt.Errorf("not enough tool metrics for correlation analysis (%d procedures)", len(aggs))
	}

	// Column vectors over procedures that have tool metrics, in ID order.
	cols := map[string][]float64{}
	for _, name := range append(append([]string{}, toolFeatures...), outcomes...) {
		cols[name] = nil
	}
	for _, id := range sortedProcedureIDs(aggs) {
		p := ds.ProcedureByID(id)
		if p == nil {
			continue
		}
		agg := aggs[id]
		cols["usage_time_minutes"] = append(cols["usage_time_minutes"], agg.totalUsage)
		cols["max_force_applied"] = append(cols["max_force_applied"], agg.meanForce)
		cols["avg_temperature_c"] = append(cols["avg_temperature_c"], agg.meanTemp)
		cols["efficiency_rating"] = append(cols["efficiency_rating"], agg.meanRating)
		cols["duration_minutes"] = append(cols["duration_minutes"], p.DurationMinutes)
		cols["efficiency_score"] = append(cols["efficiency_score"], p.EfficiencyScore)
		cols["blood_loss_ml"] = append(cols["blood_loss_ml"], p.BloodLossML)
		cols["complications"] = append(cols["complications"], float64(p.Complications))
	}

	n := len(cols["duration_minutes"])
	if n < 3 {
		return nil, fmt.Errorf("not enough merged records for correlation analysis (%d)", n)
	}

	var out []types.Correlation
	for _, metric := range outcomes {
		for _, feature := range toolFeatures {
			r := stat.Correlation(cols[feature], cols[metric], nil)
			if math.IsNaN(r) || math.Abs(r) <= a.cfg.CorrelationFloor {
				continue
			}
			out = append(out, types.Correlation{
				Feature:        feature,
				Metric:         metric,
				Correlation:    r,
				PValue:         pearsonPValue(r, n),
				Interpretation: interpretCorrelation(r, feature, metric),
			})
		}
	}

	logging.AnalyzerDebug("Correlation analysis kept %d of %d pairs", len(out), len(toolFeatures)*len(outcomes))
	return out, nil
}

// pearsonPValue computes the two-sided p-value for Pearson's r over n
// samples via the t distribution with n-2 degrees of freedom.
func pearsonPValue(r float64, n int) float64 {
	if n <= 2 {
		return 1
	}
	denom := 1 - r*r
	if denom <= 0 {
		return 0
	}
	t := r * math.Sqrt(float64(n-2)/denom)
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 2)}
	return 2 * dist.CDF(-math.Abs(t))
}

// interpretCorrelation renders the human-readable summary for a pair.
// A handful of well-known pairs get specific phrasing.
func interpretCorrelation(r float64, feature, metric string) string {
	strength := "weak"
	switch {
	case math.Abs(r) > 0.5:
		strength = "strong"
	case math.Abs(r) > 0.3:
		strength = "moderate"
	}
	direction := "negative"
	if r > 0 {
		direction = "positive"
	}

	switch feature + "_" + metric {
	case "max_force_applied_duration_minutes":
		return fmt.Sprintf("%s %s relationship between maximum force and procedure duration", strength, direction)
	case "efficiency_rating_efficiency_score":
		return fmt.Sprintf("%s %s relationship between tool efficiency and overall procedure efficiency", strength, direction)
	case "usage_time_minutes_blood_loss_ml":
		return fmt.Sprintf("%s %s relationship between tool usage time and blood loss", strength, direction)
	}
	return fmt.Sprintf("%s %s correlation", strength, direction)
}
