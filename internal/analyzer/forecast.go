package analyzer

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"scalpel/internal/logging"
	"scalpel/internal/types"
)

// WearForecasts fits, per tool type, an ordinary least squares line of
// efficiency rating against cumulative activation count, then projects the
// rating at the configured wear horizon. A tool whose projection falls
// below the serviceability floor on a degrading trend is flagged.
func (a *Analyzer) WearForecasts(ds *types.Dataset) ([]types.WearForecast, error) {
	byTool := make(map[string][]types.ToolMetric)
	for _, tm := range ds.ToolMetrics {
		byTool[tm.ToolType] = append(byTool[tm.ToolType], tm)
	}

	names := make([]string, 0, len(byTool))
	for name := range byTool {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []types.WearForecast
	for _, name := range names {
		records := byTool[name]
		if len(records) < 3 {
			logging.AnalyzerDebug("Skipping wear forecast for %s: only %d records", name, len(records))
			continue
		}

		xs := make([]float64, len(records))
		ys := make([]float64, len(records))
		cumulative := 0
		for i, tm := range records {
			cumulative += tm.ActivationCount
			xs[i] = float64(cumulative)
			ys[i] = tm.EfficiencyRating
		}

		alpha, beta := stat.LinearRegression(xs, ys, nil, false)
		if math.IsNaN(alpha) || math.IsNaN(beta) {
			return nil, fmt.Errorf("wear regression failed for %s", name)
		}

		horizon := a.cfg.WearHorizonUses
		projected := alpha + beta*float64(horizon)
		r2 := stat.RSquared(xs, ys, nil, alpha, beta)

		out = append(out, types.WearForecast{
			ToolType:         name,
			Slope:            beta,
			Intercept:        alpha,
			RSquared:         r2,
			ProjectedRating:  projected,
			HorizonUses:      horizon,
			ServiceSuggested: beta < 0 && projected < a.cfg.ServiceabilityFloor,
		})
	}
	return out, nil
}
