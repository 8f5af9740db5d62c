package analyzer

import (
	"fmt"
	"math"
	"sort"

	"scalpel/internal/logging"
	"scalpel/internal/types"
)

// EfficiencyOutliers flags procedures with unusual efficiency patterns.
// Each procedure gets an anomaly score (the L2 norm of its standardized
// feature vector); the top contamination fraction is flagged.
func (a *Analyzer) EfficiencyOutliers(ds *types.Dataset) (types.OutlierAnalysis, error) {
	aggs := aggregateTools(ds.ToolMetrics)
	ids := sortedProcedureIDs(aggs)

	var procs []*types.Procedure
	var features [][]float64
	for _, id := range ids {
		p := ds.ProcedureByID(id)
		if p == nil {
			continue
		}
		agg := aggs[id]
		procs = append(procs, p)
		features = append(features, []float64{
			p.DurationMinutes,
			p.EfficiencyScore,
			agg.totalUsage,
			agg.meanRating,
			p.BloodLossML,
			float64(p.InstrumentChanges),
		})
	}
	if len(procs) < 5 {
		return types.OutlierAnalysis{}, fmt.Errorf("not enough merged records for outlier detection (%d)", len(procs))
	}

	scaled := standardize(features)
	scores := make([]float64, len(scaled))
	for i, row := range scaled {
		scores[i] = math.Sqrt(sqDist(row, make([]float64, len(row))))
	}

	contamination := a.cfg.OutlierContamination
	if contamination <= 0 || contamination >= 1 {
		contamination = 0.10
	}
	flagCount := int(math.Ceil(contamination * float64(len(procs))))

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return scores[order[i]] > scores[order[j]] })

	analysis := types.OutlierAnalysis{
		TotalOutliers: flagCount,
		OutlierRate:   float64(flagCount) / float64(len(procs)),
	}
	for _, idx := range order[:flagCount] {
		p := procs[idx]
		analysis.Outliers = append(analysis.Outliers, types.Outlier{
			ProcedureID:     p.ProcedureID,
			ProcedureType:   p.ProcedureType,
			DurationMinutes: p.DurationMinutes,
			EfficiencyScore: p.EfficiencyScore,
			BloodLossML:     p.BloodLossML,
			AnomalyScore:    scores[idx],
			LikelyCauses:    outlierCauses(p),
		})
	}
	sort.Slice(analysis.Outliers, func(i, j int) bool {
		return analysis.Outliers[i].ProcedureID < analysis.Outliers[j].ProcedureID
	})

	logging.Analyzer("Flagged %d/%d procedures as efficiency outliers", flagCount, len(procs))
	return analysis, nil
}

// outlierCauses identifies likely causes for an outlier procedure.
func outlierCauses(p *types.Procedure) []string {
	var causes []string
	if p.DurationMinutes > 200 {
		causes = append(causes, "Extended procedure duration")
	}
	if p.EfficiencyScore < 60 {
		causes = append(causes, "Low efficiency score")
	}
	if p.BloodLossML > 300 {
		causes = append(causes, "High blood loss")
	}
	if p.InstrumentChanges > 6 {
		causes = append(causes, "Frequent instrument changes")
	}
	if len(causes) == 0 {
		causes = []string{"Complex case factors"}
	}
	return causes
}
