package viz

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"scalpel/internal/types"
)

// avgUsageByTool returns tool names and their mean usage time, sorted by name.
func avgUsageByTool(tms []types.ToolMetric) ([]string, []float64) {
	byTool := make(map[string][]float64)
	for _, tm := range tms {
		byTool[tm.ToolType] = append(byTool[tm.ToolType], tm.UsageTimeMinutes)
	}

	tools := make([]string, 0, len(byTool))
	for tool := range byTool {
		tools = append(tools, tool)
	}
	sort.Strings(tools)

	means := make([]float64, len(tools))
	for i, tool := range tools {
		means[i] = stat.Mean(byTool[tool], nil)
	}
	return tools, means
}

// complicationRates returns procedure types and their complication rates,
// sorted by type name.
func complicationRates(procs []types.Procedure) ([]string, []float64) {
	total := make(map[string]int)
	complicated := make(map[string]int)
	for _, p := range procs {
		total[p.ProcedureType]++
		complicated[p.ProcedureType] += p.Complications
	}

	ptypes := make([]string, 0, len(total))
	for pt := range total {
		ptypes = append(ptypes, pt)
	}
	sort.Strings(ptypes)

	rates := make([]float64, len(ptypes))
	for i, pt := range ptypes {
		rates[i] = float64(complicated[pt]) / float64(total[pt])
	}
	return ptypes, rates
}

// Experience bands for the efficiency-by-experience panel.
var experienceBounds = [][2]int{{0, 5}, {5, 10}, {10, 25}}

// experienceBands buckets surgeons into experience bands and returns each
// band's mean efficiency score.
func experienceBands(procs []types.Procedure) ([]string, []float64) {
	labels := make([]string, len(experienceBounds))
	means := make([]float64, len(experienceBounds))
	for i, b := range experienceBounds {
		labels[i] = fmt.Sprintf("%d-%dyrs", b[0], b[1])
		var scores []float64
		for _, p := range procs {
			if p.SurgeonExperience > b[0] && p.SurgeonExperience <= b[1] {
				scores = append(scores, p.EfficiencyScore)
			}
		}
		if len(scores) > 0 {
			means[i] = stat.Mean(scores, nil)
		}
	}
	return labels, means
}

// toolMetricGrid builds the heatmap matrix: one column per tool, one row per
// metric in heatmapMetrics order.
func toolMetricGrid(tms []types.ToolMetric) ([]string, [][]float64) {
	type acc struct {
		usage, rating, force float64
		sticking             float64
		n                    int
	}
	accs := make(map[string]*acc)
	for _, tm := range tms {
		a, ok := accs[tm.ToolType]
		if !ok {
			a = &acc{}
			accs[tm.ToolType] = a
		}
		a.usage += tm.UsageTimeMinutes
		a.rating += tm.EfficiencyRating
		a.force += tm.MaxForceApplied
		a.sticking += float64(tm.StickingIncidents)
		a.n++
	}

	tools := make([]string, 0, len(accs))
	for tool := range accs {
		tools = append(tools, tool)
	}
	sort.Strings(tools)

	grid := make([][]float64, len(tools))
	for i, tool := range tools {
		a := accs[tool]
		n := float64(a.n)
		grid[i] = []float64{a.usage / n, a.rating / n, a.force / n, a.sticking / n}
	}
	return tools, grid
}

func maxBloodLoss(procs []types.Procedure) float64 {
	m := 0.0
	for _, p := range procs {
		if p.BloodLossML > m {
			m = p.BloodLossML
		}
	}
	return m
}
