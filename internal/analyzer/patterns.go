package analyzer

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"scalpel/internal/types"
)

// TypePatterns summarizes workflow characteristics per procedure type:
// average duration and efficiency, complication rate, the three most used
// tools, and average tool usage time.
func (a *Analyzer) TypePatterns(ds *types.Dataset) []types.TypePattern {
	byType := make(map[string][]*types.Procedure)
	for i := range ds.Procedures {
		p := &ds.Procedures[i]
		byType[p.ProcedureType] = append(byType[p.ProcedureType], p)
	}

	procType := make(map[string]string, len(ds.Procedures))
	for _, p := range ds.Procedures {
		procType[p.ProcedureID] = p.ProcedureType
	}

	toolCounts := make(map[string]map[string]int)
	toolUsage := make(map[string][]float64)
	for _, tm := range ds.ToolMetrics {
		pt, ok := procType[tm.ProcedureID]
		if !ok {
			continue
		}
		if toolCounts[pt] == nil {
			toolCounts[pt] = make(map[string]int)
		}
		toolCounts[pt][tm.ToolType]++
		toolUsage[pt] = append(toolUsage[pt], tm.UsageTimeMinutes)
	}

	names := make([]string, 0, len(byType))
	for name := range byType {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]types.TypePattern, 0, len(names))
	for _, name := range names {
		procs := byType[name]
		durations := make([]float64, len(procs))
		efficiencies := make([]float64, len(procs))
		complications := 0
		for i, p := range procs {
			durations[i] = p.DurationMinutes
			efficiencies[i] = p.EfficiencyScore
			complications += p.Complications
		}

		pattern := types.TypePattern{
			ProcedureType:    name,
			AvgDuration:      stat.Mean(durations, nil),
			AvgEfficiency:    stat.Mean(efficiencies, nil),
			ComplicationRate: float64(complications) / float64(len(procs)),
			CommonTools:      topTools(toolCounts[name], 3),
			ProcedureCount:   len(procs),
		}
		if usage := toolUsage[name]; len(usage) > 0 {
			pattern.AvgToolUsageTime = stat.Mean(usage, nil)
		}
		out = append(out, pattern)
	}
	return out
}

// topTools returns the n most frequently used tools with their counts.
func topTools(counts map[string]int, n int) map[string]int {
	type kv struct {
		tool  string
		count int
	}
	all := make([]kv, 0, len(counts))
	for tool, count := range counts {
		all = append(all, kv{tool, count})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].count != all[j].count {
			return all[i].count > all[j].count
		}
		return all[i].tool < all[j].tool
	})

	if n > len(all) {
		n = len(all)
	}
	out := make(map[string]int, n)
	for _, e := range all[:n] {
		out[e.tool] = e.count
	}
	return out
}
