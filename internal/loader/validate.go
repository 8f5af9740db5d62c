package loader

import (
	"fmt"
	"math"

	"scalpel/internal/logging"
	"scalpel/internal/types"
)

// Validation thresholds. Durations beyond eight hours and efficiency scores
// over 100% indicate corrupted or implausible records.
const (
	maxPlausibleDuration = 480.0
	maxEfficiencyScore   = 100.0
)

// Validate runs data quality checks over a dataset and reports findings
// without modifying the dataset.
func Validate(ds *types.Dataset) types.QualityReport {
	report := types.QualityReport{
		ProcedureRecords: len(ds.Procedures),
		ToolRecords:      len(ds.ToolMetrics),
	}

	addIssue := func(check string, count int, format string, args ...interface{}) {
		if count == 0 {
			return
		}
		report.Issues = append(report.Issues, types.QualityIssue{
			Check:   check,
			Message: fmt.Sprintf(format, args...),
			Count:   count,
		})
	}

	missing := 0
	longDurations := 0
	overEfficiency := 0
	for _, p := range ds.Procedures {
		if p.ProcedureID == "" || p.ProcedureType == "" || hasNaN(p.DurationMinutes, p.EfficiencyScore, p.PatientBMI, p.BloodLossML) {
			missing++
		}
		if p.DurationMinutes > maxPlausibleDuration {
			longDurations++
		}
		if p.EfficiencyScore > maxEfficiencyScore {
			overEfficiency++
		}
	}
	addIssue("missing_values", missing, "Procedures data has %d records with missing values", missing)
	addIssue("duration_over_8h", longDurations, "Found %d procedures with duration > 8 hours", longDurations)
	addIssue("efficiency_over_100", overEfficiency, "Found %d procedures with efficiency > 100%%", overEfficiency)

	known := make(map[string]bool, len(ds.Procedures))
	for _, p := range ds.Procedures {
		known[p.ProcedureID] = true
	}

	toolMissing := 0
	orphanTools := 0
	for _, tm := range ds.ToolMetrics {
		if tm.ToolType == "" || hasNaN(tm.UsageTimeMinutes, tm.MaxForceApplied, tm.EfficiencyRating) {
			toolMissing++
		}
		if !known[tm.ProcedureID] {
			orphanTools++
		}
	}
	addIssue("tool_missing_values", toolMissing, "Tool metrics has %d records with missing values", toolMissing)
	addIssue("tool_orphans", orphanTools, "Found %d tool records referencing unknown procedures", orphanTools)

	orphanSensors := 0
	for _, s := range ds.SensorData {
		if !known[s.ProcedureID] {
			orphanSensors++
		}
	}
	addIssue("sensor_orphans", orphanSensors, "Found %d sensor samples referencing unknown procedures", orphanSensors)

	report.HasIssues = len(report.Issues) > 0
	if report.HasIssues {
		logging.Get(logging.CategoryLoader).Warn("Validation found %d issue kinds", len(report.Issues))
	}
	return report
}

// Clean returns a copy of the dataset with unusable records dropped:
// procedures with missing keys or NaN metrics, and tool/note/sensor records
// referencing procedures that do not exist.
func Clean(ds *types.Dataset) *types.Dataset {
	out := &types.Dataset{}

	known := make(map[string]bool)
	for _, p := range ds.Procedures {
		if p.ProcedureID == "" || p.ProcedureType == "" {
			continue
		}
		if hasNaN(p.DurationMinutes, p.EfficiencyScore, p.PatientBMI, p.BloodLossML) {
			continue
		}
		out.Procedures = append(out.Procedures, p)
		known[p.ProcedureID] = true
	}

	for _, tm := range ds.ToolMetrics {
		if !known[tm.ProcedureID] || tm.ToolType == "" {
			continue
		}
		if hasNaN(tm.UsageTimeMinutes, tm.MaxForceApplied, tm.EfficiencyRating) {
			continue
		}
		out.ToolMetrics = append(out.ToolMetrics, tm)
	}

	for _, n := range ds.Notes {
		if known[n.ProcedureID] {
			out.Notes = append(out.Notes, n)
		}
	}

	for _, s := range ds.SensorData {
		if known[s.ProcedureID] {
			out.SensorData = append(out.SensorData, s)
		}
	}

	dropped := len(ds.Procedures) - len(out.Procedures)
	if dropped > 0 {
		logging.Loader("Cleaning dropped %d procedures", dropped)
	}
	return out
}

func hasNaN(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return false
}
