// Package report exports the analysis result set: a Markdown summary for
// humans under the reports directory, and JSON under data/processed for
// the visualizer and downstream tooling.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"scalpel/internal/logging"
	"scalpel/internal/types"
)

// SaveResults persists the full analysis result set as JSON under dir.
func SaveResults(result *types.AnalysisResult, dir, filename string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create processed directory: %w", err)
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	logging.Report("Results saved to %s", path)
	return nil
}

// LoadResults reads a previously saved result set.
func LoadResults(path string) (*types.AnalysisResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read results: %w", err)
	}
	var result types.AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse results: %w", err)
	}
	return &result, nil
}

const reportTemplate = `# Surgical Workflow Analysis Report

Generated on: {{.GeneratedAt.Format "2006-01-02 15:04:05"}}
Run ID: {{.RunID}}

## Executive Summary

This report summarizes insights from the analysis of {{.Stats.TotalProcedures}} surgical procedures.

## Key Findings

### Procedure Statistics
- **Total Procedures Analyzed**: {{.Stats.TotalProcedures}}
- **Average Procedure Duration**: {{printf "%.1f" .Stats.AvgDuration}} minutes
- **Average Efficiency Score**: {{printf "%.1f" .Stats.AvgEfficiency}}%
- **Complication Rate**: {{pct .Stats.ComplicationRate}}%
{{- if .Correlations}}

### Tool Performance Correlations
{{- range topCorrelations .Correlations}}
- {{.Interpretation}} (r = {{printf "%.3f" .Correlation}}, p = {{printf "%.4f" .PValue}})
{{- end}}
{{- end}}

### Efficiency Outliers
- **Outliers Identified**: {{.Outliers.TotalOutliers}}
- **Outlier Rate**: {{pct .Outliers.OutlierRate}}%
{{- if .Phases}}

### Surgical Phase Analysis
- **Phase Detection Quality**: Silhouette Score = {{printf "%.3f" .Phases.SilhouetteScore}}
{{- range .Phases.Phases}}
- **{{.PhaseName}}**: {{printf "%.1f" .AvgDurationMins}} minutes average
{{- end}}
{{- end}}
{{- if .WearForecast}}

### Tool Wear Forecast
{{- range .WearForecast}}
- **{{.ToolType}}**: projected rating {{printf "%.2f" .ProjectedRating}} at {{.HorizonUses}} uses{{if .ServiceSuggested}} (service suggested){{end}}
{{- end}}
{{- end}}

## Recommendations

1. **Tool Optimization**: Consider redesigning tools showing high correlation with extended procedure times
2. **Training Focus**: Develop targeted training for procedures with higher complication rates
3. **Process Improvement**: Analyze outlier procedures to identify best practices and areas for improvement

## Data Quality

- **Data Validation**: {{if .Quality.HasIssues}}ISSUES FOUND{{else}}PASSED{{end}}
- **Records Processed**: {{.Quality.ProcedureRecords}} procedures, {{.Quality.ToolRecords}} tool usage records
{{- range .Quality.Issues}}
- {{.Message}}
{{- end}}
`

var reportTmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"pct": func(v float64) string { return fmt.Sprintf("%.1f", v*100) },
	"topCorrelations": func(cs []types.Correlation) []types.Correlation {
		if len(cs) > 5 {
			return cs[:5]
		}
		return cs
	},
}).Parse(reportTemplate))

// Render produces the Markdown report text.
func Render(result *types.AnalysisResult) (string, error) {
	var sb strings.Builder
	if err := reportTmpl.Execute(&sb, result); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return sb.String(), nil
}

// Export renders the report and writes it under dir. The report text is
// returned for display.
func Export(result *types.AnalysisResult, dir, filename string) (string, error) {
	timer := logging.StartTimer(logging.CategoryReport, "Export")
	defer timer.Stop()

	text, err := Render(result)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create reports directory: %w", err)
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	logging.Report("Analysis report saved to %s", path)
	return text, nil
}

// DefaultReportName builds a timestamped report filename.
func DefaultReportName(now time.Time) string {
	return fmt.Sprintf("analysis_report_%s.md", now.Format("20060102_150405"))
}
