// Package viz renders the analysis dashboards as self-contained HTML files
// using go-echarts: an efficiency overview, the detected-phase chart, an
// outlier explorer, a tool performance heatmap and a live-stream simulation
// of one procedure's telemetry.
package viz

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"scalpel/internal/logging"
	"scalpel/internal/types"
)

// Renderer writes dashboard HTML files into an output directory.
type Renderer struct {
	outDir string
}

// New returns a Renderer writing into outDir.
func New(outDir string) *Renderer {
	return &Renderer{outDir: outDir}
}

// RenderAll renders every dashboard that has data behind it and returns the
// paths written.
func (r *Renderer) RenderAll(result *types.AnalysisResult, ds *types.Dataset) ([]string, error) {
	timer := logging.StartTimer(logging.CategoryViz, "RenderAll")
	defer timer.Stop()

	var paths []string
	add := func(path string, err error) error {
		if err != nil {
			return err
		}
		paths = append(paths, path)
		return nil
	}

	if err := add(r.EfficiencyOverview(ds)); err != nil {
		return nil, err
	}
	if result.Phases != nil {
		if err := add(r.PhaseChart(result.Phases)); err != nil {
			return nil, err
		}
	}
	if err := add(r.OutlierExplorer(result.Outliers, ds)); err != nil {
		return nil, err
	}
	if err := add(r.ToolHeatmap(ds)); err != nil {
		return nil, err
	}
	if len(ds.SensorData) > 0 {
		if err := add(r.LiveStream(ds)); err != nil {
			return nil, err
		}
	}

	logging.Viz("Rendered %d dashboards to %s", len(paths), r.outDir)
	return paths, nil
}

// EfficiencyOverview renders the four-panel procedure efficiency dashboard.
func (r *Renderer) EfficiencyOverview(ds *types.Dataset) (string, error) {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Procedure Duration vs Efficiency"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Duration (minutes)", Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Efficiency Score"}),
		charts.WithVisualMapOpts(opts.VisualMap{Min: 0, Max: float32(maxBloodLoss(ds.Procedures))}),
	)
	points := make([]opts.ScatterData, 0, len(ds.Procedures))
	for _, p := range ds.Procedures {
		// Third dimension drives the visual map (blood loss).
		points = append(points, opts.ScatterData{
			Value: []interface{}{p.DurationMinutes, p.EfficiencyScore, p.BloodLossML},
		})
	}
	scatter.AddSeries("Procedures", points)

	usageBar := charts.NewBar()
	usageBar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Tool Usage Patterns"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Avg Usage Time (min)"}),
	)
	tools, usage := avgUsageByTool(ds.ToolMetrics)
	usageData := make([]opts.BarData, len(usage))
	for i, v := range usage {
		usageData[i] = opts.BarData{Value: v}
	}
	usageBar.SetXAxis(tools).AddSeries("Avg Usage Time", usageData)

	compBar := charts.NewBar()
	compBar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Complications by Procedure Type"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Complication Rate (%)"}),
	)
	ptypes, rates := complicationRates(ds.Procedures)
	rateData := make([]opts.BarData, len(rates))
	for i, v := range rates {
		rateData[i] = opts.BarData{Value: v * 100}
	}
	compBar.SetXAxis(ptypes).AddSeries("Complication Rate", rateData)

	expLine := charts.NewLine()
	expLine.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Surgeon Experience Impact"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Avg Efficiency Score"}),
	)
	bands, means := experienceBands(ds.Procedures)
	expData := make([]opts.LineData, len(means))
	for i, v := range means {
		expData[i] = opts.LineData{Value: v}
	}
	expLine.SetXAxis(bands).AddSeries("Experience Impact", expData)

	page := components.NewPage()
	page.AddCharts(scatter, usageBar, compBar, expLine)
	return r.renderPage("efficiency_overview.html", page)
}

// PhaseChart renders the average duration of each detected surgical phase.
func (r *Renderer) PhaseChart(pa *types.PhaseAnalysis) (string, error) {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Detected Surgical Phases - Average Duration",
			Subtitle: fmt.Sprintf("Silhouette score %.3f", pa.SilhouetteScore),
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Surgical Phase"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Average Duration (minutes)"}),
	)

	names := make([]string, len(pa.Phases))
	data := make([]opts.BarData, len(pa.Phases))
	for i, phase := range pa.Phases {
		names[i] = phase.PhaseName
		data[i] = opts.BarData{Value: phase.AvgDurationMins}
	}
	bar.SetXAxis(names).AddSeries("Avg Duration", data)

	page := components.NewPage()
	page.AddCharts(bar)
	return r.renderPage("surgical_phases.html", page)
}

// OutlierExplorer renders normal procedures against flagged outliers.
func (r *Renderer) OutlierExplorer(oa types.OutlierAnalysis, ds *types.Dataset) (string, error) {
	flagged := make(map[string]bool, len(oa.Outliers))
	for _, o := range oa.Outliers {
		flagged[o.ProcedureID] = true
	}

	var normal, outliers []opts.ScatterData
	for _, p := range ds.Procedures {
		point := opts.ScatterData{Value: []interface{}{p.DurationMinutes, p.EfficiencyScore}}
		if flagged[p.ProcedureID] {
			point.SymbolSize = 14
			outliers = append(outliers, point)
		} else {
			normal = append(normal, point)
		}
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Procedure Efficiency Outlier Detection"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Duration (minutes)", Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Efficiency Score"}),
	)
	scatter.AddSeries("Normal Procedures", normal)
	scatter.AddSeries("Efficiency Outliers", outliers)

	page := components.NewPage()
	page.AddCharts(scatter)
	return r.renderPage("outlier_explorer.html", page)
}

// Heatmap row order, bottom to top.
var heatmapMetrics = []string{
	"usage_time_minutes",
	"efficiency_rating",
	"max_force_applied",
	"tissue_sticking_incidents",
}

// ToolHeatmap renders per-tool mean performance metrics.
func (r *Renderer) ToolHeatmap(ds *types.Dataset) (string, error) {
	tools, grid := toolMetricGrid(ds.ToolMetrics)

	lo, hi := 0.0, 0.0
	var data []opts.HeatMapData
	for x := range tools {
		for y := range heatmapMetrics {
			v := grid[x][y]
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
			data = append(data, opts.HeatMapData{Value: [3]interface{}{x, y, v}})
		}
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Tool Performance Metrics Heatmap"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Tool Type", Type: "category", Data: tools}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Performance Metric", Type: "category", Data: heatmapMetrics}),
		charts.WithVisualMapOpts(opts.VisualMap{Min: float32(lo), Max: float32(hi)}),
	)
	hm.AddSeries("Tool Performance", data)

	page := components.NewPage()
	page.AddCharts(hm)
	return r.renderPage("tool_heatmap.html", page)
}

// LiveStream renders one procedure's sensor traces over time, simulating a
// real-time monitoring view.
func (r *Renderer) LiveStream(ds *types.Dataset) (string, error) {
	if len(ds.SensorData) == 0 {
		return "", fmt.Errorf("no sensor data to stream")
	}
	procID := ds.SensorData[0].ProcedureID
	var samples []types.SensorSample
	for _, s := range ds.SensorData {
		if s.ProcedureID == procID {
			samples = append(samples, s)
		}
	}
	sort.Slice(samples, func(i, j int) bool {
		return samples[i].TimestampMinutes < samples[j].TimestampMinutes
	})

	timestamps := make([]int, len(samples))
	for i, s := range samples {
		timestamps[i] = s.TimestampMinutes
	}

	trace := func(title, yName string, pick func(types.SensorSample) float64) *charts.Line {
		line := charts.NewLine()
		line.SetGlobalOptions(
			charts.WithTitleOpts(opts.Title{Title: title, Subtitle: "Procedure " + procID}),
			charts.WithXAxisOpts(opts.XAxis{Name: "Minutes"}),
			charts.WithYAxisOpts(opts.YAxis{Name: yName}),
		)
		data := make([]opts.LineData, len(samples))
		for i, s := range samples {
			data[i] = opts.LineData{Value: pick(s)}
		}
		line.SetXAxis(timestamps).AddSeries(title, data)
		return line
	}

	page := components.NewPage()
	page.AddCharts(
		trace("Force Sensor Readings", "Force (N)", func(s types.SensorSample) float64 { return s.ForceSensor }),
		trace("Motor Current", "Current (A)", func(s types.SensorSample) float64 { return s.MotorCurrent }),
		trace("Temperature Profile", "Temperature (C)", func(s types.SensorSample) float64 { return s.Temperature }),
		trace("Vibration Levels", "Vibration", func(s types.SensorSample) float64 { return s.Vibration }),
	)
	return r.renderPage("live_stream.html", page)
}

func (r *Renderer) renderPage(filename string, page *components.Page) (string, error) {
	if err := os.MkdirAll(r.outDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create dashboard directory: %w", err)
	}
	path := filepath.Join(r.outDir, filename)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := page.Render(f); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", path, err)
	}
	logging.Viz("Rendered %s", path)
	return path, nil
}
