package types

import "time"

// Correlation is one tool-feature/outcome-metric Pearson correlation that
// cleared the reporting threshold.
type Correlation struct {
	Feature        string  `json:"feature"`
	Metric         string  `json:"metric"`
	Correlation    float64 `json:"correlation"`
	PValue         float64 `json:"p_value"`
	Interpretation string  `json:"interpretation"`
}

// PhaseSummary describes one detected surgical phase cluster.
type PhaseSummary struct {
	Phase           int     `json:"phase"`
	PhaseName       string  `json:"phase_name"`
	AvgDurationMins float64 `json:"avg_duration_minutes"`
	AvgForce        float64 `json:"avg_force"`
	AvgMotorCurrent float64 `json:"avg_motor_current"`
	ProcedureCount  int     `json:"n_procedures"`
}

// PhaseAssignment labels one sensor sample with its detected phase.
type PhaseAssignment struct {
	ProcedureID      string `json:"procedure_id"`
	TimestampMinutes int    `json:"timestamp_minutes"`
	Phase            int    `json:"phase"`
}

// PhaseAnalysis is the output of surgical phase detection.
type PhaseAnalysis struct {
	Assignments     []PhaseAssignment `json:"phase_assignments"`
	Phases          []PhaseSummary    `json:"phase_summary"`
	SilhouetteScore float64           `json:"silhouette_score"`
}

// Outlier is one procedure flagged by efficiency outlier detection.
type Outlier struct {
	ProcedureID     string   `json:"procedure_id"`
	ProcedureType   string   `json:"procedure_type"`
	DurationMinutes float64  `json:"duration"`
	EfficiencyScore float64  `json:"efficiency_score"`
	BloodLossML     float64  `json:"blood_loss"`
	AnomalyScore    float64  `json:"anomaly_score"`
	LikelyCauses    []string `json:"likely_causes"`
}

// OutlierAnalysis is the output of efficiency outlier detection.
type OutlierAnalysis struct {
	Outliers      []Outlier `json:"outlier_procedures"`
	TotalOutliers int       `json:"total_outliers"`
	OutlierRate   float64   `json:"outlier_rate"`
}

// TypePattern summarizes workflow characteristics for one procedure type.
type TypePattern struct {
	ProcedureType    string         `json:"procedure_type"`
	AvgDuration      float64        `json:"avg_duration"`
	AvgEfficiency    float64        `json:"avg_efficiency"`
	ComplicationRate float64        `json:"complication_rate"`
	CommonTools      map[string]int `json:"common_tools"` // top-3 tool -> use count
	AvgToolUsageTime float64        `json:"avg_tool_usage_time"`
	ProcedureCount   int            `json:"n_procedures"`
}

// PowerEstimate gives the sample size required to detect one effect size.
type PowerEstimate struct {
	EffectSize         float64 `json:"effect_size"`
	RequiredSampleSize int     `json:"required_sample_size"`
	Interpretation     string  `json:"interpretation"`
}

// WearForecast projects tool efficiency degradation against cumulative
// activations for one tool type.
type WearForecast struct {
	ToolType         string  `json:"tool_type"`
	Slope            float64 `json:"slope"`
	Intercept        float64 `json:"intercept"`
	RSquared         float64 `json:"r_squared"`
	ProjectedRating  float64 `json:"projected_rating"`
	HorizonUses      int     `json:"horizon_uses"`
	ServiceSuggested bool    `json:"service_suggested"`
}

// QualityIssue is one validation finding over the raw dataset.
type QualityIssue struct {
	Check   string `json:"check"`
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// QualityReport is the result of dataset validation.
type QualityReport struct {
	HasIssues        bool           `json:"has_issues"`
	Issues           []QualityIssue `json:"issues"`
	ProcedureRecords int            `json:"procedure_records"`
	ToolRecords      int            `json:"tool_records"`
}

// ProcedureStats holds cohort-level descriptive statistics.
type ProcedureStats struct {
	TotalProcedures  int            `json:"total_procedures"`
	TypeCounts       map[string]int `json:"procedure_types"`
	AvgDuration      float64        `json:"avg_duration_minutes"`
	AvgEfficiency    float64        `json:"avg_efficiency_score"`
	ComplicationRate float64        `json:"complication_rate"`
	AvgBloodLossML   float64        `json:"avg_blood_loss_ml"`
	ExperienceMin    int            `json:"surgeon_experience_min"`
	ExperienceMax    int            `json:"surgeon_experience_max"`
	ExperienceMean   float64        `json:"surgeon_experience_mean"`
}

// AnalysisResult is the full result set of one analyzer run. It is what gets
// persisted to data/processed and consumed by the visualizer and reporter.
type AnalysisResult struct {
	RunID        string          `json:"run_id"`
	GeneratedAt  time.Time       `json:"generated_at"`
	Stats        ProcedureStats  `json:"stats"`
	Quality      QualityReport   `json:"data_quality"`
	Correlations []Correlation   `json:"tool_correlations"`
	Phases       *PhaseAnalysis  `json:"phase_analysis,omitempty"`
	Outliers     OutlierAnalysis `json:"outlier_analysis"`
	TypePatterns []TypePattern   `json:"procedure_patterns"`
	Power        []PowerEstimate `json:"power_analysis"`
	WearForecast []WearForecast  `json:"wear_forecast"`
}
