// Package types defines the core data records shared by the loader,
// analyzer, visualizer and reporting layers. All records are plain structs
// with JSON tags so the processed result set can round-trip through
// data/processed/*.json without conversion shims.
package types

// Procedure is one surgical procedure's metadata and outcome metrics.
type Procedure struct {
	ProcedureID       string  `json:"procedure_id"`
	ProcedureType     string  `json:"procedure_type"`
	DurationMinutes   float64 `json:"duration_minutes"`
	EfficiencyScore   float64 `json:"efficiency_score"`
	SurgeonExperience int     `json:"surgeon_experience_yrs"`
	PatientBMI        float64 `json:"patient_bmi"`
	BloodLossML       float64 `json:"blood_loss_ml"`
	Complications     int     `json:"complications"` // 0 or 1
	SurgicalSite      string  `json:"surgical_site"`
	InstrumentChanges int     `json:"instrument_changes"`
}

// ToolMetric is one tool's usage record within a procedure.
type ToolMetric struct {
	ProcedureID       string  `json:"procedure_id"`
	ToolType          string  `json:"tool_type"`
	UsageTimeMinutes  float64 `json:"usage_time_minutes"`
	MaxForceApplied   float64 `json:"max_force_applied"`
	AvgTemperatureC   float64 `json:"avg_temperature_c"`
	ActivationCount   int     `json:"activation_count"`
	EfficiencyRating  float64 `json:"efficiency_rating"`
	StickingIncidents int     `json:"tissue_sticking_incidents"`
}

// SurgicalNote is the unstructured documentation attached to a procedure.
type SurgicalNote struct {
	ProcedureID      string `json:"procedure_id"`
	SurgeonNotes     string `json:"surgeon_notes"`
	NurseNotes       string `json:"nurse_notes"`
	AnesthesiaNotes  string `json:"anesthesia_notes"`
	DifficultyRating int    `json:"difficulty_rating"` // 1..5
	KeyObservations  string `json:"key_observations"`
}

// SensorSample is one telemetry sample from the instrument sensor suite,
// taken at a fixed 2-minute cadence during a procedure.
type SensorSample struct {
	ProcedureID      string  `json:"procedure_id"`
	TimestampMinutes int     `json:"timestamp_minutes"`
	ForceSensor      float64 `json:"force_sensor"`
	Temperature      float64 `json:"temperature"`
	MotorCurrent     float64 `json:"motor_current"`
	Vibration        float64 `json:"vibration"`
	Pressure         float64 `json:"pressure"`
}

// Dataset bundles the four record streams produced by generation or loaded
// from data/raw. The analyzer consumes a Dataset as a whole.
type Dataset struct {
	Procedures  []Procedure    `json:"procedures"`
	ToolMetrics []ToolMetric   `json:"tool_metrics"`
	Notes       []SurgicalNote `json:"surgical_notes"`
	SensorData  []SensorSample `json:"sensor_data"`
}

// ToolMetricsByProcedure groups the tool metrics by procedure ID.
func (d *Dataset) ToolMetricsByProcedure() map[string][]ToolMetric {
	out := make(map[string][]ToolMetric)
	for _, tm := range d.ToolMetrics {
		out[tm.ProcedureID] = append(out[tm.ProcedureID], tm)
	}
	return out
}

// SensorsByProcedure groups sensor samples by procedure ID, preserving the
// original sample order within each procedure.
func (d *Dataset) SensorsByProcedure() map[string][]SensorSample {
	out := make(map[string][]SensorSample)
	for _, s := range d.SensorData {
		out[s.ProcedureID] = append(out[s.ProcedureID], s)
	}
	return out
}

// ProcedureByID returns the procedure with the given ID, or nil.
func (d *Dataset) ProcedureByID(id string) *Procedure {
	for i := range d.Procedures {
		if d.Procedures[i].ProcedureID == id {
			return &d.Procedures[i]
		}
	}
	return nil
}
