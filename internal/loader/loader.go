// Package loader persists and restores the raw dataset under <data>/raw/
// and performs cleaning and validation before analysis. Structured records
// travel as CSV, unstructured notes as JSON, matching the demo data layout:
//
//	raw/procedures.csv
//	raw/tool_metrics.csv
//	raw/sensor_data.csv
//	raw/surgical_notes.json
package loader

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"scalpel/internal/logging"
	"scalpel/internal/types"
)

const (
	proceduresFile = "procedures.csv"
	toolsFile      = "tool_metrics.csv"
	sensorsFile    = "sensor_data.csv"
	notesFile      = "surgical_notes.json"
)

// Loader reads and writes raw datasets rooted at a raw data directory.
type Loader struct {
	rawDir string
}

// New returns a Loader rooted at rawDir.
func New(rawDir string) *Loader {
	return &Loader{rawDir: rawDir}
}

// WriteRaw persists all four record streams under the raw directory.
func (l *Loader) WriteRaw(ds *types.Dataset) error {
	timer := logging.StartTimer(logging.CategoryLoader, "WriteRaw")
	defer timer.Stop()

	if err := os.MkdirAll(l.rawDir, 0755); err != nil {
		return fmt.Errorf("failed to create raw directory: %w", err)
	}

	if err := l.writeProcedures(ds.Procedures); err != nil {
		return err
	}
	if err := l.writeToolMetrics(ds.ToolMetrics); err != nil {
		return err
	}
	if err := l.writeSensorData(ds.SensorData); err != nil {
		return err
	}
	if err := l.writeNotes(ds.Notes); err != nil {
		return err
	}

	logging.Loader("Wrote raw dataset to %s", l.rawDir)
	return nil
}

// LoadRaw restores a dataset previously written with WriteRaw.
func (l *Loader) LoadRaw() (*types.Dataset, error) {
	timer := logging.StartTimer(logging.CategoryLoader, "LoadRaw")
	defer timer.Stop()

	ds := &types.Dataset{}
	var err error

	if ds.Procedures, err = l.loadProcedures(); err != nil {
		return nil, err
	}
	if ds.ToolMetrics, err = l.loadToolMetrics(); err != nil {
		return nil, err
	}
	if ds.SensorData, err = l.loadSensorData(); err != nil {
		return nil, err
	}
	if ds.Notes, err = l.loadNotes(); err != nil {
		return nil, err
	}

	logging.Loader("Loaded %d procedures, %d tool records, %d sensor samples, %d notes",
		len(ds.Procedures), len(ds.ToolMetrics), len(ds.SensorData), len(ds.Notes))
	return ds, nil
}

func (l *Loader) writeProcedures(procs []types.Procedure) error {
	header := []string{
		"procedure_id", "procedure_type", "duration_minutes", "efficiency_score",
		"surgeon_experience_yrs", "patient_bmi", "blood_loss_ml", "complications",
		"surgical_site", "instrument_changes",
	}
	rows := make([][]string, 0, len(procs))
	for _, p := range procs {
		rows = append(rows, []string{
			p.ProcedureID,
			p.ProcedureType,
			ftoa(p.DurationMinutes),
			ftoa(p.EfficiencyScore),
			strconv.Itoa(p.SurgeonExperience),
			ftoa(p.PatientBMI),
			ftoa(p.BloodLossML),
			strconv.Itoa(p.Complications),
			p.SurgicalSite,
			strconv.Itoa(p.InstrumentChanges),
		})
	}
	return writeCSV(filepath.Join(l.rawDir, proceduresFile), header, rows)
}

func (l *Loader) loadProcedures() ([]types.Procedure, error) {
	rows, err := readCSV(filepath.Join(l.rawDir, proceduresFile), 10)
	if err != nil {
		return nil, err
	}
	procs := make([]types.Procedure, 0, len(rows))
	for _, r := range rows {
		p := types.Procedure{ProcedureID: r[0], ProcedureType: r[1], SurgicalSite: r[8]}
		if p.DurationMinutes, err = atof(r[2]); err != nil {
			return nil, fmt.Errorf("procedures.csv: bad duration for %s: %w", r[0], err)
		}
		if p.EfficiencyScore, err = atof(r[3]); err != nil {
			return nil, fmt.Errorf("procedures.csv: bad efficiency for %s: %w", r[0], err)
		}
		if p.SurgeonExperience, err = strconv.Atoi(r[4]); err != nil {
			return nil, fmt.Errorf("procedures.csv: bad experience for %s: %w", r[0], err)
		}
		if p.PatientBMI, err = atof(r[5]); err != nil {
			return nil, fmt.Errorf("procedures.csv: bad bmi for %s: %w", r[0], err)
		}
		if p.BloodLossML, err = atof(r[6]); err != nil {
			return nil, fmt.Errorf("procedures.csv: bad blood loss for %s: %w", r[0], err)
		}
		if p.Complications, err = strconv.Atoi(r[7]); err != nil {
			return nil, fmt.Errorf("procedures.csv: bad complications for %s: %w", r[0], err)
		}
		if p.InstrumentChanges, err = strconv.Atoi(r[9]); err != nil {
			return nil, fmt.Errorf("procedures.csv: bad instrument changes for %s: %w", r[0], err)
		}
		procs = append(procs, p)
	}
	return procs, nil
}

func (l *Loader) writeToolMetrics(tms []types.ToolMetric) error {
	header := []string{
		"procedure_id", "tool_type", "usage_time_minutes", "max_force_applied",
		"avg_temperature_c", "activation_count", "efficiency_rating",
		"tissue_sticking_incidents",
	}
	rows := make([][]string, 0, len(tms))
	for _, tm := range tms {
		rows = append(rows, []string{
			tm.ProcedureID,
			tm.ToolType,
			ftoa(tm.UsageTimeMinutes),
			ftoa(tm.MaxForceApplied),
			ftoa(tm.AvgTemperatureC),
			strconv.Itoa(tm.ActivationCount),
			ftoa(tm.EfficiencyRating),
			strconv.Itoa(tm.StickingIncidents),
		})
	}
	return writeCSV(filepath.Join(l.rawDir, toolsFile), header, rows)
}

func (l *Loader) loadToolMetrics() ([]types.ToolMetric, error) {
	rows, err := readCSV(filepath.Join(l.rawDir, toolsFile), 8)
	if err != nil {
		return nil, err
	}
	tms := make([]types.ToolMetric, 0, len(rows))
	for _, r := range rows {
		tm := types.ToolMetric{ProcedureID: r[0], ToolType: r[1]}
		if tm.UsageTimeMinutes, err = atof(r[2]); err != nil {
			return nil, fmt.Errorf("tool_metrics.csv: bad usage time: %w", err)
		}
		if tm.MaxForceApplied, err = atof(r[3]); err != nil {
			return nil, fmt.Errorf("tool_metrics.csv: bad max force: %w", err)
		}
		if tm.AvgTemperatureC, err = atof(r[4]); err != nil {
			return nil, fmt.Errorf("tool_metrics.csv: bad temperature: %w", err)
		}
		if tm.ActivationCount, err = strconv.Atoi(r[5]); err != nil {
			return nil, fmt.Errorf("tool_metrics.csv: bad activation count: %w", err)
		}
		if tm.EfficiencyRating, err = atof(r[6]); err != nil {
			return nil, fmt.Errorf("tool_metrics.csv: bad efficiency rating: %w", err)
		}
		if tm.StickingIncidents, err = strconv.Atoi(r[7]); err != nil {
			return nil, fmt.Errorf("tool_metrics.csv: bad sticking incidents: %w", err)
		}
		tms = append(tms, tm)
	}
	return tms, nil
}

func (l *Loader) writeSensorData(samples []types.SensorSample) error {
	header := []string{
		"procedure_id", "timestamp_minutes", "force_sensor", "temperature",
		"motor_current", "vibration", "pressure",
	}
	rows := make([][]string, 0, len(samples))
	for _, s := range samples {
		rows = append(rows, []string{
			s.ProcedureID,
			strconv.Itoa(s.TimestampMinutes),
			ftoa(s.ForceSensor),
			ftoa(s.Temperature),
			ftoa(s.MotorCurrent),
			ftoa(s.Vibration),
			ftoa(s.Pressure),
		})
	}
	return writeCSV(filepath.Join(l.rawDir, sensorsFile), header, rows)
}

func (l *Loader) loadSensorData() ([]types.SensorSample, error) {
	rows, err := readCSV(filepath.Join(l.rawDir, sensorsFile), 7)
	if err != nil {
		return nil, err
	}
	samples := make([]types.SensorSample, 0, len(rows))
	for _, r := range rows {
		s := types.SensorSample{ProcedureID: r[0]}
		if s.TimestampMinutes, err = strconv.Atoi(r[1]); err != nil {
			return nil, fmt.Errorf("sensor_data.csv: bad timestamp: %w", err)
		}
		if s.ForceSensor, err = atof(r[2]); err != nil {
			return nil, fmt.Errorf("sensor_data.csv: bad force: %w", err)
		}
		if s.Temperature, err = atof(r[3]); err != nil {
			return nil, fmt.Errorf("sensor_data.csv: bad temperature: %w", err)
		}
		if s.MotorCurrent, err = atof(r[4]); err != nil {
			return nil, fmt.Errorf("sensor_data.csv: bad motor current: %w", err)
		}
		if s.Vibration, err = atof(r[5]); err != nil {
			return nil, fmt.Errorf("sensor_data.csv: bad vibration: %w", err)
		}
		if s.Pressure, err = atof(r[6]); err != nil {
			return nil, fmt.Errorf("sensor_data.csv: bad pressure: %w", err)
		}
		samples = append(samples, s)
	}
	return samples, nil
}

func (l *Loader) writeNotes(notes []types.SurgicalNote) error {
	data, err := json.MarshalIndent(notes, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal notes: %w", err)
	}
	path := filepath.Join(l.rawDir, notesFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func (l *Loader) loadNotes() ([]types.SurgicalNote, error) {
	path := filepath.Join(l.rawDir, notesFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var notes []types.SurgicalNote
	if err := json.Unmarshal(data, &notes); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return notes, nil
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write header to %s: %w", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write rows to %s: %w", path, err)
	}
	w.Flush()
	return w.Error()
}

// readCSV reads a CSV file, checks the column count, and strips the header.
func readCSV(path string, wantCols int) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = wantCols
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[1:], nil
}

func ftoa(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func atof(s string) (float64, error) { return strconv.ParseFloat(s, 64) }
