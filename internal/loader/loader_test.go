package loader

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"scalpel/internal/types"
)

func sampleDataset() *types.Dataset {
	return &types.Dataset{
		Procedures: []types.Procedure{
			{
				ProcedureID: "PROC_0000", ProcedureType: "Hernia Repair",
				DurationMinutes: 95.5, EfficiencyScore: 88.2, SurgeonExperience: 12,
				PatientBMI: 27.1, BloodLossML: 120.7, Complications: 0,
				SurgicalSite: "Abdominal", InstrumentChanges: 3,
			},
			{
				ProcedureID: "PROC_0001", ProcedureType: "GI Surgery",
				DurationMinutes: 210.0, EfficiencyScore: 71.9, SurgeonExperience: 4,
				PatientBMI: 33.4, BloodLossML: 310.2, Complications: 1,
				SurgicalSite: "Pelvic", InstrumentChanges: 7,
			},
		},
		ToolMetrics: []types.ToolMetric{
			{
				ProcedureID: "PROC_0000", ToolType: "Stapler", UsageTimeMinutes: 12.5,
				MaxForceApplied: 3.1, AvgTemperatureC: 44.0, ActivationCount: 14,
				EfficiencyRating: 7.2, StickingIncidents: 0,
			},
			{
				ProcedureID: "PROC_0001", ToolType: "Ligasure", UsageTimeMinutes: 33.0,
				MaxForceApplied: 5.6, AvgTemperatureC: 51.3, ActivationCount: 22,
				EfficiencyRating: 5.9, StickingIncidents: 2,
			},
		},
		Notes: []types.SurgicalNote{
			{
				ProcedureID: "PROC_0000", SurgeonNotes: "Good hemostasis throughout",
				NurseNotes: "Patient tolerated procedure well.", AnesthesiaNotes: "Stable.",
				DifficultyRating: 2, KeyObservations: "Standard procedure",
			},
		},
		SensorData: []types.SensorSample{
			{ProcedureID: "PROC_0000", TimestampMinutes: 0, ForceSensor: 1.8, Temperature: 36.9, MotorCurrent: 1.4, Vibration: 0.3, Pressure: 12.1},
			{ProcedureID: "PROC_0000", TimestampMinutes: 2, ForceSensor: 2.2, Temperature: 37.2, MotorCurrent: 1.6, Vibration: 0.5, Pressure: 11.8},
		},
	}
}

func TestWriteLoadRoundtrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "raw")
	l := New(dir)
	want := sampleDataset()

	require.NoError(t, l.WriteRaw(want))

	got, err := l.LoadRaw()
	require.NoError(t, err)

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("dataset changed across write/load (-want +got):\n%s", diff)
	}
}

func TestLoadRawMissing(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope")).LoadRaw()
	if err == nil {
		t.Fatal("expected error loading from missing directory")
	}
}

func TestValidateCleanDataset(t *testing.T) {
	report := Validate(sampleDataset())

	if report.HasIssues {
		t.Errorf("clean dataset reported issues: %+v", report.Issues)
	}
	if report.ProcedureRecords != 2 || report.ToolRecords != 2 {
		t.Errorf("wrong record counts: %+v", report)
	}
}

func TestValidateFindsIssues(t *testing.T) {
	ds := sampleDataset()
	ds.Procedures[0].DurationMinutes = 600 // over 8 hours
	ds.Procedures[1].EfficiencyScore = 120
	ds.ToolMetrics = append(ds.ToolMetrics, types.ToolMetric{
		ProcedureID: "PROC_9999", ToolType: "Stapler",
	})
	ds.SensorData = append(ds.SensorData, types.SensorSample{ProcedureID: "PROC_9999"})

	report := Validate(ds)
	require.True(t, report.HasIssues)

	checks := make(map[string]int)
	for _, issue := range report.Issues {
		checks[issue.Check] = issue.Count
	}
	tests := []struct {
		check string
		count int
	}{
		{"duration_over_8h", 1},
		{"efficiency_over_100", 1},
		{"tool_orphans", 1},
		{"sensor_orphans", 1},
	}
	for _, tt := range tests {
		if checks[tt.check] != tt.count {
			t.Errorf("check %s: got count %d, want %d", tt.check, checks[tt.check], tt.count)
		}
	}
}

func TestCleanDropsOrphans(t *testing.T) {
	ds := sampleDataset()
	ds.ToolMetrics = append(ds.ToolMetrics, types.ToolMetric{ProcedureID: "PROC_9999", ToolType: "Stapler"})
	ds.Notes = append(ds.Notes, types.SurgicalNote{ProcedureID: "PROC_9999"})
	ds.SensorData = append(ds.SensorData, types.SensorSample{ProcedureID: "PROC_9999"})

	out := Clean(ds)

	if len(out.Procedures) != 2 {
		t.Errorf("got %d procedures, want 2", len(out.Procedures))
	}
	if len(out.ToolMetrics) != 2 {
		t.Errorf("orphan tool metric survived cleaning: %d records", len(out.ToolMetrics))
	}
	if len(out.Notes) != 1 {
		t.Errorf("orphan note survived cleaning: %d records", len(out.Notes))
	}
	if len(out.SensorData) != 2 {
		t.Errorf("orphan sensor sample survived cleaning: %d records", len(out.SensorData))
	}
}

func TestCleanDropsInvalidProcedures(t *testing.T) {
	ds := sampleDataset()
	ds.Procedures = append(ds.Procedures, types.Procedure{ProcedureID: "", ProcedureType: "Hernia Repair"})

	out := Clean(ds)
	if len(out.Procedures) != 2 {
		t.Errorf("procedure with missing ID survived cleaning")
	}
}
