package synth

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scalpel/internal/config"
	"scalpel/internal/types"
)

func testGenConfig() config.GeneratorConfig {
	return config.GeneratorConfig{
		Procedures:            50,
		Seed:                  42,
		SensorProcedures:      10,
		SensorIntervalMinutes: 2,
	}
}

func TestGenerateDeterministic(t *testing.T) {
	a := New(testGenConfig()).Generate(0)
	b := New(testGenConfig()).Generate(0)

	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("same seed produced different cohorts (-first +second):\n%s", diff)
	}
}

func TestGenerateDifferentSeeds(t *testing.T) {
	cfg := testGenConfig()
	a := New(cfg).Generate(0)
	cfg.Seed = 7
	b := New(cfg).Generate(0)

	if cmp.Equal(a.Procedures, b.Procedures) {
		t.Error("different seeds produced identical procedures")
	}
}

func TestGenerateProcedureRanges(t *testing.T) {
	ds := New(testGenConfig()).Generate(200)
	require.Len(t, ds.Procedures, 200)

	validTypes := make(map[string]bool)
	for _, pt := range ProcedureTypes {
		validTypes[pt] = true
	}

	for _, p := range ds.Procedures {
		assert.Regexp(t, `^PROC_\d{4}$`, p.ProcedureID)
		assert.True(t, validTypes[p.ProcedureType], "unknown type %q", p.ProcedureType)
		assert.GreaterOrEqual(t, p.DurationMinutes, 45.0)
		assert.GreaterOrEqual(t, p.EfficiencyScore, 60.0)
		assert.LessOrEqual(t, p.EfficiencyScore, 100.0)
		assert.GreaterOrEqual(t, p.SurgeonExperience, 1)
		assert.LessOrEqual(t, p.SurgeonExperience, 24)
		assert.GreaterOrEqual(t, p.PatientBMI, 18.0)
		assert.LessOrEqual(t, p.PatientBMI, 45.0)
		assert.GreaterOrEqual(t, p.BloodLossML, 10.0)
		assert.Contains(t, []int{0, 1}, p.Complications)
		assert.GreaterOrEqual(t, p.InstrumentChanges, 0)
	}
}

func TestGenerateToolMetrics(t *testing.T) {
	ds := New(testGenConfig()).Generate(100)

	perProc := ds.ToolMetricsByProcedure()
	require.Len(t, perProc, 100, "every procedure should have tool metrics")

	validTools := make(map[string]bool)
	for _, tool := range ToolCatalog {
		validTools[tool] = true
	}

	sawFullCatalog := false
	for id, tms := range perProc {
		if len(tms) < 3 || len(tms) > len(ToolCatalog) {
			t.Errorf("procedure %s has %d tool records, want 3..%d", id, len(tms), len(ToolCatalog))
		}
		if len(tms) == len(ToolCatalog) {
			sawFullCatalog = true
		}
		seen := make(map[string]bool)
		for _, tm := range tms {
			if !validTools[tm.ToolType] {
				t.Errorf("unknown tool %q", tm.ToolType)
			}
			if seen[tm.ToolType] {
				t.Errorf("procedure %s uses tool %s twice", id, tm.ToolType)
			}
			seen[tm.ToolType] = true

			assert.GreaterOrEqual(t, tm.UsageTimeMinutes, 5.0)
			assert.LessOrEqual(t, tm.UsageTimeMinutes, 45.0)
			assert.Greater(t, tm.MaxForceApplied, 0.0)
		}
	}
	assert.True(t, sawFullCatalog, "large cohorts should use every tool in some procedure")
}

func TestGenerateNotes(t *testing.T) {
	ds := New(testGenConfig()).Generate(80)
	require.Len(t, ds.Notes, 80)

	for _, n := range ds.Notes {
		assert.NotEmpty(t, n.SurgeonNotes)
		assert.Contains(t, n.NurseNotes, "Estimated blood loss")
		assert.GreaterOrEqual(t, n.DifficultyRating, 1)
		assert.LessOrEqual(t, n.DifficultyRating, 5)
		assert.NotEmpty(t, n.KeyObservations)
	}
}

func TestKeyObservations(t *testing.T) {
	tests := []struct {
		name string
		proc types.Procedure
		want string
	}{
		{
			name: "standard",
			proc: types.Procedure{DurationMinutes: 90, BloodLossML: 50, PatientBMI: 25},
			want: "Standard procedure",
		},
		{
			name: "high blood loss",
			proc: types.Procedure{DurationMinutes: 90, BloodLossML: 250, PatientBMI: 25},
			want: "Higher than average blood loss",
		},
		{
			name: "long and complicated",
			proc: types.Procedure{DurationMinutes: 200, BloodLossML: 50, PatientBMI: 25, Complications: 1},
			want: "Longer procedure duration; Minor complications noted",
		},
		{
			name: "high bmi",
			proc: types.Procedure{DurationMinutes: 90, BloodLossML: 50, PatientBMI: 40},
			want: "Challenging anatomy due to BMI",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := keyObservations(tt.proc); got != tt.want {
				t.Errorf("keyObservations() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGenerateSensorData(t *testing.T) {
	ds := New(testGenConfig()).Generate(40)

	perProc := ds.SensorsByProcedure()
	assert.Len(t, perProc, 10, "sensor telemetry limited to configured subset")

	for id, samples := range perProc {
		p := ds.ProcedureByID(id)
		require.NotNil(t, p, "sensor samples reference procedure %s", id)

		for i, s := range samples {
			assert.Equal(t, i*2, s.TimestampMinutes, "2-minute cadence")
			assert.GreaterOrEqual(t, s.ForceSensor, 0.0)
			assert.Less(t, s.TimestampMinutes, int(p.DurationMinutes))
		}
	}
}
