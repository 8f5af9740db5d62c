package analyzer

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scalpel/internal/config"
	"scalpel/internal/types"
)

// twoPhaseDataset builds telemetry with two well-separated regimes: a quiet
// setup phase and a high-force dissection phase.
func twoPhaseDataset(samplesPerPhase int) *types.Dataset {
	ds := &types.Dataset{
		Procedures: []types.Procedure{
			{ProcedureID: "PROC_0000", ProcedureType: "Hernia Repair", DurationMinutes: 120},
		},
	}
	for i := 0; i < samplesPerPhase; i++ {
		jitter := float64(i%5) * 0.01
		ds.SensorData = append(ds.SensorData, types.SensorSample{
			ProcedureID:      "PROC_0000",
			TimestampMinutes: i * 2,
			ForceSensor:      0.4 + jitter,
			MotorCurrent:     0.5 + jitter,
			Vibration:        0.1 + jitter,
			Pressure:         10 + jitter,
		})
	}
	for i := 0; i < samplesPerPhase; i++ {
		jitter := float64(i%5) * 0.01
		ds.SensorData = append(ds.SensorData, types.SensorSample{
			ProcedureID:      "PROC_0000",
			TimestampMinutes: (samplesPerPhase + i) * 2,
			ForceSensor:      3.5 + jitter,
			MotorCurrent:     2.4 + jitter,
			Vibration:        1.2 + jitter,
			Pressure:         18 + jitter,
		})
	}
	return ds
}

func TestDetectPhasesSeparatesRegimes(t *testing.T) {
	cfg := config.DefaultAnalyzerConfig()
	cfg.PhaseClusters = 2
	a := New(cfg)

	pa, err := a.DetectPhases(context.Background(), twoPhaseDataset(40))
	require.NoError(t, err)
	require.Len(t, pa.Phases, 2)
	require.Len(t, pa.Assignments, 80)

	assert.Greater(t, pa.SilhouetteScore, 0.8, "well-separated regimes should score high")

	// The two halves of the telemetry must land in different clusters.
	first, second := pa.Assignments[0].Phase, pa.Assignments[79].Phase
	assert.NotEqual(t, first, second)
	for i, asg := range pa.Assignments {
		want := first
		if i >= 40 {
			want = second
		}
		if asg.Phase != want {
			t.Fatalf("sample %d assigned phase %d, want %d", i, asg.Phase, want)
		}
	}

	names := map[string]bool{}
	for _, phase := range pa.Phases {
		names[phase.PhaseName] = true
		assert.Equal(t, 1, phase.ProcedureCount)
		assert.InDelta(t, 80.0, phase.AvgDurationMins, 1e-9, "40 samples at 2-minute cadence")
	}
	assert.True(t, names["Setup/Preparation"], "quiet regime should be named setup")
	assert.True(t, names["Active Dissection"], "high-force regime should be named dissection")
}

func TestDetectPhasesDeterministic(t *testing.T) {
	cfg := config.DefaultAnalyzerConfig()
	cfg.PhaseClusters = 2
	a := New(cfg)
	ds := twoPhaseDataset(30)

	first, err := a.DetectPhases(context.Background(), ds)
	require.NoError(t, err)
	second, err := a.DetectPhases(context.Background(), ds)
	require.NoError(t, err)

	for i := range first.Assignments {
		if first.Assignments[i].Phase != second.Assignments[i].Phase {
			t.Fatalf("assignment %d differs across runs", i)
		}
	}
}

func TestDetectPhasesTooFewSamples(t *testing.T) {
	cfg := config.DefaultAnalyzerConfig()
	a := New(cfg)

	ds := twoPhaseDataset(1)
	ds.SensorData = ds.SensorData[:2]
	if _, err := a.DetectPhases(context.Background(), ds); err == nil {
		t.Fatal("expected error with fewer samples than clusters")
	}
}

func TestDetectPhasesCancellation(t *testing.T) {
	cfg := config.DefaultAnalyzerConfig()
	a := New(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := a.DetectPhases(ctx, twoPhaseDataset(40)); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func TestNamePhase(t *testing.T) {
	tests := []struct {
		force   float64
		current float64
		want    string
	}{
		{0.5, 0.5, "Setup/Preparation"},
		{3.0, 2.2, "Active Dissection"},
		{1.8, 1.2, "Precise Manipulation"},
		{1.2, 1.6, "Closure/Finishing"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := namePhase(tt.force, tt.current); got != tt.want {
				t.Errorf("namePhase(%v, %v) = %q, want %q", tt.force, tt.current, got, tt.want)
			}
		})
	}
}

func TestStandardize(t *testing.T) {
	X := [][]float64{{1, 10}, {2, 10}, {3, 10}}
	out := standardize(X)
	require.Len(t, out, 3)

	// First column z-scores to mean 0.
	sum := 0.0
	for _, row := range out {
		sum += row[0]
	}
	assert.InDelta(t, 0.0, sum, 1e-9)
	assert.Less(t, out[0][0], 0.0)
	assert.Greater(t, out[2][0], 0.0)

	// Constant column stays at zero rather than dividing by zero.
	for i, row := range out {
		if row[1] != 0 {
			t.Errorf("constant column row %d = %v, want 0", i, row[1])
		}
	}
}

func TestKMeansClusterCount(t *testing.T) {
	var X [][]float64
	for c := 0; c < 3; c++ {
		center := float64(c) * 10
		for i := 0; i < 20; i++ {
			X = append(X, []float64{center + float64(i%3)*0.1, center - float64(i%2)*0.1})
		}
	}

	labels, err := kmeans(context.Background(), X, 3, 100)
	require.NoError(t, err)

	seen := map[int]bool{}
	for _, l := range labels {
		seen[l] = true
	}
	if len(seen) != 3 {
		t.Errorf("k-means used %d clusters, want 3", len(seen))
	}

	// Points from the same blob share a label.
	for c := 0; c < 3; c++ {
		first := labels[c*20]
		for i := 1; i < 20; i++ {
			if labels[c*20+i] != first {
				t.Fatalf("blob %d split across clusters (%s)", c, fmt.Sprint(labels[c*20:c*20+20]))
			}
		}
	}
}

func TestSilhouetteScoreBounds(t *testing.T) {
	X := [][]float64{{0, 0}, {0.1, 0}, {10, 10}, {10.1, 10}}
	labels := []int{0, 0, 1, 1}

	score := silhouetteScore(context.Background(), X, labels, 2)
	assert.Greater(t, score, 0.9)
	assert.LessOrEqual(t, score, 1.0)

	// Degenerate single cluster scores zero.
	if s := silhouetteScore(context.Background(), X, []int{0, 0, 0, 0}, 1); s != 0 {
		t.Errorf("single-cluster silhouette = %v, want 0", s)
	}
}

func TestSqDist(t *testing.T) {
	if d := sqDist([]float64{0, 3}, []float64{4, 0}); math.Abs(d-25) > 1e-12 {
		t.Errorf("sqDist = %v, want 25", d)
	}
}
