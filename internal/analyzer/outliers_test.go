package analyzer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scalpel/internal/config"
	"scalpel/internal/types"
)

// outlierDataset builds a homogeneous cohort plus one pathological case.
func outlierDataset(n int) *types.Dataset {
	ds := &types.Dataset{}
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("PROC_%04d", i)
		ds.Procedures = append(ds.Procedures, types.Procedure{
			ProcedureID:       id,
			ProcedureType:     "Hernia Repair",
			DurationMinutes:   100 + float64(i%5),
			EfficiencyScore:   85 + float64(i%3),
			BloodLossML:       100,
			InstrumentChanges: 3,
		})
		ds.ToolMetrics = append(ds.ToolMetrics, types.ToolMetric{
			ProcedureID:      id,
			ToolType:         "Stapler",
			UsageTimeMinutes: 15,
			EfficiencyRating: 7,
		})
	}

	// The pathological case: long, inefficient, bloody, chaotic.
	ds.Procedures = append(ds.Procedures, types.Procedure{
		ProcedureID:       "PROC_9999",
		ProcedureType:     "Bariatric Surgery",
		DurationMinutes:   400,
		EfficiencyScore:   45,
		BloodLossML:       500,
		InstrumentChanges: 9,
	})
	ds.ToolMetrics = append(ds.ToolMetrics, types.ToolMetric{
		ProcedureID:      "PROC_9999",
		ToolType:         "Stapler",
		UsageTimeMinutes: 44,
		EfficiencyRating: 3,
	})
	return ds
}

func TestEfficiencyOutliers(t *testing.T) {
	a := New(config.DefaultAnalyzerConfig())
	analysis, err := a.EfficiencyOutliers(outlierDataset(19))
	require.NoError(t, err)

	// ceil(0.10 * 20) = 2 flagged.
	assert.Equal(t, 2, analysis.TotalOutliers)
	assert.InDelta(t, 0.1, analysis.OutlierRate, 1e-9)
	require.Len(t, analysis.Outliers, 2)

	found := false
	for _, o := range analysis.Outliers {
		if o.ProcedureID == "PROC_9999" {
			found = true
			assert.Greater(t, o.AnomalyScore, 1.0)
			assert.Contains(t, o.LikelyCauses, "Extended procedure duration")
			assert.Contains(t, o.LikelyCauses, "Low efficiency score")
			assert.Contains(t, o.LikelyCauses, "High blood loss")
			assert.Contains(t, o.LikelyCauses, "Frequent instrument changes")
		}
	}
	assert.True(t, found, "the pathological case must be flagged")
}

func TestEfficiencyOutliersSorted(t *testing.T) {
	cfg := config.DefaultAnalyzerConfig()
	cfg.OutlierContamination = 0.3
	a := New(cfg)

	analysis, err := a.EfficiencyOutliers(outlierDataset(19))
	require.NoError(t, err)

	for i := 1; i < len(analysis.Outliers); i++ {
		if analysis.Outliers[i-1].ProcedureID > analysis.Outliers[i].ProcedureID {
			t.Fatal("outliers not sorted by procedure ID")
		}
	}
}

func TestEfficiencyOutliersTooFewRecords(t *testing.T) {
	a := New(config.DefaultAnalyzerConfig())
	_, err := a.EfficiencyOutliers(outlierDataset(3))
	if err == nil {
		t.Fatal("expected error with fewer than 5 merged records")
	}
}

func TestOutlierCauses(t *testing.T) {
	tests := []struct {
		name string
		proc types.Procedure
		want []string
	}{
		{
			name: "no specific cause",
			proc: types.Procedure{DurationMinutes: 120, EfficiencyScore: 80, BloodLossML: 100, InstrumentChanges: 3},
			want: []string{"Complex case factors"},
		},
		{
			name: "long duration only",
			proc: types.Procedure{DurationMinutes: 250, EfficiencyScore: 80, BloodLossML: 100, InstrumentChanges: 3},
			want: []string{"Extended procedure duration"},
		},
		{
			name: "everything wrong",
			proc: types.Procedure{DurationMinutes: 250, EfficiencyScore: 50, BloodLossML: 400, InstrumentChanges: 8},
			want: []string{
				"Extended procedure duration",
				"Low efficiency score",
				"High blood loss",
				"Frequent instrument changes",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, outlierCauses(&tt.proc))
		})
	}
}
