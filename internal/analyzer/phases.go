package analyzer

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat"

	"scalpel/internal/logging"
	"scalpel/internal/types"
)

// Sensor telemetry is sampled every 2 minutes, so a phase's average duration
// is its average sample count per procedure times this cadence.
const sensorCadenceMinutes = 2

// Clustering is seeded with a fixed source so repeated runs over the same
// dataset produce the same phase labels.
const clusterSeed = 42

// DetectPhases clusters sensor samples into surgical phases with k-means
// over standardized (force, motor current, vibration, pressure) vectors.
func (a *Analyzer) DetectPhases(ctx context.Context, ds *types.Dataset) (*types.PhaseAnalysis, error) {
	timer := logging.StartTimer(logging.CategoryAnalyzer, "DetectPhases")
	defer timer.Stop()

	k := a.cfg.PhaseClusters
	if k < 2 {
		k = 2
	}
	if len(ds.SensorData) < k {
		return nil, fmt.Errorf("not enough sensor samples for %d phase clusters (%d)", k, len(ds.SensorData))
	}

	raw := make([][]float64, len(ds.SensorData))
	for i, s := range ds.SensorData {
		raw[i] = []float64{s.ForceSensor, s.MotorCurrent, s.Vibration, s.Pressure}
	}
	scaled := standardize(raw)

	labels, err := kmeans(ctx, scaled, k, a.cfg.KMeansMaxIterations)
	if err != nil {
		return nil, err
	}

	analysis := &types.PhaseAnalysis{
		Assignments: make([]types.PhaseAssignment, len(ds.SensorData)),
	}
	for i, s := range ds.SensorData {
		analysis.Assignments[i] = types.PhaseAssignment{
			ProcedureID:      s.ProcedureID,
			TimestampMinutes: s.TimestampMinutes,
			Phase:            labels[i],
		}
	}

	analysis.Phases = summarizePhases(ds.SensorData, raw, labels, k)
	analysis.SilhouetteScore = silhouetteScore(ctx, scaled, labels, k)

	logging.Analyzer("Detected %d phases over %d samples (silhouette %.3f)",
		k, len(ds.SensorData), analysis.SilhouetteScore)
	return analysis, nil
}

// summarizePhases computes per-phase characteristics from the raw
// (unstandardized) feature values.
func summarizePhases(samples []types.SensorSample, raw [][]float64, labels []int, k int) []types.PhaseSummary {
	out := make([]types.PhaseSummary, k)
	for phase := 0; phase < k; phase++ {
		var forces, currents []float64
		perProcedure := make(map[string]int)
		for i, lbl := range labels {
			if lbl != phase {
				continue
			}
			forces = append(forces, raw[i][0])
			currents = append(currents, raw[i][1])
			perProcedure[samples[i].ProcedureID]++
		}

		summary := types.PhaseSummary{Phase: phase}
		if len(forces) > 0 {
			summary.AvgForce = stat.Mean(forces, nil)
			summary.AvgMotorCurrent = stat.Mean(currents, nil)
			summary.ProcedureCount = len(perProcedure)

			total := 0
			for _, n := range perProcedure {
				total += n
			}
			summary.AvgDurationMins = float64(total) / float64(len(perProcedure)) * sensorCadenceMinutes
		}
		summary.PhaseName = namePhase(summary.AvgForce, summary.AvgMotorCurrent)
		out[phase] = summary
	}
	return out
}

// namePhase maps cluster centroid characteristics to a surgical phase label.
func namePhase(force, current float64) string {
	switch {
	case force < 1.0 && current < 1.0:
		return "Setup/Preparation"
	case force > 2.0 && current > 1.8:
		return "Active Dissection"
	case force > 1.5 && current < 1.5:
		return "Precise Manipulation"
	default:
		return "Closure/Finishing"
	}
}

// standardize z-scores each column. Constant columns stay at zero.
func standardize(X [][]float64) [][]float64 {
	if len(X) == 0 {
		return nil
	}
	dims := len(X[0])
	means := make([]float64, dims)
	stds := make([]float64, dims)

	col := make([]float64, len(X))
	for d := 0; d < dims; d++ {
		for i := range X {
			col[i] = X[i][d]
		}
		means[d] = stat.Mean(col, nil)
		stds[d] = stat.StdDev(col, nil)
	}

	out := make([][]float64, len(X))
	for i := range X {
		row := make([]float64, dims)
		for d := 0; d < dims; d++ {
			if stds[d] > 0 {
				row[d] = (X[i][d] - means[d]) / stds[d]
			}
		}
		out[i] = row
	}
	return out
}

// kmeans runs Lloyd's algorithm with k-means++ seeding.
func kmeans(ctx context.Context, X [][]float64, k, maxIter int) ([]int, error) {
	if maxIter <= 0 {
		maxIter = 100
	}
	rng := rand.New(rand.NewPCG(clusterSeed, clusterSeed+1))
	centroids := seedCentroids(rng, X, k)

	labels := make([]int, len(X))
	for iter := 0; iter < maxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		changed := false
		for i, x := range X {
			best, bestDist := 0, math.Inf(1)
			for c, centroid := range centroids {
				if d := sqDist(x, centroid); d < bestDist {
					best, bestDist = c, d
				}
			}
			if labels[i] != best {
				labels[i] = best
				changed = true
			}
		}

		// Recompute centroids; an emptied cluster is reseeded from the
		// point farthest from its centroid.
		counts := make([]int, k)
		next := make([][]float64, k)
		for c := range next {
			next[c] = make([]float64, len(X[0]))
		}
		for i, x := range X {
			counts[labels[i]]++
			for d := range x {
				next[labels[i]][d] += x[d]
			}
		}
		for c := range next {
			if counts[c] == 0 {
				far := farthestPoint(X, labels, centroids)
				copy(next[c], X[far])
				labels[far] = c
				counts[c] = 1
				changed = true
				continue
			}
			for d := range next[c] {
				next[c][d] /= float64(counts[c])
			}
		}
		centroids = next

		if !changed {
			break
		}
	}
	return labels, nil
}

// seedCentroids picks initial centroids k-means++ style: each next centroid
// is drawn with probability proportional to squared distance from the
// nearest existing centroid.
func seedCentroids(rng *rand.Rand, X [][]float64, k int) [][]float64 {
	centroids := make([][]float64, 0, k)
	first := append([]float64(nil), X[rng.IntN(len(X))]...)
	centroids = append(centroids, first)

	dists := make([]float64, len(X))
	for len(centroids) < k {
		total := 0.0
		for i, x := range X {
			d := math.Inf(1)
			for _, c := range centroids {
				if sd := sqDist(x, c); sd < d {
					d = sd
				}
			}
			dists[i] = d
			total += d
		}

		idx := len(X) - 1
		if total > 0 {
			target := rng.Float64() * total
			acc := 0.0
			for i, d := range dists {
				acc += d
				if acc >= target {
					idx = i
					break
				}
			}
		} else {
			idx = rng.IntN(len(X))
		}
		centroids = append(centroids, append([]float64(nil), X[idx]...))
	}
	return centroids
}

func farthestPoint(X [][]float64, labels []int, centroids [][]float64) int {
	far, farDist := 0, -1.0
	for i, x := range X {
		if d := sqDist(x, centroids[labels[i]]); d > farDist {
			far, farDist = i, d
		}
	}
	return far
}

func sqDist(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// silhouetteScore is the mean silhouette coefficient over all samples.
// Points in singleton clusters contribute zero.
func silhouetteScore(ctx context.Context, X [][]float64, labels []int, k int) float64 {
	n := len(X)
	if n == 0 || k < 2 {
		return 0
	}

	counts := make([]int, k)
	for _, l := range labels {
		counts[l]++
	}

	total := 0.0
	for i := 0; i < n; i++ {
		if i%1024 == 0 && ctx.Err() != nil {
			return 0
		}
		if counts[labels[i]] <= 1 {
			continue
		}

		// Mean distance to each cluster.
		sums := make([]float64, k)
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			sums[labels[j]] += math.Sqrt(sqDist(X[i], X[j]))
		}

		a := sums[labels[i]] / float64(counts[labels[i]]-1)
		b := math.Inf(1)
		for c := 0; c < k; c++ {
			if c == labels[i] || counts[c] == 0 {
				continue
			}
			if m := sums[c] / float64(counts[c]); m < b {
				b = m
			}
		}

		if m := math.Max(a, b); m > 0 {
			total += (b - a) / m
		}
	}
	return total / float64(n)
}
