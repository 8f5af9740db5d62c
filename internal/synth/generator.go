// Package synth generates the synthetic surgical cohort used in place of
// real clinical data. Generation is deterministic: the same seed always
// produces the same cohort.
package synth

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"scalpel/internal/config"
	"scalpel/internal/logging"
	"scalpel/internal/types"
)

// ProcedureTypes is the catalog of procedure types in the demo cohort.
var ProcedureTypes = []string{
	"Laparoscopic Cholecystectomy",
	"Bariatric Surgery",
	"Colorectal Surgery",
	"Hernia Repair",
	"GI Surgery",
}

// ToolCatalog is the six-instrument catalog tool metrics draw from.
var ToolCatalog = []string{
	"Harmonic Scalpel",
	"Ligasure",
	"Robotic Grasper",
	"Electrosurgical Pencil",
	"Stapler",
	"Suction/Irrigation",
}

var surgicalSites = []string{"Abdominal", "Thoracic", "Pelvic"}

var surgeonPhrases = []string{
	"Minimal bleeding controlled with electrocautery",
	"Some adhesions encountered, carefully dissected",
	"Clear anatomy, straightforward procedure",
	"Challenging anatomy, required careful dissection",
	"Dense adhesions present, took additional time",
	"Good hemostasis throughout",
	"Some instrument fogging encountered",
	"Tissue sticking to instrument tip occasionally",
}

// Generator produces synthetic procedure, tool, note and sensor records.
type Generator struct {
	cfg config.GeneratorConfig
	rng *rand.Rand

	duration     distuv.Normal
	efficiency   distuv.Normal
	bmi          distuv.Normal
	bloodLoss    distuv.Gamma
	instrChanges distuv.Poisson

	toolUsage      distuv.Uniform
	toolForce      distuv.Gamma
	toolTemp       distuv.Normal
	toolActivation distuv.Poisson
	toolRating     distuv.Normal
	toolSticking   distuv.Poisson

	sensorForce    distuv.Normal
	sensorTemp     distuv.Normal
	sensorCurrent  distuv.Normal
	sensorVibGamma distuv.Gamma
	sensorPressure distuv.Normal
}

// New returns a Generator seeded from cfg.Seed. The single PCG source is
// shared by every distribution so draws interleave deterministically.
func New(cfg config.GeneratorConfig) *Generator {
	if cfg.SensorIntervalMinutes <= 0 {
		cfg.SensorIntervalMinutes = 2
	}
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed<<1|1))

	return &Generator{
		cfg: cfg,
		rng: rng,

		duration:     distuv.Normal{Mu: 0, Sigma: 30, Src: rng}, // Mu set per procedure type
		efficiency:   distuv.Normal{Mu: 80, Sigma: 12, Src: rng},
		bmi:          distuv.Normal{Mu: 28, Sigma: 6, Src: rng},
		bloodLoss:    distuv.Gamma{Alpha: 2, Beta: 1.0 / 40.0, Src: rng}, // shape 2, scale 40
		instrChanges: distuv.Poisson{Lambda: 3, Src: rng},

		toolUsage:      distuv.Uniform{Min: 5, Max: 45, Src: rng},
		toolForce:      distuv.Gamma{Alpha: 2, Beta: 0.5, Src: rng}, // shape 2, scale 2
		toolTemp:       distuv.Normal{Mu: 45, Sigma: 10, Src: rng},
		toolActivation: distuv.Poisson{Lambda: 15, Src: rng},
		toolRating:     distuv.Normal{Mu: 7, Sigma: 1.5, Src: rng},
		toolSticking:   distuv.Poisson{Lambda: 0.5, Src: rng},

		sensorForce:    distuv.Normal{Mu: 2, Sigma: 0.8, Src: rng},
		sensorTemp:     distuv.Normal{Mu: 37, Sigma: 3, Src: rng},
		sensorCurrent:  distuv.Normal{Mu: 1.5, Sigma: 0.4, Src: rng},
		sensorVibGamma: distuv.Gamma{Alpha: 1, Beta: 2, Src: rng}, // shape 1, scale 0.5
		sensorPressure: distuv.Normal{Mu: 12, Sigma: 2, Src: rng},
	}
}

// Generate produces a full synthetic dataset of n procedures. When n <= 0
// the configured cohort size is used.
func (g *Generator) Generate(n int) *types.Dataset {
	timer := logging.StartTimer(logging.CategoryLoader, "Generate")
	defer timer.Stop()

	if n <= 0 {
		n = g.cfg.Procedures
	}
	logging.Loader("Generating sample surgical data for %d procedures", n)

	ds := &types.Dataset{}
	ds.Procedures = g.generateProcedures(n)
	ds.ToolMetrics = g.generateToolMetrics(ds.Procedures)
	ds.Notes = g.generateNotes(ds.Procedures)
	ds.SensorData = g.generateSensorData(ds.Procedures)

	logging.Loader("Generated %d procedures, %d tool records, %d sensor samples",
		len(ds.Procedures), len(ds.ToolMetrics), len(ds.SensorData))
	return ds
}

func (g *Generator) generateProcedures(n int) []types.Procedure {
	procs := make([]types.Procedure, 0, n)
	for i := 0; i < n; i++ {
		ptype := ProcedureTypes[g.rng.IntN(len(ProcedureTypes))]
		base := 180.0
		if ptype == "Laparoscopic Cholecystectomy" {
			base = 120.0
		}
		g.duration.Mu = base

		complications := 0
		if g.rng.Float64() < 0.08 {
			complications = 1
		}

		procs = append(procs, types.Procedure{
			ProcedureID:       fmt.Sprintf("PROC_%04d", i),
			ProcedureType:     ptype,
			DurationMinutes:   max(45, g.duration.Rand()),
			EfficiencyScore:   clamp(g.efficiency.Rand(), 60, 100),
			SurgeonExperience: 1 + g.rng.IntN(24),
			PatientBMI:        clamp(g.bmi.Rand(), 18, 45),
			BloodLossML:       max(10, g.bloodLoss.Rand()),
			Complications:     complications,
			SurgicalSite:      surgicalSites[g.rng.IntN(len(surgicalSites))],
			InstrumentChanges: int(g.instrChanges.Rand()),
		})
	}
	return procs
}

func (g *Generator) generateToolMetrics(procs []types.Procedure) []types.ToolMetric {
	var out []types.ToolMetric
	for _, p := range procs {
		// 3..7 drawn, capped at the catalog size
		numTools := min(3+g.rng.IntN(5), len(ToolCatalog))
		perm := g.rng.Perm(len(ToolCatalog))

		for _, idx := range perm[:numTools] {
			out = append(out, types.ToolMetric{
				ProcedureID:       p.ProcedureID,
				ToolType:          ToolCatalog[idx],
				UsageTimeMinutes:  g.toolUsage.Rand(),
				MaxForceApplied:   g.toolForce.Rand(),
				AvgTemperatureC:   g.toolTemp.Rand(),
				ActivationCount:   int(g.toolActivation.Rand()),
				EfficiencyRating:  g.toolRating.Rand(),
				StickingIncidents: int(g.toolSticking.Rand()),
			})
		}
	}
	return out
}

func (g *Generator) generateNotes(procs []types.Procedure) []types.SurgicalNote {
	notes := make([]types.SurgicalNote, 0, len(procs))
	for _, p := range procs {
		notes = append(notes, types.SurgicalNote{
			ProcedureID:      p.ProcedureID,
			SurgeonNotes:     surgeonPhrases[g.rng.IntN(len(surgeonPhrases))],
			NurseNotes:       fmt.Sprintf("Patient tolerated procedure well. Estimated blood loss %.0fml.", p.BloodLossML),
			AnesthesiaNotes:  "Stable hemodynamics throughout case.",
			DifficultyRating: 1 + g.rng.IntN(5),
			KeyObservations:  keyObservations(p),
		})
	}
	return notes
}

// keyObservations derives observation text from procedure outcomes.
func keyObservations(p types.Procedure) string {
	var obs []string
	if p.BloodLossML > 200 {
		obs = append(obs, "Higher than average blood loss")
	}
	if p.DurationMinutes > 180 {
		obs = append(obs, "Longer procedure duration")
	}
	if p.Complications == 1 {
		obs = append(obs, "Minor complications noted")
	}
	if p.PatientBMI > 35 {
		obs = append(obs, "Challenging anatomy due to BMI")
	}
	if len(obs) == 0 {
		return "Standard procedure"
	}
	joined := obs[0]
	for _, o := range obs[1:] {
		joined += "; " + o
	}
	return joined
}

// generateSensorData emits telemetry for a sampled subset of procedures at
// the configured cadence across each procedure's duration.
func (g *Generator) generateSensorData(procs []types.Procedure) []types.SensorSample {
	limit := g.cfg.SensorProcedures
	if limit <= 0 {
		limit = 50
	}
	if limit > len(procs) {
		limit = len(procs)
	}

	perm := g.rng.Perm(len(procs))
	var out []types.SensorSample
	for _, idx := range perm[:limit] {
		p := procs[idx]
		duration := int(p.DurationMinutes)
		for minute := 0; minute < duration; minute += g.cfg.SensorIntervalMinutes {
			out = append(out, types.SensorSample{
				ProcedureID:      p.ProcedureID,
				TimestampMinutes: minute,
				ForceSensor:      max(0, g.sensorForce.Rand()),
				Temperature:      g.sensorTemp.Rand(),
				MotorCurrent:     g.sensorCurrent.Rand(),
				Vibration:        g.sensorVibGamma.Rand(),
				Pressure:         g.sensorPressure.Rand(),
			})
		}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
