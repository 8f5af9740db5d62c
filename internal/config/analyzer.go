package config

// AnalyzerConfig holds analysis thresholds. The zero value is not usable;
// start from DefaultAnalyzerConfig.
type AnalyzerConfig struct {
	// Number of phase clusters for k-means.
	PhaseClusters int `yaml:"phase_clusters"`

	// Maximum Lloyd iterations before k-means gives up.
	KMeansMaxIterations int `yaml:"kmeans_max_iterations"`

	// Expected fraction of procedures flagged as outliers.
	OutlierContamination float64 `yaml:"outlier_contamination"`

	// Minimum |r| for a correlation to be reported.
	CorrelationFloor float64 `yaml:"correlation_floor"`

	// Wear forecast horizon in cumulative tool activations.
	WearHorizonUses int `yaml:"wear_horizon_uses"`

	// Efficiency rating below which a tool should be serviced.
	ServiceabilityFloor float64 `yaml:"serviceability_floor"`
}

// DefaultAnalyzerConfig returns analyzer defaults matching the documented
// demonstration behavior (4 phases, 10% contamination, |r| > 0.1).
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		PhaseClusters:        4,
		KMeansMaxIterations:  100,
		OutlierContamination: 0.10,
		CorrelationFloor:     0.1,
		WearHorizonUses:      500,
		ServiceabilityFloor:  5.0,
	}
}
