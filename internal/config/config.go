// Package config holds the scalpel configuration. Config is loaded from a
// YAML file (scalpel.yaml by default), falls back to defaults when the file
// is absent, and honors a small set of environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all scalpel configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Data paths and generator sizing
	Data DataConfig `yaml:"data"`

	// Generator settings
	Generator GeneratorConfig `yaml:"generator"`

	// Analyzer thresholds
	Analyzer AnalyzerConfig `yaml:"analyzer"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// DataConfig configures where datasets and artifacts live on disk.
type DataConfig struct {
	// Root data directory; raw/ and processed/ live under it.
	Root string `yaml:"root"`

	// SQLite artifact store path.
	DatabasePath string `yaml:"database_path"`

	// Dashboard output directory.
	DashboardDir string `yaml:"dashboard_dir"`

	// Report output directory.
	ReportDir string `yaml:"report_dir"`
}

// RawDir returns the raw dataset directory.
func (d DataConfig) RawDir() string { return filepath.Join(d.Root, "raw") }

// ProcessedDir returns the processed results directory.
func (d DataConfig) ProcessedDir() string { return filepath.Join(d.Root, "processed") }

// GeneratorConfig configures synthetic cohort generation.
type GeneratorConfig struct {
	// Number of procedures to generate.
	Procedures int `yaml:"procedures"`

	// Seed for deterministic generation. Same seed, same cohort.
	Seed uint64 `yaml:"seed"`

	// Maximum number of procedures that get sensor telemetry.
	SensorProcedures int `yaml:"sensor_procedures"`

	// Sensor sampling interval in minutes.
	SensorIntervalMinutes int `yaml:"sensor_interval_minutes"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "scalpel",
		Version: "0.3.0",

		Data: DataConfig{
			Root:         "data",
			DatabasePath: filepath.Join("data", "surgical_analytics.db"),
			DashboardDir: "dashboards",
			ReportDir:    "reports",
		},

		Generator: GeneratorConfig{
			Procedures:            500,
			Seed:                  42,
			SensorProcedures:      50,
			SensorIntervalMinutes: 2,
		},

		Analyzer: DefaultAnalyzerConfig(),

		Logging: LoggingConfig{
			Level:     "info",
			DebugMode: false,
		},
	}
}

// Load reads the config from the given path, applying defaults and
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the config to the given path as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if root := os.Getenv("SCALPEL_DATA_ROOT"); root != "" {
		c.Data.Root = root
		c.Data.DatabasePath = filepath.Join(root, "surgical_analytics.db")
	}
	if db := os.Getenv("SCALPEL_DB_PATH"); db != "" {
		c.Data.DatabasePath = db
	}
	if seed := os.Getenv("SCALPEL_SEED"); seed != "" {
		if v, err := strconv.ParseUint(seed, 10, 64); err == nil {
			c.Generator.Seed = v
		}
	}
	if level := os.Getenv("SCALPEL_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if os.Getenv("SCALPEL_DEBUG") == "1" {
		c.Logging.DebugMode = true
	}
}
