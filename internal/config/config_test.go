package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "scalpel", cfg.Name)
	assert.Equal(t, 500, cfg.Generator.Procedures)
	assert.Equal(t, uint64(42), cfg.Generator.Seed)
	assert.Equal(t, 50, cfg.Generator.SensorProcedures)
	assert.Equal(t, filepath.Join("data", "surgical_analytics.db"), cfg.Data.DatabasePath)
	assert.Equal(t, filepath.Join("data", "raw"), cfg.Data.RawDir())
	assert.Equal(t, filepath.Join("data", "processed"), cfg.Data.ProcessedDir())

	assert.Equal(t, 4, cfg.Analyzer.PhaseClusters)
	assert.InDelta(t, 0.10, cfg.Analyzer.OutlierContamination, 1e-9)
	assert.InDelta(t, 0.1, cfg.Analyzer.CorrelationFloor, 1e-9)
	assert.Equal(t, 500, cfg.Analyzer.WearHorizonUses)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Generator, cfg.Generator)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scalpel.yaml")
	content := `
generator:
  procedures: 1000
  seed: 7
analyzer:
  phase_clusters: 3
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1000, cfg.Generator.Procedures)
	assert.Equal(t, uint64(7), cfg.Generator.Seed)
	assert.Equal(t, 3, cfg.Analyzer.PhaseClusters)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Untouched fields keep their defaults.
	assert.Equal(t, "scalpel", cfg.Name)
	assert.InDelta(t, 0.10, cfg.Analyzer.OutlierContamination, 1e-9)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("generator: [not a map"), 0644))

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed config")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SCALPEL_DATA_ROOT", "/tmp/scalpel-data")
	t.Setenv("SCALPEL_SEED", "99")
	t.Setenv("SCALPEL_LOG_LEVEL", "warn")
	t.Setenv("SCALPEL_DEBUG", "1")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/scalpel-data", cfg.Data.Root)
	assert.Equal(t, filepath.Join("/tmp/scalpel-data", "surgical_analytics.db"), cfg.Data.DatabasePath)
	assert.Equal(t, uint64(99), cfg.Generator.Seed)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.True(t, cfg.Logging.DebugMode)
}

func TestEnvDBPathWinsOverRoot(t *testing.T) {
	t.Setenv("SCALPEL_DATA_ROOT", "/tmp/scalpel-data")
	t.Setenv("SCALPEL_DB_PATH", "/tmp/elsewhere.db")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/elsewhere.db", cfg.Data.DatabasePath)
}

func TestSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "scalpel.yaml")

	want := DefaultConfig()
	want.Generator.Procedures = 250
	require.NoError(t, want.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want.Generator, got.Generator)
	assert.Equal(t, want.Analyzer, got.Analyzer)
}

func TestIsCategoryEnabled(t *testing.T) {
	off := LoggingConfig{}
	assert.False(t, off.IsCategoryEnabled("analyzer"), "debug_mode off disables everything")

	lc := LoggingConfig{DebugMode: true, Categories: map[string]bool{"analyzer": false}}
	assert.False(t, lc.IsCategoryEnabled("analyzer"))
	assert.True(t, lc.IsCategoryEnabled("loader"), "unlisted categories default on")

	all := LoggingConfig{DebugMode: true}
	assert.True(t, all.IsCategoryEnabled("analyzer"))
}
