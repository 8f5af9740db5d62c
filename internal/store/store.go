// Package store persists analyzed cohorts in SQLite so dashboards and ad-hoc
// queries do not have to re-parse the raw CSV files.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"scalpel/internal/logging"
	"scalpel/internal/types"
)

// Store wraps the SQLite artifact database.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// Open initializes the SQLite database at the given path, creating the
// directory and schema as needed. Pass ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Open")
	defer timer.Stop()

	logging.Store("Opening artifact store at %s", path)

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("Failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite journal_mode=WAL: %v", err)
	}
	// synchronous=NORMAL is safe under WAL and much faster than FULL.
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite synchronous=NORMAL: %v", err)
	}

	s := &Store{db: db, dbPath: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	logging.StoreDebug("Schema initialized")
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for tests and ad-hoc queries.
func (s *Store) DB() *sql.DB { return s.db }

// SaveDataset replaces the stored procedures and tool metrics with the
// given dataset, in one transaction.
func (s *Store) SaveDataset(ds *types.Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	timer := logging.StartTimer(logging.CategoryStore, "SaveDataset")
	defer timer.Stop()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM tool_metrics"); err != nil {
		return fmt.Errorf("failed to clear tool_metrics: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM procedures"); err != nil {
		return fmt.Errorf("failed to clear procedures: %w", err)
	}

	procStmt, err := tx.Prepare(`INSERT INTO procedures
		(procedure_id, procedure_type, duration_minutes, efficiency_score,
		 surgeon_experience_yrs, patient_bmi, blood_loss_ml, complications,
		 surgical_site, instrument_changes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare procedure insert: %w", err)
	}
	defer procStmt.Close()

	for _, p := range ds.Procedures {
		if _, err := procStmt.Exec(p.ProcedureID, p.ProcedureType, p.DurationMinutes,
			p.EfficiencyScore, p.SurgeonExperience, p.PatientBMI, p.BloodLossML,
			p.Complications, p.SurgicalSite, p.InstrumentChanges); err != nil {
			return fmt.Errorf("failed to insert procedure %s: %w", p.ProcedureID, err)
		}
	}

	toolStmt, err := tx.Prepare(`INSERT INTO tool_metrics
		(procedure_id, tool_type, usage_time_minutes, max_force_applied,
		 avg_temperature_c, activation_count, efficiency_rating,
		 tissue_sticking_incidents)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare tool insert: %w", err)
	}
	defer toolStmt.Close()

	for _, tm := range ds.ToolMetrics {
		if _, err := toolStmt.Exec(tm.ProcedureID, tm.ToolType, tm.UsageTimeMinutes,
			tm.MaxForceApplied, tm.AvgTemperatureC, tm.ActivationCount,
			tm.EfficiencyRating, tm.StickingIncidents); err != nil {
			return fmt.Errorf("failed to insert tool metric for %s: %w", tm.ProcedureID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit dataset: %w", err)
	}

	logging.Store("Saved %d procedures and %d tool records", len(ds.Procedures), len(ds.ToolMetrics))
	return nil
}

// EfficientProcedures returns stored procedures above the efficiency
// threshold, most efficient first.
func (s *Store) EfficientProcedures(minEfficiency float64) ([]types.Procedure, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT procedure_id, procedure_type, duration_minutes,
		efficiency_score, surgeon_experience_yrs, patient_bmi, blood_loss_ml,
		complications, surgical_site, instrument_changes
		FROM procedures
		WHERE efficiency_score > ?
		ORDER BY efficiency_score DESC`, minEfficiency)
	if err != nil {
		return nil, fmt.Errorf("failed to query efficient procedures: %w", err)
	}
	defer rows.Close()

	var procs []types.Procedure
	for rows.Next() {
		var p types.Procedure
		if err := rows.Scan(&p.ProcedureID, &p.ProcedureType, &p.DurationMinutes,
			&p.EfficiencyScore, &p.SurgeonExperience, &p.PatientBMI, &p.BloodLossML,
			&p.Complications, &p.SurgicalSite, &p.InstrumentChanges); err != nil {
			return nil, fmt.Errorf("failed to scan procedure: %w", err)
		}
		procs = append(procs, p)
	}
	return procs, rows.Err()
}

// Stats reports row counts per table.
func (s *Store) Stats() (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]int)
	for _, table := range []string{"procedures", "tool_metrics"} {
		var n int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		stats[table] = n
	}
	return stats, nil
}
