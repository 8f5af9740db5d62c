package store

import (
	"fmt"

	"scalpel/internal/logging"
)

// Schema versions:
// v1: procedures and tool_metrics tables
// v2: surgical_site and instrument_changes columns on procedures,
//     avg_temperature_c / activation_count / tissue_sticking_incidents on
//     tool_metrics, plus the efficiency index
const CurrentSchemaVersion = 2

var createStatements = []string{
	`CREATE TABLE IF NOT EXISTS procedures (
		procedure_id TEXT PRIMARY KEY,
		procedure_type TEXT,
		duration_minutes REAL,
		efficiency_score REAL,
		surgeon_experience_yrs INTEGER,
		patient_bmi REAL,
		blood_loss_ml REAL,
		complications INTEGER,
		surgical_site TEXT,
		instrument_changes INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS tool_metrics (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		procedure_id TEXT,
		tool_type TEXT,
		usage_time_minutes REAL,
		max_force_applied REAL,
		avg_temperature_c REAL,
		activation_count INTEGER,
		efficiency_rating REAL,
		tissue_sticking_incidents INTEGER,
		FOREIGN KEY (procedure_id) REFERENCES procedures (procedure_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_procedures_efficiency
		ON procedures (efficiency_score)`,
	`CREATE INDEX IF NOT EXISTS idx_tool_metrics_procedure
		ON tool_metrics (procedure_id)`,
}

// columnMigration adds a column to a table when an older database is
// missing it.
type columnMigration struct {
	Table  string
	Column string
	Def    string
}

// pendingMigrations lists column additions for databases created before v2.
var pendingMigrations = []columnMigration{
	{"procedures", "surgical_site", "TEXT DEFAULT ''"},
	{"procedures", "instrument_changes", "INTEGER DEFAULT 0"},
	{"tool_metrics", "avg_temperature_c", "REAL DEFAULT 0"},
	{"tool_metrics", "activation_count", "INTEGER DEFAULT 0"},
	{"tool_metrics", "tissue_sticking_incidents", "INTEGER DEFAULT 0"},
}

// migrate creates the schema and upgrades older databases in place.
func (s *Store) migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, stmt := range createStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	if version > 0 && version < CurrentSchemaVersion {
		logging.Store("Migrating schema v%d -> v%d", version, CurrentSchemaVersion)
		for _, m := range pendingMigrations {
			if s.columnExists(m.Table, m.Column) {
				continue
			}
			stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", m.Table, m.Column, m.Def)
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("failed to add %s.%s: %w", m.Table, m.Column, err)
			}
			logging.StoreDebug("Added column %s.%s", m.Table, m.Column)
		}
	}

	if version != CurrentSchemaVersion {
		if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", CurrentSchemaVersion)); err != nil {
			return fmt.Errorf("failed to set schema version: %w", err)
		}
	}
	return nil
}

func (s *Store) columnExists(table, column string) bool {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid       int
			name      string
			ctype     string
			notnull   int
			dfltValue interface{}
			pk        int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return false
		}
		if name == column {
			return true
		}
	}
	return false
}
