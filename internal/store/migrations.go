package store

import (
	"database/sql"
	"fmt"
	"log"
	"time"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "Initial schema",
		SQL: `
CREATE TABLE IF NOT EXISTS stations (
    station_id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    river_site BOOLEAN DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS asr_runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    started_at DATETIME NOT NULL,
    finished_at DATETIME,
    workbook TEXT NOT NULL,
    station_id TEXT,
    date_policy TEXT,
    output_path TEXT,
    forms INTEGER,
    warnings INTEGER,
    skipped INTEGER,
    aborted BOOLEAN DEFAULT FALSE,
    success BOOLEAN DEFAULT FALSE,
    error_message TEXT
);

CREATE INDEX IF NOT EXISTS idx_asr_runs_station ON asr_runs(station_id, started_at);

CREATE TABLE IF NOT EXISTS asr_forms (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id INTEGER NOT NULL REFERENCES asr_runs(id),
    sheet TEXT NOT NULL,
    window_start DATETIME NOT NULL,
    window_end DATETIME,
    fa_count INTEGER,
    ra_count INTEGER,
    comment TEXT,
    blank BOOLEAN DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS idx_asr_forms_run ON asr_forms(run_id);
`,
	},
	{
		Version:     2,
		Description: "Exported PDF archive",
		SQL: `
CREATE TABLE IF NOT EXISTS artifacts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id INTEGER NOT NULL REFERENCES asr_runs(id),
    stored_at DATETIME NOT NULL,
    file_name TEXT NOT NULL,
    payload_compressed BLOB NOT NULL,
    payload_hash TEXT NOT NULL UNIQUE
);
`,
	},
}

// Migrate brings the ledger schema up to the latest version. Versions are
// applied in order, each in its own transaction, starting after the highest
// recorded one.
func (s *Store) Migrate() error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			description TEXT,
			applied_at DATETIME
		)
	`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	current, err := s.MigrationVersion()
	if err != nil {
		return fmt.Errorf("read ledger version: %w", err)
	}

	for i, m := range migrations {
		if m.Version != i+1 {
			return fmt.Errorf("migration %q has version %d, want %d", m.Description, m.Version, i+1)
		}
		if m.Version <= current {
			continue
		}
		if err := s.apply(m); err != nil {
			return fmt.Errorf("ledger v%d (%s): %w", m.Version, m.Description, err)
		}
		log.Printf("store: ledger schema now at v%d", m.Version)
	}
	return nil
}

func (s *Store) apply(m migration) (err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.Exec(m.SQL); err != nil {
		return err
	}
	if _, err = tx.Exec(
		"INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)",
		m.Version, m.Description, time.Now().UTC(),
	); err != nil {
		return err
	}
	return tx.Commit()
}

// MigrationVersion is the highest applied schema version, 0 for a fresh ledger.
func (s *Store) MigrationVersion() (int, error) {
	var version sql.NullInt64
	if err := s.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version); err != nil {
		return 0, err
	}
	return int(version.Int64), nil
}
