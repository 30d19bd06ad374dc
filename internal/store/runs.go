package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lox/servoasr/internal/models"
)

// Run is one generate invocation against a workbook.
type Run struct {
	ID           int64
	StartedAt    time.Time
	FinishedAt   sql.NullTime
	Workbook     string
	StationID    sql.NullString
	DatePolicy   string
	OutputPath   sql.NullString
	Forms        int
	Warnings     int
	Skipped      int
	Aborted      bool
	Success      bool
	ErrorMessage sql.NullString
}

// FormRecord is a generated ASR as kept in the ledger.
type FormRecord struct {
	ID          int64
	RunID       int64
	Sheet       string
	WindowStart time.Time
	WindowEnd   sql.NullTime
	FACount     int
	RACount     int
	Comment     string
	Blank       bool
}

// StartRun creates a new run record and returns it.
func (s *Store) StartRun(workbook, datePolicy string) (*Run, error) {
	run := &Run{
		StartedAt:  time.Now().UTC(),
		Workbook:   workbook,
		DatePolicy: datePolicy,
	}

	result, err := s.db.Exec(`
		INSERT INTO asr_runs (started_at, workbook, date_policy, success)
		VALUES (?, ?, ?, FALSE)
	`, run.StartedAt, run.Workbook, run.DatePolicy)
	if err != nil {
		return nil, err
	}

	run.ID, err = result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return run, nil
}

// CompleteRun updates the run with its results.
func (s *Store) CompleteRun(run *Run) error {
	if run == nil {
		return nil
	}

	run.FinishedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}

	_, err := s.db.Exec(`
		UPDATE asr_runs SET
			finished_at = ?,
			station_id = ?,
			output_path = ?,
			forms = ?,
			warnings = ?,
			skipped = ?,
			aborted = ?,
			success = ?,
			error_message = ?
		WHERE id = ?
	`, run.FinishedAt, run.StationID, run.OutputPath, run.Forms, run.Warnings,
		run.Skipped, run.Aborted, run.Success, run.ErrorMessage, run.ID)
	return err
}

// InsertForms records the forms written during a run.
func (s *Store) InsertForms(runID int64, forms []models.FormInstance) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO asr_forms (run_id, sheet, window_start, window_end, fa_count, ra_count, comment, blank)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, f := range forms {
		var end sql.NullTime
		if !f.WindowEnd.IsZero() {
			end = sql.NullTime{Time: f.WindowEnd, Valid: true}
		}
		if _, err := stmt.Exec(runID, f.Sheet, f.WindowStart, end, f.FACount, f.RACount, f.Comment, f.Blank); err != nil {
			return fmt.Errorf("insert form %s: %w", f.Sheet, err)
		}
	}
	return tx.Commit()
}

// RecentRuns returns the newest runs first. An empty stationID matches all.
func (s *Store) RecentRuns(stationID string, limit int) ([]Run, error) {
	rows, err := s.db.Query(`
		SELECT id, started_at, finished_at, workbook, station_id, date_policy, output_path,
		       COALESCE(forms, 0), COALESCE(warnings, 0), COALESCE(skipped, 0), aborted, success, error_message
		FROM asr_runs
		WHERE ? = '' OR station_id = ?
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, stationID, stationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Workbook, &r.StationID, &r.DatePolicy,
			&r.OutputPath, &r.Forms, &r.Warnings, &r.Skipped, &r.Aborted, &r.Success, &r.ErrorMessage); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *Store) FormsForRun(runID int64) ([]FormRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, run_id, sheet, window_start, window_end, fa_count, ra_count, comment, blank
		FROM asr_forms
		WHERE run_id = ?
		ORDER BY id
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var forms []FormRecord
	for rows.Next() {
		var f FormRecord
		if err := rows.Scan(&f.ID, &f.RunID, &f.Sheet, &f.WindowStart, &f.WindowEnd,
			&f.FACount, &f.RACount, &f.Comment, &f.Blank); err != nil {
			return nil, err
		}
		forms = append(forms, f)
	}
	return forms, rows.Err()
}
