package store

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"time"
)

// StoreArtifact keeps a gzip-compressed copy of an exported PDF.
// Returns the artifact ID, or 0 if the same bytes were already stored.
func (s *Store) StoreArtifact(runID int64, fileName string, payload []byte) (int64, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(payload); err != nil {
		return 0, fmt.Errorf("compress artifact: %w", err)
	}
	if err := gz.Close(); err != nil {
		return 0, fmt.Errorf("close gzip: %w", err)
	}

	hash := sha256.Sum256(payload)

	result, err := s.db.Exec(`
		INSERT INTO artifacts (run_id, stored_at, file_name, payload_compressed, payload_hash)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(payload_hash) DO NOTHING
	`, runID, time.Now().UTC(), fileName, buf.Bytes(), hex.EncodeToString(hash[:]))
	if err != nil {
		return 0, fmt.Errorf("insert artifact: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	return result.LastInsertId()
}

// GetArtifact returns the file name and decompressed bytes of an artifact.
func (s *Store) GetArtifact(id int64) (string, []byte, error) {
	var name string
	var compressed []byte
	err := s.db.QueryRow(`SELECT file_name, payload_compressed FROM artifacts WHERE id = ?`, id).
		Scan(&name, &compressed)
	if err == sql.ErrNoRows {
		return "", nil, fmt.Errorf("artifact %d not found", id)
	}
	if err != nil {
		return "", nil, err
	}

	gz, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return "", nil, fmt.Errorf("open gzip: %w", err)
	}
	defer gz.Close()

	payload, err := io.ReadAll(gz)
	if err != nil {
		return "", nil, fmt.Errorf("decompress artifact: %w", err)
	}
	return name, payload, nil
}

// ArtifactForRun returns the ID of the PDF archived by a run. A run whose
// PDF matched an earlier copy byte for byte has none of its own.
func (s *Store) ArtifactForRun(runID int64) (int64, error) {
	var id int64
	err := s.db.QueryRow(`SELECT id FROM artifacts WHERE run_id = ? ORDER BY id DESC LIMIT 1`, runID).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("run %d has no archived PDF", runID)
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}
