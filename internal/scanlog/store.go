// Package scanlog is a SQLite-backed implementation of the batch
// Recorder collaborator. The scoring core only ever sees the interface;
// this adapter owns the schema and transactional batch commits.
package scanlog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"harvestguard/pkg/models"
)

// Store persists scan results.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the scan log database.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create scan log directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open scan log db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply scan log schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS scans (
	id TEXT PRIMARY KEY,
	image_identifier TEXT NOT NULL,
	reconstruction_error REAL NOT NULL,
	is_anomaly INTEGER NOT NULL,
	decision TEXT NOT NULL,
	confidence REAL NOT NULL,
	user_id TEXT,
	scanned_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_scans_user ON scans(user_id, scanned_at);
`

// Record persists one scan result.
func (s *Store) Record(ctx context.Context, result models.ScanResult, userID string) error {
	_, err := s.db.ExecContext(ctx, insertScan,
		result.ID, result.ImageIdentifier, result.ReconstructionError,
		boolToInt(result.IsAnomaly), result.Decision, result.Confidence,
		userID, result.ScannedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("record scan: %w", err)
	}
	return nil
}

const insertScan = `
INSERT INTO scans (id, image_identifier, reconstruction_error, is_anomaly, decision, confidence, user_id, scanned_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

// RecordBatch persists a whole batch in one transaction, all or nothing.
func (s *Store) RecordBatch(ctx context.Context, results []models.ScanResult, userID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch record: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertScan)
	if err != nil {
		return fmt.Errorf("prepare batch record: %w", err)
	}
	defer stmt.Close()

	for i := range results {
		r := &results[i]
		if _, err := stmt.ExecContext(ctx,
			r.ID, r.ImageIdentifier, r.ReconstructionError,
			boolToInt(r.IsAnomaly), r.Decision, r.Confidence,
			userID, r.ScannedAt.UTC().Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("record scan %s: %w", r.ImageIdentifier, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch record: %w", err)
	}
	return nil
}

// History returns recent scans for one user, newest first.
func (s *Store) History(ctx context.Context, userID string, limit int) ([]models.ScanResult, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, image_identifier, reconstruction_error, is_anomaly, decision, confidence, scanned_at
		FROM scans WHERE user_id = ? ORDER BY scanned_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query scan history: %w", err)
	}
	defer rows.Close()

	var results []models.ScanResult
	for rows.Next() {
		var r models.ScanResult
		var anomaly int
		var scannedAt string
		if err := rows.Scan(&r.ID, &r.ImageIdentifier, &r.ReconstructionError,
			&anomaly, &r.Decision, &r.Confidence, &scannedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		r.IsAnomaly = anomaly != 0
		if ts, err := time.Parse(time.RFC3339Nano, scannedAt); err == nil {
			r.ScannedAt = ts
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// Counts returns total and flagged scan counts across all users.
func (s *Store) Counts(ctx context.Context) (total, flagged int, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(is_anomaly), 0) FROM scans`).Scan(&total, &flagged)
	if err != nil {
		return 0, 0, fmt.Errorf("count scans: %w", err)
	}
	return total, flagged, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
