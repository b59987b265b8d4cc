package db

import (
	"database/sql"
	"fmt"
	"time"
)

// Run is one recorded transfer invocation.
type Run struct {
	RunID        int64     `yaml:"run_id"`
	StartedAt    time.Time `yaml:"started_at"`
	FinishedAt   time.Time `yaml:"finished_at"`
	ManifestPath string    `yaml:"manifest_path"`
	OutDir       string    `yaml:"out_dir"`
	LogPath      string    `yaml:"log_path"`
	TotalRows    int       `yaml:"total_rows"`
	InitialDone  int       `yaml:"initial_done"`
	FinalDone    int       `yaml:"final_done"`
	ExitCode     int       `yaml:"exit_code"`

	Verified      bool   `yaml:"verified"`
	VerifyOK      int    `yaml:"verify_ok,omitempty"`
	VerifyMissing int    `yaml:"verify_missing,omitempty"`
	VerifyEmpty   int    `yaml:"verify_empty,omitempty"`
	ReportPath    string `yaml:"report_path,omitempty"`
}

// RecordRun inserts a completed run and returns its id.
func (db *DB) RecordRun(r Run) (int64, error) {
	res, err := db.Exec(`
		INSERT INTO runs (
			started_at, finished_at, manifest_path, out_dir, log_path,
			total_rows, initial_done, final_done, exit_code,
			verified, verify_ok, verify_missing, verify_empty, report_path
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.StartedAt, r.FinishedAt, r.ManifestPath, r.OutDir, r.LogPath,
		r.TotalRows, r.InitialDone, r.FinalDone, r.ExitCode,
		r.Verified, nullableInt(r.Verified, r.VerifyOK), nullableInt(r.Verified, r.VerifyMissing),
		nullableInt(r.Verified, r.VerifyEmpty), nullableString(r.ReportPath),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to record run: %w", err)
	}
	return res.LastInsertId()
}

// ListRuns returns the most recent runs, newest first.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(`
		SELECT run_id, started_at, finished_at, manifest_path, out_dir, log_path,
		       total_rows, initial_done, final_done, exit_code,
		       verified, verify_ok, verify_missing, verify_empty, report_path
		FROM runs
		ORDER BY started_at DESC, run_id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRunByID returns one run.
func (db *DB) GetRunByID(runID int64) (*Run, error) {
	row := db.QueryRow(`
		SELECT run_id, started_at, finished_at, manifest_path, out_dir, log_path,
		       total_rows, initial_done, final_done, exit_code,
		       verified, verify_ok, verify_missing, verify_empty, report_path
		FROM runs WHERE run_id = ?`, runID)

	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %d not found", runID)
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(s rowScanner) (Run, error) {
	var r Run
	var ok, missing, empty sql.NullInt64
	var report sql.NullString
	err := s.Scan(
		&r.RunID, &r.StartedAt, &r.FinishedAt, &r.ManifestPath, &r.OutDir, &r.LogPath,
		&r.TotalRows, &r.InitialDone, &r.FinalDone, &r.ExitCode,
		&r.Verified, &ok, &missing, &empty, &report,
	)
	if err == sql.ErrNoRows {
		return r, err
	}
	if err != nil {
		return r, fmt.Errorf("failed to scan run: %w", err)
	}
	r.VerifyOK = int(ok.Int64)
	r.VerifyMissing = int(missing.Int64)
	r.VerifyEmpty = int(empty.Int64)
	r.ReportPath = report.String
	return r, nil
}

func nullableInt(valid bool, v int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(v), Valid: valid}
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
