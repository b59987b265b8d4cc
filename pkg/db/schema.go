package db

const schema = `
-- Performance and reliability settings
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;
PRAGMA temp_store = MEMORY;

-- Runs: one row per completed transfer invocation.
-- This table is an after-the-fact ledger for operators; resumability is
-- always derived from the download tree, never from these rows.
CREATE TABLE IF NOT EXISTS runs (
    run_id INTEGER PRIMARY KEY AUTOINCREMENT,
    started_at TIMESTAMP NOT NULL,
    finished_at TIMESTAMP NOT NULL,
    manifest_path TEXT NOT NULL,
    out_dir TEXT NOT NULL,
    log_path TEXT NOT NULL,
    total_rows INTEGER NOT NULL,
    initial_done INTEGER NOT NULL,
    final_done INTEGER NOT NULL,
    exit_code INTEGER NOT NULL,

    -- Verification block; NULLs when verification did not run
    verified BOOLEAN DEFAULT 0,
    verify_ok INTEGER,
    verify_missing INTEGER,
    verify_empty INTEGER,
    report_path TEXT
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);
CREATE INDEX IF NOT EXISTS idx_runs_manifest ON runs(manifest_path);
`
