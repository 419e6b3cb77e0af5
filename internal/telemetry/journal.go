// Package telemetry implements the diagnostics boundary: rate-limited log
// reporting and a durable SQLite journal of loop snapshots.
//
// Everything in this package is a read-only sink from the loop's point of
// view. Telemetry failures are logged and dropped - they must never stall
// or influence the control logic.
package telemetry

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/phototropic/heliostat/internal/engine"
)

//go:embed schema.sql
var schemaSQL string

// Journal persists per-tick snapshots to SQLite.
// Uses WAL mode so external tooling can read while the loop writes.
type Journal struct {
	db     *sql.DB
	runID  string
	logger *slog.Logger
	failed bool
}

// OpenJournal creates or opens the journal database, applies pragmas and
// schema, and registers a new run.
//
// This function is idempotent with respect to the schema - safe to reopen
// an existing journal file.
func OpenJournal(path, runID, profile string, startedAt time.Time, logger *slog.Logger) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to journal: %w", err)
	}

	// SQLite supports one writer at a time; keep a single connection to
	// avoid SQLITE_BUSY under load.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	if _, err := db.Exec(
		"INSERT INTO runs (id, started_at, profile) VALUES (?, ?, ?)",
		runID, startedAt.UTC().Format(time.RFC3339Nano), profile,
	); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to register run: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	return &Journal{db: db, runID: runID, logger: logger}, nil
}

// RunID returns the identifier of the run this journal records.
func (j *Journal) RunID() string {
	return j.runID
}

// Observe persists one snapshot. Implements engine.Observer.
//
// A write failure is logged once and the journal goes quiet; the loop is
// never allowed to fail on account of diagnostics.
func (j *Journal) Observe(s engine.Snapshot) {
	if j.failed {
		return
	}
	_, err := j.db.Exec(
		`INSERT INTO snapshots
		 (run_id, tick, at, position, gain, deadband, energy, error_avg,
		  movement_avg, cycles, gain_min, gain_max, deadband_min,
		  deadband_max, queue_len, drops)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.runID, s.Tick, s.Time.UTC().Format(time.RFC3339Nano),
		s.Position, s.Gain, s.Deadband, s.Energy, s.ErrorAvg,
		s.MovementAvg, s.Cycles, s.GainRange.Min, s.GainRange.Max,
		s.DeadbandRange.Min, s.DeadbandRange.Max, s.QueueLen, s.Drops,
	)
	if err != nil {
		j.logger.Error("journal write failed, disabling journal", "error", err, "run", j.runID)
		j.failed = true
	}
}

// SnapshotCount returns the number of snapshots recorded for this run.
// Used by tests and the CLI summary.
func (j *Journal) SnapshotCount() (int, error) {
	var n int
	err := j.db.QueryRow(
		"SELECT COUNT(*) FROM snapshots WHERE run_id = ?", j.runID,
	).Scan(&n)
	return n, err
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	return j.db.Close()
}
