// Package history provides SQLite-based storage for collection cycle
// outcomes. The durable opportunity store stays a plain JSON file for
// its external consumers; history is internal observability and gets a
// real database so past cycles can be queried and audited.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/pretorin-ai/govbizops/internal/model"
)

// dbFileName is the history database file inside the data directory.
const dbFileName = "govbizops.db"

// DB stores one row per collection cycle plus the notice IDs each cycle
// accepted.
type DB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures DB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent
	// performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the history database in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error
// is returned.
func Open(dbDir string, opts Options) (*DB, error) {
	dbPath := filepath.Join(dbDir, dbFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("history database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating new
	// files, mode=rwc allows creation.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &DB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *DB) Close() error {
	return hdb.db.Close()
}

// Path returns the database file path.
func (hdb *DB) Path() string {
	return hdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (hdb *DB) createTables() error {
	schema := `
	-- One row per finished collection cycle
	CREATE TABLE IF NOT EXISTS cycles (
		cycle_id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		window_from TEXT NOT NULL,
		window_to TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		total_fetched INTEGER NOT NULL,
		duplicates_merged INTEGER NOT NULL,
		non_matching_type INTEGER NOT NULL,
		already_collected INTEGER NOT NULL,
		newly_accepted INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_cycles_started ON cycles(started_at);

	-- Notice IDs accepted by each cycle
	CREATE TABLE IF NOT EXISTS cycle_notices (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		cycle_id TEXT NOT NULL,
		notice_id TEXT NOT NULL,
		UNIQUE(cycle_id, notice_id)
	);

	CREATE INDEX IF NOT EXISTS idx_notices_cycle ON cycle_notices(cycle_id);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// RecordCycle stores the cycle outcome and the notice IDs it accepted.
// Re-recording the same cycle ID replaces the stats row; notice rows are
// deduplicated by the UNIQUE constraint. Satisfies collector.Recorder.
func (hdb *DB) RecordCycle(ctx context.Context, stats model.CycleStats, acceptedIDs []string) error {
	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin history transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	query := `
	INSERT INTO cycles (cycle_id, started_at, window_from, window_to, duration_ms,
		total_fetched, duplicates_merged, non_matching_type, already_collected, newly_accepted)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(cycle_id) DO UPDATE SET
		duration_ms = excluded.duration_ms,
		total_fetched = excluded.total_fetched,
		duplicates_merged = excluded.duplicates_merged,
		non_matching_type = excluded.non_matching_type,
		already_collected = excluded.already_collected,
		newly_accepted = excluded.newly_accepted
	`

	if _, err := tx.ExecContext(ctx, query,
		stats.CycleID,
		stats.StartedAt.UTC().Format(time.RFC3339),
		stats.Window.From.UTC().Format(time.RFC3339),
		stats.Window.To.UTC().Format(time.RFC3339),
		stats.Duration.Milliseconds(),
		stats.TotalFetched,
		stats.DuplicatesMerged,
		stats.NonMatchingType,
		stats.AlreadyCollected,
		stats.NewlyAccepted,
	); err != nil {
		return fmt.Errorf("failed to insert cycle: %w", err)
	}

	for _, noticeID := range acceptedIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO cycle_notices (cycle_id, notice_id) VALUES (?, ?)
			 ON CONFLICT(cycle_id, notice_id) DO NOTHING`,
			stats.CycleID, noticeID,
		); err != nil {
			return fmt.Errorf("failed to insert cycle notice: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit history transaction: %w", err)
	}
	return nil
}

// RecentCycles returns the most recent cycles, newest first, up to limit.
// A non-positive limit returns every cycle.
func (hdb *DB) RecentCycles(ctx context.Context, limit int) ([]model.CycleStats, error) {
	query := `
	SELECT cycle_id, started_at, window_from, window_to, duration_ms,
		total_fetched, duplicates_merged, non_matching_type, already_collected, newly_accepted
	FROM cycles
	ORDER BY started_at DESC
	`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cycles: %w", err)
	}
	defer rows.Close()

	var results []model.CycleStats
	for rows.Next() {
		var (
			stats                 model.CycleStats
			startedAt, wFrom, wTo string
			durationMS            int64
		)
		if err := rows.Scan(
			&stats.CycleID,
			&startedAt,
			&wFrom,
			&wTo,
			&durationMS,
			&stats.TotalFetched,
			&stats.DuplicatesMerged,
			&stats.NonMatchingType,
			&stats.AlreadyCollected,
			&stats.NewlyAccepted,
		); err != nil {
			return nil, fmt.Errorf("failed to scan cycle: %w", err)
		}
		stats.StartedAt = parseTimestamp(startedAt)
		stats.Window.From = parseTimestamp(wFrom)
		stats.Window.To = parseTimestamp(wTo)
		stats.Duration = time.Duration(durationMS) * time.Millisecond
		results = append(results, stats)
	}

	return results, rows.Err()
}

// LastCycle returns the most recent cycle, or nil when no cycle has been
// recorded yet.
func (hdb *DB) LastCycle(ctx context.Context) (*model.CycleStats, error) {
	cycles, err := hdb.RecentCycles(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(cycles) == 0 {
		return nil, nil
	}
	return &cycles[0], nil
}

// NoticesForCycle returns the notice IDs a cycle accepted, in insertion
// order.
func (hdb *DB) NoticesForCycle(ctx context.Context, cycleID string) ([]string, error) {
	rows, err := hdb.db.QueryContext(ctx,
		`SELECT notice_id FROM cycle_notices WHERE cycle_id = ? ORDER BY id`,
		cycleID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query cycle notices: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan notice ID: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// CycleByID returns the stats row for one cycle, or nil when unknown.
func (hdb *DB) CycleByID(ctx context.Context, cycleID string) (*model.CycleStats, error) {
	query := `
	SELECT cycle_id, started_at, window_from, window_to, duration_ms,
		total_fetched, duplicates_merged, non_matching_type, already_collected, newly_accepted
	FROM cycles
	WHERE cycle_id = ?
	`

	var (
		stats                 model.CycleStats
		startedAt, wFrom, wTo string
		durationMS            int64
	)
	err := hdb.db.QueryRowContext(ctx, query, cycleID).Scan(
		&stats.CycleID,
		&startedAt,
		&wFrom,
		&wTo,
		&durationMS,
		&stats.TotalFetched,
		&stats.DuplicatesMerged,
		&stats.NonMatchingType,
		&stats.AlreadyCollected,
		&stats.NewlyAccepted,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cycle: %w", err)
	}

	stats.StartedAt = parseTimestamp(startedAt)
	stats.Window.From = parseTimestamp(wFrom)
	stats.Window.To = parseTimestamp(wTo)
	stats.Duration = time.Duration(durationMS) * time.Millisecond
	return &stats, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05", // SQLite default datetime format
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp attempts to parse a timestamp string using multiple
// formats. If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
