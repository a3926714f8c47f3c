package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/boardcrawl/internal/model"
)

// FileName is the name of the database file inside the data directory.
const FileName = "boardcrawl.db"

// DefaultListLimit is the number of runs ListRuns returns for a
// non-positive limit.
const DefaultListLimit = 20

// ErrRunNotFound is returned by GetRun for an unknown id.
var ErrRunNotFound = errors.New("run not found")

// RunDB is the run history store.
type RunDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures RunDB behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file when missing.
	CreateIfNotExists bool

	// EnableWAL enables write-ahead logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the run history in dbDir.
func Open(dbDir string, opts Options) (*RunDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &RunDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := rdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return rdb, nil
}

// Path returns the database file path.
func (r *RunDB) Path() string {
	return r.dbPath
}

// Close closes the database connection.
func (r *RunDB) Close() error {
	return r.db.Close()
}

func (r *RunDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		root_url TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		begin_from_board INTEGER NOT NULL DEFAULT 1,
		begin_from_topic INTEGER NOT NULL DEFAULT 1,
		last_board INTEGER NOT NULL DEFAULT 0,
		last_topic INTEGER NOT NULL DEFAULT 0,
		topics_processed INTEGER NOT NULL DEFAULT 0,
		records_written INTEGER NOT NULL DEFAULT 0,
		interrupted INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		stats_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`
	_, err := r.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRun stores stats and returns the new run id.
func (r *RunDB) SaveRun(ctx context.Context, stats *model.RunStats) (int64, error) {
	if stats == nil {
		return 0, errors.New("run stats are nil")
	}

	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize run stats: %w", err)
	}

	var finished sql.NullString
	if !stats.FinishedAt.IsZero() {
		finished = sql.NullString{String: formatTimestamp(stats.FinishedAt), Valid: true}
	}
	var runErr sql.NullString
	if stats.Error != "" {
		runErr = sql.NullString{String: stats.Error, Valid: true}
	}

	query := `
	INSERT INTO runs (
		root_url, started_at, finished_at, begin_from_board, begin_from_topic,
		last_board, last_topic, topics_processed, records_written, interrupted,
		error, stats_json
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		stats.RootURL,
		formatTimestamp(stats.StartedAt),
		finished,
		stats.BeginFromBoard,
		stats.BeginFromTopic,
		stats.LastBoard,
		stats.LastTopic,
		stats.TopicsProcessed,
		stats.RecordsWritten,
		stats.Interrupted,
		runErr,
		string(statsJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save run: %w", err)
	}
	return result.LastInsertId()
}

// ListRuns returns the most recent runs, newest first.
func (r *RunDB) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := `
	SELECT id, stats_json FROM runs
	ORDER BY started_at DESC, id DESC
	LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var (
			run       model.Run
			statsJSON string
		)
		if err := rows.Scan(&run.ID, &statsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if err := json.Unmarshal([]byte(statsJSON), &run.Stats); err != nil {
			continue // skip malformed rows
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns the run with the given id, or ErrRunNotFound.
func (r *RunDB) GetRun(ctx context.Context, id int64) (*model.Run, error) {
	var statsJSON string
	err := r.db.QueryRowContext(ctx, `SELECT stats_json FROM runs WHERE id = ?`, id).Scan(&statsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	run := &model.Run{ID: id}
	if err := json.Unmarshal([]byte(statsJSON), &run.Stats); err != nil {
		return nil, fmt.Errorf("failed to parse run stats: %w", err)
	}
	return run, nil
}

// LastRun returns the most recent run, or nil when the history is empty.
func (r *RunDB) LastRun(ctx context.Context) (*model.Run, error) {
	runs, err := r.ListRuns(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

// formatTimestamp renders t in UTC so rows sort lexically by time.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z07:00")
}

