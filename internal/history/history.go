package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/mirrorsync/internal/model"
)

// FileName is the name of the database file inside the history directory.
const FileName = "mirrorsync.db"

// ErrNotFound is returned when a history database does not exist and
// Options.CreateIfNotExists is false.
var ErrNotFound = errors.New("history database not found")

// DB stores run and entry outcomes.
type DB struct {
	db     *sql.DB
	dbPath string
}

// Options configures DB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the history database in dir.
func Open(dir string, opts Options) (*DB, error) {
	dbPath := filepath.Join(dir, FileName)

	var dsn string
	if opts.CreateIfNotExists {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
		dsn = dbPath + "?mode=rwc"
	} else {
		if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	h := &DB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if err := h.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return h, nil
}

// Path returns the database file path.
func (h *DB) Path() string {
	return h.dbPath
}

// Close closes the database connection.
func (h *DB) Close() error {
	return h.db.Close()
}

func (h *DB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		mode TEXT NOT NULL,
		entries INTEGER NOT NULL DEFAULT 0,
		changed INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS entry_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		entry_id TEXT NOT NULL,
		group_path TEXT NOT NULL,
		network TEXT NOT NULL,
		outcome TEXT NOT NULL,
		domains INTEGER NOT NULL DEFAULT 0,
		attempts INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		started_at TEXT NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_results_run ON entry_results(run_id);
	CREATE INDEX IF NOT EXISTS idx_results_entry ON entry_results(entry_id);
	`
	_, err := h.db.ExecContext(context.Background(), schema)
	return err
}

// Run summarizes one sync run.
type Run struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt time.Time
	Mode       string
	Entries    int
	Changed    int
	Failed     int
}

// Finished reports whether FinishRun was called for the run.
func (r Run) Finished() bool {
	return !r.FinishedAt.IsZero()
}

// EntryRecord is one stored entry outcome.
type EntryRecord struct {
	RunID     int64
	EntryID   string
	Group     string
	Network   string
	Outcome   string
	Domains   int
	Attempts  int
	Error     string
	StartedAt time.Time
	Duration  time.Duration
}

// BeginRun inserts a new run and returns its ID.
func (h *DB) BeginRun(ctx context.Context, mode string, startedAt time.Time) (int64, error) {
	res, err := h.db.ExecContext(ctx,
		`INSERT INTO runs (started_at, mode) VALUES (?, ?)`,
		formatTimestamp(startedAt), mode,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}
	return id, nil
}

// RecordResult stores the outcome of one entry of run runID.
func (h *DB) RecordResult(ctx context.Context, runID int64, r model.SyncResult) error {
	var errText sql.NullString
	if r.Err != nil {
		errText = sql.NullString{String: r.Err.Error(), Valid: true}
	}
	_, err := h.db.ExecContext(ctx, `
	INSERT INTO entry_results
		(run_id, entry_id, group_path, network, outcome, domains, attempts, error, started_at, duration_ms)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, r.EntryID, r.Group, string(r.Network), r.Outcome(),
		r.Domains, r.Attempts, errText, formatTimestamp(r.Started), r.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert result for %s: %w", r.EntryID, err)
	}
	return nil
}

// FinishRun stamps the run as finished and stores its totals.
func (h *DB) FinishRun(ctx context.Context, runID int64, finishedAt time.Time) error {
	_, err := h.db.ExecContext(ctx, `
	UPDATE runs SET
		finished_at = ?,
		entries = (SELECT COUNT(*) FROM entry_results WHERE run_id = ?),
		changed = (SELECT COUNT(*) FROM entry_results WHERE run_id = ? AND outcome = 'changed'),
		failed = (SELECT COUNT(*) FROM entry_results WHERE run_id = ? AND outcome = 'failed')
	WHERE id = ?`,
		formatTimestamp(finishedAt), runID, runID, runID, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run %d: %w", runID, err)
	}
	return nil
}

// LatestRun returns the most recent run, or nil if none was recorded.
func (h *DB) LatestRun(ctx context.Context) (*Run, error) {
	runs, err := h.ListRuns(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

// ListRuns returns up to limit runs, newest first. A non-positive limit
// returns every run.
func (h *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := h.db.QueryContext(ctx, `
	SELECT id, started_at, finished_at, mode, entries, changed, failed
	FROM runs
	ORDER BY id DESC
	LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r        Run
			started  string
			finished sql.NullString
		)
		if err := rows.Scan(&r.ID, &started, &finished, &r.Mode, &r.Entries, &r.Changed, &r.Failed); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt = parseTimestamp(started)
		if finished.Valid {
			r.FinishedAt = parseTimestamp(finished.String)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// EntryHistory returns up to limit stored outcomes of entryID, newest first.
func (h *DB) EntryHistory(ctx context.Context, entryID string, limit int) ([]EntryRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := h.db.QueryContext(ctx, `
	SELECT run_id, entry_id, group_path, network, outcome, domains, attempts, error, started_at, duration_ms
	FROM entry_results
	WHERE entry_id = ?
	ORDER BY id DESC
	LIMIT ?`, entryID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query entry history: %w", err)
	}
	defer rows.Close()

	var records []EntryRecord
	for rows.Next() {
		var (
			rec      EntryRecord
			errText  sql.NullString
			started  string
			duration int64
		)
		if err := rows.Scan(&rec.RunID, &rec.EntryID, &rec.Group, &rec.Network, &rec.Outcome,
			&rec.Domains, &rec.Attempts, &errText, &started, &duration); err != nil {
			return nil, fmt.Errorf("failed to scan entry record: %w", err)
		}
		rec.Error = errText.String
		rec.StartedAt = parseTimestamp(started)
		rec.Duration = time.Duration(duration) * time.Millisecond
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Recorder writes scheduler results of one run. Write failures are
// logged and do not interrupt the sync.
type Recorder struct {
	db     *DB
	runID  int64
	logger *slog.Logger
}

// NewRecorder returns a Recorder for run runID.
func NewRecorder(db *DB, runID int64, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{db: db, runID: runID, logger: logger}
}

// Record stores r. It matches the scheduler result hook signature.
func (rec *Recorder) Record(r model.SyncResult) {
	if err := rec.db.RecordResult(context.Background(), rec.runID, r); err != nil {
		rec.logger.Warn("failed to record history",
			"entry", r.EntryID,
			"error", err,
		)
	}
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTimestamp parses a stored timestamp. Unknown formats yield the
// zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
