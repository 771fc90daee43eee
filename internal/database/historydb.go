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

	"github.com/pagelint/pagelint/internal/model"
)

// HistoryDB stores completed audit-run reports in SQLite so operators can
// list recent runs and compare results over time.
//
// Design decision: One database file shared by all sites rather than a file
// per site. Run history is tiny, cross-site listing is a common query, and a
// single file keeps backup/restore trivial.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging so a reader (audit --history)
	// doesn't block a writer finishing a run.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the run-history database under dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is
// returned instead of creating an empty one.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, "pagelint.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// modernc.org/sqlite: mode=rw refuses to create a new file, mode=rwc
	// allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite supports one writer; funnel everything through one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- Each row is one completed audit run; the full report rides along
	-- as JSON so the summary columns stay queryable without re-parsing.
	CREATE TABLE IF NOT EXISTS audit_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		site_id TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		pages_processed INTEGER NOT NULL,
		pages_failed INTEGER NOT NULL,
		issues_found INTEGER NOT NULL,
		tasks_created INTEGER NOT NULL,
		duplicates_skipped INTEGER NOT NULL,
		rules_unknown INTEGER NOT NULL,
		reporting_failures INTEGER NOT NULL,
		timed_out INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_site ON audit_runs(site_id);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON audit_runs(started_at);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRun persists one completed run report and returns its row ID.
func (hdb *HistoryDB) SaveRun(ctx context.Context, report *model.RunReport) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("serialize report: %w", err)
	}

	query := `
	INSERT INTO audit_runs (
		site_id, started_at, finished_at,
		pages_processed, pages_failed, issues_found,
		tasks_created, duplicates_skipped, rules_unknown, reporting_failures,
		timed_out, error, report_json
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := hdb.db.ExecContext(ctx, query,
		report.SiteID,
		report.StartedAt.UTC().Format(time.RFC3339),
		report.FinishedAt.UTC().Format(time.RFC3339),
		report.PagesProcessed,
		report.PagesFailed,
		report.TotalIssues(),
		report.TasksCreated,
		report.DuplicatesSkipped,
		report.RulesUnknown,
		report.ReportingFailures,
		boolToInt(report.TimedOut),
		report.Error,
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("save run: %w", err)
	}

	return result.LastInsertId()
}

// RunSummary is one row of the run history listing, without the full report.
type RunSummary struct {
	// ID is the run's row ID in the database.
	ID int64

	// SiteID identifies the audited site.
	SiteID string

	// StartedAt is when the run began.
	StartedAt time.Time

	// FinishedAt is when the run completed.
	FinishedAt time.Time

	// PagesProcessed counts pages that completed the per-page cycle.
	PagesProcessed int

	// PagesFailed counts pages skipped due to fetch failure.
	PagesFailed int

	// IssuesFound is the total issue count before dedup.
	IssuesFound int

	// TasksCreated counts tracker tasks filed.
	TasksCreated int

	// DuplicatesSkipped counts issues suppressed as duplicates.
	DuplicatesSkipped int

	// TimedOut is true when the run hit its wall-clock budget.
	TimedOut bool

	// Error is set when the run failed outright.
	Error string
}

// RecentRuns lists the most recent runs, newest first. An empty siteID
// lists runs across all sites.
func (hdb *HistoryDB) RecentRuns(ctx context.Context, siteID string, limit int) ([]RunSummary, error) {
	query := `
	SELECT id, site_id, started_at, finished_at,
		pages_processed, pages_failed, issues_found,
		tasks_created, duplicates_skipped, timed_out, error
	FROM audit_runs
	`
	args := make([]any, 0, 2)
	if siteID != "" {
		query += " WHERE site_id = ?"
		args = append(args, siteID)
	}
	query += " ORDER BY started_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Row errors surface via rows.Err.

	var results []RunSummary
	for rows.Next() {
		var run RunSummary
		var started, finished string
		var timedOut int
		var runError sql.NullString

		err := rows.Scan(
			&run.ID,
			&run.SiteID,
			&started,
			&finished,
			&run.PagesProcessed,
			&run.PagesFailed,
			&run.IssuesFound,
			&run.TasksCreated,
			&run.DuplicatesSkipped,
			&timedOut,
			&runError,
		)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}

		run.StartedAt = parseTimestamp(started)
		run.FinishedAt = parseTimestamp(finished)
		run.TimedOut = timedOut != 0
		run.Error = runError.String
		results = append(results, run)
	}

	return results, rows.Err()
}

// LatestRun retrieves the most recent full report for a site.
// Returns nil without error when the site has no history yet.
func (hdb *HistoryDB) LatestRun(ctx context.Context, siteID string) (*model.RunReport, error) {
	query := `
	SELECT report_json FROM audit_runs
	WHERE site_id = ?
	ORDER BY started_at DESC
	LIMIT 1
	`

	var reportJSON string
	err := hdb.db.QueryRowContext(ctx, query, siteID).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest run: %w", err)
	}

	var report model.RunReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("parse stored report: %w", err)
	}
	return &report, nil
}

// RunByID retrieves a full report by its row ID.
// Returns nil without error when the ID does not exist.
func (hdb *HistoryDB) RunByID(ctx context.Context, id int64) (*model.RunReport, error) {
	var reportJSON string
	err := hdb.db.QueryRowContext(ctx,
		"SELECT report_json FROM audit_runs WHERE id = ?", id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run %d: %w", id, err)
	}

	var report model.RunReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("parse stored report: %w", err)
	}
	return &report, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// timestampFormats contains the timestamp formats SQLite may return.
// The order matters: more specific formats come first.
var timestampFormats = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp attempts each known format and returns zero time when none
// match.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
